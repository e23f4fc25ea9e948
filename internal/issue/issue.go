// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
)

const (
	ShellNotFoundId Id = iota + 1
	ContainerEngineNotFoundId
	InvalidVersionSpecId
	NoMatchingVersionsId
	ConfigLoadFailedId
	SupportDirNotFoundId
	RegressionJobFailedId
)

type (
	// Id identifies an issue in the catalog.
	Id int

	// MarkdownMsg is Markdown text rendered for the operator.
	MarkdownMsg string

	// HttpLink is a documentation or external reference.
	HttpLink string

	// Issue is a Markdown help card for a recurring failure.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		docLinks []HttpLink
	}
)

// Id returns the catalog id of the issue.
func (i *Issue) Id() Id {
	return i.id
}

// MarkdownMsg returns the raw Markdown body.
func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

// DocLinks returns a copy of the issue's reference links.
func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

// Render renders the issue with the given glamour style ("dark", "light",
// "notty", or a path to a JSON style file).
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range i.docLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	shellNotFoundIssue = &Issue{
		id: ShellNotFoundId,
		mdMsg: `
# Shell not found!

The integration suite needs the configured shell, and it is not on this host.
Some integration checks shell out directly and ignore configuration overrides,
so they cannot run without it.

## Things you can try:
- Install the shell, or point ` + "`run.shell`" + ` at one that exists:
~~~
$ crosscheck config show
~~~
- Run the suite inside a container instead:
~~~
$ crosscheck docker-test --version 3.9
~~~`,
	}

	containerEngineNotFoundIssue = &Issue{
		id: ContainerEngineNotFoundId,
		mdMsg: `
# Container engine not available!

docker-test runs every target release in its own container, and neither
Docker nor Podman could be reached.

## Things you can try:
- Install Docker or Podman and make sure the daemon/socket is running
- Pick the engine explicitly:
~~~
$ crosscheck docker-test --engine podman
~~~`,
		docLinks: []HttpLink{
			"https://docs.docker.com/engine/install/",
			"https://podman.io/docs/installation",
		},
	}

	invalidVersionSpecIssue = &Issue{
		id: InvalidVersionSpecId,
		mdMsg: `
# Invalid version spec!

A version spec is a comma-separated list of ` + "`major.minor`" + ` or
` + "`major.minor.patch`" + ` entries.

## Examples:
~~~
$ crosscheck docker-test --version 3.4
$ crosscheck docker-test --version 3.4,3.5
$ crosscheck docker-test --version 2.7,3.9.10
~~~`,
	}

	noMatchingVersionsIssue = &Issue{
		id: NoMatchingVersionsId,
		mdMsg: `
# No supported release matches!

The version spec parsed fine, but none of its entries is in the release catalog.

## Things you can try:
- List the catalog:
~~~
$ crosscheck versions
~~~
- Use ` + "`major.minor`" + ` to match whatever patch release the catalog pins`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

## Things you can try:
- Check the CUE syntax of your config file
- Show the effective configuration:
~~~
$ crosscheck config show
~~~
- Start over from defaults:
~~~
$ crosscheck config init
~~~`,
	}

	supportDirNotFoundIssue = &Issue{
		id: SupportDirNotFoundId,
		mdMsg: `
# Regression support directory not found!

The regression batch runs from a dedicated support directory
(` + "`regression.support_dir`" + `, default ` + "`integration/_support`" + `).

## Things you can try:
- Run crosscheck from the project root
- Point ` + "`regression.support_dir`" + ` at the right directory`,
	}

	regressionJobFailedIssue = &Issue{
		id: RegressionJobFailedId,
		mdMsg: `
# Regression batch halted!

One regression job failed, so every other job in the batch was stopped.
Its output above shows what went wrong.

## Things you can try:
- Re-run with a single job to get uninterleaved output:
~~~
$ crosscheck regression --jobs 1
~~~`,
	}

	issues = map[Id]*Issue{
		shellNotFoundIssue.Id():           shellNotFoundIssue,
		containerEngineNotFoundIssue.Id(): containerEngineNotFoundIssue,
		invalidVersionSpecIssue.Id():      invalidVersionSpecIssue,
		noMatchingVersionsIssue.Id():      noMatchingVersionsIssue,
		configLoadFailedIssue.Id():        configLoadFailedIssue,
		supportDirNotFoundIssue.Id():      supportDirNotFoundIssue,
		regressionJobFailedIssue.Id():     regressionJobFailedIssue,
	}
)

// Values returns every catalog issue ordered by id.
func Values() []*Issue {
	return slices.SortedFunc(maps.Values(issues), func(a, b *Issue) int {
		return cmp.Compare(a.id, b.id)
	})
}

// Get returns the issue for id, or nil if there is none.
func Get(id Id) *Issue {
	return issues[id]
}
