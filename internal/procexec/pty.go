// SPDX-License-Identifier: MPL-2.0

package procexec

import (
	"io"
	"os"
	"os/exec"

	"github.com/creack/pty"
	"golang.org/x/term"
)

func stdinIsTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// runWithPTY runs cmd on a pseudo-terminal, putting the caller's terminal in
// raw mode for the duration. The child becomes a session leader, so the
// process-group attributes set by Command are dropped.
func runWithPTY(cmd *exec.Cmd, opts Options) error {
	stdin := opts.Stdin.(*os.File)
	cmd.SysProcAttr = nil

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = ptmx.Close() }()

	_ = pty.InheritSize(stdin, ptmx)

	if state, err := term.MakeRaw(int(stdin.Fd())); err == nil {
		defer func() { _ = term.Restore(int(stdin.Fd()), state) }()
	}

	go func() { _, _ = io.Copy(ptmx, stdin) }()

	out := opts.Stdout
	if out == nil {
		out = io.Discard
	}
	copied := make(chan struct{})
	go func() {
		// EIO on read marks the child closing its side of the terminal.
		_, _ = io.Copy(out, ptmx)
		close(copied)
	}()

	err = cmd.Wait()
	_ = ptmx.Close()
	<-copied
	return err
}
