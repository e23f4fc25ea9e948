// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/crosscheck/crosscheck/cmd/crosscheck"

func main() {
	cmd.Execute()
}
