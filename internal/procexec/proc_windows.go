// SPDX-License-Identifier: MPL-2.0

//go:build windows

package procexec

import "os/exec"

func configureProcessGroup(*exec.Cmd) {}

func terminateProcessGroup(cmd *exec.Cmd) {
	if cmd == nil || cmd.Process == nil {
		return
	}
	_ = cmd.Process.Kill()
}
