//go:build unix

package executor

import (
	"os/exec"
	"syscall"
)

// detach starts cmd in its own session so terminal signals sent to lmtray
// (Ctrl-C, hangup) do not reach the launched app.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}
