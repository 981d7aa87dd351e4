//go:build windows

package executor

import (
	"os/exec"
	"syscall"
)

// detach starts cmd in a new process group so console Ctrl-C events sent to
// lmtray do not reach the launched app.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP}
}
