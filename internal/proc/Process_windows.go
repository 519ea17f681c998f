//go:build windows

package proc

import (
	"os/exec"
	"syscall"
	"time"
)

// setProcessGroup creates a new process group so CTRL_BREAK_EVENT can
// target the whole tree instead of just the direct child.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP}
}

// escalateKill has no POSIX signal escalation path on Windows: the
// direct child is killed once the grace period elapses; its own
// children are not terminated.
func escalateKill(cmd *exec.Cmd, grace time.Duration, done <-chan error) {
	time.Sleep(grace)
	_ = cmd.Process.Kill()
}
