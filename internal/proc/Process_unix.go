//go:build linux || darwin

package proc

import (
	"os/exec"
	"syscall"
	"time"
)

// setProcessGroup puts the child in its own process group so signals
// sent to -pid reach every descendant, not just the direct child.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true, Pgid: 0}
}

// escalateKill sends SIGINT to the whole process group, waits up to
// grace for it to exit on its own, then sends SIGTERM if it hasn't.
// It polls liveness with a zero signal rather than consuming the
// caller's done channel, since the caller still needs to read Wait's
// result off it afterwards.
func escalateKill(cmd *exec.Cmd, grace time.Duration, done <-chan error) {
	pgid := cmd.Process.Pid
	syscall.Kill(-pgid, syscall.SIGINT)

	deadline := time.Now().Add(grace)
	for time.Now().Before(deadline) {
		if err := syscall.Kill(-pgid, 0); err != nil {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}

	syscall.Kill(-pgid, syscall.SIGTERM)
}
