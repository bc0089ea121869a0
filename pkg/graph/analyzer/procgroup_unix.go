//go:build unix

package analyzer

import (
	"os/exec"
	"syscall"
)

// configureProcessGroup starts the analyzer in its own process group and
// kills the whole group on cancellation, so worker processes it spawned
// do not outlive it.
func configureProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
