//go:build unix

package engine

import (
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

func buildSysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

// terminateProcessGroup asks the whole group to exit so interpreter
// children do not outlive the run.
func terminateProcessGroup(p *os.Process) {
	if p == nil || p.Pid <= 0 {
		return
	}
	if err := unix.Kill(-p.Pid, unix.SIGTERM); err != nil {
		_ = p.Signal(unix.SIGTERM)
	}
}

func killProcessGroup(p *os.Process) {
	if p == nil || p.Pid <= 0 {
		return
	}
	if err := unix.Kill(-p.Pid, unix.SIGKILL); err != nil {
		_ = p.Kill()
	}
}
