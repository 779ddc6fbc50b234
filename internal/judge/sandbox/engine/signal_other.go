//go:build !unix

package engine

import (
	"os"
	"syscall"
)

func buildSysProcAttr() *syscall.SysProcAttr {
	return nil
}

// Without process groups there is no graceful signal to send; the grace
// period still applies before the second attempt.
func terminateProcessGroup(p *os.Process) {
	if p != nil {
		_ = p.Kill()
	}
}

func killProcessGroup(p *os.Process) {
	if p != nil {
		_ = p.Kill()
	}
}
