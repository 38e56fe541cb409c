//go:build unix || darwin || linux
// +build unix darwin linux

package executor

import (
	"os/exec"
	"syscall"
	"time"
)

// configureTermination makes context cancellation send SIGTERM first so the
// worker can flush its own records, with a hard kill after the wait delay.
func configureTermination(cmd *exec.Cmd) {
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = 10 * time.Second
}
