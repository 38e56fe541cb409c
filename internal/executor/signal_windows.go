//go:build windows

package executor

import (
	"os/exec"
	"time"
)

// configureTermination on Windows falls back to the default hard kill.
func configureTermination(cmd *exec.Cmd) {
	cmd.WaitDelay = 10 * time.Second
}
