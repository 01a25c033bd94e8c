//go:build !windows

package tubecli

import (
	"os/exec"
	"syscall"
)

// detach puts the daemon in its own process group so terminal signals
// aimed at the CLI miss it.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
