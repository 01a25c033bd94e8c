package tubecli

import (
	"fmt"
	"net"
	"os"
	"os/exec"
	"time"

	"github.com/warpdl/warptube/common"
)

const (
	daemonStartTimeout = 5 * time.Second
	dialPollInterval   = 50 * time.Millisecond
	dialTimeout        = 100 * time.Millisecond
)

// spawnDaemon is replaced in tests.
var spawnDaemon = startDaemonProcess

// ensureDaemon starts a background daemon if nothing listens on addr.
func ensureDaemon(addr string) error {
	if isDaemonRunning(addr) {
		return nil
	}
	if err := spawnDaemon(addr); err != nil {
		return err
	}
	return waitForDaemon(addr, daemonStartTimeout)
}

// daemonCommand prepares "<self> daemon" bound to addr. The address goes
// through the environment so it also reaches flags the daemon defaults
// from it.
func daemonCommand(addr string) (*exec.Cmd, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid daemon address %q: %w", addr, err)
	}
	executable, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}
	cmd := exec.Command(executable, "daemon")
	cmd.Env = append(os.Environ(), common.HostEnv+"="+host, common.PortEnv+"="+port)
	detach(cmd)
	return cmd, nil
}

func startDaemonProcess(addr string) error {
	cmd, err := daemonCommand(addr)
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}
	// Nobody waits on the child; releasing keeps it from lingering as ours.
	_ = cmd.Process.Release()
	return nil
}

func isDaemonRunning(addr string) bool {
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

func waitForDaemon(addr string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if isDaemonRunning(addr) {
			return nil
		}
		time.Sleep(dialPollInterval)
	}
	return fmt.Errorf("daemon failed to start within %v", timeout)
}
