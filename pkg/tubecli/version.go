package tubecli

import (
	"context"
	"fmt"
	"io"
	"os"
)

// VersionCheckEnv suppresses version mismatch warnings when set.
const VersionCheckEnv = "WARPTUBE_SUPPRESS_VERSION_CHECK"

// CheckVersionMismatch warns on w when the daemon runs a different
// version than the CLI. It never fails the command.
func (c *Client) CheckVersionMismatch(ctx context.Context, w io.Writer, expectedVersion string) {
	if expectedVersion == "" || os.Getenv(VersionCheckEnv) != "" {
		return
	}
	v, err := c.Version(ctx)
	if err != nil {
		fmt.Fprintf(w, "Warning: could not verify daemon version: %v\n", err)
		return
	}
	if v.Version != expectedVersion {
		fmt.Fprintf(w, "Warning: CLI version (%s) differs from daemon version (%s)\n", expectedVersion, v.Version)
		fmt.Fprintf(w, "Restart the daemon to pick up the new version.\n")
	}
}
