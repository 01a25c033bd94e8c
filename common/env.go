// Package common provides the names and wire types shared by the warptube
// daemon and its clients.
package common

import (
	"net"
	"os"
	"path/filepath"
	"strconv"
)

// Environment variable names for configuration.
const (
	// ConfigDirEnv overrides the directory holding state, logs and the
	// fallback secret file.
	ConfigDirEnv = "WARPTUBE_CONFIG_DIR"

	// HostEnv and PortEnv set the daemon's listen address.
	HostEnv = "WARPTUBE_HOST"
	PortEnv = "WARPTUBE_PORT"

	// SecretEnv supplies the RPC bearer token directly.
	SecretEnv = "WARPTUBE_RPC_SECRET"

	// YTDLPEnv and FFmpegEnv point at the external tools.
	YTDLPEnv  = "WARPTUBE_YTDLP"
	FFmpegEnv = "WARPTUBE_FFMPEG"

	// StoreEnv selects the snapshot backend: "file" or "sqlite".
	StoreEnv = "WARPTUBE_STORE"

	MaxConcurrentEnv = "WARPTUBE_MAX_CONCURRENT"
	LogFileEnv       = "WARPTUBE_LOG_FILE"

	// DebugEnv enables debug logging.
	DebugEnv = "WARPTUBE_DEBUG"
)

const (
	DefaultHost = "127.0.0.1"
	DefaultPort = 7879

	RPCPath = "/jsonrpc"
	WSPath  = "/jsonrpc/ws"
)

// ConfigDir returns WARPTUBE_CONFIG_DIR or <user config dir>/warptube.
func ConfigDir() string {
	if dir := os.Getenv(ConfigDirEnv); dir != "" {
		return dir
	}
	base, err := os.UserConfigDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "warptube")
}

// Addr joins host and port, filling in defaults.
func Addr(host string, port int) string {
	if host == "" {
		host = DefaultHost
	}
	if port <= 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}
