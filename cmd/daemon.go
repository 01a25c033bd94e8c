package cmd

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli"
	cmdCommon "github.com/warpdl/warptube/cmd/common"
	"github.com/warpdl/warptube/common"
	"github.com/warpdl/warptube/internal/daemon"
	"github.com/warpdl/warptube/internal/store"
	"github.com/warpdl/warptube/pkg/logger"
)

var daemonFlags = []cli.Flag{
	cli.StringFlag{
		Name:   "config-dir",
		Usage:  "directory for the queue snapshot and secret",
		EnvVar: common.ConfigDirEnv,
	},
	cli.StringFlag{
		Name:  "download-dir, o",
		Usage: "default directory for downloads (default: ~/Downloads)",
	},
	cli.StringFlag{
		Name:   "store",
		Usage:  "queue snapshot backend: file or sqlite",
		EnvVar: common.StoreEnv,
		Value:  store.BackendFile,
	},
	cli.StringFlag{
		Name:   "ytdlp",
		Usage:  "yt-dlp executable",
		EnvVar: common.YTDLPEnv,
	},
	cli.StringFlag{
		Name:   "ffmpeg",
		Usage:  "ffmpeg executable",
		EnvVar: common.FFmpegEnv,
	},
	cli.IntFlag{
		Name:   "max-concurrent, m",
		Usage:  "downloads running at once (1-5)",
		EnvVar: common.MaxConcurrentEnv,
		Value:  3,
	},
	cli.StringSliceFlag{
		Name:  "allow-origin",
		Usage: "extra browser origin allowed to open WebSocket connections",
	},
	cli.StringFlag{
		Name:   "log-file",
		Usage:  "also write logs to this file",
		EnvVar: common.LogFileEnv,
	},
	cli.BoolFlag{
		Name:   "debug",
		Usage:  "enable debug logging",
		EnvVar: common.DebugEnv,
	},
}

// newDaemonLogger logs to stderr and, when path is set, to a file.
func newDaemonLogger(path string, debug bool) (logger.Logger, error) {
	std := logger.NewStandardLogger(log.New(os.Stderr, "", log.LstdFlags)).WithDebug(debug)
	if path == "" {
		return std, nil
	}
	fl, err := logger.NewFileLogger(path, debug)
	if err != nil {
		return nil, err
	}
	return logger.NewMultiLogger(std, fl), nil
}

func daemonConfig(ctx *cli.Context) *daemon.Config {
	configDir := ctx.String("config-dir")
	if configDir == "" {
		configDir = common.ConfigDir()
	}
	return &daemon.Config{
		ConfigDir:      configDir,
		DownloadDir:    ctx.String("download-dir"),
		Host:           clientHost,
		Port:           clientPort,
		Secret:         clientSecret,
		OriginPatterns: ctx.StringSlice("allow-origin"),
		StoreKind:      ctx.String("store"),
		YTDLP:          ctx.String("ytdlp"),
		FFmpeg:         ctx.String("ffmpeg"),
		MaxConcurrent:  ctx.Int("max-concurrent"),
		Version:        buildArgs.Version,
		Commit:         buildArgs.Commit,
		BuildType:      buildArgs.BuildType,
	}
}

func runDaemon(ctx *cli.Context) error {
	l, err := newDaemonLogger(ctx.String("log-file"), ctx.Bool("debug"))
	if err != nil {
		cmdCommon.PrintRuntimeErr(ctx, "daemon", "logger", err)
		return nil
	}
	defer l.Close()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := daemon.New(daemonConfig(ctx), &daemon.Dependencies{
		Logger: l,
		OnReady: func(addr net.Addr, _ string) {
			fmt.Fprintf(cmdCommon.Stdout, "%s: daemon listening on %s\n", ctx.App.HelpName, addr)
		},
	})
	if err := r.Start(sigCtx); err != nil {
		cmdCommon.PrintRuntimeErr(ctx, "daemon", "start", err)
		return err
	}
	l.Info("Daemon stopped")
	return nil
}
