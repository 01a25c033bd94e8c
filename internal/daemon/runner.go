// Package daemon wires the queue manager, providers, metadata cache and
// RPC server together and runs them until the context ends.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"
	"github.com/warpdl/warptube/common"
	"github.com/warpdl/warptube/internal/api"
	"github.com/warpdl/warptube/internal/provider"
	"github.com/warpdl/warptube/internal/secret"
	"github.com/warpdl/warptube/internal/server"
	"github.com/warpdl/warptube/internal/store"
	"github.com/warpdl/warptube/pkg/logger"
	"github.com/warpdl/warptube/pkg/metacache"
	"github.com/warpdl/warptube/pkg/tubelib"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrAlreadyRunning is returned when Start is called on a running daemon.
	ErrAlreadyRunning = errors.New("daemon is already running")

	// ErrNotRunning is returned when Shutdown is called on a stopped daemon.
	ErrNotRunning = errors.New("daemon is not running")

	// ErrShutdownTimeout is returned when shutdown exceeds the configured timeout.
	ErrShutdownTimeout = errors.New("shutdown timed out")
)

// Config holds the daemon settings. Zero values pick defaults.
type Config struct {
	// ConfigDir holds the queue snapshot and the fallback secret file.
	ConfigDir string
	// DownloadDir is where jobs without an explicit path are saved.
	DownloadDir string

	// Addr is the listen address; empty means common.Addr(Host, Port).
	Addr string
	Host string
	Port int

	// Secret is the bearer token from the environment, if any.
	Secret         string
	OriginPatterns []string

	// StoreKind is store.BackendFile or store.BackendSQLite.
	StoreKind     string
	YTDLP         string
	FFmpeg        string
	MaxConcurrent int
	CacheTTL      time.Duration

	// ShutdownTimeout bounds Shutdown. Zero waits forever.
	ShutdownTimeout time.Duration

	Version   string
	Commit    string
	BuildType string
}

// Dependencies are injectable collaborators, mostly for tests.
type Dependencies struct {
	Logger logger.Logger
	// Fs backs the secret file. Defaults to the OS filesystem.
	Fs afero.Fs
	// Extractors replaces the default yt-dlp provider.
	Extractors []provider.Extractor
	// OnReady is called once the server is listening.
	OnReady func(addr net.Addr, secret string)
}

// Runner manages the daemon lifecycle.
type Runner struct {
	config *Config
	deps   *Dependencies
	log    logger.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	addr    net.Addr
}

// New creates a runner. Nil config or deps get defaults.
func New(config *Config, deps *Dependencies) *Runner {
	cfg := applyConfigDefaults(config)
	d := applyDependencyDefaults(deps, cfg)
	return &Runner{
		config: cfg,
		deps:   d,
		log:    logger.OrNop(d.Logger),
	}
}

func applyConfigDefaults(config *Config) *Config {
	var cfg Config
	if config != nil {
		cfg = *config
	}
	if cfg.ConfigDir == "" {
		cfg.ConfigDir = common.ConfigDir()
	}
	if cfg.Addr == "" {
		cfg.Addr = common.Addr(cfg.Host, cfg.Port)
	}
	if cfg.StoreKind == "" {
		cfg.StoreKind = store.BackendFile
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = metacache.DefaultTTL
	}
	if cfg.DownloadDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.DownloadDir = filepath.Join(home, "Downloads")
		}
	}
	return &cfg
}

func applyDependencyDefaults(deps *Dependencies, cfg *Config) *Dependencies {
	var d Dependencies
	if deps != nil {
		d = *deps
	}
	if d.Fs == nil {
		d.Fs = afero.NewOsFs()
	}
	if len(d.Extractors) == 0 {
		d.Extractors = []provider.Extractor{provider.NewYTDLP(&provider.YTDLPOpts{
			Binary: cfg.YTDLP,
			FFmpeg: cfg.FFmpeg,
			Logger: d.Logger,
		})}
	}
	return &d
}

// Config returns the runner's effective configuration.
func (r *Runner) Config() *Config {
	return r.config
}

// Addr returns the bound address while running.
func (r *Runner) Addr() net.Addr {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addr
}

// Start runs the daemon and blocks until ctx is cancelled or Shutdown is
// called. A cancelled context is a clean exit and returns nil.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return ErrAlreadyRunning
	}
	ctx, r.cancel = context.WithCancel(ctx)
	r.running = true
	r.done = make(chan struct{})
	r.mu.Unlock()

	defer r.cleanupOnStop()
	err := r.run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (r *Runner) run(ctx context.Context) error {
	cfg := r.config
	// The bound port is the single-instance lock; nothing touches the
	// snapshot until it is held.
	l, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("error listening: %w", err)
	}
	defer l.Close()

	if err := os.MkdirAll(cfg.ConfigDir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	token, src, err := secret.New(r.deps.Fs, cfg.ConfigDir).Ensure(cfg.Secret)
	if err != nil {
		return fmt.Errorf("rpc secret: %w", err)
	}
	r.log.Info("RPC secret loaded from %s", src)

	st, err := store.Open(cfg.StoreKind, cfg.ConfigDir, r.log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	reg := provider.NewRegistry(r.deps.Extractors...)
	m := tubelib.NewManager(reg, st, &tubelib.ManagerOpts{
		MaxConcurrent: cfg.MaxConcurrent,
		Logger:        r.log,
	})
	events, unsubscribe := m.Subscribe(0)
	defer unsubscribe()

	meta := provider.NewMetadataService(reg, metacache.New(cfg.CacheTTL), tubelib.DefaultRetryPolicy(), r.log)
	a := api.NewApi(&api.Config{
		Version:     cfg.Version,
		Commit:      cfg.Commit,
		BuildType:   cfg.BuildType,
		DownloadDir: cfg.DownloadDir,
		Logger:      r.log,
	}, m, meta, reg)
	defer func() {
		if err := a.Close(); err != nil {
			r.log.Error("Failed to save queue on shutdown: %v", err)
		}
	}()

	srv := server.NewServer(&server.Config{
		Addr:           cfg.Addr,
		Secret:         token,
		OriginPatterns: cfg.OriginPatterns,
		Listener:       l,
		Logger:         r.log,
	}, a.Methods())
	addr, err := srv.Listen()
	if err != nil {
		return err
	}
	// Restore logs and continues with an empty queue on a bad snapshot.
	_ = m.Restore()
	r.mu.Lock()
	r.addr = addr
	r.mu.Unlock()
	if r.deps.OnReady != nil {
		r.deps.OnReady(addr, token)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Start(gctx) })
	g.Go(func() error { return srv.Notifier().Forward(gctx, events) })
	g.Go(func() error { return meta.Cache().StartJanitor(gctx, cfg.CacheTTL) })
	return g.Wait()
}

func (r *Runner) cleanupOnStop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = false
	r.addr = nil
	close(r.done)
}

// Shutdown stops a running daemon and waits for it to exit.
func (r *Runner) Shutdown() error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return ErrNotRunning
	}
	cancel, done := r.cancel, r.done
	r.mu.Unlock()

	cancel()
	if r.config.ShutdownTimeout <= 0 {
		<-done
		return nil
	}
	select {
	case <-done:
		return nil
	case <-time.After(r.config.ShutdownTimeout):
		return ErrShutdownTimeout
	}
}

// IsRunning returns true if the daemon is currently running.
func (r *Runner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}
