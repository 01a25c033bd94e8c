// Package server exposes the daemon's JSON-RPC methods over HTTP and
// WebSocket and pushes queue events to WebSocket clients.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/creachadair/jrpc2/handler"
	"github.com/creachadair/jrpc2/jhttp"
	"github.com/warpdl/warptube/common"
	"github.com/warpdl/warptube/pkg/logger"
)

const shutdownTimeout = 5 * time.Second

// Config holds the listen address and auth settings.
type Config struct {
	Addr   string
	Secret string
	// OriginPatterns are extra host patterns allowed to open WebSocket
	// connections from a browser.
	OriginPatterns []string
	// Listener, when set, is served instead of binding Addr.
	Listener net.Listener
	Logger   logger.Logger
}

// Server serves the method table at common.RPCPath (HTTP POST) and
// common.WSPath (WebSocket with push notifications).
type Server struct {
	log      logger.Logger
	addr     string
	secret   string
	origins  []string
	methods  handler.Map
	bridge   jhttp.Bridge
	notifier *RPCNotifier

	ctx    context.Context
	cancel context.CancelFunc

	server   *http.Server
	listener net.Listener
	mu       sync.Mutex
}

func NewServer(cfg *Config, methods handler.Map) *Server {
	l := logger.OrNop(cfg.Logger)
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		log:      l,
		addr:     cfg.Addr,
		secret:   cfg.Secret,
		origins:  cfg.OriginPatterns,
		methods:  methods,
		bridge:   jhttp.NewBridge(methods, nil),
		notifier: NewRPCNotifier(l),
		listener: cfg.Listener,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Notifier returns the broadcaster feeding WebSocket clients.
func (s *Server) Notifier() *RPCNotifier { return s.notifier }

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(common.RPCPath, requireToken(s.secret, s.bridge))
	mux.Handle(common.WSPath, requireToken(s.secret, http.HandlerFunc(s.handleWS)))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Listen binds the configured address, or adopts Config.Listener. It is
// split from Serve so callers learn about a busy port before starting
// goroutines.
func (s *Server) Listen() (net.Addr, error) {
	s.mu.Lock()
	l := s.listener
	s.mu.Unlock()
	if l == nil {
		var err error
		if l, err = net.Listen("tcp", s.addr); err != nil {
			return nil, fmt.Errorf("error listening: %w", err)
		}
	}
	s.mu.Lock()
	s.listener = l
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          logger.ToStdLogger(s.log),
	}
	s.mu.Unlock()
	return l.Addr(), nil
}

// Start serves until ctx is cancelled, then shuts down.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.server == nil {
		s.mu.Unlock()
		if _, err := s.Listen(); err != nil {
			return err
		}
		s.mu.Lock()
	}
	srv, l := s.server, s.listener
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.Shutdown()
	}()
	s.log.Info("server: listening on %s", l.Addr())
	err := srv.Serve(l)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown closes WebSocket sessions, stops the listener and releases
// the HTTP bridge.
func (s *Server) Shutdown() error {
	s.cancel()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := s.server.Shutdown(ctx)
	if err != nil {
		s.log.Warning("server: shutdown: %v", err)
	}
	s.bridge.Close()
	s.server = nil
	s.listener = nil
	return err
}
