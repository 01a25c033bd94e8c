package tubecli

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"
	"github.com/warpdl/warptube/common"
	"github.com/warpdl/warptube/internal/server"
	"github.com/warpdl/warptube/pkg/tubelib"
)

const testSecret = "tok"

func testMethods() handler.Map {
	return handler.Map{
		common.MethodVersion: handler.New(func(context.Context) (*common.VersionResult, error) {
			return &common.VersionResult{Version: "1.0.0"}, nil
		}),
		common.MethodQueueGet: handler.New(func(_ context.Context, p *common.IDParams) (*tubelib.Job, error) {
			if p.ID != "a" {
				data, _ := json.Marshal(ErrorInfo{Kind: "not_found", Action: "List the queue"})
				return nil, &jrpc2.Error{Code: common.CodeJobNotFound, Message: "Job not found: " + p.ID, Data: data}
			}
			return &tubelib.Job{ID: "a", Status: tubelib.StatusQueued}, nil
		}),
		common.MethodQueuePause: handler.New(func(_ context.Context, p *common.IDParams) (*tubelib.Job, error) {
			if p.ID != "a" {
				return nil, nil
			}
			return &tubelib.Job{ID: "a", Status: tubelib.StatusPaused}, nil
		}),
		common.MethodQueueClear: handler.New(func(context.Context) (*common.ClearResult, error) {
			return &common.ClearResult{Removed: 2}, nil
		}),
	}
}

func startServer(t *testing.T) (*server.Server, string) {
	t.Helper()
	s := server.NewServer(&server.Config{Secret: testSecret}, testMethods())
	hs := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		s.Shutdown()
		hs.Close()
	})
	return s, strings.TrimPrefix(hs.URL, "http://")
}

func dial(t *testing.T, addr string) *Client {
	t.Helper()
	c, err := Dial(context.Background(), &Options{Addr: addr, Secret: testSecret})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestTypedCalls(t *testing.T) {
	_, addr := startServer(t)
	c := dial(t, addr)
	ctx := context.Background()

	v, err := c.Version(ctx)
	if err != nil || v.Version != "1.0.0" {
		t.Fatalf("Version = %+v, %v", v, err)
	}
	j, err := c.Get(ctx, "a")
	if err != nil || j.ID != "a" || j.Status != tubelib.StatusQueued {
		t.Fatalf("Get = %+v, %v", j, err)
	}
	j, err = c.Pause(ctx, "a")
	if err != nil || j == nil || j.Status != tubelib.StatusPaused {
		t.Fatalf("Pause = %+v, %v", j, err)
	}
	j, err = c.Pause(ctx, "zzz")
	if err != nil || j != nil {
		t.Fatalf("Pause of unknown id = %+v, %v; want nil job", j, err)
	}
	n, err := c.Clear(ctx)
	if err != nil || n != 2 {
		t.Fatalf("Clear = %d, %v", n, err)
	}
}

func TestCallErrors(t *testing.T) {
	_, addr := startServer(t)
	c := dial(t, addr)

	_, err := c.Get(context.Background(), "zzz")
	if err == nil {
		t.Fatal("Get of unknown id succeeded")
	}
	if got := ErrorMessage(err); got != "Job not found: zzz" {
		t.Errorf("ErrorMessage = %q", got)
	}
	if got := ErrorCode(err); got != common.CodeJobNotFound {
		t.Errorf("ErrorCode = %d", got)
	}
	info, ok := ErrorDetails(err)
	if !ok || info.Kind != "not_found" || info.Action == "" {
		t.Errorf("ErrorDetails = %+v, %v", info, ok)
	}

	plain := errors.New("boom")
	if ErrorMessage(plain) != "boom" || ErrorCode(plain) != 0 {
		t.Error("plain error not passed through")
	}
	if _, ok := ErrorDetails(plain); ok {
		t.Error("ErrorDetails on plain error")
	}
}

func TestDialRejectsBadSecret(t *testing.T) {
	_, addr := startServer(t)
	if _, err := Dial(context.Background(), &Options{Addr: addr, Secret: "nope"}); err == nil {
		t.Fatal("Dial with wrong secret succeeded")
	}
}

func TestNotificationsDispatch(t *testing.T) {
	s, addr := startServer(t)
	c := dial(t, addr)

	progress := make(chan *common.ProgressNotification, 1)
	status := make(chan *common.StatusNotification, 1)
	c.Dispatcher().OnProgress(func(p *common.ProgressNotification) { progress <- p })
	c.Dispatcher().OnStatus(func(p *common.StatusNotification) { status <- p })

	// The server registers the connection once it handles a call.
	if _, err := c.Version(context.Background()); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for s.Notifier().Count() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("connection never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	s.Notifier().Broadcast(common.NotifyProgress, &common.ProgressNotification{ID: "a", Progress: tubelib.Progress{Percentage: 10}})
	s.Notifier().Broadcast(common.NotifyStatus, &common.StatusNotification{ID: "a", Status: tubelib.StatusPaused})

	select {
	case p := <-progress:
		if p.ID != "a" || p.Progress.Percentage != 10 {
			t.Errorf("progress = %+v", p)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no progress notification")
	}
	select {
	case p := <-status:
		if p.Status != tubelib.StatusPaused {
			t.Errorf("status = %+v", p)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no status notification")
	}
}

func TestListenReturnsOnDisconnect(t *testing.T) {
	_, addr := startServer(t)
	c := dial(t, addr)
	errc := make(chan error, 1)
	go func() { errc <- c.Listen(context.Background()) }()
	c.Disconnect()
	select {
	case err := <-errc:
		if err != nil {
			t.Errorf("Listen = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Listen did not return")
	}
}

func TestEnsureDaemonSpawns(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := l.Addr().String()
	l.Close()

	spawned := 0
	old := spawnDaemon
	t.Cleanup(func() { spawnDaemon = old })
	spawnDaemon = func(target string) error {
		spawned++
		if target != addr {
			t.Errorf("spawned for %q, want %q", target, addr)
		}
		nl, err := net.Listen("tcp", addr)
		if err != nil {
			return err
		}
		t.Cleanup(func() { nl.Close() })
		return nil
	}

	if err := ensureDaemon(addr); err != nil {
		t.Fatalf("ensureDaemon: %v", err)
	}
	if err := ensureDaemon(addr); err != nil {
		t.Fatalf("second ensureDaemon: %v", err)
	}
	if spawned != 1 {
		t.Errorf("spawned %d times, want 1", spawned)
	}
}

func TestDaemonCommandCarriesAddress(t *testing.T) {
	cmd, err := daemonCommand("127.0.0.1:9123")
	if err != nil {
		t.Fatal(err)
	}
	if len(cmd.Args) != 2 || cmd.Args[1] != "daemon" {
		t.Errorf("args = %v", cmd.Args)
	}
	env := strings.Join(cmd.Env, "\n")
	if !strings.Contains(env, common.HostEnv+"=127.0.0.1") || !strings.Contains(env, common.PortEnv+"=9123") {
		t.Errorf("env lacks daemon address")
	}
	if cmd.SysProcAttr == nil {
		t.Error("daemon command not detached")
	}
	if _, err := daemonCommand("no-port"); err == nil {
		t.Error("daemonCommand accepted an address without a port")
	}
}

func TestEnsureDaemonSpawnFailure(t *testing.T) {
	old := spawnDaemon
	t.Cleanup(func() { spawnDaemon = old })
	spawnDaemon = func(string) error { return errors.New("no binary") }
	if err := ensureDaemon("127.0.0.1:1"); err == nil || !strings.Contains(err.Error(), "no binary") {
		t.Errorf("ensureDaemon = %v", err)
	}
}
