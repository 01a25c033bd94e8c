package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/warpdl/warptube/common"
	"github.com/warpdl/warptube/internal/provider"
	"github.com/warpdl/warptube/internal/store"
	"github.com/warpdl/warptube/pkg/logger"
	"github.com/warpdl/warptube/pkg/tubelib"
	"github.com/zalando/go-keyring"
)

// blockingExtractor serves https://v.test/ URLs and never finishes a
// download on its own.
type blockingExtractor struct{}

func (blockingExtractor) Name() string            { return "Test" }
func (blockingExtractor) Matches(url string) bool { return strings.HasPrefix(url, "https://v.test/") }
func (blockingExtractor) Download(ctx context.Context, _ string, _ tubelib.DownloadOptions, _ string, _ func(tubelib.Progress)) error {
	<-ctx.Done()
	return ctx.Err()
}
func (blockingExtractor) VideoInfo(context.Context, string) (tubelib.VideoInfo, error) {
	return tubelib.VideoInfo{}, nil
}
func (blockingExtractor) PlaylistInfo(context.Context, string) (tubelib.PlaylistInfo, error) {
	return tubelib.PlaylistInfo{}, nil
}
func (blockingExtractor) ChannelInfo(context.Context, string) (tubelib.ChannelInfo, error) {
	return tubelib.ChannelInfo{}, nil
}
func (blockingExtractor) CheckDependencies(context.Context) []tubelib.Dependency { return nil }
func (blockingExtractor) Version(context.Context) (string, error)                { return "test", nil }
func (blockingExtractor) SupportedPatterns() []string                            { return nil }

type ready struct {
	addr   net.Addr
	secret string
}

func startRunner(t *testing.T, dir, kind string) (*Runner, ready, chan error) {
	t.Helper()
	keyring.MockInit()
	readyCh := make(chan ready, 1)
	r := New(&Config{
		ConfigDir:     dir,
		DownloadDir:   t.TempDir(),
		Addr:          "127.0.0.1:0",
		StoreKind:     kind,
		MaxConcurrent: 1,
		Version:       "9.9.9",
	}, &Dependencies{
		Logger:     logger.NewMockLogger(),
		Fs:         afero.NewMemMapFs(),
		Extractors: []provider.Extractor{blockingExtractor{}},
		OnReady:    func(a net.Addr, s string) { readyCh <- ready{a, s} },
	})
	done := make(chan error, 1)
	go func() { done <- r.Start(context.Background()) }()
	select {
	case rd := <-readyCh:
		return r, rd, done
	case err := <-done:
		t.Fatalf("Start returned early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not become ready")
	}
	return nil, ready{}, nil
}

func rpc(t *testing.T, rd ready, method string, params, result any) {
	t.Helper()
	body, _ := json.Marshal(map[string]any{"jsonrpc": "2.0", "id": 1, "method": method, "params": params})
	req, _ := http.NewRequest(http.MethodPost, "http://"+rd.addr.String()+common.RPCPath, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+rd.secret)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s: %v", method, err)
	}
	defer resp.Body.Close()
	var out struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("%s: decode: %v", method, err)
	}
	if out.Error != nil {
		t.Fatalf("%s: rpc error: %s", method, out.Error.Message)
	}
	if result != nil {
		if err := json.Unmarshal(out.Result, result); err != nil {
			t.Fatalf("%s: result: %v", method, err)
		}
	}
}

func stop(t *testing.T, r *Runner, done chan error) {
	t.Helper()
	if err := r.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("Start returned %v", err)
	}
	if r.IsRunning() {
		t.Error("runner still marked running")
	}
}

func TestRunnerServesAndRestoresQueue(t *testing.T) {
	for _, kind := range []string{store.BackendFile, store.BackendSQLite} {
		t.Run(kind, func(t *testing.T) {
			dir := t.TempDir()
			r, rd, done := startRunner(t, dir, kind)
			if rd.secret == "" {
				t.Fatal("empty secret")
			}

			var v common.VersionResult
			rpc(t, rd, common.MethodVersion, nil, &v)
			if v.Version != "9.9.9" || v.Extractor != "test" {
				t.Errorf("version = %+v", v)
			}

			var added common.AddResult
			rpc(t, rd, common.MethodQueueAdd, common.AddParams{Items: []common.AddItem{
				{ID: "a", URL: "https://v.test/a"},
				{ID: "b", URL: "https://v.test/b"},
			}}, &added)
			if len(added.IDs) != 2 {
				t.Fatalf("added = %+v", added)
			}
			stop(t, r, done)

			r2, rd2, done2 := startRunner(t, dir, kind)
			defer stop(t, r2, done2)
			var list common.ListResult
			rpc(t, rd2, common.MethodQueueList, common.ListParams{}, &list)
			if len(list.Jobs) != 2 || list.Jobs[0].ID != "a" || list.Jobs[1].ID != "b" {
				t.Fatalf("restored jobs = %+v", list.Jobs)
			}
		})
	}
}

func TestRunnerLifecycleErrors(t *testing.T) {
	r := New(&Config{ConfigDir: t.TempDir()}, nil)
	if err := r.Shutdown(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Shutdown on stopped runner = %v, want ErrNotRunning", err)
	}

	r, _, done := startRunner(t, t.TempDir(), store.BackendFile)
	if err := r.Start(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Start = %v, want ErrAlreadyRunning", err)
	}
	if r.Addr() == nil {
		t.Error("Addr is nil while running")
	}
	stop(t, r, done)
}

func TestRunnerBusyPortLeavesSnapshotAlone(t *testing.T) {
	dir := t.TempDir()
	r, rd, done := startRunner(t, dir, store.BackendFile)
	defer stop(t, r, done)
	rpc(t, rd, common.MethodQueueAdd, common.AddParams{Items: []common.AddItem{
		{ID: "a", URL: "https://v.test/a"},
	}}, nil)
	deadline := time.Now().Add(5 * time.Second)
	for {
		var j tubelib.Job
		rpc(t, rd, common.MethodQueueGet, common.IDParams{ID: "a"}, &j)
		if j.Status == tubelib.StatusDownloading {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job never started: %+v", j)
		}
		time.Sleep(10 * time.Millisecond)
	}
	snapshot := filepath.Join(dir, "queue.gob")
	before, err := os.ReadFile(snapshot)
	if err != nil {
		t.Fatal(err)
	}

	ml := logger.NewMockLogger()
	second := New(&Config{ConfigDir: dir, Addr: rd.addr.String(), StoreKind: store.BackendFile}, &Dependencies{
		Logger:     ml,
		Fs:         afero.NewMemMapFs(),
		Extractors: []provider.Extractor{blockingExtractor{}},
	})
	if err := second.Start(context.Background()); err == nil || !strings.Contains(err.Error(), "listening") {
		t.Fatalf("second Start = %v, want listen error", err)
	}
	after, err := os.ReadFile(snapshot)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, after) {
		t.Error("second daemon rewrote the snapshot")
	}
	if ml.Contains("Restored") {
		t.Error("second daemon restored the queue")
	}
}

func TestRunnerUnknownStore(t *testing.T) {
	keyring.MockInit()
	r := New(&Config{ConfigDir: t.TempDir(), Addr: "127.0.0.1:0", StoreKind: "mongo"}, &Dependencies{
		Fs:         afero.NewMemMapFs(),
		Extractors: []provider.Extractor{blockingExtractor{}},
	})
	if err := r.Start(context.Background()); err == nil || !strings.Contains(err.Error(), "mongo") {
		t.Errorf("Start = %v, want unknown backend error", err)
	}
	if r.IsRunning() {
		t.Error("runner running after failed start")
	}
}

func TestRunnerContextCancelIsCleanExit(t *testing.T) {
	keyring.MockInit()
	ctx, cancel := context.WithCancel(context.Background())
	readyCh := make(chan struct{})
	r := New(&Config{ConfigDir: t.TempDir(), Addr: "127.0.0.1:0"}, &Dependencies{
		Fs:         afero.NewMemMapFs(),
		Extractors: []provider.Extractor{blockingExtractor{}},
		OnReady:    func(net.Addr, string) { close(readyCh) },
	})
	done := make(chan error, 1)
	go func() { done <- r.Start(ctx) }()
	<-readyCh
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not stop")
	}
}

func TestApplyConfigDefaults(t *testing.T) {
	cfg := applyConfigDefaults(&Config{ConfigDir: "/x", Port: 9000})
	if cfg.Addr != "127.0.0.1:9000" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.StoreKind != store.BackendFile {
		t.Errorf("StoreKind = %q", cfg.StoreKind)
	}
	if cfg.CacheTTL <= 0 {
		t.Error("CacheTTL not defaulted")
	}
}
