package cmd

import (
	"bytes"
	"context"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/urfave/cli"
	"github.com/vbauerster/mpb/v8"
	cmdCommon "github.com/warpdl/warptube/cmd/common"
	"github.com/warpdl/warptube/common"
	"github.com/warpdl/warptube/internal/daemon"
	"github.com/warpdl/warptube/internal/provider"
	"github.com/warpdl/warptube/pkg/tubecli"
	"github.com/warpdl/warptube/pkg/tubelib"
	"github.com/zalando/go-keyring"
)

// holdExtractor serves https://v.test/ URLs; downloads run until
// cancelled.
type holdExtractor struct{}

func (holdExtractor) Name() string            { return "Test" }
func (holdExtractor) Matches(url string) bool { return strings.HasPrefix(url, "https://v.test/") }
func (holdExtractor) Download(ctx context.Context, _ string, _ tubelib.DownloadOptions, _ string, _ func(tubelib.Progress)) error {
	<-ctx.Done()
	return ctx.Err()
}
func (holdExtractor) VideoInfo(_ context.Context, url string) (tubelib.VideoInfo, error) {
	return tubelib.VideoInfo{Title: "Test Clip", Uploader: "Someone", Duration: 65, ViewCount: 1500, URL: url, Platform: "Test"}, nil
}
func (holdExtractor) PlaylistInfo(_ context.Context, url string) (tubelib.PlaylistInfo, error) {
	return tubelib.PlaylistInfo{Title: "Mix", VideoCount: 1, Videos: []tubelib.VideoInfo{{Title: "One"}}, URL: url}, nil
}
func (holdExtractor) ChannelInfo(_ context.Context, url string) (tubelib.ChannelInfo, error) {
	return tubelib.ChannelInfo{Name: "Chan", URL: url}, nil
}
func (holdExtractor) CheckDependencies(context.Context) []tubelib.Dependency {
	return []tubelib.Dependency{
		{Name: "yt-dlp", Installed: true, Version: "2024.01.01", Path: "/bin/yt-dlp"},
		{Name: "ffmpeg", InstallInstructions: "install ffmpeg"},
	}
}
func (holdExtractor) Version(context.Context) (string, error) { return "2024.01.01", nil }
func (holdExtractor) SupportedPatterns() []string            { return nil }

type testDaemon struct {
	host, port, secret string
}

func startDaemon(t *testing.T) *testDaemon {
	t.Helper()
	keyring.MockInit()
	ready := make(chan *testDaemon, 1)
	r := daemon.New(&daemon.Config{
		ConfigDir:     t.TempDir(),
		DownloadDir:   t.TempDir(),
		Addr:          "127.0.0.1:0",
		MaxConcurrent: 1,
	}, &daemon.Dependencies{
		Fs:         afero.NewMemMapFs(),
		Extractors: []provider.Extractor{holdExtractor{}},
		OnReady: func(a net.Addr, s string) {
			host, port, _ := net.SplitHostPort(a.String())
			ready <- &testDaemon{host, port, s}
		},
	})
	done := make(chan error, 1)
	go func() { done <- r.Start(context.Background()) }()
	t.Cleanup(func() {
		r.Shutdown()
		<-done
	})
	select {
	case d := <-ready:
		return d
	case err := <-done:
		t.Fatalf("daemon exited: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon not ready")
	}
	return nil
}

// run executes the CLI against d and returns its output.
func (d *testDaemon) run(t *testing.T, args ...string) string {
	t.Helper()
	var buf bytes.Buffer
	old := cmdCommon.Stdout
	cmdCommon.Stdout = &buf
	defer func() { cmdCommon.Stdout = old }()

	full := append([]string{"warptube", "--host", d.host, "--port", d.port, "--secret", d.secret, "--no-spawn"}, args...)
	if err := Execute(full, BuildArgs{}); err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	return buf.String()
}

func TestCommandsAgainstDaemon(t *testing.T) {
	d := startDaemon(t)

	out := d.run(t, "add", "-o", t.TempDir(), "-q", "720p", "https://v.test/one", "https://v.test/two")
	if strings.Count(out, "Queued") != 2 {
		t.Fatalf("add output = %q", out)
	}

	out = d.run(t, "list")
	for _, s := range []string{"v.test/one", "v.test/two", "2 job(s)"} {
		if !strings.Contains(out, s) {
			t.Errorf("list output missing %q:\n%s", s, out)
		}
	}

	out = d.run(t, "move", "2", "1")
	if !strings.Contains(out, "Moved job 2 to position 1") {
		t.Errorf("move output = %q", out)
	}

	out = d.run(t, "info", "https://v.test/watch")
	if !strings.Contains(out, "Test Clip") || !strings.Contains(out, "1,500") || !strings.Contains(out, "1:05") {
		t.Errorf("info output = %q", out)
	}

	out = d.run(t, "deps")
	if !strings.Contains(out, "yt-dlp") || !strings.Contains(out, "install ffmpeg") {
		t.Errorf("deps output = %q", out)
	}

	out = d.run(t, "concurrency", "9")
	if !strings.Contains(out, "up to 5") {
		t.Errorf("concurrency output = %q", out)
	}

	out = d.run(t, "add", "https://elsewhere.test/x")
	if !strings.Contains(out, "add[queue_add]") {
		t.Errorf("unsupported add output = %q", out)
	}
}

func TestJobControlByPrefix(t *testing.T) {
	d := startDaemon(t)
	d.run(t, "add", "https://v.test/a")

	c, err := tubecli.Dial(context.Background(), &tubecli.Options{Addr: net.JoinHostPort(d.host, d.port), Secret: d.secret})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	l, err := c.List(context.Background(), "")
	if err != nil || len(l.Jobs) != 1 {
		t.Fatalf("List = %+v, %v", l, err)
	}
	id := l.Jobs[0].ID

	out := d.run(t, "pause", id[:4])
	if !strings.Contains(out, "Paused") || !strings.Contains(out, "paused") {
		t.Errorf("pause output = %q", out)
	}
	out = d.run(t, "cancel", id[:4])
	if !strings.Contains(out, "cancelled") {
		t.Errorf("cancel output = %q", out)
	}
	out = d.run(t, "clear")
	if !strings.Contains(out, "Removed 1") {
		t.Errorf("clear output = %q", out)
	}
	out = d.run(t, "pause", "zzzz")
	if !strings.Contains(out, "No job zzzz, nothing to pause") {
		t.Errorf("unknown id output = %q", out)
	}
	out = d.run(t, "move", "9", "1")
	if !strings.Contains(out, "Moved job 9 to position 1") {
		t.Errorf("out of range move output = %q", out)
	}
}

func TestParsePositions(t *testing.T) {
	tests := []struct {
		args     cli.Args
		from, to int
		wantErr  bool
	}{
		{cli.Args{"1", "3"}, 0, 2, false},
		{cli.Args{"2"}, 0, 0, true},
		{cli.Args{"0", "1"}, 0, 0, true},
		{cli.Args{"a", "1"}, 0, 0, true},
		{cli.Args{"1", "-2"}, 0, 0, true},
	}
	for _, tt := range tests {
		from, to, err := parsePositions(tt.args)
		if (err != nil) != tt.wantErr {
			t.Errorf("parsePositions(%v) err = %v", tt.args, err)
			continue
		}
		if !tt.wantErr && (from != tt.from || to != tt.to) {
			t.Errorf("parsePositions(%v) = %d, %d", tt.args, from, to)
		}
	}
}

func TestDepsRows(t *testing.T) {
	rows, missing := depsRows(&common.DependenciesResult{Providers: []tubelib.ProviderStatus{{
		Provider: "YouTube",
		Dependencies: []tubelib.Dependency{
			{Name: "yt-dlp", Installed: true, Version: "1", Path: "/x"},
			{Name: "ffmpeg", InstallInstructions: "get it"},
		},
	}}})
	if len(rows) != 2 || rows[0][2] != "ok" || rows[1][2] != "missing" || rows[1][4] != "-" {
		t.Errorf("rows = %v", rows)
	}
	if len(missing) != 1 || missing[0] != "ffmpeg: get it" {
		t.Errorf("missing = %v", missing)
	}
}

func TestWatcherTracksJobs(t *testing.T) {
	w := newWatcher(mpb.New(mpb.WithOutput(io.Discard)), true)
	w.sync([]tubelib.Job{
		{ID: "a", URL: "u1", Status: tubelib.StatusDownloading},
		{ID: "b", URL: "u2", Status: tubelib.StatusCompleted},
	})
	if w.bar("a") == nil || w.bar("b") != nil {
		t.Fatal("bars not created for unfinished jobs only")
	}

	w.onProgress(&common.ProgressNotification{ID: "a", Progress: tubelib.Progress{Percentage: 50}})
	if cur := w.bar("a").Current(); cur != cmdCommon.BarValue(50) {
		t.Errorf("bar current = %d", cur)
	}
	w.onComplete(&common.CompleteNotification{ID: "a"})
	if w.bar("a") != nil {
		t.Error("completed job still tracked")
	}

	select {
	case <-w.idle:
		t.Fatal("idle before queue drained")
	default:
	}
	w.sync([]tubelib.Job{{ID: "a", Status: tubelib.StatusCompleted}})
	select {
	case <-w.idle:
	case <-time.After(time.Second):
		t.Fatal("idle not signalled")
	}
	w.stop()
}

func TestAddRequiresURL(t *testing.T) {
	var buf bytes.Buffer
	old := cmdCommon.Stdout
	cmdCommon.Stdout = &buf
	defer func() { cmdCommon.Stdout = old }()
	prev := cmdCommon.SetShowCommandHelp(func(*cli.Context, string) error { return nil })
	defer cmdCommon.SetShowCommandHelp(prev)

	if err := Execute([]string{"warptube", "--no-spawn", "add"}, BuildArgs{}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "no url provided") {
		t.Errorf("output = %q", buf.String())
	}
}
