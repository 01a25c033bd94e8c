package provider

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/warpdl/warptube/pkg/tubelib"
)

// stubExtractor serves URLs with a fixed prefix and counts lookups.
type stubExtractor struct {
	name   string
	prefix string
	calls  atomic.Int32
	errs   []error
	deps   []tubelib.Dependency
}

func (s *stubExtractor) Name() string            { return s.name }
func (s *stubExtractor) Matches(url string) bool { return strings.HasPrefix(url, s.prefix) }

func (s *stubExtractor) Download(context.Context, string, tubelib.DownloadOptions, string, func(tubelib.Progress)) error {
	return nil
}

func (s *stubExtractor) nextErr() error {
	n := int(s.calls.Add(1))
	if n <= len(s.errs) {
		return s.errs[n-1]
	}
	return nil
}

func (s *stubExtractor) VideoInfo(_ context.Context, url string) (tubelib.VideoInfo, error) {
	if err := s.nextErr(); err != nil {
		return tubelib.VideoInfo{}, err
	}
	return tubelib.VideoInfo{Title: s.name, URL: url}, nil
}

func (s *stubExtractor) PlaylistInfo(_ context.Context, url string) (tubelib.PlaylistInfo, error) {
	if err := s.nextErr(); err != nil {
		return tubelib.PlaylistInfo{}, err
	}
	return tubelib.PlaylistInfo{Title: s.name, URL: url}, nil
}

func (s *stubExtractor) ChannelInfo(_ context.Context, url string) (tubelib.ChannelInfo, error) {
	if err := s.nextErr(); err != nil {
		return tubelib.ChannelInfo{}, err
	}
	return tubelib.ChannelInfo{Name: s.name, URL: url}, nil
}

func (s *stubExtractor) CheckDependencies(context.Context) []tubelib.Dependency { return s.deps }
func (s *stubExtractor) Version(context.Context) (string, error)               { return "1.0", nil }
func (s *stubExtractor) SupportedPatterns() []string                           { return []string{s.prefix} }

func TestRegistry_FirstMatchWins(t *testing.T) {
	a := &stubExtractor{name: "a", prefix: "https://x.test/"}
	b := &stubExtractor{name: "b", prefix: "https://x.test/"}
	c := &stubExtractor{name: "c", prefix: "https://y.test/"}
	r := NewRegistry(a, b, c)

	for i := 0; i < 20; i++ {
		p, ok := r.Detect("https://x.test/v")
		if !ok || p.Name() != "a" {
			t.Fatalf("Detect = %v, %v; want a", p, ok)
		}
	}
	if p, ok := r.Detect("https://y.test/v"); !ok || p.Name() != "c" {
		t.Fatalf("Detect = %v, %v; want c", p, ok)
	}
	if _, ok := r.Detect("https://z.test/v"); ok {
		t.Fatal("unexpected match")
	}
}

func TestRegistry_RegisterReplacesInPlace(t *testing.T) {
	r := NewRegistry(
		&stubExtractor{name: "a", prefix: "https://a.test/"},
		&stubExtractor{name: "b", prefix: "https://b.test/"},
	)
	r.Register(&stubExtractor{name: "a", prefix: "https://a2.test/"})

	all := r.All()
	if len(all) != 2 || all[0].Name() != "a" || all[1].Name() != "b" {
		t.Fatalf("All = %v", all)
	}
	if _, ok := r.Detect("https://a.test/v"); ok {
		t.Fatal("replaced provider still matches")
	}
	got, ok := r.Get("a")
	if !ok || !got.Matches("https://a2.test/v") {
		t.Fatal("Get returned stale provider")
	}
	if _, ok := r.Get("missing"); ok {
		t.Fatal("Get found unknown provider")
	}
}
