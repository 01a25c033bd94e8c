package metacache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/warpdl/warptube/pkg/tubelib"
)

type clock struct {
	t  time.Time
	mu sync.Mutex
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

const videoURL = "https://www.youtube.com/watch?v=abc"

func TestCache_GetRespectsTTL(t *testing.T) {
	clk := &clock{t: time.Unix(0, 0)}
	c := NewWithClock(time.Minute, clk.now)
	c.PutVideo(videoURL, tubelib.VideoInfo{ID: "abc", Title: "first"})

	if v, ok := c.GetVideo(videoURL); !ok || v.Title != "first" {
		t.Fatalf("fresh entry = %+v, %v", v, ok)
	}
	clk.advance(time.Minute)
	if _, ok := c.GetVideo(videoURL); !ok {
		t.Fatal("entry expired at exactly ttl")
	}
	clk.advance(time.Nanosecond)
	if _, ok := c.GetVideo(videoURL); ok {
		t.Fatal("expired entry returned")
	}
	if c.Stats().Videos != 1 {
		t.Fatal("reads must not evict")
	}
}

// TestCache_PutOverwritesAndRefreshes verifies a second put replaces the
// value and restarts its ttl.
func TestCache_PutOverwritesAndRefreshes(t *testing.T) {
	clk := &clock{t: time.Unix(0, 0)}
	c := NewWithClock(time.Minute, clk.now)
	c.PutVideo(videoURL, tubelib.VideoInfo{Title: "old"})
	clk.advance(50 * time.Second)
	c.PutVideo(videoURL, tubelib.VideoInfo{Title: "new"})
	clk.advance(50 * time.Second)
	v, ok := c.GetVideo(videoURL)
	if !ok || v.Title != "new" {
		t.Fatalf("got %+v, %v", v, ok)
	}
}

func TestCache_KindsAreIndependent(t *testing.T) {
	c := New(0)
	c.PutPlaylist("https://www.youtube.com/playlist?list=PL1", tubelib.PlaylistInfo{Title: "pl"})
	c.PutChannel("https://www.youtube.com/@chan", tubelib.ChannelInfo{Name: "chan"})
	if _, ok := c.GetVideo("https://www.youtube.com/playlist?list=PL1"); ok {
		t.Fatal("playlist visible as video")
	}
	if p, ok := c.GetPlaylist("https://www.youtube.com/playlist?list=PL1"); !ok || p.Title != "pl" {
		t.Fatal("playlist missing")
	}
	if ch, ok := c.GetChannel("https://www.youtube.com/@chan"); !ok || ch.Name != "chan" {
		t.Fatal("channel missing")
	}
}

func TestCache_SweepAndClear(t *testing.T) {
	clk := &clock{t: time.Unix(0, 0)}
	c := NewWithClock(time.Minute, clk.now)
	c.PutVideo("old-v", tubelib.VideoInfo{})
	c.PutPlaylist("old-p", tubelib.PlaylistInfo{})
	clk.advance(2 * time.Minute)
	c.PutChannel("new-c", tubelib.ChannelInfo{})

	if n := c.Sweep(); n != 2 {
		t.Fatalf("Sweep removed %d, want 2", n)
	}
	want := Stats{Channels: 1, Total: 1}
	if got := c.Stats(); got != want {
		t.Fatalf("Stats = %+v, want %+v", got, want)
	}
	c.Clear()
	if got := c.Stats(); got.Total != 0 {
		t.Fatalf("Clear left %+v", got)
	}
}

func TestCache_JanitorSweeps(t *testing.T) {
	c := New(time.Millisecond)
	c.PutVideo("v", tubelib.VideoInfo{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.StartJanitor(ctx, 2*time.Millisecond) }()

	deadline := time.Now().Add(2 * time.Second)
	for c.Stats().Total != 0 {
		if time.Now().After(deadline) {
			t.Fatal("janitor never swept")
		}
		time.Sleep(time.Millisecond)
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("janitor returned %v", err)
	}
}

// TestCache_ConcurrentAccess mixes readers and writers of all kinds; run
// with -race.
func TestCache_ConcurrentAccess(t *testing.T) {
	c := New(time.Minute)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			c.PutVideo(videoURL, tubelib.VideoInfo{})
			c.GetVideo(videoURL)
		}()
		go func() {
			defer wg.Done()
			c.PutPlaylist("p", tubelib.PlaylistInfo{})
			c.Sweep()
		}()
		go func() {
			defer wg.Done()
			c.GetChannel("c")
			c.Stats()
		}()
	}
	wg.Wait()
}
