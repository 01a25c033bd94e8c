package metacache

import (
	"context"
	"time"

	"github.com/warpdl/warptube/pkg/tubelib"
)

// DefaultTTL is how long metadata stays fresh.
const DefaultTTL = 5 * time.Minute

// Stats counts stored entries per kind.
type Stats struct {
	Videos    int `json:"video_count"`
	Playlists int `json:"playlist_count"`
	Channels  int `json:"channel_count"`
	Total     int `json:"total_count"`
}

// Cache keeps video, playlist and channel metadata keyed by normalized
// URL. Each kind has its own lock. Lookups that fail are never cached.
type Cache struct {
	videos    *TTLMap[tubelib.VideoInfo]
	playlists *TTLMap[tubelib.PlaylistInfo]
	channels  *TTLMap[tubelib.ChannelInfo]
}

// New returns a Cache with ttl (DefaultTTL when <= 0).
func New(ttl time.Duration) *Cache {
	return NewWithClock(ttl, time.Now)
}

// NewWithClock is New with an explicit clock.
func NewWithClock(ttl time.Duration, now func() time.Time) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		videos:    NewTTLMap[tubelib.VideoInfo](ttl, now),
		playlists: NewTTLMap[tubelib.PlaylistInfo](ttl, now),
		channels:  NewTTLMap[tubelib.ChannelInfo](ttl, now),
	}
}

func (c *Cache) GetVideo(url string) (tubelib.VideoInfo, bool) { return c.videos.Get(url) }

func (c *Cache) PutVideo(url string, v tubelib.VideoInfo) { c.videos.Put(url, v) }

func (c *Cache) GetPlaylist(url string) (tubelib.PlaylistInfo, bool) { return c.playlists.Get(url) }

func (c *Cache) PutPlaylist(url string, p tubelib.PlaylistInfo) { c.playlists.Put(url, p) }

func (c *Cache) GetChannel(url string) (tubelib.ChannelInfo, bool) { return c.channels.Get(url) }

func (c *Cache) PutChannel(url string, ch tubelib.ChannelInfo) { c.channels.Put(url, ch) }

// Sweep removes expired entries of all kinds and returns the count.
func (c *Cache) Sweep() int {
	return c.videos.Sweep() + c.playlists.Sweep() + c.channels.Sweep()
}

// Clear empties all kinds.
func (c *Cache) Clear() {
	c.videos.Clear()
	c.playlists.Clear()
	c.channels.Clear()
}

func (c *Cache) Stats() Stats {
	s := Stats{
		Videos:    c.videos.Len(),
		Playlists: c.playlists.Len(),
		Channels:  c.channels.Len(),
	}
	s.Total = s.Videos + s.Playlists + s.Channels
	return s
}

// StartJanitor sweeps every interval until ctx is done. It blocks.
func (c *Cache) StartJanitor(ctx context.Context, every time.Duration) error {
	if every <= 0 {
		every = DefaultTTL
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.Sweep()
		}
	}
}
