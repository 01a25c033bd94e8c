package provider

import (
	"context"
	"fmt"

	"github.com/warpdl/warptube/pkg/logger"
	"github.com/warpdl/warptube/pkg/metacache"
	"github.com/warpdl/warptube/pkg/tubelib"
)

// URLInfo is what Detect learns about a URL without running an extractor.
type URLInfo struct {
	URL      string  `json:"url"`
	Platform string  `json:"platform"`
	Kind     URLKind `json:"kind"`
}

// MetadataService answers video, playlist and channel lookups through the
// registry, caching successes by normalized URL and retrying retryable
// failures.
type MetadataService struct {
	reg    *Registry
	cache  *metacache.Cache
	policy tubelib.RetryPolicy
	log    logger.Logger
}

// NewMetadataService returns a service over reg. A nil cache gets a
// default one.
func NewMetadataService(reg *Registry, cache *metacache.Cache, policy tubelib.RetryPolicy, l logger.Logger) *MetadataService {
	if cache == nil {
		cache = metacache.New(metacache.DefaultTTL)
	}
	return &MetadataService{
		reg:    reg,
		cache:  cache,
		policy: policy,
		log:    logger.OrNop(l),
	}
}

// Cache exposes the underlying cache for stats and janitor wiring.
func (s *MetadataService) Cache() *metacache.Cache { return s.cache }

// Detect normalizes rawURL and names the provider and page kind.
func (s *MetadataService) Detect(rawURL string) (URLInfo, error) {
	url, ex, err := s.resolve(rawURL)
	if err != nil {
		return URLInfo{}, err
	}
	return URLInfo{URL: url, Platform: ex.Name(), Kind: ClassifyURL(url)}, nil
}

func (s *MetadataService) Video(ctx context.Context, rawURL string) (tubelib.VideoInfo, error) {
	url, ex, err := s.resolve(rawURL)
	if err != nil {
		return tubelib.VideoInfo{}, err
	}
	if v, ok := s.cache.GetVideo(url); ok {
		return v, nil
	}
	v, attempts, err := tubelib.RetryValue(ctx, s.policy, func(ctx context.Context) (tubelib.VideoInfo, error) {
		return ex.VideoInfo(ctx, url)
	})
	if err != nil {
		s.log.Warning("metadata: video %s failed after %d attempt(s): %v", url, attempts, err)
		return tubelib.VideoInfo{}, err
	}
	s.cache.PutVideo(url, v)
	return v, nil
}

func (s *MetadataService) Playlist(ctx context.Context, rawURL string) (tubelib.PlaylistInfo, error) {
	url, ex, err := s.resolve(rawURL)
	if err != nil {
		return tubelib.PlaylistInfo{}, err
	}
	if p, ok := s.cache.GetPlaylist(url); ok {
		return p, nil
	}
	p, attempts, err := tubelib.RetryValue(ctx, s.policy, func(ctx context.Context) (tubelib.PlaylistInfo, error) {
		return ex.PlaylistInfo(ctx, url)
	})
	if err != nil {
		s.log.Warning("metadata: playlist %s failed after %d attempt(s): %v", url, attempts, err)
		return tubelib.PlaylistInfo{}, err
	}
	s.cache.PutPlaylist(url, p)
	return p, nil
}

func (s *MetadataService) Channel(ctx context.Context, rawURL string) (tubelib.ChannelInfo, error) {
	url, ex, err := s.resolve(rawURL)
	if err != nil {
		return tubelib.ChannelInfo{}, err
	}
	if c, ok := s.cache.GetChannel(url); ok {
		return c, nil
	}
	c, attempts, err := tubelib.RetryValue(ctx, s.policy, func(ctx context.Context) (tubelib.ChannelInfo, error) {
		return ex.ChannelInfo(ctx, url)
	})
	if err != nil {
		s.log.Warning("metadata: channel %s failed after %d attempt(s): %v", url, attempts, err)
		return tubelib.ChannelInfo{}, err
	}
	s.cache.PutChannel(url, c)
	return c, nil
}

// Dependencies reports every provider's external tools.
func (s *MetadataService) Dependencies(ctx context.Context) []tubelib.ProviderStatus {
	var out []tubelib.ProviderStatus
	for _, p := range s.reg.All() {
		st := tubelib.ProviderStatus{Provider: p.Name(), Dependencies: p.CheckDependencies(ctx), Ready: true}
		for _, d := range st.Dependencies {
			if !d.Installed {
				st.Ready = false
			}
		}
		out = append(out, st)
	}
	return out
}

func (s *MetadataService) resolve(rawURL string) (string, Extractor, error) {
	url, err := NormalizeURL(rawURL)
	if err != nil {
		return "", nil, err
	}
	ex, ok := s.reg.DetectExtractor(url)
	if !ok {
		return "", nil, tubelib.NewError(
			tubelib.KindUnsupportedPlatform,
			fmt.Sprintf("Unsupported platform for URL: %s", url),
			tubelib.ErrUnsupportedPlatform,
		)
	}
	return url, ex, nil
}
