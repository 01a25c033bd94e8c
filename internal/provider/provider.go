// Package provider implements the platform providers warptube delegates
// downloads to, the registry that picks one for a URL, and the cached
// metadata lookups built on top of them.
package provider

import (
	"context"
	"sync"

	"github.com/warpdl/warptube/pkg/tubelib"
)

// Extractor is the full capability set of a platform provider: downloads
// plus metadata and diagnostics.
type Extractor interface {
	tubelib.Provider

	VideoInfo(ctx context.Context, url string) (tubelib.VideoInfo, error)
	PlaylistInfo(ctx context.Context, url string) (tubelib.PlaylistInfo, error)
	ChannelInfo(ctx context.Context, url string) (tubelib.ChannelInfo, error)
	// CheckDependencies reports the external tools the provider needs.
	CheckDependencies(ctx context.Context) []tubelib.Dependency
	// Version returns the version of the underlying extractor.
	Version(ctx context.Context) (string, error)
	// SupportedPatterns lists example URL shapes for help output.
	SupportedPatterns() []string
}

// Registry holds extractors in registration order. The first one whose
// Matches accepts a URL serves it.
type Registry struct {
	providers []Extractor
	mu        sync.RWMutex
}

// NewRegistry returns a Registry holding ps.
func NewRegistry(ps ...Extractor) *Registry {
	r := &Registry{}
	for _, p := range ps {
		r.Register(p)
	}
	return r
}

// Register adds p, replacing any provider with the same name in place.
func (r *Registry) Register(p Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, cur := range r.providers {
		if cur.Name() == p.Name() {
			r.providers[i] = p
			return
		}
	}
	r.providers = append(r.providers, p)
}

// DetectExtractor returns the extractor that accepts url.
func (r *Registry) DetectExtractor(url string) (Extractor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.providers {
		if p.Matches(url) {
			return p, true
		}
	}
	return nil, false
}

// Detect implements tubelib.ProviderResolver.
func (r *Registry) Detect(url string) (tubelib.Provider, bool) {
	p, ok := r.DetectExtractor(url)
	if !ok {
		return nil, false
	}
	return p, true
}

// Get returns the provider registered under name.
func (r *Registry) Get(name string) (Extractor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.providers {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}

// All returns the registered providers in registration order.
func (r *Registry) All() []Extractor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Extractor(nil), r.providers...)
}

var _ tubelib.ProviderResolver = (*Registry)(nil)
