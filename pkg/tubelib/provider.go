package tubelib

import (
	"context"
)

// Provider downloads media for the URLs it matches by delegating to an
// external extractor.
type Provider interface {
	// Name is the platform label, e.g. "youtube".
	Name() string
	// Matches reports whether url belongs to this provider.
	Matches(url string) bool
	// Download fetches url into dest and blocks until the extractor exits.
	// onProgress must be called from a single goroutine and must never be
	// blocked on by the provider for longer than the callback itself takes.
	// Cancelling ctx terminates the extractor.
	Download(ctx context.Context, url string, opts DownloadOptions, dest string, onProgress func(Progress)) error
}

// ProviderResolver finds the provider for a URL.
type ProviderResolver interface {
	Detect(url string) (Provider, bool)
}

// Store persists queue snapshots. Load returns (nil, nil) when nothing has
// been saved yet.
type Store interface {
	Save(snap *Snapshot) error
	Load() (*Snapshot, error)
}
