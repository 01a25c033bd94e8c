package common

import "github.com/warpdl/warptube/pkg/tubelib"

// VersionResult is the response for system.getVersion.
type VersionResult struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildType string `json:"buildType,omitempty"`
	Extractor string `json:"extractor,omitempty"`
}

// AddItem describes one download to queue. ID is generated when empty;
// Dir and FileName build SavePath when SavePath is empty.
type AddItem struct {
	ID        string `json:"id,omitempty"`
	URL       string `json:"url"`
	SavePath  string `json:"savePath,omitempty"`
	Dir       string `json:"dir,omitempty"`
	FileName  string `json:"fileName,omitempty"`
	Title     string `json:"title,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
	Quality   string `json:"quality,omitempty"`
	Format    string `json:"format,omitempty"`
	AudioOnly bool   `json:"audioOnly,omitempty"`
}

// AddParams is the input for queue.add. The batch is accepted or
// rejected as a whole.
type AddParams struct {
	Items []AddItem `json:"items"`
}

// AddResult lists the ids of the queued jobs in input order.
type AddResult struct {
	IDs []string `json:"ids"`
}

// IDParams is a common input with just a job id.
type IDParams struct {
	ID string `json:"id"`
}

// MoveParams is the input for queue.move.
type MoveParams struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// ListParams is the input for queue.list. Status filters by job status;
// empty lists everything.
type ListParams struct {
	Status string `json:"status,omitempty"`
}

// ListResult is the response for queue.list.
type ListResult struct {
	Jobs          []tubelib.Job `json:"jobs"`
	Active        int           `json:"active"`
	MaxConcurrent int           `json:"maxConcurrent"`
}

// ClearResult is the response for queue.clear.
type ClearResult struct {
	Removed int `json:"removed"`
}

// ConcurrencyParams is the input for queue.setConcurrency.
type ConcurrencyParams struct {
	Max int `json:"max"`
}

// ConcurrencyResult carries the clamped limit in effect.
type ConcurrencyResult struct {
	Max int `json:"max"`
}

// URLParams is the input for meta.* methods.
type URLParams struct {
	URL string `json:"url"`
}

// DetectResult is the response for meta.detect.
type DetectResult struct {
	URL      string `json:"url"`
	Platform string `json:"platform"`
	Kind     string `json:"kind"`
}

// DependenciesResult is the response for system.dependencies.
type DependenciesResult struct {
	Providers []tubelib.ProviderStatus `json:"providers"`
}

// CacheStatsResult is the response for meta.cacheStats.
type CacheStatsResult struct {
	Videos    int `json:"videos"`
	Playlists int `json:"playlists"`
	Channels  int `json:"channels"`
	Total     int `json:"total"`
}

// EmptyResult is a placeholder for methods that return no data.
type EmptyResult struct{}

// StatusNotification is pushed on every status change.
type StatusNotification struct {
	ID     string         `json:"id"`
	Status tubelib.Status `json:"status"`
}

// ProgressNotification is pushed for throttled progress updates.
type ProgressNotification struct {
	ID       string           `json:"id"`
	Progress tubelib.Progress `json:"progress"`
}

// CompleteNotification is pushed when a job completes.
type CompleteNotification struct {
	ID string `json:"id"`
}

// ErrorNotification is pushed when a job fails.
type ErrorNotification struct {
	ID        string            `json:"id"`
	Error     string            `json:"error"`
	Kind      tubelib.ErrorKind `json:"kind"`
	Retryable bool              `json:"retryable"`
	Action    string            `json:"action,omitempty"`
}

// QueueNotification is pushed whenever the queue's membership or order
// changes.
type QueueNotification struct {
	Jobs []tubelib.Job `json:"jobs"`
}
