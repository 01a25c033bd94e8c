// Package tubelib provides the download queue core of warptube: the job
// model, the extractor progress parser, the progress throttler and the
// queue manager that admits, supervises and persists download jobs.
package tubelib

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a queued job.
type Status string

const (
	// StatusQueued means the job is waiting for a free slot.
	StatusQueued Status = "queued"
	// StatusDownloading means an extractor process is running for the job.
	StatusDownloading Status = "downloading"
	// StatusPaused means the user paused the job; it is not terminal.
	StatusPaused Status = "paused"
	// StatusCompleted means the extractor exited successfully.
	StatusCompleted Status = "completed"
	// StatusFailed means the attempt failed; retry is a fresh enqueue.
	StatusFailed Status = "failed"
	// StatusCancelled means the user cancelled the job.
	StatusCancelled Status = "cancelled"
)

var allStatuses = []Status{
	StatusQueued,
	StatusDownloading,
	StatusPaused,
	StatusCompleted,
	StatusFailed,
	StatusCancelled,
}

// ParseStatus converts a wire or disk value into a Status.
func ParseStatus(s string) (Status, error) {
	for _, st := range allStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// IsTerminal reports whether the job will never run again on its own.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// IsActive reports whether an extractor process is attached to the job.
func (s Status) IsActive() bool {
	return s == StatusDownloading
}

// CanTransition reports whether moving from s to next is a legal edge of
// the job state machine.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusQueued:
		return next == StatusDownloading || next == StatusPaused || next == StatusCancelled
	case StatusDownloading:
		switch next {
		case StatusCompleted, StatusFailed, StatusCancelled, StatusPaused:
			return true
		}
	case StatusPaused:
		return next == StatusQueued || next == StatusCancelled
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// DownloadOptions selects the media variant the extractor should fetch.
type DownloadOptions struct {
	// Quality is "best" or a height label such as "1080p".
	Quality string `json:"quality"`
	// Format is the preferred container, e.g. "mp4".
	Format string `json:"format"`
	// AudioOnly extracts the audio track in Format.
	AudioOnly bool `json:"audio_only"`
}

// DefaultDownloadOptions returns best quality mp4 video.
func DefaultDownloadOptions() DownloadOptions {
	return DownloadOptions{
		Quality: "best",
		Format:  "mp4",
	}
}

// Job is one user-requested download. While a job is in the queue the
// Manager owns it; callers only ever see copies.
type Job struct {
	// ID is the caller-assigned unique identifier.
	ID string `json:"id"`
	// URL is the source URL handed to the provider.
	URL string `json:"url"`
	// Platform is the label of the provider expected to serve URL.
	Platform string `json:"platform"`
	// Title and Thumbnail are informational only.
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
	// SavePath is the absolute destination (or output template).
	SavePath string          `json:"save_path"`
	Options  DownloadOptions `json:"options"`

	Status Status `json:"status"`
	// Progress is a percentage in [0, 100].
	Progress float64 `json:"progress"`
	// Speed is in bytes per second.
	Speed float64 `json:"speed"`
	// ETA is in seconds.
	ETA uint64 `json:"eta"`
	// Error holds a display message for the last failure.
	Error     string    `json:"error,omitempty"`
	ErrorKind ErrorKind `json:"error_kind,omitempty"`
	Retryable bool      `json:"retryable,omitempty"`
	AddedAt   time.Time `json:"added_at"`
}

// resetProgress zeroes the runtime counters.
func (j *Job) resetProgress() {
	j.Progress = 0
	j.Speed = 0
	j.ETA = 0
}

func (j *Job) clearError() {
	j.Error = ""
	j.ErrorKind = ""
	j.Retryable = false
}

// Snapshot is the persisted, ordered form of the queue.
type Snapshot struct {
	Jobs    []*Job    `json:"jobs"`
	SavedAt time.Time `json:"saved_at"`
}

// Recover rewrites jobs that were downloading when the snapshot was taken.
// A downloading status that survives a restart means the attempt was
// interrupted, so such jobs go back to the queue with zeroed progress.
func (s *Snapshot) Recover() {
	if s == nil {
		return
	}
	for _, j := range s.Jobs {
		if j == nil || j.Status != StatusDownloading {
			continue
		}
		j.Status = StatusQueued
		j.resetProgress()
	}
}
