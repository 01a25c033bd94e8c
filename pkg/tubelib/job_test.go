package tubelib

import (
	"testing"
)

func TestStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusQueued, StatusDownloading, true},
		{StatusQueued, StatusPaused, true},
		{StatusQueued, StatusCancelled, true},
		{StatusQueued, StatusCompleted, false},
		{StatusDownloading, StatusCompleted, true},
		{StatusDownloading, StatusFailed, true},
		{StatusDownloading, StatusPaused, true},
		{StatusDownloading, StatusQueued, false},
		{StatusPaused, StatusQueued, true},
		{StatusPaused, StatusDownloading, false},
		{StatusCompleted, StatusQueued, false},
		{StatusFailed, StatusQueued, false},
		{StatusCancelled, StatusQueued, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestParseStatus(t *testing.T) {
	for _, s := range allStatuses {
		got, err := ParseStatus(s.String())
		if err != nil || got != s {
			t.Fatalf("ParseStatus(%q) = %q, %v", s, got, err)
		}
	}
	if _, err := ParseStatus("Downloading"); err == nil {
		t.Fatal("status values are lowercase")
	}
}

// TestSnapshot_Recover verifies interrupted downloads return to the queue
// with zeroed counters and nothing else changes.
func TestSnapshot_Recover(t *testing.T) {
	snap := &Snapshot{Jobs: []*Job{
		{ID: "a", Status: StatusDownloading, Progress: 42, Speed: 100, ETA: 9},
		{ID: "b", Status: StatusCompleted, Progress: 100},
		nil,
		{ID: "c", Status: StatusPaused, Progress: 10},
	}}
	snap.Recover()
	a := snap.Jobs[0]
	if a.Status != StatusQueued || a.Progress != 0 || a.Speed != 0 || a.ETA != 0 {
		t.Fatalf("downloading job not recovered: %+v", a)
	}
	if snap.Jobs[1].Status != StatusCompleted || snap.Jobs[1].Progress != 100 {
		t.Fatalf("completed job changed: %+v", snap.Jobs[1])
	}
	if snap.Jobs[3].Status != StatusPaused || snap.Jobs[3].Progress != 10 {
		t.Fatalf("paused job changed: %+v", snap.Jobs[3])
	}
	var nilSnap *Snapshot
	nilSnap.Recover()
}
