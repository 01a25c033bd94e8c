package common

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/warpdl/warptube/pkg/tubelib"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"hello world", 6, "hello…"},
		{"abc", 1, "a"},
		{"anything", 0, "anything"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
	if w := lipgloss.Width(Truncate("日本語のタイトルです", 7)); w > 7 {
		t.Errorf("wide runes truncated to width %d", w)
	}
}

func TestFormatters(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"short id", ShortID("0123456789abcdef"), "01234567"},
		{"short id small", ShortID("abc"), "abc"},
		{"bytes zero", FormatBytes(0), "-"},
		{"bytes", FormatBytes(129446707), "123 MiB"},
		{"speed zero", FormatSpeed(0), "-"},
		{"speed", FormatSpeed(2 * 1024 * 1024), "2.0 MiB/s"},
		{"eta zero", FormatETA(0), "-"},
		{"eta", FormatETA(125), "2m5s"},
		{"duration", FormatDuration(65), "1:05"},
		{"duration hours", FormatDuration(3725), "1:02:05"},
		{"upload date", FormatUploadDate("20240131"), "2024-01-31"},
		{"upload date odd", FormatUploadDate("2024"), "2024"},
		{"count", FormatCount(1234567), "1,234,567"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}

func TestJobRow(t *testing.T) {
	j := &tubelib.Job{ID: "abcdef0123", URL: "https://x/y", Status: tubelib.StatusDownloading, Progress: 42.5, ETA: 10}
	row := JobRow(3, j)
	want := []string{"3", "abcdef01", "https://x/y", "downloading", "42.5%", "-", "10s"}
	if strings.Join(row, "|") != strings.Join(want, "|") {
		t.Errorf("row = %v, want %v", row, want)
	}

	j.Title = "Clip"
	j.Status = tubelib.StatusFailed
	j.Error = "Video unavailable"
	row = JobRow(1, j)
	if row[2] != "Clip" || row[4] != "Video unavailable" {
		t.Errorf("failed row = %v", row)
	}
}

func TestRenderTable(t *testing.T) {
	out := RenderTable([]string{"ID", "Status"}, [][]string{{"a", "queued"}, {"b", "paused"}})
	for _, s := range []string{"ID", "Status", "queued", "paused"} {
		if !strings.Contains(out, s) {
			t.Errorf("table missing %q:\n%s", s, out)
		}
	}
}
