package common

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/warpdl/warptube/pkg/tubelib"
)

// Truncate shortens s to max display cells, ending in an ellipsis.
func Truncate(s string, max int) string {
	if max <= 0 || lipgloss.Width(s) <= max {
		return s
	}
	r := []rune(s)
	if max <= 1 {
		return string(r[:max])
	}
	for len(r) > 0 && lipgloss.Width(string(r))+1 > max {
		r = r[:len(r)-1]
	}
	return string(r) + "…"
}

// ShortID returns the first 8 characters of a job id.
func ShortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

// FormatBytes renders a byte count in IEC units, or "-" when unknown.
func FormatBytes(n uint64) string {
	if n == 0 {
		return "-"
	}
	return humanize.IBytes(n)
}

// FormatSpeed renders a transfer rate in bytes per second.
func FormatSpeed(bps float64) string {
	if bps <= 0 {
		return "-"
	}
	return humanize.IBytes(uint64(bps)) + "/s"
}

// FormatETA renders remaining seconds as a duration.
func FormatETA(sec uint64) string {
	if sec == 0 {
		return "-"
	}
	return (time.Duration(sec) * time.Second).String()
}

// FormatDuration renders a media length as h:mm:ss or m:ss.
func FormatDuration(sec uint64) string {
	h, m, s := sec/3600, sec%3600/60, sec%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// FormatUploadDate turns yt-dlp's YYYYMMDD into YYYY-MM-DD.
func FormatUploadDate(d string) string {
	if len(d) != 8 {
		return d
	}
	return d[:4] + "-" + d[4:6] + "-" + d[6:]
}

// FormatCount renders a count with thousands separators.
func FormatCount(n uint64) string {
	return humanize.Comma(int64(n))
}

// JobTitle is the display name of a job.
func JobTitle(j *tubelib.Job) string {
	if t := strings.TrimSpace(j.Title); t != "" {
		return t
	}
	return j.URL
}

// JobRow is one line of the queue table.
func JobRow(pos int, j *tubelib.Job) []string {
	progress := fmt.Sprintf("%.1f%%", j.Progress)
	if j.Status == tubelib.StatusFailed && j.Error != "" {
		progress = Truncate(j.Error, 24)
	}
	return []string{
		fmt.Sprint(pos),
		ShortID(j.ID),
		Truncate(JobTitle(j), 40),
		string(j.Status),
		progress,
		FormatSpeed(j.Speed),
		FormatETA(j.ETA),
	}
}
