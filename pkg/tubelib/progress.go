package tubelib

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Progress is a normalized progress record for one download attempt.
type Progress struct {
	// Percentage is in [0, 100].
	Percentage      float64 `json:"percentage"`
	DownloadedBytes uint64  `json:"downloaded_bytes"`
	TotalBytes      uint64  `json:"total_bytes"`
	// Speed is in bytes per second.
	Speed float64 `json:"speed"`
	// ETA is in seconds.
	ETA uint64 `json:"eta"`
}

// IsComplete reports whether p marks the end of a download.
func (p Progress) IsComplete() bool {
	return p.Percentage >= 100
}

const downloadMarker = "[download]"

var (
	completeLineRe = regexp.MustCompile(`\[download\]\s+100(?:\.0+)?%`)
	progressLineRe = regexp.MustCompile(
		`(\d+(?:\.\d+)?)%\s+of\s+~?\s*(\d+(?:\.\d+)?)(B|KiB|MiB|GiB)\s+at\s+(\d+(?:\.\d+)?)(B|KiB|MiB|GiB)/s\s+ETA\s+(\d+):(\d+)(?::(\d+))?`,
	)
)

var unitSize = map[string]float64{
	"B":   1,
	"KiB": 1 << 10,
	"MiB": 1 << 20,
	"GiB": 1 << 30,
}

// ParseProgressLine turns one line of extractor output into a Progress.
// The boolean is false when the line carries no usable progress, which
// includes banner lines and progress lines in an unknown dialect. A line
// is either parsed completely or rejected; fields are never guessed.
func ParseProgressLine(line string) (Progress, bool) {
	if !strings.Contains(line, downloadMarker) {
		return Progress{}, false
	}
	if strings.Contains(line, "[download] Destination:") {
		return Progress{}, true
	}
	if strings.Contains(line, "has already been downloaded") {
		return Progress{Percentage: 100}, true
	}
	if completeLineRe.MatchString(line) {
		return Progress{Percentage: 100}, true
	}
	return parseGenericProgress(line)
}

func parseGenericProgress(line string) (Progress, bool) {
	m := progressLineRe.FindStringSubmatch(line)
	if m == nil {
		return Progress{}, false
	}
	pct, err := strconv.ParseFloat(m[1], 64)
	if err != nil || pct > 100 {
		return Progress{}, false
	}
	total, ok := toBytes(m[2], m[3])
	if !ok {
		return Progress{}, false
	}
	speed, ok := toBytes(m[4], m[5])
	if !ok {
		return Progress{}, false
	}
	eta, ok := parseETA(m[6], m[7], m[8])
	if !ok {
		return Progress{}, false
	}
	totalBytes := uint64(total)
	return Progress{
		Percentage:      pct,
		TotalBytes:      totalBytes,
		DownloadedBytes: uint64(pct / 100 * float64(totalBytes)),
		Speed:           speed,
		ETA:             eta,
	}, true
}

func toBytes(value, unit string) (float64, bool) {
	mult, ok := unitSize[unit]
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	return v * mult, true
}

// Bounds keeping the ETA sum within uint64.
const (
	maxETAHours   = math.MaxUint64/3600 - 1
	maxETAMinutes = math.MaxUint64/60 - 1
)

// parseETA accepts MM:SS (third group empty) or HH:MM:SS. Seconds, and
// minutes when hours are present, must be below 60.
func parseETA(a, b, c string) (uint64, bool) {
	var h, m, s string
	if c == "" {
		m, s = a, b
	} else {
		h, m, s = a, b, c
	}
	var hours uint64
	if h != "" {
		v, err := strconv.ParseUint(h, 10, 64)
		if err != nil {
			return 0, false
		}
		hours = v
	}
	mins, err := strconv.ParseUint(m, 10, 64)
	if err != nil {
		return 0, false
	}
	secs, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}
	if secs >= 60 || (h != "" && mins >= 60) {
		return 0, false
	}
	if hours > maxETAHours || mins > maxETAMinutes {
		return 0, false
	}
	return hours*3600 + mins*60 + secs, true
}
