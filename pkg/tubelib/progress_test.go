package tubelib

import (
	"math"
	"testing"
)

func approxU(got, want uint64) bool {
	d := int64(got) - int64(want)
	return d >= -1 && d <= 1
}

func TestParseProgressLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		ok   bool
		want Progress
	}{
		{
			name: "generic MiB",
			line: "[download]  45.8% of 123.45MiB at 1.23MiB/s ETA 00:52",
			ok:   true,
			want: Progress{
				Percentage:      45.8,
				TotalBytes:      129446707,
				DownloadedBytes: 59286591,
				Speed:           1.23 * 1048576,
				ETA:             52,
			},
		},
		{
			name: "approximate size and hours",
			line: "[download]   3.0% of ~  2.00GiB at 512.00KiB/s ETA 01:02:03",
			ok:   true,
			want: Progress{
				Percentage:      3,
				TotalBytes:      2147483648,
				DownloadedBytes: 64424509,
				Speed:           524288,
				ETA:             3723,
			},
		},
		{
			name: "bytes unit",
			line: "[download]  50% of 1000B at 10B/s ETA 00:50",
			ok:   true,
			want: Progress{Percentage: 50, TotalBytes: 1000, DownloadedBytes: 500, Speed: 10, ETA: 50},
		},
		{
			name: "destination banner",
			line: "[download] Destination: /tmp/video.mp4",
			ok:   true,
		},
		{
			name: "already downloaded",
			line: "[download] /tmp/video.mp4 has already been downloaded",
			ok:   true,
			want: Progress{Percentage: 100},
		},
		{
			name: "final 100 line",
			line: "[download] 100% of 123.45MiB in 00:01:40",
			ok:   true,
			want: Progress{Percentage: 100},
		},
		{
			name: "final 100.0 line with padding",
			line: "[download]    100.0% of 10.00MiB at 2.00MiB/s ETA 00:00",
			ok:   true,
			want: Progress{Percentage: 100},
		},
		{
			name: "zero byte total",
			line: "[download]   0.0% of 0.00B at 0.00B/s ETA 00:00",
			ok:   true,
			want: Progress{},
		},
		{
			name: "GiB per second",
			line: "[download]  25.0% of 10.00GiB at 1.50GiB/s ETA 00:05",
			ok:   true,
			want: Progress{
				Percentage:      25,
				TotalBytes:      10737418240,
				DownloadedBytes: 2684354560,
				Speed:           1.5 * 1073741824,
				ETA:             5,
			},
		},
		{
			name: "long minutes without hours",
			line: "[download]   1.0% of 1.00GiB at 1.00KiB/s ETA 75:00",
			ok:   true,
			want: Progress{
				Percentage:      1,
				TotalBytes:      1073741824,
				DownloadedBytes: 10737418,
				Speed:           1024,
				ETA:             4500,
			},
		},
		{name: "seconds out of range", line: "[download]  10.0% of 5.00MiB at 1.00MiB/s ETA 00:75"},
		{name: "minutes out of range with hours", line: "[download]  10.0% of 5.00MiB at 1.00MiB/s ETA 01:75:00"},
		{name: "hours overflow", line: "[download]  10.0% of 5.00MiB at 1.00MiB/s ETA 18446744073709551:00:00"},
		{name: "minutes overflow", line: "[download]  10.0% of 5.00MiB at 1.00MiB/s ETA 18446744073709551615:00"},
		{name: "no marker", line: "[youtube] abc: Downloading webpage"},
		{name: "empty", line: ""},
		{name: "unknown speed", line: "[download]  10.0% of 5.00MiB at Unknown B/s ETA Unknown"},
		{name: "unknown unit", line: "[download]  10.0% of 5.00TiB at 1.00MiB/s ETA 00:10"},
		{name: "missing eta", line: "[download]  10.0% of 5.00MiB at 1.00MiB/s"},
		{name: "over 100", line: "[download] 120.0% of 5.00MiB at 1.00MiB/s ETA 00:10"},
		{name: "marker only", line: "[download]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseProgressLine(tt.line)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v (got %+v)", ok, tt.ok, got)
			}
			if !ok {
				if got != (Progress{}) {
					t.Fatalf("rejected line returned data: %+v", got)
				}
				return
			}
			if math.Abs(got.Percentage-tt.want.Percentage) > 1e-9 {
				t.Errorf("percentage = %v, want %v", got.Percentage, tt.want.Percentage)
			}
			if !approxU(got.TotalBytes, tt.want.TotalBytes) {
				t.Errorf("total = %d, want %d", got.TotalBytes, tt.want.TotalBytes)
			}
			if !approxU(got.DownloadedBytes, tt.want.DownloadedBytes) {
				t.Errorf("downloaded = %d, want %d", got.DownloadedBytes, tt.want.DownloadedBytes)
			}
			if math.Abs(got.Speed-tt.want.Speed) > 1e-6 {
				t.Errorf("speed = %v, want %v", got.Speed, tt.want.Speed)
			}
			if got.ETA != tt.want.ETA {
				t.Errorf("eta = %d, want %d", got.ETA, tt.want.ETA)
			}
		})
	}
}

// TestParseProgressLine_DownloadedFollowsPercentage checks downloaded is
// derived from percentage and total, never parsed on its own.
func TestParseProgressLine_DownloadedFollowsPercentage(t *testing.T) {
	p, ok := ParseProgressLine("[download]   0.0% of 10.00KiB at 1.00KiB/s ETA 00:10")
	if !ok {
		t.Fatal("expected line to parse")
	}
	if p.DownloadedBytes != 0 || p.TotalBytes != 10240 {
		t.Fatalf("unexpected sizes: %+v", p)
	}
}

func FuzzParseProgressLine(f *testing.F) {
	f.Add("[download]  45.8% of 123.45MiB at 1.23MiB/s ETA 00:52")
	f.Add("[download] 100%")
	f.Add("[download] 99999999999999999999999% of 1B at 1B/s ETA 99999999999999999999:00")
	f.Fuzz(func(t *testing.T, line string) {
		p, ok := ParseProgressLine(line)
		if !ok {
			return
		}
		if p.Percentage < 0 || p.Percentage > 100 {
			t.Fatalf("percentage out of range: %v", p.Percentage)
		}
	})
}
