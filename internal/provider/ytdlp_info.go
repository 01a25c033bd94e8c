package provider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/warpdl/warptube/pkg/tubelib"
)

// rawEntry is the subset of yt-dlp's info JSON warptube reads.
type rawEntry struct {
	ID                  string      `json:"id"`
	Title               string      `json:"title"`
	Description         string      `json:"description"`
	Thumbnail           string      `json:"thumbnail"`
	Thumbnails          []rawThumb  `json:"thumbnails"`
	Duration            float64     `json:"duration"`
	Uploader            string      `json:"uploader"`
	Channel             string      `json:"channel"`
	ChannelID           string      `json:"channel_id"`
	UploadDate          string      `json:"upload_date"`
	ViewCount           uint64      `json:"view_count"`
	Formats             []rawFormat `json:"formats"`
	WebpageURL          string      `json:"webpage_url"`
	Playlist            string      `json:"playlist"`
	PlaylistTitle       string      `json:"playlist_title"`
	PlaylistID          string      `json:"playlist_id"`
	PlaylistUploader    string      `json:"playlist_uploader"`
	PlaylistDescription string      `json:"playlist_description"`
}

type rawThumb struct {
	URL string `json:"url"`
}

type rawFormat struct {
	FormatID       string `json:"format_id"`
	Ext            string `json:"ext"`
	Resolution     string `json:"resolution"`
	Filesize       uint64 `json:"filesize"`
	FilesizeApprox uint64 `json:"filesize_approx"`
}

func (e *rawEntry) thumbnail() string {
	if e.Thumbnail != "" {
		return e.Thumbnail
	}
	if n := len(e.Thumbnails); n > 0 {
		return e.Thumbnails[n-1].URL
	}
	return ""
}

func (e *rawEntry) video(url string) tubelib.VideoInfo {
	v := tubelib.VideoInfo{
		ID:          e.ID,
		Title:       firstNonEmpty(e.Title, "Unknown Title"),
		Description: e.Description,
		Thumbnail:   e.thumbnail(),
		Duration:    uint64(e.Duration),
		Uploader:    firstNonEmpty(e.Uploader, e.Channel, "Unknown"),
		UploadDate:  e.UploadDate,
		ViewCount:   e.ViewCount,
		Platform:    YouTubeName,
		URL:         url,
	}
	for _, f := range e.Formats {
		size := f.Filesize
		if size == 0 {
			size = f.FilesizeApprox
		}
		v.Formats = append(v.Formats, tubelib.FormatInfo{
			FormatID:   f.FormatID,
			Ext:        firstNonEmpty(f.Ext, "mp4"),
			Resolution: f.Resolution,
			Filesize:   size,
		})
	}
	return v
}

// flatVideo builds a listing entry, which carries no formats and no page
// url of its own.
func (e *rawEntry) flatVideo() tubelib.VideoInfo {
	v := e.video("https://www.youtube.com/watch?v=" + e.ID)
	v.Formats = nil
	return v
}

// VideoInfo fetches metadata of a single video.
func (y *YTDLP) VideoInfo(ctx context.Context, url string) (tubelib.VideoInfo, error) {
	out, err := y.output(ctx, "--dump-json", "--no-playlist", "--skip-download", url)
	if err != nil {
		return tubelib.VideoInfo{}, err
	}
	var e rawEntry
	if err := json.Unmarshal(out, &e); err != nil {
		return tubelib.VideoInfo{}, tubelib.NewError(tubelib.KindDownloadFailed, "Failed to parse video info", err)
	}
	return e.video(url), nil
}

// PlaylistInfo fetches a flat listing of a playlist.
func (y *YTDLP) PlaylistInfo(ctx context.Context, url string) (tubelib.PlaylistInfo, error) {
	entries, err := y.flatListing(ctx, url)
	if err != nil {
		return tubelib.PlaylistInfo{}, err
	}
	p := tubelib.PlaylistInfo{
		Title:    "Unknown Playlist",
		Uploader: "Unknown",
		Platform: YouTubeName,
		URL:      url,
	}
	if len(entries) > 0 {
		first := entries[0]
		p.ID = first.PlaylistID
		p.Title = firstNonEmpty(first.PlaylistTitle, first.Playlist, p.Title)
		p.Uploader = firstNonEmpty(first.PlaylistUploader, first.Uploader, first.Channel, p.Uploader)
		p.Description = first.PlaylistDescription
	}
	for i := range entries {
		p.Videos = append(p.Videos, entries[i].flatVideo())
	}
	p.VideoCount = len(p.Videos)
	return p, nil
}

// ChannelInfo fetches a flat listing of a channel's uploads.
func (y *YTDLP) ChannelInfo(ctx context.Context, url string) (tubelib.ChannelInfo, error) {
	entries, err := y.flatListing(ctx, url)
	if err != nil {
		return tubelib.ChannelInfo{}, err
	}
	c := tubelib.ChannelInfo{
		Name:     "Unknown Channel",
		Platform: YouTubeName,
		URL:      url,
	}
	if len(entries) > 0 {
		first := entries[0]
		c.ID = firstNonEmpty(first.ChannelID, first.PlaylistID)
		c.Name = firstNonEmpty(first.Channel, first.Uploader, first.PlaylistUploader, c.Name)
		c.Description = first.PlaylistDescription
	}
	for i := range entries {
		c.Videos = append(c.Videos, entries[i].flatVideo())
	}
	return c, nil
}

func (y *YTDLP) flatListing(ctx context.Context, url string) ([]rawEntry, error) {
	out, err := y.output(ctx, "--dump-json", "--flat-playlist", "--skip-download", url)
	if err != nil {
		return nil, err
	}
	var entries []rawEntry
	sc := bufio.NewScanner(bytes.NewReader(out))
	sc.Buffer(make([]byte, 0, 4096), maxLineSize)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var e rawEntry
		if err := json.Unmarshal(line, &e); err != nil {
			y.log.Debug("yt-dlp: skipping malformed listing line: %v", err)
			continue
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, tubelib.NewError(tubelib.KindDownloadFailed, "Failed to read listing", err)
	}
	return entries, nil
}

// output runs yt-dlp to completion and returns its stdout.
func (y *YTDLP) output(ctx context.Context, args ...string) ([]byte, error) {
	bin, err := y.binary()
	if err != nil {
		return nil, err
	}
	cmd := y.command(ctx, bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		return nil, spawnError(err)
	}
	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, exitError(err, stderr.String())
	}
	return stdout.Bytes(), nil
}

// Version returns `yt-dlp --version`.
func (y *YTDLP) Version(ctx context.Context) (string, error) {
	bin, err := y.binary()
	if err != nil {
		return "", err
	}
	return toolVersion(ctx, bin, "--version", 0)
}

// CheckDependencies reports yt-dlp and ffmpeg availability.
func (y *YTDLP) CheckDependencies(ctx context.Context) []tubelib.Dependency {
	ytdlp := tubelib.Dependency{
		Name:                "yt-dlp",
		InstallInstructions: "Install with: pip install yt-dlp (or see https://github.com/yt-dlp/yt-dlp#installation)",
	}
	if path, err := exec.LookPath(y.bin); err == nil {
		ytdlp.Path = path
		if v, err := toolVersion(ctx, path, "--version", 0); err == nil {
			ytdlp.Installed = true
			ytdlp.Version = v
		} else {
			y.log.Warning("yt-dlp: version check failed: %v", err)
		}
	}

	ffmpeg := tubelib.Dependency{
		Name:                "ffmpeg",
		InstallInstructions: "Install ffmpeg from https://ffmpeg.org/download.html or your package manager",
	}
	if path := y.ffmpegPath(); path != "" {
		ffmpeg.Path = path
		if v, err := toolVersion(ctx, path, "-version", 2); err == nil {
			ffmpeg.Installed = true
			ffmpeg.Version = v
		}
	}
	return []tubelib.Dependency{ytdlp, ffmpeg}
}

// toolVersion runs bin with flag and returns the field-th token of the
// first output line.
func toolVersion(ctx context.Context, bin, flag string, field int) (string, error) {
	out, err := exec.CommandContext(ctx, bin, flag).Output()
	if err != nil {
		return "", err
	}
	first, _, _ := strings.Cut(string(out), "\n")
	fields := strings.Fields(first)
	if field >= len(fields) {
		return "", fmt.Errorf("unexpected %s output: %q", flag, first)
	}
	return fields[field], nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
