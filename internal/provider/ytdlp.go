package provider

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/warpdl/warptube/pkg/logger"
	"github.com/warpdl/warptube/pkg/tubelib"
)

const (
	YouTubeName = "YouTube"

	DEF_YTDLP_BINARY  = "yt-dlp"
	DEF_FFMPEG_BINARY = "ffmpeg"
	// DEF_STDERR_LINES is how many trailing stderr lines are kept for
	// failure classification.
	DEF_STDERR_LINES = 50
	// DEF_PROGRESS_BUFFER bounds parsed progress records waiting for the
	// callback; newer records are dropped when it is full.
	DEF_PROGRESS_BUFFER = 16
	// DEF_KILL_WAIT bounds how long Wait blocks on pipes after the
	// process group was killed.
	DEF_KILL_WAIT = 5 * time.Second

	maxLineSize = 1 << 20
)

var youtubePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^https?://(?:www\.|m\.|music\.)?youtube\.com/watch\?(?:.*&)?v=[\w-]+`),
	regexp.MustCompile(`^https?://youtu\.be/[\w-]+`),
	regexp.MustCompile(`^https?://(?:www\.|m\.)?youtube\.com/shorts/[\w-]+`),
	regexp.MustCompile(`^https?://(?:www\.|m\.|music\.)?youtube\.com/playlist\?(?:.*&)?list=[\w-]+`),
	regexp.MustCompile(`^https?://(?:www\.|m\.)?youtube\.com/@[\w.-]+`),
	regexp.MustCompile(`^https?://(?:www\.|m\.)?youtube\.com/(?:channel|user|c)/[\w.-]+`),
}

// YTDLPOpts configures a YTDLP provider. Zero values pick defaults.
type YTDLPOpts struct {
	// Binary is the yt-dlp executable, resolved through PATH when bare.
	Binary string
	// FFmpeg is passed as --ffmpeg-location when set or found on PATH.
	FFmpeg         string
	StderrLines    int
	ProgressBuffer int
	Logger         logger.Logger
}

// YTDLP serves YouTube URLs by running yt-dlp as a child process.
type YTDLP struct {
	bin            string
	ffmpeg         string
	stderrLines    int
	progressBuffer int
	log            logger.Logger
}

// NewYTDLP returns a YouTube provider driving yt-dlp.
func NewYTDLP(opts *YTDLPOpts) *YTDLP {
	if opts == nil {
		opts = &YTDLPOpts{}
	}
	y := &YTDLP{
		bin:            opts.Binary,
		ffmpeg:         opts.FFmpeg,
		stderrLines:    opts.StderrLines,
		progressBuffer: opts.ProgressBuffer,
		log:            logger.OrNop(opts.Logger),
	}
	if y.bin == "" {
		y.bin = DEF_YTDLP_BINARY
	}
	if y.stderrLines <= 0 {
		y.stderrLines = DEF_STDERR_LINES
	}
	if y.progressBuffer <= 0 {
		y.progressBuffer = DEF_PROGRESS_BUFFER
	}
	return y
}

func (y *YTDLP) Name() string { return YouTubeName }

func (y *YTDLP) Matches(url string) bool {
	url = strings.TrimSpace(url)
	for _, re := range youtubePatterns {
		if re.MatchString(url) {
			return true
		}
	}
	return false
}

func (y *YTDLP) SupportedPatterns() []string {
	return []string{
		"https://www.youtube.com/watch?v=VIDEO_ID",
		"https://youtu.be/VIDEO_ID",
		"https://www.youtube.com/shorts/VIDEO_ID",
		"https://www.youtube.com/playlist?list=PLAYLIST_ID",
		"https://www.youtube.com/@CHANNEL_NAME",
		"https://www.youtube.com/channel/CHANNEL_ID",
		"https://www.youtube.com/user/USERNAME",
		"https://www.youtube.com/c/CUSTOM_NAME",
	}
}

// FormatSelector maps quality and container choices to a yt-dlp -f
// expression.
func FormatSelector(opts tubelib.DownloadOptions) string {
	if opts.AudioOnly {
		return "bestaudio"
	}
	ext := opts.Format
	if ext == "" {
		ext = "mp4"
	}
	height := 0
	switch strings.ToLower(opts.Quality) {
	case "2160p", "4k":
		height = 2160
	case "1440p":
		height = 1440
	case "1080p":
		height = 1080
	case "720p":
		height = 720
	case "480p":
		height = 480
	case "360p":
		height = 360
	}
	if height == 0 {
		return fmt.Sprintf("bestvideo[ext=%s]+bestaudio/best[ext=%s]/best", ext, ext)
	}
	return fmt.Sprintf("bestvideo[height<=%d][ext=%s]+bestaudio/best[height<=%d]/best", height, ext, height)
}

// DownloadArgs builds the yt-dlp argument list for one download.
func (y *YTDLP) DownloadArgs(url string, opts tubelib.DownloadOptions, dest, ffmpeg string) []string {
	args := []string{
		"--newline",
		"--no-color",
		"--progress",
		"--no-warnings",
		"--no-playlist",
		"-o", dest,
	}
	if ffmpeg != "" {
		args = append(args, "--ffmpeg-location", ffmpeg)
	}
	args = append(args, "-f", FormatSelector(opts))
	if opts.AudioOnly {
		format := opts.Format
		if format == "" {
			format = "mp3"
		}
		args = append(args, "-x", "--audio-format", format)
	}
	return append(args, url)
}

// Download runs yt-dlp for url, streaming parsed progress to onProgress.
// onProgress is called from a single goroutine; records are dropped
// rather than stalling the output reader. A successful run always ends
// with a 100% record.
func (y *YTDLP) Download(ctx context.Context, url string, opts tubelib.DownloadOptions, dest string, onProgress func(tubelib.Progress)) error {
	bin, err := y.binary()
	if err != nil {
		return err
	}
	cmd := y.command(ctx, bin, y.DownloadArgs(url, opts, dest, y.ffmpegPath())...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return tubelib.NewError(tubelib.KindDownloadFailed, "Failed to capture yt-dlp output", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return tubelib.NewError(tubelib.KindDownloadFailed, "Failed to capture yt-dlp output", err)
	}
	if err := cmd.Start(); err != nil {
		return spawnError(err)
	}
	y.log.Debug("yt-dlp[%d]: started for %s", cmd.Process.Pid, url)

	tail := newLineRing(y.stderrLines)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sc := bufio.NewScanner(stderr)
		sc.Buffer(make([]byte, 0, 4096), maxLineSize)
		for sc.Scan() {
			tail.add(sc.Text())
		}
	}()

	updates := make(chan tubelib.Progress, y.progressBuffer)
	delivered := make(chan struct{})
	go func() {
		defer close(delivered)
		for p := range updates {
			if onProgress != nil {
				onProgress(p)
			}
		}
	}()

	sc := bufio.NewScanner(stdout)
	sc.Buffer(make([]byte, 0, 4096), maxLineSize)
	for sc.Scan() {
		line := sc.Text()
		p, ok := tubelib.ParseProgressLine(line)
		if !ok {
			if strings.Contains(line, "[download]") {
				y.log.Debug("yt-dlp: unparsed progress line: %q", line)
			}
			continue
		}
		select {
		case updates <- p:
		default:
		}
	}
	if err := sc.Err(); err != nil {
		y.log.Warning("yt-dlp: reading output: %v", err)
		// Keep the pipe flowing so the child never blocks on a full buffer.
		_, _ = io.Copy(io.Discard, stdout)
	}
	wg.Wait()
	waitErr := cmd.Wait()

	if ctx.Err() != nil {
		close(updates)
		<-delivered
		return ctx.Err()
	}
	if waitErr != nil {
		close(updates)
		<-delivered
		return exitError(waitErr, tail.String())
	}
	updates <- tubelib.Progress{Percentage: 100}
	close(updates)
	<-delivered
	return nil
}

// command prepares a yt-dlp invocation whose whole process tree is killed
// when ctx ends.
func (y *YTDLP) command(ctx context.Context, bin string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Env = append(os.Environ(), "PYTHONIOENCODING=utf-8", "LANG=en_US.UTF-8")
	setProcessGroup(cmd)
	cmd.Cancel = func() error { return killProcessGroup(cmd) }
	cmd.WaitDelay = DEF_KILL_WAIT
	return cmd
}

func (y *YTDLP) binary() (string, error) {
	path, err := exec.LookPath(y.bin)
	if err != nil {
		return "", tubelib.NewError(
			tubelib.KindResourceUnavailable,
			"yt-dlp not found. Please install yt-dlp to download videos.",
			errors.Join(tubelib.ErrExtractorNotFound, err),
		)
	}
	return path, nil
}

func (y *YTDLP) ffmpegPath() string {
	name := y.ffmpeg
	if name == "" {
		name = DEF_FFMPEG_BINARY
	}
	path, err := exec.LookPath(name)
	if err != nil {
		if y.ffmpeg != "" {
			y.log.Warning("yt-dlp: ffmpeg not usable at %s: %v", y.ffmpeg, err)
		}
		return ""
	}
	return path
}

func spawnError(err error) error {
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return tubelib.NewError(
			tubelib.KindResourceUnavailable,
			"yt-dlp not found. Please install yt-dlp to download videos.",
			errors.Join(tubelib.ErrExtractorNotFound, err),
		)
	}
	if errors.Is(err, fs.ErrPermission) {
		return tubelib.NewError(tubelib.KindPermissionDenied, "yt-dlp is not executable", err)
	}
	return tubelib.NewError(tubelib.KindDownloadFailed, "Failed to start yt-dlp", err)
}

// exitError turns a failed run into a classified error using the tail of
// stderr.
func exitError(waitErr error, stderr string) error {
	kind := tubelib.ClassifyExtractorOutput(stderr)
	if kind == tubelib.KindUnknown {
		kind = tubelib.KindDownloadFailed
	}
	msg := lastErrorLine(stderr)
	if msg == "" {
		var ee *exec.ExitError
		if errors.As(waitErr, &ee) {
			msg = fmt.Sprintf("yt-dlp exited with status %d", ee.ExitCode())
		} else {
			msg = "yt-dlp failed"
		}
	}
	return tubelib.NewError(kind, msg, waitErr)
}

// lastErrorLine returns the message of the last "ERROR:" line, falling
// back to the last non-empty line.
func lastErrorLine(stderr string) string {
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); strings.HasPrefix(l, "ERROR:") {
			return strings.TrimSpace(strings.TrimPrefix(l, "ERROR:"))
		}
	}
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}

// lineRing keeps the last n lines written to it.
type lineRing struct {
	lines []string
	next  int
	full  bool
	mu    sync.Mutex
}

func newLineRing(n int) *lineRing {
	return &lineRing{lines: make([]string, n)}
}

func (r *lineRing) add(line string) {
	r.mu.Lock()
	r.lines[r.next] = line
	r.next = (r.next + 1) % len(r.lines)
	if r.next == 0 {
		r.full = true
	}
	r.mu.Unlock()
}

func (r *lineRing) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	if r.full {
		out = append(out, r.lines[r.next:]...)
	}
	out = append(out, r.lines[:r.next]...)
	return strings.Join(out, "\n")
}

var _ Extractor = (*YTDLP)(nil)
