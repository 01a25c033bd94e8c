package tubelib

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
)

var (
	ErrJobNotFound         = errors.New("job you are trying to access is not in the queue")
	ErrDuplicateJob        = errors.New("a job with this id is already queued")
	ErrInvalidJob          = errors.New("job must have a non-empty id and url")
	ErrJobNotTerminal      = errors.New("job you are trying to remove is still pending or downloading")
	ErrUnsupportedPlatform = errors.New("no provider accepts this url")
	ErrManagerClosed       = errors.New("queue manager is closed")
	ErrDownloadTimeout     = errors.New("download timed out")
	ErrExtractorNotFound   = errors.New("extractor executable not found")
)

// ErrorKind labels a failure for display and retry decisions.
type ErrorKind string

const (
	KindNetwork             ErrorKind = "network"
	KindResourceUnavailable ErrorKind = "resource_unavailable"
	KindContentUnavailable  ErrorKind = "content_unavailable"
	KindInsufficientSpace   ErrorKind = "insufficient_space"
	KindPermissionDenied    ErrorKind = "permission_denied"
	KindTimeout             ErrorKind = "timeout"
	KindCancelled           ErrorKind = "cancelled"
	KindUnsupportedPlatform ErrorKind = "unsupported_platform"
	KindDownloadFailed      ErrorKind = "download_failed"
	KindInvalidURL          ErrorKind = "invalid_url"
	KindUnknown             ErrorKind = "unknown"
)

// Retryable reports whether a caller may sensibly try the same operation
// again. The queue itself never retries a download.
func (k ErrorKind) Retryable() bool {
	switch k {
	case KindNetwork, KindTimeout, KindDownloadFailed:
		return true
	}
	return false
}

// Error is a classified failure. Msg is display text, Err the cause.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

// NewError returns an *Error of the given kind.
func NewError(kind ErrorKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: cause}
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

const timeoutMessage = "Download timed out after 30 minutes. The video may be too large or the connection too slow. Please try again or check your network connection."

// Classify returns the kind of err. Unclassified errors are inspected the
// same way extractor output is.
func Classify(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	switch {
	case errors.Is(err, context.Canceled):
		return KindCancelled
	case errors.Is(err, ErrDownloadTimeout), errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, ErrUnsupportedPlatform):
		return KindUnsupportedPlatform
	case errors.Is(err, ErrExtractorNotFound):
		return KindResourceUnavailable
	case errors.Is(err, io.ErrUnexpectedEOF):
		return KindNetwork
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindNetwork
	}
	if k := ClassifyExtractorOutput(err.Error()); k != KindUnknown {
		return k
	}
	return KindUnknown
}

// IsRetryable reports whether err is worth retrying.
func IsRetryable(err error) bool {
	return Classify(err).Retryable()
}

var outputPatterns = []struct {
	kind     ErrorKind
	patterns []string
}{
	{KindContentUnavailable, []string{
		"video unavailable",
		"private video",
		"this video has been removed",
		"members-only",
		"sign in to confirm your age",
		"not available in your country",
	}},
	{KindInsufficientSpace, []string{
		"no space left on device",
		"disk quota exceeded",
	}},
	{KindPermissionDenied, []string{
		"permission denied",
		"read-only file system",
	}},
	{KindResourceUnavailable, []string{
		"executable file not found",
		"ffmpeg not found",
		"ffprobe and ffmpeg not found",
	}},
	{KindTimeout, []string{
		"timed out",
		"timeout",
	}},
	{KindNetwork, []string{
		"network",
		"connection reset",
		"connection refused",
		"temporary failure in name resolution",
		"no such host",
		"unable to download webpage",
		"http error 5",
	}},
	{KindInvalidURL, []string{
		"is not a valid url",
		"unsupported url",
	}},
}

// ClassifyExtractorOutput maps extractor diagnostics (stderr text or an
// error string) to a kind. Unmatched output is KindUnknown.
func ClassifyExtractorOutput(out string) ErrorKind {
	lower := strings.ToLower(out)
	for _, group := range outputPatterns {
		for _, p := range group.patterns {
			if strings.Contains(lower, p) {
				return group.kind
			}
		}
	}
	return KindUnknown
}

// UserMessage returns text suitable for direct display.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var te *Error
	if errors.As(err, &te) && te.Msg != "" {
		return te.Msg
	}
	switch Classify(err) {
	case KindTimeout:
		return timeoutMessage
	case KindCancelled:
		return "Cancelled by user"
	case KindUnsupportedPlatform:
		return "Platform not supported"
	}
	return err.Error()
}

// SuggestedAction returns a hint for the user, or "" when there is none.
func SuggestedAction(kind ErrorKind) string {
	switch kind {
	case KindNetwork:
		return "Check your internet connection and try again."
	case KindContentUnavailable:
		return "The video may be private, deleted, or region-restricted."
	case KindInsufficientSpace:
		return "Free up disk space and try again."
	case KindInvalidURL:
		return "Please enter a valid YouTube URL."
	case KindResourceUnavailable:
		return "Install yt-dlp and ffmpeg, or point warptube at them with --ytdlp and --ffmpeg."
	case KindPermissionDenied:
		return "Choose a different save location with write permissions."
	case KindUnsupportedPlatform:
		return "This platform is not yet supported."
	case KindTimeout:
		return "The operation took too long. Try again later."
	}
	return ""
}
