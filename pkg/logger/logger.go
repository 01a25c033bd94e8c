// Package logger provides the logging interface shared by every warptube
// component, with console, file and in-memory backends.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// Logger defines the interface for leveled logging across warptube.
type Logger interface {
	// Debug logs a diagnostic message (e.g., an unparseable extractor line).
	// Backends drop it unless debug output was enabled.
	Debug(format string, args ...interface{})

	// Info logs an informational message (e.g., "Daemon listening on ...").
	Info(format string, args ...interface{})

	// Warning logs a warning message (e.g., "metadata lookup attempt 2/3").
	Warning(format string, args ...interface{})

	// Error logs an error message (e.g., "Failed to save queue: disk full").
	Error(format string, args ...interface{})

	// Close releases resources held by the logger. Safe to call multiple
	// times.
	Close() error
}

// StandardLogger wraps the stdlib *log.Logger for console/file output.
type StandardLogger struct {
	logger *log.Logger
	debug  bool
}

// NewStandardLogger creates a logger that wraps the given *log.Logger.
func NewStandardLogger(l *log.Logger) *StandardLogger {
	return &StandardLogger{logger: l}
}

// WithDebug enables or disables Debug output and returns s.
func (s *StandardLogger) WithDebug(enabled bool) *StandardLogger {
	s.debug = enabled
	return s
}

// Debug logs with [DEBUG] prefix when debug output is enabled.
func (s *StandardLogger) Debug(format string, args ...interface{}) {
	if !s.debug {
		return
	}
	s.logger.Printf("[DEBUG] "+format, args...)
}

// Info logs an informational message with [INFO] prefix.
func (s *StandardLogger) Info(format string, args ...interface{}) {
	s.logger.Printf("[INFO] "+format, args...)
}

// Warning logs a warning message with [WARNING] prefix.
func (s *StandardLogger) Warning(format string, args ...interface{}) {
	s.logger.Printf("[WARNING] "+format, args...)
}

// Error logs an error message with [ERROR] prefix.
func (s *StandardLogger) Error(format string, args ...interface{}) {
	s.logger.Printf("[ERROR] "+format, args...)
}

// Close is a no-op for StandardLogger (no resources to release).
func (s *StandardLogger) Close() error {
	return nil
}

// FileLogger is a StandardLogger that owns the file it writes to.
type FileLogger struct {
	*StandardLogger
	f    io.Closer
	once sync.Once
	err  error
}

// NewFileLogger appends to the file at path, creating it if needed.
func NewFileLogger(path string, debug bool) (*FileLogger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	std := NewStandardLogger(log.New(f, "", log.LstdFlags)).WithDebug(debug)
	return &FileLogger{StandardLogger: std, f: f}, nil
}

// Close closes the underlying file once.
func (l *FileLogger) Close() error {
	l.once.Do(func() {
		l.err = l.f.Close()
	})
	return l.err
}

// NopLogger is a logger that discards all messages.
type NopLogger struct{}

// NewNopLogger creates a logger that discards all messages.
func NewNopLogger() *NopLogger {
	return &NopLogger{}
}

// Debug discards the message.
func (n *NopLogger) Debug(format string, args ...interface{}) {}

// Info discards the message.
func (n *NopLogger) Info(format string, args ...interface{}) {}

// Warning discards the message.
func (n *NopLogger) Warning(format string, args ...interface{}) {}

// Error discards the message.
func (n *NopLogger) Error(format string, args ...interface{}) {}

// Close is a no-op.
func (n *NopLogger) Close() error {
	return nil
}

// OrNop returns l, or a NopLogger when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return NewNopLogger()
	}
	return l
}

// Ensure implementations satisfy the Logger interface.
var (
	_ Logger = (*StandardLogger)(nil)
	_ Logger = (*FileLogger)(nil)
	_ Logger = (*NopLogger)(nil)
)

// MockLogger implements Logger for testing purposes.
// It records all log calls for verification in tests and is safe for
// concurrent use; read the records through the accessor methods while
// goroutines may still be logging.
type MockLogger struct {
	DebugCalls   []string
	InfoCalls    []string
	WarningCalls []string
	ErrorCalls   []string
	CloseCalled  bool
	mu           sync.Mutex
}

// NewMockLogger creates a new MockLogger for testing.
func NewMockLogger() *MockLogger {
	return &MockLogger{
		DebugCalls:   make([]string, 0),
		InfoCalls:    make([]string, 0),
		WarningCalls: make([]string, 0),
		ErrorCalls:   make([]string, 0),
	}
}

func (m *MockLogger) record(dst *[]string, format string, args ...interface{}) {
	m.mu.Lock()
	*dst = append(*dst, fmt.Sprintf(format, args...))
	m.mu.Unlock()
}

// Debug records the formatted message.
func (m *MockLogger) Debug(format string, args ...interface{}) {
	m.record(&m.DebugCalls, format, args...)
}

// Info records the formatted message.
func (m *MockLogger) Info(format string, args ...interface{}) {
	m.record(&m.InfoCalls, format, args...)
}

// Warning records the formatted message.
func (m *MockLogger) Warning(format string, args ...interface{}) {
	m.record(&m.WarningCalls, format, args...)
}

// Error records the formatted message.
func (m *MockLogger) Error(format string, args ...interface{}) {
	m.record(&m.ErrorCalls, format, args...)
}

// Close records that Close was called.
func (m *MockLogger) Close() error {
	m.mu.Lock()
	m.CloseCalled = true
	m.mu.Unlock()
	return nil
}

// Errors returns a copy of the recorded error messages.
func (m *MockLogger) Errors() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.ErrorCalls...)
}

// Warnings returns a copy of the recorded warning messages.
func (m *MockLogger) Warnings() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.WarningCalls...)
}

// Contains reports whether any recorded message of any level contains s.
func (m *MockLogger) Contains(s string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, calls := range [][]string{m.DebugCalls, m.InfoCalls, m.WarningCalls, m.ErrorCalls} {
		for _, c := range calls {
			if strings.Contains(c, s) {
				return true
			}
		}
	}
	return false
}

// Ensure MockLogger satisfies the Logger interface.
var _ Logger = (*MockLogger)(nil)

// stdWriter forwards lines written by a *log.Logger to a Logger.
type stdWriter struct {
	l Logger
}

func (w stdWriter) Write(p []byte) (int, error) {
	msg := strings.TrimRight(string(p), "\n")
	if msg != "" {
		w.l.Error("%s", msg)
	}
	return len(p), nil
}

// ToStdLogger adapts l for APIs that want a *log.Logger, such as
// http.Server.ErrorLog. Every line is logged at error level.
func ToStdLogger(l Logger) *log.Logger {
	return log.New(stdWriter{l: OrNop(l)}, "", 0)
}
