package logger

import "errors"

// MultiLogger fans every record out to a fixed set of backends, in the
// order they were given. The daemon pairs stderr with its log file.
type MultiLogger struct {
	backends []Logger
}

func NewMultiLogger(loggers ...Logger) *MultiLogger {
	m := &MultiLogger{backends: make([]Logger, 0, len(loggers))}
	for _, l := range loggers {
		if l != nil {
			m.backends = append(m.backends, l)
		}
	}
	return m
}

func (m *MultiLogger) each(write func(Logger)) {
	for _, b := range m.backends {
		write(b)
	}
}

func (m *MultiLogger) Debug(format string, args ...interface{}) {
	m.each(func(b Logger) { b.Debug(format, args...) })
}

func (m *MultiLogger) Info(format string, args ...interface{}) {
	m.each(func(b Logger) { b.Info(format, args...) })
}

func (m *MultiLogger) Warning(format string, args ...interface{}) {
	m.each(func(b Logger) { b.Warning(format, args...) })
}

func (m *MultiLogger) Error(format string, args ...interface{}) {
	m.each(func(b Logger) { b.Error(format, args...) })
}

// Close closes every backend and joins their errors.
func (m *MultiLogger) Close() error {
	var errs []error
	m.each(func(b Logger) {
		if err := b.Close(); err != nil {
			errs = append(errs, err)
		}
	})
	return errors.Join(errs...)
}

var _ Logger = (*MultiLogger)(nil)
