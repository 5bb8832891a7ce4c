// Package logging provides the Logger seam used across the daemon so debug,
// info and fatal-path messages can be captured in tests without touching
// the real log sink.
package logging

import "log"

// Logger is the minimal sink every component logs through.
type Logger interface {
	Printf(format string, v ...any)
}

// StdLogger wraps the standard library's log package.
type StdLogger struct{}

// NewStdLogger returns a Logger backed by the standard log package, the
// same indirection the teacher uses to keep components independent of any
// concrete log sink (stderr vs syslog is decided by the external caller).
func NewStdLogger() Logger {
	return StdLogger{}
}

func (StdLogger) Printf(format string, v ...any) {
	log.Printf(format, v...)
}

// Discard silently drops every message; used by tests that don't want to
// assert on log output.
type Discard struct{}

func (Discard) Printf(string, ...any) {}
