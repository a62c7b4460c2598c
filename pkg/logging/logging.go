// Package logging provides the console sink for gcpressure using zerolog.
package logging

import (
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

var (
	logger *zerolog.Logger
	pretty atomic.Bool
)

func init() {
	// Default to JSON logging at info level
	l := zerolog.New(os.Stderr).With().Timestamp().Logger()
	logger = &l
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

// Init configures the global logger.
// If debug is true, sets log level to Debug.
// If human is true, uses a human-friendly console writer on stdout; otherwise
// JSON lines go to stderr.
func Init(debug bool, human bool) {
	l := New(os.Stdout, os.Stderr, debug, human)
	logger = &l
}

// New builds a logger without touching the global one. Console output goes to
// humanOut, JSON output to jsonOut.
func New(humanOut, jsonOut io.Writer, debug, human bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	SetPrettyMode(human)

	var output zerolog.LevelWriter
	if human {
		output = zerolog.LevelWriterAdapter{Writer: zerolog.ConsoleWriter{
			Out:        humanOut,
			TimeFormat: time.TimeOnly,
			NoColor:    !isTerminal(humanOut),
		}}
	} else {
		output = zerolog.LevelWriterAdapter{Writer: jsonOut}
	}

	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

// L returns the base logger.
func L() *zerolog.Logger {
	return logger
}

// WithHarness returns a logger with the harness field set.
func WithHarness(harness string) zerolog.Logger {
	return logger.With().Str("harness", harness).Logger()
}

// SetLogger allows overriding the global logger (useful for testing).
func SetLogger(l zerolog.Logger) {
	logger = &l
}

// IsPrettyMode reports whether the console writer is active. Completion
// events add human-readable companion fields in that mode.
func IsPrettyMode() bool {
	return pretty.Load()
}

// SetPrettyMode toggles human-readable companion fields.
func SetPrettyMode(on bool) {
	pretty.Store(on)
}

// isTerminal reports whether w is a terminal; colors are only emitted there.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
