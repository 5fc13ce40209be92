// Package walletlog provides structured, per-component zerolog loggers for
// callers that want visibility into rejected updates, for example a
// logger to pass to keychain.New. No package in this module imports it.
// The core packages (txgraph, sparsechain, chaingraph, txout) stay
// logging-free; only keychain.Tracker accepts an optional logger.
package walletlog

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Component names used as the "component" field on every log line.
const (
	ComponentKeychainTracker = "keychain_tracker"
	ComponentDescriptor      = "descriptor"
	ComponentPersistence     = "persistence"
)

var base zerolog.Logger

// Init configures the package-wide base logger. json selects structured
// JSON output (for log aggregation); otherwise a human-readable console
// writer is used. level is parsed with zerolog's level names
// ("debug", "info", "warn", "error"); an unrecognized level defaults to
// info.
func Init(w io.Writer, level string, json bool) {
	if !json {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	base = zerolog.New(w).Level(parseLevel(level)).With().Timestamp().Logger()
}

// NewConsoleLogger returns a human-readable logger writing to w at level.
func NewConsoleLogger(w io.Writer, level string) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
		Level(parseLevel(level)).With().Timestamp().Logger()
}

// NewJSONLogger returns a structured JSON logger writing to w at level.
func NewJSONLogger(w io.Writer, level string) zerolog.Logger {
	return zerolog.New(w).Level(parseLevel(level)).With().Timestamp().Logger()
}

// WithComponent returns a sub-logger tagging every line with component.
func WithComponent(component string) zerolog.Logger {
	return base.With().Str("component", component).Logger()
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "disabled", "none":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

func init() {
	base = NewConsoleLogger(os.Stderr, "info")
}
