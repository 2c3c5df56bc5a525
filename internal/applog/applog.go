// Package applog wraps zerolog to give the server a single
// package-level logger, initialized once at startup, with a small
// helper for tagging each component's sub-logger.
package applog

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the global logger instance. It is the zero value
// (disabled writer) until Init is called; callers that need a logger
// before Init — there are none in this codebase — would get silent
// discards rather than a panic.
var Logger zerolog.Logger

// Config controls Init.
type Config struct {
	// Debug enables debug-level logging; otherwise info and above.
	Debug bool
	// JSON selects JSON output; otherwise a human console writer.
	JSON bool
	// Output defaults to os.Stdout when nil.
	Output io.Writer
}

// Init sets up the global logger. Call once, before any other
// package logs.
func Init(cfg Config) {
	level := zerolog.InfoLevel
	if cfg.Debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	if cfg.JSON {
		Logger = zerolog.New(out).With().Timestamp().Logger()
		return
	}
	Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Logger()
}

// WithComponent returns a child logger tagging every event with
// component. Per-connection fields (peer, conn_id) are added by
// internal/conn on top of the logger this returns, since those fields
// are only known once a connection arrives.
func WithComponent(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}
