// Package logging builds the zerolog loggers used across shine-swap.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var root = New(os.Stderr, "warn")

// New returns a console logger writing to w at the given level.
// Supported levels: debug, info, warn, error.
func New(w io.Writer, level string) zerolog.Logger {
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	return zerolog.New(out).Level(ParseLevel(level)).With().Timestamp().Logger()
}

// Setup replaces the process logger and tags it with a fresh session id
func Setup(level string) zerolog.Logger {
	root = New(os.Stderr, level).With().Str("session", uuid.NewString()).Logger()
	return root
}

// Component returns a child logger for one package
func Component(name string) zerolog.Logger {
	return root.With().Str("component", name).Logger()
}

// Nop discards everything; handy in tests
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.WarnLevel
	}
}
