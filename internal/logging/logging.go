// Package logging configures the global structured logger using slog.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// handlerType specifies the output format for the logger.
type handlerType int

const (
	handlerText handlerType = iota
	handlerJSON
)

// setup configures the global slog logger.
func setup(debug bool, w io.Writer, ht handlerType) {
	if w == nil {
		w = os.Stderr
	}

	// The default level is Warn rather than Info: prompt generation writes
	// its result to stdout, so routine progress stays quiet unless asked.
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch ht {
	case handlerJSON:
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	slog.SetDefault(slog.New(handler))
}

// Setup configures the global slog logger with text output. If debug is
// true, the level drops to Debug. Output goes to the provided writer
// (defaults to os.Stderr if nil).
func Setup(debug bool, w io.Writer) {
	setup(debug, w, handlerText)
}

// SetupJSON configures the global slog logger with JSON output.
func SetupJSON(debug bool, w io.Writer) {
	setup(debug, w, handlerJSON)
}
