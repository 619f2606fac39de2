// Package ui provides terminal color support and user feedback for n2p.
// All output goes to stderr, leaving stdout for the prompt itself.
package ui

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/muesli/termenv"
)

// ColorMode determines when to use colored output.
type ColorMode int

const (
	// ColorAuto detects terminal capabilities.
	ColorAuto ColorMode = iota
	// ColorAlways forces colored output.
	ColorAlways
	// ColorNever disables all colored output.
	ColorNever
)

type contextKey string

const uiContextKey contextKey = "ui"

// UI provides formatted terminal output with color support.
type UI struct {
	out *termenv.Output
}

// New creates a UI with the specified color mode, respecting the NO_COLOR
// environment variable.
func New(mode ColorMode) *UI {
	if os.Getenv("NO_COLOR") != "" {
		mode = ColorNever
	}

	profile := termenv.ColorProfile()
	switch mode {
	case ColorNever:
		profile = termenv.Ascii
	case ColorAlways:
		if profile == termenv.Ascii {
			profile = termenv.ANSI256
		}
	}

	return &UI{out: termenv.NewOutput(os.Stderr, termenv.WithProfile(profile))}
}

// WithUI returns a new context with the UI instance attached.
func WithUI(ctx context.Context, u *UI) context.Context {
	return context.WithValue(ctx, uiContextKey, u)
}

// FromContext retrieves the UI from the context, defaulting to ColorAuto.
func FromContext(ctx context.Context) *UI {
	if u, ok := ctx.Value(uiContextKey).(*UI); ok {
		return u
	}
	return New(ColorAuto)
}

// Success prints a success message in green to stderr.
func (u *UI) Success(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	_, _ = fmt.Fprintln(u.out, u.out.String("✓ "+msg).Foreground(termenv.ANSIGreen))
}

// Warning prints a warning message in yellow to stderr.
func (u *UI) Warning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	_, _ = fmt.Fprintln(u.out, u.out.String("⚠ "+msg).Foreground(termenv.ANSIYellow))
}

// Error prints an error message in red to stderr.
func (u *UI) Error(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	_, _ = fmt.Fprintln(u.out, u.out.String("✗ "+msg).Foreground(termenv.ANSIRed))
}

// Info prints an informational message in blue to stderr.
func (u *UI) Info(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	_, _ = fmt.Fprintln(u.out, u.out.String("ℹ "+msg).Foreground(termenv.ANSIBlue))
}

// Copy places text on the system clipboard through the terminal's OSC52
// escape sequence.
func (u *UI) Copy(text string) {
	u.out.Copy(text)
}

// Writer returns the underlying writer (stderr).
func (u *UI) Writer() io.Writer {
	return u.out
}
