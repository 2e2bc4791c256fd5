// Package debug gates diagnostic output on PM_DEBUG or --verbose and
// suppresses chatter in quiet mode.
package debug

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

var (
	enabled     = os.Getenv("PM_DEBUG") != ""
	verboseMode = false
	quietMode   = false

	stderr io.Writer = os.Stderr
	stdout io.Writer = os.Stdout
)

func Enabled() bool {
	return enabled || verboseMode
}

// SetVerbose enables verbose/debug output
func SetVerbose(verbose bool) {
	verboseMode = verbose
}

// SetQuiet enables quiet mode (suppress non-essential output)
func SetQuiet(quiet bool) {
	quietMode = quiet
}

// IsQuiet returns true if quiet mode is enabled
func IsQuiet() bool {
	return quietMode
}

func Logf(format string, args ...any) {
	if Enabled() {
		_, _ = fmt.Fprintf(stderr, format, args...)
	}
}

func Printf(format string, args ...any) {
	if Enabled() {
		_, _ = fmt.Fprintf(stdout, format, args...)
	}
}

// PrintNormal prints output unless quiet mode is enabled
func PrintNormal(format string, args ...any) {
	if !quietMode {
		_, _ = fmt.Fprintf(stdout, format, args...)
	}
}

// PrintlnNormal prints a line unless quiet mode is enabled
func PrintlnNormal(args ...any) {
	if !quietMode {
		_, _ = fmt.Fprintln(stdout, args...)
	}
}

// NewLogger returns a text logger on stderr at debug level when debug
// output is enabled, and a logger that drops everything otherwise.
func NewLogger() *slog.Logger {
	if !Enabled() {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
