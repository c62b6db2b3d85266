package logger

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// SetupLogger configures structured logging for the draft sync tools.
// Valid levels are DEBUG, INFO, WARN, ERROR; verboseMode forces DEBUG.
// Logs go to stderr so stdout stays clean for progress output.
func SetupLogger(verboseMode bool, logLevel string) *slog.Logger {
	level := ParseLogLevel(logLevel)
	if verboseMode {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler)
}

// ParseLogLevel converts a string log level to slog.Level.
// Defaults to INFO if an invalid level is provided.
func ParseLogLevel(levelStr string) slog.Level {
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogVerbose writes diagnostic output directly to stderr, bypassing the
// structured logger. Used for token and configuration diagnostics.
func LogVerbose(verbose bool, format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[VERBOSE] "+format+"\n", args...)
	}
}
