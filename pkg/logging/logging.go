// Package logging builds the slog loggers used by stubcheck.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strings"

	"github.com/lmittmann/tint"
)

// Formats accepted by New.
const (
	FormatTerminal = "terminal"
	FormatText     = "text"
	FormatJSON     = "json"
)

// levelQuiet is above every standard level.
const levelQuiet = slog.Level(100)

// New creates a logger writing to w in the given format.
func New(w io.Writer, format string, level slog.Level) (*slog.Logger, error) {
	h, err := newHandler(w, format, level)
	if err != nil {
		return nil, err
	}
	return slog.New(h), nil
}

func newHandler(w io.Writer, format string, level slog.Level) (slog.Handler, error) {
	switch strings.ToLower(format) {
	case "", FormatTerminal:
		return tint.NewHandler(w, &tint.Options{
			NoColor: runtime.GOOS == "windows",
			Level:   level,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if a.Key == slog.TimeKey && len(groups) == 0 {
					return slog.Attr{}
				}
				return a
			},
		}), nil
	case FormatText:
		return slog.NewTextHandler(w, &slog.HandlerOptions{
			Level: level,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if a.Key == slog.LevelKey {
					return slog.String(a.Key, strings.ToLower(a.Value.String()))
				}
				return a
			},
		}), nil
	case FormatJSON:
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}), nil
	}
	return nil, fmt.Errorf("unknown log format %q (use one of %q, %q, %q)", format, FormatTerminal, FormatText, FormatJSON)
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: levelQuiet}))
}

// LevelFromString converts a level name to a slog.Level.
// Unrecognized names map to info.
func LevelFromString(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "err", "error":
		return slog.LevelError
	case "quiet", "off":
		return levelQuiet
	default:
		return slog.LevelInfo
	}
}

// LevelFromVerbosity converts the -v count to a level. Without flags
// only warnings are shown.
func LevelFromVerbosity(verbosity int, quiet bool) slog.Level {
	if quiet {
		return levelQuiet
	}
	switch verbosity {
	case 0:
		return slog.LevelWarn
	case 1:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}
