// Package logging builds the structured logger shared by every
// desk-controller command. On a terminal it writes human-readable text;
// under systemd or when piped it writes JSON lines so journald and log
// shippers can parse them.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
)

// EnvLevel names the environment variable consulted when no level flag is given.
const EnvLevel = "DESK_CONTROLLER_LOG"

// New returns a logger writing to stderr at the given level. An empty level
// falls back to $DESK_CONTROLLER_LOG and then to info.
func New(level string) (*slog.Logger, error) {
	if level == "" {
		level = os.Getenv(EnvLevel)
	}
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return NewWithWriter(os.Stderr, lvl, term.IsTerminal(int(os.Stderr.Fd()))), nil
}

// NewWithWriter builds a logger on w. text selects the text handler.
func NewWithWriter(w io.Writer, level slog.Level, text bool) *slog.Logger {
	options := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if text {
		handler = slog.NewTextHandler(w, options)
	} else {
		handler = slog.NewJSONHandler(w, options)
	}
	return slog.New(handler)
}

// ParseLevel maps debug, info, warn and error onto slog levels.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("logging: unknown level %q", level)
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
