package logging

import (
	"io"
	"log/slog"
)

// NewLogger returns a text logger on w. Each verbose step lowers the level
// below base by one slog level, so with the default base of warn one -v shows
// info and two show debug.
func NewLogger(w io.Writer, base slog.Level, verbose int) *slog.Logger {
	level := base - slog.Level(4*verbose)
	if level < slog.LevelDebug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
