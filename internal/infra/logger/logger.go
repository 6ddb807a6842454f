package logger

import (
	"io"
	"log/slog"
	"time"
)

// NewWriter logs JSON to w, at debug level in dev, with timestamps in loc.
func NewWriter(env string, w io.Writer, loc *time.Location) *slog.Logger {
	level := slog.LevelInfo
	if env == "dev" {
		level = slog.LevelDebug
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey && loc != nil {
				a.Value = slog.TimeValue(a.Value.Time().In(loc))
			}
			return a
		},
	})
	return slog.New(h).With("app", "esencia", "env", env)
}
