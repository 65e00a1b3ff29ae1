package logger

import (
	"io"
	"log/slog"
	"time"
)

// newTextHandler returns a console handler: level, message and fields,
// without timestamps. Time-valued fields are rendered in tz.
func newTextHandler(w io.Writer, level slog.Level, tz *time.Location) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return a
			}
			switch a.Key {
			case slog.TimeKey:
				return slog.Attr{}
			case slog.LevelKey:
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == traceLevelValue {
					return slog.String(slog.LevelKey, "TRACE")
				}
			default:
				if a.Value.Kind() == slog.KindTime {
					return slog.String(a.Key, a.Value.Time().In(tz).Format(time.RFC3339))
				}
			}
			return a
		},
	})
}
