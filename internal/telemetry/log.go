package telemetry

import (
	"context"
	"log/slog"
)

// LogReporter writes events to a slog logger. Errors with high or critical
// severity are logged at error level, the rest at warn (errors) or info
// (messages).
type LogReporter struct {
	logger *slog.Logger
}

// NewLogReporter returns a reporter backed by logger, or slog.Default().
func NewLogReporter(logger *slog.Logger) *LogReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogReporter{logger: logger.With("component", "telemetry")}
}

func (l *LogReporter) Report(ev Event) {
	attrs := []slog.Attr{
		slog.String("event_id", ev.ID),
		slog.String("kind", ev.Kind.String()),
		slog.String("severity", ev.Severity.String()),
	}
	if len(ev.Context) > 0 {
		ctxAttrs := make([]any, 0, len(ev.Context))
		for k, v := range ev.Context {
			ctxAttrs = append(ctxAttrs, slog.Any(k, v))
		}
		attrs = append(attrs, slog.Group("context", ctxAttrs...))
	}
	l.logger.LogAttrs(context.Background(), levelFor(ev), ev.Text, attrs...)
}

func levelFor(ev Event) slog.Level {
	if ev.Kind == KindMessage {
		return slog.LevelInfo
	}
	if ev.Severity >= SeverityHigh {
		return slog.LevelError
	}
	return slog.LevelWarn
}

var _ Reporter = (*LogReporter)(nil)
