package ui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

type Logger struct {
	l *slog.Logger
}

// NewLogger logs to stderr at the level selected by the -v count.
func NewLogger(verbosity int) *Logger {
	return NewLoggerTo(os.Stderr, LevelFromVerbosity(verbosity))
}

func NewLoggerTo(w io.Writer, level slog.Level) *Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return a
			}
			switch a.Key {
			case slog.TimeKey:
				return slog.Attr{}
			case slog.LevelKey:
				if lvl, ok := a.Value.Any().(slog.Level); ok {
					a.Value = slog.StringValue(lvl.String()[:1])
				}
			}
			return a
		},
	})

	return &Logger{l: slog.New(handler)}
}

// LevelFromVerbosity maps 0 to WARN, 1 to INFO and anything above to DEBUG.
func LevelFromVerbosity(v int) slog.Level {
	switch {
	case v <= 0:
		return slog.LevelWarn
	case v == 1:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

func (l *Logger) Slog() *slog.Logger {
	return l.l
}

func (l *Logger) Enabled(level slog.Level) bool {
	return l.l.Enabled(context.Background(), level)
}

func (l *Logger) Debugf(format string, args ...any) {
	l.logf(slog.LevelDebug, format, args...)
}

func (l *Logger) Infof(format string, args ...any) {
	l.logf(slog.LevelInfo, format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.logf(slog.LevelWarn, format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.logf(slog.LevelError, format, args...)
}

func (l *Logger) logf(level slog.Level, format string, args ...any) {
	ctx := context.Background()
	if !l.l.Enabled(ctx, level) {
		return
	}
	l.l.Log(ctx, level, fmt.Sprintf(format, args...))
}
