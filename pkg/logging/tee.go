package logging

import (
	"context"
	"errors"
	"io"
	"log/slog"
)

// WithAccessLog returns a logger that writes to base and, at debug level, to
// w as JSON lines. Routing decisions are logged at debug, so w receives one
// line per routed request even when base is quieter.
func WithAccessLog(base *slog.Logger, w io.Writer) *slog.Logger {
	access := NewHandler(Config{Level: LevelDebug, Format: FormatJSON, Output: w})
	return slog.New(Tee(base.Handler(), access))
}

// Tee returns a handler that passes each record to every handler enabled for
// its level.
func Tee(handlers ...slog.Handler) slog.Handler {
	return tee(handlers)
}

type tee []slog.Handler

func (t tee) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle keeps going when a handler fails and joins the errors.
func (t tee) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range t {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (t tee) WithAttrs(attrs []slog.Attr) slog.Handler {
	return t.each(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (t tee) WithGroup(name string) slog.Handler {
	return t.each(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (t tee) each(fn func(slog.Handler) slog.Handler) tee {
	out := make(tee, len(t))
	for i, h := range t {
		out[i] = fn(h)
	}
	return out
}
