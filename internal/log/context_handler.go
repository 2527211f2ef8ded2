package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// Attribute keys added from the context.
const (
	ExperimentKey = "experiment_id"
	ImageKey      = "image_id"
)

type contextKey int

const (
	experimentCtxKey contextKey = iota
	imageCtxKey
)

// WithExperiment returns a copy of ctx carrying the experiment id.
func WithExperiment(ctx context.Context, experimentID string) context.Context {
	return context.WithValue(ctx, experimentCtxKey, experimentID)
}

// WithImage returns a copy of ctx carrying the image id.
func WithImage(ctx context.Context, imageID string) context.Context {
	return context.WithValue(ctx, imageCtxKey, imageID)
}

// ExperimentFrom returns the experiment id stored in ctx, if any.
func ExperimentFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(experimentCtxKey).(string)
	return id, ok && id != ""
}

// ImageFrom returns the image id stored in ctx, if any.
func ImageFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(imageCtxKey).(string)
	return id, ok && id != ""
}

// ContextHandler wraps an slog.Handler, decorating each record with the
// ids found in the record's context and shortening byte-slice values.
type ContextHandler struct {
	handler slog.Handler
}

// NewContextHandler creates a ContextHandler wrapping handler.
// If handler is nil, slog.Default().Handler() is used.
func NewContextHandler(handler slog.Handler) *ContextHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &ContextHandler{handler: handler}
}

// Enabled delegates to the underlying handler.
func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle adds context ids, shortens byte values and forwards the record.
func (h *ContextHandler) Handle(ctx context.Context, record slog.Record) error {
	out := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)

	if ctx != nil {
		if id, ok := ExperimentFrom(ctx); ok {
			out.AddAttrs(slog.String(ExperimentKey, id))
		}
		if id, ok := ImageFrom(ctx); ok {
			out.AddAttrs(slog.String(ImageKey, id))
		}
	}

	record.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(shorten(a))
		return true
	})

	return h.handler.Handle(ctx, out)
}

// WithAttrs returns a new ContextHandler whose attributes are shortened.
func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	shortened := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		shortened[i] = shorten(a)
	}
	return &ContextHandler{handler: h.handler.WithAttrs(shortened)}
}

// WithGroup returns a new ContextHandler with the given group name.
func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{handler: h.handler.WithGroup(name)}
}

// shorten replaces []byte values with a length description, recursing into groups.
func shorten(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	switch a.Value.Kind() {
	case slog.KindGroup:
		group := a.Value.Group()
		out := make([]slog.Attr, len(group))
		for i, ga := range group {
			out[i] = shorten(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	case slog.KindAny:
		if b, ok := a.Value.Any().([]byte); ok {
			return slog.String(a.Key, fmt.Sprintf("<%d bytes>", len(b)))
		}
	}
	return a
}

// NewLogger creates a text logger writing to w.
// verbose selects Debug level; otherwise Warn.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewContextHandler(slog.NewTextHandler(w, handlerOptions(verbose))))
}

// NewJSONLogger creates a JSON logger writing to w.
// verbose selects Debug level; otherwise Warn.
func NewJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewContextHandler(slog.NewJSONHandler(w, handlerOptions(verbose))))
}

func handlerOptions(verbose bool) *slog.HandlerOptions {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return &slog.HandlerOptions{Level: level}
}
