package logging

import (
	"context"
	"log/slog"
)

// ContextProvider returns attributes sampled at log time, such as the game minute
// or the last applied snapshot sequence.
type ContextProvider func() []slog.Attr

// ContextHandler appends the provider's attributes to every record it handles.
type ContextHandler struct {
	inner    slog.Handler
	provider ContextProvider
}

func NewContextHandler(inner slog.Handler, provider ContextProvider) *ContextHandler {
	return &ContextHandler{inner: inner, provider: provider}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.provider != nil {
		for _, a := range h.provider() {
			if a.Key != "" {
				r.AddAttrs(a)
			}
		}
	}
	return h.inner.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return NewContextHandler(h.inner.WithAttrs(attrs), h.provider)
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return NewContextHandler(h.inner.WithGroup(name), h.provider)
}
