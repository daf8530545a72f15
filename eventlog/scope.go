package eventlog

import (
	"context"
	"log/slog"
)

type scopeKey struct{}

// WithScope returns a context whose scope holds the parent scope attributes followed by
// attrs. Scopes nest: events logged with the returned context carry both.
func WithScope(ctx context.Context, attrs ...slog.Attr) context.Context {
	if len(attrs) == 0 {
		return ctx
	}
	parent := ScopeAttrs(ctx)
	merged := make([]slog.Attr, 0, len(parent)+len(attrs))
	merged = append(merged, parent...)
	merged = append(merged, attrs...)

	return context.WithValue(ctx, scopeKey{}, merged)
}

// ScopeAttrs returns the scope attributes carried by ctx.
func ScopeAttrs(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	attrs, _ := ctx.Value(scopeKey{}).([]slog.Attr)

	return attrs
}
