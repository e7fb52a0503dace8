package logging

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ContextFields extracts correlation data from context.
func ContextFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 6)

	// Trace correlation (from OpenTelemetry)
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		sc := span.SpanContext()
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}

	if requestID := RequestIDFromContext(ctx); requestID != "" {
		fields = append(fields, zap.String("request.id", requestID))
	}

	if threadKey := ThreadKeyFromContext(ctx); threadKey != "" {
		fields = append(fields, zap.String("thread.ts", threadKey))
	}

	if channel := ChannelFromContext(ctx); channel != "" {
		fields = append(fields, zap.String("channel", channel))
	}

	return fields
}

// Context key types
type requestCtxKey struct{}
type threadCtxKey struct{}
type channelCtxKey struct{}

// RequestIDFromContext extracts request ID from context.
func RequestIDFromContext(ctx context.Context) string {
	if r, ok := ctx.Value(requestCtxKey{}).(string); ok {
		return r
	}
	return ""
}

// WithRequestID adds request ID to context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestCtxKey{}, requestID)
}

// ThreadKeyFromContext extracts the conversation thread key from context.
func ThreadKeyFromContext(ctx context.Context) string {
	if t, ok := ctx.Value(threadCtxKey{}).(string); ok {
		return t
	}
	return ""
}

// WithThreadKey adds the conversation thread key to context.
func WithThreadKey(ctx context.Context, threadKey string) context.Context {
	return context.WithValue(ctx, threadCtxKey{}, threadKey)
}

// ChannelFromContext extracts the platform channel id from context.
func ChannelFromContext(ctx context.Context) string {
	if c, ok := ctx.Value(channelCtxKey{}).(string); ok {
		return c
	}
	return ""
}

// WithChannel adds the platform channel id to context.
func WithChannel(ctx context.Context, channel string) context.Context {
	return context.WithValue(ctx, channelCtxKey{}, channel)
}
