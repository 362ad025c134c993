package services

import "context"

type contextKey string

const (
	channelKey       contextKey = "channel"
	operationKey     contextKey = "operation"
	correlationIDKey contextKey = "correlation_id"
)

// WithChannel annotates context with the invocation channel name.
func WithChannel(ctx context.Context, channel string) context.Context {
	if channel == "" {
		return ctx
	}
	return context.WithValue(ctx, channelKey, channel)
}

// ChannelFromContext returns the channel name if present.
func ChannelFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, channelKey)
}

// WithOperation annotates context with the invoked operation name.
func WithOperation(ctx context.Context, operation string) context.Context {
	if operation == "" {
		return ctx
	}
	return context.WithValue(ctx, operationKey, operation)
}

// OperationFromContext returns the operation name if present.
func OperationFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, operationKey)
}

// WithCorrelationID annotates context with a correlation identifier.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationIDKey, id)
}

// CorrelationIDFromContext extracts the correlation identifier if present.
func CorrelationIDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, correlationIDKey)
}

func stringValue(ctx context.Context, key contextKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	if v, ok := ctx.Value(key).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
