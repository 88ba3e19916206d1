package contexts

import "context"

// ContextKey defines the context key type.
type ContextKey string

const (
	// containerContextKey is used to store the context container in the context.
	containerContextKey ContextKey = "context_container"
)

// WithTraceID stores the trace id in the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	c := getContainer(ctx)
	c.TraceID = &traceID

	return withContainer(ctx, c)
}

// GetTraceID retrieves the trace id from the context.
func GetTraceID(ctx context.Context) (string, bool) {
	c := getContainer(ctx)
	if c.TraceID != nil {
		return *c.TraceID, true
	}

	return "", false
}

// WithRequestID stores the request id in the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	c := getContainer(ctx)
	c.RequestID = &requestID

	return withContainer(ctx, c)
}

// GetRequestID retrieves the request id from the context.
func GetRequestID(ctx context.Context) (string, bool) {
	c := getContainer(ctx)
	if c.RequestID != nil {
		return *c.RequestID, true
	}

	return "", false
}

// WithOperationName stores the logical operation name in the context.
func WithOperationName(ctx context.Context, name string) context.Context {
	c := getContainer(ctx)
	c.OperationName = &name

	return withContainer(ctx, c)
}

// GetOperationName retrieves the logical operation name from the context.
func GetOperationName(ctx context.Context) (string, bool) {
	c := getContainer(ctx)
	if c.OperationName != nil {
		return *c.OperationName, true
	}

	return "", false
}
