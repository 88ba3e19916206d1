package tracing

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/girmesh03/taskhub/internal/contexts"
)

// GenerateTraceID generates a trace id, formatted as th-{{uuid}}.
func GenerateTraceID() string {
	return fmt.Sprintf("th-%s", uuid.New().String())
}

// WithTraceID stores the trace id in the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return contexts.WithTraceID(ctx, traceID)
}

// GetTraceID gets the trace id from the context.
func GetTraceID(ctx context.Context) (string, bool) {
	return contexts.GetTraceID(ctx)
}

// WithOperationName stores the logical operation name in the context.
func WithOperationName(ctx context.Context, name string) context.Context {
	return contexts.WithOperationName(ctx, name)
}

// GetOperationName gets the logical operation name from the context.
func GetOperationName(ctx context.Context) (string, bool) {
	return contexts.GetOperationName(ctx)
}
