package contexts

import "context"

// container carries request-scoped values shared across layers.
// Values are copied on write so derived contexts never mutate their parent.
type container struct {
	TraceID       *string
	RequestID     *string
	OperationName *string
}

func getContainer(ctx context.Context) container {
	if ctx == nil {
		return container{}
	}

	c, ok := ctx.Value(containerContextKey).(container)
	if !ok {
		return container{}
	}

	return c
}

func withContainer(ctx context.Context, c container) context.Context {
	return context.WithValue(ctx, containerContextKey, c)
}
