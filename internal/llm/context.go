package llm

import "context"

type ctxKeyEntity struct{}

// WithEntity tags the context with the entity currently being analyzed,
// so middleware logs can attribute requests.
func WithEntity(ctx context.Context, entityID string) context.Context {
	return context.WithValue(ctx, ctxKeyEntity{}, entityID)
}

// EntityFrom returns the entity id stored in the context.
func EntityFrom(ctx context.Context) string {
	if v := ctx.Value(ctxKeyEntity{}); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return "unknown"
}
