package observability

import "context"

// correlationIDKey is the private context key for correlation ids.
// A private type prevents collisions with keys from other packages.
type correlationIDKey struct{}

// WithCorrelationID returns a copy of parent that carries the given
// correlation id. Components propagate the id into log entries and errors so
// that every record produced by one logical request can be joined later.
func WithCorrelationID(parent context.Context, id string) context.Context {
	if id == "" {
		return parent
	}
	return context.WithValue(parent, correlationIDKey{}, id)
}

// CorrelationID returns the correlation id carried by ctx, or "" when none
// was set.
func CorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(correlationIDKey{}).(string)
	return id
}
