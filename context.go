package authgate

import "context"

type originContextKey struct{}

// WithOrigin attaches the caller's origin (typically the client IP, but any
// stable caller identifier works) to ctx. The engine uses it as the second
// half of the login throttling key and in audit events. A missing origin is
// treated as the empty string, which throttles all unattributed attempts for
// an email together.
func WithOrigin(ctx context.Context, origin string) context.Context {
	return context.WithValue(ctx, originContextKey{}, origin)
}

func originFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	origin, _ := ctx.Value(originContextKey{}).(string)
	return origin
}
