package logging

import "context"

type ctxKey struct{}

// WithRequestID stores a request id in ctx; both logger implementations
// attach it to every record logged with that context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// RequestID returns the request id stored in ctx, if any.
func RequestID(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok && id != ""
}

func withRequestID(ctx context.Context, args []any) []any {
	if id, ok := RequestID(ctx); ok {
		return append(args[:len(args):len(args)], "request_id", id)
	}
	return args
}
