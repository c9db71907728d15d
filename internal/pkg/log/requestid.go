package log

import "context"

type ridKey struct{}

// WithRequestID сохраняет идентификатор запроса в контексте.
func WithRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, ridKey{}, rid)
}

// RequestID возвращает идентификатор запроса или "".
func RequestID(ctx context.Context) string {
	rid, _ := ctx.Value(ridKey{}).(string)
	return rid
}
