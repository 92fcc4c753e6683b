package logger

import (
	"context"

	"bookheaven-be/internal/auth"

	"go.uber.org/zap"
)

type ctxKey string

const requestIDKey ctxKey = "request_id"

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFrom(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// FromCtx returns the global logger annotated with the request id and the
// acting user, when either is present on ctx.
func FromCtx(ctx context.Context) *zap.Logger {
	l := L()
	if reqID := RequestIDFrom(ctx); reqID != "" {
		l = l.With(zap.String("request_id", reqID))
	}
	if a, ok := auth.ActorFromContext(ctx); ok {
		l = l.With(
			zap.String("actor_id", a.UserID.String()),
			zap.String("actor_role", string(a.Role)),
		)
	}
	return l
}
