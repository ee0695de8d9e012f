package httpapi

import (
	"context"

	"github.com/google/uuid"
)

type authContextKey string

const callerKey authContextKey = "caller"

func withCaller(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, callerKey, userID)
}

func callerFromContext(ctx context.Context) (uuid.UUID, bool) {
	v, ok := ctx.Value(callerKey).(uuid.UUID)
	return v, ok && v != uuid.Nil
}
