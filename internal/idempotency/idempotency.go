package idempotency

import (
	"context"

	"github.com/google/uuid"

	"github.com/yagnesh-3/Fira-sub001/internal/entities"
)

type ctxKey struct{}

func WithKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, ctxKey{}, key)
}

func GetKey(ctx context.Context) string {
	key, ok := ctx.Value(ctxKey{}).(string)
	if !ok || key == "" {
		return uuid.NewString()
	}

	return key
}

// EventHeader stamps a new event with the request's idempotency key.
func EventHeader(ctx context.Context) entities.EventHeader {
	return entities.NewEventHeaderWithIdempotencyKey(GetKey(ctx))
}
