package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/pos-api/internal/domain/entity"
)

// IdempotencyRepository stores replayable responses for retried POS writes.
// Keys are already scoped to user and endpoint by the caller.
type IdempotencyRepository interface {
	// GetByKey returns the live (unexpired) entry or nil.
	GetByKey(ctx context.Context, key string, userID uuid.UUID) (*entity.IdempotencyKey, error)
	Create(ctx context.Context, ikey *entity.IdempotencyKey) error
	// DeleteExpired removes stale entries and reports how many went.
	DeleteExpired(ctx context.Context) (int64, error)
}
