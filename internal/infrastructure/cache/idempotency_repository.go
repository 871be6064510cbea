package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sangkips/pos-api/internal/domain/entity"
	domainRepo "github.com/sangkips/pos-api/internal/domain/repository"
)

const idempotencyPrefix = "idempotency"

type idempotencyRepository struct {
	client *Client
	now    func() time.Time
}

// NewIdempotencyRepository keeps idempotency replays in redis. Entries expire
// through the key TTL so DeleteExpired has nothing to do.
func NewIdempotencyRepository(client *Client) domainRepo.IdempotencyRepository {
	return &idempotencyRepository{client: client, now: time.Now}
}

func (r *idempotencyRepository) GetByKey(ctx context.Context, key string, userID uuid.UUID) (*entity.IdempotencyKey, error) {
	raw, err := r.client.Get(ctx, idempotencyKey(key, userID))
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get idempotency key: %w", err)
	}

	var ikey entity.IdempotencyKey
	if err := json.Unmarshal([]byte(raw), &ikey); err != nil {
		return nil, fmt.Errorf("decode idempotency key: %w", err)
	}
	if ikey.IsExpired() {
		return nil, nil
	}
	return &ikey, nil
}

// Create stores the replay. A concurrent duplicate keeps the first writer's entry.
func (r *idempotencyRepository) Create(ctx context.Context, ikey *entity.IdempotencyKey) error {
	if ikey.ID == uuid.Nil {
		ikey.ID = uuid.New()
	}
	if ikey.CreatedAt.IsZero() {
		ikey.CreatedAt = r.now()
	}
	ttl := ikey.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return nil
	}

	payload, err := json.Marshal(ikey)
	if err != nil {
		return fmt.Errorf("encode idempotency key: %w", err)
	}
	if _, err := r.client.SetNX(ctx, idempotencyKey(ikey.Key, ikey.UserID), string(payload), ttl); err != nil {
		return fmt.Errorf("store idempotency key: %w", err)
	}
	return nil
}

func (r *idempotencyRepository) DeleteExpired(ctx context.Context) (int64, error) {
	return 0, nil
}

func idempotencyKey(key string, userID uuid.UUID) string {
	return Key(idempotencyPrefix, userID.String(), key)
}
