package redis

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const idempotencyTTL = time.Hour

// IdempotencyStore maps client Idempotency-Key headers to the bug they created.
// Key format: idempotency:bug:<key>
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyStore creates an IdempotencyStore wrapping the given Redis client.
func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{client: client, ttl: idempotencyTTL}
}

// Lookup returns the bug id recorded for key, or "" when none is recorded.
func (s *IdempotencyStore) Lookup(ctx context.Context, key string) (string, error) {
	id, err := s.client.Get(ctx, idempotencyKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "idempotency lookup")
	}
	return id, nil
}

// Remember records the bug created for key. The first writer wins; the entry
// expires after the store TTL.
func (s *IdempotencyStore) Remember(ctx context.Context, key, bugID string) error {
	if err := s.client.SetNX(ctx, idempotencyKey(key), bugID, s.ttl).Err(); err != nil {
		return errors.Wrap(err, "idempotency remember")
	}
	return nil
}

func idempotencyKey(key string) string {
	return "idempotency:bug:" + key
}
