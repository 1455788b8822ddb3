package idempotency

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is a redis-backed once-guard for order creation. The first caller
// of Claim for a given key wins; replays read back the stored order number.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func (s *Store) Key(idempotencyKey string) string {
	return "idem:order:create:" + idempotencyKey
}

// Claim reserves the key. ok is false when the key was already claimed;
// existing then holds whatever Complete stored for the first request.
func (s *Store) Claim(ctx context.Context, key string) (ok bool, existing string, err error) {
	ok, err = s.rdb.SetNX(ctx, key, "", s.ttl).Result()
	if err != nil {
		return false, "", err
	}
	if ok {
		return true, "", nil
	}
	existing, err = s.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, "", nil
	}
	return false, existing, err
}

// Complete records the order number produced for the claimed key.
func (s *Store) Complete(ctx context.Context, key, orderNumber string) error {
	return s.rdb.Set(ctx, key, orderNumber, s.ttl).Err()
}

// Release drops a claim after a failed creation so the caller may retry.
func (s *Store) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}
