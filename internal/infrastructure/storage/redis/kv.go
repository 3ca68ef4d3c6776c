package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"ledgersync/internal/application/port"
)

// Store adapts a Redis instance to the host key-value contract. Useful
// when the dashboard runs as a kiosk/shared appliance whose "device
// local" storage lives on the same box; the synchronous contract is kept
// by bounding every call with a short timeout.
type Store struct {
	rdb     *redis.Client
	ttl     time.Duration
	timeout time.Duration
}

func New(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl, timeout: 3 * time.Second}
}

func (s *Store) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

func (s *Store) GetItem(key string) (string, bool, error) {
	ctx, cancel := s.ctx()
	defer cancel()
	val, err := s.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (s *Store) SetItem(key, value string) error {
	ctx, cancel := s.ctx()
	defer cancel()
	return s.rdb.Set(ctx, key, value, s.ttl).Err()
}

func (s *Store) RemoveItem(key string) error {
	ctx, cancel := s.ctx()
	defer cancel()
	return s.rdb.Del(ctx, key).Err()
}

func (s *Store) Keys(prefix string) ([]string, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	var keys []string
	iter := s.rdb.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	return keys, iter.Err()
}

func (s *Store) Close() error { return s.rdb.Close() }

var _ port.KV = (*Store)(nil)
