package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Harshitk-cp/balancereports/internal/domain"
	"github.com/redis/go-redis/v9"
)

const scanBatch = 100

// RedisStore shares cached reports between instances. Values are the JSON
// encoding of the report envelope.
type RedisStore struct {
	rdb redis.UniversalClient
}

func NewRedisStore(rdb redis.UniversalClient) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Get(ctx context.Context, k Key) (*domain.GeneratedReport, bool, error) {
	val, err := s.rdb.Get(ctx, k.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	var r domain.GeneratedReport
	if err := json.Unmarshal(val, &r); err != nil {
		return nil, false, fmt.Errorf("decode cached report: %w", err)
	}
	return &r, true, nil
}

func (s *RedisStore) Set(ctx context.Context, k Key, r *domain.GeneratedReport, ttl time.Duration) error {
	val, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := s.rdb.Set(ctx, k.String(), val, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) InvalidateTenant(ctx context.Context, tenantID string) (int, error) {
	var (
		cursor  uint64
		removed int
	)
	match := tenantPrefix(tenantID) + "*"
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, match, scanBatch).Result()
		if err != nil {
			return removed, fmt.Errorf("redis scan: %w", err)
		}
		if len(keys) > 0 {
			n, err := s.rdb.Del(ctx, keys...).Result()
			if err != nil {
				return removed, fmt.Errorf("redis del: %w", err)
			}
			removed += int(n)
		}
		if next == 0 {
			return removed, nil
		}
		cursor = next
	}
}
