package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcadelacruz/braceurself/shop-service/internal/analytics"
)

func NewRedisCache(client *redis.Client, baseTTL time.Duration) *RedisCache {
	if baseTTL <= 0 {
		baseTTL = time.Minute
	}
	return &RedisCache{
		client:  client,
		baseTTL: baseTTL,
	}
}

// RedisCache keys reports by seller, generation and minute. Invalidate bumps
// the generation so older keys are never read again and expire on their own.
type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r RedisCache) Get(ctx context.Context, sellerID, gen int64, asOf time.Time) (*analytics.DashboardReport, error) {
	data, err := r.client.Get(ctx, reportKey(sellerID, gen, asOf)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var report analytics.DashboardReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("unmarshal report failed: %w", err)
	}
	return &report, nil
}

func (r RedisCache) Set(ctx context.Context, sellerID, gen int64, asOf time.Time, report *analytics.DashboardReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report failed: %w", err)
	}

	jitter := time.Duration(rand.Intn(15)) * time.Second
	if err := r.client.Set(ctx, reportKey(sellerID, gen, asOf), data, r.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r RedisCache) Invalidate(ctx context.Context, sellerID int64) error {
	if err := r.client.Incr(ctx, generationKey(sellerID)).Err(); err != nil {
		return fmt.Errorf("redis incr failed: %w", err)
	}
	return nil
}

func (r RedisCache) Generation(ctx context.Context, sellerID int64) (int64, error) {
	gen, err := r.client.Get(ctx, generationKey(sellerID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get generation failed: %w", err)
	}
	return gen, nil
}

func generationKey(sellerID int64) string {
	return fmt.Sprintf("dashboard:%d:gen", sellerID)
}

func reportKey(sellerID, gen int64, asOf time.Time) string {
	return fmt.Sprintf("dashboard:%d:%d:%d", sellerID, gen, asOf.Truncate(time.Minute).Unix())
}
