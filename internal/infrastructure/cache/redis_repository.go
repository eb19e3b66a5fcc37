package cache

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"tokenAggApp/internal/domain/model"
	"tokenAggApp/internal/domain/repository"
)

// RedisRepository implements the Cache interface using Redis as the backend.
// Remote failures never propagate: get errors degrade to misses, writes and
// deletes to no-ops. The cache is an optimization, not a dependency the
// aggregator can fail on.
type RedisRepository struct {
	client *redis.Client
	hits   atomic.Int64
	misses atomic.Int64
}

func NewRedisRepository(addr, password string, db int) *RedisRepository {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisRepository{client: client}
}

// Ensure RedisRepository implements the Cache interface
var _ repository.Cache = (*RedisRepository)(nil)

func (r *RedisRepository) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("redis get failed, treating as miss", slog.String("key", key), slog.Any("error", err))
		}
		r.misses.Add(1)
		return "", false, nil
	}
	r.hits.Add(1)
	return value, true, nil
}

func (r *RedisRepository) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		slog.Warn("redis set failed, skipping", slog.String("key", key), slog.Any("error", err))
	}
	return nil
}

func (r *RedisRepository) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		slog.Warn("redis delete failed, skipping", slog.String("key", key), slog.Any("error", err))
	}
	return nil
}

func (r *RedisRepository) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		slog.Warn("redis exists failed, treating as absent", slog.String("key", key), slog.Any("error", err))
		return false, nil
	}
	return n > 0, nil
}

func (r *RedisRepository) Keys(ctx context.Context, pattern string) ([]string, error) {
	keys, err := r.client.Keys(ctx, pattern).Result()
	if err != nil {
		slog.Warn("redis keys failed, returning empty", slog.String("pattern", pattern), slog.Any("error", err))
		return nil, nil
	}
	return keys, nil
}

func (r *RedisRepository) Flush(ctx context.Context) error {
	if err := r.client.FlushDB(ctx).Err(); err != nil {
		slog.Warn("redis flush failed, skipping", slog.Any("error", err))
	}
	return nil
}

func (r *RedisRepository) Stats() model.CacheStats {
	hits := r.hits.Load()
	misses := r.misses.Load()

	stats := model.CacheStats{Hits: hits, Misses: misses}
	if total := hits + misses; total > 0 {
		stats.HitRate = float64(hits) / float64(total)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if size, err := r.client.DBSize(ctx).Result(); err == nil {
		stats.Size = int(size)
	}
	return stats
}

func (r *RedisRepository) IsConnected(ctx context.Context) bool {
	return r.client.Ping(ctx).Err() == nil
}

// Close releases the underlying client connections.
func (r *RedisRepository) Close() error {
	return r.client.Close()
}
