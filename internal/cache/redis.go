package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is the shared persistent tier backed by Redis. Redis handles TTL
// expiry natively. All errors are logged and swallowed: the shared tier is an
// optimization, never a point of failure.
type RedisStore struct {
	client *redis.Client
	logger *slog.Logger
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore connects to Redis using a URL (redis://host:port/db).
func NewRedisStore(url string, logger *slog.Logger) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisStore{
		client: redis.NewClient(opts),
		logger: logger.With(slog.String("component", "redis-cache")),
	}, nil
}

// Get fetches from Redis; any error is a miss.
func (r *RedisStore) Get(ctx context.Context, namespace, query string) ([]byte, bool) {
	data, err := r.client.Get(ctx, Key(namespace, query)).Bytes()
	if err != nil {
		if err != redis.Nil {
			r.logger.Warn("shared cache read failed",
				slog.String("namespace", namespace),
				slog.String("error", err.Error()))
		}
		return nil, false
	}
	return data, true
}

// Set writes with TTL; errors are logged and dropped.
func (r *RedisStore) Set(ctx context.Context, namespace, query string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	if err := r.client.Set(ctx, Key(namespace, query), value, ttl).Err(); err != nil {
		r.logger.Warn("shared cache write failed",
			slog.String("namespace", namespace),
			slog.String("error", err.Error()))
	}
}

// Delete removes the key; errors are logged and dropped.
func (r *RedisStore) Delete(ctx context.Context, namespace, query string) {
	if err := r.client.Del(ctx, Key(namespace, query)).Err(); err != nil {
		r.logger.Warn("shared cache delete failed",
			slog.String("namespace", namespace),
			slog.String("error", err.Error()))
	}
}

// FlushAll flushes the Redis database and reports an approximate count.
func (r *RedisStore) FlushAll(ctx context.Context) FlushCounts {
	n, err := r.client.DBSize(ctx).Result()
	if err != nil {
		n = 0
	}
	if err := r.client.FlushDB(ctx).Err(); err != nil {
		r.logger.Warn("shared cache flush failed", slog.String("error", err.Error()))
		return FlushCounts{}
	}
	return FlushCounts{Shared: int(n)}
}

// Close releases the Redis connection.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
