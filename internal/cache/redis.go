package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces the slot key in a shared Redis.
const DefaultKeyPrefix = "marketpulse"

// Redis is a Slot backed by a single Redis string key.
// The value carries no Redis TTL; freshness is decided by the caller from
// Entry.Timestamp so a stale entry stays available as a fallback.
type Redis struct {
	client redis.Cmdable
	key    string
	logger *slog.Logger
}

// NewRedis creates a Redis slot. An empty prefix uses DefaultKeyPrefix.
func NewRedis(client redis.Cmdable, prefix string, logger *slog.Logger) *Redis {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Redis{
		client: client,
		key:    prefix + ":" + Key,
		logger: logger,
	}
}

// NewRedisFromURL parses a redis:// URL and returns the slot with its client.
// The caller closes the client.
func NewRedisFromURL(url, prefix string, logger *slog.Logger) (*Redis, *redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	return NewRedis(client, prefix, logger), client, nil
}

// Key returns the full Redis key of the slot.
func (r *Redis) Key() string {
	return r.key
}

// Load implements Slot. An unreachable server or a corrupt value is logged
// and reported as a miss.
func (r *Redis) Load(ctx context.Context) (Entry, bool, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		r.logger.Warn("cache read failed", "key", r.key, "err", err)
		return Entry{}, false, nil
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		r.logger.Warn("cache value corrupt", "key", r.key, "err", err)
		return Entry{}, false, nil
	}
	return entry, true, nil
}

// Store implements Slot. A write failure is logged and dropped.
func (r *Redis) Store(ctx context.Context, entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		r.logger.Warn("cache write failed", "key", r.key, "err", err)
	}
	return nil
}

// Invalidate implements Slot. A delete failure is logged and dropped.
func (r *Redis) Invalidate(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		r.logger.Warn("cache invalidate failed", "key", r.key, "err", err)
	}
	return nil
}
