package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps entries in Redis, msgpack-encoded under a
// configurable key prefix so several caches can share one instance.
// Entries are stored without a Redis TTL; freshness is evaluated by
// the cache layer, and stale entries remain useful for revalidation.
//
// The caller owns the client lifecycle.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore wraps an existing Redis client. namespace defaults to
// "cachetrip:" when empty.
func NewRedisStore(client *redis.Client, namespace string) *RedisStore {
	if namespace == "" {
		namespace = "cachetrip:"
	}
	return &RedisStore{client: client, prefix: namespace}
}

func (r *RedisStore) Get(ctx context.Context, key string) (*Entry, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: redis get: %w", err)
	}
	entry, err := Decode(data)
	if err != nil {
		r.client.Del(ctx, r.prefix+key)
		return nil, ErrNotFound
	}
	return entry, nil
}

func (r *RedisStore) Put(ctx context.Context, key string, entry *Entry) error {
	data, err := Encode(entry)
	if err != nil {
		return fmt.Errorf("storage: encode entry: %w", err)
	}
	if err := r.client.Set(ctx, r.prefix+key, data, 0).Err(); err != nil {
		return fmt.Errorf("storage: redis put: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("storage: redis delete: %w", err)
	}
	return nil
}

func (r *RedisStore) Scan(ctx context.Context, prefix string, fn func(entry *Entry) bool) error {
	iter := r.client.Scan(ctx, 0, scanPattern(r.prefix+prefix), 0).Iterator()
	for iter.Next(ctx) {
		key := strings.TrimPrefix(iter.Val(), r.prefix)
		entry, err := r.Get(ctx, key)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if !fn(entry) {
			return nil
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("storage: redis scan: %w", err)
	}
	return nil
}

// scanPattern escapes the glob metacharacters Redis MATCH understands,
// so a literal key prefix (URLs contain '?' and '*') matches verbatim.
func scanPattern(prefix string) string {
	escaped := make([]byte, 0, len(prefix)+8)
	for i := 0; i < len(prefix); i++ {
		switch prefix[i] {
		case '*', '?', '[', ']', '^', '\\':
			escaped = append(escaped, '\\')
		}
		escaped = append(escaped, prefix[i])
	}
	return string(escaped) + "*"
}
