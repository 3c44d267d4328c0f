package cacheinfra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend is a shared cache.Backend on Redis.
type RedisBackend struct {
	client    *redis.Client
	scanCount int64
}

// NewRedisBackend builds a client with bounded connection-level retries.
// It does not dial; use Ping to check reachability.
func NewRedisBackend(cfg RedisConfig) (*RedisBackend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := redis.NewClient(&redis.Options{
		Addr:            cfg.Addr,
		Password:        cfg.Password,
		DB:              cfg.DB,
		MaxRetries:      cfg.MaxRetries,
		MinRetryBackoff: cfg.MinRetryBackoff,
		MaxRetryBackoff: cfg.MaxRetryBackoff,
		DialTimeout:     cfg.DialTimeout,
	})
	return NewRedisBackendFromClient(client, cfg.ScanCount), nil
}

// NewRedisBackendFromClient wraps an existing client.
func NewRedisBackendFromClient(client *redis.Client, scanCount int64) *RedisBackend {
	if scanCount <= 0 {
		scanCount = 100
	}
	return &RedisBackend{client: client, scanCount: scanCount}
}

func (b *RedisBackend) Name() string { return "redis" }

func (b *RedisBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := b.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (b *RedisBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return b.client.Set(ctx, key, value, ttl).Err()
}

func (b *RedisBackend) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return b.client.Del(ctx, keys...).Err()
}

// DeletePattern walks the keyspace with SCAN MATCH and unlinks matches in
// batches, so large namespaces never block the server the way KEYS would.
func (b *RedisBackend) DeletePattern(ctx context.Context, pattern string) (int, error) {
	iter := b.client.Scan(ctx, 0, pattern, b.scanCount).Iterator()

	removed := 0
	batch := make([]string, 0, b.scanCount)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := b.client.Unlink(ctx, batch...).Result()
		if err != nil {
			return fmt.Errorf("cacheinfra: unlink: %w", err)
		}
		removed += int(n)
		batch = batch[:0]
		return nil
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if int64(len(batch)) >= b.scanCount {
			if err := flush(); err != nil {
				return removed, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("cacheinfra: scan %q: %w", pattern, err)
	}
	return removed, flush()
}

func (b *RedisBackend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

// Close releases the client's connections.
func (b *RedisBackend) Close() error {
	return b.client.Close()
}
