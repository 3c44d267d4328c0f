package cacheinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/gobwas/glob"
	"github.com/viccon/sturdyc"
)

// entry wraps a cached value with its own deadline, since sturdyc applies a
// single TTL to the whole client.
type entry struct {
	value     []byte
	expiresAt time.Time
}

// SturdycBackend is an in-process cache.Backend built on a sturdyc client.
type SturdycBackend struct {
	client *sturdyc.Client[entry]
	ttl    time.Duration
	now    func() time.Time
}

// NewSturdycBackend validates cfg and builds the sturdyc client.
//
// Capacity, NumShards, TTL and EvictionPercentage are passed to sturdyc.New;
// the eviction interval is applied as an option.
func NewSturdycBackend(cfg Config) (*SturdycBackend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var opts []sturdyc.Option
	if cfg.EvictionInterval > 0 {
		opts = append(opts, sturdyc.WithEvictionInterval(cfg.EvictionInterval))
	}

	client := sturdyc.New[entry](
		cfg.Capacity,
		cfg.NumShards,
		cfg.TTL,
		cfg.EvictionPercentage,
		opts...,
	)

	return &SturdycBackend{client: client, ttl: cfg.TTL, now: time.Now}, nil
}

func (b *SturdycBackend) Name() string { return "memory" }

func (b *SturdycBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	e, ok := b.client.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !b.now().Before(e.expiresAt) {
		b.client.Delete(key)
		return nil, false, nil
	}
	return e.value, true, nil
}

func (b *SturdycBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 || ttl > b.ttl {
		ttl = b.ttl
	}
	b.client.Set(key, entry{value: value, expiresAt: b.now().Add(ttl)})
	return nil
}

func (b *SturdycBackend) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		b.client.Delete(key)
	}
	return nil
}

// DeletePattern removes every key matching the glob pattern.
func (b *SturdycBackend) DeletePattern(_ context.Context, pattern string) (int, error) {
	g, err := glob.Compile(pattern)
	if err != nil {
		return 0, fmt.Errorf("cacheinfra: invalid pattern %q: %w", pattern, err)
	}

	removed := 0
	for _, key := range b.client.ScanKeys() {
		if g.Match(key) {
			b.client.Delete(key)
			removed++
		}
	}
	return removed, nil
}

func (b *SturdycBackend) Ping(context.Context) error { return nil }

// Size reports the number of entries held, including ones past their own deadline.
func (b *SturdycBackend) Size() int {
	return b.client.Size()
}
