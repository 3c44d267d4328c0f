package cache

import (
	"context"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog"
)

// Backend is a byte-level key/value store with TTL and glob invalidation.
// Backends return errors freely; Service absorbs them.
type Backend interface {
	Name() string
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// DeletePattern removes every key matching a glob pattern and reports how many went.
	DeletePattern(ctx context.Context, pattern string) (int, error)
	Ping(ctx context.Context) error
}

// FetchFn is the function signature GetOrFetch expects when loading from the source of truth.
type FetchFn[T any] func(ctx context.Context) (T, error)

// CacheService is the cache surface used by the guest service and the HTTP
// read-through interceptor. None of its methods report backend failures:
// a broken cache behaves like an empty one.
type CacheService interface {
	// Get decodes the cached value into dest and reports whether it was a hit.
	Get(ctx context.Context, key string, dest any) bool
	// Set stores value for ttl. A zero ttl uses the service default.
	Set(ctx context.Context, key string, value any, ttl time.Duration)
	Delete(ctx context.Context, key string)
	InvalidatePattern(ctx context.Context, pattern string)
	Clear(ctx context.Context)
	IsConnected(ctx context.Context) bool
	Stats(ctx context.Context) Stats
}

// GetOrFetch reads key through the cache, calling fetchFn on a miss and
// storing its result. Errors from fetchFn are returned and never cached.
func GetOrFetch[T any](ctx context.Context, service CacheService, key string, ttl time.Duration, fetchFn FetchFn[T]) (T, error) {
	var cached T
	if service.Get(ctx, key, &cached) {
		return cached, nil
	}

	result, err := fetchFn(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	service.Set(ctx, key, result, ttl)
	return result, nil
}

// Stats is a point-in-time snapshot of cache activity.
type Stats struct {
	Backend       string  `json:"backend"`
	Connected     bool    `json:"connected"`
	Hits          int64   `json:"hits"`
	Misses        int64   `json:"misses"`
	Sets          int64   `json:"sets"`
	Deletes       int64   `json:"deletes"`
	Invalidations int64   `json:"invalidations"`
	Evicted       int64   `json:"evicted"`
	Errors        int64   `json:"errors"`
	HitRate       float64 `json:"hitRate"`
}

// Service is the resilient CacheService implementation over a Backend.
type Service struct {
	backend    Backend
	codec      Codec
	logger     zerolog.Logger
	prefix     string
	defaultTTL time.Duration

	hits          *xsync.Counter
	misses        *xsync.Counter
	sets          *xsync.Counter
	deletes       *xsync.Counter
	invalidations *xsync.Counter
	evicted       *xsync.Counter
	errors        *xsync.Counter
}

var _ CacheService = (*Service)(nil)

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger used to report absorbed failures.
func WithLogger(logger zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger.With().Str("component", "cache").Logger()
	}
}

// WithCodec replaces the msgpack codec.
func WithCodec(codec Codec) ServiceOption {
	return func(s *Service) {
		s.codec = codec
	}
}

// WithPrefix scopes Clear to keys below prefix.
func WithPrefix(prefix string) ServiceOption {
	return func(s *Service) {
		s.prefix = prefix
	}
}

// WithDefaultTTL sets the TTL applied when Set receives zero.
func WithDefaultTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		s.defaultTTL = ttl
	}
}

// NewService wraps backend so that its failures degrade to misses and no-ops.
func NewService(backend Backend, opts ...ServiceOption) *Service {
	s := &Service{
		backend:       backend,
		codec:         NewMsgpackCodec(),
		logger:        zerolog.Nop(),
		defaultTTL:    5 * time.Minute,
		hits:          xsync.NewCounter(),
		misses:        xsync.NewCounter(),
		sets:          xsync.NewCounter(),
		deletes:       xsync.NewCounter(),
		invalidations: xsync.NewCounter(),
		evicted:       xsync.NewCounter(),
		errors:        xsync.NewCounter(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) fail(err error, op, key string) {
	s.errors.Inc()
	s.logger.Warn().Err(err).Str("op", op).Str("key", key).Msg("cache operation failed")
}

func (s *Service) Get(ctx context.Context, key string, dest any) bool {
	data, ok, err := s.backend.Get(ctx, key)
	if err != nil {
		s.fail(err, "get", key)
		s.misses.Inc()
		return false
	}
	if !ok {
		s.misses.Inc()
		return false
	}
	if err := s.codec.Unmarshal(data, dest); err != nil {
		s.fail(err, "decode", key)
		s.misses.Inc()
		return false
	}
	s.hits.Inc()
	return true
}

func (s *Service) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	data, err := s.codec.Marshal(value)
	if err != nil {
		s.fail(err, "encode", key)
		return
	}
	if err := s.backend.Set(ctx, key, data, ttl); err != nil {
		s.fail(err, "set", key)
		return
	}
	s.sets.Inc()
}

func (s *Service) Delete(ctx context.Context, key string) {
	if err := s.backend.Delete(ctx, key); err != nil {
		s.fail(err, "delete", key)
		return
	}
	s.deletes.Inc()
}

// InvalidatePattern drops every key matching the glob pattern. Invalidating
// an already empty namespace is a harmless no-op.
func (s *Service) InvalidatePattern(ctx context.Context, pattern string) {
	n, err := s.backend.DeletePattern(ctx, pattern)
	if err != nil {
		s.fail(err, "invalidate", pattern)
		return
	}
	s.invalidations.Inc()
	s.evicted.Add(int64(n))
	s.logger.Debug().Str("pattern", pattern).Int("removed", n).Msg("cache invalidated")
}

// Clear drops every key under the service prefix, or every key when no prefix is set.
func (s *Service) Clear(ctx context.Context) {
	pattern := "*"
	if s.prefix != "" {
		pattern = s.prefix + KeySeparator + "*"
	}
	s.InvalidatePattern(ctx, pattern)
}

func (s *Service) IsConnected(ctx context.Context) bool {
	return s.backend.Ping(ctx) == nil
}

func (s *Service) Stats(ctx context.Context) Stats {
	hits, misses := s.hits.Value(), s.misses.Value()
	var rate float64
	if hits+misses > 0 {
		rate = float64(hits) / float64(hits+misses)
	}
	return Stats{
		Backend:       s.backend.Name(),
		Connected:     s.IsConnected(ctx),
		Hits:          hits,
		Misses:        misses,
		Sets:          s.sets.Value(),
		Deletes:       s.deletes.Value(),
		Invalidations: s.invalidations.Value(),
		Evicted:       s.evicted.Value(),
		Errors:        s.errors.Value(),
		HitRate:       rate,
	}
}
