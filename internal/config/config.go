// Package config loads and validates application configuration from environment variables.
package config

import (
	"os"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"

	"github.com/Solideomyers/guests-app/cache"
	"github.com/Solideomyers/guests-app/internal/cacheinfra"
	"github.com/Solideomyers/guests-app/internal/history"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"

	BackendMemory = "memory"
	BackendRedis  = "redis"

	defaultSQLiteDSN = "file:guests.db?_foreign_keys=on"
)

// Config holds all configuration values for the API server.
type Config struct {
	Port      string
	LogLevel  string
	LogFormat string

	DatabaseDriver string
	DatabaseURL    string
	AutoMigrate    bool

	CacheBackend string
	Cache        cache.Config
	Memory       cacheinfra.Config
	Redis        cacheinfra.RedisConfig

	Outbox history.OutboxConfig
}

// Load reads configuration from environment variables and returns a
// validated Config. Unset variables take their defaults.
func Load() (Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (Config, error) {
	p := parser{getenv: getenv}

	cfg := Config{
		Port:           p.stringVar("PORT", "8080"),
		LogLevel:       p.stringVar("LOG_LEVEL", "info"),
		LogFormat:      p.stringVar("LOG_FORMAT", "json"),
		DatabaseDriver: p.stringVar("DATABASE_DRIVER", DriverSQLite),
		DatabaseURL:    getenv("DATABASE_URL"),
		AutoMigrate:    p.boolVar("AUTO_MIGRATE", true),
		CacheBackend:   p.stringVar("CACHE_BACKEND", BackendMemory),
	}
	if cfg.DatabaseDriver == DriverSQLite && cfg.DatabaseURL == "" {
		cfg.DatabaseURL = defaultSQLiteDSN
	}

	cc := cache.DefaultConfig()
	cfg.Cache = cache.Config{
		Prefix:     p.stringVar("CACHE_PREFIX", cc.Prefix),
		ListTTL:    p.durationVar("CACHE_TTL_LIST", cc.ListTTL),
		DetailTTL:  p.durationVar("CACHE_TTL_DETAIL", cc.DetailTTL),
		StatsTTL:   p.durationVar("CACHE_TTL_STATS", cc.StatsTTL),
		HistoryTTL: p.durationVar("CACHE_TTL_HISTORY", cc.HistoryTTL),
	}

	mc := cacheinfra.DefaultConfig()
	mc.Capacity = p.intVar("CACHE_CAPACITY", mc.Capacity)
	mc.NumShards = p.intVar("CACHE_SHARDS", mc.NumShards)
	mc.TTL = cfg.Cache.MaxTTL()
	cfg.Memory = mc

	rc := cacheinfra.DefaultRedisConfig()
	rc.Addr = p.stringVar("REDIS_ADDR", rc.Addr)
	rc.Password = getenv("REDIS_PASSWORD")
	rc.DB = p.intVar("REDIS_DB", rc.DB)
	rc.MaxRetries = p.intVar("REDIS_MAX_RETRIES", rc.MaxRetries)
	rc.MinRetryBackoff = p.durationVar("REDIS_MIN_RETRY_BACKOFF", rc.MinRetryBackoff)
	rc.MaxRetryBackoff = p.durationVar("REDIS_MAX_RETRY_BACKOFF", rc.MaxRetryBackoff)
	cfg.Redis = rc

	oc := history.DefaultOutboxConfig()
	oc.MaxAttempts = p.intVar("HISTORY_RETRY_ATTEMPTS", oc.MaxAttempts)
	oc.QueueSize = p.intVar("HISTORY_RETRY_QUEUE", oc.QueueSize)
	cfg.Outbox = oc

	if len(p.errs) > 0 {
		return Config{}, goerrors.NewValidation("invalid environment", p.errs...)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field rules and delegates to the component configs.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Port, validation.Required),
		validation.Field(&c.LogLevel, validation.In("trace", "debug", "info", "warn", "error")),
		validation.Field(&c.LogFormat, validation.In("json", "console")),
		validation.Field(&c.DatabaseDriver, validation.Required, validation.In(DriverPostgres, DriverSQLite, DriverMemory)),
		validation.Field(&c.DatabaseURL, validation.When(c.DatabaseDriver == DriverPostgres, validation.Required)),
		validation.Field(&c.CacheBackend, validation.Required, validation.In(BackendMemory, BackendRedis)),
	)
	if err != nil {
		return goerrors.FromOzzoValidation(err, "invalid configuration")
	}

	if err := c.Cache.Validate(); err != nil {
		return err
	}
	if err := c.Memory.Validate(); err != nil {
		return err
	}
	if c.CacheBackend == BackendRedis {
		if err := c.Redis.Validate(); err != nil {
			return err
		}
	}
	return validation.Errors{
		"HISTORY_RETRY_ATTEMPTS": validation.Validate(c.Outbox.MaxAttempts, validation.Min(1)),
		"HISTORY_RETRY_QUEUE":    validation.Validate(c.Outbox.QueueSize, validation.Min(1)),
	}.Filter()
}

// parser reads typed variables and collects every malformed one.
type parser struct {
	getenv func(string) string
	errs   []goerrors.FieldError
}

func (p *parser) stringVar(key, fallback string) string {
	if v := p.getenv(key); v != "" {
		return v
	}
	return fallback
}

func (p *parser) intVar(key string, fallback int) int {
	raw := p.getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.errs = append(p.errs, goerrors.FieldError{Field: key, Message: "must be an integer", Value: raw})
		return fallback
	}
	return v
}

func (p *parser) boolVar(key string, fallback bool) bool {
	raw := p.getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		p.errs = append(p.errs, goerrors.FieldError{Field: key, Message: "must be a boolean", Value: raw})
		return fallback
	}
	return v
}

func (p *parser) durationVar(key string, fallback time.Duration) time.Duration {
	raw := p.getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		p.errs = append(p.errs, goerrors.FieldError{Field: key, Message: "must be a duration such as 5m", Value: raw})
		return fallback
	}
	return v
}
