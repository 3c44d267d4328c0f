package di

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/rs/zerolog"
	"github.com/uptrace/bun"

	"github.com/Solideomyers/guests-app/cache"
	"github.com/Solideomyers/guests-app/internal/cacheinfra"
	"github.com/Solideomyers/guests-app/internal/config"
	"github.com/Solideomyers/guests-app/internal/guests"
	"github.com/Solideomyers/guests-app/internal/history"
	"github.com/Solideomyers/guests-app/internal/httpapi"
	"github.com/Solideomyers/guests-app/internal/store"
	"github.com/Solideomyers/guests-app/migrations"
)

// Container wires the application graph: store, cache backend and service,
// history recorder with its retry outbox, the guest service and the HTTP
// server. Components are built once and shared.
type Container struct {
	config        config.Config
	logger        zerolog.Logger
	db            *bun.DB
	store         store.Store
	backend       cache.Backend
	cacheService  *cache.Service
	keySerializer cache.KeySerializer
	outbox        *history.Outbox
	recorder      *history.Recorder
	guests        *guests.Service
	server        *httpapi.Server

	closers []func() error
	wg      sync.WaitGroup
}

// NewContainer builds every component from cfg. With AutoMigrate set, SQL
// migrations are applied before the store is used.
func NewContainer(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*Container, error) {
	c := &Container{
		config:        cfg,
		logger:        logger,
		keySerializer: cache.NewDefaultKeySerializer(),
	}

	if err := c.openStore(ctx); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.openCache(); err != nil {
		c.Close()
		return nil, err
	}

	c.cacheService = cache.NewService(c.backend,
		cache.WithLogger(logger),
		cache.WithPrefix(cfg.Cache.Prefix),
		cache.WithDefaultTTL(cfg.Cache.ListTTL),
	)
	c.outbox = history.NewOutbox(c.store, cfg.Outbox, logger)
	c.recorder = history.NewRecorder(c.store, history.WithOutbox(c.outbox), history.WithLogger(logger))
	c.guests = guests.NewService(c.store, c.recorder, c.cacheService, cfg.Cache,
		guests.WithLogger(logger),
		guests.WithKeySerializer(c.keySerializer),
	)
	c.server = httpapi.NewServer(c.guests, c.cacheService, cfg.Cache,
		httpapi.WithLogger(logger),
		httpapi.WithStore(c.store),
		httpapi.WithOutbox(c.outbox),
	)
	return c, nil
}

// NewContainerWithDefaults builds a self-contained container on the memory
// store and the in-process cache. Useful for tests and local experiments.
func NewContainerWithDefaults() (*Container, error) {
	cfg := config.Config{
		DatabaseDriver: config.DriverMemory,
		CacheBackend:   config.BackendMemory,
		Cache:          cache.DefaultConfig(),
		Memory:         cacheinfra.DefaultConfig(),
		Outbox:         history.DefaultOutboxConfig(),
	}
	return NewContainer(context.Background(), cfg, zerolog.Nop())
}

func (c *Container) openStore(ctx context.Context) error {
	if c.config.DatabaseDriver == config.DriverMemory {
		c.store = store.NewMemoryStore()
		return nil
	}

	db, err := store.OpenDB(c.config.DatabaseDriver, c.config.DatabaseURL)
	if err != nil {
		return err
	}
	c.db = db
	c.closers = append(c.closers, db.Close)

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("di: database unreachable: %w", err)
	}
	if c.config.AutoMigrate {
		if err := migrations.Up(ctx, db.DB, c.config.DatabaseDriver); err != nil {
			return err
		}
		c.logger.Info().Str("driver", c.config.DatabaseDriver).Msg("migrations applied")
	}
	c.store = store.NewSQLStore(db)
	return nil
}

func (c *Container) openCache() error {
	if c.config.CacheBackend == config.BackendRedis {
		backend, err := cacheinfra.NewRedisBackend(c.config.Redis)
		if err != nil {
			return err
		}
		c.backend = backend
		c.closers = append(c.closers, backend.Close)
		return nil
	}

	memCfg := c.config.Memory
	if memCfg.TTL < c.config.Cache.MaxTTL() {
		memCfg.TTL = c.config.Cache.MaxTTL()
	}
	backend, err := cacheinfra.NewSturdycBackend(memCfg)
	if err != nil {
		return err
	}
	c.backend = backend
	return nil
}

// Start launches the history outbox worker. It stops when ctx is done;
// Close waits for it.
func (c *Container) Start(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.outbox.Run(ctx)
	}()
}

// Close waits for background workers and releases database and cache
// connections. Cancel the context given to Start first.
func (c *Container) Close() error {
	c.wg.Wait()

	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i]())
	}
	c.closers = nil
	return errors.Join(errs...)
}

// CacheService returns the singleton cache service instance.
func (c *Container) CacheService() cache.CacheService {
	return c.cacheService
}

// KeySerializer returns the singleton key serializer instance.
func (c *Container) KeySerializer() cache.KeySerializer {
	return c.keySerializer
}

// Config returns a copy of the configuration used by this container.
func (c *Container) Config() config.Config {
	return c.config
}

func (c *Container) Store() store.Store { return c.store }

func (c *Container) Outbox() *history.Outbox { return c.outbox }

func (c *Container) GuestService() *guests.Service { return c.guests }

// Handler returns the HTTP router.
func (c *Container) Handler() http.Handler {
	return c.server.Routes()
}
