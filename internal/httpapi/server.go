// Package httpapi exposes the guest aggregate over HTTP with chi.
package httpapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/Solideomyers/guests-app/cache"
	"github.com/Solideomyers/guests-app/internal/domain"
	"github.com/Solideomyers/guests-app/internal/guests"
	"github.com/Solideomyers/guests-app/internal/history"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// GuestService is the aggregate surface served by the router.
type GuestService interface {
	Create(ctx context.Context, in guests.CreateGuestInput) (domain.Guest, error)
	FindAll(ctx context.Context, in guests.ListGuestsInput) (domain.Paginated[domain.Guest], error)
	FindOne(ctx context.Context, id int64) (guests.GuestDetail, error)
	Update(ctx context.Context, id int64, patch domain.GuestPatch) (domain.Guest, error)
	Remove(ctx context.Context, id int64) (guests.RemoveResult, error)
	BulkUpdateStatus(ctx context.Context, in guests.BulkStatusInput) (guests.BulkResult, error)
	BulkUpdatePastor(ctx context.Context, in guests.BulkPastorInput) (guests.BulkResult, error)
	BulkDelete(ctx context.Context, in guests.BulkDeleteInput) (guests.BulkResult, error)
	GetStats(ctx context.Context) (domain.GuestStats, error)
	GetHistory(ctx context.Context, page, limit int) (domain.Paginated[domain.HistoryEntry], error)
	GetGuestHistory(ctx context.Context, id int64, page, limit int) (domain.Paginated[domain.HistoryEntry], error)
}

// Pinger reports store reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// OutboxReporter exposes the history retry backlog.
type OutboxReporter interface {
	Stats() history.OutboxStats
}

// Server holds the handler dependencies.
type Server struct {
	guests GuestService
	cache  cache.CacheService
	keys   cache.Keys
	cfg    cache.Config
	store  Pinger
	outbox OutboxReporter
	logger zerolog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger for access lines and failed requests.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) { s.logger = logger.With().Str("component", "http").Logger() }
}

// WithStore enables the store check of /healthz.
func WithStore(p Pinger) Option {
	return func(s *Server) { s.store = p }
}

// WithOutbox reports the history retry backlog in /healthz.
func WithOutbox(o OutboxReporter) Option {
	return func(s *Server) { s.outbox = o }
}

// NewServer builds a Server. cfg must match the one the guest service was
// built with so both layers share key layout and TTLs.
func NewServer(svc GuestService, cacheSvc cache.CacheService, cfg cache.Config, opts ...Option) *Server {
	s := &Server{
		guests: svc,
		cache:  cacheSvc,
		keys:   cache.NewKeys(cfg.Prefix, nil),
		cfg:    cfg,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes returns the full router with middleware applied.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(NewAccessLogger(s.logger))
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", s.health)
	r.Get("/cache/stats", s.cacheStats)
	r.Delete("/cache", s.clearCache)

	r.Route("/guests", func(r chi.Router) {
		r.Post("/", s.create)
		r.Get("/", s.list)
		r.Get("/stats", s.stats)
		r.With(CacheInterceptor(s.cache, s.cfg.HistoryTTL, s.historyKey)).Get("/history", s.history)

		r.Patch("/bulk/status", s.bulkStatus)
		r.Patch("/bulk/pastor", s.bulkPastor)
		r.Post("/bulk/delete", s.bulkDelete)

		r.Route("/{id}", func(r chi.Router) {
			r.With(CacheInterceptor(s.cache, s.cfg.DetailTTL, s.detailKey)).Get("/", s.findOne)
			r.Patch("/", s.update)
			r.Delete("/", s.remove)
			r.With(CacheInterceptor(s.cache, s.cfg.HistoryTTL, s.guestHistoryKey)).Get("/history", s.guestHistory)
		})
	})

	return r
}

func (s *Server) detailKey(r *http.Request) string {
	id, err := pathID(r)
	if err != nil {
		return ""
	}
	return s.keys.Detail(id)
}

func (s *Server) historyKey(r *http.Request) string {
	p, err := pageQuery(r)
	if err != nil {
		return ""
	}
	return s.keys.History(p.Page, p.Limit)
}

func (s *Server) guestHistoryKey(r *http.Request) string {
	id, err := pathID(r)
	if err != nil {
		return ""
	}
	p, err := pageQuery(r)
	if err != nil {
		return ""
	}
	return s.keys.GuestHistory(id, p.Page, p.Limit)
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		return 0, badRequest("id", "must be a positive integer")
	}
	return id, nil
}

// pageQuery parses and normalizes page and limit so equivalent requests
// share a cache key.
func pageQuery(r *http.Request) (domain.PageParams, error) {
	page, err := intQuery(r, "page")
	if err != nil {
		return domain.PageParams{}, err
	}
	limit, err := intQuery(r, "limit")
	if err != nil {
		return domain.PageParams{}, err
	}
	return domain.NewPageParams(page, limit)
}

func intQuery(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest(name, "must be an integer")
	}
	return v, nil
}

func boolQuery(r *http.Request, name string) (*bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, badRequest(name, "must be true or false")
	}
	return &v, nil
}
