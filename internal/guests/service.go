// Package guests implements the guest aggregate: validated mutations that
// persist through the store, record history and invalidate the cache, and
// cache-fronted reads.
//
// Every mutation follows the same order: persist, record history, then
// invalidate. Invalidation runs whether or not the history write succeeded,
// and neither history nor cache failures reach the caller.
package guests

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Solideomyers/guests-app/cache"
	"github.com/Solideomyers/guests-app/internal/domain"
	"github.com/Solideomyers/guests-app/internal/store"
)

// RecentHistoryLimit is the number of entries embedded in a guest detail.
const RecentHistoryLimit = 10

// HistoryRecorder writes the audit trail of guest mutations.
type HistoryRecorder interface {
	RecordCreate(ctx context.Context, g domain.Guest)
	RecordUpdate(ctx context.Context, before domain.Guest, patch domain.GuestPatch) int
	RecordDelete(ctx context.Context, g domain.Guest)
	RecordBulkStatus(ctx context.Context, ids []int64, status domain.Status)
	RecordBulkPastor(ctx context.Context, ids []int64, isPastor bool)
	RecordBulkDelete(ctx context.Context, ids []int64)
}

// Service orchestrates the guest aggregate.
type Service struct {
	store    store.Store
	recorder HistoryRecorder
	cache    cache.CacheService
	keys     cache.Keys
	cfg      cache.Config
	logger   zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) { s.logger = logger.With().Str("component", "guests").Logger() }
}

// WithKeySerializer replaces the serializer used for list query keys.
func WithKeySerializer(serializer cache.KeySerializer) Option {
	return func(s *Service) { s.keys = cache.NewKeys(s.cfg.Prefix, serializer) }
}

// NewService wires the aggregate over its collaborators. cfg supplies the
// key prefix and the TTL of every cached namespace.
func NewService(st store.Store, rec HistoryRecorder, cacheSvc cache.CacheService, cfg cache.Config, opts ...Option) *Service {
	s := &Service{
		store:    st,
		recorder: rec,
		cache:    cacheSvc,
		keys:     cache.NewKeys(cfg.Prefix, nil),
		cfg:      cfg,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Keys exposes the key layout so the HTTP read-through shares it.
func (s *Service) Keys() cache.Keys { return s.keys }

// Create validates and persists a new guest. A live guest with the same
// normalized name pair fails with Conflict.
func (s *Service) Create(ctx context.Context, in CreateGuestInput) (domain.Guest, error) {
	in = in.normalized()
	if err := in.Validate(); err != nil {
		return domain.Guest{}, domain.FromValidation(err)
	}

	existing, err := s.store.FindLiveByNamePair(ctx, in.FirstName, in.LastName)
	if err != nil {
		return domain.Guest{}, err
	}
	if existing != nil {
		return domain.Guest{}, domain.NewConflict(in.FirstName, in.LastName)
	}

	// The unique index still guards the window between the check and the insert.
	guest, err := s.store.Insert(ctx, in.toGuest())
	if err != nil {
		return domain.Guest{}, err
	}

	s.recorder.RecordCreate(ctx, guest)
	s.invalidate(ctx)

	s.logger.Info().Int64("guest_id", guest.ID).Msg("guest created")
	return guest, nil
}

// FindAll lists live guests through the list cache.
func (s *Service) FindAll(ctx context.Context, in ListGuestsInput) (domain.Paginated[domain.Guest], error) {
	q, err := in.query()
	if err != nil {
		return domain.Paginated[domain.Guest]{}, err
	}

	return cache.GetOrFetch(ctx, s.cache, s.keys.List(q), s.cfg.ListTTL,
		func(ctx context.Context) (domain.Paginated[domain.Guest], error) {
			items, total, err := s.store.FindMany(ctx, q)
			if err != nil {
				return domain.Paginated[domain.Guest]{}, err
			}
			return domain.NewPaginated(items, total, q.Page), nil
		})
}

// FindOne returns a live guest with its most recent history, newest first.
func (s *Service) FindOne(ctx context.Context, id int64) (GuestDetail, error) {
	guest, err := s.store.FindLiveByID(ctx, id)
	if err != nil {
		return GuestDetail{}, err
	}

	entries, _, err := s.store.FindHistory(ctx, domain.HistoryFilter{GuestID: id},
		domain.PageParams{Page: 1, Limit: RecentHistoryLimit})
	if err != nil {
		return GuestDetail{}, err
	}
	if entries == nil {
		entries = []domain.HistoryEntry{}
	}
	return GuestDetail{Guest: guest, History: entries}, nil
}

// Update applies patch to a live guest and records one history entry per
// field whose value actually changed.
func (s *Service) Update(ctx context.Context, id int64, patch domain.GuestPatch) (domain.Guest, error) {
	patch = patch.Trimmed()
	if err := validatePatch(patch); err != nil {
		return domain.Guest{}, domain.FromValidation(err)
	}

	before, err := s.store.FindLiveByID(ctx, id)
	if err != nil {
		return domain.Guest{}, err
	}
	if patch.Empty() {
		return before, nil
	}

	if patch.FirstName != nil || patch.LastName != nil {
		next := before
		patch.Apply(&next)
		if !domain.SameName(before, next) {
			other, err := s.store.FindLiveByNamePair(ctx, next.FirstName, next.LastName)
			if err != nil {
				return domain.Guest{}, err
			}
			if other != nil && other.ID != id {
				return domain.Guest{}, domain.NewConflict(next.FirstName, next.LastName)
			}
		}
	}

	after, err := s.store.Update(ctx, id, patch)
	if err != nil {
		return domain.Guest{}, err
	}

	changed := s.recorder.RecordUpdate(ctx, before, patch)
	s.invalidate(ctx, id)

	s.logger.Info().Int64("guest_id", id).Int("changed_fields", changed).Msg("guest updated")
	return after, nil
}

// Remove soft deletes a live guest.
func (s *Service) Remove(ctx context.Context, id int64) (RemoveResult, error) {
	guest, err := s.store.SoftDelete(ctx, id)
	if err != nil {
		return RemoveResult{}, err
	}

	s.recorder.RecordDelete(ctx, guest)
	s.invalidate(ctx, id)

	s.logger.Info().Int64("guest_id", id).Msg("guest removed")
	return RemoveResult{ID: id, Message: "guest removed"}, nil
}

// BulkUpdateStatus sets status on every live guest in ids. History is
// written for every requested id, including ids the store skipped.
func (s *Service) BulkUpdateStatus(ctx context.Context, in BulkStatusInput) (BulkResult, error) {
	if err := in.Validate(); err != nil {
		return BulkResult{}, domain.FromValidation(err)
	}
	ids := dedupe(in.IDs)

	n, err := s.store.BulkUpdateStatus(ctx, ids, in.Status)
	if err != nil {
		return BulkResult{}, err
	}

	s.recorder.RecordBulkStatus(ctx, ids, in.Status)
	s.invalidateBulk(ctx)

	s.logger.Info().Int("requested", len(ids)).Int("affected", n).Str("status", string(in.Status)).Msg("bulk status update")
	return BulkResult{Count: n}, nil
}

// BulkUpdatePastor sets the pastor flag on every live guest in ids.
func (s *Service) BulkUpdatePastor(ctx context.Context, in BulkPastorInput) (BulkResult, error) {
	if err := in.Validate(); err != nil {
		return BulkResult{}, domain.FromValidation(err)
	}
	ids := dedupe(in.IDs)

	n, err := s.store.BulkUpdatePastor(ctx, ids, *in.IsPastor)
	if err != nil {
		return BulkResult{}, err
	}

	s.recorder.RecordBulkPastor(ctx, ids, *in.IsPastor)
	s.invalidateBulk(ctx)

	s.logger.Info().Int("requested", len(ids)).Int("affected", n).Bool("is_pastor", *in.IsPastor).Msg("bulk pastor update")
	return BulkResult{Count: n}, nil
}

// BulkDelete soft deletes every live guest in ids.
func (s *Service) BulkDelete(ctx context.Context, in BulkDeleteInput) (BulkResult, error) {
	if err := in.Validate(); err != nil {
		return BulkResult{}, domain.FromValidation(err)
	}
	ids := dedupe(in.IDs)

	n, err := s.store.BulkSoftDelete(ctx, ids)
	if err != nil {
		return BulkResult{}, err
	}

	s.recorder.RecordBulkDelete(ctx, ids)
	s.invalidateBulk(ctx)

	s.logger.Info().Int("requested", len(ids)).Int("affected", n).Msg("bulk delete")
	return BulkResult{Count: n}, nil
}

// GetStats returns the live-row counters through the stats cache.
func (s *Service) GetStats(ctx context.Context) (domain.GuestStats, error) {
	return cache.GetOrFetch(ctx, s.cache, s.keys.Stats(), s.cfg.StatsTTL, s.countStats)
}

func (s *Service) countStats(ctx context.Context) (domain.GuestStats, error) {
	confirmed, pending, declined := domain.StatusConfirmed, domain.StatusPending, domain.StatusDeclined
	pastor := true

	var stats domain.GuestStats
	for _, c := range []struct {
		dst  *int
		pred store.Predicate
	}{
		{&stats.Total, store.Predicate{}},
		{&stats.Confirmed, store.Predicate{Status: &confirmed}},
		{&stats.Pending, store.Predicate{Status: &pending}},
		{&stats.Declined, store.Predicate{Status: &declined}},
		{&stats.Pastors, store.Predicate{IsPastor: &pastor}},
	} {
		n, err := s.store.CountByPredicate(ctx, c.pred)
		if err != nil {
			return domain.GuestStats{}, err
		}
		*c.dst = n
	}
	return stats, nil
}

// GetHistory pages through the history of every guest, newest first.
func (s *Service) GetHistory(ctx context.Context, page, limit int) (domain.Paginated[domain.HistoryEntry], error) {
	return s.history(ctx, domain.HistoryFilter{}, page, limit)
}

// GetGuestHistory pages through the history of one guest. The guest must
// exist but may be soft deleted.
func (s *Service) GetGuestHistory(ctx context.Context, id int64, page, limit int) (domain.Paginated[domain.HistoryEntry], error) {
	if _, err := s.store.FindAnyByID(ctx, id); err != nil {
		return domain.Paginated[domain.HistoryEntry]{}, err
	}
	return s.history(ctx, domain.HistoryFilter{GuestID: id}, page, limit)
}

func (s *Service) history(ctx context.Context, f domain.HistoryFilter, page, limit int) (domain.Paginated[domain.HistoryEntry], error) {
	p, err := domain.NewPageParams(page, limit)
	if err != nil {
		return domain.Paginated[domain.HistoryEntry]{}, err
	}
	entries, total, err := s.store.FindHistory(ctx, f, p)
	if err != nil {
		return domain.Paginated[domain.HistoryEntry]{}, err
	}
	return domain.NewPaginated(entries, total, p), nil
}

// invalidate drops the namespaces every mutation touches plus the detail
// of each given id.
func (s *Service) invalidate(ctx context.Context, ids ...int64) {
	start := time.Now()
	for _, ns := range []string{cache.NamespaceList, cache.NamespaceStats, cache.NamespaceHistory} {
		s.cache.InvalidatePattern(ctx, s.keys.Namespace(ns))
	}
	for _, id := range ids {
		s.cache.InvalidatePattern(ctx, s.keys.DetailPattern(id))
	}
	s.logger.Debug().Dur("elapsed", time.Since(start)).Msg("cache invalidated after write")
}

// invalidateBulk runs once per batch and drops every cached detail, since
// a batch may touch any of them.
func (s *Service) invalidateBulk(ctx context.Context) {
	s.invalidate(ctx)
	s.cache.InvalidatePattern(ctx, s.keys.Namespace(cache.NamespaceDetail))
}
