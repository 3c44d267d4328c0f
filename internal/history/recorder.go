// Package history turns guest mutations into append-only audit entries.
//
// Recording is best effort from the caller's point of view: a failed append
// never fails the mutation that produced it. Failed entries are handed to an
// Outbox for retry, and an entry that exhausts its retries is logged at error
// level with enough detail to reconstruct it.
package history

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/Solideomyers/guests-app/internal/domain"
	"github.com/Solideomyers/guests-app/internal/store"
)

// Recorder writes history entries for each kind of guest mutation.
type Recorder struct {
	store  store.HistoryStore
	outbox *Outbox
	logger zerolog.Logger
	now    func() time.Time
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithOutbox retries failed appends through o instead of dropping them.
func WithOutbox(o *Outbox) Option {
	return func(r *Recorder) { r.outbox = o }
}

// WithLogger sets the recorder logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Recorder) { r.logger = logger.With().Str("component", "history").Logger() }
}

// WithClock overrides the entry timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

// NewRecorder returns a recorder appending to st.
func NewRecorder(st store.HistoryStore, opts ...Option) *Recorder {
	r := &Recorder{
		store:  st,
		logger: zerolog.Nop(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func strPtr(s string) *string { return &s }

// RecordCreate writes one CREATE entry.
func (r *Recorder) RecordCreate(ctx context.Context, g domain.Guest) {
	r.append(ctx, domain.HistoryEntry{GuestID: g.ID, Action: domain.ActionCreate})
}

// RecordUpdate writes one UPDATE entry per field of patch that differs from
// before. It returns the number of entries attempted; no-op patches write none.
func (r *Recorder) RecordUpdate(ctx context.Context, before domain.Guest, patch domain.GuestPatch) int {
	changes := patch.Changes(before)
	for _, c := range changes {
		r.append(ctx, domain.HistoryEntry{
			GuestID:  before.ID,
			Action:   domain.ActionUpdate,
			Field:    strPtr(c.Field),
			OldValue: strPtr(c.OldValue),
			NewValue: strPtr(c.NewValue),
		})
	}
	return len(changes)
}

// RecordDelete writes one DELETE entry.
func (r *Recorder) RecordDelete(ctx context.Context, g domain.Guest) {
	r.append(ctx, domain.HistoryEntry{GuestID: g.ID, Action: domain.ActionDelete})
}

// RecordBulkStatus writes a STATUS_CHANGE entry for every requested id.
// The prior value is not known for batch writes, so OldValue is nil.
func (r *Recorder) RecordBulkStatus(ctx context.Context, ids []int64, status domain.Status) {
	for _, id := range ids {
		r.append(ctx, domain.HistoryEntry{
			GuestID:  id,
			Action:   domain.ActionStatusChange,
			Field:    strPtr("status"),
			NewValue: strPtr(string(status)),
		})
	}
}

// RecordBulkPastor writes an UPDATE entry on isPastor for every requested id.
func (r *Recorder) RecordBulkPastor(ctx context.Context, ids []int64, isPastor bool) {
	for _, id := range ids {
		r.append(ctx, domain.HistoryEntry{
			GuestID:  id,
			Action:   domain.ActionUpdate,
			Field:    strPtr("isPastor"),
			NewValue: strPtr(strconv.FormatBool(isPastor)),
		})
	}
}

// RecordBulkDelete writes a DELETE entry for every requested id.
func (r *Recorder) RecordBulkDelete(ctx context.Context, ids []int64) {
	for _, id := range ids {
		r.append(ctx, domain.HistoryEntry{GuestID: id, Action: domain.ActionDelete})
	}
}

func (r *Recorder) append(ctx context.Context, e domain.HistoryEntry) {
	e.CreatedAt = r.now()

	// The mutation already committed; a caller hanging up must not cost the audit entry.
	ctx = context.WithoutCancel(ctx)
	if _, err := r.store.AppendHistory(ctx, e); err != nil {
		log := entryEvent(r.logger.Warn(), e).Err(err)
		if r.outbox != nil && r.outbox.Enqueue(e) {
			log.Msg("history append failed, queued for retry")
			return
		}
		log.Msg("history append failed")
		entryEvent(r.logger.Error(), e).Msg("history entry lost")
	}
}

func entryEvent(ev *zerolog.Event, e domain.HistoryEntry) *zerolog.Event {
	ev = ev.Int64("guest_id", e.GuestID).Str("action", string(e.Action))
	if e.Field != nil {
		ev = ev.Str("field", *e.Field)
	}
	if e.NewValue != nil {
		ev = ev.Str("new_value", *e.NewValue)
	}
	return ev
}
