package history

import (
	"context"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog"

	"github.com/Solideomyers/guests-app/internal/domain"
	"github.com/Solideomyers/guests-app/internal/store"
)

// OutboxConfig bounds the retry queue.
type OutboxConfig struct {
	QueueSize   int
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultOutboxConfig returns five attempts with backoff capped at ten seconds.
func DefaultOutboxConfig() OutboxConfig {
	return OutboxConfig{
		QueueSize:   1024,
		MaxAttempts: 5,
		BaseDelay:   200 * time.Millisecond,
		MaxDelay:    10 * time.Second,
	}
}

// OutboxStats counts retry outcomes.
type OutboxStats struct {
	Pending   int   `json:"pending"`
	Recovered int64 `json:"recovered"`
	Dropped   int64 `json:"dropped"`
}

// Outbox retries history appends that failed on the request path. Entries
// keep their original timestamp. A single worker drains the queue in order.
type Outbox struct {
	store  store.HistoryStore
	cfg    OutboxConfig
	queue  chan domain.HistoryEntry
	logger zerolog.Logger

	recovered *xsync.Counter
	dropped   *xsync.Counter
}

// NewOutbox creates an outbox. Call Run to start retrying.
func NewOutbox(st store.HistoryStore, cfg OutboxConfig, logger zerolog.Logger) *Outbox {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultOutboxConfig().QueueSize
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	return &Outbox{
		store:     st,
		cfg:       cfg,
		queue:     make(chan domain.HistoryEntry, cfg.QueueSize),
		logger:    logger.With().Str("component", "history_outbox").Logger(),
		recovered: xsync.NewCounter(),
		dropped:   xsync.NewCounter(),
	}
}

// Enqueue schedules e for retry. It never blocks and reports false when the queue is full.
func (o *Outbox) Enqueue(e domain.HistoryEntry) bool {
	select {
	case o.queue <- e:
		return true
	default:
		o.dropped.Inc()
		return false
	}
}

// Run retries queued entries until ctx is done. Entries still queued at
// shutdown are logged as lost.
func (o *Outbox) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			o.drainLost()
			return
		case e := <-o.queue:
			o.retry(ctx, e)
		}
	}
}

// backoff returns BaseDelay doubled per attempt, capped at MaxDelay.
func (o *Outbox) backoff(attempt int) time.Duration {
	d := o.cfg.BaseDelay
	for i := 1; i < attempt && d < o.cfg.MaxDelay; i++ {
		d *= 2
	}
	return min(d, o.cfg.MaxDelay)
}

func (o *Outbox) retry(ctx context.Context, e domain.HistoryEntry) {
	var lastErr error
	for attempt := 1; attempt <= o.cfg.MaxAttempts; attempt++ {
		timer := time.NewTimer(o.backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			o.lost(e, ctx.Err())
			return
		case <-timer.C:
		}

		if _, lastErr = o.store.AppendHistory(ctx, e); lastErr == nil {
			o.recovered.Inc()
			entryEvent(o.logger.Info(), e).Int("attempt", attempt).Msg("history entry recovered")
			return
		}
		entryEvent(o.logger.Warn(), e).Err(lastErr).Int("attempt", attempt).Msg("history retry failed")
	}
	o.lost(e, lastErr)
}

func (o *Outbox) lost(e domain.HistoryEntry, err error) {
	o.dropped.Inc()
	entryEvent(o.logger.Error(), e).Err(err).Time("entry_created_at", e.CreatedAt).Msg("history entry lost")
}

func (o *Outbox) drainLost() {
	for {
		select {
		case e := <-o.queue:
			o.lost(e, context.Canceled)
		default:
			return
		}
	}
}

// Stats reports queue depth and outcomes so far.
func (o *Outbox) Stats() OutboxStats {
	return OutboxStats{
		Pending:   len(o.queue),
		Recovered: o.recovered.Value(),
		Dropped:   o.dropped.Value(),
	}
}
