package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Solideomyers/guests-app/internal/domain"
)

func fastOutboxConfig() OutboxConfig {
	return OutboxConfig{QueueSize: 4, MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 4 * time.Millisecond}
}

func TestOutbox_Backoff(t *testing.T) {
	o := NewOutbox(&fakeHistoryStore{}, OutboxConfig{BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second, MaxAttempts: 6}, zerolog.Nop())

	assert.Equal(t, 100*time.Millisecond, o.backoff(1))
	assert.Equal(t, 200*time.Millisecond, o.backoff(2))
	assert.Equal(t, 800*time.Millisecond, o.backoff(4))
	assert.Equal(t, time.Second, o.backoff(5))
	assert.Equal(t, time.Second, o.backoff(30))
}

func TestOutbox_RecoversFailedAppend(t *testing.T) {
	// First call is the request-path append, second is the first retry.
	st := &fakeHistoryStore{appendFn: func(call int, _ domain.HistoryEntry) error {
		if call <= 2 {
			return errors.New("transient")
		}
		return nil
	}}
	o := NewOutbox(st, fastOutboxConfig(), zerolog.Nop())
	r := newRecorder(st, WithOutbox(o))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go o.Run(ctx)

	r.RecordCreate(context.Background(), domain.Guest{ID: 5})

	require.Eventually(t, func() bool { return len(st.snapshot()) == 1 }, time.Second, time.Millisecond)
	entry := st.snapshot()[0]
	assert.Equal(t, int64(5), entry.GuestID)
	assert.Equal(t, fixedNow, entry.CreatedAt)
	assert.Equal(t, int64(1), o.Stats().Recovered)
}

func TestOutbox_DropsAfterMaxAttempts(t *testing.T) {
	st := &fakeHistoryStore{appendFn: func(int, domain.HistoryEntry) error { return errors.New("down") }}
	o := NewOutbox(st, fastOutboxConfig(), zerolog.Nop())
	r := newRecorder(st, WithOutbox(o))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go o.Run(ctx)

	r.RecordCreate(context.Background(), domain.Guest{ID: 5})

	require.Eventually(t, func() bool { return o.Stats().Dropped == 1 }, time.Second, time.Millisecond)
	st.mu.Lock()
	assert.Equal(t, 4, st.calls)
	st.mu.Unlock()
}

func TestOutbox_EnqueueNeverBlocks(t *testing.T) {
	o := NewOutbox(&fakeHistoryStore{}, OutboxConfig{QueueSize: 1, MaxAttempts: 1}, zerolog.Nop())

	assert.True(t, o.Enqueue(domain.HistoryEntry{GuestID: 1}))
	assert.False(t, o.Enqueue(domain.HistoryEntry{GuestID: 2}))

	stats := o.Stats()
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, int64(1), stats.Dropped)
}

func TestOutbox_ShutdownReportsQueuedAsLost(t *testing.T) {
	o := NewOutbox(&fakeHistoryStore{}, fastOutboxConfig(), zerolog.Nop())
	o.Enqueue(domain.HistoryEntry{GuestID: 1})
	o.Enqueue(domain.HistoryEntry{GuestID: 2})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	o.Run(ctx)

	assert.Zero(t, o.Stats().Pending)
	assert.Equal(t, int64(2), o.Stats().Dropped)
}
