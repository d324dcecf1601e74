package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository/memory"
	"github.com/jwalitptl/clinic-api/internal/service/event"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/messaging"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

type fakeBroker struct {
	mu        sync.Mutex
	err       error
	published []*messaging.Message
	channels  []string
}

func (b *fakeBroker) Publish(ctx context.Context, channel string, message *messaging.Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.channels = append(b.channels, channel)
	b.published = append(b.published, message)
	return nil
}

func (b *fakeBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	return nil, errors.New("not supported")
}

func (b *fakeBroker) Close() error { return nil }

func newProcessor(t *testing.T, store *memory.Store, broker messaging.Broker) *OutboxProcessor {
	t.Helper()
	p, err := NewOutboxProcessor(store, broker, OutboxProcessorConfig{
		Channel:       "clinic.events",
		BatchSize:     10,
		PollInterval:  time.Second,
		RetryAttempts: 2,
		RetryDelay:    time.Minute,
	}, logger.Nop(), metrics.Nop())
	require.NoError(t, err)
	return p
}

func emit(t *testing.T, store *memory.Store, eventType string) {
	t.Helper()
	require.NoError(t, event.Emit(context.Background(), store.Outbox(), eventType, map[string]string{"k": "v"}))
}

func TestProcessBatch_Publishes(t *testing.T) {
	store := memory.NewStore()
	broker := &fakeBroker{}
	p := newProcessor(t, store, broker)

	emit(t, store, model.EventAppointmentCreated)
	emit(t, store, model.EventPaymentRecorded)

	n, err := p.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, broker.published, 2)
	assert.Equal(t, []string{"clinic.events", "clinic.events"}, broker.channels)
	assert.JSONEq(t, `{"k":"v"}`, string(broker.published[0].Payload))

	for _, e := range store.OutboxEvents() {
		assert.Equal(t, model.OutboxStatusProcessed, e.Status)
		assert.NotNil(t, e.ProcessedAt)
	}

	// nothing left to claim
	n, err = p.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestProcessBatch_RetryThenFail(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := memory.NewStore()
	store.SetClock(func() time.Time { return now })
	broker := &fakeBroker{err: errors.New("broker down")}
	p := newProcessor(t, store, broker)
	p.now = func() time.Time { return now }

	emit(t, store, model.EventAppointmentCompleted)

	_, err := p.ProcessBatch(context.Background())
	require.NoError(t, err)
	events := store.OutboxEvents()
	require.Len(t, events, 1)
	assert.Equal(t, model.OutboxStatusRetry, events[0].Status)
	assert.Equal(t, 1, events[0].RetryCount)
	require.NotNil(t, events[0].RetryAt)
	assert.Equal(t, now.Add(time.Minute), *events[0].RetryAt)

	// not yet due
	_, err = p.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, store.OutboxEvents()[0].RetryCount)

	now = now.Add(2 * time.Minute)
	_, err = p.ProcessBatch(context.Background())
	require.NoError(t, err)
	events = store.OutboxEvents()
	assert.Equal(t, model.OutboxStatusFailed, events[0].Status)
	require.NotNil(t, events[0].ErrorMessage)
	assert.Equal(t, "broker down", *events[0].ErrorMessage)
}

func TestNewOutboxProcessor_Config(t *testing.T) {
	_, err := NewOutboxProcessor(memory.NewStore(), &fakeBroker{}, OutboxProcessorConfig{}, logger.Nop(), metrics.Nop())
	assert.Error(t, err)
}

func TestBackoff(t *testing.T) {
	assert.Equal(t, time.Second, backoff(time.Second, 0))
	assert.Equal(t, 4*time.Second, backoff(time.Second, 2))
	assert.Equal(t, 64*time.Second, backoff(time.Second, 20))
}

func TestOutboxCleanup(t *testing.T) {
	now := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	store := memory.NewStore()
	store.SetClock(func() time.Time { return now.Add(-48 * time.Hour) })
	p := newProcessor(t, store, &fakeBroker{})

	emit(t, store, model.EventAppointmentCreated)
	_, err := p.ProcessBatch(context.Background())
	require.NoError(t, err)

	w := NewOutboxCleanupWorker(store.Outbox(), 24*time.Hour, time.Hour, logger.Nop())
	w.now = func() time.Time { return now }

	rows, err := w.Cleanup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)
	assert.Empty(t, store.OutboxEvents())
}
