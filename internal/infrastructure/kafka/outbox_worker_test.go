package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/DRSN-tech/catalog-enricher/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopLogger struct{}

func (noopLogger) Debugf(format string, args ...any)            {}
func (noopLogger) Infof(format string, args ...any)             {}
func (noopLogger) Warnf(format string, args ...any)             {}
func (noopLogger) Errorf(err error, format string, args ...any) {}

type fakeOutboxRepo struct {
	pending   []*usecase.OutboxEvent
	processed []int64
}

func (f *fakeOutboxRepo) Create(ctx context.Context, event *usecase.OutboxEvent) (*usecase.OutboxEvent, error) {
	return event, nil
}

func (f *fakeOutboxRepo) GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*usecase.OutboxEvent, error) {
	if limit > len(f.pending) {
		limit = len(f.pending)
	}
	batch := f.pending[:limit]
	f.pending = f.pending[limit:]
	return batch, nil
}

func (f *fakeOutboxRepo) MarkAsProcessed(ctx context.Context, id int64) error {
	f.processed = append(f.processed, id)
	return nil
}

type fakeProducer struct {
	written []*usecase.WriteRawMessageReq
	fail    map[int64]error
	tries   map[int64]int
}

func (f *fakeProducer) WriteRawMessage(ctx context.Context, req *usecase.WriteRawMessageReq) error {
	if f.tries == nil {
		f.tries = map[int64]int{}
	}
	f.tries[req.ProductID]++
	if err, ok := f.fail[req.ProductID]; ok {
		return err
	}
	f.written = append(f.written, req)
	return nil
}

func event(id, productID int64) *usecase.OutboxEvent {
	return &usecase.OutboxEvent{
		ID:        id,
		EventID:   "event-" + string(rune('0'+id)),
		EventType: usecase.EventProductEnriched,
		ProductID: productID,
		Payload:   []byte(`{"product_id":1}`),
		Status:    usecase.Processing,
	}
}

func TestDrain(t *testing.T) {
	t.Run("publishes all pending events", func(t *testing.T) {
		repo := &fakeOutboxRepo{}
		for i := int64(1); i <= 15; i++ {
			repo.pending = append(repo.pending, event(i, i))
		}
		producer := &fakeProducer{}
		w := NewOutboxWorker(repo, producer, noopLogger{})

		require.NoError(t, w.Drain(context.Background()))

		assert.Len(t, producer.written, 15)
		assert.Len(t, repo.processed, 15)
		assert.Empty(t, repo.pending)
	})

	t.Run("non-retryable failure leaves event unprocessed", func(t *testing.T) {
		repo := &fakeOutboxRepo{pending: []*usecase.OutboxEvent{event(1, 1), event(2, 2)}}
		producer := &fakeProducer{fail: map[int64]error{1: errors.New("message too large")}}
		w := NewOutboxWorker(repo, producer, noopLogger{})

		require.NoError(t, w.Drain(context.Background()))

		// упавшее событие не помечается обработанным и не повторяется сразу
		assert.Equal(t, []int64{2}, repo.processed)
		assert.Equal(t, 1, producer.tries[1])
	})

	t.Run("retryable failure is retried up to the limit", func(t *testing.T) {
		repo := &fakeOutboxRepo{pending: []*usecase.OutboxEvent{event(1, 1)}}
		producer := &fakeProducer{fail: map[int64]error{1: errors.New("dial tcp: connection refused")}}
		w := NewOutboxWorker(repo, producer, noopLogger{})

		require.NoError(t, w.Drain(context.Background()))

		assert.Equal(t, maxSendTries, producer.tries[1])
		assert.Empty(t, repo.processed)
	})
}

func TestIsRetryableError(t *testing.T) {
	assert.False(t, isRetryableError(nil))
	assert.False(t, isRetryableError(errors.New("invalid topic")))
	assert.True(t, isRetryableError(errors.New("dial tcp 10.0.0.1:9092: i/o timeout")))
	assert.True(t, isRetryableError(errors.New("Broker Not Available")))
}
