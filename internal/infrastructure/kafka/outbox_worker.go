package kafka

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/DRSN-tech/catalog-enricher/internal/usecase"
	"github.com/DRSN-tech/catalog-enricher/pkg/e"
	"github.com/DRSN-tech/catalog-enricher/pkg/jitter"
	"github.com/DRSN-tech/catalog-enricher/pkg/logger"
)

const (
	drainInterval = 5 * time.Second
	drainBatch    = 10
	maxSendTries  = 3
)

// OutboxWorker периодически выгребает ожидающие события из outbox и
// публикует их в Kafka. Гарантия at-least-once: событие помечается
// обработанным только после успешной публикации.
type OutboxWorker struct {
	repo     usecase.OutboxRepository
	producer usecase.MessageProducer
	logger   logger.Logger
	stop     chan struct{}
	wg       sync.WaitGroup
}

func NewOutboxWorker(
	repo usecase.OutboxRepository,
	producer usecase.MessageProducer,
	logger logger.Logger,
) *OutboxWorker {
	return &OutboxWorker{
		repo:     repo,
		producer: producer,
		logger:   logger,
		stop:     make(chan struct{}),
	}
}

// Start запускает фоновый цикл выгрузки.
func (w *OutboxWorker) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run(ctx)
	}()
}

// Stop останавливает цикл и дожидается его завершения.
func (w *OutboxWorker) Stop() {
	close(w.stop)
	w.wg.Wait()
}

// Drain синхронно выгружает всё, что накопилось в outbox.
// Используется батч-прогоном перед завершением процесса.
func (w *OutboxWorker) Drain(ctx context.Context) error {
	for {
		hasMore, err := w.processBatch(ctx)
		if err != nil {
			return e.Wrap("OutboxWorker.Drain", err)
		}
		if !hasMore {
			return nil
		}
	}
}

func (w *OutboxWorker) run(ctx context.Context) {
	w.logger.Infof("Draining pending outbox events on startup...")
	if err := w.Drain(ctx); err != nil {
		w.logger.Warnf("startup drain failed: %v", err)
	}

	ticker := time.NewTicker(drainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Infof("Worker stopped by context cancellation")
			return
		case <-w.stop:
			return
		case <-ticker.C:
			if err := w.Drain(ctx); err != nil {
				w.logger.Warnf("outbox drain failed: %v", err)
			}
		}
	}
}

// processBatch забирает пачку событий и публикует их по одному.
// Событие, которое не удалось отправить, остаётся в статусе processing и
// будет подобрано повторно.
func (w *OutboxWorker) processBatch(ctx context.Context) (bool, error) {
	events, err := w.repo.GetAndMarkAsProcessing(ctx, drainBatch)
	if err != nil {
		return false, err
	}

	if len(events) == 0 {
		return false, nil
	}

	for _, event := range events {
		if err := w.sendWithRetry(ctx, event); err != nil {
			w.logger.Warnf("failed to publish event %s: %v", event.EventID, err)
			continue
		}
		if err := w.repo.MarkAsProcessed(ctx, event.ID); err != nil {
			w.logger.Warnf("mark processed failed: %v", err)
		}
	}

	return true, nil
}

// sendWithRetry повторяет отправку временно неотправляемых сообщений
// с экспоненциальной задержкой и jitter.
func (w *OutboxWorker) sendWithRetry(ctx context.Context, event *usecase.OutboxEvent) error {
	const (
		baseBackoff = time.Second
		maxBackoff  = 30 * time.Second
	)

	var err error
	for attempt := 0; attempt < maxSendTries; attempt++ {
		err = w.producer.WriteRawMessage(ctx, usecase.NewWriteRawMessageReq(event.ProductID, event.Payload))
		if err == nil {
			return nil
		}

		if !isRetryableError(err) || attempt == maxSendTries-1 {
			break
		}

		sleepTime := jitter.ExponentialBackoff(baseBackoff, maxBackoff, attempt, jitter.DefaultJitter)
		select {
		case <-time.After(sleepTime):
		case <-ctx.Done():
			return e.Wrap("OutboxWorker.sendWithRetry", ctx.Err())
		}
	}

	return e.Wrap("OutboxWorker.sendWithRetry", err)
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	retryablePhrases := []string{
		"connection refused",
		"i/o timeout",
		"network is unreachable",
		"broker not available",
		"connection reset",
		"broken pipe",
		"no such host",
	}
	for _, phrase := range retryablePhrases {
		if strings.Contains(errStr, phrase) {
			return true
		}
	}
	return false
}
