package usecase

import (
	"encoding/json"
	"time"

	"github.com/DRSN-tech/catalog-enricher/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ENRICHMENT PIPELINE

// ItemStatus — итоговое состояние товара после прохода конвейера.
type ItemStatus string

const (
	StatusPersisted ItemStatus = "persisted"
	StatusFailed    ItemStatus = "failed"
)

// Step — шаг конвейера, на котором товар завершил обработку.
type Step string

const (
	StepEmbed   Step = "embed"
	StepImage   Step = "image"
	StepUpload  Step = "upload"
	StepPersist Step = "persist"
)

// ItemResult — результат обработки одного товара.
type ItemResult struct {
	ProductID  int64      `json:"product_id"`
	Name       string     `json:"name"`
	Status     ItemStatus `json:"status"`
	FailedStep Step       `json:"failed_step,omitempty"`
	Reason     string     `json:"reason,omitempty"`
	ImageURL   string     `json:"image_url,omitempty"`
}

// BatchReport — машиночитаемый итог прогона конвейера.
type BatchReport struct {
	Total      int          `json:"total"`
	Persisted  int          `json:"persisted"`
	Failed     int          `json:"failed"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Results    []ItemResult `json:"results"`
}

func NewBatchReport(total int) *BatchReport {
	return &BatchReport{
		Total:     total,
		StartedAt: time.Now().UTC(),
		Results:   make([]ItemResult, 0, total),
	}
}

// Add учитывает результат очередного товара.
func (b *BatchReport) Add(res ItemResult) {
	b.Results = append(b.Results, res)
	switch res.Status {
	case StatusPersisted:
		b.Persisted++
	case StatusFailed:
		b.Failed++
	}
}

func NewPersistedResult(product *domain.Product, imageURL string) ItemResult {
	return ItemResult{
		ProductID: product.ID,
		Name:      product.Name,
		Status:    StatusPersisted,
		ImageURL:  imageURL,
	}
}

func NewFailedResult(product *domain.Product, step Step, err error) ItemResult {
	return ItemResult{
		ProductID:  product.ID,
		Name:       product.Name,
		Status:     StatusFailed,
		FailedStep: step,
		Reason:     err.Error(),
	}
}

// CATALOG READS

// ProductInfo — DTO с данными товара для витрины.
type ProductInfo struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url"`
}

// OUTBOX

type OutboxStatus string

const (
	Pending    OutboxStatus = "pending"
	Processing OutboxStatus = "processing"
	Processed  OutboxStatus = "processed"
)

const EventProductEnriched = "product.enriched"

// OutboxEvent — событие обогащения, публикуемое в Kafka через outbox.
type OutboxEvent struct {
	ID          int64
	EventID     string
	EventType   string
	ProductID   int64
	Payload     []byte
	Status      OutboxStatus
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// enrichedPayload — содержимое события product.enriched.
type enrichedPayload struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	ImageURL  string `json:"image_url"`
}

// NewEnrichedEvent собирает outbox-событие для успешно обогащённого товара.
func NewEnrichedEvent(product *domain.EnrichedProduct) (*OutboxEvent, error) {
	payload, err := json.Marshal(enrichedPayload{
		ProductID: product.ID,
		Name:      product.Name,
		Category:  product.Category,
		ImageURL:  product.ImageURL,
	})
	if err != nil {
		return nil, err
	}

	return &OutboxEvent{
		EventID:   uuid.NewString(),
		EventType: EventProductEnriched,
		ProductID: product.ID,
		Payload:   payload,
		Status:    Pending,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// INFRASTRUCTURE

// WriteRawMessageReq — запрос на отправку готового payload в Kafka.
type WriteRawMessageReq struct {
	ProductID int64
	Payload   []byte
}

func NewWriteRawMessageReq(productID int64, payload []byte) *WriteRawMessageReq {
	return &WriteRawMessageReq{
		ProductID: productID,
		Payload:   payload,
	}
}
