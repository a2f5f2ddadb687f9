package usecase

import (
	"context"

	"github.com/DRSN-tech/catalog-enricher/internal/domain"
)

// BatchSource читает и валидирует входной документ с товарами.
type BatchSource interface {
	Load(ctx context.Context) ([]domain.Product, error)
}

// Embedder — клиент сервиса текстовых эмбеддингов.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ImageGenerator — клиент генерации изображений. Никогда не возвращает
// ошибку: при недоступности сервиса отдаёт детерминированную заглушку.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) []byte
}

type MessageProducer interface {
	WriteRawMessage(ctx context.Context, req *WriteRawMessageReq) error
}
