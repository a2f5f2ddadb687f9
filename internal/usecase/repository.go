package usecase

import (
	"context"

	"github.com/DRSN-tech/catalog-enricher/internal/domain"
)

type CatalogRepository interface {
	Upsert(ctx context.Context, product *domain.EnrichedProduct) error
	GetAll(ctx context.Context) ([]ProductInfo, error)
	GetByID(ctx context.Context, id int64) (*ProductInfo, error)
	GetByIDs(ctx context.Context, ids []int64) ([]ProductInfo, error)
	GetRelated(ctx context.Context, category string, excludeID int64, limit int) ([]ProductInfo, error)
}

type AssetRepository interface {
	Upload(ctx context.Context, asset *domain.Asset) error
	PublicURL(key string) string
}

type EmbeddingRepository interface {
	Upsert(ctx context.Context, vectors []domain.Embedding) error
	SearchSimilar(ctx context.Context, pointID string, limit uint64) ([]int64, error)
}

type CacheRepository interface {
	GetProduct(ctx context.Context, id int64) (*ProductInfo, error)
	SetProducts(ctx context.Context, products []ProductInfo) error
	DeleteProducts(ctx context.Context, ids []int64) error
}

type OutboxRepository interface {
	Create(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error)
	GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkAsProcessed(ctx context.Context, id int64) error
}
