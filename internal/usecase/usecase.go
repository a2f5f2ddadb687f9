package usecase

import "context"

type EnrichmentUC interface {
	Run(ctx context.Context) (*BatchReport, error)
}

type CatalogUC interface {
	GetProducts(ctx context.Context) ([]ProductInfo, error)
	GetProduct(ctx context.Context, id int64) (*ProductInfo, error)
	GetRelated(ctx context.Context, id int64, limit int) ([]ProductInfo, error)
	GetSimilar(ctx context.Context, id int64, limit int) ([]ProductInfo, error)
}
