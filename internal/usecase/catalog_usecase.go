package usecase

import (
	"context"
	"time"

	"github.com/DRSN-tech/catalog-enricher/internal/domain"
	"github.com/DRSN-tech/catalog-enricher/pkg/e"
	"github.com/DRSN-tech/catalog-enricher/pkg/logger"
)

// CatalogUseCase обслуживает читающие запросы витрины к каталогу.
type CatalogUseCase struct {
	catalogRepo   CatalogRepository
	embeddingRepo EmbeddingRepository
	cacheRepo     CacheRepository
	logger        logger.Logger
}

func NewCatalogUC(
	catalogRepo CatalogRepository,
	embeddingRepo EmbeddingRepository,
	cacheRepo CacheRepository,
	logger logger.Logger,
) *CatalogUseCase {
	return &CatalogUseCase{
		catalogRepo:   catalogRepo,
		embeddingRepo: embeddingRepo,
		cacheRepo:     cacheRepo,
		logger:        logger,
	}
}

// GetProducts возвращает весь каталог.
func (c *CatalogUseCase) GetProducts(ctx context.Context) ([]ProductInfo, error) {
	const op = "CatalogUseCase.GetProducts"

	products, err := c.catalogRepo.GetAll(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return products, nil
}

// GetProduct возвращает товар по идентификатору, сначала заглядывая в кэш.
func (c *CatalogUseCase) GetProduct(ctx context.Context, id int64) (*ProductInfo, error) {
	const op = "CatalogUseCase.GetProduct"

	if cached, err := c.cacheRepo.GetProduct(ctx, id); err == nil && cached != nil {
		return cached, nil
	}

	product, err := c.catalogRepo.GetByID(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	// Фоновое добавление товара в кэш
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()

		if err := c.cacheRepo.SetProducts(bgCtx, []ProductInfo{*product}); err != nil {
			c.logger.Warnf("Failed to cache product in background: %v", e.Wrap(op, err))
		}
	}()

	return product, nil
}

// GetRelated возвращает товары той же категории, исключая сам товар.
func (c *CatalogUseCase) GetRelated(ctx context.Context, id int64, limit int) ([]ProductInfo, error) {
	const op = "CatalogUseCase.GetRelated"

	product, err := c.GetProduct(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	related, err := c.catalogRepo.GetRelated(ctx, product.Category, id, limit)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return related, nil
}

// GetSimilar возвращает ближайшие по эмбеддингу товары из векторного индекса.
func (c *CatalogUseCase) GetSimilar(ctx context.Context, id int64, limit int) ([]ProductInfo, error) {
	const op = "CatalogUseCase.GetSimilar"

	// +1 на случай, если индекс вернёт саму точку запроса
	ids, err := c.embeddingRepo.SearchSimilar(ctx, domain.PointID(id), uint64(limit)+1)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	filtered := make([]int64, 0, len(ids))
	for _, pid := range ids {
		if pid != id {
			filtered = append(filtered, pid)
		}
	}
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}

	if len(filtered) == 0 {
		return []ProductInfo{}, nil
	}

	products, err := c.catalogRepo.GetByIDs(ctx, filtered)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	// Сохраняем порядок убывания близости из индекса
	byID := make(map[int64]ProductInfo, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	ordered := make([]ProductInfo, 0, len(filtered))
	for _, pid := range filtered {
		if p, ok := byID[pid]; ok {
			ordered = append(ordered, p)
		}
	}

	return ordered, nil
}
