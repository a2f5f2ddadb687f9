package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/DRSN-tech/catalog-enricher/internal/cfg"
	"github.com/DRSN-tech/catalog-enricher/internal/usecase"
	"github.com/DRSN-tech/catalog-enricher/pkg/clients"
	"github.com/DRSN-tech/catalog-enricher/pkg/e"
	"github.com/DRSN-tech/catalog-enricher/pkg/logger"
	r "github.com/redis/go-redis/v9"
)

// CacheRepo кэширует точечные чтения каталога в Redis с TTL.
type CacheRepo struct {
	client *clients.RedisClient
	cfg    *cfg.RedisCfg
	logger logger.Logger
}

func NewCacheRepo(client *clients.RedisClient, cfg *cfg.RedisCfg, logger logger.Logger) *CacheRepo {
	return &CacheRepo{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// GetProduct возвращает закэшированный товар или nil при промахе.
func (c *CacheRepo) GetProduct(ctx context.Context, id int64) (*usecase.ProductInfo, error) {
	data, err := c.client.Client.Get(ctx, c.productKey(id)).Bytes()
	if err != nil {
		if err == r.Nil {
			return nil, nil // cache miss
		}
		c.logger.Warnf("Redis GET failed: %v", err)
		return nil, e.Wrap("CacheRepo.GetProduct", err)
	}

	var product usecase.ProductInfo
	if err := json.Unmarshal(data, &product); err != nil {
		c.logger.Warnf("Redis unmarshal failed: %v", err)
		return nil, nil
	}

	if product.ID != id {
		c.logger.Warnf("Cache ID mismatch: key_id: %d, cached_id: %d", id, product.ID)
		if err := c.client.Client.Del(context.Background(), c.productKey(id)).Err(); err != nil {
			c.logger.Warnf("Redis del failed: %v", err)
		}
		return nil, nil
	}

	return &product, nil
}

// SetProducts атомарно кэширует несколько товаров с заданным TTL.
// Ошибки сериализации/записи логируются и не прерывают вызывающего.
func (c *CacheRepo) SetProducts(ctx context.Context, products []usecase.ProductInfo) error {
	pipeline := c.client.Client.Pipeline()
	for _, product := range products {
		data, err := json.Marshal(product)
		if err != nil {
			c.logger.Warnf("Failed to marshal product for caching (Product ID: %d): %v", product.ID, err)
			continue
		}

		pipeline.Set(ctx, c.productKey(product.ID), data, c.cfg.ProductTTL)
	}

	if _, err := pipeline.Exec(ctx); err != nil {
		c.logger.Warnf("Cache pipeline failed: %v", err)
	}

	return nil
}

// DeleteProducts удаляет товары из кэша по ID
func (c *CacheRepo) DeleteProducts(ctx context.Context, ids []int64) error {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = c.productKey(id)
	}

	if err := c.client.Client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warnf("Redis DEL failed: %v", err)
	}

	return nil
}

// productKey возвращает Redis-ключ для одного товара
func (c *CacheRepo) productKey(id int64) string {
	return fmt.Sprintf("product:%d", id)
}
