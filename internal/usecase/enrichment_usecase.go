package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/DRSN-tech/catalog-enricher/internal/cfg"
	"github.com/DRSN-tech/catalog-enricher/internal/domain"
	"github.com/DRSN-tech/catalog-enricher/pkg/e"
	"github.com/DRSN-tech/catalog-enricher/pkg/logger"
	transaction "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5"
)

// EnrichmentUseCase прогоняет батч товаров через конвейер обогащения:
// эмбеддинг описания, генерация изображения, загрузка в S3, upsert в каталог.
// Товары обрабатываются строго по одному, ошибка одного товара не прерывает
// прогон.
type EnrichmentUseCase struct {
	source        BatchSource
	embedder      Embedder
	imageGen      ImageGenerator
	assetRepo     AssetRepository
	catalogRepo   CatalogRepository
	outboxRepo    OutboxRepository
	embeddingRepo EmbeddingRepository
	cacheRepo     CacheRepository
	dbPool        transaction.Transactional
	pipelineCfg   *cfg.PipelineCfg
	embedModel    string
	logger        logger.Logger
}

func NewEnrichmentUC(
	source BatchSource,
	embedder Embedder,
	imageGen ImageGenerator,
	assetRepo AssetRepository,
	catalogRepo CatalogRepository,
	outboxRepo OutboxRepository,
	embeddingRepo EmbeddingRepository,
	cacheRepo CacheRepository,
	dbPool transaction.Transactional,
	pipelineCfg *cfg.PipelineCfg,
	embedModel string,
	logger logger.Logger,
) *EnrichmentUseCase {
	return &EnrichmentUseCase{
		source:        source,
		embedder:      embedder,
		imageGen:      imageGen,
		assetRepo:     assetRepo,
		catalogRepo:   catalogRepo,
		outboxRepo:    outboxRepo,
		embeddingRepo: embeddingRepo,
		cacheRepo:     cacheRepo,
		dbPool:        dbPool,
		pipelineCfg:   pipelineCfg,
		embedModel:    embedModel,
		logger:        logger,
	}
}

// Run загружает батч и обрабатывает его до конца. Ошибка схемы входного
// документа фатальна и возвращается до каких-либо внешних вызовов; ошибки
// отдельных товаров попадают в отчёт, прогон продолжается.
func (u *EnrichmentUseCase) Run(ctx context.Context) (*BatchReport, error) {
	const op = "EnrichmentUseCase.Run"

	items, err := u.source.Load(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	report := NewBatchReport(len(items))
	for i := range items {
		item := &items[i]

		u.logger.Infof("processing item: %s", item.Name)
		res := u.processItem(ctx, item)
		report.Add(res)

		if res.Status == StatusPersisted {
			u.logger.Infof("processed item %d successfully", item.ID)
		} else {
			u.logger.Warnf("item %d failed at step %s: %s", res.ProductID, res.FailedStep, res.Reason)
		}

		// Пауза между товарами, чтобы не упереться в rate limit внешних сервисов
		if err := u.pause(ctx); err != nil {
			report.FinishedAt = time.Now().UTC()
			return report, e.Wrap(op, err)
		}
	}

	report.FinishedAt = time.Now().UTC()
	u.logger.Infof("processing complete: %d persisted, %d failed of %d", report.Persisted, report.Failed, report.Total)

	return report, nil
}

// processItem проводит один товар через все шаги конвейера.
// Порядок фиксирован: загрузка изображения всегда предшествует upsert'у,
// чтобы каталог не ссылался на несуществующий объект.
func (u *EnrichmentUseCase) processItem(ctx context.Context, product *domain.Product) ItemResult {
	vector, err := u.embed(ctx, product.Description)
	if err != nil {
		return NewFailedResult(product, StepEmbed, err)
	}

	asset := u.generateAsset(ctx, product)

	if err := u.upload(ctx, asset); err != nil {
		return NewFailedResult(product, StepUpload, err)
	}

	imageURL := u.assetRepo.PublicURL(asset.ObjectKey)
	enriched := domain.NewEnrichedProduct(*product, imageURL, vector)

	if err := u.persist(ctx, enriched); err != nil {
		return NewFailedResult(product, StepPersist, err)
	}

	// Зеркалирование вектора в индекс и сброс кэша не влияют на итог товара:
	// источником истины остаётся строка каталога.
	if err := u.indexEmbedding(ctx, enriched, asset.ObjectKey); err != nil {
		u.logger.Warnf("failed to index embedding for product %d: %v", product.ID, err)
	}

	if err := u.cacheRepo.DeleteProducts(ctx, []int64{product.ID}); err != nil {
		u.logger.Warnf("failed to invalidate cache for product %d: %v", product.ID, err)
	}

	return NewPersistedResult(product, imageURL)
}

// embed получает эмбеддинг описания и проверяет форму ответа.
// Размерность вектора определяется сервисом и не проверяется.
func (u *EnrichmentUseCase) embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, u.pipelineCfg.EmbedTimeout)
	defer cancel()

	vector, err := u.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", e.ErrEmbedFailed, err)
	}

	if len(vector) == 0 {
		return nil, e.ErrEmptyVector
	}

	return vector, nil
}

// generateAsset строит промпт и запрашивает изображение. Шаг не может
// завершиться ошибкой: при отказе сервиса клиент отдаёт заглушку.
func (u *EnrichmentUseCase) generateAsset(ctx context.Context, product *domain.Product) *domain.Asset {
	ctx, cancel := context.WithTimeout(ctx, u.pipelineCfg.ImageTimeout)
	defer cancel()

	prompt := ImagePrompt(product)
	data := u.imageGen.Generate(ctx, prompt)

	return domain.NewAsset(domain.AssetKey(product.ID), data, "image/png")
}

func (u *EnrichmentUseCase) upload(ctx context.Context, asset *domain.Asset) error {
	ctx, cancel := context.WithTimeout(ctx, u.pipelineCfg.UploadTimeout)
	defer cancel()

	if err := u.assetRepo.Upload(ctx, asset); err != nil {
		return fmt.Errorf("%w: %w", e.ErrAssetUpload, err)
	}

	return nil
}

// persist атомарно записывает обогащённый товар и outbox-событие.
// При ошибке транзакция откатывается, прежняя запись каталога не меняется.
func (u *EnrichmentUseCase) persist(ctx context.Context, enriched *domain.EnrichedProduct) (err error) {
	const op = "EnrichmentUseCase.persist"

	ctx, cancel := context.WithTimeout(ctx, u.pipelineCfg.UpsertTimeout)
	defer cancel()

	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, u.dbPool)
	if err != nil {
		return fmt.Errorf("%w: %w", e.ErrCatalogUpsert, err)
	}
	defer func() {
		if err != nil && tx.IsActive() {
			tx.Rollback(ctx)
		}
	}()
	ctx = context.WithValue(ctx, "tx", tx.Transaction())

	if err = u.catalogRepo.Upsert(ctx, enriched); err != nil {
		return fmt.Errorf("%w: %w", e.ErrCatalogUpsert, e.Wrap(op, err))
	}

	event, err := NewEnrichedEvent(enriched)
	if err != nil {
		return fmt.Errorf("%w: %w", e.ErrCatalogUpsert, e.Wrap(op, err))
	}

	if _, err = u.outboxRepo.Create(ctx, event); err != nil {
		return fmt.Errorf("%w: %w", e.ErrCatalogUpsert, e.Wrap(op, err))
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: %w", e.ErrCatalogUpsert, e.Wrap(op, err))
	}

	return nil
}

// indexEmbedding зеркалирует вектор в Qdrant под детерминированным ID точки.
func (u *EnrichmentUseCase) indexEmbedding(ctx context.Context, enriched *domain.EnrichedProduct, objectKey string) error {
	payload := domain.NewPayload(enriched.ID, objectKey, u.embedModel)
	embedding := domain.NewEmbedding(domain.PointID(enriched.ID), enriched.Embedding, payload)

	return u.embeddingRepo.Upsert(ctx, []domain.Embedding{*embedding})
}

// pause выдерживает настроенный интервал между товарами.
func (u *EnrichmentUseCase) pause(ctx context.Context) error {
	if u.pipelineCfg.ItemDelay <= 0 {
		return nil
	}

	select {
	case <-time.After(u.pipelineCfg.ItemDelay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ImagePrompt собирает промпт генерации изображения из названия и описания.
func ImagePrompt(product *domain.Product) string {
	return fmt.Sprintf("High quality product image of %s: %s", product.Name, product.Description)
}
