package pgdb

import (
	"context"
	"errors"

	"github.com/DRSN-tech/catalog-enricher/internal/domain"
	"github.com/DRSN-tech/catalog-enricher/internal/usecase"
	"github.com/DRSN-tech/catalog-enricher/pkg/e"
	"github.com/DRSN-tech/catalog-enricher/pkg/tr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
	"github.com/pgvector/pgvector-go"
)

// CatalogRepo реализует репозиторий каталога поверх PostgreSQL.
type CatalogRepo struct {
	pool *pgxpool.Pool
}

func NewCatalogRepo(pool *pgxpool.Pool) *CatalogRepo {
	return &CatalogRepo{
		pool: pool,
	}
}

// Upsert идемпотентно записывает обогащённый товар по его идентификатору.
// Повторная запись того же id заменяет все поля одним оператором, частичных
// обновлений не бывает. Выполняется в транзакции из контекста.
func (c *CatalogRepo) Upsert(ctx context.Context, product *domain.EnrichedProduct) error {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		INSERT INTO products (id, name, category, description, price, image_url, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id)
		DO UPDATE SET
			name = EXCLUDED.name,
			category = EXCLUDED.category,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			image_url = EXCLUDED.image_url,
			embedding = EXCLUDED.embedding,
			updated_at = NOW();
	`

	_, err = tx.Exec(ctx, query,
		product.ID,
		product.Name,
		product.Category,
		product.Description,
		product.Price,
		product.ImageURL,
		pgvector.NewVector(product.Embedding),
	)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// GetAll возвращает весь каталог в порядке идентификаторов.
func (c *CatalogRepo) GetAll(ctx context.Context) ([]usecase.ProductInfo, error) {
	query := `
		SELECT id, name, category, description, price, image_url
		FROM products
		ORDER BY id
	`

	rows, err := c.pool.Query(ctx, query)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

// GetByID возвращает товар по идентификатору.
func (c *CatalogRepo) GetByID(ctx context.Context, id int64) (*usecase.ProductInfo, error) {
	query := `
		SELECT id, name, category, description, price, image_url
		FROM products
		WHERE id = $1
	`

	var product usecase.ProductInfo
	err := c.pool.QueryRow(ctx, query, id).Scan(
		&product.ID, &product.Name, &product.Category,
		&product.Description, &product.Price, &product.ImageURL,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.ErrProductNotFound
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &product, nil
}

// GetByIDs возвращает товары по списку идентификаторов.
func (c *CatalogRepo) GetByIDs(ctx context.Context, ids []int64) ([]usecase.ProductInfo, error) {
	query := `
		SELECT id, name, category, description, price, image_url
		FROM products
		WHERE id = ANY($1)
	`

	rows, err := c.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

// GetRelated возвращает товары той же категории, исключая указанный id.
func (c *CatalogRepo) GetRelated(ctx context.Context, category string, excludeID int64, limit int) ([]usecase.ProductInfo, error) {
	query := `
		SELECT id, name, category, description, price, image_url
		FROM products
		WHERE category = $1 AND id <> $2
		ORDER BY id
		LIMIT $3
	`

	rows, err := c.pool.Query(ctx, query, category, excludeID, limit)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

func scanProducts(rows pgx.Rows) ([]usecase.ProductInfo, error) {
	result := make([]usecase.ProductInfo, 0)
	for rows.Next() {
		var product usecase.ProductInfo
		if err := rows.Scan(
			&product.ID, &product.Name, &product.Category,
			&product.Description, &product.Price, &product.ImageURL,
		); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		result = append(result, product)
	}

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return result, nil
}
