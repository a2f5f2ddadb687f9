package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/DRSN-tech/catalog-enricher/internal/domain"
	"github.com/DRSN-tech/catalog-enricher/pkg/e"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCatalogRepo struct {
	fakeCatalogRepo
	all     []ProductInfo
	byID    map[int64]*ProductInfo
	related []ProductInfo

	relatedCategory string
	relatedExclude  int64
	relatedLimit    int
	byIDsArg        []int64
}

func (s *stubCatalogRepo) GetAll(ctx context.Context) ([]ProductInfo, error) {
	return s.all, nil
}

func (s *stubCatalogRepo) GetByID(ctx context.Context, id int64) (*ProductInfo, error) {
	if p, ok := s.byID[id]; ok {
		return p, nil
	}
	return nil, e.ErrProductNotFound
}

func (s *stubCatalogRepo) GetByIDs(ctx context.Context, ids []int64) ([]ProductInfo, error) {
	s.byIDsArg = ids
	var out []ProductInfo
	for _, id := range ids {
		if p, ok := s.byID[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *stubCatalogRepo) GetRelated(ctx context.Context, category string, excludeID int64, limit int) ([]ProductInfo, error) {
	s.relatedCategory = category
	s.relatedExclude = excludeID
	s.relatedLimit = limit
	return s.related, nil
}

type stubCacheRepo struct {
	fakeCacheRepo
	products map[int64]*ProductInfo
	setCh    chan []ProductInfo
}

func (s *stubCacheRepo) GetProduct(ctx context.Context, id int64) (*ProductInfo, error) {
	if p, ok := s.products[id]; ok {
		return p, nil
	}
	return nil, nil
}

func (s *stubCacheRepo) SetProducts(ctx context.Context, products []ProductInfo) error {
	if s.setCh != nil {
		s.setCh <- products
	}
	return nil
}

type stubEmbeddingRepo struct {
	fakeEmbeddingRepo
	similar     []int64
	gotPointID  string
	gotLimitArg uint64
}

func (s *stubEmbeddingRepo) SearchSimilar(ctx context.Context, pointID string, limit uint64) ([]int64, error) {
	s.gotPointID = pointID
	s.gotLimitArg = limit
	return s.similar, nil
}

func productInfo(id int64, name, category string) *ProductInfo {
	return &ProductInfo{
		ID:       id,
		Name:     name,
		Category: category,
		Price:    decimal.NewFromFloat(10.50),
		ImageURL: domain.AssetKey(id),
	}
}

func TestCatalogGetProduct(t *testing.T) {
	t.Run("cache miss falls through to repository", func(t *testing.T) {
		repo := &stubCatalogRepo{byID: map[int64]*ProductInfo{
			1: productInfo(1, "Red Scarf", "Accessories"),
		}}
		cache := &stubCacheRepo{setCh: make(chan []ProductInfo, 1)}
		uc := NewCatalogUC(repo, &stubEmbeddingRepo{}, cache, noopLogger{})

		got, err := uc.GetProduct(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, "Red Scarf", got.Name)

		// товар докладывается в кэш в фоне
		select {
		case cached := <-cache.setCh:
			require.Len(t, cached, 1)
			assert.Equal(t, int64(1), cached[0].ID)
		case <-time.After(time.Second):
			t.Fatal("product was not cached in background")
		}
	})

	t.Run("cache hit skips repository", func(t *testing.T) {
		repo := &stubCatalogRepo{byID: map[int64]*ProductInfo{}}
		cache := &stubCacheRepo{products: map[int64]*ProductInfo{
			1: productInfo(1, "Red Scarf", "Accessories"),
		}}
		uc := NewCatalogUC(repo, &stubEmbeddingRepo{}, cache, noopLogger{})

		got, err := uc.GetProduct(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, "Red Scarf", got.Name)
	})

	t.Run("unknown id", func(t *testing.T) {
		uc := NewCatalogUC(&stubCatalogRepo{byID: map[int64]*ProductInfo{}}, &stubEmbeddingRepo{}, &stubCacheRepo{}, noopLogger{})

		_, err := uc.GetProduct(context.Background(), 42)
		assert.ErrorIs(t, err, e.ErrProductNotFound)
	})
}

func TestCatalogGetRelated(t *testing.T) {
	repo := &stubCatalogRepo{
		byID: map[int64]*ProductInfo{
			1: productInfo(1, "Red Scarf", "Accessories"),
		},
		related: []ProductInfo{
			*productInfo(2, "Blue Scarf", "Accessories"),
			*productInfo(3, "Green Scarf", "Accessories"),
		},
	}
	uc := NewCatalogUC(repo, &stubEmbeddingRepo{}, &stubCacheRepo{}, noopLogger{})

	got, err := uc.GetRelated(context.Background(), 1, 3)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	// выборка идёт по категории товара с исключением его самого
	assert.Equal(t, "Accessories", repo.relatedCategory)
	assert.Equal(t, int64(1), repo.relatedExclude)
	assert.Equal(t, 3, repo.relatedLimit)
}

func TestCatalogGetSimilar(t *testing.T) {
	repo := &stubCatalogRepo{byID: map[int64]*ProductInfo{
		2: productInfo(2, "Blue Scarf", "Accessories"),
		5: productInfo(5, "Wool Hat", "Hats"),
	}}
	emb := &stubEmbeddingRepo{similar: []int64{1, 5, 2}}
	uc := NewCatalogUC(repo, emb, &stubCacheRepo{}, noopLogger{})

	got, err := uc.GetSimilar(context.Background(), 1, 2)
	require.NoError(t, err)

	// точка самого товара отфильтрована, порядок индекса сохранён
	require.Len(t, got, 2)
	assert.Equal(t, int64(5), got[0].ID)
	assert.Equal(t, int64(2), got[1].ID)

	assert.Equal(t, domain.PointID(1), emb.gotPointID)
	assert.Equal(t, uint64(3), emb.gotLimitArg)
}

func TestCatalogGetSimilar_Empty(t *testing.T) {
	emb := &stubEmbeddingRepo{similar: []int64{1}}
	uc := NewCatalogUC(&stubCatalogRepo{}, emb, &stubCacheRepo{}, noopLogger{})

	got, err := uc.GetSimilar(context.Background(), 1, 3)
	require.NoError(t, err)
	assert.Empty(t, got)
}
