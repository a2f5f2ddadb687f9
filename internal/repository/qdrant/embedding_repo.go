package qdrant

import (
	"context"

	"github.com/DRSN-tech/catalog-enricher/internal/cfg"
	"github.com/DRSN-tech/catalog-enricher/internal/domain"
	"github.com/DRSN-tech/catalog-enricher/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/qdrant/go-client/qdrant"
)

// EmbeddingRepo репозиторий для работы с embedding-векторами в Qdrant
type EmbeddingRepo struct {
	client *qdrant.Client
	cfg    *cfg.QdrantCfg
}

func NewEmbeddingRepo(client *qdrant.Client, cfg *cfg.QdrantCfg) *EmbeddingRepo {
	return &EmbeddingRepo{
		client: client,
		cfg:    cfg,
	}
}

// Upsert сохраняет или обновляет embedding-векторы в коллекции Qdrant.
// Идентификаторы точек детерминированы, повторный прогон перезаписывает
// существующие точки.
func (q *EmbeddingRepo) Upsert(ctx context.Context, vectors []domain.Embedding) error {
	points := make([]*qdrant.PointStruct, 0, len(vectors))
	for _, vector := range vectors {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(vector.ID),
			Vectors: qdrant.NewVectors(vector.Vector...),
			Payload: qdrant.NewValueMap(vector.Payload),
		})
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.cfg.QdrantCollectionName,
		Points:         points,
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// SearchSimilar возвращает идентификаторы товаров, ближайших к точке с
// указанным ID. Сама точка может попасть в выдачу, фильтрация на вызывающей
// стороне.
func (q *EmbeddingRepo) SearchSimilar(ctx context.Context, pointID string, limit uint64) ([]int64, error) {
	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.cfg.QdrantCollectionName,
		Query:          qdrant.NewQueryID(qdrant.NewIDUUID(pointID)),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	ids := make([]int64, 0, len(points))
	for _, point := range points {
		payload := point.GetPayload()
		if payload == nil {
			continue
		}
		if v, ok := payload["product_id"]; ok {
			ids = append(ids, v.GetIntegerValue())
		}
	}

	return ids, nil
}
