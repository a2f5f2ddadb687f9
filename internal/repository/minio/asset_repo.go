package minio

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/DRSN-tech/catalog-enricher/internal/cfg"
	"github.com/DRSN-tech/catalog-enricher/internal/domain"
	"github.com/DRSN-tech/catalog-enricher/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/minio/minio-go/v7"
)

// AssetRepo реализует хранилище сгенерированных изображений поверх MinIO.
type AssetRepo struct {
	mc  *minio.Client
	cfg *cfg.MinIOCfg
}

func NewAssetRepo(mc *minio.Client, cfg *cfg.MinIOCfg) *AssetRepo {
	return &AssetRepo{
		mc:  mc,
		cfg: cfg,
	}
}

// Upload загружает объект в бакет. Повторная загрузка того же ключа
// перезаписывает объект — это и делает прогон конвейера идемпотентным.
func (a *AssetRepo) Upload(ctx context.Context, asset *domain.Asset) error {
	reader := bytes.NewReader(asset.Data)

	_, err := a.mc.PutObject(ctx, a.cfg.BucketName, asset.ObjectKey, reader, int64(len(asset.Data)), minio.PutObjectOptions{
		ContentType: asset.ContentType,
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// PublicURL возвращает внешний URL объекта по ключу. Чистое форматирование
// строки: существование объекта не проверяется, вызывающая сторона обязана
// загрузить объект раньше.
func (a *AssetRepo) PublicURL(key string) string {
	base := strings.TrimRight(a.cfg.PublicBaseURL, "/")
	return fmt.Sprintf("%s/%s/%s", base, a.cfg.BucketName, key)
}
