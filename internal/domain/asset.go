package domain

import "fmt"

// Asset описывает бинарный объект, который хранится в S3
type Asset struct {
	ObjectKey   string
	Data        []byte
	ContentType string // Example: "image/png"
}

func NewAsset(objectKey string, data []byte, contentType string) *Asset {
	return &Asset{
		ObjectKey:   objectKey,
		Data:        data,
		ContentType: contentType,
	}
}

// AssetKey возвращает ключ объекта для товара. Ключ стабилен: повторный
// прогон конвейера перезаписывает тот же объект.
func AssetKey(productID int64) string {
	return fmt.Sprintf("%d.png", productID)
}
