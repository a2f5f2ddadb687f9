package domain

import (
	"encoding/binary"
	"time"

	"github.com/google/uuid"
)

// пространство имён для детерминированных идентификаторов точек Qdrant
var pointNamespace = uuid.MustParse("8f0c2f66-3a9d-4f6e-9a1b-5d9c6d1ce0aa")

// Payload описывает дополнительную информацию вектора
type Payload map[string]any

// Embedding представляет эмбеддинг описания товара в векторном индексе
type Embedding struct {
	ID      string
	Vector  []float32
	Payload Payload
}

func NewEmbedding(id string, vector []float32, payload Payload) *Embedding {
	return &Embedding{
		ID:      id,
		Vector:  vector,
		Payload: payload,
	}
}

// PointID детерминированно выводит UUID точки из идентификатора товара,
// чтобы повторный прогон перезаписывал ту же точку, а не плодил дубликаты.
func PointID(productID int64) string {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(productID))
	return uuid.NewSHA1(pointNamespace, buf[:]).String()
}

func NewPayload(productID int64, objectKey string, model string) Payload {
	return Payload{
		"product_id": productID,
		"image_path": objectKey,
		"created_at": time.Now().UTC().UnixNano(),
		"model":      model,
	}
}
