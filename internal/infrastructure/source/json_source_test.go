package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/DRSN-tech/catalog-enricher/internal/cfg"
	"github.com/DRSN-tech/catalog-enricher/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopLogger struct{}

func (noopLogger) Debugf(format string, args ...any)            {}
func (noopLogger) Infof(format string, args ...any)             {}
func (noopLogger) Warnf(format string, args ...any)             {}
func (noopLogger) Errorf(err error, format string, args ...any) {}

func TestParseBatch(t *testing.T) {
	t.Run("valid document", func(t *testing.T) {
		doc := []byte(`{
			"products": [
				{"id": 1, "name": "Red Scarf", "category": "Accessories", "description": "Soft wool scarf", "price": 19.99},
				{"id": 2, "name": "Blue Hat", "category": "Hats", "description": "Warm knit hat", "price": 12.50}
			]
		}`)

		items, err := ParseBatch(doc, "products")
		require.NoError(t, err)
		require.Len(t, items, 2)

		assert.Equal(t, int64(1), items[0].ID)
		assert.Equal(t, "Red Scarf", items[0].Name)
		assert.Equal(t, "Accessories", items[0].Category)
		assert.Equal(t, "Soft wool scarf", items[0].Description)
		assert.Equal(t, "19.99", items[0].Price.String())
	})

	t.Run("not JSON", func(t *testing.T) {
		_, err := ParseBatch([]byte("not json"), "products")
		assertSchemaError(t, err, -1)
	})

	t.Run("missing items field", func(t *testing.T) {
		_, err := ParseBatch([]byte(`{"items": []}`), "products")
		assertSchemaError(t, err, -1)
		assert.Contains(t, err.Error(), `"products"`)
	})

	t.Run("items field is not an array", func(t *testing.T) {
		_, err := ParseBatch([]byte(`{"products": {"id": 1}}`), "products")
		assertSchemaError(t, err, -1)
	})

	t.Run("item is not an object", func(t *testing.T) {
		_, err := ParseBatch([]byte(`{"products": [42]}`), "products")
		assertSchemaError(t, err, 0)
	})

	t.Run("price as string", func(t *testing.T) {
		doc := []byte(`{
			"products": [
				{"id": 1, "name": "a", "category": "b", "description": "c", "price": 1.0},
				{"id": 2, "name": "a", "category": "b", "description": "c", "price": "free"}
			]
		}`)

		_, err := ParseBatch(doc, "products")
		assertSchemaError(t, err, 1)
		assert.Contains(t, err.Error(), `"price"`)
	})

	t.Run("fractional id", func(t *testing.T) {
		doc := []byte(`{"products": [{"id": 1.5, "name": "a", "category": "b", "description": "c", "price": 1.0}]}`)

		_, err := ParseBatch(doc, "products")
		assertSchemaError(t, err, 0)
		assert.Contains(t, err.Error(), `"id"`)
	})

	t.Run("missing description", func(t *testing.T) {
		doc := []byte(`{"products": [{"id": 1, "name": "a", "category": "b", "price": 1.0}]}`)

		_, err := ParseBatch(doc, "products")
		assertSchemaError(t, err, 0)
		assert.Contains(t, err.Error(), `"description"`)
	})
}

func TestFileSourceLoad(t *testing.T) {
	t.Run("truncates to batch limit", func(t *testing.T) {
		doc := []byte(`{
			"products": [
				{"id": 1, "name": "a", "category": "b", "description": "c", "price": 1.0},
				{"id": 2, "name": "a", "category": "b", "description": "c", "price": 1.0},
				{"id": 3, "name": "a", "category": "b", "description": "c", "price": 1.0}
			]
		}`)
		path := filepath.Join(t.TempDir(), "fashion_data.json")
		require.NoError(t, os.WriteFile(path, doc, 0o644))

		src := NewFileSource(&cfg.PipelineCfg{DataFile: path, ItemsField: "products", BatchLimit: 2}, noopLogger{})

		items, err := src.Load(context.Background())
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, int64(2), items[1].ID)
	})

	t.Run("missing file", func(t *testing.T) {
		src := NewFileSource(&cfg.PipelineCfg{DataFile: "/nonexistent.json", ItemsField: "products", BatchLimit: 25}, noopLogger{})

		_, err := src.Load(context.Background())
		assert.Error(t, err)
	})
}

func assertSchemaError(t *testing.T, err error, index int) {
	t.Helper()
	require.Error(t, err)

	var schemaErr *e.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, index, schemaErr.Index)
}
