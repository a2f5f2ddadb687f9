package cfg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopLogger struct{}

func (noopLogger) Debugf(format string, args ...any)            {}
func (noopLogger) Infof(format string, args ...any)             {}
func (noopLogger) Warnf(format string, args ...any)             {}
func (noopLogger) Errorf(err error, format string, args ...any) {}

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("POSTGRES_USER", "app")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("POSTGRES_DB", "catalog")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("GOOGLE_API_KEY", "test-google-key")
}

func TestLoad(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load(noopLogger{})
	require.NoError(t, err)

	t.Run("pipeline defaults", func(t *testing.T) {
		assert.Equal(t, "fashion_data.json", cfg.Pipeline.DataFile)
		assert.Equal(t, "products", cfg.Pipeline.ItemsField)
		assert.Equal(t, 25, cfg.Pipeline.BatchLimit)
		assert.Equal(t, 2*time.Second, cfg.Pipeline.ItemDelay)
		assert.Empty(t, cfg.Pipeline.ReportPath)
	})

	t.Run("embedding defaults", func(t *testing.T) {
		assert.Equal(t, "test-google-key", cfg.Embedding.ApiKey)
		assert.Equal(t, "text-embedding-004", cfg.Embedding.Model)
	})

	t.Run("image generation defaults", func(t *testing.T) {
		assert.Equal(t, "stabilityai/stable-diffusion-3-medium-diffusers", cfg.ImageGen.Model)
		assert.Equal(t, "https://api-inference.huggingface.co/models/", cfg.ImageGen.BaseURL)
		assert.Equal(t, 28, cfg.ImageGen.InferenceSteps)
		assert.Equal(t, 7.0, cfg.ImageGen.GuidanceScale)
	})

	t.Run("kafka brokers are split and trimmed", func(t *testing.T) {
		assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
		assert.Equal(t, "catalog.enriched", cfg.Kafka.Topic)
	})

	t.Run("minio public url derived from endpoint", func(t *testing.T) {
		assert.Equal(t, "http://minio:9000", cfg.Minio.PublicBaseURL)
		assert.Equal(t, "product-images", cfg.Minio.BucketName)
	})

	t.Run("qdrant defaults", func(t *testing.T) {
		assert.Equal(t, "product-embeddings", cfg.Qdrant.QdrantCollectionName)
		assert.Equal(t, uint64(768), cfg.Qdrant.VectorSize)
	})
}

func TestLoadOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DATA_FILE", "/data/batch.json")
	t.Setenv("BATCH_LIMIT", "5")
	t.Setenv("ITEM_DELAY", "100ms")
	t.Setenv("REPORT_PATH", "/tmp/report.json")
	t.Setenv("MINIO_PUBLIC_URL", "https://cdn.example.com")

	cfg, err := Load(noopLogger{})
	require.NoError(t, err)

	assert.Equal(t, "/data/batch.json", cfg.Pipeline.DataFile)
	assert.Equal(t, 5, cfg.Pipeline.BatchLimit)
	assert.Equal(t, 100*time.Millisecond, cfg.Pipeline.ItemDelay)
	assert.Equal(t, "/tmp/report.json", cfg.Pipeline.ReportPath)
	assert.Equal(t, "https://cdn.example.com", cfg.Minio.PublicBaseURL)
}

func TestLoadMissingRequired(t *testing.T) {
	cases := []struct {
		name string
		omit string
	}{
		{"postgres user", "POSTGRES_USER"},
		{"kafka brokers", "KAFKA_BROKERS"},
		{"google api key", "GOOGLE_API_KEY"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tc.omit, "")

			_, err := Load(noopLogger{})
			assert.Error(t, err)
		})
	}
}

func TestLoadInvalidValues(t *testing.T) {
	t.Run("negative batch limit", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("BATCH_LIMIT", "-1")

		_, err := Load(noopLogger{})
		assert.Error(t, err)
	})

	t.Run("bad item delay", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("ITEM_DELAY", "soon")

		_, err := Load(noopLogger{})
		assert.Error(t, err)
	})
}
