package imagegen

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DRSN-tech/catalog-enricher/internal/cfg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopLogger struct{}

func (noopLogger) Debugf(format string, args ...any)            {}
func (noopLogger) Infof(format string, args ...any)             {}
func (noopLogger) Warnf(format string, args ...any)             {}
func (noopLogger) Errorf(err error, format string, args ...any) {}

func newTestClient(baseURL string) *HuggingFaceClient {
	return NewHuggingFaceClient(&cfg.ImageGenCfg{
		ApiKey:         "hf-test-key",
		Model:          "test-model",
		BaseURL:        baseURL,
		NegativePrompt: "blurry, bad",
		InferenceSteps: 28,
		GuidanceScale:  7.0,
	}, noopLogger{})
}

func TestGenerate(t *testing.T) {
	t.Run("returns image bytes on success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/test-model", r.URL.Path)
			assert.Equal(t, "Bearer hf-test-key", r.Header.Get("Authorization"))

			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)

			var req generateRequest
			require.NoError(t, json.Unmarshal(body, &req))
			assert.Equal(t, "High quality product image of Red Scarf: Soft wool scarf", req.Inputs)
			assert.Equal(t, "blurry, bad", req.Parameters.NegativePrompt)

			w.Write([]byte("fake-png-bytes"))
		}))
		defer srv.Close()

		client := newTestClient(srv.URL + "/")

		data := client.Generate(context.Background(), "High quality product image of Red Scarf: Soft wool scarf")
		assert.Equal(t, []byte("fake-png-bytes"), data)
	})

	t.Run("falls back to placeholder on server error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		client := newTestClient(srv.URL + "/")

		data := client.Generate(context.Background(), "High quality product image of Red Scarf: Soft wool scarf")
		assert.Equal(t, PlaceholderImage("High quality product image of Red Scarf: Soft wool scarf"), data)
	})

	t.Run("falls back to placeholder on empty body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		defer srv.Close()

		client := newTestClient(srv.URL + "/")

		data := client.Generate(context.Background(), "prompt")
		assert.Equal(t, PlaceholderImage("prompt"), data)
	})

	t.Run("falls back to placeholder when server is unreachable", func(t *testing.T) {
		client := newTestClient("http://127.0.0.1:1/")

		data := client.Generate(context.Background(), "prompt")
		assert.Equal(t, PlaceholderImage("prompt"), data)
	})
}

func TestPlaceholderImage(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		a := PlaceholderImage("High quality product image of Red Scarf: Soft wool scarf")
		b := PlaceholderImage("High quality product image of Red Scarf: Soft wool scarf")
		assert.Equal(t, a, b)
	})

	t.Run("truncates prompt to 30 characters and escapes it", func(t *testing.T) {
		got := PlaceholderImage("High quality product image of Red Scarf: Soft wool scarf")
		assert.Equal(t,
			"Placeholder: https://via.placeholder.com/300x300.png?text=High+quality+product+image+of+",
			string(got),
		)
	})

	t.Run("short prompt kept whole", func(t *testing.T) {
		got := PlaceholderImage("hat")
		assert.Equal(t, "Placeholder: https://via.placeholder.com/300x300.png?text=hat", string(got))
	})
}
