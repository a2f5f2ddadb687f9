package embedding

import (
	"context"

	"github.com/DRSN-tech/catalog-enricher/internal/cfg"
	"github.com/DRSN-tech/catalog-enricher/pkg/e"
	"github.com/google/generative-ai-go/genai"
	"github.com/jimlawless/whereami"
	"google.golang.org/api/option"
)

// GeminiEmbedder — клиент сервиса текстовых эмбеддингов Google GenAI.
type GeminiEmbedder struct {
	client *genai.Client
	model  *genai.EmbeddingModel
}

func NewGeminiEmbedder(ctx context.Context, cfg *cfg.EmbeddingCfg) (*GeminiEmbedder, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.ApiKey))
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &GeminiEmbedder{
		client: client,
		model:  client.EmbeddingModel(cfg.Model),
	}, nil
}

// Embed возвращает эмбеддинг текста. Пустой текст передаётся сервису как
// есть, retry не выполняется — ошибка фатальна для товара на стороне
// вызывающего.
func (g *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	res, err := g.model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if res.Embedding == nil {
		return nil, e.ErrEmptyVector
	}

	return res.Embedding.Values, nil
}

// Close освобождает соединение с сервисом.
func (g *GeminiEmbedder) Close() error {
	return g.client.Close()
}
