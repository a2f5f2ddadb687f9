package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/DRSN-tech/catalog-enricher/internal/cfg"
	"github.com/DRSN-tech/catalog-enricher/pkg/logger"
)

// HuggingFaceClient — клиент Inference API для генерации изображений товара.
// Отказ сервиса (сеть, квота, кривой ответ) не считается ошибкой: вместо
// изображения возвращается детерминированная заглушка, чтобы сбой генерации
// деградировал батч, а не ронял товары.
type HuggingFaceClient struct {
	client *http.Client
	cfg    *cfg.ImageGenCfg
	logger logger.Logger
}

func NewHuggingFaceClient(cfg *cfg.ImageGenCfg, logger logger.Logger) *HuggingFaceClient {
	return &HuggingFaceClient{
		client: &http.Client{},
		cfg:    cfg,
		logger: logger,
	}
}

// generateRequest — тело запроса text-to-image.
// Параметры генерации — настроечные ручки, на контракт не влияют.
type generateRequest struct {
	Inputs     string             `json:"inputs"`
	Parameters generateParameters `json:"parameters"`
}

type generateParameters struct {
	NegativePrompt    string  `json:"negative_prompt,omitempty"`
	NumInferenceSteps int     `json:"num_inference_steps,omitempty"`
	GuidanceScale     float64 `json:"guidance_scale,omitempty"`
}

// Generate запрашивает изображение по промпту. Никогда не возвращает ошибку.
func (h *HuggingFaceClient) Generate(ctx context.Context, prompt string) []byte {
	data, err := h.request(ctx, prompt)
	if err != nil {
		h.logger.Warnf("image generation failed, using placeholder: %v", err)
		return PlaceholderImage(prompt)
	}

	return data
}

func (h *HuggingFaceClient) request(ctx context.Context, prompt string) ([]byte, error) {
	body, err := json.Marshal(generateRequest{
		Inputs: prompt,
		Parameters: generateParameters{
			NegativePrompt:    h.cfg.NegativePrompt,
			NumInferenceSteps: h.cfg.InferenceSteps,
			GuidanceScale:     h.cfg.GuidanceScale,
		},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.cfg.BaseURL+h.cfg.Model, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if h.cfg.ApiKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.cfg.ApiKey)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("inference api returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("inference api returned empty body")
	}

	return data, nil
}

// PlaceholderImage собирает детерминированную заглушку из промпта:
// один и тот же промпт всегда даёт один и тот же payload.
func PlaceholderImage(prompt string) []byte {
	truncated := prompt
	if len(truncated) > 30 {
		truncated = truncated[:30]
	}
	encoded := url.QueryEscape(truncated)

	return []byte(fmt.Sprintf("Placeholder: https://via.placeholder.com/300x300.png?text=%s", encoded))
}
