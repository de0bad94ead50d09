package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"

	"github.com/resourceiq/devmatch/internal/port"
)

// OpenAIEmbedder implements port.Embedder against any OpenAI-compatible
// embeddings endpoint (Jina, OpenAI, Azure) via a configurable base URL.
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
}

// NewOpenAIEmbedder creates a remote embedding backend.
func NewOpenAIEmbedder(baseURL, apiKey, model string) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, port.ErrEmbedderNotConfigured
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}, nil
}

// ModelName returns the embedding model identifier.
func (e *OpenAIEmbedder) ModelName() string {
	return e.model
}

// Embed generates raw embeddings for the given texts in one batched request.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: texts,
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			slog.Error("embedding API request failed",
				"model", e.model,
				"status", apiErr.HTTPStatusCode,
				"body", apiErr.Message,
			)
			return nil, &port.ProviderError{
				Provider: "embeddings",
				Status:   apiErr.HTTPStatusCode,
				Body:     apiErr.Message,
			}
		}
		return nil, fmt.Errorf("create embeddings: %w", err)
	}

	vectors := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}
