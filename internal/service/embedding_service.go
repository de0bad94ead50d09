package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resourceiq/devmatch/internal/port"
	"github.com/resourceiq/devmatch/internal/textnorm"
)

// EmbeddingService turns raw source text into store-ready vectors: it cleans
// inputs, calls the configured backend, and normalizes every vector to the
// target dimension. There is no caching; idempotence is the caller's concern.
type EmbeddingService struct {
	embedder  port.Embedder
	dimension int
}

// NewEmbeddingService creates an embedding service for the given backend and
// target dimension.
func NewEmbeddingService(embedder port.Embedder, dimension int) *EmbeddingService {
	return &EmbeddingService{embedder: embedder, dimension: dimension}
}

// Dimension returns the target vector dimension.
func (s *EmbeddingService) Dimension() int {
	return s.dimension
}

// EmbedTexts cleans and embeds a batch of texts. It returns the embedded
// vectors together with the indices of the inputs they correspond to: when
// the batch call fails, or returns a different number of vectors than inputs
// (a short batch cannot be aligned positionally), every item is retried
// individually and items that still fail are dropped and logged.
func (s *EmbeddingService) EmbedTexts(ctx context.Context, texts []string) ([][]float32, []int, error) {
	if len(texts) == 0 {
		return nil, nil, nil
	}

	cleaned := make([]string, len(texts))
	for i, t := range texts {
		cleaned[i] = textnorm.Clean(t)
	}

	vectors, err := s.embedder.Embed(ctx, cleaned)
	if err == nil && len(vectors) == len(cleaned) {
		indices := make([]int, len(vectors))
		out := make([][]float32, len(vectors))
		for i, v := range vectors {
			indices[i] = i
			out[i] = NormalizeDimension(v, s.dimension)
		}
		return out, indices, nil
	}

	if err != nil {
		slog.Warn("batch embedding failed, retrying per item", "items", len(cleaned), "error", err)
	} else {
		slog.Warn("batch embedding returned mismatched count, retrying per item",
			"want", len(cleaned), "got", len(vectors))
	}

	var out [][]float32
	var indices []int
	for i, text := range cleaned {
		vs, err := s.embedder.Embed(ctx, []string{text})
		if err != nil || len(vs) == 0 {
			slog.Error("dropping item that failed to embed",
				"index", i, "preview", preview(text), "error", err)
			continue
		}
		out = append(out, NormalizeDimension(vs[0], s.dimension))
		indices = append(indices, i)
	}
	return out, indices, nil
}

// EmbedQuery cleans and embeds a single query text. Unlike EmbedTexts, a
// failure here is an operation-level error: there is nothing to fall back to.
func (s *EmbeddingService) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.embedder.Embed(ctx, []string{textnorm.Clean(text)})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embed query: empty response")
	}
	return NormalizeDimension(vectors[0], s.dimension), nil
}

// NormalizeDimension pads a vector with zeros to reach dim, or truncates it
// keeping the first dim components. Applied immediately after raw embedding
// generation so every stored vector has a consistent shape.
func NormalizeDimension(v []float32, dim int) []float32 {
	switch {
	case len(v) == dim:
		return v
	case len(v) < dim:
		out := make([]float32, dim)
		copy(out, v)
		return out
	default:
		slog.Warn("embedding exceeds target dimension, truncating", "got", len(v), "want", dim)
		return v[:dim]
	}
}

func preview(s string) string {
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
