package port

import "context"

// Embedder abstracts the embedding backend. Implementations target a remote
// OpenAI-compatible API or a local inference server; the backend is chosen
// once from configuration, never per call.
//
// A batch call may legitimately return fewer vectors than inputs when the
// provider silently drops malformed items, so callers must not assume
// positional alignment and should fall back to per-item calls when a stable
// 1:1 correspondence matters.
type Embedder interface {
	// ModelName returns the identifier of the embedding model in use.
	ModelName() string

	// Embed generates raw vector embeddings for the given texts.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
