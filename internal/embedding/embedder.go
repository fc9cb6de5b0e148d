// Package embedding provides text embedding via ONNX with a deterministic
// hashing fallback, plus caching.
package embedding

import "context"

// Embedder produces vector embeddings for text. Implementations must be
// deterministic: the same text always yields the same vector, so embeddings
// can be cached and tests are repeatable. Empty or whitespace-only text
// embeds to the zero vector instead of failing, so a malformed section
// degrades gracefully rather than aborting ingestion of its document.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch embeds texts preserving input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}
