package embedding

import (
	"context"
	"math"
	"strings"
	"unicode"
)

// HashEmbedder is a deterministic model-free embedder using feature hashing:
// each token of the text is hashed into a fixed-dimension bag-of-words
// vector, which is then L2-normalized. Texts sharing tokens get nonzero
// cosine similarity, so ranking behavior stays observable without the ONNX
// model. Used as the default backend when no model path is configured, and
// in tests.
type HashEmbedder struct {
	dimensions int
}

// NewHashEmbedder returns a hashing embedder with the given dimensions.
func NewHashEmbedder(dimensions int) *HashEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &HashEmbedder{dimensions: dimensions}
}

// Embed returns the normalized hashed bag-of-words vector for text.
// Text without any token embeds to the zero vector.
func (e *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	emb := make([]float32, e.dimensions)
	for _, tok := range hashTokens(text) {
		h := HashString(tok)
		// Sign bit from a second hash reduces collision bias.
		sign := float32(1)
		if HashString(tok+"#")%2 == 1 {
			sign = -1
		}
		emb[h%e.dimensions] += sign
	}
	normalizeL2(emb)
	return emb, nil
}

// EmbedBatch calls Embed for each text, preserving order.
func (e *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}

// Dimensions returns the embedding dimension.
func (e *HashEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for HashEmbedder.
func (e *HashEmbedder) Close() error {
	return nil
}

// hashTokens lowercases and splits text into alphanumeric runs.
func hashTokens(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func normalizeL2(x []float32) {
	var sum float64
	for _, v := range x {
		sum += float64(v * v)
	}
	if sum == 0 {
		return
	}
	norm := float32(1.0 / math.Sqrt(sum))
	for i := range x {
		x[i] *= norm
	}
}
