package embedding

import (
	"context"
	"math"
	"testing"
)

func cosine(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i] * b[i])
	}
	return dot
}

func TestHashEmbedder(t *testing.T) {
	ctx := context.Background()
	e := NewHashEmbedder(128)

	t.Run("deterministic", func(t *testing.T) {
		a, err := e.Embed(ctx, "covalent bonds share electrons")
		if err != nil {
			t.Fatalf("Embed error: %v", err)
		}
		b, err := e.Embed(ctx, "covalent bonds share electrons")
		if err != nil {
			t.Fatalf("Embed error: %v", err)
		}
		for i := range a {
			if a[i] != b[i] {
				t.Fatalf("embeddings differ at %d: %v vs %v", i, a[i], b[i])
			}
		}
	})

	t.Run("unit norm", func(t *testing.T) {
		v, err := e.Embed(ctx, "ionic lattice energy and crystal structure")
		if err != nil {
			t.Fatalf("Embed error: %v", err)
		}
		var sum float64
		for _, x := range v {
			sum += float64(x * x)
		}
		if math.Abs(sum-1.0) > 1e-5 {
			t.Errorf("squared norm = %v, want 1.0", sum)
		}
	})

	t.Run("tokenless text embeds to zero vector", func(t *testing.T) {
		v, err := e.Embed(ctx, "  ... !!! ")
		if err != nil {
			t.Fatalf("Embed error: %v", err)
		}
		for i, x := range v {
			if x != 0 {
				t.Fatalf("component %d = %v, want 0", i, x)
			}
		}
	})

	t.Run("shared tokens score higher than disjoint text", func(t *testing.T) {
		query, _ := e.Embed(ctx, "covalent bonds electron sharing")
		related, _ := e.Embed(ctx, "covalent bonds form when atoms share electron pairs")
		unrelated, _ := e.Embed(ctx, "quarterly marketing budget review")
		if cosine(query, related) <= cosine(query, unrelated) {
			t.Errorf("related cosine %v should exceed unrelated cosine %v",
				cosine(query, related), cosine(query, unrelated))
		}
	})

	t.Run("batch preserves order", func(t *testing.T) {
		texts := []string{"alpha decay", "beta decay", "gamma radiation"}
		batch, err := e.EmbedBatch(ctx, texts)
		if err != nil {
			t.Fatalf("EmbedBatch error: %v", err)
		}
		if len(batch) != len(texts) {
			t.Fatalf("batch size = %d, want %d", len(batch), len(texts))
		}
		for i, text := range texts {
			single, _ := e.Embed(ctx, text)
			for j := range single {
				if batch[i][j] != single[j] {
					t.Fatalf("batch[%d] differs from single embedding", i)
				}
			}
		}
	})

	t.Run("dimensions", func(t *testing.T) {
		if e.Dimensions() != 128 {
			t.Errorf("Dimensions = %d, want 128", e.Dimensions())
		}
		if d := NewHashEmbedder(0).Dimensions(); d != 384 {
			t.Errorf("default Dimensions = %d, want 384", d)
		}
	})
}

func TestEmbeddingCache(t *testing.T) {
	t.Run("get after set", func(t *testing.T) {
		c := NewEmbeddingCache(2)
		c.Set("a", []float32{1})
		v, ok := c.Get("a")
		if !ok || v[0] != 1 {
			t.Fatalf("Get(a) = %v, %v", v, ok)
		}
	})

	t.Run("miss", func(t *testing.T) {
		c := NewEmbeddingCache(2)
		if _, ok := c.Get("missing"); ok {
			t.Fatal("expected miss")
		}
	})

	t.Run("evicts least recently used", func(t *testing.T) {
		c := NewEmbeddingCache(2)
		c.Set("a", []float32{1})
		c.Set("b", []float32{2})
		c.Get("a") // refresh a
		c.Set("c", []float32{3})
		if _, ok := c.Get("b"); ok {
			t.Error("b should have been evicted")
		}
		if _, ok := c.Get("a"); !ok {
			t.Error("a should still be cached")
		}
		if _, ok := c.Get("c"); !ok {
			t.Error("c should be cached")
		}
	})
}
