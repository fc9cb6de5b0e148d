// Package vector provides nearest-neighbor search over section embeddings
// with document-scoped filtering.
package vector

import "context"

// Hit is a single nearest-neighbor result. Similarity is cosine similarity
// in [-1, 1] (vectors are stored L2-normalized, so inner product is cosine).
type Hit struct {
	SectionID  string
	DocumentID string
	Similarity float64
}

// SearchOptions scopes a query. OnlyDocument and ExcludeDocument are
// mutually exclusive; setting both fails with models.ErrInvalidQuery.
// ExcludeSections drops specific section IDs from the result (used to keep
// the queried page out of its own same-document candidates).
type SearchOptions struct {
	OnlyDocument    string
	ExcludeDocument string
	ExcludeSections map[string]bool
}

// Index holds all embeddings across the library. It owns no business logic:
// consistency with the Section Store is enforced by the recommendation
// assembler dropping hits whose sections are gone.
type Index interface {
	// Add inserts or replaces the vector for sectionID. Idempotent:
	// re-adding the same ID replaces its vector without duplicating the entry.
	Add(ctx context.Context, sectionID, documentID string, vec []float32) error

	// AddBatch adds vectors in order; equivalent to repeated Add.
	AddBatch(ctx context.Context, sectionIDs []string, documentID string, vecs [][]float32) error

	// Remove deletes vectors by section ID. Idempotent, unknown IDs ignored.
	Remove(ctx context.Context, sectionIDs []string) error

	// Search returns at most k hits ordered by descending similarity, ties
	// broken by insertion order so repeated identical queries are
	// deterministic.
	Search(ctx context.Context, query []float32, k int, opts SearchOptions) ([]*Hit, error)

	// Size returns the number of vectors currently indexed.
	Size() int

	Close() error
}
