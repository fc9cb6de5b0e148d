package scoring

import (
	"github.com/hyperjump/tsunagu/internal/models"
	"github.com/hyperjump/tsunagu/internal/vector"
)

// Explanation labels by score band.
const (
	ExplanationHigh        = "high confidence"
	ExplanationMedium      = "medium confidence"
	ExplanationExploratory = "exploratory"
)

// Weights controls the hybrid score mix. The defaults make semantic
// similarity dominate while lexical overlap and the persona domain bonus
// break near-ties and rescue short candidates with noisy embeddings.
type Weights struct {
	Semantic float64
	Lexical  float64
	Domain   float64
}

// DefaultWeights returns the standard 0.6/0.25/0.15 split.
func DefaultWeights() Weights {
	return Weights{Semantic: 0.6, Lexical: 0.25, Domain: 0.15}
}

// Query is the scoring-side view of one recommendation query: the embedded
// query text plus its token set. Built once per query, reused for every
// candidate.
type Query struct {
	Embedding []float32
	Tokens    map[string]bool
}

// NewQuery prepares a Query from the raw query text and its embedding.
func NewQuery(text string, embedding []float32) Query {
	return Query{Embedding: embedding, Tokens: Tokenize(text)}
}

// Result carries the final score, its components, and the confidence label.
type Result struct {
	Score       float64
	Semantic    float64
	Lexical     float64
	DomainBonus float64
	Explanation string
}

// Scorer computes hybrid relevance scores. It is a pure function of
// (query, candidate, profile): no I/O, no state beyond the fixed weights,
// identical inputs always produce identical results.
type Scorer struct {
	weights Weights
}

// NewScorer creates a scorer with the given weights; zero-value weights fall
// back to the defaults.
func NewScorer(weights Weights) *Scorer {
	if weights.Semantic == 0 && weights.Lexical == 0 && weights.Domain == 0 {
		weights = DefaultWeights()
	}
	return &Scorer{weights: weights}
}

// Score rates one candidate section against the query. profile may be nil,
// which disables the domain bonus term only.
func (s *Scorer) Score(query Query, candidate *models.Section, profile *models.Profile) Result {
	return s.ScoreWithSimilarity(query, candidate, vector.CosineSimilarity(query.Embedding, candidate.Embedding), profile)
}

// ScoreWithSimilarity is Score with the query/candidate cosine similarity
// already known (the vector index computes it during search, and the store
// does not necessarily hold embeddings).
func (s *Scorer) ScoreWithSimilarity(query Query, candidate *models.Section, cosine float64, profile *models.Profile) Result {
	// Cosine is in [-1,1]; shift into [0,1] so the weighted sum stays in range.
	semantic := (cosine + 1) / 2

	candidateTokens := Tokenize(candidate.Text)
	lexical := Jaccard(query.Tokens, candidateTokens)

	domainBonus := 0.0
	if profile != nil && len(profile.DomainWeights) > 0 {
		for _, domain := range DetectDomainsFromTokens(candidateTokens) {
			domainBonus += profile.DomainWeights[domain]
		}
		if domainBonus > 1 {
			domainBonus = 1
		}
	}

	score := s.weights.Semantic*semantic + s.weights.Lexical*lexical + s.weights.Domain*domainBonus

	return Result{
		Score:       score,
		Semantic:    semantic,
		Lexical:     lexical,
		DomainBonus: domainBonus,
		Explanation: explain(score),
	}
}

func explain(score float64) string {
	switch {
	case score >= 0.8:
		return ExplanationHigh
	case score >= 0.6:
		return ExplanationMedium
	default:
		return ExplanationExploratory
	}
}
