package scoring

import (
	"reflect"
	"sort"
	"testing"

	"github.com/hyperjump/tsunagu/internal/models"
)

func section(text string) *models.Section {
	return &models.Section{ID: "s1", DocumentID: "d1", PageNumber: 1, Text: text}
}

func TestScoreWithSimilarity(t *testing.T) {
	scorer := NewScorer(DefaultWeights())

	t.Run("identical text at cosine 1 is high confidence", func(t *testing.T) {
		text := "covalent bonds share electron pairs between atoms"
		query := NewQuery(text, nil)
		res := scorer.ScoreWithSimilarity(query, section(text), 1.0, nil)
		if res.Semantic != 1.0 {
			t.Errorf("semantic = %v, want 1.0", res.Semantic)
		}
		if res.Lexical != 1.0 {
			t.Errorf("lexical = %v, want 1.0", res.Lexical)
		}
		// 0.6*1 + 0.25*1 + 0.15*0 = 0.85
		if res.Score < 0.8 {
			t.Errorf("score = %v, want >= 0.8", res.Score)
		}
		if res.Explanation != ExplanationHigh {
			t.Errorf("explanation = %q, want %q", res.Explanation, ExplanationHigh)
		}
	})

	t.Run("disjoint text at cosine 0 is exploratory", func(t *testing.T) {
		query := NewQuery("ionic lattice energy", nil)
		res := scorer.ScoreWithSimilarity(query, section("quarterly revenue projections"), 0.0, nil)
		if res.Semantic != 0.5 {
			t.Errorf("semantic = %v, want 0.5 for cosine 0", res.Semantic)
		}
		if res.Lexical != 0 {
			t.Errorf("lexical = %v, want 0", res.Lexical)
		}
		if res.Explanation != ExplanationExploratory {
			t.Errorf("explanation = %q, want %q", res.Explanation, ExplanationExploratory)
		}
	})

	t.Run("medium band between 0.6 and 0.8", func(t *testing.T) {
		query := NewQuery("alpha beta", nil)
		// 0.6 * (1+1)/2 = 0.6 with zero lexical and no profile.
		res := scorer.ScoreWithSimilarity(query, section("gamma delta"), 1.0, nil)
		if res.Explanation != ExplanationMedium {
			t.Errorf("explanation = %q, want %q (score %v)", res.Explanation, ExplanationMedium, res.Score)
		}
	})

	t.Run("higher cosine never lowers the score", func(t *testing.T) {
		query := NewQuery("molecular orbitals", nil)
		sec := section("hybridization of molecular orbitals")
		low := scorer.ScoreWithSimilarity(query, sec, 0.2, nil)
		high := scorer.ScoreWithSimilarity(query, sec, 0.9, nil)
		if high.Score <= low.Score {
			t.Errorf("score at cosine 0.9 (%v) should exceed score at 0.2 (%v)", high.Score, low.Score)
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		query := NewQuery("reaction kinetics rate law", nil)
		sec := section("the rate law for this reaction is second order")
		a := scorer.ScoreWithSimilarity(query, sec, 0.42, nil)
		b := scorer.ScoreWithSimilarity(query, sec, 0.42, nil)
		if a != b {
			t.Errorf("identical inputs gave %+v and %+v", a, b)
		}
	})
}

func TestDomainBonus(t *testing.T) {
	scorer := NewScorer(DefaultWeights())
	query := NewQuery("unrelated query words", nil)

	t.Run("nil profile disables the bonus", func(t *testing.T) {
		res := scorer.ScoreWithSimilarity(query, section("covalent bond chemistry"), 0, nil)
		if res.DomainBonus != 0 {
			t.Errorf("domain bonus = %v, want 0 without profile", res.DomainBonus)
		}
	})

	t.Run("profile weight applies per detected domain", func(t *testing.T) {
		profile := &models.Profile{DomainWeights: map[string]float64{"chemistry": 0.5}}
		res := scorer.ScoreWithSimilarity(query, section("covalent bond chemistry"), 0, profile)
		if res.DomainBonus != 0.5 {
			t.Errorf("domain bonus = %v, want 0.5", res.DomainBonus)
		}
	})

	t.Run("bonus is capped at 1", func(t *testing.T) {
		profile := &models.Profile{DomainWeights: map[string]float64{
			"chemistry": 1.0, "education": 1.0, "research": 1.0,
		}}
		res := scorer.ScoreWithSimilarity(query,
			section("chemistry exam research methodology for the covalent bond lecture"), 0, profile)
		if res.DomainBonus != 1.0 {
			t.Errorf("domain bonus = %v, want capped 1.0", res.DomainBonus)
		}
	})

	t.Run("bonus is bit-identical across repeated calls", func(t *testing.T) {
		// Weights chosen so summation order changes the low bits if the
		// detected tags ever come back in map order.
		profile := &models.Profile{DomainWeights: map[string]float64{
			"chemistry": 0.1, "research": 0.07, "education": 0.13,
			"business": 0.11, "finance": 0.03, "legal": 0.09,
			"healthcare": 0.17, "travel": 0.02, "food": 0.05,
			"hr": 0.06, "technology": 0.08,
		}}
		sec := section("chemistry research exam market budget legal patient " +
			"travel menu employee software covalent bond contract")
		first := scorer.ScoreWithSimilarity(query, sec, 0.3, profile)
		for i := 0; i < 1000; i++ {
			got := scorer.ScoreWithSimilarity(query, sec, 0.3, profile)
			if got != first {
				t.Fatalf("iteration %d: result %+v differs from first %+v", i, got, first)
			}
		}
	})

	t.Run("undetected domains contribute nothing", func(t *testing.T) {
		profile := &models.Profile{DomainWeights: map[string]float64{"travel": 1.0}}
		res := scorer.ScoreWithSimilarity(query, section("covalent bond chemistry"), 0, profile)
		if res.DomainBonus != 0 {
			t.Errorf("domain bonus = %v, want 0 for non-matching domain", res.DomainBonus)
		}
	})
}

func TestNewScorerZeroWeights(t *testing.T) {
	scorer := NewScorer(Weights{})
	if scorer.weights != DefaultWeights() {
		t.Errorf("zero weights should fall back to defaults, got %+v", scorer.weights)
	}
}

func TestDetectDomains(t *testing.T) {
	domains := DetectDomains("Covalent bonds form when atoms share electrons.")
	found := false
	for _, d := range domains {
		if d == "chemistry" {
			found = true
		}
	}
	if !found {
		t.Errorf("DetectDomains = %v, want chemistry included", domains)
	}

	if got := DetectDomains("lorem ipsum dolor"); len(got) != 0 {
		t.Errorf("DetectDomains on neutral text = %v, want none", got)
	}

	t.Run("tags are sorted", func(t *testing.T) {
		got := DetectDomains("chemistry exam research market travel software patient")
		if !sort.StringsAreSorted(got) {
			t.Errorf("DetectDomains = %v, want sorted tags", got)
		}
		if len(got) < 3 {
			t.Fatalf("DetectDomains = %v, expected several domains for this text", got)
		}
		for i := 0; i < 50; i++ {
			again := DetectDomains("chemistry exam research market travel software patient")
			if !reflect.DeepEqual(again, got) {
				t.Fatalf("iteration %d: order %v differs from %v", i, again, got)
			}
		}
	})
}
