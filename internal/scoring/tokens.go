// Package scoring implements the hybrid relevance scorer: semantic
// similarity, lexical overlap, and persona domain alignment combined into
// one score with a coarse confidence label.
package scoring

import (
	"strings"
	"unicode"
)

// stopWords are excluded from lexical overlap so function words do not
// inflate the Jaccard signal.
var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "but": true, "by": true, "for": true, "from": true,
	"has": true, "have": true, "in": true, "into": true, "is": true,
	"it": true, "its": true, "of": true, "on": true, "or": true,
	"that": true, "the": true, "their": true, "this": true, "to": true,
	"was": true, "were": true, "which": true, "will": true, "with": true,
}

// Tokenize lowercases text and splits it into alphanumeric runs, dropping
// stop-words. The result is a set: lexical overlap is membership-based.
func Tokenize(text string) map[string]bool {
	tokens := make(map[string]bool)
	for _, tok := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if !stopWords[tok] {
			tokens[tok] = true
		}
	}
	return tokens
}

// Jaccard returns |a ∩ b| / |a ∪ b|, or 0 when either set is empty.
func Jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for tok := range a {
		if b[tok] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
