package profile

import (
	"github.com/hyperjump/tsunagu/internal/models"
	"github.com/hyperjump/tsunagu/internal/scoring"
)

// Build maps free-text persona and job descriptions to a Profile. Matching
// is keyword overlap against the catalogs; every matched entry contributes
// its domain weights (max per tag when entries overlap). Unknown text still
// yields a usable profile carrying the raw tokens as keywords, so callers
// never get an error here.
func Build(persona, job string) *models.Profile {
	p := &models.Profile{
		PersonaLabel:  persona,
		JobLabel:      job,
		DomainWeights: make(map[string]float64),
		Keywords:      make(map[string]bool),
	}

	personaTokens := scoring.Tokenize(persona)
	jobTokens := scoring.Tokenize(job)
	for tok := range personaTokens {
		p.Keywords[tok] = true
	}
	for tok := range jobTokens {
		p.Keywords[tok] = true
	}

	if best := bestMatch(personaCatalog, personaTokens); best != nil {
		p.PersonaLabel = best.label
		merge(p, best)
	}
	if best := bestMatch(jobCatalog, jobTokens); best != nil {
		p.JobLabel = best.label
		merge(p, best)
	}
	return p
}

// bestMatch returns the catalog entry sharing the most keywords with the
// tokens, or nil when nothing overlaps. Catalog order breaks ties so results
// are deterministic.
func bestMatch(catalog []entry, tokens map[string]bool) *entry {
	var best *entry
	bestHits := 0
	for i := range catalog {
		hits := 0
		for _, kw := range catalog[i].keywords {
			if tokens[kw] {
				hits++
			}
		}
		if hits > bestHits {
			bestHits = hits
			best = &catalog[i]
		}
	}
	return best
}

func merge(p *models.Profile, e *entry) {
	for domain, weight := range e.domains {
		if weight > p.DomainWeights[domain] {
			p.DomainWeights[domain] = weight
		}
	}
	for _, kw := range e.keywords {
		p.Keywords[kw] = true
	}
}
