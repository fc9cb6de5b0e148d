package scoring

import "sort"

// domainLexicon maps each domain tag to the keywords that signal it. A
// section belongs to every domain with at least one keyword hit. The tags
// line up with the domain weights produced by the profile package.
var domainLexicon = map[string][]string{
	"chemistry": {
		"chemistry", "chemical", "molecule", "molecular", "atom", "atomic",
		"bond", "bonds", "covalent", "ionic", "reaction", "compound",
		"electron", "element", "acid", "base", "organic",
	},
	"research": {
		"research", "study", "methodology", "hypothesis", "experiment",
		"analysis", "dataset", "results", "findings", "publication",
		"thesis", "literature",
	},
	"education": {
		"course", "exam", "homework", "assignment", "lecture", "student",
		"learning", "curriculum", "textbook", "lab",
	},
	"business": {
		"business", "market", "marketing", "segmentation", "strategy",
		"revenue", "customer", "sales", "growth", "competitive",
		"stakeholder", "roi",
	},
	"finance": {
		"finance", "financial", "budget", "investment", "cost", "pricing",
		"profit", "accounting", "audit",
	},
	"legal": {
		"legal", "law", "contract", "regulation", "compliance", "liability",
		"clause", "litigation", "counsel",
	},
	"healthcare": {
		"medical", "health", "clinical", "patient", "diagnosis", "treatment",
		"therapy", "dosage", "symptom",
	},
	"travel": {
		"travel", "trip", "itinerary", "destination", "hotel", "flight",
		"tourism", "visa", "accommodation",
	},
	"food": {
		"food", "menu", "recipe", "ingredient", "dietary", "nutrition",
		"catering", "vegetarian", "vegan", "gluten",
	},
	"hr": {
		"employee", "recruitment", "hiring", "onboarding", "payroll",
		"workforce", "personnel", "benefits",
	},
	"technology": {
		"software", "hardware", "algorithm", "database", "network",
		"system", "architecture", "api", "deployment",
	},
}

// DetectDomains returns the domain tags whose lexicon keywords appear in
// text. Detection reuses the scorer's tokenization so "bonds." and "Bonds"
// both count.
func DetectDomains(text string) []string {
	return DetectDomainsFromTokens(Tokenize(text))
}

// DetectDomainsFromTokens is DetectDomains over a pre-tokenized set, for
// callers that already tokenized the candidate text. Tags come back sorted:
// the scorer sums weights in this order, and float addition order must not
// depend on map iteration for scores to be reproducible bit for bit.
func DetectDomainsFromTokens(tokens map[string]bool) []string {
	var domains []string
	for domain, keywords := range domainLexicon {
		for _, kw := range keywords {
			if tokens[kw] {
				domains = append(domains, domain)
				break
			}
		}
	}
	sort.Strings(domains)
	return domains
}
