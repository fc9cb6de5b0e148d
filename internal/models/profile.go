package models

// Profile represents a user's role and current task as weighted ranking
// signals. Profiles are built per request and never mutated; absence of a
// profile disables the domain bonus, nothing else.
type Profile struct {
	PersonaLabel  string             `json:"persona_label"`
	JobLabel      string             `json:"job_label"`
	DomainWeights map[string]float64 `json:"domain_weights"`
	Keywords      map[string]bool    `json:"keywords"`
}
