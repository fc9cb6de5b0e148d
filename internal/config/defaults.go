package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	// Default ranking split: semantic similarity dominates, lexical overlap
	// and persona domain alignment break near-ties.
	if cfg.Recommend.SemanticWeight == 0 {
		cfg.Recommend.SemanticWeight = 0.6
	}
	if cfg.Recommend.LexicalWeight == 0 {
		cfg.Recommend.LexicalWeight = 0.25
	}
	if cfg.Recommend.DomainWeight == 0 {
		cfg.Recommend.DomainWeight = 0.15
	}
	if cfg.Recommend.SameDocumentK == 0 {
		cfg.Recommend.SameDocumentK = 3
	}
	if cfg.Recommend.CrossDocumentK == 0 {
		cfg.Recommend.CrossDocumentK = 3
	}
	// Over-fetch factor for candidate queries, to survive post-filter attrition.
	if cfg.Recommend.CandidateMultiplier == 0 {
		cfg.Recommend.CandidateMultiplier = 3
	}
	if cfg.Recommend.SnippetLength == 0 {
		cfg.Recommend.SnippetLength = 200
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}
