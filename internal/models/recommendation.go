package models

// Recommendation is one ranked candidate section with everything the caller
// needs to highlight it in the viewer.
type Recommendation struct {
	SectionID      string      `json:"section_id"`
	DocumentID     string      `json:"document_id"`
	PageNumber     int         `json:"page_number"`
	BoundingBox    BoundingBox `json:"bounding_box"`
	Snippet        string      `json:"snippet"`
	RelevanceScore float64     `json:"relevance_score"`
	Explanation    string      `json:"explanation"`
}

// RecommendationSet is the result of one recommendation query. SameDocument
// and CrossDocument are disjoint (no section appears in both) and each is
// ordered by descending relevance score.
type RecommendationSet struct {
	SameDocument  []*Recommendation `json:"same_document_sections"`
	CrossDocument []*Recommendation `json:"cross_document_sections"`
}

// RecommendRequest carries the inputs for one recommendation query.
// Profile may be nil. SameDocumentK and CrossDocumentK fall back to
// DefaultRecommendK when zero or negative.
type RecommendRequest struct {
	DocumentID     string   `json:"document_id"`
	PageNumber     int      `json:"page_number"`
	Profile        *Profile `json:"profile,omitempty"`
	SameDocumentK  int      `json:"same_document_k,omitempty"`
	CrossDocumentK int      `json:"cross_document_k,omitempty"`
}

// DefaultRecommendK is the default per-list result cap.
const DefaultRecommendK = 3
