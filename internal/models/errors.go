package models

import "errors"

// Stable error taxonomy exposed at the library boundary. Internal packages
// wrap these with context via fmt.Errorf("...: %w", err); callers match with
// errors.Is.
var (
	// ErrDuplicateDocument is returned when ingesting a document ID that is
	// already present. Callers must delete first to replace.
	ErrDuplicateDocument = errors.New("document already exists")

	// ErrDocumentNotFound is returned by lookups of unknown document IDs
	// where absence is a caller error (e.g. rename).
	ErrDocumentNotFound = errors.New("document not found")

	// ErrSectionNotFound is returned by section lookups of unknown IDs.
	ErrSectionNotFound = errors.New("section not found")

	// ErrModelUnavailable means the embedding backend cannot serve requests.
	// Fatal to any operation that needs embeddings.
	ErrModelUnavailable = errors.New("embedding model unavailable")

	// ErrInvalidQuery means a malformed vector index query (e.g. mutually
	// exclusive document filters set together).
	ErrInvalidQuery = errors.New("invalid vector index query")

	// ErrEmptyPage means the requested page has no sections. Recoverable:
	// "nothing to recommend", not a hard failure.
	ErrEmptyPage = errors.New("no sections on requested page")

	// ErrRecommendationUnavailable wraps any scoring-path failure so callers
	// can show a graceful "insights unavailable" state.
	ErrRecommendationUnavailable = errors.New("recommendations unavailable")
)
