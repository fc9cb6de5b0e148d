// Package store defines the authoritative mapping from section IDs to
// sections and from document IDs to their ordered sections.
package store

import (
	"context"

	"github.com/hyperjump/tsunagu/internal/models"
)

// Store holds documents and their sections. Implementations must support
// concurrent readers; document-scoped writes may serialize per document but
// must not block unrelated reads for longer than applying that document's
// delta.
type Store interface {
	// AddDocument registers a document and all of its sections atomically.
	// Fails with models.ErrDuplicateDocument if the document ID is already
	// present; callers delete first to replace.
	AddDocument(ctx context.Context, doc *models.Document, sections []*models.Section) error

	// RemoveDocument removes a document and its sections, returning the
	// removed section IDs so the vector index can evict them. Idempotent:
	// an unknown ID is a no-op returning an empty slice.
	RemoveDocument(ctx context.Context, documentID string) ([]string, error)

	// RenameDocument updates a document's title. Fails with
	// models.ErrDocumentNotFound for unknown IDs.
	RenameDocument(ctx context.Context, documentID, newTitle string) error

	// GetDocument returns a document by ID, or models.ErrDocumentNotFound.
	GetDocument(ctx context.Context, documentID string) (*models.Document, error)

	// GetSection returns a section by ID, or models.ErrSectionNotFound.
	GetSection(ctx context.Context, sectionID string) (*models.Section, error)

	// SectionsForDocument returns the document's sections in ingestion order.
	// Unknown IDs return an empty slice, not an error: an empty library
	// slice is a valid state.
	SectionsForDocument(ctx context.Context, documentID string) ([]*models.Section, error)

	// SectionsForPage returns the sections on one page of a document, in
	// ingestion order. Empty for unknown documents or empty pages.
	SectionsForPage(ctx context.Context, documentID string, pageNumber int) ([]*models.Section, error)

	// ListDocuments returns all documents ordered by creation time descending.
	ListDocuments(ctx context.Context) ([]*models.Document, error)

	// CountDocuments returns the number of documents.
	CountDocuments(ctx context.Context) (int64, error)

	// CountSections returns the number of sections across all documents.
	CountSections(ctx context.Context) (int64, error)

	Close() error
}
