package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hyperjump/tsunagu/internal/models"
)

// MemoryStore is the process-lifetime in-memory Store. Suitable as the
// default backend; after a restart the library is rebuilt from the source
// documents.
type MemoryStore struct {
	mu        sync.RWMutex
	documents map[string]*models.Document
	sections  map[string]*models.Section
	byDoc     map[string][]*models.Section // ingestion order per document
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		documents: make(map[string]*models.Document),
		sections:  make(map[string]*models.Section),
		byDoc:     make(map[string][]*models.Section),
	}
}

// AddDocument registers a document and its sections atomically.
func (s *MemoryStore) AddDocument(ctx context.Context, doc *models.Document, sections []*models.Section) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[doc.ID]; ok {
		return fmt.Errorf("document %s: %w", doc.ID, models.ErrDuplicateDocument)
	}
	stored := *doc
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	owned := make([]*models.Section, 0, len(sections))
	for _, sec := range sections {
		cp := *sec
		cp.DocumentID = doc.ID
		owned = append(owned, &cp)
	}
	s.documents[doc.ID] = &stored
	s.byDoc[doc.ID] = owned
	for _, sec := range owned {
		s.sections[sec.ID] = sec
	}
	return nil
}

// RemoveDocument removes a document and its sections, returning removed
// section IDs. No-op with an empty slice for unknown IDs.
func (s *MemoryStore) RemoveDocument(ctx context.Context, documentID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[documentID]; !ok {
		return nil, nil
	}
	removed := make([]string, 0, len(s.byDoc[documentID]))
	for _, sec := range s.byDoc[documentID] {
		removed = append(removed, sec.ID)
		delete(s.sections, sec.ID)
	}
	delete(s.byDoc, documentID)
	delete(s.documents, documentID)
	return removed, nil
}

// RenameDocument updates the title of an existing document.
func (s *MemoryStore) RenameDocument(ctx context.Context, documentID, newTitle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[documentID]
	if !ok {
		return fmt.Errorf("document %s: %w", documentID, models.ErrDocumentNotFound)
	}
	doc.Title = newTitle
	return nil
}

// GetDocument returns a copy of the document by ID.
func (s *MemoryStore) GetDocument(ctx context.Context, documentID string) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[documentID]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", documentID, models.ErrDocumentNotFound)
	}
	cp := *doc
	return &cp, nil
}

// GetSection returns the section by ID.
func (s *MemoryStore) GetSection(ctx context.Context, sectionID string) (*models.Section, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sec, ok := s.sections[sectionID]
	if !ok {
		return nil, fmt.Errorf("section %s: %w", sectionID, models.ErrSectionNotFound)
	}
	return sec, nil
}

// SectionsForDocument returns the document's sections in ingestion order.
func (s *MemoryStore) SectionsForDocument(ctx context.Context, documentID string) ([]*models.Section, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	secs := s.byDoc[documentID]
	out := make([]*models.Section, len(secs))
	copy(out, secs)
	return out, nil
}

// SectionsForPage returns the sections on one page, in ingestion order.
func (s *MemoryStore) SectionsForPage(ctx context.Context, documentID string, pageNumber int) ([]*models.Section, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Section
	for _, sec := range s.byDoc[documentID] {
		if sec.PageNumber == pageNumber {
			out = append(out, sec)
		}
	}
	return out, nil
}

// ListDocuments returns all documents, newest first.
func (s *MemoryStore) ListDocuments(ctx context.Context) ([]*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Document, 0, len(s.documents))
	for _, doc := range s.documents {
		cp := *doc
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// CountDocuments returns the number of documents.
func (s *MemoryStore) CountDocuments(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.documents)), nil
}

// CountSections returns the number of sections.
func (s *MemoryStore) CountSections(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.sections)), nil
}

// Close is a no-op for MemoryStore.
func (s *MemoryStore) Close() error {
	return nil
}
