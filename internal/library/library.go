// Package library is the facade over the section store, embedder, vector
// index, and assembler: document ingest/delete/rename plus recommendation
// queries, with per-document write serialization.
package library

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/tsunagu/internal/embedding"
	"github.com/hyperjump/tsunagu/internal/models"
	"github.com/hyperjump/tsunagu/internal/recommend"
	"github.com/hyperjump/tsunagu/internal/store"
	"github.com/hyperjump/tsunagu/internal/vector"
)

// Library coordinates ingestion and querying. Writes serialize per document
// (a slow ingest never blocks unrelated documents or any query); queries
// never take a document lock at all.
type Library struct {
	store     store.Store
	embedder  embedding.Embedder
	index     vector.Index
	assembler *recommend.Assembler
	logger    *zap.Logger // optional; when set, logs debug events

	mu    sync.Mutex
	locks map[string]*sync.Mutex // per-document write locks
}

// Option configures a Library.
type Option func(*Library)

// WithLogger sets a logger for debug output (document ingested, deleted, etc.).
func WithLogger(l *zap.Logger) Option {
	return func(lib *Library) { lib.logger = l }
}

// New creates a library facade over the given dependencies.
func New(st store.Store, emb embedding.Embedder, idx vector.Index, asm *recommend.Assembler, opts ...Option) *Library {
	lib := &Library{
		store:     st,
		embedder:  emb,
		index:     idx,
		assembler: asm,
		locks:     make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(lib)
	}
	return lib
}

// lockFor returns the write lock for a document ID, creating it on first use.
func (lib *Library) lockFor(documentID string) *sync.Mutex {
	lib.mu.Lock()
	defer lib.mu.Unlock()
	l, ok := lib.locks[documentID]
	if !ok {
		l = &sync.Mutex{}
		lib.locks[documentID] = l
	}
	return l
}

// IngestDocument registers a document from segmented page sections. The
// whole batch is embedded before anything is registered, so a failed or
// cancelled ingest leaves the document fully absent: never half in the
// index and half not. Fails with ErrDuplicateDocument if the ID is live,
// and with ErrModelUnavailable (wrapped) if embedding fails.
func (lib *Library) IngestDocument(ctx context.Context, documentID, title string, pageSections []*models.PageSection) error {
	if documentID == "" {
		documentID = uuid.New().String()
	}
	l := lib.lockFor(documentID)
	l.Lock()
	defer l.Unlock()

	if _, err := lib.store.GetDocument(ctx, documentID); err == nil {
		return fmt.Errorf("document %s: %w", documentID, models.ErrDuplicateDocument)
	}

	sections := make([]*models.Section, 0, len(pageSections))
	pageCount := 0
	for _, ps := range pageSections {
		if strings.TrimSpace(ps.Text) == "" {
			// Malformed segment: drop it rather than abort the document.
			if lib.logger != nil {
				lib.logger.Debug("library dropping empty section",
					zap.String("document_id", documentID), zap.Int("page", ps.PageNumber))
			}
			continue
		}
		sections = append(sections, &models.Section{
			ID:          uuid.New().String(),
			DocumentID:  documentID,
			PageNumber:  ps.PageNumber,
			BoundingBox: ps.BoundingBox,
			Text:        ps.Text,
		})
		if ps.PageNumber > pageCount {
			pageCount = ps.PageNumber
		}
	}

	// Embed everything up front, honoring cancellation between sections.
	// Nothing is registered until every embedding exists.
	for _, sec := range sections {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("ingest cancelled: %w", err)
		}
		emb, err := lib.embedder.Embed(ctx, sec.Text)
		if err != nil {
			return fmt.Errorf("embed section for document %s: %w", documentID, err)
		}
		sec.Embedding = emb
	}

	doc := &models.Document{ID: documentID, Title: title, PageCount: pageCount}
	if err := lib.store.AddDocument(ctx, doc, sections); err != nil {
		return fmt.Errorf("store document: %w", err)
	}
	for _, sec := range sections {
		if err := lib.index.Add(ctx, sec.ID, documentID, sec.Embedding); err != nil {
			// Keep store and index in lockstep: undo the whole document.
			if removed, rmErr := lib.store.RemoveDocument(ctx, documentID); rmErr == nil {
				_ = lib.index.Remove(ctx, removed)
			}
			return fmt.Errorf("index document %s: %w", documentID, err)
		}
	}

	if lib.logger != nil {
		lib.logger.Debug("library document ingested",
			zap.String("document_id", documentID),
			zap.String("title", title),
			zap.Int("sections", len(sections)),
			zap.Int("pages", pageCount))
	}
	return nil
}

// DeleteDocument removes a document, its sections, and their vectors.
// Idempotent: deleting an unknown or already-deleted ID is a no-op.
func (lib *Library) DeleteDocument(ctx context.Context, documentID string) error {
	l := lib.lockFor(documentID)
	l.Lock()
	defer l.Unlock()

	removed, err := lib.store.RemoveDocument(ctx, documentID)
	if err != nil {
		return fmt.Errorf("remove document %s: %w", documentID, err)
	}
	if len(removed) > 0 {
		if err := lib.index.Remove(ctx, removed); err != nil {
			return fmt.Errorf("evict vectors for document %s: %w", documentID, err)
		}
	}
	if lib.logger != nil {
		lib.logger.Debug("library document deleted",
			zap.String("document_id", documentID), zap.Int("sections", len(removed)))
	}
	return nil
}

// RenameDocument updates a document title. Fails with ErrDocumentNotFound
// for unknown IDs.
func (lib *Library) RenameDocument(ctx context.Context, documentID, newTitle string) error {
	l := lib.lockFor(documentID)
	l.Lock()
	defer l.Unlock()

	if err := lib.store.RenameDocument(ctx, documentID, newTitle); err != nil {
		return err
	}
	if lib.logger != nil {
		lib.logger.Debug("library document renamed",
			zap.String("document_id", documentID), zap.String("title", newTitle))
	}
	return nil
}

// Recommend runs one recommendation query. Read-only: takes no document locks.
func (lib *Library) Recommend(ctx context.Context, req models.RecommendRequest) (*models.RecommendationSet, error) {
	return lib.assembler.Recommend(ctx, req)
}

// GetDocument returns a document by ID.
func (lib *Library) GetDocument(ctx context.Context, documentID string) (*models.Document, error) {
	return lib.store.GetDocument(ctx, documentID)
}

// ListDocuments returns all documents, newest first.
func (lib *Library) ListDocuments(ctx context.Context) ([]*models.Document, error) {
	return lib.store.ListDocuments(ctx)
}

// Stats returns document and section counts plus the live vector count.
func (lib *Library) Stats(ctx context.Context) (documents, sections int64, vectors int, err error) {
	documents, err = lib.store.CountDocuments(ctx)
	if err != nil {
		return 0, 0, 0, err
	}
	sections, err = lib.store.CountSections(ctx)
	if err != nil {
		return 0, 0, 0, err
	}
	return documents, sections, lib.index.Size(), nil
}

// RebuildIndex re-embeds every stored section and repopulates the vector
// index. Used at startup with a persistent store, where section text
// survives a restart but vectors do not. Deterministic embedders make this
// equivalent to never having restarted.
func (lib *Library) RebuildIndex(ctx context.Context) error {
	docs, err := lib.store.ListDocuments(ctx)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}
	for _, doc := range docs {
		l := lib.lockFor(doc.ID)
		l.Lock()
		sections, err := lib.store.SectionsForDocument(ctx, doc.ID)
		if err != nil {
			l.Unlock()
			return fmt.Errorf("sections for document %s: %w", doc.ID, err)
		}
		for _, sec := range sections {
			if err := ctx.Err(); err != nil {
				l.Unlock()
				return fmt.Errorf("rebuild cancelled: %w", err)
			}
			// The store's sections may be shared pointers; only the index
			// needs the vector, so never write it back onto them.
			emb, err := lib.embedder.Embed(ctx, sec.Text)
			if err != nil {
				l.Unlock()
				return fmt.Errorf("re-embed section %s: %w", sec.ID, err)
			}
			if err := lib.index.Add(ctx, sec.ID, doc.ID, emb); err != nil {
				l.Unlock()
				return fmt.Errorf("re-index section %s: %w", sec.ID, err)
			}
		}
		l.Unlock()
		if lib.logger != nil {
			lib.logger.Debug("library document re-indexed",
				zap.String("document_id", doc.ID), zap.Int("sections", len(sections)))
		}
	}
	return nil
}

// Close releases the store, index, and embedder.
func (lib *Library) Close() error {
	var firstErr error
	if err := lib.index.Close(); err != nil {
		firstErr = err
	}
	if err := lib.embedder.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := lib.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
