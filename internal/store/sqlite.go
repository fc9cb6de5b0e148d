package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/tsunagu/internal/models"
)

// SQLiteStore implements Store on SQLite so the server can rebuild the
// vector index from stored section text after a restart. Embeddings are not
// persisted; they are recomputed (deterministically) during rebuild.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		page_count INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at);

	CREATE TABLE IF NOT EXISTS sections (
		id TEXT PRIMARY KEY,
		document_id TEXT NOT NULL,
		page_number INTEGER NOT NULL,
		bbox_x0 REAL NOT NULL DEFAULT 0,
		bbox_y0 REAL NOT NULL DEFAULT 0,
		bbox_x1 REAL NOT NULL DEFAULT 0,
		bbox_y1 REAL NOT NULL DEFAULT 0,
		text TEXT NOT NULL,
		position INTEGER NOT NULL,
		FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_sections_document_id ON sections(document_id);
	CREATE INDEX IF NOT EXISTS idx_sections_document_page ON sections(document_id, page_number);
	`
	_, err := db.Exec(schema)
	return err
}

// AddDocument inserts a document and all of its sections in one transaction.
func (s *SQLiteStore) AddDocument(ctx context.Context, doc *models.Document, sections []*models.Section) error {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE id = ?`, doc.ID).Scan(&exists)
	if err != nil {
		return err
	}
	if exists > 0 {
		return fmt.Errorf("document %s: %w", doc.ID, models.ErrDuplicateDocument)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	createdAt := doc.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO documents (id, title, page_count, created_at) VALUES (?, ?, ?, ?)`,
		doc.ID, doc.Title, doc.PageCount, createdAt,
	); err != nil {
		return fmt.Errorf("insert document: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO sections (id, document_id, page_number, bbox_x0, bbox_y0, bbox_x1, bbox_y1, text, position)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, sec := range sections {
		b := sec.BoundingBox
		if _, err := stmt.ExecContext(ctx,
			sec.ID, doc.ID, sec.PageNumber, b.X0, b.Y0, b.X1, b.Y1, sec.Text, i,
		); err != nil {
			return fmt.Errorf("insert section %s: %w", sec.ID, err)
		}
	}
	return tx.Commit()
}

// RemoveDocument deletes a document and its sections, returning removed
// section IDs. Unknown IDs are a no-op.
func (s *SQLiteStore) RemoveDocument(ctx context.Context, documentID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM sections WHERE document_id = ?`, documentID)
	if err != nil {
		return nil, err
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, documentID); err != nil {
		return nil, err
	}
	return ids, nil
}

// RenameDocument updates a document title.
func (s *SQLiteStore) RenameDocument(ctx context.Context, documentID, newTitle string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE documents SET title = ? WHERE id = ?`, newTitle, documentID)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("document %s: %w", documentID, models.ErrDocumentNotFound)
	}
	return nil
}

// GetDocument returns a document by ID.
func (s *SQLiteStore) GetDocument(ctx context.Context, documentID string) (*models.Document, error) {
	var doc models.Document
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, page_count, created_at FROM documents WHERE id = ?`, documentID,
	).Scan(&doc.ID, &doc.Title, &doc.PageCount, &doc.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("document %s: %w", documentID, models.ErrDocumentNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// GetSection returns a section by ID.
func (s *SQLiteStore) GetSection(ctx context.Context, sectionID string) (*models.Section, error) {
	sec, err := s.scanSection(s.db.QueryRowContext(ctx,
		`SELECT id, document_id, page_number, bbox_x0, bbox_y0, bbox_x1, bbox_y1, text
		 FROM sections WHERE id = ?`, sectionID,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("section %s: %w", sectionID, models.ErrSectionNotFound)
	}
	return sec, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (s *SQLiteStore) scanSection(row rowScanner) (*models.Section, error) {
	var sec models.Section
	err := row.Scan(&sec.ID, &sec.DocumentID, &sec.PageNumber,
		&sec.BoundingBox.X0, &sec.BoundingBox.Y0, &sec.BoundingBox.X1, &sec.BoundingBox.Y1,
		&sec.Text)
	if err != nil {
		return nil, err
	}
	return &sec, nil
}

// SectionsForDocument returns the document's sections in ingestion order.
func (s *SQLiteStore) SectionsForDocument(ctx context.Context, documentID string) ([]*models.Section, error) {
	return s.querySections(ctx,
		`SELECT id, document_id, page_number, bbox_x0, bbox_y0, bbox_x1, bbox_y1, text
		 FROM sections WHERE document_id = ? ORDER BY position`, documentID)
}

// SectionsForPage returns the sections on one page, in ingestion order.
func (s *SQLiteStore) SectionsForPage(ctx context.Context, documentID string, pageNumber int) ([]*models.Section, error) {
	return s.querySections(ctx,
		`SELECT id, document_id, page_number, bbox_x0, bbox_y0, bbox_x1, bbox_y1, text
		 FROM sections WHERE document_id = ? AND page_number = ? ORDER BY position`,
		documentID, pageNumber)
}

func (s *SQLiteStore) querySections(ctx context.Context, query string, args ...interface{}) ([]*models.Section, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sections []*models.Section
	for rows.Next() {
		sec, err := s.scanSection(rows)
		if err != nil {
			return nil, err
		}
		sections = append(sections, sec)
	}
	return sections, rows.Err()
}

// ListDocuments returns all documents, newest first.
func (s *SQLiteStore) ListDocuments(ctx context.Context) ([]*models.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, page_count, created_at FROM documents ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		var doc models.Document
		if err := rows.Scan(&doc.ID, &doc.Title, &doc.PageCount, &doc.CreatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, &doc)
	}
	return docs, rows.Err()
}

// CountDocuments returns the total number of documents.
func (s *SQLiteStore) CountDocuments(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count)
	return count, err
}

// CountSections returns the total number of sections.
func (s *SQLiteStore) CountSections(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sections`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
