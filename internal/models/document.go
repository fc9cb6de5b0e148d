// Package models defines core data structures for documents, sections,
// profiles, and recommendations.
package models

import "time"

// Document represents one PDF in the library. Only Title is mutable (rename);
// everything else is fixed at ingestion.
type Document struct {
	ID        string    `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	PageCount int       `json:"page_count" db:"page_count"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// BoundingBox is a page-local rectangle in the coordinate space of the
// segmentation pipeline. The core passes it through untouched.
type BoundingBox struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// Section is the smallest retrievable unit: a page-scoped span of extracted
// text. Embedding is set once during ingestion and never mutated; re-ingesting
// a changed document creates new section IDs.
type Section struct {
	ID          string      `json:"id" db:"id"`
	DocumentID  string      `json:"document_id" db:"document_id"`
	PageNumber  int         `json:"page_number" db:"page_number"`
	BoundingBox BoundingBox `json:"bounding_box" db:"bounding_box"`
	Text        string      `json:"text" db:"text"`
	Embedding   []float32   `json:"-" db:"-"`
}

// PageSection is the ingestion input supplied by the segmentation pipeline:
// page-scoped text with its bounding box, before the core assigns section IDs.
type PageSection struct {
	PageNumber  int         `json:"page_number"`
	BoundingBox BoundingBox `json:"bounding_box"`
	Text        string      `json:"text"`
}
