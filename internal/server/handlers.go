package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/tsunagu/internal/models"
	"github.com/hyperjump/tsunagu/internal/profile"
)

type ingestRequest struct {
	ID       string                `json:"id,omitempty"`
	Title    string                `json:"title"`
	Sections []*models.PageSection `json:"sections"`
}

func (s *Server) handleIngestDocument(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Sections) == 0 {
		s.respondError(w, http.StatusBadRequest, "sections are required")
		return
	}
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	s.logger.Debug("ingest document request",
		zap.String("id", req.ID), zap.String("title", req.Title), zap.Int("sections", len(req.Sections)))
	if err := s.library.IngestDocument(r.Context(), req.ID, req.Title, req.Sections); err != nil {
		if errors.Is(err, models.ErrDuplicateDocument) {
			s.respondError(w, http.StatusConflict, "document already exists")
			return
		}
		if errors.Is(err, models.ErrModelUnavailable) {
			s.respondError(w, http.StatusServiceUnavailable, "embedding model unavailable")
			return
		}
		s.logger.Error("ingest failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]string{"id": req.ID, "status": "ingested"})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.library.ListDocuments(r.Context())
	if err != nil {
		s.logger.Error("list documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"documents": docs})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := s.library.GetDocument(r.Context(), id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "document not found")
		return
	}
	s.respondJSON(w, http.StatusOK, doc)
}

type renameRequest struct {
	Title string `json:"title"`
}

func (s *Server) handleRenameDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" {
		s.respondError(w, http.StatusBadRequest, "title is required")
		return
	}
	s.logger.Debug("rename document request", zap.String("id", id), zap.String("title", req.Title))
	if err := s.library.RenameDocument(r.Context(), id, req.Title); err != nil {
		if errors.Is(err, models.ErrDocumentNotFound) {
			s.respondError(w, http.StatusNotFound, "document not found")
			return
		}
		s.logger.Error("rename failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "title": req.Title, "status": "renamed"})
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete document request", zap.String("id", id))
	if err := s.library.DeleteDocument(r.Context(), id); err != nil {
		s.logger.Error("deletion failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	q := r.URL.Query()

	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 1 {
		s.respondError(w, http.StatusBadRequest, "page must be a positive integer")
		return
	}

	req := models.RecommendRequest{
		DocumentID: id,
		PageNumber: page,
	}
	if persona, job := q.Get("persona"), q.Get("job"); persona != "" || job != "" {
		req.Profile = profile.Build(persona, job)
	}
	if v := q.Get("same_k"); v != "" {
		k, err := strconv.Atoi(v)
		if err != nil || k < 1 {
			s.respondError(w, http.StatusBadRequest, "same_k must be a positive integer")
			return
		}
		req.SameDocumentK = k
	}
	if v := q.Get("cross_k"); v != "" {
		k, err := strconv.Atoi(v)
		if err != nil || k < 1 {
			s.respondError(w, http.StatusBadRequest, "cross_k must be a positive integer")
			return
		}
		req.CrossDocumentK = k
	}

	s.logger.Debug("recommendations request",
		zap.String("document_id", id), zap.Int("page", page))
	set, err := s.library.Recommend(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrEmptyPage):
			// Recoverable: nothing to recommend from, not a failure.
			s.respondJSON(w, http.StatusOK, map[string]interface{}{
				"same_document_sections":  []*models.Recommendation{},
				"cross_document_sections": []*models.Recommendation{},
				"reason":                  "page has no extractable text",
			})
		case errors.Is(err, models.ErrInvalidQuery):
			s.respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, models.ErrModelUnavailable),
			errors.Is(err, models.ErrRecommendationUnavailable):
			s.respondError(w, http.StatusServiceUnavailable, "recommendations unavailable")
		default:
			s.logger.Error("recommendation failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	s.respondJSON(w, http.StatusOK, set)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	docs, sections, vectors, err := s.library.Stats(r.Context())
	if err != nil {
		s.logger.Error("status failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"documents":         docs,
		"sections":          sections,
		"vector_index_size": vectors,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
