package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/tsunagu/internal/config"
	"github.com/hyperjump/tsunagu/internal/embedding"
	"github.com/hyperjump/tsunagu/internal/library"
	"github.com/hyperjump/tsunagu/internal/models"
	"github.com/hyperjump/tsunagu/internal/recommend"
	"github.com/hyperjump/tsunagu/internal/scoring"
	"github.com/hyperjump/tsunagu/internal/store"
	"github.com/hyperjump/tsunagu/internal/vector"
)

const testDims = 64

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	st := store.NewMemoryStore()
	emb := embedding.NewHashEmbedder(testDims)
	idx, err := vector.NewMemoryIndex(testDims)
	if err != nil {
		t.Fatalf("NewMemoryIndex error: %v", err)
	}
	asm := recommend.NewAssembler(st, emb, idx, scoring.NewScorer(scoring.DefaultWeights()), recommend.Options{})
	lib := library.New(st, emb, idx, asm)
	s := NewServer(lib, &config.ServerConfig{Host: "localhost", Port: 0}, zap.NewNop())

	r := chi.NewRouter()
	r.Post("/api/v1/documents", s.handleIngestDocument)
	r.Get("/api/v1/documents", s.handleListDocuments)
	r.Get("/api/v1/documents/{id}", s.handleGetDocument)
	r.Patch("/api/v1/documents/{id}", s.handleRenameDocument)
	r.Delete("/api/v1/documents/{id}", s.handleDeleteDocument)
	r.Get("/api/v1/recommendations/{id}", s.handleRecommendations)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	return r
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const ingestBody = `{
	"id": "doc1",
	"title": "Chemistry Notes",
	"sections": [
		{"page_number": 1, "text": "Covalent bonds share electron pairs."},
		{"page_number": 2, "text": "Ionic bonds transfer electrons between atoms."}
	]
}`

func TestIngestEndpoint(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		r := newTestRouter(t)
		rec := doRequest(t, r, http.MethodPost, "/api/v1/documents", ingestBody)
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		var resp map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("bad response: %v", err)
		}
		if resp["id"] != "doc1" || resp["status"] != "ingested" {
			t.Errorf("response = %v", resp)
		}
	})

	t.Run("duplicate is a conflict", func(t *testing.T) {
		r := newTestRouter(t)
		doRequest(t, r, http.MethodPost, "/api/v1/documents", ingestBody)
		rec := doRequest(t, r, http.MethodPost, "/api/v1/documents", ingestBody)
		if rec.Code != http.StatusConflict {
			t.Errorf("status = %d, want 409", rec.Code)
		}
	})

	t.Run("missing sections is a bad request", func(t *testing.T) {
		r := newTestRouter(t)
		rec := doRequest(t, r, http.MethodPost, "/api/v1/documents", `{"title": "empty"}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("invalid json is a bad request", func(t *testing.T) {
		r := newTestRouter(t)
		rec := doRequest(t, r, http.MethodPost, "/api/v1/documents", `{not json`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("generated ID returned when omitted", func(t *testing.T) {
		r := newTestRouter(t)
		rec := doRequest(t, r, http.MethodPost, "/api/v1/documents",
			`{"title": "anon", "sections": [{"page_number": 1, "text": "hello world"}]}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d", rec.Code)
		}
		var resp map[string]string
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
		if resp["id"] == "" {
			t.Error("expected generated document ID in response")
		}
	})
}

func TestDocumentEndpoints(t *testing.T) {
	r := newTestRouter(t)
	doRequest(t, r, http.MethodPost, "/api/v1/documents", ingestBody)

	t.Run("get", func(t *testing.T) {
		rec := doRequest(t, r, http.MethodGet, "/api/v1/documents/doc1", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var doc models.Document
		if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
			t.Fatalf("bad response: %v", err)
		}
		if doc.Title != "Chemistry Notes" || doc.PageCount != 2 {
			t.Errorf("document = %+v", doc)
		}
	})

	t.Run("get unknown is 404", func(t *testing.T) {
		rec := doRequest(t, r, http.MethodGet, "/api/v1/documents/ghost", "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("list", func(t *testing.T) {
		rec := doRequest(t, r, http.MethodGet, "/api/v1/documents", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var resp struct {
			Documents []*models.Document `json:"documents"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("bad response: %v", err)
		}
		if len(resp.Documents) != 1 {
			t.Errorf("documents = %d, want 1", len(resp.Documents))
		}
	})

	t.Run("rename", func(t *testing.T) {
		rec := doRequest(t, r, http.MethodPatch, "/api/v1/documents/doc1", `{"title": "Renamed"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		rec = doRequest(t, r, http.MethodGet, "/api/v1/documents/doc1", "")
		var doc models.Document
		_ = json.Unmarshal(rec.Body.Bytes(), &doc)
		if doc.Title != "Renamed" {
			t.Errorf("title = %q", doc.Title)
		}
	})

	t.Run("rename unknown is 404", func(t *testing.T) {
		rec := doRequest(t, r, http.MethodPatch, "/api/v1/documents/ghost", `{"title": "X"}`)
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("rename without title is 400", func(t *testing.T) {
		rec := doRequest(t, r, http.MethodPatch, "/api/v1/documents/doc1", `{}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		rec := doRequest(t, r, http.MethodDelete, "/api/v1/documents/doc1", "")
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d", rec.Code)
		}
		rec = doRequest(t, r, http.MethodDelete, "/api/v1/documents/doc1", "")
		if rec.Code != http.StatusOK {
			t.Errorf("second delete status = %d, want 200", rec.Code)
		}
	})
}

func TestRecommendationsEndpoint(t *testing.T) {
	r := newTestRouter(t)
	doRequest(t, r, http.MethodPost, "/api/v1/documents", ingestBody)
	doRequest(t, r, http.MethodPost, "/api/v1/documents", `{
		"id": "doc2",
		"title": "Organic Chemistry",
		"sections": [{"page_number": 1, "text": "Covalent bonds in organic molecules share electron pairs."}]
	}`)

	t.Run("returns both lists", func(t *testing.T) {
		rec := doRequest(t, r, http.MethodGet, "/api/v1/recommendations/doc1?page=1", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		var set models.RecommendationSet
		if err := json.Unmarshal(rec.Body.Bytes(), &set); err != nil {
			t.Fatalf("bad response: %v", err)
		}
		if len(set.SameDocument) != 1 || set.SameDocument[0].PageNumber != 2 {
			t.Errorf("same-document = %+v", set.SameDocument)
		}
		if len(set.CrossDocument) != 1 || set.CrossDocument[0].DocumentID != "doc2" {
			t.Errorf("cross-document = %+v", set.CrossDocument)
		}
	})

	t.Run("persona and job shape the ranking without errors", func(t *testing.T) {
		rec := doRequest(t, r, http.MethodGet,
			"/api/v1/recommendations/doc1?page=1&persona=chemistry+student&job=exam+prep", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("empty page responds 200 with a reason", func(t *testing.T) {
		rec := doRequest(t, r, http.MethodGet, "/api/v1/recommendations/doc1?page=42", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var resp struct {
			Same   []*models.Recommendation `json:"same_document_sections"`
			Cross  []*models.Recommendation `json:"cross_document_sections"`
			Reason string                   `json:"reason"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("bad response: %v", err)
		}
		if len(resp.Same) != 0 || len(resp.Cross) != 0 || resp.Reason == "" {
			t.Errorf("response = %+v, want empty lists with reason", resp)
		}
	})

	t.Run("unknown document behaves like an empty page", func(t *testing.T) {
		rec := doRequest(t, r, http.MethodGet, "/api/v1/recommendations/ghost?page=1", "")
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("missing or invalid page is 400", func(t *testing.T) {
		for _, path := range []string{
			"/api/v1/recommendations/doc1",
			"/api/v1/recommendations/doc1?page=0",
			"/api/v1/recommendations/doc1?page=abc",
			"/api/v1/recommendations/doc1?page=1&same_k=-1",
		} {
			rec := doRequest(t, r, http.MethodGet, path, "")
			if rec.Code != http.StatusBadRequest {
				t.Errorf("%s status = %d, want 400", path, rec.Code)
			}
		}
	})
}

func TestStatusAndHealth(t *testing.T) {
	r := newTestRouter(t)
	doRequest(t, r, http.MethodPost, "/api/v1/documents", ingestBody)

	rec := doRequest(t, r, http.MethodGet, "/api/v1/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if resp["documents"].(float64) != 1 || resp["sections"].(float64) != 2 {
		t.Errorf("status = %v", resp)
	}

	rec = doRequest(t, r, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d", rec.Code)
	}
}
