// Package recommend assembles end-to-end recommendation queries: resolve the
// page being read, embed it, gather same-document and cross-document
// candidates, score, rank, and cap.
package recommend

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/hyperjump/tsunagu/internal/embedding"
	"github.com/hyperjump/tsunagu/internal/models"
	"github.com/hyperjump/tsunagu/internal/scoring"
	"github.com/hyperjump/tsunagu/internal/store"
	"github.com/hyperjump/tsunagu/internal/vector"
)

// Options tunes query shape. Zero values fall back to defaults.
type Options struct {
	// CandidateMultiplier over-fetches each index query (multiplier * k) so
	// post-filter attrition (store misses, page filtering) still leaves k
	// candidates.
	CandidateMultiplier int
	// SnippetLength is the target snippet size in bytes, trimmed back to a
	// word boundary.
	SnippetLength int
}

const (
	defaultCandidateMultiplier = 3
	defaultSnippetLength       = 200
)

// Assembler orchestrates one recommendation query over the store, embedder,
// index, and scorer. It is the boundary that converts internal failures into
// the stable error taxonomy; no library-internal error type escapes it.
type Assembler struct {
	store    store.Store
	embedder embedding.Embedder
	index    vector.Index
	scorer   *scoring.Scorer
	opts     Options
}

// NewAssembler creates an assembler with the given dependencies.
func NewAssembler(st store.Store, emb embedding.Embedder, idx vector.Index, scorer *scoring.Scorer, opts Options) *Assembler {
	if opts.CandidateMultiplier <= 0 {
		opts.CandidateMultiplier = defaultCandidateMultiplier
	}
	if opts.SnippetLength <= 0 {
		opts.SnippetLength = defaultSnippetLength
	}
	return &Assembler{store: st, embedder: emb, index: idx, scorer: scorer, opts: opts}
}

// candidate is a scored section awaiting ranking.
type candidate struct {
	section *models.Section
	result  scoring.Result
}

// Recommend runs one query. A page with no sections fails with ErrEmptyPage
// (recoverable); embedding failures fail with ErrRecommendationUnavailable.
// Zero index hits on either side is not an error: that half is empty.
func (a *Assembler) Recommend(ctx context.Context, req models.RecommendRequest) (*models.RecommendationSet, error) {
	sameK := req.SameDocumentK
	if sameK <= 0 {
		sameK = models.DefaultRecommendK
	}
	crossK := req.CrossDocumentK
	if crossK <= 0 {
		crossK = models.DefaultRecommendK
	}

	pageSections, err := a.store.SectionsForPage(ctx, req.DocumentID, req.PageNumber)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve page: %w", models.ErrRecommendationUnavailable, err)
	}
	if len(pageSections) == 0 {
		return nil, fmt.Errorf("document %s page %d: %w", req.DocumentID, req.PageNumber, models.ErrEmptyPage)
	}

	texts := make([]string, len(pageSections))
	pageIDs := make(map[string]bool, len(pageSections))
	for i, sec := range pageSections {
		texts[i] = sec.Text
		pageIDs[sec.ID] = true
	}
	queryText := strings.Join(texts, "\n")

	queryEmbedding, err := a.embedder.Embed(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrRecommendationUnavailable, err)
	}
	query := scoring.NewQuery(queryText, queryEmbedding)

	fetchSame := a.opts.CandidateMultiplier * sameK
	fetchCross := a.opts.CandidateMultiplier * crossK

	// Both index queries run concurrently, as neither holds a write lock.
	var (
		sameHits, crossHits []*vector.Hit
		wg                  sync.WaitGroup
		errChan             = make(chan error, 2)
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		hits, err := a.index.Search(ctx, queryEmbedding, fetchSame, vector.SearchOptions{
			OnlyDocument:    req.DocumentID,
			ExcludeSections: pageIDs,
		})
		if err != nil {
			errChan <- fmt.Errorf("same-document search: %w", err)
			return
		}
		sameHits = hits
	}()
	go func() {
		defer wg.Done()
		hits, err := a.index.Search(ctx, queryEmbedding, fetchCross, vector.SearchOptions{
			ExcludeDocument: req.DocumentID,
		})
		if err != nil {
			errChan <- fmt.Errorf("cross-document search: %w", err)
			return
		}
		crossHits = hits
	}()
	wg.Wait()
	close(errChan)
	for err := range errChan {
		if err != nil {
			return nil, fmt.Errorf("%w: %w", models.ErrRecommendationUnavailable, err)
		}
	}

	sameCands := a.resolveAndScore(ctx, sameHits, query, req.Profile, req.PageNumber, true)
	crossCands := a.resolveAndScore(ctx, crossHits, query, req.Profile, 0, false)

	rankCandidates(sameCands)
	rankCandidates(crossCands)

	set := &models.RecommendationSet{
		SameDocument:  make([]*models.Recommendation, 0, sameK),
		CrossDocument: make([]*models.Recommendation, 0, crossK),
	}
	seen := make(map[string]bool)
	for _, c := range sameCands {
		if len(set.SameDocument) >= sameK {
			break
		}
		if seen[c.section.ID] {
			continue
		}
		seen[c.section.ID] = true
		set.SameDocument = append(set.SameDocument, a.buildRecommendation(c))
	}
	for _, c := range crossCands {
		if len(set.CrossDocument) >= crossK {
			break
		}
		if seen[c.section.ID] {
			continue
		}
		seen[c.section.ID] = true
		set.CrossDocument = append(set.CrossDocument, a.buildRecommendation(c))
	}
	return set, nil
}

// resolveAndScore turns raw index hits into scored candidates. A hit whose
// section is gone from the store is dropped silently: the index is allowed
// to briefly trail a concurrent delete, and a stale hit must never surface
// or fail the query. samePage filtering keeps the queried page out of its
// own results even if a section was indexed after the search options were
// built.
func (a *Assembler) resolveAndScore(ctx context.Context, hits []*vector.Hit, query scoring.Query, profile *models.Profile, excludePage int, sameDoc bool) []candidate {
	cands := make([]candidate, 0, len(hits))
	for _, hit := range hits {
		sec, err := a.store.GetSection(ctx, hit.SectionID)
		if err != nil {
			continue
		}
		if sameDoc && sec.PageNumber == excludePage {
			continue
		}
		cands = append(cands, candidate{
			section: sec,
			result:  a.scorer.ScoreWithSimilarity(query, sec, hit.Similarity, profile),
		})
	}
	return cands
}

// rankCandidates sorts by score descending; ties break by page number
// ascending, then section ID ascending, so identical queries over identical
// state always return identical orderings.
func rankCandidates(cands []candidate) {
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].result.Score != cands[j].result.Score {
			return cands[i].result.Score > cands[j].result.Score
		}
		if cands[i].section.PageNumber != cands[j].section.PageNumber {
			return cands[i].section.PageNumber < cands[j].section.PageNumber
		}
		return cands[i].section.ID < cands[j].section.ID
	})
}

func (a *Assembler) buildRecommendation(c candidate) *models.Recommendation {
	return &models.Recommendation{
		SectionID:      c.section.ID,
		DocumentID:     c.section.DocumentID,
		PageNumber:     c.section.PageNumber,
		BoundingBox:    c.section.BoundingBox,
		Snippet:        Snippet(c.section.Text, a.opts.SnippetLength),
		RelevanceScore: c.result.Score,
		Explanation:    c.result.Explanation,
	}
}

// Snippet returns the first maxLen bytes of text trimmed back to a word
// boundary, with "..." appended when truncated.
func Snippet(text string, maxLen int) string {
	text = strings.TrimSpace(text)
	if len(text) <= maxLen {
		return text
	}
	cut := text[:maxLen]
	if idx := strings.LastIndexAny(cut, " \t\n"); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut) + "..."
}
