package vector

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/hyperjump/tsunagu/internal/models"
)

// MemoryIndex is an in-memory vector index using brute-force inner product
// search over L2-normalized vectors (= cosine similarity). Entries keep
// insertion order so equal similarities rank deterministically. Reads take
// only the read lock; a write blocks queries for no longer than applying one
// document's delta.
type MemoryIndex struct {
	dimensions int
	entries    []entry
	byID       map[string]int // section ID -> position in entries
	mu         sync.RWMutex
}

type entry struct {
	sectionID  string
	documentID string
	vec        []float32
	deleted    bool
}

// NewMemoryIndex creates an in-memory vector index with the given dimension.
func NewMemoryIndex(dimensions int) (*MemoryIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	return &MemoryIndex{
		dimensions: dimensions,
		byID:       make(map[string]int),
	}, nil
}

// Add inserts or replaces the vector for sectionID.
func (m *MemoryIndex) Add(ctx context.Context, sectionID, documentID string, vec []float32) error {
	if len(vec) != m.dimensions {
		return fmt.Errorf("vector dimension mismatch: got %d, expected %d", len(vec), m.dimensions)
	}
	cp := make([]float32, m.dimensions)
	copy(cp, vec)

	m.mu.Lock()
	defer m.mu.Unlock()
	if pos, ok := m.byID[sectionID]; ok {
		// Re-embedding: replace in place, keeping insertion order.
		m.entries[pos].documentID = documentID
		m.entries[pos].vec = cp
		m.entries[pos].deleted = false
		return nil
	}
	m.entries = append(m.entries, entry{sectionID: sectionID, documentID: documentID, vec: cp})
	m.byID[sectionID] = len(m.entries) - 1
	return nil
}

// AddBatch adds vectors for one document in order.
func (m *MemoryIndex) AddBatch(ctx context.Context, sectionIDs []string, documentID string, vecs [][]float32) error {
	if len(sectionIDs) != len(vecs) {
		return fmt.Errorf("ids and vectors length mismatch")
	}
	for i, id := range sectionIDs {
		if err := m.Add(ctx, id, documentID, vecs[i]); err != nil {
			return err
		}
	}
	return nil
}

// Remove deletes vectors by section ID; unknown IDs are ignored.
// Entries are tombstoned; slots are reclaimed by compact once tombstones
// dominate, so remove never rewrites the whole index under load.
func (m *MemoryIndex) Remove(ctx context.Context, sectionIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range sectionIDs {
		if pos, ok := m.byID[id]; ok {
			m.entries[pos].deleted = true
			m.entries[pos].vec = nil
			delete(m.byID, id)
		}
	}
	if len(m.entries) > 64 && len(m.byID)*2 < len(m.entries) {
		m.compact()
	}
	return nil
}

// compact rebuilds entries without tombstones. Caller holds the write lock.
func (m *MemoryIndex) compact() {
	live := make([]entry, 0, len(m.byID))
	for _, e := range m.entries {
		if !e.deleted {
			live = append(live, e)
		}
	}
	m.entries = live
	m.byID = make(map[string]int, len(live))
	for i, e := range live {
		m.byID[e.sectionID] = i
	}
}

// Search returns the top-k hits by cosine similarity, honoring document
// scoping. Ties keep insertion order (stable sort over the ordered entries).
func (m *MemoryIndex) Search(ctx context.Context, query []float32, k int, opts SearchOptions) ([]*Hit, error) {
	if opts.OnlyDocument != "" && opts.ExcludeDocument != "" {
		return nil, fmt.Errorf("only_document and exclude_document are mutually exclusive: %w", models.ErrInvalidQuery)
	}
	if len(query) != m.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d: %w", len(query), m.dimensions, models.ErrInvalidQuery)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if k <= 0 || len(m.byID) == 0 {
		return nil, nil
	}

	hits := make([]*Hit, 0, len(m.byID))
	for i := range m.entries {
		e := &m.entries[i]
		if e.deleted {
			continue
		}
		if opts.OnlyDocument != "" && e.documentID != opts.OnlyDocument {
			continue
		}
		if opts.ExcludeDocument != "" && e.documentID == opts.ExcludeDocument {
			continue
		}
		if opts.ExcludeSections != nil && opts.ExcludeSections[e.sectionID] {
			continue
		}
		var dot float64
		for j := 0; j < m.dimensions; j++ {
			dot += float64(query[j] * e.vec[j])
		}
		// Rounding on normalized vectors can push the product past ±1;
		// Similarity promises [-1, 1].
		dot = math.Max(-1, math.Min(1, dot))
		hits = append(hits, &Hit{SectionID: e.sectionID, DocumentID: e.documentID, Similarity: dot})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Similarity > hits[j].Similarity })
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// Size returns the number of live vectors in the index.
func (m *MemoryIndex) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID)
}

// Close is a no-op for MemoryIndex.
func (m *MemoryIndex) Close() error {
	return nil
}

// Save persists the index to path. Directory is created if needed.
// Format: dimension (4), n (4), then per vector: idLen (4), id bytes,
// docIDLen (4), docID bytes, vector (dimension*4 bytes), little-endian.
func (m *MemoryIndex) Save(path string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	defer f.Close()
	if err := binary.Write(f, binary.LittleEndian, uint32(m.dimensions)); err != nil {
		return fmt.Errorf("write dimensions: %w", err)
	}
	if err := binary.Write(f, binary.LittleEndian, uint32(len(m.byID))); err != nil {
		return fmt.Errorf("write count: %w", err)
	}
	for _, e := range m.entries {
		if e.deleted {
			continue
		}
		if err := writeString(f, e.sectionID); err != nil {
			return fmt.Errorf("write section id: %w", err)
		}
		if err := writeString(f, e.documentID); err != nil {
			return fmt.Errorf("write document id: %w", err)
		}
		if _, err := f.Write(float32SliceToBytes(e.vec)); err != nil {
			return fmt.Errorf("write vector: %w", err)
		}
	}
	return nil
}

// Load reads the index from path and replaces the in-memory contents.
// Dimensions must match. A missing file is not an error; the index is
// unchanged (fresh start, rebuild from the store).
func (m *MemoryIndex) Load(path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()
	var dim, n uint32
	if err := binary.Read(f, binary.LittleEndian, &dim); err != nil {
		return fmt.Errorf("read dimensions: %w", err)
	}
	if int(dim) != m.dimensions {
		return fmt.Errorf("dimension mismatch: file has %d, index expects %d", dim, m.dimensions)
	}
	if err := binary.Read(f, binary.LittleEndian, &n); err != nil {
		return fmt.Errorf("read count: %w", err)
	}
	entries := make([]entry, 0, n)
	byID := make(map[string]int, n)
	buf := make([]byte, m.dimensions*4)
	for i := uint32(0); i < n; i++ {
		sectionID, err := readString(f)
		if err != nil {
			return fmt.Errorf("read section id: %w", err)
		}
		documentID, err := readString(f)
		if err != nil {
			return fmt.Errorf("read document id: %w", err)
		}
		if _, err := io.ReadFull(f, buf); err != nil {
			return fmt.Errorf("read vector: %w", err)
		}
		entries = append(entries, entry{
			sectionID:  sectionID,
			documentID: documentID,
			vec:        bytesToFloat32Slice(buf),
		})
		byID[sectionID] = len(entries) - 1
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = entries
	m.byID = byID
	return nil
}

func writeString(f *os.File, s string) error {
	if err := binary.Write(f, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := f.Write([]byte(s))
	return err
}

func readString(f *os.File) (string, error) {
	var n uint32
	if err := binary.Read(f, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(f, b); err != nil {
		return "", err
	}
	return string(b), nil
}

func float32SliceToBytes(s []float32) []byte {
	const size = 4
	out := make([]byte, len(s)*size)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(v))
	}
	return out
}

func bytesToFloat32Slice(b []byte) []float32 {
	const size = 4
	out := make([]float32, len(b)/size)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out
}

// CosineSimilarity returns the cosine similarity of two normalized vectors.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i] * b[i])
	}
	return math.Max(-1, math.Min(1, dot))
}
