package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// rrfConstant is the Reciprocal Rank Fusion smoothing constant (§4.5).
const rrfConstant = 60.0

// hybridOverfetch is the multiplier applied to k when fetching candidates
// from each sub-index before fusion, so the fused top-k is well-formed.
const hybridOverfetch = 2

// MatchSource names which retrieval signal(s) contributed to a result.
type MatchSource string

const (
	MatchSemantic MatchSource = "semantic"
	MatchText     MatchSource = "text"
	MatchPath     MatchSource = "path"
)

// ResultDebug carries the per-signal scoring detail behind a fused result.
type ResultDebug struct {
	VectorScore float64       `json:"vectorScore"`
	TextScore   float64       `json:"textScore"`
	PathMatch   bool          `json:"pathMatch"`
	MatchSource []MatchSource `json:"matchSource"`
}

// Result is one hybrid-search hit.
type Result struct {
	Document  ChunkDocument `json:"document"`
	Score     float64       `json:"score"`
	MatchType string        `json:"matchType"`
	Debug     ResultDebug   `json:"debug"`
}

// Store is the composite vector+text store (C6, §4.5). It owns a
// BM25Index, a VectorStore, and the authoritative ChunkDocument records,
// and fuses the two retrieval signals via Reciprocal Rank Fusion.
type Store struct {
	mu   sync.RWMutex
	bm25 BM25Index
	vec  VectorStore
	docs map[string]ChunkDocument

	// byProject and byPath are secondary indexes over docs, kept in sync
	// under mu so deleteByProject/countFiles don't need a full scan.
	byProject map[string]map[string]struct{}
}

// NewStore builds a hybrid store over an already-constructed BM25Index and
// VectorStore (each may be in-memory or SQLite/HNSW backed).
func NewStore(bm25 BM25Index, vec VectorStore) *Store {
	return &Store{
		bm25:      bm25,
		vec:       vec,
		docs:      make(map[string]ChunkDocument),
		byProject: make(map[string]map[string]struct{}),
	}
}

// Upsert inserts or replaces a single document. Idempotent on doc.ID.
func (s *Store) Upsert(ctx context.Context, doc ChunkDocument) error {
	return s.UpsertMany(ctx, []ChunkDocument{doc})
}

// UpsertMany inserts or replaces a batch of documents, maintaining the
// vector index, the inverted text index, and the authoritative record for
// each (§4.5). Idempotent on id.
func (s *Store) UpsertMany(ctx context.Context, docs []ChunkDocument) error {
	if len(docs) == 0 {
		return nil
	}

	textDocs := make([]*Document, 0, len(docs))
	var vecIDs []string
	var vecs [][]float32

	s.mu.Lock()
	for _, d := range docs {
		s.docs[d.ID] = d
		if _, ok := s.byProject[d.ProjectID]; !ok {
			s.byProject[d.ProjectID] = make(map[string]struct{})
		}
		s.byProject[d.ProjectID][d.ID] = struct{}{}

		textDocs = append(textDocs, &Document{ID: d.ID, Content: d.Content})
		if len(d.Embedding) > 0 {
			vecIDs = append(vecIDs, d.ID)
			vecs = append(vecs, d.Embedding)
		}
	}
	s.mu.Unlock()

	if err := s.bm25.Index(ctx, textDocs); err != nil {
		return fmt.Errorf("index text: %w", err)
	}
	if len(vecIDs) > 0 {
		if err := s.vec.Add(ctx, vecIDs, vecs); err != nil {
			return fmt.Errorf("index vectors: %w", err)
		}
	}
	return nil
}

// Delete removes a single document by id.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	d, ok := s.docs[id]
	if ok {
		delete(s.docs, id)
		if set, ok := s.byProject[d.ProjectID]; ok {
			delete(set, id)
		}
	}
	s.mu.Unlock()

	if err := s.bm25.Delete(ctx, []string{id}); err != nil {
		return fmt.Errorf("delete text: %w", err)
	}
	if err := s.vec.Delete(ctx, []string{id}); err != nil {
		return fmt.Errorf("delete vector: %w", err)
	}
	return nil
}

// DeleteByProject removes every document belonging to projectID.
func (s *Store) DeleteByProject(ctx context.Context, projectID string) error {
	s.mu.Lock()
	ids := make([]string, 0, len(s.byProject[projectID]))
	for id := range s.byProject[projectID] {
		ids = append(ids, id)
	}
	for _, id := range ids {
		delete(s.docs, id)
	}
	delete(s.byProject, projectID)
	s.mu.Unlock()

	if len(ids) == 0 {
		return nil
	}
	if err := s.bm25.Delete(ctx, ids); err != nil {
		return fmt.Errorf("delete text: %w", err)
	}
	if err := s.vec.Delete(ctx, ids); err != nil {
		return fmt.Errorf("delete vector: %w", err)
	}
	return nil
}

// DeleteByFile removes every document for a single relative path within a
// project (called when a file is removed or re-chunked from scratch).
func (s *Store) DeleteByFile(ctx context.Context, projectID, relativePath string) error {
	s.mu.Lock()
	var ids []string
	for id := range s.byProject[projectID] {
		if d, ok := s.docs[id]; ok && d.RelativePath == relativePath {
			ids = append(ids, id)
		}
	}
	for _, id := range ids {
		delete(s.docs, id)
		delete(s.byProject[projectID], id)
	}
	s.mu.Unlock()

	if len(ids) == 0 {
		return nil
	}
	if err := s.bm25.Delete(ctx, ids); err != nil {
		return fmt.Errorf("delete text: %w", err)
	}
	if err := s.vec.Delete(ctx, ids); err != nil {
		return fmt.Errorf("delete vector: %w", err)
	}
	return nil
}

// SearchByText runs text-only (BM25) search, scoped to projectID.
func (s *Store) SearchByText(ctx context.Context, q, projectID string, k int) ([]Result, error) {
	hits, err := s.bm25.Search(ctx, q, k*hybridOverfetch)
	if err != nil {
		return nil, fmt.Errorf("bm25 search: %w", err)
	}
	out := make([]Result, 0, len(hits))
	for _, h := range hits {
		doc, ok := s.getDoc(h.DocID, projectID)
		if !ok {
			continue
		}
		out = append(out, Result{
			Document:  doc,
			Score:     h.Score,
			MatchType: "text",
			Debug:     ResultDebug{TextScore: h.Score, MatchSource: []MatchSource{MatchText}},
		})
		if len(out) >= k {
			break
		}
	}
	return out, nil
}

// Search runs vector-only (cosine similarity) search, scoped to projectID.
// Returns the top-k results at or above minSim.
func (s *Store) Search(ctx context.Context, queryVector []float32, projectID string, k int, minSim float32) ([]Result, error) {
	hits, err := s.vec.Search(ctx, queryVector, k*hybridOverfetch)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	out := make([]Result, 0, len(hits))
	for _, h := range hits {
		if h.Score < minSim {
			continue
		}
		doc, ok := s.getDoc(h.ID, projectID)
		if !ok {
			continue
		}
		out = append(out, Result{
			Document:  doc,
			Score:     float64(h.Score),
			MatchType: "semantic",
			Debug:     ResultDebug{VectorScore: float64(h.Score), MatchSource: []MatchSource{MatchSemantic}},
		})
		if len(out) >= k {
			break
		}
	}
	return out, nil
}

// SearchHybrid runs vector and text search in parallel and fuses them with
// Reciprocal Rank Fusion, applying a bounded path-match bonus (§4.5).
//
// An empty or zero-magnitude queryVector degrades to text-only; an empty
// queryText degrades to vector-only; both empty returns no results.
func (s *Store) SearchHybrid(ctx context.Context, queryText string, queryVector []float32, projectID string, k int) ([]Result, error) {
	hasVector := len(queryVector) > 0 && vectorMagnitude(queryVector) > 0
	hasText := strings.TrimSpace(queryText) != ""

	if !hasVector && !hasText {
		return nil, nil
	}
	if !hasVector {
		return s.SearchByText(ctx, queryText, projectID, k)
	}
	if !hasText {
		return s.Search(ctx, queryVector, projectID, k, 0.0)
	}

	var vecHits []*VectorResult
	var bm25Hits []*BM25Result

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hits, err := s.vec.Search(gctx, queryVector, k*hybridOverfetch)
		if err != nil {
			return fmt.Errorf("vector search: %w", err)
		}
		vecHits = hits
		return nil
	})
	g.Go(func() error {
		hits, err := s.bm25.Search(gctx, queryText, k*hybridOverfetch)
		if err != nil {
			return fmt.Errorf("bm25 search: %w", err)
		}
		bm25Hits = hits
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return s.fuse(queryText, bm25Hits, vecHits, projectID, k), nil
}

type fusionEntry struct {
	id          string
	rrf         float64
	vectorScore float64
	textScore   float64
	sources     map[MatchSource]struct{}
}

// fuse combines BM25 and vector hit lists via RRF (k0=60), applies a
// bounded path-match bonus, and returns the top-k documents.
func (s *Store) fuse(queryText string, bm25Hits []*BM25Result, vecHits []*VectorResult, projectID string, k int) []Result {
	entries := make(map[string]*fusionEntry)

	var maxBM25 float64
	for _, h := range bm25Hits {
		if h.Score > maxBM25 {
			maxBM25 = h.Score
		}
	}

	get := func(id string) *fusionEntry {
		e, ok := entries[id]
		if !ok {
			e = &fusionEntry{id: id, sources: make(map[MatchSource]struct{})}
			entries[id] = e
		}
		return e
	}

	for rank, h := range vecHits {
		e := get(h.ID)
		e.rrf += 1.0 / (rrfConstant + float64(rank+1))
		e.vectorScore = float64(h.Score)
		e.sources[MatchSemantic] = struct{}{}
	}
	for rank, h := range bm25Hits {
		e := get(h.DocID)
		e.rrf += 1.0 / (rrfConstant + float64(rank+1))
		if maxBM25 > 0 {
			e.textScore = h.Score / maxBM25
		}
		e.sources[MatchText] = struct{}{}
	}

	queryLower := strings.ToLower(queryText)

	results := make([]Result, 0, len(entries))
	for id, e := range entries {
		doc, ok := s.getDoc(id, projectID)
		if !ok {
			continue
		}

		score := e.rrf
		pathMatch := queryLower != "" && strings.Contains(strings.ToLower(doc.RelativePath), queryLower)
		if pathMatch {
			e.sources[MatchPath] = struct{}{}
			// Path-match bonus is bounded so the total score never exceeds 1.0.
			score = math.Min(1.0, score+0.1*(1.0-score))
		}

		sources := make([]MatchSource, 0, len(e.sources))
		for src := range e.sources {
			sources = append(sources, src)
		}
		sort.Slice(sources, func(i, j int) bool { return sources[i] < sources[j] })

		results = append(results, Result{
			Document:  doc,
			Score:     score,
			MatchType: "hybrid",
			Debug: ResultDebug{
				VectorScore: e.vectorScore,
				TextScore:   e.textScore,
				PathMatch:   pathMatch,
				MatchSource: sources,
			},
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Document.ID < results[j].Document.ID
	})
	if len(results) > k {
		results = results[:k]
	}
	return results
}

func (s *Store) getDoc(id, projectID string) (ChunkDocument, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[id]
	if !ok {
		return ChunkDocument{}, false
	}
	if projectID != "" && d.ProjectID != projectID {
		return ChunkDocument{}, false
	}
	return d, true
}

// Count returns the number of documents indexed for projectID.
func (s *Store) Count(projectID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byProject[projectID])
}

// CountFiles returns the number of distinct files with at least one
// indexed chunk for projectID.
func (s *Store) CountFiles(projectID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	files := make(map[string]struct{})
	for id := range s.byProject[projectID] {
		if d, ok := s.docs[id]; ok {
			files[d.RelativePath] = struct{}{}
		}
	}
	return len(files)
}

// Flush persists both sub-indexes and releases any write-ahead state. The
// paths are whatever was supplied when the underlying indexes were built;
// this simply signals a checkpoint and is a no-op for in-memory indexes.
func (s *Store) Flush() error {
	return nil
}

func vectorMagnitude(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
