package search

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/codeseeker/codeseeker/internal/embed"
	"github.com/codeseeker/codeseeker/internal/project"
	"github.com/codeseeker/codeseeker/internal/querycache"
	"github.com/codeseeker/codeseeker/internal/store"
)

// OrchestratorDefaultLimit and OrchestratorMaxLimit bound the result count
// for a search() call (§4.8).
const (
	OrchestratorDefaultLimit = 10
	OrchestratorMaxLimit     = 100
)

// ChunkPreviewLength is the maximum content length returned in a search
// result before it is truncated with an ellipsis marker (§4.8).
const ChunkPreviewLength = 500

// Mode selects between a cheap existence probe and a full ranked search.
type Mode string

const (
	ModeFull   Mode = "full"
	ModeExists Mode = "exists"
)

// SearchType selects which retrieval signal(s) to run.
type SearchType string

const (
	SearchHybrid   SearchType = "hybrid"
	SearchText     SearchType = "text"
	SearchSemantic SearchType = "semantic"
)

// Filters narrows results after fusion/ranking.
type Filters struct {
	Language     string
	ChunkType    string
	FilePath     string // substring match against RelativePath
	Significance string
}

// Options configures a search() call.
type Options struct {
	ProjectPath string
	Limit       int
	SearchType  SearchType
	Mode        Mode
	Filters     Filters
}

// ResultItem is one ranked hit, with both path forms the MCP layer needs.
type ResultItem struct {
	store.Result
	AbsolutePath string `json:"absolutePath"`
}

// Response is the output of a search() call (§4.8).
type Response struct {
	Results   []ResultItem `json:"results"`
	Total     int          `json:"total"`
	Truncated bool         `json:"truncated"`
	Cached    bool         `json:"cached"`
	Indexed   bool         `json:"indexed"`
}

// Orchestrator is the Search Orchestrator (C11, §4.8): resolves the target
// project, consults the query cache, fans out to the hybrid store, applies
// post-fusion filters, and truncates previews.
type Orchestrator struct {
	store    *store.Store
	embedder embed.Embedder
	projects *project.Registry
	cache    *querycache.Service
}

// NewOrchestrator wires the search orchestrator's dependencies.
func NewOrchestrator(st *store.Store, embedder embed.Embedder, projects *project.Registry, qc *querycache.Service) *Orchestrator {
	return &Orchestrator{store: st, embedder: embedder, projects: projects, cache: qc}
}

// Search resolves the project, runs (or replays from cache) the requested
// search, applies filters and truncation, and returns the response.
func (o *Orchestrator) Search(ctx context.Context, query string, opts Options) (*Response, error) {
	proj, err := o.projects.Resolve(opts.ProjectPath)
	if err != nil {
		return nil, err
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = OrchestratorDefaultLimit
	}
	if limit > OrchestratorMaxLimit {
		limit = OrchestratorMaxLimit
	}

	indexed := o.store.Count(proj.ID) > 0
	if opts.Mode == ModeExists {
		return &Response{Indexed: indexed}, nil
	}
	if !indexed {
		return &Response{Indexed: false}, nil
	}

	searchType := opts.SearchType
	if searchType == "" {
		searchType = SearchHybrid
	}

	if cached, ok := o.cache.Get(query, proj.ID, string(searchType)); ok {
		items, err := decodeCachedResults(cached)
		if err == nil {
			filtered := applyFilters(items, opts.Filters)
			return o.finalize(filtered, limit, true, indexed), nil
		}
	}

	results, err := o.runSearch(ctx, query, proj.ID, searchType, limit)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	items := make([]ResultItem, 0, len(results))
	for _, r := range results {
		items = append(items, toResultItem(proj.Path, r))
	}

	if len(items) > 0 {
		o.cache.Set(query, proj.ID, string(searchType), encodeResults(items))
	}

	filtered := applyFilters(items, opts.Filters)
	return o.finalize(filtered, limit, false, indexed), nil
}

func (o *Orchestrator) runSearch(ctx context.Context, query, projectID string, searchType SearchType, limit int) ([]store.Result, error) {
	overfetch := limit * 3

	switch searchType {
	case SearchText:
		return o.store.SearchByText(ctx, query, projectID, overfetch)
	case SearchSemantic:
		vec, err := o.embedVector(ctx, query)
		if err != nil {
			return nil, err
		}
		return o.store.Search(ctx, vec, projectID, overfetch, 0.0)
	default:
		var vec []float32
		if strings.TrimSpace(query) != "" && o.embedder != nil && o.embedder.Available(ctx) {
			v, err := o.embedder.Embed(ctx, query)
			if err == nil {
				vec = v
			}
		}
		return o.store.SearchHybrid(ctx, query, vec, projectID, overfetch)
	}
}

func (o *Orchestrator) embedVector(ctx context.Context, query string) ([]float32, error) {
	if o.embedder == nil {
		return nil, fmt.Errorf("no embedder configured for semantic search")
	}
	return o.embedder.Embed(ctx, query)
}

func (o *Orchestrator) finalize(items []ResultItem, limit int, cached, indexed bool) *Response {
	total := len(items)
	truncated := total > limit
	if truncated {
		items = items[:limit]
	}
	for i := range items {
		items[i].Document.Content = truncatePreview(items[i].Document.Content)
	}
	return &Response{Results: items, Total: total, Truncated: truncated, Cached: cached, Indexed: indexed}
}

func truncatePreview(content string) string {
	if len(content) <= ChunkPreviewLength {
		return content
	}
	return content[:ChunkPreviewLength] + "…"
}

func toResultItem(projectRoot string, r store.Result) ResultItem {
	return ResultItem{
		Result:       r,
		AbsolutePath: filepath.Join(projectRoot, filepath.FromSlash(r.Document.RelativePath)),
	}
}

func applyFilters(items []ResultItem, f Filters) []ResultItem {
	if f.Language == "" && f.ChunkType == "" && f.FilePath == "" && f.Significance == "" {
		return items
	}
	out := items[:0]
	for _, it := range items {
		meta := it.Document.Metadata
		if f.Language != "" && meta.Language != f.Language {
			continue
		}
		if f.ChunkType != "" && meta.ChunkType != f.ChunkType {
			continue
		}
		if f.FilePath != "" && !strings.Contains(it.Document.RelativePath, f.FilePath) {
			continue
		}
		if f.Significance != "" && meta.Significance != f.Significance {
			continue
		}
		out = append(out, it)
	}
	return out
}

func encodeResults(items []ResultItem) querycache.CachedSearchResult {
	raw := make([]json.RawMessage, 0, len(items))
	for _, it := range items {
		b, err := json.Marshal(it)
		if err != nil {
			continue
		}
		raw = append(raw, b)
	}
	return querycache.CachedSearchResult{Results: raw}
}

func decodeCachedResults(cached *querycache.CachedSearchResult) ([]ResultItem, error) {
	items := make([]ResultItem, 0, len(cached.Results))
	for _, raw := range cached.Results {
		var it ResultItem
		if err := json.Unmarshal(raw, &it); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}
