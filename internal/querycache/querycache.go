// Package querycache implements the Query Cache Service (§4.10): a
// project-scoped cache of search results keyed on a hash of the query,
// project, and search type, with coarse invalidation on every successful
// index.
package querycache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/codeseeker/codeseeker/internal/cache"
)

// MaxResults is the number of results a cache entry is truncated to on set.
const MaxResults = 50

// DefaultTTL is how long a cached search result set stays valid.
const DefaultTTL = 15 * time.Minute

// DefaultSize is the default number of query results the cache holds.
const DefaultSize = 500

// CachedSearchResult is the shape every cache entry must parse as; a
// value that fails to unmarshal into this type is treated as a miss (§4.10).
type CachedSearchResult struct {
	Results []json.RawMessage `json:"results"`
}

// Service fronts a cache.Cache with the search-key scheme and truncation
// rule of the query cache service.
type Service struct {
	store cache.Cache
}

// New creates a query cache service backed by an in-process LRU.
func New() *Service {
	return &Service{store: cache.NewLRUCache(DefaultSize, DefaultTTL)}
}

// NewWithStore creates a query cache service backed by an arbitrary
// cache.Cache implementation (for tests, or a future shared backend).
func NewWithStore(store cache.Cache) *Service {
	return &Service{store: store}
}

// key derives "search:" + sha256("query:...|project:...|type:...")[:32].
func key(query, projectID, searchType string) string {
	raw := fmt.Sprintf("query:%s|project:%s|type:%s", query, projectID, searchType)
	sum := sha256.Sum256([]byte(raw))
	return "search:" + hex.EncodeToString(sum[:])[:32]
}

// Get returns the cached result only if it parses as CachedSearchResult
// with a non-empty Results slice; any other outcome is a silent miss (§7
// rule 5: cache failures are swallowed, never surfaced).
func (s *Service) Get(query, projectID, searchType string) (*CachedSearchResult, bool) {
	raw, ok := s.store.Get(key(query, projectID, searchType))
	if !ok {
		return nil, false
	}

	var result CachedSearchResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, false
	}
	if len(result.Results) == 0 {
		return nil, false
	}
	return &result, true
}

// Set stores result, truncated to MaxResults entries. Marshal failures are
// swallowed: a write miss is not surfaced to the caller.
func (s *Service) Set(query, projectID, searchType string, result CachedSearchResult) {
	if len(result.Results) > MaxResults {
		result.Results = result.Results[:MaxResults]
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	s.store.Set(key(query, projectID, searchType), raw)
}

// InvalidateProject deletes every "search:*" entry for the cache (coarse
// invalidation is acceptable per §4.10 — the key scheme does not carve out
// a project-only prefix, so a project-scoped index completion invalidates
// the whole search cache rather than risk stale cross-project hits).
func (s *Service) InvalidateProject(projectID string) {
	s.store.DeletePrefix("search:")
}
