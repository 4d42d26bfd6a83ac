// Package discovery serves the public read contract (search and featured
// content) through a cache-aside layer over the search index client.
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/showgrid/showgrid/internal/cache"
	"github.com/showgrid/showgrid/internal/index"
	"github.com/showgrid/showgrid/internal/types"
)

// Default TTLs for the two cache namespaces.
const (
	DefaultSearchTTL   = 300 * time.Second
	DefaultFeaturedTTL = 600 * time.Second
)

// Service answers read queries cache-first, falling through to the index
// client on miss. The cache is best-effort: any cache failure degrades to
// a miss or a skipped write, and only index query errors reach callers.
type Service struct {
	idx   index.Client
	cache cache.Store

	searchTTL   time.Duration
	featuredTTL time.Duration
}

// NewService creates a discovery service with the default TTLs.
func NewService(idx index.Client, cacheStore cache.Store) *Service {
	return &Service{
		idx:         idx,
		cache:       cacheStore,
		searchTTL:   DefaultSearchTTL,
		featuredTTL: DefaultFeaturedTTL,
	}
}

// SetTTLs overrides the cache TTL per namespace.
func (s *Service) SetTTLs(search, featured time.Duration) {
	if search > 0 {
		s.searchTTL = search
	}
	if featured > 0 {
		s.featuredTTL = featured
	}
}

// Search returns up to 50 documents matching the query and filters,
// relevance-ordered, serving repeated queries from cache within the TTL.
func (s *Service) Search(ctx context.Context, query string, filters types.SearchFilters) ([]types.SearchDocument, error) {
	key := searchKey(query, filters)
	if docs, ok := s.cached(ctx, key); ok {
		return docs, nil
	}

	docs, err := s.idx.Search(ctx, query, filters)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	s.store(ctx, key, docs, s.searchTTL)
	return docs, nil
}

// Featured returns the newest documents truncated to limit, recency-
// ordered. Featured entries expire only by TTL; index mutations do not
// invalidate this namespace.
func (s *Service) Featured(ctx context.Context, limit int) ([]types.SearchDocument, error) {
	if limit <= 0 {
		limit = index.DefaultFeaturedLimit
	}
	key := featuredKey(limit)
	if docs, ok := s.cached(ctx, key); ok {
		return docs, nil
	}

	docs, err := s.idx.Featured(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("fetching featured content: %w", err)
	}

	s.store(ctx, key, docs, s.featuredTTL)
	return docs, nil
}

// cached returns the decoded entry for key, treating every failure
// (absent, unreadable, undecodable) as a miss.
func (s *Service) cached(ctx context.Context, key string) ([]types.SearchDocument, bool) {
	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		log.Printf("discovery: cache read for %s failed, treating as miss: %v", key, err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var docs []types.SearchDocument
	if err := json.Unmarshal(raw, &docs); err != nil {
		log.Printf("discovery: undecodable cache entry %s, treating as miss: %v", key, err)
		return nil, false
	}
	return docs, true
}

// store writes a result list to the cache, skipping on any failure.
func (s *Service) store(ctx context.Context, key string, docs []types.SearchDocument, ttl time.Duration) {
	raw, err := json.Marshal(docs)
	if err != nil {
		log.Printf("discovery: encoding cache entry %s: %v", key, err)
		return
	}
	if err := s.cache.Set(ctx, key, raw, ttl); err != nil {
		log.Printf("discovery: cache write for %s failed, skipping: %v", key, err)
	}
}

// searchKey derives the cache key from a normalized encoding of the query
// and filters. Facet segments are sorted by name before joining, so
// semantically identical filter sets hash to the same key no matter how
// the caller assembled them (and despite Go's random map iteration).
func searchKey(query string, filters types.SearchFilters) string {
	facets := filters.Facets()
	names := make([]string, 0, len(facets))
	for name := range facets {
		names = append(names, name)
	}
	sort.Strings(names)

	segments := make([]string, 0, len(names))
	for _, name := range names {
		segments = append(segments, name+":"+facets[name])
	}
	return "search:" + query + ":" + strings.Join(segments, "|")
}

func featuredKey(limit int) string {
	return "featured:" + strconv.Itoa(limit)
}
