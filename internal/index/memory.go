package index

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/showgrid/showgrid/internal/types"
)

// Memory implements Client with an in-process map. Intended for demos and
// testing, no search cluster required. Matching is naive token overlap
// with title weighted 3x, which is close enough to exercise the pipeline
// and the cache-aside layer.
type Memory struct {
	mu   sync.RWMutex
	docs map[string]types.SearchDocument

	searchCalls   int
	featuredCalls int
}

// NewMemory creates a new empty in-memory index.
func NewMemory() *Memory {
	return &Memory{docs: make(map[string]types.SearchDocument)}
}

// SearchCalls reports how many Search queries reached the index.
// Used to verify cache hits never re-query.
func (m *Memory) SearchCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.searchCalls
}

// FeaturedCalls reports how many Featured queries reached the index.
func (m *Memory) FeaturedCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.featuredCalls
}

// Get returns the stored document for an entity, if indexed.
func (m *Memory) Get(entityType types.EntityType, id string) (types.SearchDocument, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[types.DocumentKey(entityType, id)]
	return doc, ok
}

// Len returns the number of indexed documents.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

func (m *Memory) Upsert(_ context.Context, doc types.SearchDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[doc.Key()] = doc
	return nil
}

func (m *Memory) Delete(_ context.Context, entityType types.EntityType, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, types.DocumentKey(entityType, id))
	return nil
}

func (m *Memory) Search(_ context.Context, query string, filters types.SearchFilters) ([]types.SearchDocument, error) {
	m.mu.Lock()
	m.searchCalls++
	m.mu.Unlock()

	m.mu.RLock()
	defer m.mu.RUnlock()

	type scored struct {
		doc   types.SearchDocument
		score int
	}

	terms := strings.Fields(strings.ToLower(query))
	var matched []scored
	for _, doc := range m.docs {
		if !matchesFilters(doc, filters) {
			continue
		}
		score := 1 // match_all baseline
		if len(terms) > 0 {
			score = scoreDoc(doc, terms)
			if score == 0 {
				continue
			}
		}
		matched = append(matched, scored{doc: doc, score: score})
	}

	// Relevance desc; recency breaks ties.
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].score != matched[j].score {
			return matched[i].score > matched[j].score
		}
		return matched[i].doc.CreatedAt.After(matched[j].doc.CreatedAt)
	})

	if len(matched) > MaxResults {
		matched = matched[:MaxResults]
	}
	docs := make([]types.SearchDocument, 0, len(matched))
	for _, s := range matched {
		docs = append(docs, s.doc)
	}
	return docs, nil
}

func (m *Memory) Featured(_ context.Context, limit int) ([]types.SearchDocument, error) {
	m.mu.Lock()
	m.featuredCalls++
	m.mu.Unlock()

	if limit <= 0 {
		limit = DefaultFeaturedLimit
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	docs := make([]types.SearchDocument, 0, len(m.docs))
	for _, doc := range m.docs {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})
	if len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

func matchesFilters(doc types.SearchDocument, f types.SearchFilters) bool {
	if f.Category != "" && doc.Category != f.Category {
		return false
	}
	if f.Language != "" && doc.Language != f.Language {
		return false
	}
	if f.MinDuration > 0 && doc.Duration < f.MinDuration {
		return false
	}
	if f.MaxDuration > 0 && doc.Duration > f.MaxDuration {
		return false
	}
	return true
}

func scoreDoc(doc types.SearchDocument, terms []string) int {
	title := strings.ToLower(doc.Title)
	desc := strings.ToLower(doc.Description)
	score := 0
	for _, term := range terms {
		if strings.Contains(title, term) {
			score += 3
		}
		if strings.Contains(desc, term) {
			score++
		}
	}
	return score
}
