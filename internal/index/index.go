// Package index provides the search index client: structured query
// construction, execution, and document mapping. The index is a derived,
// read-optimised projection; the record store remains the source of truth.
package index

import (
	"context"

	"github.com/showgrid/showgrid/internal/types"
)

// MaxResults caps every search regardless of filters.
const MaxResults = 50

// DefaultFeaturedLimit is used when a featured query supplies no limit.
const DefaultFeaturedLimit = 10

// Client is the search index store contract. Upsert overwrites by
// document key, so repeated writes for the same entity are safe.
type Client interface {
	// Upsert indexes doc under its key, creating or overwriting.
	Upsert(ctx context.Context, doc types.SearchDocument) error

	// Delete removes the document for the entity, if present.
	Delete(ctx context.Context, entityType types.EntityType, id string) error

	// Search runs a full-text + facet query. Results are capped at
	// MaxResults and ordered by relevance descending; ties are
	// index-defined.
	Search(ctx context.Context, query string, filters types.SearchFilters) ([]types.SearchDocument, error)

	// Featured returns the newest documents by creation time, truncated
	// to limit (DefaultFeaturedLimit if limit <= 0).
	Featured(ctx context.Context, limit int) ([]types.SearchDocument, error)
}
