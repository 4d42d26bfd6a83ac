package discovery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/showgrid/showgrid/internal/cache"
	"github.com/showgrid/showgrid/internal/index"
	"github.com/showgrid/showgrid/internal/types"
)

func seedShows(t *testing.T, idx *index.Memory, n int) []types.SearchDocument {
	t.Helper()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	docs := make([]types.SearchDocument, 0, n)
	for i := 0; i < n; i++ {
		doc := types.SearchDocument{
			ID:          uuid.NewString(),
			EntityType:  types.EntityShow,
			Title:       "Nightly News",
			Description: "Headlines and analysis",
			Category:    "news",
			Language:    "en",
			CreatedAt:   base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, idx.Upsert(context.Background(), doc))
		docs = append(docs, doc)
	}
	return docs
}

func TestSearchKey_NormalizesFilterOrder(t *testing.T) {
	// Identical filter sets must produce identical keys regardless of
	// how the caller assembled them; Facets() iterates a map in random
	// order, so equality here proves the sort is doing its job.
	a := searchKey("x", types.SearchFilters{Category: "a", Language: "b"})
	for i := 0; i < 20; i++ {
		b := searchKey("x", types.SearchFilters{Language: "b", Category: "a"})
		assert.Equal(t, a, b)
	}
	assert.Equal(t, "search:x:category:a|language:b", a)
}

func TestSearchKey_DistinguishesDifferentFilters(t *testing.T) {
	a := searchKey("x", types.SearchFilters{Category: "a"})
	b := searchKey("x", types.SearchFilters{Language: "a"})
	c := searchKey("y", types.SearchFilters{Category: "a"})
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestSearch_CacheAside_SecondHitSkipsIndex(t *testing.T) {
	ctx := context.Background()
	idx := index.NewMemory()
	seedShows(t, idx, 3)
	svc := NewService(idx, cache.NewSturdyc(100))

	first, err := svc.Search(ctx, "news", types.SearchFilters{Category: "news"})
	require.NoError(t, err)
	require.NotEmpty(t, first)
	require.Equal(t, 1, idx.SearchCalls())

	second, err := svc.Search(ctx, "news", types.SearchFilters{Category: "news"})
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, idx.SearchCalls(), "cached result must not re-query the index")
}

func TestSearch_InvalidationForcesIndexRequery(t *testing.T) {
	ctx := context.Background()
	idx := index.NewMemory()
	seedShows(t, idx, 2)
	store := cache.NewSturdyc(100)
	svc := NewService(idx, store)

	_, err := svc.Search(ctx, "news", types.SearchFilters{})
	require.NoError(t, err)
	require.Equal(t, 1, idx.SearchCalls())

	// Any index mutation wipes the whole search namespace.
	require.NoError(t, store.DeleteByPrefix(ctx, "search:"))

	_, err = svc.Search(ctx, "news", types.SearchFilters{})
	require.NoError(t, err)
	assert.Equal(t, 2, idx.SearchCalls(), "post-invalidation search must reach the index")
}

func TestFeatured_NamespaceSurvivesSearchInvalidation(t *testing.T) {
	ctx := context.Background()
	idx := index.NewMemory()
	seedShows(t, idx, 4)
	store := cache.NewSturdyc(100)
	svc := NewService(idx, store)

	_, err := svc.Featured(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, 1, idx.FeaturedCalls())

	require.NoError(t, store.DeleteByPrefix(ctx, "search:"))

	// Featured entries are only expired by TTL, never by invalidation.
	_, err = svc.Featured(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, idx.FeaturedCalls())
}

func TestFeatured_LimitAndRecencyOrder(t *testing.T) {
	ctx := context.Background()
	idx := index.NewMemory()
	docs := seedShows(t, idx, 5)
	svc := NewService(idx, cache.NewSturdyc(100))

	got, err := svc.Featured(ctx, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Newest first: seedShows creates docs oldest-to-newest.
	assert.Equal(t, docs[4].ID, got[0].ID)
	assert.Equal(t, docs[3].ID, got[1].ID)
	assert.Equal(t, docs[2].ID, got[2].ID)
}

func TestFeatured_DefaultLimit(t *testing.T) {
	ctx := context.Background()
	idx := index.NewMemory()
	seedShows(t, idx, 15)
	svc := NewService(idx, cache.NewSturdyc(100))

	got, err := svc.Featured(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, got, index.DefaultFeaturedLimit)
}

type brokenCache struct{}

func (brokenCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("cache down")
}
func (brokenCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("cache down")
}
func (brokenCache) DeleteByPrefix(context.Context, string) error {
	return errors.New("cache down")
}

func TestSearch_CacheFailureDegradesToIndex(t *testing.T) {
	ctx := context.Background()
	idx := index.NewMemory()
	seedShows(t, idx, 2)
	svc := NewService(idx, brokenCache{})

	got, err := svc.Search(ctx, "news", types.SearchFilters{})
	require.NoError(t, err, "cache failure must never fail the request")
	assert.NotEmpty(t, got)
	assert.Equal(t, 1, idx.SearchCalls())

	_, err = svc.Search(ctx, "news", types.SearchFilters{})
	require.NoError(t, err)
	assert.Equal(t, 2, idx.SearchCalls(), "with the cache down every read reaches the index")
}

type failingIndex struct{ index.Client }

func (failingIndex) Search(context.Context, string, types.SearchFilters) ([]types.SearchDocument, error) {
	return nil, errors.New("search cluster unreachable")
}

func TestSearch_IndexErrorPropagates(t *testing.T) {
	svc := NewService(failingIndex{}, cache.NewSturdyc(100))
	_, err := svc.Search(context.Background(), "news", types.SearchFilters{})
	require.Error(t, err)
}
