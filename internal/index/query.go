package index

import "github.com/showgrid/showgrid/internal/types"

// buildSearchBody constructs the bool query for a discovery search.
// A non-empty query string becomes a fuzzy multi_match with title
// weighted 3x over description; otherwise the must clause is match_all.
// Each supplied facet contributes an independent filter clause; filters
// are ANDed and do not affect relevance scoring.
func buildSearchBody(query string, filters types.SearchFilters) map[string]any {
	var must []map[string]any
	if query != "" {
		must = append(must, map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"title^3", "description"},
				"fuzziness": "AUTO",
			},
		})
	} else {
		must = append(must, map[string]any{"match_all": map[string]any{}})
	}

	filter := make([]map[string]any, 0, 3)
	if filters.Category != "" {
		filter = append(filter, map[string]any{
			"term": map[string]any{"category": filters.Category},
		})
	}
	if filters.Language != "" {
		filter = append(filter, map[string]any{
			"term": map[string]any{"language": filters.Language},
		})
	}
	if filters.MinDuration > 0 || filters.MaxDuration > 0 {
		rng := map[string]any{}
		if filters.MinDuration > 0 {
			rng["gte"] = filters.MinDuration
		}
		if filters.MaxDuration > 0 {
			rng["lte"] = filters.MaxDuration
		}
		filter = append(filter, map[string]any{
			"range": map[string]any{"duration": rng},
		})
	}

	return map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must":   must,
				"filter": filter,
			},
		},
		"size": MaxResults,
	}
}

// buildFeaturedBody constructs the featured query: match everything,
// newest first, truncated to limit.
func buildFeaturedBody(limit int) map[string]any {
	if limit <= 0 {
		limit = DefaultFeaturedLimit
	}
	return map[string]any{
		"query": map[string]any{"match_all": map[string]any{}},
		"sort": []map[string]any{
			{"createdAt": map[string]any{"order": "desc"}},
		},
		"size": limit,
	}
}
