package index

import (
	"testing"

	"github.com/showgrid/showgrid/internal/types"
)

func mustBool(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	query, ok := body["query"].(map[string]any)
	if !ok {
		t.Fatalf("body has no query clause: %v", body)
	}
	boolQ, ok := query["bool"].(map[string]any)
	if !ok {
		t.Fatalf("query has no bool clause: %v", query)
	}
	return boolQ
}

func TestBuildSearchBody_TextQuery(t *testing.T) {
	body := buildSearchBody("morning news", types.SearchFilters{})
	boolQ := mustBool(t, body)

	must := boolQ["must"].([]map[string]any)
	if len(must) != 1 {
		t.Fatalf("must clauses = %d, want 1", len(must))
	}
	mm, ok := must[0]["multi_match"].(map[string]any)
	if !ok {
		t.Fatalf("must[0] = %v, want multi_match", must[0])
	}
	if mm["query"] != "morning news" {
		t.Errorf("query = %v, want %q", mm["query"], "morning news")
	}
	fields := mm["fields"].([]string)
	if fields[0] != "title^3" || fields[1] != "description" {
		t.Errorf("fields = %v, want [title^3 description]", fields)
	}
	if mm["fuzziness"] != "AUTO" {
		t.Errorf("fuzziness = %v, want AUTO", mm["fuzziness"])
	}
	if body["size"] != MaxResults {
		t.Errorf("size = %v, want %d", body["size"], MaxResults)
	}
}

func TestBuildSearchBody_EmptyQueryMatchesAll(t *testing.T) {
	body := buildSearchBody("", types.SearchFilters{})
	boolQ := mustBool(t, body)

	must := boolQ["must"].([]map[string]any)
	if len(must) != 1 {
		t.Fatalf("must clauses = %d, want 1", len(must))
	}
	if _, ok := must[0]["match_all"]; !ok {
		t.Errorf("must[0] = %v, want match_all", must[0])
	}
}

func TestBuildSearchBody_Filters(t *testing.T) {
	body := buildSearchBody("x", types.SearchFilters{
		Category:    "news",
		Language:    "en",
		MinDuration: 60,
		MaxDuration: 600,
	})
	boolQ := mustBool(t, body)

	filter := boolQ["filter"].([]map[string]any)
	if len(filter) != 3 {
		t.Fatalf("filter clauses = %d, want 3", len(filter))
	}

	term := filter[0]["term"].(map[string]any)
	if term["category"] != "news" {
		t.Errorf("category term = %v, want news", term["category"])
	}
	term = filter[1]["term"].(map[string]any)
	if term["language"] != "en" {
		t.Errorf("language term = %v, want en", term["language"])
	}
	rng := filter[2]["range"].(map[string]any)["duration"].(map[string]any)
	if rng["gte"] != 60 || rng["lte"] != 600 {
		t.Errorf("duration range = %v, want gte=60 lte=600", rng)
	}
}

func TestBuildSearchBody_OpenEndedDurationRange(t *testing.T) {
	body := buildSearchBody("", types.SearchFilters{MinDuration: 120})
	boolQ := mustBool(t, body)

	filter := boolQ["filter"].([]map[string]any)
	if len(filter) != 1 {
		t.Fatalf("filter clauses = %d, want 1", len(filter))
	}
	rng := filter[0]["range"].(map[string]any)["duration"].(map[string]any)
	if rng["gte"] != 120 {
		t.Errorf("gte = %v, want 120", rng["gte"])
	}
	if _, ok := rng["lte"]; ok {
		t.Errorf("lte present = %v, want absent", rng["lte"])
	}
}

func TestBuildFeaturedBody(t *testing.T) {
	body := buildFeaturedBody(3)
	if body["size"] != 3 {
		t.Errorf("size = %v, want 3", body["size"])
	}
	sorts := body["sort"].([]map[string]any)
	order := sorts[0]["createdAt"].(map[string]any)["order"]
	if order != "desc" {
		t.Errorf("sort order = %v, want desc", order)
	}
}

func TestBuildFeaturedBody_DefaultLimit(t *testing.T) {
	body := buildFeaturedBody(0)
	if body["size"] != DefaultFeaturedLimit {
		t.Errorf("size = %v, want %d", body["size"], DefaultFeaturedLimit)
	}
}
