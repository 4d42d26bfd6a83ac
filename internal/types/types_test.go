package types

import "testing"

func TestChangeNotificationValidate(t *testing.T) {
	valid := ChangeNotification{EntityType: EntityShow, EntityID: "abc", Operation: OpCreated}
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}

	bad := []ChangeNotification{
		{EntityType: "movie", EntityID: "abc", Operation: OpCreated},
		{EntityType: EntityShow, EntityID: "", Operation: OpCreated},
		{EntityType: EntityShow, EntityID: "abc", Operation: "truncated"},
		{},
	}
	for _, n := range bad {
		if err := n.Validate(); err == nil {
			t.Errorf("Validate(%+v) = nil, want error", n)
		}
	}
}

func TestDocumentKey(t *testing.T) {
	if got := DocumentKey(EntityEpisode, "abc-123"); got != "episode_abc-123" {
		t.Errorf("DocumentKey = %q, want episode_abc-123", got)
	}
	n := ChangeNotification{EntityType: EntityShow, EntityID: "abc", Operation: OpDeleted}
	if n.Key() != (SearchDocument{EntityType: EntityShow, ID: "abc"}).Key() {
		t.Error("notification and document keys diverge for the same entity")
	}
}

func TestSearchFiltersFacets(t *testing.T) {
	f := SearchFilters{Category: "news", MinDuration: 90}
	facets := f.Facets()
	if len(facets) != 2 {
		t.Fatalf("got %d facets, want 2", len(facets))
	}
	if facets["category"] != "news" {
		t.Errorf("category = %q, want news", facets["category"])
	}
	if facets["minDuration"] != "90" {
		t.Errorf("minDuration = %q, want 90", facets["minDuration"])
	}

	if len((SearchFilters{}).Facets()) != 0 {
		t.Error("zero filters produced facets")
	}
}
