// Package types provides the core domain types shared by the sync pipeline,
// the search index client, and the discovery layer. Entities mirror the rows
// owned by the CMS write path; SearchDocument is the derived projection held
// in the search index.
package types

import (
	"fmt"
	"strconv"
	"time"
)

// EntityType identifies which kind of CMS record a notification or
// document refers to.
type EntityType string

const (
	EntityShow    EntityType = "show"
	EntityEpisode EntityType = "episode"
)

// Valid reports whether t is a known entity type.
func (t EntityType) Valid() bool {
	return t == EntityShow || t == EntityEpisode
}

// Operation is the kind of change a notification describes.
type Operation string

const (
	OpCreated Operation = "created"
	OpUpdated Operation = "updated"
	OpDeleted Operation = "deleted"
)

// Valid reports whether op is a known operation.
func (op Operation) Valid() bool {
	return op == OpCreated || op == OpUpdated || op == OpDeleted
}

// ChangeNotification describes a single record-store change. It is
// transient: produced by the write path or the commit-trigger channel,
// never persisted, and never treated as a source of truth. The consumer
// re-fetches current entity state instead of trusting this payload, so
// duplicate or reordered deliveries are safe.
type ChangeNotification struct {
	EntityType EntityType `json:"entity_type"`
	EntityID   string     `json:"entity_id"`
	Operation  Operation  `json:"operation"`
}

// Validate rejects structurally unprocessable notifications. A notification
// that fails validation must not be retried; it will never succeed.
func (n ChangeNotification) Validate() error {
	if !n.EntityType.Valid() {
		return fmt.Errorf("unknown entity type %q", n.EntityType)
	}
	if n.EntityID == "" {
		return fmt.Errorf("empty entity id")
	}
	if !n.Operation.Valid() {
		return fmt.Errorf("unknown operation %q", n.Operation)
	}
	return nil
}

// Key returns the index document key the notification targets.
func (n ChangeNotification) Key() string {
	return DocumentKey(n.EntityType, n.EntityID)
}

// Show is a top-level content record. Category and Language are the
// facet values episodes inherit at indexing time.
type Show struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Language    string    `json:"language"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Episode belongs to a Show. It stores no category or language of its own;
// those are resolved from the parent show when the episode is indexed.
type Episode struct {
	ID            string    `json:"id"`
	ShowID        string    `json:"show_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Duration      int       `json:"duration"` // seconds
	EpisodeNumber int       `json:"episode_number"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// SearchDocument is the indexed projection of a show or episode. It is
// always recomputed from current record-store state at indexing time.
// Documents are keyed by "{entityType}_{id}" in the index; repeated
// upserts with the same key are safe overwrites.
type SearchDocument struct {
	ID            string     `json:"id"`
	EntityType    EntityType `json:"entityType"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Category      string     `json:"category"`
	Language      string     `json:"language"`
	Duration      int        `json:"duration,omitempty"`
	ShowID        string     `json:"showId,omitempty"`
	EpisodeNumber int        `json:"episodeNumber,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// Key returns the document's idempotency key in the index.
func (d SearchDocument) Key() string {
	return DocumentKey(d.EntityType, d.ID)
}

// DocumentKey builds the index key for an entity. Entity ids are UUIDs
// minted at creation and never reused, so delete and re-create for the
// same logical content always use distinct keys.
func DocumentKey(entityType EntityType, id string) string {
	return string(entityType) + "_" + id
}

// SearchFilters are the facet constraints a discovery search accepts.
// All supplied filters are ANDed; zero values mean "no constraint".
type SearchFilters struct {
	Category    string `json:"category,omitempty"`
	Language    string `json:"language,omitempty"`
	MinDuration int    `json:"min_duration,omitempty"`
	MaxDuration int    `json:"max_duration,omitempty"`
}

// Facets returns the supplied filters as name/value pairs. Map iteration
// order is random, so consumers deriving cache keys must sort the names.
func (f SearchFilters) Facets() map[string]string {
	m := make(map[string]string, 4)
	if f.Category != "" {
		m["category"] = f.Category
	}
	if f.Language != "" {
		m["language"] = f.Language
	}
	if f.MinDuration > 0 {
		m["minDuration"] = strconv.Itoa(f.MinDuration)
	}
	if f.MaxDuration > 0 {
		m["maxDuration"] = strconv.Itoa(f.MaxDuration)
	}
	return m
}
