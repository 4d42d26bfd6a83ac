// Package record provides read access to the canonical record store.
// Writes belong to the CMS CRUD layer; the sync pipeline only ever
// re-fetches current state here before indexing.
package record

import (
	"context"
	"errors"

	"github.com/showgrid/showgrid/internal/types"
)

// ErrNotFound is returned when an entity does not exist. The consumer
// treats it as a successful no-op for created/updated notifications:
// the entity was deleted between notification and processing.
var ErrNotFound = errors.New("record: not found")

// Store is the read interface over the canonical record store.
type Store interface {
	// GetShow fetches a show by id, or ErrNotFound.
	GetShow(ctx context.Context, id string) (*types.Show, error)

	// GetEpisode fetches an episode by id, or ErrNotFound. The parent
	// show is not resolved here; callers needing inherited facets fetch
	// it separately via GetShow.
	GetEpisode(ctx context.Context, id string) (*types.Episode, error)

	// ListShows returns all shows, for full reindex walks.
	ListShows(ctx context.Context) ([]types.Show, error)

	// ListEpisodes returns all episodes, for full reindex walks.
	ListEpisodes(ctx context.Context) ([]types.Episode, error)
}
