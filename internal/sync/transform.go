package sync

import "github.com/showgrid/showgrid/internal/types"

// buildShowDocument maps a show to its indexed projection.
func buildShowDocument(sh *types.Show) types.SearchDocument {
	return types.SearchDocument{
		ID:          sh.ID,
		EntityType:  types.EntityShow,
		Title:       sh.Title,
		Description: sh.Description,
		Category:    sh.Category,
		Language:    sh.Language,
		CreatedAt:   sh.CreatedAt,
	}
}

// buildEpisodeDocument maps an episode to its indexed projection.
// Episodes store no facets of their own; category and language are
// inherited from the parent show at indexing time, so a show update
// re-propagates through each episode's next notification.
func buildEpisodeDocument(ep *types.Episode, parent *types.Show) types.SearchDocument {
	return types.SearchDocument{
		ID:            ep.ID,
		EntityType:    types.EntityEpisode,
		Title:         ep.Title,
		Description:   ep.Description,
		Category:      parent.Category,
		Language:      parent.Language,
		Duration:      ep.Duration,
		ShowID:        ep.ShowID,
		EpisodeNumber: ep.EpisodeNumber,
		CreatedAt:     ep.CreatedAt,
	}
}
