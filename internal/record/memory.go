package record

import (
	"context"
	"sort"
	"sync"

	"github.com/showgrid/showgrid/internal/types"
)

// MemoryStore implements Store using in-memory maps.
// Intended for demos and testing, no Postgres required.
type MemoryStore struct {
	mu       sync.RWMutex
	shows    map[string]types.Show
	episodes map[string]types.Episode
}

// NewMemoryStore creates a new empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		shows:    make(map[string]types.Show),
		episodes: make(map[string]types.Episode),
	}
}

// PutShow inserts or replaces a show.
func (s *MemoryStore) PutShow(sh types.Show) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shows[sh.ID] = sh
}

// PutEpisode inserts or replaces an episode.
func (s *MemoryStore) PutEpisode(ep types.Episode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.episodes[ep.ID] = ep
}

// DeleteShow removes a show if present.
func (s *MemoryStore) DeleteShow(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.shows, id)
}

// DeleteEpisode removes an episode if present.
func (s *MemoryStore) DeleteEpisode(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.episodes, id)
}

func (s *MemoryStore) GetShow(_ context.Context, id string) (*types.Show, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sh, ok := s.shows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &sh, nil
}

func (s *MemoryStore) GetEpisode(_ context.Context, id string) (*types.Episode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ep, ok := s.episodes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &ep, nil
}

func (s *MemoryStore) ListShows(_ context.Context) ([]types.Show, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	shows := make([]types.Show, 0, len(s.shows))
	for _, sh := range s.shows {
		shows = append(shows, sh)
	}
	sort.Slice(shows, func(i, j int) bool {
		return shows[i].CreatedAt.Before(shows[j].CreatedAt)
	})
	return shows, nil
}

func (s *MemoryStore) ListEpisodes(_ context.Context) ([]types.Episode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	episodes := make([]types.Episode, 0, len(s.episodes))
	for _, ep := range s.episodes {
		episodes = append(episodes, ep)
	}
	sort.Slice(episodes, func(i, j int) bool {
		return episodes[i].CreatedAt.Before(episodes[j].CreatedAt)
	})
	return episodes, nil
}
