package record

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/showgrid/showgrid/internal/types"
)

// PostgresStore implements Store over the CMS Postgres database.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgresStore on an existing pool. The pool
// is owned by the caller.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const showColumns = `id, title, COALESCE(description, ''), category, language, created_at, updated_at`

func (s *PostgresStore) GetShow(ctx context.Context, id string) (*types.Show, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+showColumns+` FROM shows WHERE id = $1`, id)

	var sh types.Show
	err := row.Scan(&sh.ID, &sh.Title, &sh.Description, &sh.Category, &sh.Language, &sh.CreatedAt, &sh.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching show %s: %w", id, err)
	}
	return &sh, nil
}

const episodeColumns = `id, show_id, title, COALESCE(description, ''), duration, episode_number, created_at, updated_at`

func (s *PostgresStore) GetEpisode(ctx context.Context, id string) (*types.Episode, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+episodeColumns+` FROM episodes WHERE id = $1`, id)

	var ep types.Episode
	err := row.Scan(&ep.ID, &ep.ShowID, &ep.Title, &ep.Description, &ep.Duration, &ep.EpisodeNumber, &ep.CreatedAt, &ep.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching episode %s: %w", id, err)
	}
	return &ep, nil
}

func (s *PostgresStore) ListShows(ctx context.Context) ([]types.Show, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+showColumns+` FROM shows ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("listing shows: %w", err)
	}
	defer rows.Close()

	var shows []types.Show
	for rows.Next() {
		var sh types.Show
		if err := rows.Scan(&sh.ID, &sh.Title, &sh.Description, &sh.Category, &sh.Language, &sh.CreatedAt, &sh.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning show: %w", err)
		}
		shows = append(shows, sh)
	}
	return shows, rows.Err()
}

func (s *PostgresStore) ListEpisodes(ctx context.Context) ([]types.Episode, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+episodeColumns+` FROM episodes ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("listing episodes: %w", err)
	}
	defer rows.Close()

	var episodes []types.Episode
	for rows.Next() {
		var ep types.Episode
		if err := rows.Scan(&ep.ID, &ep.ShowID, &ep.Title, &ep.Description, &ep.Duration, &ep.EpisodeNumber, &ep.CreatedAt, &ep.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning episode: %w", err)
		}
		episodes = append(episodes, ep)
	}
	return episodes, rows.Err()
}
