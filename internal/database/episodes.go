package database

import (
	"context"
	"fmt"
	"time"
)

// Episode belongs to one podcast, de-duplicated by its external guid.
type Episode struct {
	ID          int64      `json:"id"`
	PodcastID   int64      `json:"podcast_id"`
	EpisodeGUID string     `json:"episode_guid"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	AudioURL    string     `json:"audio_url"`
	ImageURL    string     `json:"image_url"`
	PublishedAt *time.Time `json:"published_at"`
	Duration    int        `json:"duration"`
	CreatedAt   time.Time  `json:"created_at"`
}

const episodeColumns = `id, podcast_id, episode_guid, title, description, audio_url, image_url, published_at, duration, created_at`

func scanEpisode(row interface{ Scan(...any) error }) (*Episode, error) {
	var e Episode
	err := row.Scan(&e.ID, &e.PodcastID, &e.EpisodeGUID, &e.Title, &e.Description,
		&e.AudioURL, &e.ImageURL, &e.PublishedAt, &e.Duration, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// InsertEpisodeIfNew inserts an episode, skipping guids already ingested.
func (db *DB) InsertEpisodeIfNew(ctx context.Context, e *Episode) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO episodes (podcast_id, episode_guid, title, description, audio_url, image_url, published_at, duration)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (episode_guid) DO NOTHING
	`, e.PodcastID, e.EpisodeGUID, e.Title, e.Description, e.AudioURL, e.ImageURL, e.PublishedAt, e.Duration)
	if err != nil {
		return fmt.Errorf("insert episode: %w", err)
	}
	return nil
}

// GetEpisode returns an episode by its internal id.
func (db *DB) GetEpisode(ctx context.Context, id int64) (*Episode, error) {
	e, err := scanEpisode(db.Pool.QueryRow(ctx,
		`SELECT `+episodeColumns+` FROM episodes WHERE id = $1`, id))
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return e, nil
}

// ListEpisodesByPodcast returns a podcast's episodes, newest first.
func (db *DB) ListEpisodesByPodcast(ctx context.Context, podcastID int64) ([]Episode, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT `+episodeColumns+`
		FROM episodes
		WHERE podcast_id = $1
		ORDER BY published_at DESC NULLS LAST
	`, podcastID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Episode
	for rows.Next() {
		e, err := scanEpisode(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}
	if result == nil {
		result = []Episode{}
	}
	return result, rows.Err()
}
