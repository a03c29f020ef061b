package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// UserEpisode is a saved-episode bookmark for an authenticated user.
type UserEpisode struct {
	ID        int64     `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	EpisodeID int64     `json:"episode_id"`
	SavedAt   time.Time `json:"saved_at"`
}

// SavedEpisode is a bookmark joined with its episode and podcast for listings.
type SavedEpisode struct {
	UserEpisode
	Episode Episode `json:"episode"`
	Podcast Podcast `json:"podcast"`
}

// SaveUserEpisode upserts a bookmark keyed by (user, episode); the latest
// save timestamp wins.
func (db *DB) SaveUserEpisode(ctx context.Context, userID uuid.UUID, episodeID int64) (*UserEpisode, error) {
	var ue UserEpisode
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO user_episodes (user_id, episode_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, episode_id) DO UPDATE SET saved_at = now()
		RETURNING id, user_id, episode_id, saved_at
	`, userID, episodeID).Scan(&ue.ID, &ue.UserID, &ue.EpisodeID, &ue.SavedAt)
	if err != nil {
		return nil, fmt.Errorf("save user episode: %w", err)
	}
	return &ue, nil
}

// ListUserEpisodes returns a user's bookmarks with episode and podcast
// context, most recently saved first.
func (db *DB) ListUserEpisodes(ctx context.Context, userID uuid.UUID) ([]SavedEpisode, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT ue.id, ue.user_id, ue.episode_id, ue.saved_at,
			e.id, e.podcast_id, e.episode_guid, e.title, e.description,
			e.audio_url, e.image_url, e.published_at, e.duration, e.created_at,
			p.id, p.podcast_index_id, p.title, p.author, p.description,
			p.image_url, p.feed_url, p.created_at
		FROM user_episodes ue
		JOIN episodes e ON e.id = ue.episode_id
		JOIN podcasts p ON p.id = e.podcast_id
		WHERE ue.user_id = $1
		ORDER BY ue.saved_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []SavedEpisode
	for rows.Next() {
		var se SavedEpisode
		err := rows.Scan(
			&se.ID, &se.UserID, &se.EpisodeID, &se.SavedAt,
			&se.Episode.ID, &se.Episode.PodcastID, &se.Episode.EpisodeGUID,
			&se.Episode.Title, &se.Episode.Description, &se.Episode.AudioURL,
			&se.Episode.ImageURL, &se.Episode.PublishedAt, &se.Episode.Duration,
			&se.Episode.CreatedAt,
			&se.Podcast.ID, &se.Podcast.PodcastIndexID, &se.Podcast.Title,
			&se.Podcast.Author, &se.Podcast.Description, &se.Podcast.ImageURL,
			&se.Podcast.FeedURL, &se.Podcast.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		result = append(result, se)
	}
	if result == nil {
		result = []SavedEpisode{}
	}
	return result, rows.Err()
}
