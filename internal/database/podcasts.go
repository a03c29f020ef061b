package database

import (
	"context"
	"fmt"
	"time"
)

// Podcast is a directory podcast persisted on first search-result ingestion.
type Podcast struct {
	ID             int64     `json:"id"`
	PodcastIndexID string    `json:"podcast_index_id"`
	Title          string    `json:"title"`
	Author         string    `json:"author"`
	Description    string    `json:"description"`
	ImageURL       string    `json:"image_url"`
	FeedURL        string    `json:"feed_url"`
	CreatedAt      time.Time `json:"created_at"`
}

const podcastColumns = `id, podcast_index_id, title, author, description, image_url, feed_url, created_at`

func scanPodcast(row interface{ Scan(...any) error }) (*Podcast, error) {
	var p Podcast
	err := row.Scan(&p.ID, &p.PodcastIndexID, &p.Title, &p.Author,
		&p.Description, &p.ImageURL, &p.FeedURL, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// InsertPodcastIfNew inserts a podcast keyed by its directory id. A podcast
// already ingested is left untouched (rows are immutable after first ingestion).
func (db *DB) InsertPodcastIfNew(ctx context.Context, p *Podcast) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO podcasts (podcast_index_id, title, author, description, image_url, feed_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (podcast_index_id) DO NOTHING
	`, p.PodcastIndexID, p.Title, p.Author, p.Description, p.ImageURL, p.FeedURL)
	if err != nil {
		return fmt.Errorf("insert podcast: %w", err)
	}
	return nil
}

// GetPodcast returns a podcast by its internal id.
func (db *DB) GetPodcast(ctx context.Context, id int64) (*Podcast, error) {
	p, err := scanPodcast(db.Pool.QueryRow(ctx,
		`SELECT `+podcastColumns+` FROM podcasts WHERE id = $1`, id))
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return p, nil
}
