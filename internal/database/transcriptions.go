package database

import (
	"context"
	"fmt"
	"time"
)

// Transcription statuses. A transcription never leaves a terminal state.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Transcription tracks a speech-to-text run for one episode. Content is the
// transcript text inlined by handlers when the storage object is retrievable;
// it is never persisted on this row.
type Transcription struct {
	ID          int64     `json:"id"`
	EpisodeID   int64     `json:"episode_id"`
	Status      string    `json:"status"`
	StoragePath *string   `json:"storage_path"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Content     string    `json:"content,omitempty"`
}

const transcriptionColumns = `id, episode_id, status, storage_path, created_at, updated_at`

func scanTranscription(row interface{ Scan(...any) error }) (*Transcription, error) {
	var t Transcription
	err := row.Scan(&t.ID, &t.EpisodeID, &t.Status, &t.StoragePath, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTranscription inserts a new row in the processing state. The partial
// unique index on (episode_id) WHERE status <> 'failed' makes this the
// arbiter for concurrent transcribe requests: losers get ErrConflict.
func (db *DB) CreateTranscription(ctx context.Context, episodeID int64) (*Transcription, error) {
	t, err := scanTranscription(db.Pool.QueryRow(ctx, `
		INSERT INTO transcriptions (episode_id, status)
		VALUES ($1, $2)
		RETURNING `+transcriptionColumns, episodeID, StatusProcessing))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("create transcription: %w", err)
	}
	return t, nil
}

// GetTranscription returns a transcription by id.
func (db *DB) GetTranscription(ctx context.Context, id int64) (*Transcription, error) {
	t, err := scanTranscription(db.Pool.QueryRow(ctx,
		`SELECT `+transcriptionColumns+` FROM transcriptions WHERE id = $1`, id))
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return t, nil
}

// GetActiveTranscription returns the episode's non-failed transcription, if any.
func (db *DB) GetActiveTranscription(ctx context.Context, episodeID int64) (*Transcription, error) {
	t, err := scanTranscription(db.Pool.QueryRow(ctx, `
		SELECT `+transcriptionColumns+`
		FROM transcriptions
		WHERE episode_id = $1 AND status <> $2
	`, episodeID, StatusFailed))
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return t, nil
}

// CompleteTranscription transitions a processing row to completed and records
// where the transcript text was stored. Terminal rows are left untouched.
func (db *DB) CompleteTranscription(ctx context.Context, id int64, storagePath string) error {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE transcriptions
		SET status = $2, storage_path = $3, updated_at = now()
		WHERE id = $1 AND status = $4
	`, id, StatusCompleted, storagePath, StatusProcessing)
	if err != nil {
		return fmt.Errorf("complete transcription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// FailTranscription marks the episode's processing transcription as failed.
// Completed and already-failed rows are never touched.
func (db *DB) FailTranscription(ctx context.Context, episodeID int64) error {
	_, err := db.Pool.Exec(ctx, `
		UPDATE transcriptions
		SET status = $2, updated_at = now()
		WHERE episode_id = $1 AND status = $3
	`, episodeID, StatusFailed, StatusProcessing)
	if err != nil {
		return fmt.Errorf("fail transcription: %w", err)
	}
	return nil
}
