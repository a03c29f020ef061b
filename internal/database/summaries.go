package database

import (
	"context"
	"fmt"
	"time"
)

// Summary is the generated summary for one transcription. Created once, immutable.
type Summary struct {
	ID              int64     `json:"id"`
	TranscriptionID int64     `json:"transcription_id"`
	Content         string    `json:"content"`
	CreatedAt       time.Time `json:"created_at"`
}

const summaryColumns = `id, transcription_id, content, created_at`

func scanSummary(row interface{ Scan(...any) error }) (*Summary, error) {
	var s Summary
	if err := row.Scan(&s.ID, &s.TranscriptionID, &s.Content, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateSummary inserts a summary. The unique constraint on transcription_id
// turns concurrent duplicate requests into ErrConflict for the loser.
func (db *DB) CreateSummary(ctx context.Context, transcriptionID int64, content string) (*Summary, error) {
	s, err := scanSummary(db.Pool.QueryRow(ctx, `
		INSERT INTO summaries (transcription_id, content)
		VALUES ($1, $2)
		RETURNING `+summaryColumns, transcriptionID, content))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("create summary: %w", err)
	}
	return s, nil
}

// GetSummaryByTranscription returns the summary for a transcription, if any.
func (db *DB) GetSummaryByTranscription(ctx context.Context, transcriptionID int64) (*Summary, error) {
	s, err := scanSummary(db.Pool.QueryRow(ctx,
		`SELECT `+summaryColumns+` FROM summaries WHERE transcription_id = $1`, transcriptionID))
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return s, nil
}
