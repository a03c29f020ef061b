package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/snarg/podscribe/internal/database"
	"github.com/snarg/podscribe/internal/metrics"
)

var (
	// ErrNotReady means the transcription exists but is not completed yet.
	ErrNotReady = errors.New("transcription not completed")

	// ErrContentMissing means the transcript object could not be fetched.
	ErrContentMissing = errors.New("transcript content missing")
)

// SummaryStore is the database surface the summarization pipeline needs.
type SummaryStore interface {
	GetTranscription(ctx context.Context, id int64) (*database.Transcription, error)
	GetSummaryByTranscription(ctx context.Context, transcriptionID int64) (*database.Summary, error)
	CreateSummary(ctx context.Context, transcriptionID int64, content string) (*database.Summary, error)
}

// ChatCompleter generates a summary from a transcript.
type ChatCompleter interface {
	Summarize(ctx context.Context, transcript string) (string, error)
}

// Summarizer generates and persists one summary per completed transcription.
type Summarizer struct {
	db      SummaryStore
	objects ObjectStore
	chat    ChatCompleter
	log     zerolog.Logger
}

func NewSummarizer(db SummaryStore, objects ObjectStore, chat ChatCompleter, log zerolog.Logger) *Summarizer {
	return &Summarizer{db: db, objects: objects, chat: chat, log: log}
}

// Run returns the transcription's summary, generating it on first call.
// The second return value reports whether a new summary was created.
// Requires a completed transcription; returns database.ErrNotFound if the
// transcription is absent and ErrNotReady if it is not completed.
func (s *Summarizer) Run(ctx context.Context, transcriptionID int64) (*database.Summary, bool, error) {
	t, err := s.db.GetTranscription(ctx, transcriptionID)
	if err != nil {
		return nil, false, err
	}
	if t.Status != database.StatusCompleted || t.StoragePath == nil {
		return nil, false, ErrNotReady
	}

	// Read-through short-circuit: a summary already generated is returned unchanged.
	existing, err := s.db.GetSummaryByTranscription(ctx, transcriptionID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, false, err
	}

	transcript, err := s.objects.Download(ctx, *t.StoragePath)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrContentMissing, err)
	}

	content, err := s.chat.Summarize(ctx, string(transcript))
	if err != nil {
		metrics.SummariesTotal.WithLabelValues("failed").Inc()
		return nil, false, fmt.Errorf("summarize: %w", err)
	}

	summary, err := s.db.CreateSummary(ctx, transcriptionID, content)
	if err != nil {
		// A concurrent request beat us to the insert; its summary wins.
		if errors.Is(err, database.ErrConflict) {
			winner, gerr := s.db.GetSummaryByTranscription(ctx, transcriptionID)
			if gerr != nil {
				return nil, false, gerr
			}
			return winner, false, nil
		}
		return nil, false, err
	}

	metrics.SummariesTotal.WithLabelValues("completed").Inc()
	s.log.Info().
		Int64("transcription_id", transcriptionID).
		Int("summary_bytes", len(content)).
		Msg("summary generated")
	return summary, true, nil
}
