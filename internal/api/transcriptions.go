package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"
	"github.com/snarg/podscribe/internal/database"
	"github.com/snarg/podscribe/internal/workflow"
)

// TranscriptionStore is the database surface for transcription lookups.
type TranscriptionStore interface {
	GetTranscription(ctx context.Context, id int64) (*database.Transcription, error)
}

// SummaryService runs the summarization workflow.
type SummaryService interface {
	Run(ctx context.Context, transcriptionID int64) (*database.Summary, bool, error)
}

type TranscriptionsHandler struct {
	db         TranscriptionStore
	objects    ObjectDownloader
	summarizer SummaryService
}

func NewTranscriptionsHandler(db TranscriptionStore, objects ObjectDownloader, summarizer SummaryService) *TranscriptionsHandler {
	return &TranscriptionsHandler{db: db, objects: objects, summarizer: summarizer}
}

func (h *TranscriptionsHandler) Routes(r chi.Router) {
	r.Get("/transcriptions/{id}", h.Get)
	r.Post("/transcriptions/{id}/summarize", h.Summarize)
}

// Get returns a transcription, inlining the transcript text when completed
// and the stored object is retrievable.
func (h *TranscriptionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := PathInt64(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid transcription ID")
		return
	}

	t, err := h.db.GetTranscription(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "transcription not found")
			return
		}
		WriteError(w, http.StatusInternalServerError, "failed to fetch transcription")
		return
	}

	if t.Status == database.StatusCompleted && t.StoragePath != nil {
		data, err := h.objects.Download(r.Context(), *t.StoragePath)
		if err != nil {
			// Record is still useful without its content.
			hlog.FromRequest(r).Warn().Err(err).Str("path", *t.StoragePath).Msg("transcript object missing")
		} else {
			t.Content = string(data)
		}
	}

	WriteJSON(w, http.StatusOK, map[string]any{"transcription": t})
}

// Summarize returns the transcription's summary, generating it on first call.
func (h *TranscriptionsHandler) Summarize(w http.ResponseWriter, r *http.Request) {
	id, err := PathInt64(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid transcription ID")
		return
	}

	summary, created, err := h.summarizer.Run(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrNotFound), errors.Is(err, workflow.ErrNotReady):
			WriteError(w, http.StatusNotFound, "completed transcription not found")
		case errors.Is(err, workflow.ErrContentMissing):
			WriteError(w, http.StatusNotFound, "transcription file not found")
		default:
			hlog.FromRequest(r).Error().Err(err).Int64("transcription_id", id).Msg("summarization failed")
			WriteError(w, http.StatusInternalServerError, "failed to generate summary")
		}
		return
	}

	message := "Summary already exists"
	if created {
		message = "Summary generated successfully"
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"message": message,
		"summary": summary,
	})
}
