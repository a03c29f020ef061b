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

// EpisodeStore is the database surface for episode detail and transcription state.
type EpisodeStore interface {
	GetEpisode(ctx context.Context, id int64) (*database.Episode, error)
	GetPodcast(ctx context.Context, id int64) (*database.Podcast, error)
	GetActiveTranscription(ctx context.Context, episodeID int64) (*database.Transcription, error)
	FailTranscription(ctx context.Context, episodeID int64) error
}

// TranscribeStarter creates the durable processing record for an episode.
type TranscribeStarter interface {
	Begin(ctx context.Context, episodeID int64) (*database.Transcription, error)
}

// JobQueue accepts transcription jobs for background execution.
type JobQueue interface {
	Enqueue(job workflow.Job) bool
}

// ObjectDownloader fetches stored transcript text.
type ObjectDownloader interface {
	Download(ctx context.Context, path string) ([]byte, error)
}

type EpisodesHandler struct {
	db      EpisodeStore
	objects ObjectDownloader
	starter TranscribeStarter
	queue   JobQueue
}

func NewEpisodesHandler(db EpisodeStore, objects ObjectDownloader, starter TranscribeStarter, queue JobQueue) *EpisodesHandler {
	return &EpisodesHandler{db: db, objects: objects, starter: starter, queue: queue}
}

func (h *EpisodesHandler) Routes(r chi.Router) {
	r.Get("/episodes/{id}", h.Get)
	r.Post("/episodes/{id}/transcribe", h.Transcribe)
}

// Get returns an episode with its podcast and transcription state. Completed
// transcripts are inlined when the stored object is retrievable.
func (h *EpisodesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := PathInt64(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid episode ID")
		return
	}

	episode, err := h.db.GetEpisode(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusNotFound, "episode not found")
		return
	}

	podcast, err := h.db.GetPodcast(r.Context(), episode.PodcastID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to fetch episode details")
		return
	}

	// Transcription is optional on the response.
	var transcription *database.Transcription
	if t, err := h.db.GetActiveTranscription(r.Context(), id); err == nil {
		transcription = t
		h.inlineContent(r, transcription)
	} else if !errors.Is(err, database.ErrNotFound) {
		WriteError(w, http.StatusInternalServerError, "failed to fetch episode details")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"episode":       episode,
		"podcast":       podcast,
		"transcription": transcription,
	})
}

// Transcribe starts background transcription of the episode's audio.
// An existing non-failed transcription short-circuits with 200; losing the
// creation race to a concurrent request is a 409.
func (h *EpisodesHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	id, err := PathInt64(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid episode ID")
		return
	}

	episode, err := h.db.GetEpisode(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusNotFound, "episode not found")
		return
	}

	if existing, err := h.db.GetActiveTranscription(r.Context(), id); err == nil {
		WriteJSON(w, http.StatusOK, map[string]any{
			"message":       "Transcription already exists or is in progress",
			"transcription": existing,
		})
		return
	} else if !errors.Is(err, database.ErrNotFound) {
		WriteError(w, http.StatusInternalServerError, "failed to start transcription")
		return
	}

	created, err := h.starter.Begin(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrConflict) {
			WriteError(w, http.StatusConflict, "transcription already in progress")
			return
		}
		hlog.FromRequest(r).Error().Err(err).Int64("episode_id", id).Msg("transcription start failed")
		WriteError(w, http.StatusInternalServerError, "failed to start transcription")
		return
	}

	job := workflow.Job{
		TranscriptionID: created.ID,
		EpisodeID:       id,
		AudioURL:        episode.AudioURL,
	}
	if !h.queue.Enqueue(job) {
		// Queue full: don't leave a processing row nobody will pick up.
		if ferr := h.db.FailTranscription(r.Context(), id); ferr != nil {
			hlog.FromRequest(r).Error().Err(ferr).Int64("episode_id", id).Msg("could not mark transcription failed")
		}
		WriteError(w, http.StatusServiceUnavailable, "transcription queue full")
		return
	}

	WriteJSON(w, http.StatusAccepted, map[string]any{
		"message":         "Transcription started",
		"transcriptionId": created.ID,
	})
}

// inlineContent attaches the stored transcript text to a completed
// transcription. A missing object is tolerated: the record is returned
// without content.
func (h *EpisodesHandler) inlineContent(r *http.Request, t *database.Transcription) {
	if t.Status != database.StatusCompleted || t.StoragePath == nil {
		return
	}
	data, err := h.objects.Download(r.Context(), *t.StoragePath)
	if err != nil {
		hlog.FromRequest(r).Warn().Err(err).Str("path", *t.StoragePath).Msg("transcript object missing")
		return
	}
	t.Content = string(data)
}
