package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/hlog"
	"github.com/snarg/podscribe/internal/database"
)

// UserEpisodeStore is the database surface for saved-episode bookmarks.
type UserEpisodeStore interface {
	GetEpisode(ctx context.Context, id int64) (*database.Episode, error)
	SaveUserEpisode(ctx context.Context, userID uuid.UUID, episodeID int64) (*database.UserEpisode, error)
	ListUserEpisodes(ctx context.Context, userID uuid.UUID) ([]database.SavedEpisode, error)
}

type UserHandler struct {
	db UserEpisodeStore
}

func NewUserHandler(db UserEpisodeStore) *UserHandler {
	return &UserHandler{db: db}
}

// Routes registers the bookmark endpoints. Mount behind UserAuth.
func (h *UserHandler) Routes(r chi.Router) {
	r.Get("/user/episodes", h.List)
	r.Post("/user/episodes/save", h.Save)
}

// List returns the authenticated user's saved episodes, most recent first.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	userEpisodes, err := h.db.ListUserEpisodes(r.Context(), UserID(r))
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("saved episode listing failed")
		WriteError(w, http.StatusInternalServerError, "failed to fetch saved episodes")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"userEpisodes": userEpisodes})
}

// Save bookmarks an episode for the authenticated user. Saving an already
// saved episode refreshes the save timestamp.
func (h *UserHandler) Save(w http.ResponseWriter, r *http.Request) {
	var body struct {
		EpisodeID int64 `json:"episodeId"`
	}
	if err := DecodeJSON(r, &body); err != nil || body.EpisodeID == 0 {
		WriteError(w, http.StatusBadRequest, "episode ID is required")
		return
	}

	if _, err := h.db.GetEpisode(r.Context(), body.EpisodeID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "episode not found")
			return
		}
		WriteError(w, http.StatusInternalServerError, "failed to save episode")
		return
	}

	saved, err := h.db.SaveUserEpisode(r.Context(), UserID(r), body.EpisodeID)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Int64("episode_id", body.EpisodeID).Msg("episode save failed")
		WriteError(w, http.StatusInternalServerError, "failed to save episode")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"message":     "Episode saved successfully",
		"userEpisode": saved,
	})
}
