package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"
	"github.com/snarg/podscribe/internal/database"
	"github.com/snarg/podscribe/internal/directory"
	"github.com/snarg/podscribe/internal/metrics"
)

// DirectoryClient is the podcast catalog surface used by the handlers.
type DirectoryClient interface {
	Search(ctx context.Context, query string) ([]directory.Podcast, error)
	EpisodesByFeedID(ctx context.Context, feedID string) ([]directory.Episode, error)
}

// PodcastStore is the database surface for podcast and episode ingestion.
type PodcastStore interface {
	InsertPodcastIfNew(ctx context.Context, p *database.Podcast) error
	GetPodcast(ctx context.Context, id int64) (*database.Podcast, error)
	InsertEpisodeIfNew(ctx context.Context, e *database.Episode) error
	ListEpisodesByPodcast(ctx context.Context, podcastID int64) ([]database.Episode, error)
}

type PodcastsHandler struct {
	db  PodcastStore
	dir DirectoryClient
}

func NewPodcastsHandler(db PodcastStore, dir DirectoryClient) *PodcastsHandler {
	return &PodcastsHandler{db: db, dir: dir}
}

func (h *PodcastsHandler) Routes(r chi.Router) {
	r.Get("/podcasts/search", h.Search)
	r.Get("/podcasts/{id}", h.Get)
	r.Get("/podcasts/{id}/episodes", h.Episodes)
}

// Search queries the directory and ingests first-seen podcasts.
func (h *PodcastsHandler) Search(w http.ResponseWriter, r *http.Request) {
	query, ok := QueryString(r, "query")
	if !ok {
		WriteError(w, http.StatusBadRequest, "query parameter is required")
		return
	}

	results, err := h.dir.Search(r.Context(), query)
	if err != nil {
		metrics.DirectoryRequestsTotal.WithLabelValues("search", "error").Inc()
		hlog.FromRequest(r).Error().Err(err).Str("query", query).Msg("directory search failed")
		WriteError(w, http.StatusInternalServerError, "failed to search podcasts")
		return
	}
	metrics.DirectoryRequestsTotal.WithLabelValues("search", "ok").Inc()

	// Persist directory hits not seen before; rows are immutable afterwards.
	for _, p := range results {
		err := h.db.InsertPodcastIfNew(r.Context(), &database.Podcast{
			PodcastIndexID: strconv.FormatInt(p.ID, 10),
			Title:          p.Title,
			Author:         p.Author,
			Description:    p.Description,
			ImageURL:       p.Image,
			FeedURL:        p.URL,
		})
		if err != nil {
			hlog.FromRequest(r).Error().Err(err).Int64("podcast_index_id", p.ID).Msg("podcast ingestion failed")
			WriteError(w, http.StatusInternalServerError, "failed to search podcasts")
			return
		}
	}

	WriteJSON(w, http.StatusOK, map[string]any{"podcasts": results})
}

// Get returns a podcast by its internal id.
func (h *PodcastsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := PathInt64(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid podcast ID")
		return
	}

	podcast, err := h.db.GetPodcast(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusNotFound, "podcast not found")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"podcast": podcast})
}

// Episodes ingests the podcast's episode list from the directory and returns
// the stored episodes, newest first.
func (h *PodcastsHandler) Episodes(w http.ResponseWriter, r *http.Request) {
	id, err := PathInt64(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid podcast ID")
		return
	}

	podcast, err := h.db.GetPodcast(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusNotFound, "podcast not found")
		return
	}

	items, err := h.dir.EpisodesByFeedID(r.Context(), podcast.PodcastIndexID)
	if err != nil {
		metrics.DirectoryRequestsTotal.WithLabelValues("episodes", "error").Inc()
		hlog.FromRequest(r).Error().Err(err).Int64("podcast_id", id).Msg("directory episode fetch failed")
		WriteError(w, http.StatusInternalServerError, "failed to fetch podcast episodes")
		return
	}
	metrics.DirectoryRequestsTotal.WithLabelValues("episodes", "ok").Inc()

	for _, item := range items {
		imageURL := item.Image
		if imageURL == "" {
			imageURL = podcast.ImageURL
		}
		var publishedAt *time.Time
		if item.DatePublished > 0 {
			ts := time.Unix(item.DatePublished, 0).UTC()
			publishedAt = &ts
		}
		err := h.db.InsertEpisodeIfNew(r.Context(), &database.Episode{
			PodcastID:   id,
			EpisodeGUID: item.GUID,
			Title:       item.Title,
			Description: item.Description,
			AudioURL:    item.EnclosureURL,
			ImageURL:    imageURL,
			PublishedAt: publishedAt,
			Duration:    item.Duration,
		})
		if err != nil {
			hlog.FromRequest(r).Error().Err(err).Str("guid", item.GUID).Msg("episode ingestion failed")
			WriteError(w, http.StatusInternalServerError, "failed to fetch podcast episodes")
			return
		}
	}

	episodes, err := h.db.ListEpisodesByPodcast(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to fetch podcast episodes")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"episodes": episodes})
}
