package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/snarg/podscribe/internal/database"
)

func TestEpisodesGet(t *testing.T) {
	t.Run("returns_episode_with_podcast_and_transcription", func(t *testing.T) {
		db := newFakeDB()
		db.podcasts[7] = &database.Podcast{ID: 7, Title: "History Extra podcast"}
		db.episodes[42] = &database.Episode{ID: 42, PodcastID: 7, Title: "The fall of Rome"}
		db.active[42] = &database.Transcription{
			ID: 5, EpisodeID: 42, Status: database.StatusCompleted,
			StoragePath: strPtr("transcriptions/42.txt"),
		}
		objects := &fakeObjects{files: map[string][]byte{
			"transcriptions/42.txt": []byte("in the year 476"),
		}}
		h := NewEpisodesHandler(db, objects, &fakeStarter{}, &fakeQueue{})

		req := httptest.NewRequest("GET", "/episodes/42", nil)
		rec := serve(h.Routes, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var body struct {
			Episode       database.Episode        `json:"episode"`
			Podcast       database.Podcast        `json:"podcast"`
			Transcription *database.Transcription `json:"transcription"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("response is not valid JSON: %v", err)
		}
		if body.Episode.Title != "The fall of Rome" || body.Podcast.Title != "History Extra podcast" {
			t.Errorf("unexpected payload: %+v", body)
		}
		if body.Transcription == nil || body.Transcription.Content != "in the year 476" {
			t.Errorf("expected inlined transcript, got %+v", body.Transcription)
		}
	})

	t.Run("missing_transcript_object_is_tolerated", func(t *testing.T) {
		db := newFakeDB()
		db.podcasts[7] = &database.Podcast{ID: 7}
		db.episodes[42] = &database.Episode{ID: 42, PodcastID: 7}
		db.active[42] = &database.Transcription{
			ID: 5, EpisodeID: 42, Status: database.StatusCompleted,
			StoragePath: strPtr("transcriptions/42.txt"),
		}
		h := NewEpisodesHandler(db, &fakeObjects{}, &fakeStarter{}, &fakeQueue{})

		req := httptest.NewRequest("GET", "/episodes/42", nil)
		rec := serve(h.Routes, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var body struct {
			Transcription *database.Transcription `json:"transcription"`
		}
		json.Unmarshal(rec.Body.Bytes(), &body)
		if body.Transcription == nil || body.Transcription.Content != "" {
			t.Errorf("expected record without content, got %+v", body.Transcription)
		}
	})

	t.Run("no_transcription_is_null", func(t *testing.T) {
		db := newFakeDB()
		db.podcasts[7] = &database.Podcast{ID: 7}
		db.episodes[42] = &database.Episode{ID: 42, PodcastID: 7}
		h := NewEpisodesHandler(db, &fakeObjects{}, &fakeStarter{}, &fakeQueue{})

		req := httptest.NewRequest("GET", "/episodes/42", nil)
		rec := serve(h.Routes, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var body map[string]json.RawMessage
		json.Unmarshal(rec.Body.Bytes(), &body)
		if string(body["transcription"]) != "null" {
			t.Errorf("expected null transcription, got %s", body["transcription"])
		}
	})

	t.Run("unknown_episode_returns_404", func(t *testing.T) {
		h := NewEpisodesHandler(newFakeDB(), &fakeObjects{}, &fakeStarter{}, &fakeQueue{})
		req := httptest.NewRequest("GET", "/episodes/999", nil)
		rec := serve(h.Routes, req)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestEpisodesTranscribe(t *testing.T) {
	t.Run("enqueues_and_returns_202", func(t *testing.T) {
		db := newFakeDB()
		db.episodes[42] = &database.Episode{ID: 42, PodcastID: 7, AudioURL: "https://audio/42.mp3"}
		starter := &fakeStarter{created: &database.Transcription{ID: 5, EpisodeID: 42, Status: database.StatusProcessing}}
		queue := &fakeQueue{}
		h := NewEpisodesHandler(db, &fakeObjects{}, starter, queue)

		req := httptest.NewRequest("POST", "/episodes/42/transcribe", nil)
		rec := serve(h.Routes, req)
		if rec.Code != http.StatusAccepted {
			t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
		}

		if len(queue.jobs) != 1 {
			t.Fatalf("expected 1 enqueued job, got %d", len(queue.jobs))
		}
		job := queue.jobs[0]
		if job.TranscriptionID != 5 || job.EpisodeID != 42 || job.AudioURL != "https://audio/42.mp3" {
			t.Errorf("unexpected job: %+v", job)
		}

		var body struct {
			Message         string `json:"message"`
			TranscriptionID int64  `json:"transcriptionId"`
		}
		json.Unmarshal(rec.Body.Bytes(), &body)
		if body.Message != "Transcription started" || body.TranscriptionID != 5 {
			t.Errorf("unexpected payload: %+v", body)
		}
	})

	t.Run("existing_transcription_short_circuits_200", func(t *testing.T) {
		db := newFakeDB()
		db.episodes[42] = &database.Episode{ID: 42}
		db.active[42] = &database.Transcription{ID: 5, EpisodeID: 42, Status: database.StatusProcessing}
		queue := &fakeQueue{}
		h := NewEpisodesHandler(db, &fakeObjects{}, &fakeStarter{}, queue)

		req := httptest.NewRequest("POST", "/episodes/42/transcribe", nil)
		rec := serve(h.Routes, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if len(queue.jobs) != 0 {
			t.Errorf("no job should be enqueued, got %d", len(queue.jobs))
		}
		var body struct {
			Message string `json:"message"`
		}
		json.Unmarshal(rec.Body.Bytes(), &body)
		if body.Message != "Transcription already exists or is in progress" {
			t.Errorf("unexpected message %q", body.Message)
		}
	})

	t.Run("lost_creation_race_returns_409", func(t *testing.T) {
		db := newFakeDB()
		db.episodes[42] = &database.Episode{ID: 42}
		h := NewEpisodesHandler(db, &fakeObjects{}, &fakeStarter{err: database.ErrConflict}, &fakeQueue{})

		req := httptest.NewRequest("POST", "/episodes/42/transcribe", nil)
		rec := serve(h.Routes, req)
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
	})

	t.Run("full_queue_fails_row_and_returns_503", func(t *testing.T) {
		db := newFakeDB()
		db.episodes[42] = &database.Episode{ID: 42}
		starter := &fakeStarter{created: &database.Transcription{ID: 5, EpisodeID: 42, Status: database.StatusProcessing}}
		h := NewEpisodesHandler(db, &fakeObjects{}, starter, &fakeQueue{full: true})

		req := httptest.NewRequest("POST", "/episodes/42/transcribe", nil)
		rec := serve(h.Routes, req)
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}
		if len(db.failedEpisodes) != 1 || db.failedEpisodes[0] != 42 {
			t.Errorf("processing row should be marked failed, got %v", db.failedEpisodes)
		}
	})

	t.Run("unknown_episode_returns_404", func(t *testing.T) {
		h := NewEpisodesHandler(newFakeDB(), &fakeObjects{}, &fakeStarter{}, &fakeQueue{})
		req := httptest.NewRequest("POST", "/episodes/999/transcribe", nil)
		rec := serve(h.Routes, req)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}
