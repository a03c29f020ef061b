package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/snarg/podscribe/internal/database"
	"github.com/snarg/podscribe/internal/directory"
	"github.com/snarg/podscribe/internal/workflow"
)

// fakeDB is an in-memory stand-in for *database.DB covering the store
// interfaces the handlers consume.
type fakeDB struct {
	podcasts       map[int64]*database.Podcast
	episodes       map[int64]*database.Episode
	transcriptions map[int64]*database.Transcription // keyed by transcription id
	active         map[int64]*database.Transcription // keyed by episode id
	saved          map[uuid.UUID][]database.SavedEpisode

	insertedPodcasts []database.Podcast
	insertedEpisodes []database.Episode
	savedCalls       []int64
	failedEpisodes   []int64

	insertErr  error
	listErr    error
	saveErr    error
	healthErr  error
	failErr    error
	activeErr  error
	podcastErr error
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		podcasts:       make(map[int64]*database.Podcast),
		episodes:       make(map[int64]*database.Episode),
		transcriptions: make(map[int64]*database.Transcription),
		active:         make(map[int64]*database.Transcription),
		saved:          make(map[uuid.UUID][]database.SavedEpisode),
	}
}

func (f *fakeDB) InsertPodcastIfNew(ctx context.Context, p *database.Podcast) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.insertedPodcasts = append(f.insertedPodcasts, *p)
	return nil
}

func (f *fakeDB) GetPodcast(ctx context.Context, id int64) (*database.Podcast, error) {
	if f.podcastErr != nil {
		return nil, f.podcastErr
	}
	p, ok := f.podcasts[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return p, nil
}

func (f *fakeDB) InsertEpisodeIfNew(ctx context.Context, e *database.Episode) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.insertedEpisodes = append(f.insertedEpisodes, *e)
	return nil
}

func (f *fakeDB) ListEpisodesByPodcast(ctx context.Context, podcastID int64) ([]database.Episode, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []database.Episode
	for _, e := range f.episodes {
		if e.PodcastID == podcastID {
			out = append(out, *e)
		}
	}
	for _, e := range f.insertedEpisodes {
		if e.PodcastID == podcastID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeDB) GetEpisode(ctx context.Context, id int64) (*database.Episode, error) {
	e, ok := f.episodes[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return e, nil
}

func (f *fakeDB) GetActiveTranscription(ctx context.Context, episodeID int64) (*database.Transcription, error) {
	if f.activeErr != nil {
		return nil, f.activeErr
	}
	t, ok := f.active[episodeID]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeDB) GetTranscription(ctx context.Context, id int64) (*database.Transcription, error) {
	t, ok := f.transcriptions[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeDB) FailTranscription(ctx context.Context, episodeID int64) error {
	if f.failErr != nil {
		return f.failErr
	}
	f.failedEpisodes = append(f.failedEpisodes, episodeID)
	return nil
}

func (f *fakeDB) SaveUserEpisode(ctx context.Context, userID uuid.UUID, episodeID int64) (*database.UserEpisode, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.savedCalls = append(f.savedCalls, episodeID)
	return &database.UserEpisode{ID: 1, UserID: userID, EpisodeID: episodeID}, nil
}

func (f *fakeDB) ListUserEpisodes(ctx context.Context, userID uuid.UUID) ([]database.SavedEpisode, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.saved[userID], nil
}

func (f *fakeDB) HealthCheck(ctx context.Context) error { return f.healthErr }

// fakeDirectory returns canned directory results.
type fakeDirectory struct {
	podcasts []directory.Podcast
	episodes []directory.Episode
	err      error
}

func (f *fakeDirectory) Search(ctx context.Context, query string) ([]directory.Podcast, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.podcasts, nil
}

func (f *fakeDirectory) EpisodesByFeedID(ctx context.Context, feedID string) ([]directory.Episode, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.episodes, nil
}

// fakeObjects serves transcript text from a map.
type fakeObjects struct {
	files map[string][]byte
}

func (f *fakeObjects) Download(ctx context.Context, path string) ([]byte, error) {
	data, ok := f.files[path]
	if !ok {
		return nil, fmt.Errorf("object not found: %s", path)
	}
	return data, nil
}

// fakeStarter simulates workflow.Transcriber.Begin.
type fakeStarter struct {
	created *database.Transcription
	err     error
}

func (f *fakeStarter) Begin(ctx context.Context, episodeID int64) (*database.Transcription, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.created, nil
}

// fakeQueue records enqueued jobs; full simulates a saturated pool.
type fakeQueue struct {
	jobs []workflow.Job
	full bool
}

func (f *fakeQueue) Enqueue(j workflow.Job) bool {
	if f.full {
		return false
	}
	f.jobs = append(f.jobs, j)
	return true
}

// fakeSummarizer simulates workflow.Summarizer.Run.
type fakeSummarizer struct {
	summary *database.Summary
	created bool
	err     error
}

func (f *fakeSummarizer) Run(ctx context.Context, transcriptionID int64) (*database.Summary, bool, error) {
	if f.err != nil {
		return nil, false, f.err
	}
	return f.summary, f.created, nil
}

// fakeAuth maps one token to one user id.
type fakeAuth struct {
	token  string
	userID uuid.UUID
}

func (f *fakeAuth) UserFromToken(ctx context.Context, token string) (uuid.UUID, error) {
	if token != f.token {
		return uuid.Nil, errors.New("invalid token")
	}
	return f.userID, nil
}

// serve routes the request through a chi router so URL params resolve.
func serve(register func(chi.Router), req *http.Request) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	register(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func strPtr(s string) *string { return &s }
