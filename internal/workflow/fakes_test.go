package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/snarg/podscribe/internal/database"
)

// fakeStore implements TranscriptionStore and SummaryStore in memory.
type fakeStore struct {
	mu             sync.Mutex
	nextID         int64
	transcriptions map[int64]*database.Transcription // by transcription id
	summaries      map[int64]*database.Summary       // by transcription id

	createErr       error
	completeErr     error
	failErr         error
	summaryErr      error // returned once by CreateSummary, then cleared
	hideSummaryOnce bool  // next GetSummaryByTranscription misses even if a row exists
	failedMarks     int
	summaryCalls    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		transcriptions: make(map[int64]*database.Transcription),
		summaries:      make(map[int64]*database.Summary),
	}
}

func (s *fakeStore) CreateTranscription(ctx context.Context, episodeID int64) (*database.Transcription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return nil, s.createErr
	}
	for _, t := range s.transcriptions {
		if t.EpisodeID == episodeID && t.Status != database.StatusFailed {
			return nil, database.ErrConflict
		}
	}
	s.nextID++
	t := &database.Transcription{
		ID:        s.nextID,
		EpisodeID: episodeID,
		Status:    database.StatusProcessing,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	s.transcriptions[t.ID] = t
	return t, nil
}

func (s *fakeStore) GetTranscription(ctx context.Context, id int64) (*database.Transcription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transcriptions[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *fakeStore) CompleteTranscription(ctx context.Context, id int64, storagePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.completeErr != nil {
		return s.completeErr
	}
	t, ok := s.transcriptions[id]
	if !ok || t.Status != database.StatusProcessing {
		return database.ErrNotFound
	}
	t.Status = database.StatusCompleted
	t.StoragePath = &storagePath
	t.UpdatedAt = time.Now()
	return nil
}

func (s *fakeStore) FailTranscription(ctx context.Context, episodeID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	s.failedMarks++
	for _, t := range s.transcriptions {
		if t.EpisodeID == episodeID && t.Status == database.StatusProcessing {
			t.Status = database.StatusFailed
			t.UpdatedAt = time.Now()
		}
	}
	return nil
}

func (s *fakeStore) GetSummaryByTranscription(ctx context.Context, transcriptionID int64) (*database.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hideSummaryOnce {
		s.hideSummaryOnce = false
		return nil, database.ErrNotFound
	}
	sm, ok := s.summaries[transcriptionID]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *sm
	return &cp, nil
}

func (s *fakeStore) CreateSummary(ctx context.Context, transcriptionID int64, content string) (*database.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaryCalls++
	if s.summaryErr != nil {
		err := s.summaryErr
		s.summaryErr = nil
		return nil, err
	}
	if _, exists := s.summaries[transcriptionID]; exists {
		return nil, database.ErrConflict
	}
	s.nextID++
	sm := &database.Summary{
		ID:              s.nextID,
		TranscriptionID: transcriptionID,
		Content:         content,
		CreatedAt:       time.Now(),
	}
	s.summaries[transcriptionID] = sm
	cp := *sm
	return &cp, nil
}

// seedTranscription adds a transcription in the given state.
func (s *fakeStore) seedTranscription(episodeID int64, status string, storagePath *string) *database.Transcription {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	t := &database.Transcription{
		ID:          s.nextID,
		EpisodeID:   episodeID,
		Status:      status,
		StoragePath: storagePath,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	s.transcriptions[t.ID] = t
	return t
}

// fakeObjects is an in-memory ObjectStore.
type fakeObjects struct {
	mu          sync.Mutex
	objects     map[string][]byte
	uploadErr   error
	downloadErr error
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: make(map[string][]byte)}
}

func (o *fakeObjects) Upload(ctx context.Context, path string, data []byte, contentType string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.uploadErr != nil {
		return o.uploadErr
	}
	o.objects[path] = data
	return nil
}

func (o *fakeObjects) Download(ctx context.Context, path string) ([]byte, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.downloadErr != nil {
		return nil, o.downloadErr
	}
	data, ok := o.objects[path]
	if !ok {
		return nil, fmt.Errorf("object not found: %s", path)
	}
	return data, nil
}

// fakeSTT returns a canned transcript or error.
type fakeSTT struct {
	text string
	err  error
}

func (f *fakeSTT) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

// fakeChat returns a canned summary or error.
type fakeChat struct {
	summary string
	err     error
	calls   int
}

func (f *fakeChat) Summarize(ctx context.Context, transcript string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.summary, nil
}
