// Package workflow implements the transcription and summarization pipelines.
package workflow

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/snarg/podscribe/internal/database"
	"github.com/snarg/podscribe/internal/metrics"
)

// TranscriptionStore is the database surface the transcription pipeline needs.
// *database.DB satisfies it; tests substitute fakes.
type TranscriptionStore interface {
	CreateTranscription(ctx context.Context, episodeID int64) (*database.Transcription, error)
	CompleteTranscription(ctx context.Context, id int64, storagePath string) error
	FailTranscription(ctx context.Context, episodeID int64) error
}

// ObjectStore persists and retrieves transcript text objects.
type ObjectStore interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) error
	Download(ctx context.Context, path string) ([]byte, error)
}

// SpeechToText converts a local audio file into a plain-text transcript.
type SpeechToText interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// Transcriber runs the transcription pipeline for one episode:
// download audio, transcribe, store transcript, record completion.
type Transcriber struct {
	db      TranscriptionStore
	objects ObjectStore
	stt     SpeechToText
	client  *http.Client
	tempDir string
	log     zerolog.Logger
}

// TranscriberOptions configures a Transcriber.
type TranscriberOptions struct {
	DB      TranscriptionStore
	Objects ObjectStore
	STT     SpeechToText
	Client  *http.Client // audio download client
	TempDir string
	Log     zerolog.Logger
}

func NewTranscriber(opts TranscriberOptions) *Transcriber {
	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}
	tempDir := opts.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &Transcriber{
		db:      opts.DB,
		objects: opts.Objects,
		stt:     opts.STT,
		client:  client,
		tempDir: tempDir,
		log:     opts.Log,
	}
}

// Begin creates the processing row for an episode. The storage-level
// uniqueness constraint arbitrates concurrent starts: losers get
// database.ErrConflict and nothing downstream runs for them.
func (t *Transcriber) Begin(ctx context.Context, episodeID int64) (*database.Transcription, error) {
	return t.db.CreateTranscription(ctx, episodeID)
}

// StoragePath returns the deterministic object path for an episode's transcript.
func StoragePath(episodeID int64) string {
	return fmt.Sprintf("transcriptions/%d.txt", episodeID)
}

// Run executes the pipeline for a job whose processing row already exists.
// On any failure the row is marked failed and the original error is returned;
// terminal states are never revisited.
func (t *Transcriber) Run(ctx context.Context, job Job) error {
	if err := t.run(ctx, job); err != nil {
		metrics.TranscriptionsTotal.WithLabelValues("failed").Inc()
		// Mark failed even if ctx is already dead.
		if ferr := t.db.FailTranscription(context.WithoutCancel(ctx), job.EpisodeID); ferr != nil {
			t.log.Error().Err(ferr).Int64("episode_id", job.EpisodeID).
				Msg("could not mark transcription failed")
		}
		return err
	}
	metrics.TranscriptionsTotal.WithLabelValues("completed").Inc()
	return nil
}

func (t *Transcriber) run(ctx context.Context, job Job) error {
	audio, err := t.downloadAudio(ctx, job.AudioURL)
	if err != nil {
		return fmt.Errorf("download audio: %w", err)
	}

	// The STT client wants a readable file, not a buffer. The temp file is
	// removed on every exit path, success or failure.
	tempPath := filepath.Join(t.tempDir, fmt.Sprintf("audio-%d.mp3", job.EpisodeID))
	if err := os.WriteFile(tempPath, audio, 0o600); err != nil {
		return fmt.Errorf("write temp audio: %w", err)
	}
	defer os.Remove(tempPath)

	text, err := t.stt.Transcribe(ctx, tempPath)
	if err != nil {
		return fmt.Errorf("transcribe: %w", err)
	}

	path := StoragePath(job.EpisodeID)
	if err := t.objects.Upload(ctx, path, []byte(text), "text/plain"); err != nil {
		return fmt.Errorf("store transcript: %w", err)
	}

	if err := t.db.CompleteTranscription(ctx, job.TranscriptionID, path); err != nil {
		return fmt.Errorf("complete transcription: %w", err)
	}

	t.log.Info().
		Int64("episode_id", job.EpisodeID).
		Int64("transcription_id", job.TranscriptionID).
		Int("transcript_bytes", len(text)).
		Msg("transcription completed")
	return nil
}

// downloadAudio fetches the full audio body into memory with a plain GET.
func (t *Transcriber) downloadAudio(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
