package workflow

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Job is one transcription request handed to the worker pool. The processing
// row is created by the HTTP handler before the job is enqueued, so the
// caller already holds a transcription id to poll.
type Job struct {
	TranscriptionID int64
	EpisodeID       int64
	AudioURL        string
}

// JobRunner executes one transcription job. *Transcriber implements it.
type JobRunner interface {
	Run(ctx context.Context, job Job) error
}

// PoolStats reports the current state of the transcription queue.
type PoolStats struct {
	Pending   int   `json:"pending"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
}

// WorkerPoolOptions configures the transcription worker pool.
type WorkerPoolOptions struct {
	Runner     JobRunner
	Workers    int
	QueueSize  int
	JobTimeout time.Duration
	Log        zerolog.Logger
}

// WorkerPool runs transcription jobs in the background so HTTP handlers can
// enqueue and return immediately instead of holding a request open for the
// duration of an AI call.
type WorkerPool struct {
	jobs   chan Job
	runner JobRunner
	opts   WorkerPoolOptions
	log    zerolog.Logger
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	completed atomic.Int64
	failed    atomic.Int64
}

// NewWorkerPool creates a new transcription worker pool.
func NewWorkerPool(opts WorkerPoolOptions) *WorkerPool {
	if opts.JobTimeout <= 0 {
		opts.JobTimeout = 30 * time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerPool{
		jobs:   make(chan Job, opts.QueueSize),
		runner: opts.Runner,
		opts:   opts,
		log:    opts.Log,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start() {
	for i := 0; i < wp.opts.Workers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
	wp.log.Info().Int("workers", wp.opts.Workers).Int("queue_size", wp.opts.QueueSize).Msg("transcription worker pool started")
}

// Stop signals workers to drain and waits for completion.
func (wp *WorkerPool) Stop() {
	close(wp.jobs)
	wp.wg.Wait()
	wp.cancel()
	wp.log.Info().
		Int64("completed", wp.completed.Load()).
		Int64("failed", wp.failed.Load()).
		Msg("transcription worker pool stopped")
}

// Enqueue adds a job to the transcription queue. Returns false if the queue is full.
func (wp *WorkerPool) Enqueue(j Job) bool {
	select {
	case wp.jobs <- j:
		return true
	default:
		return false
	}
}

// Stats returns current queue statistics.
func (wp *WorkerPool) Stats() PoolStats {
	return PoolStats{
		Pending:   len(wp.jobs),
		Completed: wp.completed.Load(),
		Failed:    wp.failed.Load(),
	}
}

// Pending returns the number of queued jobs (metrics collector hook).
func (wp *WorkerPool) Pending() int { return len(wp.jobs) }

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()
	log := wp.log.With().Int("worker", id).Logger()

	for job := range wp.jobs {
		ctx, cancel := context.WithTimeout(wp.ctx, wp.opts.JobTimeout)
		err := wp.runner.Run(ctx, job)
		cancel()

		if err != nil {
			wp.failed.Add(1)
			log.Warn().Err(err).
				Int64("episode_id", job.EpisodeID).
				Int64("transcription_id", job.TranscriptionID).
				Msg("transcription failed")
		} else {
			wp.completed.Add(1)
		}
	}
}
