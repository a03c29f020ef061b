package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/snarg/podscribe/internal/ai"
	"github.com/snarg/podscribe/internal/api"
	"github.com/snarg/podscribe/internal/config"
	"github.com/snarg/podscribe/internal/database"
	"github.com/snarg/podscribe/internal/directory"
	"github.com/snarg/podscribe/internal/metrics"
	"github.com/snarg/podscribe/internal/storage"
	"github.com/snarg/podscribe/internal/workflow"
)

var version = "dev"

func main() {
	startTime := time.Now()

	var overrides config.Overrides
	flag.StringVar(&overrides.EnvFile, "env-file", "", "path to .env file (default .env)")
	flag.StringVar(&overrides.HTTPAddr, "addr", "", "HTTP listen address (overrides HTTP_ADDR)")
	flag.StringVar(&overrides.LogLevel, "log-level", "", "log level (overrides LOG_LEVEL)")
	flag.StringVar(&overrides.DatabaseURL, "database-url", "", "PostgreSQL DSN (overrides DATABASE_URL)")
	flag.StringVar(&overrides.TempDir, "temp-dir", "", "working directory for audio downloads (overrides TEMP_DIR)")
	flag.Parse()

	// Config
	cfg, err := config.Load(overrides)
	if err != nil {
		early := zerolog.New(os.Stderr).With().Timestamp().Logger()
		early.Fatal().Err(err).Msg("failed to load config")
	}

	// Logger
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).With().Timestamp().Logger().Level(level)
	log.Info().Str("version", version).Msg("podscribe starting")

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	dbLog := log.With().Str("component", "database").Logger()
	db, err := database.Connect(ctx, cfg.DatabaseURL, dbLog)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := db.InitSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize schema")
	}

	// Supabase object storage + auth
	storageLog := log.With().Str("component", "storage").Logger()
	objects, err := storage.New(cfg.SupabaseURL, cfg.SupabaseServiceKey, cfg.StorageBucket, storageLog)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create supabase client")
	}

	// External APIs
	dir := directory.NewClient(cfg.PodcastIndexKey, cfg.PodcastIndexSecret, 30*time.Second)
	openai := ai.NewClient(cfg.OpenAIAPIKey, cfg.WhisperModel, cfg.ChatModel, cfg.OpenAITimeout)

	// Transcription pipeline + worker pool
	transcriber := workflow.NewTranscriber(workflow.TranscriberOptions{
		DB:      db,
		Objects: objects,
		STT:     openai,
		Client:  &http.Client{Timeout: cfg.AudioDownloadTimeout},
		TempDir: cfg.TempDir,
		Log:     log.With().Str("component", "transcriber").Logger(),
	})
	pool := workflow.NewWorkerPool(workflow.WorkerPoolOptions{
		Runner:    transcriber,
		Workers:   cfg.TranscribeWorkers,
		QueueSize: cfg.TranscribeQueueSize,
		Log:       log.With().Str("component", "worker").Logger(),
	})
	pool.Start()

	summarizer := workflow.NewSummarizer(db, objects, openai,
		log.With().Str("component", "summarizer").Logger())

	prometheus.MustRegister(metrics.NewCollector(db.Pool, pool))

	// HTTP Server
	httpLog := log.With().Str("component", "http").Logger()
	srv := api.NewServer(cfg, api.Handlers{
		Podcasts:       api.NewPodcastsHandler(db, dir),
		Episodes:       api.NewEpisodesHandler(db, objects, transcriber, pool),
		Transcriptions: api.NewTranscriptionsHandler(db, objects, summarizer),
		User:           api.NewUserHandler(db),
		Health:         api.NewHealthHandler(db, pool, version, startTime),
		Auth:           objects,
	}, httpLog)

	// Start HTTP server in background
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	// Wait for shutdown signal or server error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server error")
		}
	}

	// Graceful shutdown with 10s timeout; stop accepting requests first,
	// then drain the transcription queue.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}
	pool.Stop()

	log.Info().Msg("podscribe stopped")
}
