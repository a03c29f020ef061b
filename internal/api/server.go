package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/snarg/podscribe/internal/config"
	"github.com/snarg/podscribe/internal/metrics"
)

// Handlers bundles the route handlers the server mounts.
type Handlers struct {
	Podcasts       *PodcastsHandler
	Episodes       *EpisodesHandler
	Transcriptions *TranscriptionsHandler
	User           *UserHandler
	Health         *HealthHandler
	Auth           Authenticator
}

type Server struct {
	http *http.Server
	log  zerolog.Logger
}

func NewServer(cfg *config.Config, h Handlers, log zerolog.Logger) *Server {
	r := chi.NewRouter()

	// Global middleware
	r.Use(RequestID)
	r.Use(Recoverer)
	r.Use(Logger(log))
	r.Use(metrics.InstrumentHandler)
	r.Use(CORS)

	// Health and metrics — no auth
	r.Get("/api/health", h.Health.ServeHTTP)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		h.Podcasts.Routes(r)
		h.Episodes.Routes(r)
		h.Transcriptions.Routes(r)

		// Bookmark routes require a Supabase user token
		r.Group(func(r chi.Router) {
			r.Use(UserAuth(h.Auth))
			h.User.Routes(r)
		})
	})

	return &Server{
		http: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      r,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		log: log,
	}
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("http server starting")
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("http server shutting down")
	return s.http.Shutdown(ctx)
}
