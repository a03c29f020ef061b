package config

import (
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required"`

	SupabaseURL        string `env:"SUPABASE_URL,required"`
	SupabaseServiceKey string `env:"SUPABASE_SERVICE_ROLE_KEY,required"`
	SupabaseAnonKey    string `env:"SUPABASE_ANON_KEY"`
	StorageBucket      string `env:"STORAGE_BUCKET" envDefault:"podcast-data"`

	PodcastIndexKey    string `env:"PODCAST_INDEX_API_KEY,required"`
	PodcastIndexSecret string `env:"PODCAST_INDEX_API_SECRET,required"`

	OpenAIAPIKey  string        `env:"OPENAI_API_KEY,required"`
	WhisperModel  string        `env:"WHISPER_MODEL" envDefault:"whisper-1"`
	ChatModel     string        `env:"CHAT_MODEL" envDefault:"gpt-3.5-turbo"`
	OpenAITimeout time.Duration `env:"OPENAI_TIMEOUT" envDefault:"10m"`

	PublicURL string `env:"PUBLIC_URL"`

	TempDir              string        `env:"TEMP_DIR" envDefault:"/tmp"`
	TranscribeWorkers    int           `env:"TRANSCRIBE_WORKERS" envDefault:"2"`
	TranscribeQueueSize  int           `env:"TRANSCRIBE_QUEUE_SIZE" envDefault:"32"`
	AudioDownloadTimeout time.Duration `env:"AUDIO_DOWNLOAD_TIMEOUT" envDefault:"5m"`

	HTTPAddr     string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"5s"`
	// Summarization runs in-request against the chat API, so the write
	// timeout has to cover a full chat completion.
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"120s"`
	IdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Overrides holds CLI flag values that take priority over env vars.
type Overrides struct {
	EnvFile     string
	HTTPAddr    string
	LogLevel    string
	DatabaseURL string
	TempDir     string
}

// Load reads configuration from .env file, environment variables, and CLI overrides.
// Priority: CLI flags > environment variables > .env file > struct defaults.
func Load(overrides Overrides) (*Config, error) {
	// Load .env file (silent if missing)
	envFile := overrides.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		_ = godotenv.Load(envFile)
	}

	// Parse environment variables into config struct
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// Apply CLI overrides (non-empty values win)
	if overrides.HTTPAddr != "" {
		cfg.HTTPAddr = overrides.HTTPAddr
	}
	if overrides.LogLevel != "" {
		cfg.LogLevel = overrides.LogLevel
	}
	if overrides.DatabaseURL != "" {
		cfg.DatabaseURL = overrides.DatabaseURL
	}
	if overrides.TempDir != "" {
		cfg.TempDir = overrides.TempDir
	}

	return cfg, nil
}
