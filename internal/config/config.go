package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	ProviderGroq   = "groq"
	ProviderGemini = "gemini"
	ProviderLocal  = "local"

	defaultGroqModel   = "llama-3.3-70b-versatile"
	defaultGeminiModel = "gemini-2.5-flash"
)

type Config struct {
	Server    ServerConfig
	Log       LogConfig
	LLM       LLMConfig
	Groq      GroqConfig
	Gemini    GeminiConfig
	Embedding EmbeddingConfig
	Redis     RedisConfig
	Worker    WorkerConfig
	Scoring   ScoringConfig
}

type ServerConfig struct {
	Port            string `env:"PORT" envDefault:"3000" validate:"required"`
	Env             string `env:"ENV" envDefault:"development"`
	MaxFileSize     int64  `env:"MAX_FILE_SIZE" envDefault:"10485760" validate:"min=1024"`
	RateLimitPerMin int    `env:"RATE_LIMIT_PER_MIN" envDefault:"30" validate:"min=0"`
}

type LogConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	JSON  bool   `env:"LOG_JSON" envDefault:"false"`
}

type LLMConfig struct {
	Provider       string        `env:"LLM_PROVIDER" envDefault:"groq" validate:"oneof=groq gemini"`
	Model          string        `env:"LLM_MODEL"`
	Temperature    float32       `env:"LLM_TEMPERATURE" envDefault:"0.3" validate:"min=0,max=2"`
	MaxTokens      int           `env:"LLM_MAX_TOKENS" envDefault:"4096" validate:"min=1"`
	Timeout        time.Duration `env:"LLM_TIMEOUT" envDefault:"60s" validate:"min=1s"`
	MaxAttempts    int           `env:"LLM_MAX_ATTEMPTS" envDefault:"3" validate:"min=1,max=10"`
	BackoffInitial time.Duration `env:"LLM_BACKOFF_INITIAL" envDefault:"2s"`
	BackoffMax     time.Duration `env:"LLM_BACKOFF_MAX" envDefault:"20s"`
}

type GroqConfig struct {
	APIKey  string `env:"GROQ_API_KEY"`
	BaseURL string `env:"GROQ_BASE_URL" envDefault:"https://api.groq.com/openai/v1" validate:"url"`
}

type GeminiConfig struct {
	APIKey string `env:"GEMINI_API_KEY"`
}

type EmbeddingConfig struct {
	Provider   string `env:"EMBEDDING_PROVIDER" envDefault:"local" validate:"oneof=local gemini"`
	Model      string `env:"EMBEDDING_MODEL" envDefault:"text-embedding-004"`
	Dimensions int    `env:"EMBEDDING_DIMENSIONS" envDefault:"768" validate:"min=8"`
}

type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	EmbeddingTTL time.Duration `env:"REDIS_EMBEDDING_TTL" envDefault:"24h"`
}

type WorkerConfig struct {
	Concurrency int           `env:"WORKER_CONCURRENCY" envDefault:"3" validate:"min=1"`
	QueueSize   int           `env:"WORKER_QUEUE_SIZE" envDefault:"100" validate:"min=1"`
	ResultTTL   time.Duration `env:"WORKER_RESULT_TTL" envDefault:"1h"`
}

type ScoringConfig struct {
	OutOfRange string `env:"SCORE_OUT_OF_RANGE" envDefault:"reject" validate:"oneof=reject clamp keep"`
}

// Load reads an optional .env file, parses the environment and validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks field constraints and provider credentials.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	switch c.LLM.Provider {
	case ProviderGroq:
		if strings.TrimSpace(c.Groq.APIKey) == "" {
			return errors.New("invalid configuration: GROQ_API_KEY is required when LLM_PROVIDER=groq")
		}
	case ProviderGemini:
		if strings.TrimSpace(c.Gemini.APIKey) == "" {
			return errors.New("invalid configuration: GEMINI_API_KEY is required when LLM_PROVIDER=gemini")
		}
	}

	if c.Embedding.Provider == ProviderGemini && strings.TrimSpace(c.Gemini.APIKey) == "" {
		return errors.New("invalid configuration: GEMINI_API_KEY is required when EMBEDDING_PROVIDER=gemini")
	}

	return nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.LLM.Model) != "" {
		return
	}

	switch c.LLM.Provider {
	case ProviderGemini:
		c.LLM.Model = defaultGeminiModel
	default:
		c.LLM.Model = defaultGroqModel
	}
}

func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Server.Env, "development")
}
