package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"smarthire/resume-matcher/internal/config"
	"smarthire/resume-matcher/internal/logger"
	"smarthire/resume-matcher/internal/repositories"
	"smarthire/resume-matcher/internal/services"
)

// App holds the long-lived components shared by the API server and the CLI.
type App struct {
	Config    *config.Config
	Log       *zap.Logger
	Redis     *redis.Client
	Evaluator services.EvaluatorService
	EvalRepo  repositories.EvaluationRepository
	Worker    services.Worker
}

// Build wires every component from configuration. The embedding model is loaded lazily
// on first use and shared afterwards.
func Build(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	log = logger.OrNop(log)

	policy, err := services.ParseOutOfRangePolicy(cfg.Scoring.OutOfRange)
	if err != nil {
		return nil, err
	}

	redisClient, err := config.InitRedis(ctx, cfg)
	if err != nil {
		// The cache is optional; run without it.
		log.Warn("embedding cache disabled", zap.Error(err))
		redisClient = nil
	}

	embedder := buildEmbedder(ctx, cfg, redisClient, log)

	generator, err := buildReportGenerator(ctx, cfg, log)
	if err != nil {
		if redisClient != nil {
			_ = redisClient.Close()
		}
		return nil, err
	}

	evaluator := services.NewEvaluatorService(
		services.NewPDFParserService(),
		services.NewSimilarityScorer(embedder),
		generator,
		services.NewScoreAggregator(policy),
		log.Named("pipeline"),
	)

	evalRepo := repositories.NewEvaluationRepository()

	worker := services.NewWorker(evalRepo, evaluator, services.WorkerOptions{
		Concurrency: cfg.Worker.Concurrency,
		QueueSize:   cfg.Worker.QueueSize,
		ResultTTL:   cfg.Worker.ResultTTL,
	}, log.Named("worker"))

	log.Info("components initialized",
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("llm_model", cfg.LLM.Model),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.Bool("embedding_cache", redisClient != nil),
		zap.String("score_out_of_range", string(policy)),
	)

	return &App{
		Config:    cfg,
		Log:       log,
		Redis:     redisClient,
		Evaluator: evaluator,
		EvalRepo:  evalRepo,
		Worker:    worker,
	}, nil
}

// Close releases external connections.
func (a *App) Close() error {
	if a.Redis != nil {
		return a.Redis.Close()
	}
	return nil
}

func buildEmbedder(ctx context.Context, cfg *config.Config, redisClient *redis.Client, log *zap.Logger) services.Embedder {
	var (
		name string
		init func() (services.Embedder, error)
	)

	switch cfg.Embedding.Provider {
	case config.ProviderGemini:
		name = fmt.Sprintf("gemini:%s:%d", cfg.Embedding.Model, cfg.Embedding.Dimensions)
		init = func() (services.Embedder, error) {
			return services.NewGeminiEmbedder(ctx, cfg.Gemini.APIKey, cfg.Embedding.Model, cfg.Embedding.Dimensions)
		}
	default:
		name = fmt.Sprintf("local-hash:%d", cfg.Embedding.Dimensions)
		init = func() (services.Embedder, error) {
			return services.NewLocalEmbedder(cfg.Embedding.Dimensions), nil
		}
	}

	var embedder services.Embedder = services.NewLazyEmbedder(name, init)
	if redisClient != nil {
		embedder = services.NewRedisEmbeddingCache(redisClient, embedder, cfg.Redis.EmbeddingTTL, log.Named("embedding_cache"))
	}
	return embedder
}

func buildReportGenerator(ctx context.Context, cfg *config.Config, log *zap.Logger) (services.ReportGenerator, error) {
	policy := services.RetryPolicy{
		Timeout:        cfg.LLM.Timeout,
		MaxAttempts:    cfg.LLM.MaxAttempts,
		InitialBackoff: cfg.LLM.BackoffInitial,
		MaxBackoff:     cfg.LLM.BackoffMax,
	}

	switch cfg.LLM.Provider {
	case config.ProviderGemini:
		return services.NewGeminiReportGenerator(ctx, services.GeminiConfig{
			APIKey:      cfg.Gemini.APIKey,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
		}, policy, log.Named("gemini"))
	default:
		return services.NewGroqReportGenerator(services.GroqConfig{
			APIKey:      cfg.Groq.APIKey,
			BaseURL:     cfg.Groq.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
		}, policy, log.Named("groq"))
	}
}
