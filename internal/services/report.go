package services

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"smarthire/resume-matcher/internal/logger"
	"smarthire/resume-matcher/internal/metrics"
)

type ReportGenerator interface {
	GenerateReport(ctx context.Context, resume, jobDescription string) (string, error)
}

// completionClient performs exactly one request. Failures are *GenerationError.
type completionClient interface {
	Provider() string
	Complete(ctx context.Context, prompt string) (string, error)
}

type RetryPolicy struct {
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

type reportGenerator struct {
	client completionClient
	policy RetryPolicy
	log    *zap.Logger
}

func newReportGenerator(client completionClient, policy RetryPolicy, log *zap.Logger) ReportGenerator {
	if policy.Timeout <= 0 {
		policy.Timeout = 60 * time.Second
	}
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if policy.InitialBackoff <= 0 {
		policy.InitialBackoff = 2 * time.Second
	}
	if policy.MaxBackoff < policy.InitialBackoff {
		policy.MaxBackoff = policy.InitialBackoff
	}

	return &reportGenerator{
		client: client,
		policy: policy,
		log:    logger.OrNop(log).With(zap.String("provider", client.Provider())),
	}
}

func (g *reportGenerator) getBackoffConfig(ctx context.Context) backoff.BackOff {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = g.policy.InitialBackoff
	expo.MaxInterval = g.policy.MaxBackoff
	expo.MaxElapsedTime = 0

	return backoff.WithContext(backoff.WithMaxRetries(expo, uint64(g.policy.MaxAttempts-1)), ctx)
}

// GenerateReport sends one prompt and returns the completion text unmodified.
// Retryable failures are retried with exponential backoff up to MaxAttempts.
func (g *reportGenerator) GenerateReport(ctx context.Context, resume, jobDescription string) (string, error) {
	prompt := BuildReportPrompt(resume, jobDescription)
	provider := g.client.Provider()

	var report string
	attempt := 0

	op := func() error {
		attempt++

		attemptCtx, cancel := context.WithTimeout(ctx, g.policy.Timeout)
		defer cancel()

		start := time.Now()
		text, err := g.client.Complete(attemptCtx, prompt)
		elapsed := time.Since(start)

		if err != nil {
			genErr := asGenerationError(provider, err)
			metrics.ObserveLLMRequest(provider, string(genErr.Kind), elapsed.Seconds())
			g.log.Warn("report generation attempt failed",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", g.policy.MaxAttempts),
				zap.String("kind", string(genErr.Kind)),
				zap.Int("status", genErr.StatusCode),
				zap.Duration("elapsed", elapsed),
				zap.Error(genErr.Err),
			)
			if !genErr.Retryable() {
				return backoff.Permanent(genErr)
			}
			return genErr
		}

		metrics.ObserveLLMRequest(provider, "ok", elapsed.Seconds())
		g.log.Debug("report generated",
			zap.Int("attempt", attempt),
			zap.Duration("elapsed", elapsed),
			zap.Int("length", len(text)),
			zap.String("preview", logger.TruncateForLog(text, 200)),
		)
		report = text
		return nil
	}

	if err := backoff.Retry(op, g.getBackoffConfig(ctx)); err != nil {
		return "", asGenerationError(provider, err)
	}

	return report, nil
}

// asGenerationError keeps typed errors and classifies everything else as a transport failure.
func asGenerationError(provider string, err error) *GenerationError {
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr
	}

	return &GenerationError{Kind: transportErrorKind(err), Provider: provider, Err: err}
}

func transportErrorKind(err error) GenerationErrorKind {
	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	return KindNetwork
}
