package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeParser struct {
	text string
	err  error
}

func (f *fakeParser) ExtractText(document []byte) (string, error) {
	return f.text, f.err
}

func (f *fakeParser) ExtractTextFromFile(filePath string) (string, error) {
	return f.text, f.err
}

type fakeScorer struct {
	score float64
	err   error

	mu     sync.Mutex
	inputs [2]string
}

func (f *fakeScorer) Similarity(ctx context.Context, a, b string) (float64, error) {
	f.mu.Lock()
	f.inputs = [2]string{a, b}
	f.mu.Unlock()
	return f.score, f.err
}

type fakeGenerator struct {
	report string
	err    error
	delay  time.Duration
	calls  atomic.Int32
}

func (f *fakeGenerator) GenerateReport(ctx context.Context, resume, jobDescription string) (string, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", &GenerationError{Kind: KindTimeout, Provider: "fake", Err: ctx.Err()}
		}
	}
	return f.report, f.err
}

func TestEvaluateTextComplete(t *testing.T) {
	scorer := &fakeScorer{score: 0.71}
	gen := &fakeGenerator{report: "✅ 3/5 Python. ✅ 4.5/5 SQL.\nSuggestions to improve your resume: add metrics."}
	svc := NewEvaluatorService(&fakeParser{}, scorer, gen, nil, nil)

	res, err := svc.EvaluateText(context.Background(), "resume", "job")
	require.NoError(t, err)

	assert.Equal(t, OutcomeComplete, res.Outcome())
	assert.InDelta(t, 0.71, res.Similarity, 1e-9)
	assert.Equal(t, gen.report, res.Report)
	assert.Equal(t, []float64{3, 4.5}, res.Scores)
	assert.True(t, res.Aggregate.Available)
	assert.InDelta(t, 0.75, res.Aggregate.Value, 1e-9)
	assert.Equal(t, [2]string{"resume", "job"}, scorer.inputs)
}

func TestEvaluateSubstitutesPlaceholderOnExtractionFailure(t *testing.T) {
	scorer := &fakeScorer{score: 0.1}
	gen := &fakeGenerator{report: "❌ 1/5 nothing to assess"}
	parser := &fakeParser{err: &ExtractionError{Cause: errors.New("encrypted")}}
	svc := NewEvaluatorService(parser, scorer, gen, nil, nil)

	res, err := svc.Evaluate(context.Background(), []byte("%PDF-broken"), "job")
	require.NoError(t, err)

	var extractionErr *ExtractionError
	require.True(t, errors.As(res.ExtractionErr, &extractionErr))
	assert.Equal(t, ExtractionFailedText, res.ResumeText)
	assert.Equal(t, ExtractionFailedText, scorer.inputs[0])
	assert.Equal(t, OutcomePartial, res.Outcome())
	assert.True(t, res.SimilarityAvailable())
	assert.True(t, res.ReportAvailable())
	assert.InDelta(t, 0.2, res.Aggregate.Value, 1e-9)
}

func TestEvaluateUsesExtractedText(t *testing.T) {
	scorer := &fakeScorer{score: 0.5}
	svc := NewEvaluatorService(&fakeParser{text: "Jane Doe\nGo"}, scorer, &fakeGenerator{report: "5/5"}, nil, nil)

	res, err := svc.Evaluate(context.Background(), []byte("%PDF"), "job")
	require.NoError(t, err)
	assert.NoError(t, res.ExtractionErr)
	assert.Equal(t, "Jane Doe\nGo", res.ResumeText)
}

func TestEvaluateReportFailureKeepsSimilarity(t *testing.T) {
	genErr := &GenerationError{Kind: KindRateLimit, Provider: "fake", StatusCode: 429}
	svc := NewEvaluatorService(&fakeParser{}, &fakeScorer{score: 0.64}, &fakeGenerator{err: genErr}, nil, nil)

	res, err := svc.EvaluateText(context.Background(), "resume", "job")
	require.NoError(t, err)

	assert.True(t, res.SimilarityAvailable())
	assert.InDelta(t, 0.64, res.Similarity, 1e-9)
	assert.False(t, res.ReportAvailable())
	assert.Same(t, genErr, res.ReportErr)
	assert.True(t, errors.Is(res.AggregateErr, ErrReportUnavailable))
	assert.False(t, res.Aggregate.Available)
	assert.Equal(t, OutcomePartial, res.Outcome())
}

func TestEvaluateSimilarityFailureKeepsReport(t *testing.T) {
	scorer := &fakeScorer{err: &EmbeddingError{Op: "embed", Err: errors.New("model missing")}}
	svc := NewEvaluatorService(&fakeParser{}, scorer, &fakeGenerator{report: "4/5"}, nil, nil)

	res, err := svc.EvaluateText(context.Background(), "resume", "job")
	require.NoError(t, err)

	assert.False(t, res.SimilarityAvailable())
	assert.Equal(t, "4/5", res.Report)
	assert.InDelta(t, 0.8, res.Aggregate.Value, 1e-9)
	assert.Equal(t, OutcomePartial, res.Outcome())
}

func TestEvaluateBothBranchesFail(t *testing.T) {
	scorer := &fakeScorer{err: &EmbeddingError{Op: "embed", Err: errors.New("down")}}
	gen := &fakeGenerator{err: &GenerationError{Kind: KindAuth, Provider: "fake"}}
	svc := NewEvaluatorService(&fakeParser{}, scorer, gen, nil, nil)

	res, err := svc.EvaluateText(context.Background(), "resume", "job")
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, res.Outcome())
}

func TestEvaluateNoScoreMarkers(t *testing.T) {
	svc := NewEvaluatorService(&fakeParser{}, &fakeScorer{score: 0.3}, &fakeGenerator{report: "Looks fine."}, nil, nil)

	res, err := svc.EvaluateText(context.Background(), "resume", "job")
	require.NoError(t, err)

	assert.True(t, errors.Is(res.AggregateErr, ErrNoScoreMarkers))
	assert.False(t, res.Aggregate.Available)
	assert.Equal(t, "Looks fine.", res.Report)
	assert.Equal(t, OutcomePartial, res.Outcome())
}

func TestEvaluateAppliesOutOfRangePolicy(t *testing.T) {
	gen := &fakeGenerator{report: "9/5 and 4/5"}
	svc := NewEvaluatorService(&fakeParser{}, &fakeScorer{}, gen, NewScoreAggregator(OutOfRangeReject), nil)

	res, err := svc.EvaluateText(context.Background(), "resume", "job")
	require.NoError(t, err)
	assert.Equal(t, []float64{4}, res.Scores)
	assert.Equal(t, 1, res.DiscardedScores)
}

func TestEvaluateRunsBranchesConcurrently(t *testing.T) {
	block := make(chan struct{})
	scorer := &blockingScorer{release: block}
	gen := &fakeGenerator{report: "5/5"}
	svc := NewEvaluatorService(&fakeParser{}, scorer, &releasingGenerator{inner: gen, release: block}, nil, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = svc.EvaluateText(context.Background(), "resume", "job")
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("similarity and report did not run concurrently")
	}
}

// blockingScorer waits until the report branch has started.
type blockingScorer struct {
	release chan struct{}
}

func (b *blockingScorer) Similarity(ctx context.Context, a, c string) (float64, error) {
	<-b.release
	return 0.5, nil
}

type releasingGenerator struct {
	inner   ReportGenerator
	release chan struct{}
}

func (r *releasingGenerator) GenerateReport(ctx context.Context, resume, jd string) (string, error) {
	close(r.release)
	return r.inner.GenerateReport(ctx, resume, jd)
}

func TestEvaluateRejectsDoneContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gen := &fakeGenerator{report: "5/5"}
	svc := NewEvaluatorService(&fakeParser{}, &fakeScorer{}, gen, nil, nil)

	_, err := svc.EvaluateText(ctx, "resume", "job")
	assert.ErrorIs(t, err, context.Canceled)

	_, err = svc.Evaluate(ctx, []byte("x"), "job")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), gen.calls.Load())
}

func TestEvaluateCancellationPropagates(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	gen := &fakeGenerator{report: "5/5", delay: time.Minute}
	svc := NewEvaluatorService(&fakeParser{}, &fakeScorer{score: 0.4}, gen, nil, nil)

	res, err := svc.EvaluateText(ctx, "resume", "job")
	require.NoError(t, err)

	var genErr *GenerationError
	require.True(t, errors.As(res.ReportErr, &genErr))
	assert.Equal(t, KindTimeout, genErr.Kind)
	assert.True(t, res.SimilarityAvailable())
}

func TestEvaluateEndToEndWithLocalEmbedder(t *testing.T) {
	scorer := NewSimilarityScorer(NewLocalEmbedder(DefaultEmbeddingDimensions))
	gen := &fakeGenerator{report: "✅ 4/5 Python\n✅ 5/5 ML\n⚠️ 3/5 Cloud"}
	svc := NewEvaluatorService(&fakeParser{}, scorer, gen, nil, nil)

	related, err := svc.EvaluateText(context.Background(), pythonResume, pythonJob)
	require.NoError(t, err)
	unrelated, err := svc.EvaluateText(context.Background(), chefResume, pythonJob)
	require.NoError(t, err)

	assert.Greater(t, related.Similarity, unrelated.Similarity)
	assert.InDelta(t, 0.8, related.Aggregate.Value, 1e-9)
	assert.Equal(t, OutcomeComplete, related.Outcome())
}
