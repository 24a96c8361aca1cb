package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"smarthire/resume-matcher/internal/logger"
	"smarthire/resume-matcher/internal/metrics"
)

const (
	StageExtraction = "extraction"
	StageSimilarity = "similarity"
	StageReport     = "report"
	StageAggregate  = "aggregate"
)

const (
	OutcomeComplete = "complete"
	OutcomePartial  = "partial"
	OutcomeFailed   = "failed"
)

// EvaluationResult holds every stage's value and error. A stage with a nil error succeeded.
type EvaluationResult struct {
	ResumeText    string
	ExtractionErr error

	Similarity    float64
	SimilarityErr error

	Report    string
	ReportErr error

	Scores          []float64
	DiscardedScores int
	Aggregate       AggregateScore
	AggregateErr    error
}

func (r *EvaluationResult) SimilarityAvailable() bool {
	return r.SimilarityErr == nil
}

func (r *EvaluationResult) ReportAvailable() bool {
	return r.ReportErr == nil
}

// Outcome is complete when every stage succeeded and failed when neither score is available.
func (r *EvaluationResult) Outcome() string {
	switch {
	case r.ExtractionErr == nil && r.SimilarityErr == nil && r.ReportErr == nil && r.AggregateErr == nil:
		return OutcomeComplete
	case r.SimilarityErr != nil && r.ReportErr != nil:
		return OutcomeFailed
	default:
		return OutcomePartial
	}
}

type EvaluatorService interface {
	Evaluate(ctx context.Context, document []byte, jobDescription string) (*EvaluationResult, error)
	EvaluateText(ctx context.Context, resumeText, jobDescription string) (*EvaluationResult, error)
}

type evaluatorService struct {
	pdfParser  PDFParserService
	scorer     SimilarityScorer
	generator  ReportGenerator
	aggregator *ScoreAggregator
	log        *zap.Logger
}

func NewEvaluatorService(
	pdfParser PDFParserService,
	scorer SimilarityScorer,
	generator ReportGenerator,
	aggregator *ScoreAggregator,
	log *zap.Logger,
) EvaluatorService {
	if aggregator == nil {
		aggregator = NewScoreAggregator(OutOfRangeReject)
	}

	return &evaluatorService{
		pdfParser:  pdfParser,
		scorer:     scorer,
		generator:  generator,
		aggregator: aggregator,
		log:        logger.OrNop(log),
	}
}

// Evaluate extracts the resume from a PDF and runs the pipeline. An unreadable document
// is replaced by ExtractionFailedText and reported through ExtractionErr.
func (e *evaluatorService) Evaluate(ctx context.Context, document []byte, jobDescription string) (*EvaluationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &EvaluationResult{}

	e.log.Info("extracting resume text", zap.Int("document_bytes", len(document)))
	text, err := e.pdfParser.ExtractText(document)
	if err != nil {
		e.log.Warn("resume extraction failed, continuing with placeholder text", zap.Error(err))
		metrics.StageFailed(StageExtraction)
		result.ExtractionErr = err
		text = ExtractionFailedText
	}
	result.ResumeText = text

	e.run(ctx, result, jobDescription)
	return result, nil
}

func (e *evaluatorService) EvaluateText(ctx context.Context, resumeText, jobDescription string) (*EvaluationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &EvaluationResult{ResumeText: resumeText}
	e.run(ctx, result, jobDescription)
	return result, nil
}

// run computes similarity and the report concurrently, then aggregates the report's scores.
// Each branch only writes its own fields of result.
func (e *evaluatorService) run(ctx context.Context, result *EvaluationResult, jobDescription string) {
	start := time.Now()
	var wg sync.WaitGroup

	wg.Add(2)

	go func() {
		defer wg.Done()
		score, err := e.scorer.Similarity(ctx, result.ResumeText, jobDescription)
		if err != nil {
			e.log.Error("similarity scoring failed", zap.Error(err))
			metrics.StageFailed(StageSimilarity)
			result.SimilarityErr = err
			return
		}
		result.Similarity = score
		metrics.ObserveSimilarity(score)
		e.log.Info("similarity scored", zap.Float64("similarity", score))
	}()

	go func() {
		defer wg.Done()
		report, err := e.generator.GenerateReport(ctx, result.ResumeText, jobDescription)
		if err != nil {
			e.log.Error("report generation failed", zap.Error(err))
			metrics.StageFailed(StageReport)
			result.ReportErr = err
			return
		}
		result.Report = report
		e.log.Info("report generated", zap.Int("report_length", len(report)))
	}()

	wg.Wait()

	e.aggregate(result)

	outcome := result.Outcome()
	metrics.ObserveEvaluation(outcome)
	e.log.Info("evaluation finished",
		zap.String("outcome", outcome),
		zap.Duration("elapsed", time.Since(start)),
	)
}

func (e *evaluatorService) aggregate(result *EvaluationResult) {
	if result.ReportErr != nil {
		result.AggregateErr = ErrReportUnavailable
		metrics.StageFailed(StageAggregate)
		return
	}

	scores, err := e.aggregator.Evaluate(result.Report)
	result.Scores = scores.Scores
	result.DiscardedScores = scores.Discarded
	result.Aggregate = scores.Aggregate

	if scores.Discarded > 0 {
		e.log.Warn("discarded out-of-range score markers", zap.Int("discarded", scores.Discarded))
	}

	if err != nil {
		e.log.Warn("aggregate score unavailable", zap.Error(err))
		metrics.StageFailed(StageAggregate)
		result.AggregateErr = err
		return
	}

	metrics.ObserveAggregate(scores.Aggregate.Value)
	e.log.Info("report scores aggregated",
		zap.Int("markers", len(scores.Scores)),
		zap.Float64("aggregate", scores.Aggregate.Value),
	)
}
