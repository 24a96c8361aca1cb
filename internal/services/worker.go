package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"smarthire/resume-matcher/internal/logger"
	"smarthire/resume-matcher/internal/metrics"
	"smarthire/resume-matcher/internal/models"
	"smarthire/resume-matcher/internal/repositories"
)

// ErrQueueFull is returned when a job cannot be accepted right now.
var ErrQueueFull = errors.New("evaluation queue is full or shutting down")

// EvaluationJob carries the inputs of one async evaluation. Exactly one of Document or
// ResumeText is used; Document wins when both are set.
type EvaluationJob struct {
	ID             uuid.UUID
	Document       []byte
	ResumeText     string
	JobDescription string
}

type WorkerOptions struct {
	Concurrency     int
	QueueSize       int
	ResultTTL       time.Duration
	JanitorInterval time.Duration
}

type Worker interface {
	Start(ctx context.Context)
	Stop()
	EnqueueJob(job EvaluationJob) error
}

type worker struct {
	evalRepo         repositories.EvaluationRepository
	evaluatorService EvaluatorService
	jobQueue         chan EvaluationJob
	opts             WorkerOptions
	log              *zap.Logger

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopChan chan struct{}
}

func NewWorker(
	evalRepo repositories.EvaluationRepository,
	evaluatorService EvaluatorService,
	opts WorkerOptions,
	log *zap.Logger,
) Worker {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.QueueSize < 1 {
		opts.QueueSize = 100
	}
	if opts.JanitorInterval <= 0 {
		opts.JanitorInterval = time.Minute
	}

	return &worker{
		evalRepo:         evalRepo,
		evaluatorService: evaluatorService,
		jobQueue:         make(chan EvaluationJob, opts.QueueSize),
		opts:             opts,
		log:              logger.OrNop(log),
		stopChan:         make(chan struct{}),
	}
}

// Start implements Worker.
func (w *worker) Start(ctx context.Context) {
	w.log.Info("starting worker", zap.Int("concurrency", w.opts.Concurrency), zap.Int("queue_size", w.opts.QueueSize))

	for i := 0; i < w.opts.Concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(ctx, i+1)
	}

	if w.opts.ResultTTL > 0 {
		w.wg.Add(1)
		go w.expireFinished()
	}
}

// Stop implements Worker. Jobs already running finish; queued jobs are abandoned.
func (w *worker) Stop() {
	w.stopOnce.Do(func() {
		w.log.Info("stopping worker")
		close(w.stopChan)
	})
	w.wg.Wait()
	w.log.Info("worker stopped")
}

// EnqueueJob implements Worker. It never blocks.
func (w *worker) EnqueueJob(job EvaluationJob) error {
	select {
	case <-w.stopChan:
		return ErrQueueFull
	default:
	}

	select {
	case w.jobQueue <- job:
		metrics.EnqueueJob()
		w.log.Debug("job enqueued", zap.String("evaluation_id", job.ID.String()))
		return nil
	default:
		w.log.Warn("job rejected, queue full", zap.String("evaluation_id", job.ID.String()))
		return ErrQueueFull
	}
}

func (w *worker) processJobs(ctx context.Context, workerID int) {
	defer w.wg.Done()
	log := w.log.With(zap.Int("worker", workerID))

	for {
		select {
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		case job := <-w.jobQueue:
			if err := w.processJob(ctx, log, job); err != nil {
				log.Error("failed to process job", zap.String("evaluation_id", job.ID.String()), zap.Error(err))
			}
		}
	}
}

func (w *worker) processJob(ctx context.Context, log *zap.Logger, job EvaluationJob) error {
	metrics.StartProcessingJob()
	defer metrics.FinishProcessingJob()

	log = log.With(zap.String("evaluation_id", job.ID.String()))

	if err := w.evalRepo.UpdateStatus(job.ID, models.StatusProcessing); err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	log.Info("processing evaluation")

	var (
		result *EvaluationResult
		err    error
	)
	if len(job.Document) > 0 {
		result, err = w.evaluatorService.Evaluate(ctx, job.Document, job.JobDescription)
	} else {
		result, err = w.evaluatorService.EvaluateText(ctx, job.ResumeText, job.JobDescription)
	}

	if err != nil {
		if uerr := w.evalRepo.UpdateError(job.ID, err.Error(), nil); uerr != nil {
			return fmt.Errorf("failed to record error: %w", uerr)
		}
		return fmt.Errorf("failed to evaluate: %w", err)
	}

	resp := result.Response()
	if result.Outcome() == OutcomeFailed {
		msg := fmt.Sprintf("similarity failed: %v; report failed: %v", result.SimilarityErr, result.ReportErr)
		if err := w.evalRepo.UpdateError(job.ID, msg, resp); err != nil {
			return fmt.Errorf("failed to record error: %w", err)
		}
		log.Warn("evaluation failed", zap.String("reason", msg))
		return nil
	}

	if err := w.evalRepo.UpdateResult(job.ID, resp); err != nil {
		return fmt.Errorf("failed to save results: %w", err)
	}

	log.Info("evaluation completed", zap.String("outcome", resp.Outcome))
	return nil
}

// expireFinished removes finished evaluations older than ResultTTL.
func (w *worker) expireFinished() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.opts.JanitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ticker.C:
			if n := w.evalRepo.DeleteFinishedBefore(time.Now().Add(-w.opts.ResultTTL)); n > 0 {
				w.log.Info("expired finished evaluations", zap.Int("count", n))
			}
		}
	}
}
