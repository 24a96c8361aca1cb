package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"smarthire/resume-matcher/internal/logger"
	"smarthire/resume-matcher/internal/models"
	"smarthire/resume-matcher/internal/repositories"
	"smarthire/resume-matcher/internal/services"
)

type EvaluationHandler struct {
	evaluator   services.EvaluatorService
	evalRepo    repositories.EvaluationRepository
	worker      services.Worker
	maxFileSize int64
	log         *zap.Logger
}

func NewEvaluationHandler(
	evaluator services.EvaluatorService,
	evalRepo repositories.EvaluationRepository,
	worker services.Worker,
	maxFileSize int64,
	log *zap.Logger,
) *EvaluationHandler {
	return &EvaluationHandler{
		evaluator:   evaluator,
		evalRepo:    evalRepo,
		worker:      worker,
		maxFileSize: maxFileSize,
		log:         logger.OrNop(log),
	}
}

// HandleEvaluate handles POST /evaluate and runs the pipeline within the request.
func (h *EvaluationHandler) HandleEvaluate(c *fiber.Ctx) error {
	upload, err := readEvaluationUpload(c, h.maxFileSize)
	if err != nil {
		return writeAPIError(c, err)
	}

	h.log.Info("synchronous evaluation requested",
		zap.String("filename", upload.Filename),
		zap.Int("document_bytes", len(upload.Document)),
		zap.Int("job_description_chars", len(upload.JobDescription)),
	)

	result, err := h.evaluator.Evaluate(c.UserContext(), upload.Document, upload.JobDescription)
	if err != nil {
		return writeError(c, fiber.StatusServiceUnavailable, "request_cancelled", "evaluation was cancelled")
	}

	return c.JSON(result.Response())
}

// HandleEnqueue handles POST /evaluations and returns the job id immediately.
func (h *EvaluationHandler) HandleEnqueue(c *fiber.Ctx) error {
	upload, err := readEvaluationUpload(c, h.maxFileSize)
	if err != nil {
		return writeAPIError(c, err)
	}

	evaluation := &models.Evaluation{
		ID:     uuid.New(),
		Status: models.StatusQueued,
	}

	if err := h.evalRepo.Create(evaluation); err != nil {
		h.log.Error("failed to create evaluation", zap.Error(err))
		return writeError(c, fiber.StatusInternalServerError, "internal_error", "failed to create evaluation job")
	}

	err = h.worker.EnqueueJob(services.EvaluationJob{
		ID:             evaluation.ID,
		Document:       upload.Document,
		JobDescription: upload.JobDescription,
	})
	if err != nil {
		if uerr := h.evalRepo.UpdateError(evaluation.ID, err.Error(), nil); uerr != nil {
			h.log.Error("failed to record rejected evaluation", zap.Error(uerr))
		}
		if errors.Is(err, services.ErrQueueFull) {
			return writeError(c, fiber.StatusServiceUnavailable, "queue_full", "evaluation queue is full, try again later")
		}
		return writeError(c, fiber.StatusInternalServerError, "internal_error", "failed to enqueue evaluation")
	}

	return c.Status(fiber.StatusAccepted).JSON(models.EvaluateResponse{
		ID:     evaluation.ID.String(),
		Status: string(models.StatusQueued),
	})
}
