package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"smarthire/resume-matcher/internal/models"
	"smarthire/resume-matcher/internal/repositories"
)

type ResultHandler struct {
	evalRepo repositories.EvaluationRepository
}

func NewResultHandler(evalRepo repositories.EvaluationRepository) *ResultHandler {
	return &ResultHandler{
		evalRepo: evalRepo,
	}
}

func (h *ResultHandler) findEvaluation(c *fiber.Ctx) (*models.Evaluation, error) {
	evalID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, &apiError{status: fiber.StatusBadRequest, code: "invalid_id", msg: "invalid evaluation ID format"}
	}

	evaluation, err := h.evalRepo.FindByID(evalID)
	if err != nil {
		if errors.Is(err, repositories.ErrEvaluationNotFound) {
			return nil, &apiError{status: fiber.StatusNotFound, code: "not_found", msg: "evaluation not found"}
		}
		return nil, &apiError{status: fiber.StatusInternalServerError, code: "internal_error", msg: "failed to load evaluation"}
	}

	return evaluation, nil
}

// HandleGetResult handles GET /evaluations/:id
func (h *ResultHandler) HandleGetResult(c *fiber.Ctx) error {
	evaluation, err := h.findEvaluation(c)
	if err != nil {
		return writeAPIError(c, err)
	}

	response := models.ResultResponse{
		ID:           evaluation.ID.String(),
		Status:       string(evaluation.Status),
		ErrorMessage: evaluation.ErrorMessage,
	}

	if evaluation.Finished() {
		response.Result = evaluation.Result
	}

	return c.JSON(response)
}

// HandleDownloadReport handles GET /evaluations/:id/report and returns the report as a text file.
func (h *ResultHandler) HandleDownloadReport(c *fiber.Ctx) error {
	evaluation, err := h.findEvaluation(c)
	if err != nil {
		return writeAPIError(c, err)
	}

	if evaluation.Status != models.StatusCompleted || evaluation.Result == nil {
		return writeError(c, fiber.StatusConflict, "not_ready", "report is not available for an evaluation in status "+string(evaluation.Status))
	}

	if evaluation.Result.Stages.Report.Status != models.StageOK {
		return writeError(c, fiber.StatusConflict, "report_failed", "report generation failed for this evaluation")
	}

	c.Attachment("report.txt")
	return c.SendString(evaluation.Result.Report)
}
