package handlers

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"smarthire/resume-matcher/internal/models"
)

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

// evaluationUpload is a validated evaluation form held in memory.
type evaluationUpload struct {
	Document       []byte
	Filename       string
	JobDescription string
}

// apiError is an error already mapped to an HTTP status and error code.
type apiError struct {
	status int
	code   string
	msg    string
}

func (e *apiError) Error() string {
	return e.msg
}

// readEvaluationUpload validates the multipart form and reads the resume into memory.
// The document is never written to disk.
func readEvaluationUpload(c *fiber.Ctx, maxFileSize int64) (*evaluationUpload, error) {
	// A missing or unreadable file part is reported by validation below.
	file, err := c.FormFile("resume")
	if err != nil {
		file = nil
	}

	form := models.EvaluateForm{
		JobDescription: strings.TrimSpace(c.FormValue("job_description")),
	}
	if file != nil {
		form.ResumeFilename = file.Filename
		form.ResumeSize = file.Size
	}

	if err := getValidator().Struct(form); err != nil {
		return nil, &apiError{status: fiber.StatusBadRequest, code: "invalid_request", msg: validationMessage(err)}
	}

	if ext := strings.ToLower(filepath.Ext(file.Filename)); ext != ".pdf" {
		return nil, &apiError{status: fiber.StatusBadRequest, code: "invalid_file_type", msg: fmt.Sprintf("invalid file extension: %q, resume must be a PDF", ext)}
	}

	if file.Size > maxFileSize {
		return nil, &apiError{status: fiber.StatusRequestEntityTooLarge, code: "file_too_large", msg: fmt.Sprintf("resume file too large. Max size: %d bytes", maxFileSize)}
	}

	src, err := file.Open()
	if err != nil {
		return nil, &apiError{status: fiber.StatusBadRequest, code: "invalid_request", msg: "failed to open uploaded file"}
	}
	defer src.Close()

	document, err := io.ReadAll(io.LimitReader(src, maxFileSize+1))
	if err != nil {
		return nil, &apiError{status: fiber.StatusBadRequest, code: "invalid_request", msg: "failed to read uploaded file"}
	}
	if int64(len(document)) > maxFileSize {
		return nil, &apiError{status: fiber.StatusRequestEntityTooLarge, code: "file_too_large", msg: fmt.Sprintf("resume file too large. Max size: %d bytes", maxFileSize)}
	}

	return &evaluationUpload{
		Document:       document,
		Filename:       file.Filename,
		JobDescription: form.JobDescription,
	}, nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request"
	}

	switch fe := verrs[0]; fe.Field() {
	case "JobDescription":
		if fe.Tag() == "max" {
			return "job_description is too long"
		}
		return "job_description is required"
	case "ResumeFilename", "ResumeSize":
		return "resume file is required"
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

func writeError(c *fiber.Ctx, status int, code, msg string) error {
	return c.Status(status).JSON(models.ErrorResponse{Error: msg, Code: code})
}

func writeAPIError(c *fiber.Ctx, err error) error {
	var ae *apiError
	if errors.As(err, &ae) {
		return writeError(c, ae.status, ae.code, ae.msg)
	}
	return writeError(c, fiber.StatusInternalServerError, "internal_error", "internal error")
}
