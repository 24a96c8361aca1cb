package models

import (
	"time"

	"github.com/google/uuid"
)

type EvaluationStatus string

const (
	StatusQueued     EvaluationStatus = "queued"
	StatusProcessing EvaluationStatus = "processing"
	StatusCompleted  EvaluationStatus = "completed"
	StatusFailed     EvaluationStatus = "failed"
)

// Evaluation is an async evaluation job. It lives in memory only.
type Evaluation struct {
	ID           uuid.UUID           `json:"id"`
	Status       EvaluationStatus    `json:"status"`
	Result       *EvaluationResponse `json:"result,omitempty"`
	ErrorMessage *string             `json:"error_message,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// Finished reports whether the job reached a terminal status.
func (e *Evaluation) Finished() bool {
	return e.Status == StatusCompleted || e.Status == StatusFailed
}
