package models

const (
	StageOK          = "ok"
	StageDegraded    = "degraded"
	StageFailed      = "failed"
	StageUnavailable = "unavailable"
)

type EvaluateForm struct {
	JobDescription string `validate:"required,max=50000"`
	ResumeFilename string `validate:"required"`
	ResumeSize     int64  `validate:"gt=0"`
}

type EvaluateResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type StageStatus struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

type Stages struct {
	Extraction StageStatus `json:"extraction"`
	Similarity StageStatus `json:"similarity"`
	Report     StageStatus `json:"report"`
	Aggregate  StageStatus `json:"aggregate"`
}

// EvaluationResponse is the outcome of one pipeline run. Scores that could not be
// computed are null.
type EvaluationResponse struct {
	SimilarityScore *float64  `json:"similarity_score"`
	Report          string    `json:"report"`
	AggregateScore  *float64  `json:"aggregate_score"`
	Scores          []float64 `json:"scores"`
	DiscardedScores int       `json:"discarded_scores,omitempty"`
	Outcome         string    `json:"outcome"`
	Stages          Stages    `json:"stages"`
}

type ResultResponse struct {
	ID           string              `json:"id"`
	Status       string              `json:"status"`
	Result       *EvaluationResponse `json:"result,omitempty"`
	ErrorMessage *string             `json:"error_message,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
