package services

import (
	"errors"

	"smarthire/resume-matcher/internal/models"
)

// Response converts a pipeline result into its JSON representation.
func (r *EvaluationResult) Response() *models.EvaluationResponse {
	resp := &models.EvaluationResponse{
		Report:          r.Report,
		Scores:          r.Scores,
		DiscardedScores: r.DiscardedScores,
		Outcome:         r.Outcome(),
	}
	if resp.Scores == nil {
		resp.Scores = []float64{}
	}

	resp.Stages.Extraction = stageStatus(r.ExtractionErr, models.StageDegraded)

	resp.Stages.Similarity = stageStatus(r.SimilarityErr, models.StageFailed)
	if r.SimilarityErr == nil {
		score := r.Similarity
		resp.SimilarityScore = &score
	}

	resp.Stages.Report = stageStatus(r.ReportErr, models.StageFailed)
	var genErr *GenerationError
	if errors.As(r.ReportErr, &genErr) {
		resp.Stages.Report.Retryable = genErr.Retryable()
	}

	resp.Stages.Aggregate = stageStatus(r.AggregateErr, models.StageUnavailable)
	if r.AggregateErr == nil && r.Aggregate.Available {
		value := r.Aggregate.Value
		resp.AggregateScore = &value
	}

	return resp
}

func stageStatus(err error, failure string) models.StageStatus {
	if err == nil {
		return models.StageStatus{Status: models.StageOK}
	}
	return models.StageStatus{Status: failure, Error: err.Error()}
}
