package services

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smarthire/resume-matcher/internal/models"
)

func TestResponseComplete(t *testing.T) {
	res := &EvaluationResult{
		Similarity: 0.71,
		Report:     "3/5 4.5/5",
		Scores:     []float64{3, 4.5},
		Aggregate:  AggregateScore{Value: 0.75, Available: true},
	}

	resp := res.Response()
	require.NotNil(t, resp.SimilarityScore)
	assert.InDelta(t, 0.71, *resp.SimilarityScore, 1e-9)
	require.NotNil(t, resp.AggregateScore)
	assert.InDelta(t, 0.75, *resp.AggregateScore, 1e-9)
	assert.Equal(t, OutcomeComplete, resp.Outcome)
	assert.Equal(t, models.StageOK, resp.Stages.Extraction.Status)
	assert.Equal(t, models.StageOK, resp.Stages.Aggregate.Status)
}

func TestResponsePartial(t *testing.T) {
	res := &EvaluationResult{
		ExtractionErr: &ExtractionError{Cause: errors.New("not a pdf")},
		Similarity:    0.05,
		ReportErr:     &GenerationError{Kind: KindRateLimit, Provider: ProviderGroq, StatusCode: 429},
		AggregateErr:  ErrReportUnavailable,
	}

	resp := res.Response()
	assert.Equal(t, models.StageDegraded, resp.Stages.Extraction.Status)
	assert.Contains(t, resp.Stages.Extraction.Error, "not a pdf")
	assert.Equal(t, models.StageFailed, resp.Stages.Report.Status)
	assert.True(t, resp.Stages.Report.Retryable)
	assert.Equal(t, models.StageUnavailable, resp.Stages.Aggregate.Status)
	assert.Nil(t, resp.AggregateScore)

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"aggregate_score":null`)
	assert.Contains(t, string(raw), `"scores":[]`)
}
