package services

import (
	"fmt"
	"regexp"
	"strconv"
)

// MaxMarkerScore is the denominator of every score marker.
const MaxMarkerScore = 5.0

// scoreMarkerPattern is the single definition of a score marker: "<number>/5".
var scoreMarkerPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)/5`)

// OutOfRangePolicy decides what happens to markers outside [0, MaxMarkerScore].
type OutOfRangePolicy string

const (
	OutOfRangeReject OutOfRangePolicy = "reject"
	OutOfRangeClamp  OutOfRangePolicy = "clamp"
	OutOfRangeKeep   OutOfRangePolicy = "keep"
)

// ParseOutOfRangePolicy validates a configured policy name.
func ParseOutOfRangePolicy(s string) (OutOfRangePolicy, error) {
	switch p := OutOfRangePolicy(s); p {
	case OutOfRangeReject, OutOfRangeClamp, OutOfRangeKeep:
		return p, nil
	case "":
		return OutOfRangeReject, nil
	default:
		return "", fmt.Errorf("unknown out-of-range policy %q", s)
	}
}

// AggregateScore is the normalized mean of the report's markers.
// Available is false when no usable marker exists.
type AggregateScore struct {
	Value     float64
	Available bool
}

// ExtractScores returns the numeric part of every non-overlapping marker, left to right.
func ExtractScores(report string) []float64 {
	matches := scoreMarkerPattern.FindAllStringSubmatch(report, -1)
	scores := make([]float64, 0, len(matches))

	for _, m := range matches {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		scores = append(scores, v)
	}

	return scores
}

// Aggregate computes sum / (5 * count). It never divides by zero.
func Aggregate(scores []float64) AggregateScore {
	if len(scores) == 0 {
		return AggregateScore{}
	}

	var sum float64
	for _, s := range scores {
		sum += s
	}

	return AggregateScore{
		Value:     sum / (MaxMarkerScore * float64(len(scores))),
		Available: true,
	}
}

// ScoreResult is what ScoreAggregator derives from one report.
type ScoreResult struct {
	Scores    []float64
	Aggregate AggregateScore
	Discarded int
}

type ScoreAggregator struct {
	policy OutOfRangePolicy
}

func NewScoreAggregator(policy OutOfRangePolicy) *ScoreAggregator {
	if policy == "" {
		policy = OutOfRangeReject
	}
	return &ScoreAggregator{policy: policy}
}

// Evaluate extracts markers, applies the out-of-range policy and aggregates.
// The error is ErrNoScoreMarkers when nothing usable remains.
func (a *ScoreAggregator) Evaluate(report string) (ScoreResult, error) {
	raw := ExtractScores(report)
	scores := make([]float64, 0, len(raw))
	discarded := 0

	// The pattern has no sign, so only the upper bound can be exceeded.
	for _, s := range raw {
		if s <= MaxMarkerScore {
			scores = append(scores, s)
			continue
		}

		switch a.policy {
		case OutOfRangeKeep:
			scores = append(scores, s)
		case OutOfRangeClamp:
			scores = append(scores, MaxMarkerScore)
		default:
			discarded++
		}
	}

	result := ScoreResult{
		Scores:    scores,
		Aggregate: Aggregate(scores),
		Discarded: discarded,
	}

	if !result.Aggregate.Available {
		return result, ErrNoScoreMarkers
	}

	return result, nil
}
