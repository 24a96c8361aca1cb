package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
)

type SimilarityScorer interface {
	Similarity(ctx context.Context, textA, textB string) (float64, error)
}

type similarityScorer struct {
	embedder Embedder
}

// NewSimilarityScorer shares one embedder across every call.
func NewSimilarityScorer(embedder Embedder) SimilarityScorer {
	return &similarityScorer{embedder: embedder}
}

// Similarity returns the cosine similarity of both texts' embeddings, in [-1, 1].
// Empty text scores 0 without touching the model.
func (s *similarityScorer) Similarity(ctx context.Context, textA, textB string) (float64, error) {
	a := NormalizeText(textA)
	b := NormalizeText(textB)

	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return 0, nil
	}

	v1, err := s.embedder.Embed(ctx, a)
	if err != nil {
		return 0, asEmbeddingError("embed", err)
	}

	v2, err := s.embedder.Embed(ctx, b)
	if err != nil {
		return 0, asEmbeddingError("embed", err)
	}

	return CosineSimilarity(v1, v2)
}

// CosineSimilarity is dot(a,b) / (|a|*|b|), or 0 when either vector has zero norm.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, &EmbeddingError{Op: "compare", Err: fmt.Errorf("dimension mismatch: %d != %d", len(a), len(b))}
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	score := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if math.IsNaN(score) {
		return 0, &EmbeddingError{Op: "compare", Err: errors.New("embedding contains NaN")}
	}

	return math.Max(-1, math.Min(1, score)), nil
}

func asEmbeddingError(op string, err error) error {
	var embErr *EmbeddingError
	if errors.As(err, &embErr) {
		return err
	}
	return &EmbeddingError{Op: op, Err: err}
}
