package repositories

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"smarthire/resume-matcher/internal/models"
)

var ErrEvaluationNotFound = errors.New("evaluation not found")

type EvaluationRepository interface {
	Create(eval *models.Evaluation) error
	FindByID(id uuid.UUID) (*models.Evaluation, error)
	UpdateStatus(id uuid.UUID, status models.EvaluationStatus) error
	UpdateResult(id uuid.UUID, result *models.EvaluationResponse) error
	UpdateError(id uuid.UUID, errorMsg string, result *models.EvaluationResponse) error
	DeleteFinishedBefore(cutoff time.Time) int
}

// evaluationRepository keeps evaluations in process memory; they do not survive a restart.
type evaluationRepository struct {
	mu    sync.RWMutex
	evals map[uuid.UUID]*models.Evaluation
	now   func() time.Time
}

func NewEvaluationRepository() EvaluationRepository {
	return &evaluationRepository{
		evals: make(map[uuid.UUID]*models.Evaluation),
		now:   time.Now,
	}
}

func (r *evaluationRepository) Create(eval *models.Evaluation) error {
	if eval == nil {
		return errors.New("failed to create evaluation: nil evaluation")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if eval.ID == uuid.Nil {
		eval.ID = uuid.New()
	}
	if _, exists := r.evals[eval.ID]; exists {
		return fmt.Errorf("failed to create evaluation: id %s already exists", eval.ID)
	}
	if eval.Status == "" {
		eval.Status = models.StatusQueued
	}

	now := r.now()
	eval.CreatedAt = now
	eval.UpdatedAt = now

	stored := *eval
	r.evals[eval.ID] = &stored
	return nil
}

// FindByID returns a copy, so callers cannot mutate stored state.
func (r *evaluationRepository) FindByID(id uuid.UUID) (*models.Evaluation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	eval, ok := r.evals[id]
	if !ok {
		return nil, ErrEvaluationNotFound
	}

	out := *eval
	return &out, nil
}

func (r *evaluationRepository) update(id uuid.UUID, apply func(eval *models.Evaluation)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	eval, ok := r.evals[id]
	if !ok {
		return ErrEvaluationNotFound
	}

	apply(eval)
	eval.UpdatedAt = r.now()
	return nil
}

func (r *evaluationRepository) UpdateStatus(id uuid.UUID, status models.EvaluationStatus) error {
	return r.update(id, func(eval *models.Evaluation) {
		eval.Status = status
	})
}

func (r *evaluationRepository) UpdateResult(id uuid.UUID, result *models.EvaluationResponse) error {
	return r.update(id, func(eval *models.Evaluation) {
		eval.Status = models.StatusCompleted
		eval.Result = result
		eval.ErrorMessage = nil
	})
}

// UpdateError marks the evaluation failed. result may carry whatever stages did finish.
func (r *evaluationRepository) UpdateError(id uuid.UUID, errorMsg string, result *models.EvaluationResponse) error {
	return r.update(id, func(eval *models.Evaluation) {
		eval.Status = models.StatusFailed
		eval.Result = result
		eval.ErrorMessage = &errorMsg
	})
}

// DeleteFinishedBefore drops completed or failed evaluations last updated before cutoff.
func (r *evaluationRepository) DeleteFinishedBefore(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	deleted := 0
	for id, eval := range r.evals {
		if eval.Finished() && eval.UpdatedAt.Before(cutoff) {
			delete(r.evals, id)
			deleted++
		}
	}
	return deleted
}
