package assignment

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("survey assignment not found")

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (Assignment, error)
	// GetByPair returns the assignment for (edge, survey) regardless of
	// active state so callers can reactivate instead of duplicating.
	GetByPair(ctx context.Context, subjectEvaluatorID, surveyID uuid.UUID) (Assignment, error)
	// ListForRelationship returns the active assignments on one edge.
	ListForRelationship(ctx context.Context, subjectEvaluatorID uuid.UUID) ([]Assignment, error)
	// ListDueForReminder returns active assignments for a survey whose last
	// reminder (or assignment email, when never reminded) is older than the
	// given cutoff.
	ListDueForReminder(ctx context.Context, surveyID uuid.UUID, before time.Time) ([]Assignment, error)
	Create(ctx context.Context, a Assignment) (Assignment, error)
	Update(ctx context.Context, a Assignment) error
}
