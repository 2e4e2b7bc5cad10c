package relationship

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("relationship not found")

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (Edge, error)
	// GetByPair returns the edge for the pair regardless of active state so
	// callers can reactivate history instead of duplicating rows.
	GetByPair(ctx context.Context, subjectID, evaluatorID uuid.UUID) (Edge, error)
	// ListForSubject returns the active edges where the subject is evaluated.
	ListForSubject(ctx context.Context, subjectID uuid.UUID) ([]Edge, error)
	// ListForEvaluator returns the active edges the evaluator must complete.
	ListForEvaluator(ctx context.Context, evaluatorID uuid.UUID) ([]Edge, error)
	Create(ctx context.Context, e Edge) (Edge, error)
	Update(ctx context.Context, e Edge) error
	// DeactivateForSubject soft-deletes every active edge of a subject; used
	// by full-replace updates.
	DeactivateForSubject(ctx context.Context, subjectID uuid.UUID) error
	// DeactivateForEvaluator is the evaluator-side counterpart.
	DeactivateForEvaluator(ctx context.Context, evaluatorID uuid.UUID) error
}
