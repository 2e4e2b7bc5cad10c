package evaluator

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("evaluator not found")

type FindParams struct {
	Q      string
	Limit  int
	Offset int
}

type Repository interface {
	Count(ctx context.Context) (int64, error)
	GetPaginated(ctx context.Context, params *FindParams) ([]Evaluator, error)
	GetByID(ctx context.Context, id uuid.UUID) (Evaluator, error)
	// GetByEmployeeID returns the active evaluator projection of an employee.
	GetByEmployeeID(ctx context.Context, employeeID uuid.UUID) (Evaluator, error)
	// GetByEmployeeIDs resolves the active evaluators for a batch of
	// employees in one query; employees without an evaluator are absent from
	// the result.
	GetByEmployeeIDs(ctx context.Context, employeeIDs []uuid.UUID) ([]Evaluator, error)
	// EmailTaken reports whether another active evaluator already uses the
	// email within the tenant.
	EmailTaken(ctx context.Context, email string, excludeID uuid.UUID) (bool, error)
	Create(ctx context.Context, e Evaluator) (Evaluator, error)
	Update(ctx context.Context, e Evaluator) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}
