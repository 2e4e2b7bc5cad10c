package subject

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("subject not found")

type FindParams struct {
	Q      string
	Limit  int
	Offset int
}

type Repository interface {
	Count(ctx context.Context) (int64, error)
	GetPaginated(ctx context.Context, params *FindParams) ([]Subject, error)
	GetByID(ctx context.Context, id uuid.UUID) (Subject, error)
	// GetByEmployeeID returns the active subject projection of an employee.
	GetByEmployeeID(ctx context.Context, employeeID uuid.UUID) (Subject, error)
	// GetByEmployeeIDs resolves the active subjects for a batch of employees
	// in one query; employees without a subject are absent from the result.
	GetByEmployeeIDs(ctx context.Context, employeeIDs []uuid.UUID) ([]Subject, error)
	// EmailTaken reports whether another active subject already uses the
	// email within the tenant.
	EmailTaken(ctx context.Context, email string, excludeID uuid.UUID) (bool, error)
	Create(ctx context.Context, s Subject) (Subject, error)
	Update(ctx context.Context, s Subject) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}
