package employee

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("employee not found")

type FindParams struct {
	Q      string
	Limit  int
	Offset int
}

type Repository interface {
	Count(ctx context.Context) (int64, error)
	GetPaginated(ctx context.Context, params *FindParams) ([]Employee, error)
	GetByID(ctx context.Context, id uuid.UUID) (Employee, error)
	GetByCode(ctx context.Context, code string) (Employee, error)
	// GetByCodes resolves a batch of employee codes in one query. Codes with
	// no active employee are simply absent from the result.
	GetByCodes(ctx context.Context, codes []string) ([]Employee, error)
	Create(ctx context.Context, e Employee) (Employee, error)
	Update(ctx context.Context, e Employee) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}
