package persistence

import (
	"context"
	"fmt"
	"time"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/loophq/loop360/modules/feedback/domain/aggregates/evaluator"
	"github.com/loophq/loop360/pkg/composables"
	"github.com/loophq/loop360/pkg/repo"
)

const (
	evaluatorFindQuery = `
        SELECT
            ev.id,
            ev.tenant_id,
            ev.employee_id,
            ev.user_id,
            ev.first_name,
            ev.last_name,
            ev.email,
            ev.department,
            ev.designation,
            ev.password_hash,
            ev.is_active,
            ev.created_at,
            ev.updated_at
        FROM evaluators ev`

	evaluatorCountQuery = `SELECT COUNT(ev.id) FROM evaluators ev`

	evaluatorEmailTakenQuery = `
        SELECT 1 FROM evaluators ev
        WHERE ev.tenant_id = $1 AND ev.email = $2 AND ev.is_active = true AND ev.id <> $3
        LIMIT 1`

	evaluatorInsertQuery = `
        INSERT INTO evaluators (
            id, tenant_id, employee_id, user_id, first_name, last_name, email,
            department, designation, password_hash, is_active, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	evaluatorUpdateQuery = `
        UPDATE evaluators SET
            first_name = $1,
            last_name = $2,
            email = $3,
            department = $4,
            designation = $5,
            updated_at = $6
        WHERE id = $7 AND tenant_id = $8`

	evaluatorDeactivateQuery = `
        UPDATE evaluators SET is_active = false, updated_at = $1
        WHERE id = $2 AND tenant_id = $3`
)

type PgEvaluatorRepository struct{}

func NewEvaluatorRepository() evaluator.Repository {
	return &PgEvaluatorRepository{}
}

func (g *PgEvaluatorRepository) Count(ctx context.Context) (int64, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return 0, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}

	var count int64
	q := repo.Join(evaluatorCountQuery, repo.JoinWhere("ev.tenant_id = $1"))
	if err := tx.QueryRow(ctx, q, tenantID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (g *PgEvaluatorRepository) GetPaginated(ctx context.Context, params *evaluator.FindParams) ([]evaluator.Evaluator, error) {
	if params == nil {
		params = &evaluator.FindParams{}
	}

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	where := []string{"ev.tenant_id = $1"}
	args := []interface{}{tenantID}

	if params.Q != "" {
		index := len(args) + 1
		where = append(where, fmt.Sprintf(
			"(ev.first_name ILIKE $%d OR ev.last_name ILIKE $%d OR ev.email ILIKE $%d)",
			index, index, index,
		))
		args = append(args, "%"+params.Q+"%")
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}

	q := repo.Join(
		evaluatorFindQuery,
		repo.JoinWhere(where...),
		"ORDER BY ev.created_at",
		repo.FormatLimitOffset(limit, offset),
	)
	return g.queryEvaluators(ctx, q, args...)
}

func (g *PgEvaluatorRepository) GetByID(ctx context.Context, id uuid.UUID) (evaluator.Evaluator, error) {
	return g.getOne(ctx, "ev.id = $2", id)
}

func (g *PgEvaluatorRepository) GetByEmployeeID(ctx context.Context, employeeID uuid.UUID) (evaluator.Evaluator, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return evaluator.Evaluator{}, err
	}

	q := repo.Join(
		evaluatorFindQuery,
		repo.JoinWhere("ev.tenant_id = $1", "ev.employee_id = $2", "ev.is_active = true"),
	)
	out, err := g.queryEvaluators(ctx, q, tenantID, employeeID)
	if err != nil {
		return evaluator.Evaluator{}, err
	}
	if len(out) == 0 {
		return evaluator.Evaluator{}, evaluator.ErrNotFound
	}
	return out[0], nil
}

func (g *PgEvaluatorRepository) GetByEmployeeIDs(ctx context.Context, employeeIDs []uuid.UUID) ([]evaluator.Evaluator, error) {
	if len(employeeIDs) == 0 {
		return nil, nil
	}

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	q := repo.Join(
		evaluatorFindQuery,
		repo.JoinWhere("ev.tenant_id = $1", "ev.employee_id = ANY($2)", "ev.is_active = true"),
	)
	return g.queryEvaluators(ctx, q, tenantID, employeeIDs)
}

func (g *PgEvaluatorRepository) EmailTaken(ctx context.Context, email string, excludeID uuid.UUID) (bool, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return false, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}

	rows, err := tx.Query(ctx, evaluatorEmailTakenQuery, tenantID, email, excludeID)
	if err != nil {
		return false, err
	}
	defer rows.Close()
	return rows.Next(), rows.Err()
}

func (g *PgEvaluatorRepository) Create(ctx context.Context, data evaluator.Evaluator) (evaluator.Evaluator, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return evaluator.Evaluator{}, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return evaluator.Evaluator{}, err
	}

	now := time.Now()
	_, err = tx.Exec(ctx, evaluatorInsertQuery,
		data.ID(),
		tenantID,
		data.EmployeeID(),
		data.UserID(),
		data.FirstName(),
		data.LastName(),
		data.Email(),
		data.Department(),
		data.Designation(),
		data.PasswordHash(),
		data.IsActive(),
		now,
		now,
	)
	if err != nil {
		return evaluator.Evaluator{}, gerrors.Wrap(err, "failed to create evaluator")
	}

	return g.GetByID(ctx, data.ID())
}

func (g *PgEvaluatorRepository) Update(ctx context.Context, data evaluator.Evaluator) error {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, evaluatorUpdateQuery,
		data.FirstName(),
		data.LastName(),
		data.Email(),
		data.Department(),
		data.Designation(),
		time.Now(),
		data.ID(),
		tenantID,
	)
	return err
}

func (g *PgEvaluatorRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, evaluatorDeactivateQuery, time.Now(), id, tenantID)
	return err
}

func (g *PgEvaluatorRepository) getOne(ctx context.Context, condition string, arg interface{}) (evaluator.Evaluator, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return evaluator.Evaluator{}, err
	}

	q := repo.Join(evaluatorFindQuery, repo.JoinWhere("ev.tenant_id = $1", condition))
	out, err := g.queryEvaluators(ctx, q, tenantID, arg)
	if err != nil {
		return evaluator.Evaluator{}, err
	}
	if len(out) == 0 {
		return evaluator.Evaluator{}, evaluator.ErrNotFound
	}
	return out[0], nil
}

func (g *PgEvaluatorRepository) queryEvaluators(ctx context.Context, query string, args ...interface{}) ([]evaluator.Evaluator, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []evaluator.Evaluator
	for rows.Next() {
		var (
			id           uuid.UUID
			rowTenantID  uuid.UUID
			employeeID   uuid.UUID
			userID       uuid.UUID
			firstName    string
			lastName     string
			email        string
			department   string
			designation  string
			passwordHash string
			isActive     bool
			createdAt    time.Time
			updatedAt    time.Time
		)
		if err := rows.Scan(
			&id, &rowTenantID, &employeeID, &userID, &firstName, &lastName, &email,
			&department, &designation, &passwordHash, &isActive, &createdAt, &updatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, evaluator.Hydrate(
			id, rowTenantID, employeeID, userID, firstName, lastName, email,
			department, designation, passwordHash, isActive, createdAt, updatedAt,
		))
	}
	return out, rows.Err()
}
