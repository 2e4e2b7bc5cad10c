package persistence

import (
	"context"
	"fmt"
	"time"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/loophq/loop360/modules/feedback/domain/aggregates/subject"
	"github.com/loophq/loop360/pkg/composables"
	"github.com/loophq/loop360/pkg/repo"
)

const (
	subjectFindQuery = `
        SELECT
            s.id,
            s.tenant_id,
            s.employee_id,
            s.user_id,
            s.first_name,
            s.last_name,
            s.email,
            s.department,
            s.designation,
            s.password_hash,
            s.is_active,
            s.created_at,
            s.updated_at
        FROM subjects s`

	subjectCountQuery = `SELECT COUNT(s.id) FROM subjects s`

	subjectEmailTakenQuery = `
        SELECT 1 FROM subjects s
        WHERE s.tenant_id = $1 AND s.email = $2 AND s.is_active = true AND s.id <> $3
        LIMIT 1`

	subjectInsertQuery = `
        INSERT INTO subjects (
            id, tenant_id, employee_id, user_id, first_name, last_name, email,
            department, designation, password_hash, is_active, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	subjectUpdateQuery = `
        UPDATE subjects SET
            first_name = $1,
            last_name = $2,
            email = $3,
            department = $4,
            designation = $5,
            updated_at = $6
        WHERE id = $7 AND tenant_id = $8`

	subjectDeactivateQuery = `
        UPDATE subjects SET is_active = false, updated_at = $1
        WHERE id = $2 AND tenant_id = $3`
)

type PgSubjectRepository struct{}

func NewSubjectRepository() subject.Repository {
	return &PgSubjectRepository{}
}

func (g *PgSubjectRepository) Count(ctx context.Context) (int64, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return 0, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}

	var count int64
	q := repo.Join(subjectCountQuery, repo.JoinWhere("s.tenant_id = $1"))
	if err := tx.QueryRow(ctx, q, tenantID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (g *PgSubjectRepository) GetPaginated(ctx context.Context, params *subject.FindParams) ([]subject.Subject, error) {
	if params == nil {
		params = &subject.FindParams{}
	}

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	where := []string{"s.tenant_id = $1"}
	args := []interface{}{tenantID}

	if params.Q != "" {
		index := len(args) + 1
		where = append(where, fmt.Sprintf(
			"(s.first_name ILIKE $%d OR s.last_name ILIKE $%d OR s.email ILIKE $%d)",
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
		subjectFindQuery,
		repo.JoinWhere(where...),
		"ORDER BY s.created_at",
		repo.FormatLimitOffset(limit, offset),
	)
	return g.querySubjects(ctx, q, args...)
}

func (g *PgSubjectRepository) GetByID(ctx context.Context, id uuid.UUID) (subject.Subject, error) {
	return g.getOne(ctx, "s.id = $2", id)
}

func (g *PgSubjectRepository) GetByEmployeeID(ctx context.Context, employeeID uuid.UUID) (subject.Subject, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return subject.Subject{}, err
	}

	q := repo.Join(
		subjectFindQuery,
		repo.JoinWhere("s.tenant_id = $1", "s.employee_id = $2", "s.is_active = true"),
	)
	out, err := g.querySubjects(ctx, q, tenantID, employeeID)
	if err != nil {
		return subject.Subject{}, err
	}
	if len(out) == 0 {
		return subject.Subject{}, subject.ErrNotFound
	}
	return out[0], nil
}

func (g *PgSubjectRepository) GetByEmployeeIDs(ctx context.Context, employeeIDs []uuid.UUID) ([]subject.Subject, error) {
	if len(employeeIDs) == 0 {
		return nil, nil
	}

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	q := repo.Join(
		subjectFindQuery,
		repo.JoinWhere("s.tenant_id = $1", "s.employee_id = ANY($2)", "s.is_active = true"),
	)
	return g.querySubjects(ctx, q, tenantID, employeeIDs)
}

func (g *PgSubjectRepository) EmailTaken(ctx context.Context, email string, excludeID uuid.UUID) (bool, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return false, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}

	rows, err := tx.Query(ctx, subjectEmailTakenQuery, tenantID, email, excludeID)
	if err != nil {
		return false, err
	}
	defer rows.Close()
	return rows.Next(), rows.Err()
}

func (g *PgSubjectRepository) Create(ctx context.Context, data subject.Subject) (subject.Subject, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return subject.Subject{}, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return subject.Subject{}, err
	}

	now := time.Now()
	_, err = tx.Exec(ctx, subjectInsertQuery,
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
		return subject.Subject{}, gerrors.Wrap(err, "failed to create subject")
	}

	return g.GetByID(ctx, data.ID())
}

func (g *PgSubjectRepository) Update(ctx context.Context, data subject.Subject) error {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, subjectUpdateQuery,
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

func (g *PgSubjectRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, subjectDeactivateQuery, time.Now(), id, tenantID)
	return err
}

func (g *PgSubjectRepository) getOne(ctx context.Context, condition string, arg interface{}) (subject.Subject, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return subject.Subject{}, err
	}

	q := repo.Join(subjectFindQuery, repo.JoinWhere("s.tenant_id = $1", condition))
	out, err := g.querySubjects(ctx, q, tenantID, arg)
	if err != nil {
		return subject.Subject{}, err
	}
	if len(out) == 0 {
		return subject.Subject{}, subject.ErrNotFound
	}
	return out[0], nil
}

func (g *PgSubjectRepository) querySubjects(ctx context.Context, query string, args ...interface{}) ([]subject.Subject, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []subject.Subject
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
		out = append(out, subject.Hydrate(
			id, rowTenantID, employeeID, userID, firstName, lastName, email,
			department, designation, passwordHash, isActive, createdAt, updatedAt,
		))
	}
	return out, rows.Err()
}
