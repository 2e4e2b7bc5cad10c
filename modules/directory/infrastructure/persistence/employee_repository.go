package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/loophq/loop360/modules/directory/domain/aggregates/employee"
	"github.com/loophq/loop360/pkg/composables"
	"github.com/loophq/loop360/pkg/repo"
)

const (
	employeeFindQuery = `
        SELECT
            e.id,
            e.tenant_id,
            e.employee_code,
            e.first_name,
            e.last_name,
            e.email,
            e.department,
            e.designation,
            e.attributes,
            e.is_active,
            e.created_at,
            e.updated_at
        FROM employees e`

	employeeCountQuery = `SELECT COUNT(e.id) FROM employees e`

	employeeInsertQuery = `
        INSERT INTO employees (
            id, tenant_id, employee_code, first_name, last_name, email,
            department, designation, attributes, is_active, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	employeeUpdateQuery = `
        UPDATE employees SET
            first_name = $1,
            last_name = $2,
            email = $3,
            department = $4,
            designation = $5,
            attributes = $6,
            updated_at = $7
        WHERE id = $8 AND tenant_id = $9`

	employeeDeactivateQuery = `
        UPDATE employees SET is_active = false, updated_at = $1
        WHERE id = $2 AND tenant_id = $3`
)

type PgEmployeeRepository struct{}

func NewEmployeeRepository() employee.Repository {
	return &PgEmployeeRepository{}
}

func (g *PgEmployeeRepository) Count(ctx context.Context) (int64, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return 0, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}

	var count int64
	q := repo.Join(employeeCountQuery, repo.JoinWhere("e.tenant_id = $1"))
	if err := tx.QueryRow(ctx, q, tenantID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (g *PgEmployeeRepository) GetPaginated(ctx context.Context, params *employee.FindParams) ([]employee.Employee, error) {
	if params == nil {
		params = &employee.FindParams{}
	}

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	where := []string{"e.tenant_id = $1"}
	args := []interface{}{tenantID}

	if params.Q != "" {
		index := len(args) + 1
		where = append(where, fmt.Sprintf(
			"(e.first_name ILIKE $%d OR e.last_name ILIKE $%d OR e.email ILIKE $%d OR e.employee_code ILIKE $%d)",
			index, index, index, index,
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
		employeeFindQuery,
		repo.JoinWhere(where...),
		"ORDER BY e.employee_code",
		repo.FormatLimitOffset(limit, offset),
	)
	return g.queryEmployees(ctx, q, args...)
}

func (g *PgEmployeeRepository) GetByID(ctx context.Context, id uuid.UUID) (employee.Employee, error) {
	return g.getOne(ctx, "e.id = $2", id)
}

func (g *PgEmployeeRepository) GetByCode(ctx context.Context, code string) (employee.Employee, error) {
	return g.getOne(ctx, "e.employee_code = $2", code)
}

func (g *PgEmployeeRepository) GetByCodes(ctx context.Context, codes []string) ([]employee.Employee, error) {
	if len(codes) == 0 {
		return nil, nil
	}

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	q := repo.Join(
		employeeFindQuery,
		repo.JoinWhere("e.tenant_id = $1", "e.employee_code = ANY($2)", "e.is_active = true"),
	)
	return g.queryEmployees(ctx, q, tenantID, codes)
}

func (g *PgEmployeeRepository) Create(ctx context.Context, data employee.Employee) (employee.Employee, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return employee.Employee{}, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return employee.Employee{}, err
	}

	attrs, err := marshalAttributes(data.Attributes())
	if err != nil {
		return employee.Employee{}, err
	}

	now := time.Now()
	_, err = tx.Exec(ctx, employeeInsertQuery,
		data.ID(),
		tenantID,
		data.Code(),
		data.FirstName(),
		data.LastName(),
		data.Email(),
		data.Department(),
		data.Designation(),
		attrs,
		data.IsActive(),
		now,
		now,
	)
	if err != nil {
		return employee.Employee{}, gerrors.Wrap(err, "failed to create employee")
	}

	return g.GetByID(ctx, data.ID())
}

func (g *PgEmployeeRepository) Update(ctx context.Context, data employee.Employee) error {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	attrs, err := marshalAttributes(data.Attributes())
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, employeeUpdateQuery,
		data.FirstName(),
		data.LastName(),
		data.Email(),
		data.Department(),
		data.Designation(),
		attrs,
		time.Now(),
		data.ID(),
		tenantID,
	)
	return err
}

func (g *PgEmployeeRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, employeeDeactivateQuery, time.Now(), id, tenantID)
	return err
}

func (g *PgEmployeeRepository) getOne(ctx context.Context, condition string, arg interface{}) (employee.Employee, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return employee.Employee{}, err
	}

	q := repo.Join(employeeFindQuery, repo.JoinWhere("e.tenant_id = $1", condition))
	out, err := g.queryEmployees(ctx, q, tenantID, arg)
	if err != nil {
		return employee.Employee{}, err
	}
	if len(out) == 0 {
		return employee.Employee{}, employee.ErrNotFound
	}
	return out[0], nil
}

func (g *PgEmployeeRepository) queryEmployees(ctx context.Context, query string, args ...interface{}) ([]employee.Employee, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []employee.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEmployee(row pgx.Rows) (employee.Employee, error) {
	var (
		id          uuid.UUID
		tenantID    uuid.UUID
		code        string
		firstName   string
		lastName    string
		email       string
		department  string
		designation string
		rawAttrs    []byte
		isActive    bool
		createdAt   time.Time
		updatedAt   time.Time
	)
	if err := row.Scan(
		&id, &tenantID, &code, &firstName, &lastName, &email,
		&department, &designation, &rawAttrs, &isActive, &createdAt, &updatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrNotFound
		}
		return employee.Employee{}, err
	}

	attrs, err := unmarshalAttributes(rawAttrs)
	if err != nil {
		return employee.Employee{}, err
	}

	return employee.Hydrate(
		id, tenantID, code, firstName, lastName, email,
		department, designation, attrs, isActive, createdAt, updatedAt,
	), nil
}

func marshalAttributes(attrs map[string]string) ([]byte, error) {
	if attrs == nil {
		attrs = map[string]string{}
	}
	return json.Marshal(attrs)
}

func unmarshalAttributes(raw []byte) (map[string]string, error) {
	if len(raw) == 0 {
		return map[string]string{}, nil
	}
	var attrs map[string]string
	if err := json.Unmarshal(raw, &attrs); err != nil {
		return nil, gerrors.Wrap(err, "failed to decode employee attributes")
	}
	return attrs, nil
}
