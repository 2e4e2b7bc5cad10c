package persistence

import (
	"context"
	"time"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/loophq/loop360/modules/feedback/domain/entities/relationship"
	"github.com/loophq/loop360/pkg/composables"
	"github.com/loophq/loop360/pkg/repo"
)

const (
	relationshipFindQuery = `
        SELECT
            se.id,
            se.tenant_id,
            se.subject_id,
            se.evaluator_id,
            se.relationship,
            se.is_active,
            se.created_at,
            se.updated_at
        FROM subject_evaluators se`

	relationshipInsertQuery = `
        INSERT INTO subject_evaluators (
            id, tenant_id, subject_id, evaluator_id, relationship, is_active, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	relationshipUpdateQuery = `
        UPDATE subject_evaluators SET
            relationship = $1,
            is_active = $2,
            updated_at = $3
        WHERE id = $4 AND tenant_id = $5`

	relationshipDeactivateForSubjectQuery = `
        UPDATE subject_evaluators SET is_active = false, updated_at = $1
        WHERE subject_id = $2 AND tenant_id = $3 AND is_active = true`

	relationshipDeactivateForEvaluatorQuery = `
        UPDATE subject_evaluators SET is_active = false, updated_at = $1
        WHERE evaluator_id = $2 AND tenant_id = $3 AND is_active = true`
)

type PgRelationshipRepository struct{}

func NewRelationshipRepository() relationship.Repository {
	return &PgRelationshipRepository{}
}

func (g *PgRelationshipRepository) GetByID(ctx context.Context, id uuid.UUID) (relationship.Edge, error) {
	return g.getOne(ctx, []string{"se.id = $2"}, id)
}

func (g *PgRelationshipRepository) GetByPair(ctx context.Context, subjectID, evaluatorID uuid.UUID) (relationship.Edge, error) {
	return g.getOne(ctx, []string{"se.subject_id = $2", "se.evaluator_id = $3"}, subjectID, evaluatorID)
}

func (g *PgRelationshipRepository) ListForSubject(ctx context.Context, subjectID uuid.UUID) ([]relationship.Edge, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	q := repo.Join(
		relationshipFindQuery,
		repo.JoinWhere("se.tenant_id = $1", "se.subject_id = $2", "se.is_active = true"),
		"ORDER BY se.created_at",
	)
	return g.queryEdges(ctx, q, tenantID, subjectID)
}

func (g *PgRelationshipRepository) ListForEvaluator(ctx context.Context, evaluatorID uuid.UUID) ([]relationship.Edge, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	q := repo.Join(
		relationshipFindQuery,
		repo.JoinWhere("se.tenant_id = $1", "se.evaluator_id = $2", "se.is_active = true"),
		"ORDER BY se.created_at",
	)
	return g.queryEdges(ctx, q, tenantID, evaluatorID)
}

func (g *PgRelationshipRepository) Create(ctx context.Context, data relationship.Edge) (relationship.Edge, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return relationship.Edge{}, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return relationship.Edge{}, err
	}

	now := time.Now()
	_, err = tx.Exec(ctx, relationshipInsertQuery,
		data.ID(),
		tenantID,
		data.SubjectID(),
		data.EvaluatorID(),
		data.Label(),
		data.IsActive(),
		now,
		now,
	)
	if err != nil {
		return relationship.Edge{}, gerrors.Wrap(err, "failed to create relationship")
	}

	return g.GetByID(ctx, data.ID())
}

func (g *PgRelationshipRepository) Update(ctx context.Context, data relationship.Edge) error {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, relationshipUpdateQuery,
		data.Label(),
		data.IsActive(),
		time.Now(),
		data.ID(),
		tenantID,
	)
	return err
}

func (g *PgRelationshipRepository) DeactivateForSubject(ctx context.Context, subjectID uuid.UUID) error {
	return g.deactivateAll(ctx, relationshipDeactivateForSubjectQuery, subjectID)
}

func (g *PgRelationshipRepository) DeactivateForEvaluator(ctx context.Context, evaluatorID uuid.UUID) error {
	return g.deactivateAll(ctx, relationshipDeactivateForEvaluatorQuery, evaluatorID)
}

func (g *PgRelationshipRepository) deactivateAll(ctx context.Context, query string, ownerID uuid.UUID) error {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, query, time.Now(), ownerID, tenantID)
	return err
}

func (g *PgRelationshipRepository) getOne(ctx context.Context, conditions []string, args ...interface{}) (relationship.Edge, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return relationship.Edge{}, err
	}

	where := append([]string{"se.tenant_id = $1"}, conditions...)
	// Prefer the active row should history ever hold more than one edge for
	// one pair.
	q := repo.Join(
		relationshipFindQuery,
		repo.JoinWhere(where...),
		"ORDER BY se.is_active DESC, se.updated_at DESC",
	)

	out, err := g.queryEdges(ctx, q, append([]interface{}{tenantID}, args...)...)
	if err != nil {
		return relationship.Edge{}, err
	}
	if len(out) == 0 {
		return relationship.Edge{}, relationship.ErrNotFound
	}
	return out[0], nil
}

func (g *PgRelationshipRepository) queryEdges(ctx context.Context, query string, args ...interface{}) ([]relationship.Edge, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []relationship.Edge
	for rows.Next() {
		var (
			id          uuid.UUID
			rowTenantID uuid.UUID
			subjectID   uuid.UUID
			evaluatorID uuid.UUID
			label       string
			isActive    bool
			createdAt   time.Time
			updatedAt   time.Time
		)
		if err := rows.Scan(
			&id, &rowTenantID, &subjectID, &evaluatorID, &label, &isActive, &createdAt, &updatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, relationship.Hydrate(
			id, rowTenantID, subjectID, evaluatorID, label, isActive, createdAt, updatedAt,
		))
	}
	return out, rows.Err()
}
