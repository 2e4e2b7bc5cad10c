package persistence

import (
	"context"
	"time"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/loophq/loop360/modules/feedback/domain/entities/assignment"
	"github.com/loophq/loop360/pkg/composables"
	"github.com/loophq/loop360/pkg/repo"
)

const (
	assignmentFindQuery = `
        SELECT
            a.id,
            a.tenant_id,
            a.subject_evaluator_id,
            a.survey_id,
            a.is_active,
            a.assignment_email_sent_at,
            a.last_reminder_sent_at,
            a.created_at,
            a.updated_at
        FROM subject_evaluator_surveys a`

	assignmentInsertQuery = `
        INSERT INTO subject_evaluator_surveys (
            id, tenant_id, subject_evaluator_id, survey_id, is_active,
            assignment_email_sent_at, last_reminder_sent_at, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	assignmentUpdateQuery = `
        UPDATE subject_evaluator_surveys SET
            is_active = $1,
            assignment_email_sent_at = $2,
            last_reminder_sent_at = $3,
            updated_at = $4
        WHERE id = $5 AND tenant_id = $6`
)

type PgAssignmentRepository struct{}

func NewAssignmentRepository() assignment.Repository {
	return &PgAssignmentRepository{}
}

func (g *PgAssignmentRepository) GetByID(ctx context.Context, id uuid.UUID) (assignment.Assignment, error) {
	return g.getOne(ctx, []string{"a.id = $2"}, id)
}

func (g *PgAssignmentRepository) GetByPair(ctx context.Context, subjectEvaluatorID, surveyID uuid.UUID) (assignment.Assignment, error) {
	return g.getOne(ctx, []string{"a.subject_evaluator_id = $2", "a.survey_id = $3"}, subjectEvaluatorID, surveyID)
}

func (g *PgAssignmentRepository) ListForRelationship(ctx context.Context, subjectEvaluatorID uuid.UUID) ([]assignment.Assignment, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	q := repo.Join(
		assignmentFindQuery,
		repo.JoinWhere("a.tenant_id = $1", "a.subject_evaluator_id = $2", "a.is_active = true"),
		"ORDER BY a.created_at",
	)
	return g.queryAssignments(ctx, q, tenantID, subjectEvaluatorID)
}

func (g *PgAssignmentRepository) ListDueForReminder(ctx context.Context, surveyID uuid.UUID, before time.Time) ([]assignment.Assignment, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	q := repo.Join(
		assignmentFindQuery,
		repo.JoinWhere(
			"a.tenant_id = $1",
			"a.survey_id = $2",
			"a.is_active = true",
			"COALESCE(a.last_reminder_sent_at, a.assignment_email_sent_at, a.created_at) < $3",
		),
		"ORDER BY a.created_at",
	)
	return g.queryAssignments(ctx, q, tenantID, surveyID, before)
}

func (g *PgAssignmentRepository) Create(ctx context.Context, data assignment.Assignment) (assignment.Assignment, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return assignment.Assignment{}, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return assignment.Assignment{}, err
	}

	now := time.Now()
	_, err = tx.Exec(ctx, assignmentInsertQuery,
		data.ID(),
		tenantID,
		data.SubjectEvaluatorID(),
		data.SurveyID(),
		data.IsActive(),
		data.AssignmentEmailSentAt(),
		data.LastReminderSentAt(),
		now,
		now,
	)
	if err != nil {
		return assignment.Assignment{}, gerrors.Wrap(err, "failed to create survey assignment")
	}

	return g.GetByID(ctx, data.ID())
}

func (g *PgAssignmentRepository) Update(ctx context.Context, data assignment.Assignment) error {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, assignmentUpdateQuery,
		data.IsActive(),
		data.AssignmentEmailSentAt(),
		data.LastReminderSentAt(),
		time.Now(),
		data.ID(),
		tenantID,
	)
	return err
}

func (g *PgAssignmentRepository) getOne(ctx context.Context, conditions []string, args ...interface{}) (assignment.Assignment, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return assignment.Assignment{}, err
	}

	where := append([]string{"a.tenant_id = $1"}, conditions...)
	q := repo.Join(
		assignmentFindQuery,
		repo.JoinWhere(where...),
		"ORDER BY a.is_active DESC, a.updated_at DESC",
	)

	out, err := g.queryAssignments(ctx, q, append([]interface{}{tenantID}, args...)...)
	if err != nil {
		return assignment.Assignment{}, err
	}
	if len(out) == 0 {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	return out[0], nil
}

func (g *PgAssignmentRepository) queryAssignments(ctx context.Context, query string, args ...interface{}) ([]assignment.Assignment, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []assignment.Assignment
	for rows.Next() {
		var (
			id                    uuid.UUID
			rowTenantID           uuid.UUID
			subjectEvaluatorID    uuid.UUID
			surveyID              uuid.UUID
			isActive              bool
			assignmentEmailSentAt *time.Time
			lastReminderSentAt    *time.Time
			createdAt             time.Time
			updatedAt             time.Time
		)
		if err := rows.Scan(
			&id, &rowTenantID, &subjectEvaluatorID, &surveyID, &isActive,
			&assignmentEmailSentAt, &lastReminderSentAt, &createdAt, &updatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, assignment.Hydrate(
			id, rowTenantID, subjectEvaluatorID, surveyID, isActive,
			assignmentEmailSentAt, lastReminderSentAt, createdAt, updatedAt,
		))
	}
	return out, rows.Err()
}
