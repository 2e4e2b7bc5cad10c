package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/loophq/loop360/modules/feedback/domain/entities/assignment"
	"github.com/loophq/loop360/modules/feedback/domain/entities/relationship"
	"github.com/loophq/loop360/pkg/composables"
)

// AssignmentService attaches surveys to relationship edges. Assigning the
// same survey to the same edge twice is a no-op, so callers can replay
// survey rollouts safely.
type AssignmentService struct {
	edges       relationship.Repository
	assignments assignment.Repository
}

func NewAssignmentService(edges relationship.Repository, assignments assignment.Repository) *AssignmentService {
	return &AssignmentService{edges: edges, assignments: assignments}
}

// AssignSurvey attaches a survey to one relationship edge. Returns the
// assignment and whether it was newly created (false means the edge already
// carried an active assignment for this survey).
func (s *AssignmentService) AssignSurvey(ctx context.Context, subjectEvaluatorID, surveyID uuid.UUID) (assignment.Assignment, bool, error) {
	var created bool
	out, err := inTxResult(ctx, func(txCtx context.Context) (assignment.Assignment, error) {
		a, c, err := s.assign(txCtx, subjectEvaluatorID, surveyID)
		created = c
		return a, err
	})
	return out, created, err
}

// RolloutResult reports a batch survey rollout: how many assignments were
// actually created or reactivated, and per-edge problems for edges that
// could not be assigned.
type RolloutResult struct {
	AssignedCount int
	Errors        []string
}

// AssignSurveyToMany rolls a survey out to a set of edges in one
// transaction. Already-assigned edges are skipped; missing or inactive
// edges are recorded per id without aborting the rest of the batch.
func (s *AssignmentService) AssignSurveyToMany(ctx context.Context, subjectEvaluatorIDs []uuid.UUID, surveyID uuid.UUID) (*RolloutResult, error) {
	return inTxResult(ctx, func(txCtx context.Context) (*RolloutResult, error) {
		result := &RolloutResult{}
		for _, edgeID := range subjectEvaluatorIDs {
			_, created, err := s.assign(txCtx, edgeID, surveyID)
			if errors.Is(err, relationship.ErrNotFound) {
				result.Errors = append(result.Errors, fmt.Sprintf("relationship %s not found or inactive", edgeID))
				continue
			}
			if err != nil {
				return nil, err
			}
			if created {
				result.AssignedCount++
			}
		}
		return result, nil
	})
}

// UnassignSurvey soft-deletes the assignment. Returns false when there was
// no active assignment to remove.
func (s *AssignmentService) UnassignSurvey(ctx context.Context, subjectEvaluatorID, surveyID uuid.UUID) (bool, error) {
	return inTxResult(ctx, func(txCtx context.Context) (bool, error) {
		existing, err := s.assignments.GetByPair(txCtx, subjectEvaluatorID, surveyID)
		if errors.Is(err, assignment.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		if !existing.IsActive() {
			return false, nil
		}
		return true, s.assignments.Update(txCtx, existing.Deactivated())
	})
}

// RecordAssignmentEmailSent stamps the time the invitation email went out.
func (s *AssignmentService) RecordAssignmentEmailSent(ctx context.Context, assignmentID uuid.UUID, at time.Time) error {
	return runInTx(ctx, func(txCtx context.Context) error {
		existing, err := s.assignments.GetByID(txCtx, assignmentID)
		if err != nil {
			return err
		}
		return s.assignments.Update(txCtx, existing.WithAssignmentEmailSentAt(at))
	})
}

// RecordReminderSent stamps the latest reminder time.
func (s *AssignmentService) RecordReminderSent(ctx context.Context, assignmentID uuid.UUID, at time.Time) error {
	return runInTx(ctx, func(txCtx context.Context) error {
		existing, err := s.assignments.GetByID(txCtx, assignmentID)
		if err != nil {
			return err
		}
		return s.assignments.Update(txCtx, existing.WithReminderSentAt(at))
	})
}

// ListForRelationship returns the active assignments on one edge.
func (s *AssignmentService) ListForRelationship(ctx context.Context, subjectEvaluatorID uuid.UUID) ([]assignment.Assignment, error) {
	return inTxResult(ctx, func(txCtx context.Context) ([]assignment.Assignment, error) {
		return s.assignments.ListForRelationship(txCtx, subjectEvaluatorID)
	})
}

// ListDueForReminder returns assignments whose last contact is older than
// the cutoff, for the reminder pipeline to pick up.
func (s *AssignmentService) ListDueForReminder(ctx context.Context, surveyID uuid.UUID, before time.Time) ([]assignment.Assignment, error) {
	return inTxResult(ctx, func(txCtx context.Context) ([]assignment.Assignment, error) {
		return s.assignments.ListDueForReminder(txCtx, surveyID, before)
	})
}

func (s *AssignmentService) assign(ctx context.Context, subjectEvaluatorID, surveyID uuid.UUID) (assignment.Assignment, bool, error) {
	edge, err := s.edges.GetByID(ctx, subjectEvaluatorID)
	if err != nil {
		return assignment.Assignment{}, false, err
	}
	if !edge.IsActive() {
		return assignment.Assignment{}, false, relationship.ErrNotFound
	}

	existing, err := s.assignments.GetByPair(ctx, subjectEvaluatorID, surveyID)
	switch {
	case errors.Is(err, assignment.ErrNotFound):
		tenantID, err := composables.UseTenantID(ctx)
		if err != nil {
			return assignment.Assignment{}, false, err
		}
		created, err := s.assignments.Create(ctx, assignment.New(tenantID, subjectEvaluatorID, surveyID))
		if err != nil {
			return assignment.Assignment{}, false, err
		}
		return created, true, nil
	case err != nil:
		return assignment.Assignment{}, false, err
	case existing.IsActive():
		return existing, false, nil
	default:
		reactivated := existing.Reactivated()
		if err := s.assignments.Update(ctx, reactivated); err != nil {
			return assignment.Assignment{}, false, err
		}
		return reactivated, true, nil
	}
}
