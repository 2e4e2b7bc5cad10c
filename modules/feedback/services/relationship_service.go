package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/loophq/loop360/modules/directory/domain/aggregates/employee"
	"github.com/loophq/loop360/modules/feedback/domain/aggregates/evaluator"
	"github.com/loophq/loop360/modules/feedback/domain/aggregates/subject"
	"github.com/loophq/loop360/modules/feedback/domain/entities/relationship"
	"github.com/loophq/loop360/pkg/composables"
	"github.com/loophq/loop360/pkg/eventbus"
	"github.com/loophq/loop360/pkg/serrors"
)

// runInTx is the transaction wrapper services run under. Tests swap it for a
// passthrough.
var runInTx = composables.InTenantTxWithRetry

func inTxResult[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := runInTx(ctx, func(txCtx context.Context) error {
		var innerErr error
		out, innerErr = fn(txCtx)
		return innerErr
	})
	return out, err
}

var ErrSelfRelationshipMismatch = serrors.NewError(
	"SELF_RELATIONSHIP_MISMATCH",
	"a Self relationship requires the subject and evaluator to be the same employee",
)

// EdgeSpec is one desired relationship edge from the owner's point of view.
// CounterpartID may name the counterpart role record directly, or an
// employee who has not been registered in that role yet.
type EdgeSpec struct {
	CounterpartID uuid.UUID
	Relationship  string
}

// MergeResult reports what a merge did: how many edges were connected
// (created or reactivated), which counterparts could not be connected, and
// warnings for edges that were skipped without failing.
type MergeResult struct {
	SuccessfulConnections int
	FailedCounterpartIDs  []uuid.UUID
	Warnings              []string
}

// AssignmentResponse is the boundary-facing shape for single-entity
// relationship assignment calls.
type AssignmentResponse struct {
	Success     bool
	Message     string
	Assignments []relationship.Edge
}

// RelationshipService is the relationship merge engine: it reconciles an
// entity's desired edge set against its current edges, auto-provisions
// missing counterpart records, and enforces the self-evaluation invariant.
type RelationshipService struct {
	employees   employee.Repository
	subjects    subject.Repository
	evaluators  evaluator.Repository
	edges       relationship.Repository
	provisioner AccountProvisioner
	passwords   PasswordGenerator
	publisher   eventbus.EventBus
}

func NewRelationshipService(
	employees employee.Repository,
	subjects subject.Repository,
	evaluators evaluator.Repository,
	edges relationship.Repository,
	provisioner AccountProvisioner,
	passwords PasswordGenerator,
	publisher eventbus.EventBus,
) *RelationshipService {
	return &RelationshipService{
		employees:   employees,
		subjects:    subjects,
		evaluators:  evaluators,
		edges:       edges,
		provisioner: provisioner,
		passwords:   passwords,
		publisher:   publisher,
	}
}

// MergeForSubject reconciles the desired evaluator set of one subject.
// Merge semantics are additive: existing edges not mentioned in the desired
// set are left untouched.
func (s *RelationshipService) MergeForSubject(ctx context.Context, subjectID uuid.UUID, desired []EdgeSpec) (*MergeResult, error) {
	return inTxResult(ctx, func(txCtx context.Context) (*MergeResult, error) {
		return s.mergeForSubject(txCtx, subjectID, desired)
	})
}

// MergeForEvaluator reconciles the desired subject set of one evaluator.
func (s *RelationshipService) MergeForEvaluator(ctx context.Context, evaluatorID uuid.UUID, desired []EdgeSpec) (*MergeResult, error) {
	return inTxResult(ctx, func(txCtx context.Context) (*MergeResult, error) {
		return s.mergeForEvaluator(txCtx, evaluatorID, desired)
	})
}

// ReplaceForSubject is the authoritative counterpart of MergeForSubject:
// every current edge of the subject is soft-deleted first, then the desired
// set is merged from scratch (reactivating history where pairs recur).
func (s *RelationshipService) ReplaceForSubject(ctx context.Context, subjectID uuid.UUID, desired []EdgeSpec) (*MergeResult, error) {
	return inTxResult(ctx, func(txCtx context.Context) (*MergeResult, error) {
		if err := s.edges.DeactivateForSubject(txCtx, subjectID); err != nil {
			return nil, err
		}
		return s.mergeForSubject(txCtx, subjectID, desired)
	})
}

// ReplaceForEvaluator is the evaluator-side full-replace.
func (s *RelationshipService) ReplaceForEvaluator(ctx context.Context, evaluatorID uuid.UUID, desired []EdgeSpec) (*MergeResult, error) {
	return inTxResult(ctx, func(txCtx context.Context) (*MergeResult, error) {
		if err := s.edges.DeactivateForEvaluator(txCtx, evaluatorID); err != nil {
			return nil, err
		}
		return s.mergeForEvaluator(txCtx, evaluatorID, desired)
	})
}

// AssignEvaluatorsToSubject merges the given evaluators onto a subject and
// shapes the result for the boundary.
func (s *RelationshipService) AssignEvaluatorsToSubject(ctx context.Context, subjectID uuid.UUID, desired []EdgeSpec) (*AssignmentResponse, error) {
	return inTxResult(ctx, func(txCtx context.Context) (*AssignmentResponse, error) {
		result, err := s.mergeForSubject(txCtx, subjectID, desired)
		if err != nil {
			return nil, err
		}
		edges, err := s.edges.ListForSubject(txCtx, subjectID)
		if err != nil {
			return nil, err
		}
		return newAssignmentResponse(result, edges), nil
	})
}

// AssignSubjectsToEvaluator merges the given subjects onto an evaluator.
func (s *RelationshipService) AssignSubjectsToEvaluator(ctx context.Context, evaluatorID uuid.UUID, desired []EdgeSpec) (*AssignmentResponse, error) {
	return inTxResult(ctx, func(txCtx context.Context) (*AssignmentResponse, error) {
		result, err := s.mergeForEvaluator(txCtx, evaluatorID, desired)
		if err != nil {
			return nil, err
		}
		edges, err := s.edges.ListForEvaluator(txCtx, evaluatorID)
		if err != nil {
			return nil, err
		}
		return newAssignmentResponse(result, edges), nil
	})
}

// UpdateRelationship relabels the active edge between a subject and an
// evaluator. Switching the label to "Self" re-checks the identity invariant.
func (s *RelationshipService) UpdateRelationship(ctx context.Context, subjectID, evaluatorID uuid.UUID, label string) (relationship.Edge, error) {
	return inTxResult(ctx, func(txCtx context.Context) (relationship.Edge, error) {
		edge, err := s.edges.GetByPair(txCtx, subjectID, evaluatorID)
		if err != nil {
			return relationship.Edge{}, err
		}
		if !edge.IsActive() {
			return relationship.Edge{}, relationship.ErrNotFound
		}

		if relationship.IsSelfLabel(label) {
			subj, err := s.subjects.GetByID(txCtx, subjectID)
			if err != nil {
				return relationship.Edge{}, err
			}
			ev, err := s.evaluators.GetByID(txCtx, evaluatorID)
			if err != nil {
				return relationship.Edge{}, err
			}
			if subj.EmployeeID() != ev.EmployeeID() {
				return relationship.Edge{}, ErrSelfRelationshipMismatch
			}
		}

		edge = edge.WithLabel(label)
		if err := s.edges.Update(txCtx, edge); err != nil {
			return relationship.Edge{}, err
		}
		return edge, nil
	})
}

// RemoveRelationship soft-deletes the active edge between a subject and an
// evaluator. Returns false when there is nothing to remove.
func (s *RelationshipService) RemoveRelationship(ctx context.Context, subjectID, evaluatorID uuid.UUID) (bool, error) {
	return inTxResult(ctx, func(txCtx context.Context) (bool, error) {
		edge, err := s.edges.GetByPair(txCtx, subjectID, evaluatorID)
		if errors.Is(err, relationship.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		if !edge.IsActive() {
			return false, nil
		}
		return true, s.edges.Update(txCtx, edge.Deactivated())
	})
}

func (s *RelationshipService) ListForSubject(ctx context.Context, subjectID uuid.UUID) ([]relationship.Edge, error) {
	return inTxResult(ctx, func(txCtx context.Context) ([]relationship.Edge, error) {
		return s.edges.ListForSubject(txCtx, subjectID)
	})
}

func (s *RelationshipService) ListForEvaluator(ctx context.Context, evaluatorID uuid.UUID) ([]relationship.Edge, error) {
	return inTxResult(ctx, func(txCtx context.Context) ([]relationship.Edge, error) {
		return s.edges.ListForEvaluator(txCtx, evaluatorID)
	})
}

func (s *RelationshipService) mergeForSubject(ctx context.Context, subjectID uuid.UUID, desired []EdgeSpec) (*MergeResult, error) {
	subj, err := s.subjects.GetByID(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	result := &MergeResult{}
	for _, spec := range desired {
		ev, failReason, err := s.resolveEvaluator(ctx, spec.CounterpartID)
		if err != nil {
			return nil, err
		}
		if failReason != "" {
			result.fail(spec.CounterpartID, failReason)
			continue
		}

		if relationship.IsSelfLabel(spec.Relationship) && subj.EmployeeID() != ev.EmployeeID() {
			result.fail(spec.CounterpartID, fmt.Sprintf(
				"evaluator %s: %s", spec.CounterpartID, ErrSelfRelationshipMismatch.Message,
			))
			continue
		}

		if err := s.reconcileEdge(ctx, subj.ID(), ev.ID(), spec, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (s *RelationshipService) mergeForEvaluator(ctx context.Context, evaluatorID uuid.UUID, desired []EdgeSpec) (*MergeResult, error) {
	ev, err := s.evaluators.GetByID(ctx, evaluatorID)
	if err != nil {
		return nil, err
	}

	result := &MergeResult{}
	for _, spec := range desired {
		subj, failReason, err := s.resolveSubject(ctx, spec.CounterpartID)
		if err != nil {
			return nil, err
		}
		if failReason != "" {
			result.fail(spec.CounterpartID, failReason)
			continue
		}

		if relationship.IsSelfLabel(spec.Relationship) && ev.EmployeeID() != subj.EmployeeID() {
			result.fail(spec.CounterpartID, fmt.Sprintf(
				"subject %s: %s", spec.CounterpartID, ErrSelfRelationshipMismatch.Message,
			))
			continue
		}

		if err := s.reconcileEdge(ctx, subj.ID(), ev.ID(), spec, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// reconcileEdge applies the create / reactivate / already-connected decision
// for one (subject, evaluator) pair.
func (s *RelationshipService) reconcileEdge(ctx context.Context, subjectID, evaluatorID uuid.UUID, spec EdgeSpec, result *MergeResult) error {
	existing, err := s.edges.GetByPair(ctx, subjectID, evaluatorID)
	switch {
	case errors.Is(err, relationship.ErrNotFound):
		tenantID, err := composables.UseTenantID(ctx)
		if err != nil {
			return err
		}
		if _, err := s.edges.Create(ctx, relationship.New(tenantID, subjectID, evaluatorID, spec.Relationship)); err != nil {
			return err
		}
		result.SuccessfulConnections++
	case err != nil:
		return err
	case existing.IsActive():
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"relationship between subject %s and evaluator %s already exists", subjectID, evaluatorID,
		))
	default:
		if err := s.edges.Update(ctx, existing.Reactivated(spec.Relationship)); err != nil {
			return err
		}
		result.SuccessfulConnections++
	}
	return nil
}

// resolveEvaluator finds the evaluator behind a counterpart id. When the id
// names an employee with no evaluator record yet, the evaluator is
// auto-provisioned. A non-empty failReason marks an edge-scoped failure.
func (s *RelationshipService) resolveEvaluator(ctx context.Context, counterpartID uuid.UUID) (evaluator.Evaluator, string, error) {
	ev, err := s.evaluators.GetByID(ctx, counterpartID)
	if err == nil {
		return ev, "", nil
	}
	if !errors.Is(err, evaluator.ErrNotFound) {
		return evaluator.Evaluator{}, "", err
	}

	emp, err := s.employees.GetByID(ctx, counterpartID)
	if errors.Is(err, employee.ErrNotFound) {
		return evaluator.Evaluator{}, fmt.Sprintf("evaluator %s not found", counterpartID), nil
	}
	if err != nil {
		return evaluator.Evaluator{}, "", err
	}

	if existing, err := s.evaluators.GetByEmployeeID(ctx, emp.ID()); err == nil {
		return existing, "", nil
	} else if !errors.Is(err, evaluator.ErrNotFound) {
		return evaluator.Evaluator{}, "", err
	}

	created, err := s.ProvisionEvaluator(ctx, emp)
	if err != nil {
		return evaluator.Evaluator{}, fmt.Sprintf(
			"failed to provision evaluator for employee %s: %v", emp.Code(), err,
		), nil
	}
	return created, "", nil
}

// resolveSubject is the subject-side counterpart resolver.
func (s *RelationshipService) resolveSubject(ctx context.Context, counterpartID uuid.UUID) (subject.Subject, string, error) {
	subj, err := s.subjects.GetByID(ctx, counterpartID)
	if err == nil {
		return subj, "", nil
	}
	if !errors.Is(err, subject.ErrNotFound) {
		return subject.Subject{}, "", err
	}

	emp, err := s.employees.GetByID(ctx, counterpartID)
	if errors.Is(err, employee.ErrNotFound) {
		return subject.Subject{}, fmt.Sprintf("subject %s not found", counterpartID), nil
	}
	if err != nil {
		return subject.Subject{}, "", err
	}

	if existing, err := s.subjects.GetByEmployeeID(ctx, emp.ID()); err == nil {
		return existing, "", nil
	} else if !errors.Is(err, subject.ErrNotFound) {
		return subject.Subject{}, "", err
	}

	created, err := s.ProvisionSubject(ctx, emp)
	if err != nil {
		return subject.Subject{}, fmt.Sprintf(
			"failed to provision subject for employee %s: %v", emp.Code(), err,
		), nil
	}
	return created, "", nil
}

// ProvisionEvaluator registers an employee in the evaluator role, account
// included. Mirrors the bulk create path.
func (s *RelationshipService) ProvisionEvaluator(ctx context.Context, emp employee.Employee) (evaluator.Evaluator, error) {
	hash, err := hashDefaultPassword(s.passwords.Generate(emp.Email()))
	if err != nil {
		return evaluator.Evaluator{}, err
	}
	userID, err := s.provisioner.CreateAccount(ctx, emp.FirstName(), emp.LastName(), emp.Email(), hash, []string{"evaluator"})
	if err != nil {
		return evaluator.Evaluator{}, err
	}

	entity := evaluator.New(emp.TenantID(), emp.ID(), emp.FirstName(), emp.LastName(), emp.Email()).
		WithDetails(emp.Department(), emp.Designation()).
		WithAccount(userID, hash)
	created, err := s.evaluators.Create(ctx, entity)
	if err != nil {
		return evaluator.Evaluator{}, err
	}
	s.publisher.Publish(evaluator.CreatedEvent{Result: created})
	return created, nil
}

// ProvisionSubject registers an employee in the subject role.
func (s *RelationshipService) ProvisionSubject(ctx context.Context, emp employee.Employee) (subject.Subject, error) {
	hash, err := hashDefaultPassword(s.passwords.Generate(emp.Email()))
	if err != nil {
		return subject.Subject{}, err
	}
	userID, err := s.provisioner.CreateAccount(ctx, emp.FirstName(), emp.LastName(), emp.Email(), hash, []string{"subject"})
	if err != nil {
		return subject.Subject{}, err
	}

	entity := subject.New(emp.TenantID(), emp.ID(), emp.FirstName(), emp.LastName(), emp.Email()).
		WithDetails(emp.Department(), emp.Designation()).
		WithAccount(userID, hash)
	created, err := s.subjects.Create(ctx, entity)
	if err != nil {
		return subject.Subject{}, err
	}
	s.publisher.Publish(subject.CreatedEvent{Result: created})
	return created, nil
}

func (r *MergeResult) fail(counterpartID uuid.UUID, reason string) {
	r.FailedCounterpartIDs = append(r.FailedCounterpartIDs, counterpartID)
	r.Warnings = append(r.Warnings, reason)
}

func newAssignmentResponse(result *MergeResult, edges []relationship.Edge) *AssignmentResponse {
	message := fmt.Sprintf("%d relationship(s) connected", result.SuccessfulConnections)
	if len(result.FailedCounterpartIDs) > 0 {
		message = fmt.Sprintf("%s, %d failed", message, len(result.FailedCounterpartIDs))
	}
	return &AssignmentResponse{
		Success:     len(result.FailedCounterpartIDs) == 0,
		Message:     message,
		Assignments: edges,
	}
}
