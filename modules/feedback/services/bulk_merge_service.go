package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/loophq/loop360/modules/directory/domain/aggregates/employee"
	"github.com/loophq/loop360/modules/feedback/domain/aggregates/evaluator"
	"github.com/loophq/loop360/modules/feedback/domain/aggregates/subject"
	"github.com/loophq/loop360/pkg/eventbus"
	"github.com/loophq/loop360/pkg/serrors"
)

// BulkMergeResult accounts for every row of a bulk import exactly once:
// TotalRequested == SuccessfullyCreated + UpdatedCount + Failed. Edge-level
// problems never fail a row; they land in Warnings.
type BulkMergeResult struct {
	TotalRequested      int
	SuccessfullyCreated int
	UpdatedCount        int
	Failed              int
	Errors              []string
	Warnings            []string
	CreatedIDs          []uuid.UUID
}

// BulkMergeService implements merge-based bulk imports of subjects and
// evaluators. Rows whose employee already holds the role are updated in
// place; the rest get a fresh role record with a provisioned login account.
// All row writes happen in a single retrying tenant transaction; account
// provisioning runs before it so the transaction body stays side-effect
// free.
type BulkMergeService struct {
	employees     employee.Repository
	subjects      subject.Repository
	evaluators    evaluator.Repository
	relationships *RelationshipService
	provisioner   AccountProvisioner
	passwords     PasswordGenerator
	publisher     eventbus.EventBus
}

func NewBulkMergeService(
	employees employee.Repository,
	subjects subject.Repository,
	evaluators evaluator.Repository,
	relationships *RelationshipService,
	provisioner AccountProvisioner,
	passwords PasswordGenerator,
	publisher eventbus.EventBus,
) *BulkMergeService {
	return &BulkMergeService{
		employees:     employees,
		subjects:      subjects,
		evaluators:    evaluators,
		relationships: relationships,
		provisioner:   provisioner,
		passwords:     passwords,
		publisher:     publisher,
	}
}

// BulkCreateSubjects merges a batch of subject rows. Despite the name the
// operation is create-or-update: a row for an employee who is already a
// subject overwrites the mutable fields of the existing record.
func (s *BulkMergeService) BulkCreateSubjects(ctx context.Context, dtos []*subject.CreateDTO) (*BulkMergeResult, error) {
	result := &BulkMergeResult{TotalRequested: len(dtos)}
	rows := make([]*bulkRow, 0, len(dtos))
	seen := make(map[string]bool, len(dtos))
	for i, dto := range dtos {
		if errs, ok := dto.Ok(); !ok {
			result.failRow(i, dto.EmployeeCode, formatValidationErrors(errs))
			continue
		}
		if seen[dto.EmployeeCode] {
			result.failRow(i, dto.EmployeeCode, "duplicate employee code in batch")
			continue
		}
		seen[dto.EmployeeCode] = true

		edges := make([]EdgeSpec, 0, len(dto.Relationships))
		for _, rel := range dto.Relationships {
			edges = append(edges, EdgeSpec{CounterpartID: rel.EvaluatorID, Relationship: rel.Relationship})
		}
		rows = append(rows, &bulkRow{
			index:       i,
			code:        dto.EmployeeCode,
			firstName:   dto.FirstName,
			lastName:    dto.LastName,
			email:       dto.Email,
			department:  dto.Department,
			designation: dto.Designation,
			edges:       edges,
		})
	}
	if err := s.run(ctx, &subjectBulkRole{svc: s}, rows, result); err != nil {
		return nil, err
	}
	return result, nil
}

// BulkCreateEvaluators is the evaluator-side bulk merge.
func (s *BulkMergeService) BulkCreateEvaluators(ctx context.Context, dtos []*evaluator.CreateDTO) (*BulkMergeResult, error) {
	result := &BulkMergeResult{TotalRequested: len(dtos)}
	rows := make([]*bulkRow, 0, len(dtos))
	seen := make(map[string]bool, len(dtos))
	for i, dto := range dtos {
		if errs, ok := dto.Ok(); !ok {
			result.failRow(i, dto.EmployeeCode, formatValidationErrors(errs))
			continue
		}
		if seen[dto.EmployeeCode] {
			result.failRow(i, dto.EmployeeCode, "duplicate employee code in batch")
			continue
		}
		seen[dto.EmployeeCode] = true

		edges := make([]EdgeSpec, 0, len(dto.Relationships))
		for _, rel := range dto.Relationships {
			edges = append(edges, EdgeSpec{CounterpartID: rel.SubjectID, Relationship: rel.Relationship})
		}
		rows = append(rows, &bulkRow{
			index:       i,
			code:        dto.EmployeeCode,
			firstName:   dto.FirstName,
			lastName:    dto.LastName,
			email:       dto.Email,
			department:  dto.Department,
			designation: dto.Designation,
			edges:       edges,
		})
	}
	if err := s.run(ctx, &evaluatorBulkRole{svc: s}, rows, result); err != nil {
		return nil, err
	}
	return result, nil
}

// bulkRow carries one validated import row through resolution, provisioning
// and the transaction.
type bulkRow struct {
	index       int
	code        string
	firstName   string
	lastName    string
	email       string
	department  string
	designation string
	edges       []EdgeSpec

	emp        employee.Employee
	existingID uuid.UUID
	userID     uuid.UUID
	hash       string
}

func (r *bulkRow) resolvedEmail() string {
	if r.email != "" {
		return r.email
	}
	return r.emp.Email()
}

// bulkRole abstracts the subject/evaluator difference out of the merge
// pipeline.
type bulkRole interface {
	name() string
	existingByEmployeeIDs(ctx context.Context, employeeIDs []uuid.UUID) (map[uuid.UUID]uuid.UUID, error)
	emailTaken(ctx context.Context, email string, excludeID uuid.UUID) (bool, error)
	update(ctx context.Context, recordID uuid.UUID, row *bulkRow) error
	create(ctx context.Context, row *bulkRow) (uuid.UUID, error)
	mergeEdges(ctx context.Context, recordID uuid.UUID, edges []EdgeSpec) (*MergeResult, error)
}

func (s *BulkMergeService) run(ctx context.Context, role bulkRole, rows []*bulkRow, result *BulkMergeResult) error {
	// Resolve employee codes in one round trip.
	codes := make([]string, 0, len(rows))
	for _, row := range rows {
		codes = append(codes, row.code)
	}
	employees, err := s.employees.GetByCodes(ctx, codes)
	if err != nil {
		return err
	}
	byCode := make(map[string]employee.Employee, len(employees))
	for _, emp := range employees {
		byCode[emp.Code()] = emp
	}

	resolved := rows[:0]
	for _, row := range rows {
		emp, ok := byCode[row.code]
		if !ok {
			result.failRow(row.index, row.code, "employee code not found")
			continue
		}
		row.emp = emp
		resolved = append(resolved, row)
	}
	rows = resolved

	// Partition rows into updates and creates.
	employeeIDs := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		employeeIDs = append(employeeIDs, row.emp.ID())
	}
	existing, err := role.existingByEmployeeIDs(ctx, employeeIDs)
	if err != nil {
		return err
	}
	for _, row := range rows {
		row.existingID = existing[row.emp.ID()]
	}

	// Provision accounts for the create rows before opening the
	// transaction: account creation is not rolled back, so it must not sit
	// inside a body that may retry.
	provisioned := rows[:0]
	for _, row := range rows {
		if row.existingID != uuid.Nil {
			provisioned = append(provisioned, row)
			continue
		}
		hash, err := hashDefaultPassword(s.passwords.Generate(row.resolvedEmail()))
		if err != nil {
			return err
		}
		userID, err := s.provisioner.CreateAccount(
			ctx, row.firstName, row.lastName, row.resolvedEmail(), hash, []string{role.name()},
		)
		if err != nil {
			result.failRow(row.index, row.code, fmt.Sprintf("account provisioning failed: %v", err))
			continue
		}
		row.userID = userID
		row.hash = hash
		provisioned = append(provisioned, row)
	}
	rows = provisioned

	// All row writes in one tenant transaction. Per-attempt state lives
	// inside the closure so a retry starts from a clean slate.
	var (
		createdIDs []uuid.UUID
		updated    int
		failures   []rowFailure
		warnings   []string
	)
	err = runInTx(ctx, func(txCtx context.Context) error {
		createdIDs, updated, failures, warnings = nil, 0, nil, nil
		for _, row := range rows {
			recordID := row.existingID
			if recordID != uuid.Nil {
				if row.email != "" {
					taken, err := role.emailTaken(txCtx, row.email, recordID)
					if err != nil {
						return err
					}
					if taken {
						failures = append(failures, rowFailure{
							index: row.index, code: row.code,
							reason: fmt.Sprintf("email %s already in use", row.email),
						})
						continue
					}
				}
				if err := role.update(txCtx, recordID, row); err != nil {
					return err
				}
				updated++
			} else {
				taken, err := role.emailTaken(txCtx, row.resolvedEmail(), uuid.Nil)
				if err != nil {
					return err
				}
				if taken {
					failures = append(failures, rowFailure{
						index: row.index, code: row.code,
						reason: fmt.Sprintf("email %s already in use", row.resolvedEmail()),
					})
					continue
				}
				id, err := role.create(txCtx, row)
				if err != nil {
					return err
				}
				recordID = id
				createdIDs = append(createdIDs, id)
			}

			if len(row.edges) == 0 {
				continue
			}
			merged, err := role.mergeEdges(txCtx, recordID, row.edges)
			if err != nil {
				return err
			}
			for _, w := range merged.Warnings {
				warnings = append(warnings, fmt.Sprintf("row %d (%s): %s", row.index, row.code, w))
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	result.SuccessfullyCreated = len(createdIDs)
	result.UpdatedCount = updated
	result.CreatedIDs = createdIDs
	result.Warnings = append(result.Warnings, warnings...)
	for _, f := range failures {
		result.failRow(f.index, f.code, f.reason)
	}
	return nil
}

type rowFailure struct {
	index  int
	code   string
	reason string
}

func (r *BulkMergeResult) failRow(index int, code, reason string) {
	r.Failed++
	r.Errors = append(r.Errors, fmt.Sprintf("row %d (%s): %s", index, code, reason))
}

func formatValidationErrors(errs serrors.ValidationErrors) string {
	fields := make([]string, 0, len(errs))
	for field := range errs {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, errs[field].Message))
	}
	return strings.Join(parts, "; ")
}

type subjectBulkRole struct {
	svc *BulkMergeService
}

func (r *subjectBulkRole) name() string { return "subject" }

func (r *subjectBulkRole) existingByEmployeeIDs(ctx context.Context, employeeIDs []uuid.UUID) (map[uuid.UUID]uuid.UUID, error) {
	subjects, err := r.svc.subjects.GetByEmployeeIDs(ctx, employeeIDs)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]uuid.UUID, len(subjects))
	for _, subj := range subjects {
		out[subj.EmployeeID()] = subj.ID()
	}
	return out, nil
}

func (r *subjectBulkRole) emailTaken(ctx context.Context, email string, excludeID uuid.UUID) (bool, error) {
	return r.svc.subjects.EmailTaken(ctx, email, excludeID)
}

func (r *subjectBulkRole) update(ctx context.Context, recordID uuid.UUID, row *bulkRow) error {
	subj, err := r.svc.subjects.GetByID(ctx, recordID)
	if err != nil {
		return err
	}
	subj = subj.Overwritten(row.firstName, row.lastName, row.email, row.department, row.designation)
	if err := r.svc.subjects.Update(ctx, subj); err != nil {
		return err
	}
	r.svc.publisher.Publish(subject.UpdatedEvent{Result: subj})
	return nil
}

func (r *subjectBulkRole) create(ctx context.Context, row *bulkRow) (uuid.UUID, error) {
	emp := row.emp
	entity := subject.New(emp.TenantID(), emp.ID(), emp.FirstName(), emp.LastName(), emp.Email()).
		WithDetails(emp.Department(), emp.Designation()).
		Overwritten(row.firstName, row.lastName, row.email, row.department, row.designation).
		WithAccount(row.userID, row.hash)
	created, err := r.svc.subjects.Create(ctx, entity)
	if err != nil {
		return uuid.Nil, err
	}
	r.svc.publisher.Publish(subject.CreatedEvent{Result: created})
	return created.ID(), nil
}

func (r *subjectBulkRole) mergeEdges(ctx context.Context, recordID uuid.UUID, edges []EdgeSpec) (*MergeResult, error) {
	return r.svc.relationships.mergeForSubject(ctx, recordID, edges)
}

type evaluatorBulkRole struct {
	svc *BulkMergeService
}

func (r *evaluatorBulkRole) name() string { return "evaluator" }

func (r *evaluatorBulkRole) existingByEmployeeIDs(ctx context.Context, employeeIDs []uuid.UUID) (map[uuid.UUID]uuid.UUID, error) {
	evaluators, err := r.svc.evaluators.GetByEmployeeIDs(ctx, employeeIDs)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]uuid.UUID, len(evaluators))
	for _, ev := range evaluators {
		out[ev.EmployeeID()] = ev.ID()
	}
	return out, nil
}

func (r *evaluatorBulkRole) emailTaken(ctx context.Context, email string, excludeID uuid.UUID) (bool, error) {
	return r.svc.evaluators.EmailTaken(ctx, email, excludeID)
}

func (r *evaluatorBulkRole) update(ctx context.Context, recordID uuid.UUID, row *bulkRow) error {
	ev, err := r.svc.evaluators.GetByID(ctx, recordID)
	if err != nil {
		return err
	}
	ev = ev.Overwritten(row.firstName, row.lastName, row.email, row.department, row.designation)
	if err := r.svc.evaluators.Update(ctx, ev); err != nil {
		return err
	}
	r.svc.publisher.Publish(evaluator.UpdatedEvent{Result: ev})
	return nil
}

func (r *evaluatorBulkRole) create(ctx context.Context, row *bulkRow) (uuid.UUID, error) {
	emp := row.emp
	entity := evaluator.New(emp.TenantID(), emp.ID(), emp.FirstName(), emp.LastName(), emp.Email()).
		WithDetails(emp.Department(), emp.Designation()).
		Overwritten(row.firstName, row.lastName, row.email, row.department, row.designation).
		WithAccount(row.userID, row.hash)
	created, err := r.svc.evaluators.Create(ctx, entity)
	if err != nil {
		return uuid.Nil, err
	}
	r.svc.publisher.Publish(evaluator.CreatedEvent{Result: created})
	return created.ID(), nil
}

func (r *evaluatorBulkRole) mergeEdges(ctx context.Context, recordID uuid.UUID, edges []EdgeSpec) (*MergeResult, error) {
	return r.svc.relationships.mergeForEvaluator(ctx, recordID, edges)
}
