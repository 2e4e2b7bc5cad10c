package services

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/loophq/loop360/modules/directory/domain/aggregates/employee"
	"github.com/loophq/loop360/modules/feedback/domain/aggregates/evaluator"
	"github.com/loophq/loop360/modules/feedback/domain/aggregates/subject"
	"github.com/loophq/loop360/modules/feedback/domain/entities/assignment"
	"github.com/loophq/loop360/modules/feedback/domain/entities/relationship"
	"github.com/loophq/loop360/pkg/composables"
	"github.com/loophq/loop360/pkg/eventbus"
)

var testTenantID = uuid.MustParse("11111111-1111-1111-1111-111111111111")

// testContext returns a tenant-scoped context and swaps the transaction
// wrapper for a passthrough so services run against the in-memory fakes.
func testContext(t *testing.T) context.Context {
	t.Helper()
	prev := runInTx
	runInTx = func(ctx context.Context, fn func(context.Context) error) error {
		return fn(ctx)
	}
	t.Cleanup(func() { runInTx = prev })
	return composables.WithTenantID(context.Background(), testTenantID)
}

func testBus() eventbus.EventBus {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return eventbus.NewEventPublisher(logger)
}

// --- employees -------------------------------------------------------------

type fakeEmployeeRepo struct {
	items map[uuid.UUID]employee.Employee
}

func newFakeEmployeeRepo(employees ...employee.Employee) *fakeEmployeeRepo {
	r := &fakeEmployeeRepo{items: make(map[uuid.UUID]employee.Employee)}
	for _, e := range employees {
		r.items[e.ID()] = e
	}
	return r
}

func (r *fakeEmployeeRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(r.items)), nil
}

func (r *fakeEmployeeRepo) GetPaginated(ctx context.Context, params *employee.FindParams) ([]employee.Employee, error) {
	out := make([]employee.Employee, 0, len(r.items))
	for _, e := range r.items {
		out = append(out, e)
	}
	return out, nil
}

func (r *fakeEmployeeRepo) GetByID(ctx context.Context, id uuid.UUID) (employee.Employee, error) {
	e, ok := r.items[id]
	if !ok {
		return employee.Employee{}, employee.ErrNotFound
	}
	return e, nil
}

func (r *fakeEmployeeRepo) GetByCode(ctx context.Context, code string) (employee.Employee, error) {
	for _, e := range r.items {
		if e.Code() == code {
			return e, nil
		}
	}
	return employee.Employee{}, employee.ErrNotFound
}

func (r *fakeEmployeeRepo) GetByCodes(ctx context.Context, codes []string) ([]employee.Employee, error) {
	out := make([]employee.Employee, 0, len(codes))
	for _, code := range codes {
		if e, err := r.GetByCode(ctx, code); err == nil {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeEmployeeRepo) Create(ctx context.Context, e employee.Employee) (employee.Employee, error) {
	r.items[e.ID()] = e
	return e, nil
}

func (r *fakeEmployeeRepo) Update(ctx context.Context, e employee.Employee) error {
	r.items[e.ID()] = e
	return nil
}

func (r *fakeEmployeeRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	e, ok := r.items[id]
	if !ok {
		return employee.ErrNotFound
	}
	r.items[id] = e.Deactivated()
	return nil
}

// --- subjects --------------------------------------------------------------

type fakeSubjectRepo struct {
	items map[uuid.UUID]subject.Subject
}

func newFakeSubjectRepo(subjects ...subject.Subject) *fakeSubjectRepo {
	r := &fakeSubjectRepo{items: make(map[uuid.UUID]subject.Subject)}
	for _, s := range subjects {
		r.items[s.ID()] = s
	}
	return r
}

func (r *fakeSubjectRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(r.items)), nil
}

func (r *fakeSubjectRepo) GetPaginated(ctx context.Context, params *subject.FindParams) ([]subject.Subject, error) {
	out := make([]subject.Subject, 0, len(r.items))
	for _, s := range r.items {
		out = append(out, s)
	}
	return out, nil
}

func (r *fakeSubjectRepo) GetByID(ctx context.Context, id uuid.UUID) (subject.Subject, error) {
	s, ok := r.items[id]
	if !ok {
		return subject.Subject{}, subject.ErrNotFound
	}
	return s, nil
}

func (r *fakeSubjectRepo) GetByEmployeeID(ctx context.Context, employeeID uuid.UUID) (subject.Subject, error) {
	for _, s := range r.items {
		if s.EmployeeID() == employeeID && s.IsActive() {
			return s, nil
		}
	}
	return subject.Subject{}, subject.ErrNotFound
}

func (r *fakeSubjectRepo) GetByEmployeeIDs(ctx context.Context, employeeIDs []uuid.UUID) ([]subject.Subject, error) {
	out := make([]subject.Subject, 0, len(employeeIDs))
	for _, id := range employeeIDs {
		if s, err := r.GetByEmployeeID(ctx, id); err == nil {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSubjectRepo) EmailTaken(ctx context.Context, email string, excludeID uuid.UUID) (bool, error) {
	for _, s := range r.items {
		if s.IsActive() && s.Email() == email && s.ID() != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeSubjectRepo) Create(ctx context.Context, s subject.Subject) (subject.Subject, error) {
	r.items[s.ID()] = s
	return s, nil
}

func (r *fakeSubjectRepo) Update(ctx context.Context, s subject.Subject) error {
	if _, ok := r.items[s.ID()]; !ok {
		return subject.ErrNotFound
	}
	r.items[s.ID()] = s
	return nil
}

func (r *fakeSubjectRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	s, ok := r.items[id]
	if !ok {
		return subject.ErrNotFound
	}
	r.items[id] = s.Deactivated()
	return nil
}

// --- evaluators ------------------------------------------------------------

type fakeEvaluatorRepo struct {
	items map[uuid.UUID]evaluator.Evaluator
}

func newFakeEvaluatorRepo(evaluators ...evaluator.Evaluator) *fakeEvaluatorRepo {
	r := &fakeEvaluatorRepo{items: make(map[uuid.UUID]evaluator.Evaluator)}
	for _, e := range evaluators {
		r.items[e.ID()] = e
	}
	return r
}

func (r *fakeEvaluatorRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(r.items)), nil
}

func (r *fakeEvaluatorRepo) GetPaginated(ctx context.Context, params *evaluator.FindParams) ([]evaluator.Evaluator, error) {
	out := make([]evaluator.Evaluator, 0, len(r.items))
	for _, e := range r.items {
		out = append(out, e)
	}
	return out, nil
}

func (r *fakeEvaluatorRepo) GetByID(ctx context.Context, id uuid.UUID) (evaluator.Evaluator, error) {
	e, ok := r.items[id]
	if !ok {
		return evaluator.Evaluator{}, evaluator.ErrNotFound
	}
	return e, nil
}

func (r *fakeEvaluatorRepo) GetByEmployeeID(ctx context.Context, employeeID uuid.UUID) (evaluator.Evaluator, error) {
	for _, e := range r.items {
		if e.EmployeeID() == employeeID && e.IsActive() {
			return e, nil
		}
	}
	return evaluator.Evaluator{}, evaluator.ErrNotFound
}

func (r *fakeEvaluatorRepo) GetByEmployeeIDs(ctx context.Context, employeeIDs []uuid.UUID) ([]evaluator.Evaluator, error) {
	out := make([]evaluator.Evaluator, 0, len(employeeIDs))
	for _, id := range employeeIDs {
		if e, err := r.GetByEmployeeID(ctx, id); err == nil {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeEvaluatorRepo) EmailTaken(ctx context.Context, email string, excludeID uuid.UUID) (bool, error) {
	for _, e := range r.items {
		if e.IsActive() && e.Email() == email && e.ID() != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeEvaluatorRepo) Create(ctx context.Context, e evaluator.Evaluator) (evaluator.Evaluator, error) {
	r.items[e.ID()] = e
	return e, nil
}

func (r *fakeEvaluatorRepo) Update(ctx context.Context, e evaluator.Evaluator) error {
	if _, ok := r.items[e.ID()]; !ok {
		return evaluator.ErrNotFound
	}
	r.items[e.ID()] = e
	return nil
}

func (r *fakeEvaluatorRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	e, ok := r.items[id]
	if !ok {
		return evaluator.ErrNotFound
	}
	r.items[id] = e.Deactivated()
	return nil
}

// --- relationship edges ----------------------------------------------------

type fakeEdgeRepo struct {
	items map[uuid.UUID]relationship.Edge
}

func newFakeEdgeRepo(edges ...relationship.Edge) *fakeEdgeRepo {
	r := &fakeEdgeRepo{items: make(map[uuid.UUID]relationship.Edge)}
	for _, e := range edges {
		r.items[e.ID()] = e
	}
	return r
}

func (r *fakeEdgeRepo) GetByID(ctx context.Context, id uuid.UUID) (relationship.Edge, error) {
	e, ok := r.items[id]
	if !ok {
		return relationship.Edge{}, relationship.ErrNotFound
	}
	return e, nil
}

func (r *fakeEdgeRepo) GetByPair(ctx context.Context, subjectID, evaluatorID uuid.UUID) (relationship.Edge, error) {
	var found relationship.Edge
	for _, e := range r.items {
		if e.SubjectID() != subjectID || e.EvaluatorID() != evaluatorID {
			continue
		}
		if e.IsActive() {
			return e, nil
		}
		found = e
	}
	if found.IsZero() {
		return relationship.Edge{}, relationship.ErrNotFound
	}
	return found, nil
}

func (r *fakeEdgeRepo) ListForSubject(ctx context.Context, subjectID uuid.UUID) ([]relationship.Edge, error) {
	var out []relationship.Edge
	for _, e := range r.items {
		if e.SubjectID() == subjectID && e.IsActive() {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeEdgeRepo) ListForEvaluator(ctx context.Context, evaluatorID uuid.UUID) ([]relationship.Edge, error) {
	var out []relationship.Edge
	for _, e := range r.items {
		if e.EvaluatorID() == evaluatorID && e.IsActive() {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeEdgeRepo) Create(ctx context.Context, e relationship.Edge) (relationship.Edge, error) {
	r.items[e.ID()] = e
	return e, nil
}

func (r *fakeEdgeRepo) Update(ctx context.Context, e relationship.Edge) error {
	if _, ok := r.items[e.ID()]; !ok {
		return relationship.ErrNotFound
	}
	r.items[e.ID()] = e
	return nil
}

func (r *fakeEdgeRepo) DeactivateForSubject(ctx context.Context, subjectID uuid.UUID) error {
	for id, e := range r.items {
		if e.SubjectID() == subjectID && e.IsActive() {
			r.items[id] = e.Deactivated()
		}
	}
	return nil
}

func (r *fakeEdgeRepo) DeactivateForEvaluator(ctx context.Context, evaluatorID uuid.UUID) error {
	for id, e := range r.items {
		if e.EvaluatorID() == evaluatorID && e.IsActive() {
			r.items[id] = e.Deactivated()
		}
	}
	return nil
}

// --- survey assignments ----------------------------------------------------

type fakeAssignmentRepo struct {
	items map[uuid.UUID]assignment.Assignment
}

func newFakeAssignmentRepo(assignments ...assignment.Assignment) *fakeAssignmentRepo {
	r := &fakeAssignmentRepo{items: make(map[uuid.UUID]assignment.Assignment)}
	for _, a := range assignments {
		r.items[a.ID()] = a
	}
	return r
}

func (r *fakeAssignmentRepo) GetByID(ctx context.Context, id uuid.UUID) (assignment.Assignment, error) {
	a, ok := r.items[id]
	if !ok {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	return a, nil
}

func (r *fakeAssignmentRepo) GetByPair(ctx context.Context, subjectEvaluatorID, surveyID uuid.UUID) (assignment.Assignment, error) {
	var found assignment.Assignment
	for _, a := range r.items {
		if a.SubjectEvaluatorID() != subjectEvaluatorID || a.SurveyID() != surveyID {
			continue
		}
		if a.IsActive() {
			return a, nil
		}
		found = a
	}
	if found.IsZero() {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	return found, nil
}

func (r *fakeAssignmentRepo) ListForRelationship(ctx context.Context, subjectEvaluatorID uuid.UUID) ([]assignment.Assignment, error) {
	var out []assignment.Assignment
	for _, a := range r.items {
		if a.SubjectEvaluatorID() == subjectEvaluatorID && a.IsActive() {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAssignmentRepo) ListDueForReminder(ctx context.Context, surveyID uuid.UUID, before time.Time) ([]assignment.Assignment, error) {
	var out []assignment.Assignment
	for _, a := range r.items {
		if a.SurveyID() != surveyID || !a.IsActive() {
			continue
		}
		last := a.CreatedAt()
		if a.AssignmentEmailSentAt() != nil {
			last = *a.AssignmentEmailSentAt()
		}
		if a.LastReminderSentAt() != nil {
			last = *a.LastReminderSentAt()
		}
		if last.Before(before) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAssignmentRepo) Create(ctx context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	r.items[a.ID()] = a
	return a, nil
}

func (r *fakeAssignmentRepo) Update(ctx context.Context, a assignment.Assignment) error {
	if _, ok := r.items[a.ID()]; !ok {
		return assignment.ErrNotFound
	}
	r.items[a.ID()] = a
	return nil
}

// --- provisioning ----------------------------------------------------------

// recordingProvisioner captures CreateAccount calls and can be told to fail
// for specific emails.
type recordingProvisioner struct {
	calls      []string
	failEmails map[string]bool
}

func (p *recordingProvisioner) CreateAccount(ctx context.Context, firstName, lastName, email, passwordHash string, roles []string) (uuid.UUID, error) {
	if p.failEmails[email] {
		return uuid.Nil, errors.Errorf("account for %s already exists", email)
	}
	p.calls = append(p.calls, email)
	return uuid.New(), nil
}
