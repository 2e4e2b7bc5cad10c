package services

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/loophq/loop360/modules/directory/domain/aggregates/employee"
	"github.com/loophq/loop360/modules/feedback/domain/aggregates/evaluator"
	"github.com/loophq/loop360/modules/feedback/domain/aggregates/subject"
)

type bulkFixture struct {
	employees   *fakeEmployeeRepo
	subjects    *fakeSubjectRepo
	evaluators  *fakeEvaluatorRepo
	edges       *fakeEdgeRepo
	provisioner *recordingProvisioner
	svc         *BulkMergeService
}

func newBulkFixture(employees ...employee.Employee) *bulkFixture {
	f := &bulkFixture{
		employees:   newFakeEmployeeRepo(employees...),
		subjects:    newFakeSubjectRepo(),
		evaluators:  newFakeEvaluatorRepo(),
		edges:       newFakeEdgeRepo(),
		provisioner: &recordingProvisioner{},
	}
	bus := testBus()
	passwords := NewPasswordGenerator("test")
	relationships := NewRelationshipService(
		f.employees, f.subjects, f.evaluators, f.edges, f.provisioner, passwords, bus,
	)
	f.svc = NewBulkMergeService(
		f.employees, f.subjects, f.evaluators, relationships, f.provisioner, passwords, bus,
	)
	return f
}

func TestBulkCreateSubjects_CreatesNewRows(t *testing.T) {
	ctx := testContext(t)
	alice := employee.New(testTenantID, "EMP001", "Alice", "Nguyen", "alice@acme.test")
	bob := employee.New(testTenantID, "EMP002", "Bob", "Osei", "bob@acme.test")
	f := newBulkFixture(alice, bob)

	result, err := f.svc.BulkCreateSubjects(ctx, []*subject.CreateDTO{
		{EmployeeCode: "emp001"},
		{EmployeeCode: "EMP002", Department: "Finance"},
	})
	require.NoError(t, err)

	require.Equal(t, 2, result.TotalRequested)
	require.Equal(t, 2, result.SuccessfullyCreated)
	require.Equal(t, 0, result.UpdatedCount)
	require.Equal(t, 0, result.Failed)
	require.Len(t, result.CreatedIDs, 2)
	require.Empty(t, result.Errors)

	created, err := f.subjects.GetByEmployeeID(ctx, bob.ID())
	require.NoError(t, err)
	require.Equal(t, "Finance", created.Department())
	require.Equal(t, "bob@acme.test", created.Email())
	require.NotEmpty(t, created.PasswordHash())

	// One account per created subject.
	require.Len(t, f.provisioner.calls, 2)
}

func TestBulkCreateSubjects_UpdatesExistingRows(t *testing.T) {
	ctx := testContext(t)
	alice := employee.New(testTenantID, "EMP001", "Alice", "Nguyen", "alice@acme.test")
	f := newBulkFixture(alice)

	existing := subject.New(testTenantID, alice.ID(), "Alice", "Nguyen", "alice@acme.test")
	_, err := f.subjects.Create(ctx, existing)
	require.NoError(t, err)

	result, err := f.svc.BulkCreateSubjects(ctx, []*subject.CreateDTO{
		{EmployeeCode: "EMP001", Designation: "Staff Engineer"},
	})
	require.NoError(t, err)

	require.Equal(t, 1, result.UpdatedCount)
	require.Equal(t, 0, result.SuccessfullyCreated)
	require.Equal(t, 0, result.Failed)
	require.Empty(t, result.CreatedIDs)

	updated, err := f.subjects.GetByID(ctx, existing.ID())
	require.NoError(t, err)
	require.Equal(t, "Staff Engineer", updated.Designation())

	// Updates never provision accounts.
	require.Empty(t, f.provisioner.calls)
}

func TestBulkCreateSubjects_MixedBatchAccounting(t *testing.T) {
	ctx := testContext(t)
	alice := employee.New(testTenantID, "EMP001", "Alice", "Nguyen", "alice@acme.test")
	bob := employee.New(testTenantID, "EMP002", "Bob", "Osei", "bob@acme.test")
	f := newBulkFixture(alice, bob)

	_, err := f.subjects.Create(ctx, subject.New(testTenantID, alice.ID(), "Alice", "Nguyen", "alice@acme.test"))
	require.NoError(t, err)

	result, err := f.svc.BulkCreateSubjects(ctx, []*subject.CreateDTO{
		{EmployeeCode: "EMP001"},                     // update
		{EmployeeCode: "EMP002"},                     // create
		{EmployeeCode: "EMP404"},                     // unknown code
		{EmployeeCode: ""},                           // validation failure
		{EmployeeCode: "EMP002"},                     // duplicate in batch
		{EmployeeCode: "EMP001", Email: "not-email"}, // invalid email
	})
	require.NoError(t, err)

	require.Equal(t, 6, result.TotalRequested)
	require.Equal(t, 1, result.SuccessfullyCreated)
	require.Equal(t, 1, result.UpdatedCount)
	require.Equal(t, 4, result.Failed)
	require.Len(t, result.Errors, 4)
	require.Equal(t, result.TotalRequested, result.SuccessfullyCreated+result.UpdatedCount+result.Failed)
}

func TestBulkCreateSubjects_RowErrorsNameRowAndCode(t *testing.T) {
	ctx := testContext(t)
	f := newBulkFixture()

	result, err := f.svc.BulkCreateSubjects(ctx, []*subject.CreateDTO{
		{EmployeeCode: "EMP404"},
	})
	require.NoError(t, err)
	require.Equal(t, 1, result.Failed)
	require.Contains(t, result.Errors[0], "row 0")
	require.Contains(t, result.Errors[0], "EMP404")
	require.Contains(t, result.Errors[0], "employee code not found")
}

func TestBulkCreateSubjects_ProvisioningFailureFailsOnlyThatRow(t *testing.T) {
	ctx := testContext(t)
	alice := employee.New(testTenantID, "EMP001", "Alice", "Nguyen", "alice@acme.test")
	bob := employee.New(testTenantID, "EMP002", "Bob", "Osei", "bob@acme.test")
	f := newBulkFixture(alice, bob)
	f.provisioner.failEmails = map[string]bool{"alice@acme.test": true}

	result, err := f.svc.BulkCreateSubjects(ctx, []*subject.CreateDTO{
		{EmployeeCode: "EMP001"},
		{EmployeeCode: "EMP002"},
	})
	require.NoError(t, err)

	require.Equal(t, 1, result.SuccessfullyCreated)
	require.Equal(t, 1, result.Failed)
	require.Contains(t, result.Errors[0], "account provisioning failed")

	_, err = f.subjects.GetByEmployeeID(ctx, alice.ID())
	require.Error(t, err)
}

func TestBulkCreateSubjects_FansOutRelationships(t *testing.T) {
	ctx := testContext(t)
	alice := employee.New(testTenantID, "EMP001", "Alice", "Nguyen", "alice@acme.test")
	carol := employee.New(testTenantID, "EMP003", "Carol", "Ibe", "carol@acme.test")
	f := newBulkFixture(alice, carol)

	manager := evaluator.New(testTenantID, carol.ID(), "Carol", "Ibe", "carol@acme.test")
	_, err := f.evaluators.Create(ctx, manager)
	require.NoError(t, err)

	result, err := f.svc.BulkCreateSubjects(ctx, []*subject.CreateDTO{
		{
			EmployeeCode: "EMP001",
			Relationships: []subject.EdgeDTO{
				{EvaluatorID: manager.ID(), Relationship: "Manager"},
			},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 1, result.SuccessfullyCreated)
	require.Empty(t, result.Warnings)

	subj, err := f.subjects.GetByEmployeeID(ctx, alice.ID())
	require.NoError(t, err)
	edges, err := f.edges.ListForSubject(ctx, subj.ID())
	require.NoError(t, err)
	require.Len(t, edges, 1)
	require.Equal(t, "Manager", edges[0].Label())
	require.Equal(t, manager.ID(), edges[0].EvaluatorID())
}

func TestBulkCreateSubjects_SelfEdgeRequiresSameEmployee(t *testing.T) {
	ctx := testContext(t)
	alice := employee.New(testTenantID, "EMP001", "Alice", "Nguyen", "alice@acme.test")
	bob := employee.New(testTenantID, "EMP002", "Bob", "Osei", "bob@acme.test")
	f := newBulkFixture(alice, bob)

	bobEval := evaluator.New(testTenantID, bob.ID(), "Bob", "Osei", "bob@acme.test")
	_, err := f.evaluators.Create(ctx, bobEval)
	require.NoError(t, err)

	result, err := f.svc.BulkCreateSubjects(ctx, []*subject.CreateDTO{
		{
			EmployeeCode: "EMP001",
			Relationships: []subject.EdgeDTO{
				{EvaluatorID: bobEval.ID(), Relationship: "self"},
			},
		},
	})
	require.NoError(t, err)

	// Row still counts as created; the bad edge surfaces as a warning.
	require.Equal(t, 1, result.SuccessfullyCreated)
	require.Equal(t, 0, result.Failed)
	require.Len(t, result.Warnings, 1)
	require.Contains(t, result.Warnings[0], "same employee")

	subj, err := f.subjects.GetByEmployeeID(ctx, alice.ID())
	require.NoError(t, err)
	edges, err := f.edges.ListForSubject(ctx, subj.ID())
	require.NoError(t, err)
	require.Empty(t, edges)
}

func TestBulkCreateSubjects_AutoProvisionsEvaluatorCounterpart(t *testing.T) {
	ctx := testContext(t)
	alice := employee.New(testTenantID, "EMP001", "Alice", "Nguyen", "alice@acme.test")
	carol := employee.New(testTenantID, "EMP003", "Carol", "Ibe", "carol@acme.test")
	f := newBulkFixture(alice, carol)

	// No evaluator record exists for Carol; the edge references her employee
	// id directly.
	result, err := f.svc.BulkCreateSubjects(ctx, []*subject.CreateDTO{
		{
			EmployeeCode: "EMP001",
			Relationships: []subject.EdgeDTO{
				{EvaluatorID: carol.ID(), Relationship: "Manager"},
			},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 1, result.SuccessfullyCreated)
	require.Empty(t, result.Warnings)

	provisioned, err := f.evaluators.GetByEmployeeID(ctx, carol.ID())
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, provisioned.UserID())
}

func TestBulkCreateSubjects_EmailConflictFailsRow(t *testing.T) {
	ctx := testContext(t)
	alice := employee.New(testTenantID, "EMP001", "Alice", "Nguyen", "alice@acme.test")
	bob := employee.New(testTenantID, "EMP002", "Bob", "Osei", "shared@acme.test")
	f := newBulkFixture(alice, bob)

	result, err := f.svc.BulkCreateSubjects(ctx, []*subject.CreateDTO{
		{EmployeeCode: "EMP001", Email: "shared@acme.test"},
		{EmployeeCode: "EMP002"},
	})
	require.NoError(t, err)

	require.Equal(t, 1, result.SuccessfullyCreated)
	require.Equal(t, 1, result.Failed)
	require.Contains(t, result.Errors[0], "already in use")
}

func TestBulkCreateEvaluators_CreatesAndUpdates(t *testing.T) {
	ctx := testContext(t)
	alice := employee.New(testTenantID, "EMP001", "Alice", "Nguyen", "alice@acme.test")
	bob := employee.New(testTenantID, "EMP002", "Bob", "Osei", "bob@acme.test")
	f := newBulkFixture(alice, bob)

	_, err := f.evaluators.Create(ctx, evaluator.New(testTenantID, alice.ID(), "Alice", "Nguyen", "alice@acme.test"))
	require.NoError(t, err)

	result, err := f.svc.BulkCreateEvaluators(ctx, []*evaluator.CreateDTO{
		{EmployeeCode: "EMP001", Department: "Engineering"},
		{EmployeeCode: "EMP002"},
	})
	require.NoError(t, err)

	require.Equal(t, 1, result.UpdatedCount)
	require.Equal(t, 1, result.SuccessfullyCreated)
	require.Equal(t, 0, result.Failed)

	updated, err := f.evaluators.GetByEmployeeID(ctx, alice.ID())
	require.NoError(t, err)
	require.Equal(t, "Engineering", updated.Department())
}

func TestBulkCreateEvaluators_FansOutToSubjects(t *testing.T) {
	ctx := testContext(t)
	alice := employee.New(testTenantID, "EMP001", "Alice", "Nguyen", "alice@acme.test")
	bob := employee.New(testTenantID, "EMP002", "Bob", "Osei", "bob@acme.test")
	f := newBulkFixture(alice, bob)

	subj := subject.New(testTenantID, bob.ID(), "Bob", "Osei", "bob@acme.test")
	_, err := f.subjects.Create(ctx, subj)
	require.NoError(t, err)

	result, err := f.svc.BulkCreateEvaluators(ctx, []*evaluator.CreateDTO{
		{
			EmployeeCode: "EMP001",
			Relationships: []evaluator.EdgeDTO{
				{SubjectID: subj.ID(), Relationship: "Peer"},
			},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 1, result.SuccessfullyCreated)

	ev, err := f.evaluators.GetByEmployeeID(ctx, alice.ID())
	require.NoError(t, err)
	edges, err := f.edges.ListForEvaluator(ctx, ev.ID())
	require.NoError(t, err)
	require.Len(t, edges, 1)
	require.Equal(t, subj.ID(), edges[0].SubjectID())
}

func TestBulkCreateSubjects_MalformedEmailIsMultiStatus(t *testing.T) {
	ctx := testContext(t)
	alice := employee.New(testTenantID, "EMP001", "Alice", "Nguyen", "alice@acme.test")
	bob := employee.New(testTenantID, "EMP002", "Bob", "Osei", "bob@acme.test")
	carol := employee.New(testTenantID, "EMP003", "Carol", "Ibe", "carol@acme.test")
	f := newBulkFixture(alice, bob, carol)

	result, err := f.svc.BulkCreateSubjects(ctx, []*subject.CreateDTO{
		{EmployeeCode: "EMP001"},
		{EmployeeCode: "EMP002", Email: "not an email"},
		{EmployeeCode: "EMP003"},
	})
	require.NoError(t, err)

	require.Equal(t, 3, result.TotalRequested)
	require.Equal(t, 2, result.SuccessfullyCreated)
	require.Equal(t, 1, result.Failed)
	require.Equal(t, OutcomePartial, Classify(result))
	require.Equal(t, http.StatusMultiStatus, Classify(result).HTTPStatus())
}

func TestBulkCreateSubjects_ResubmittingBatchYieldsUpdates(t *testing.T) {
	ctx := testContext(t)
	alice := employee.New(testTenantID, "EMP001", "Alice", "Nguyen", "alice@acme.test")
	bob := employee.New(testTenantID, "EMP002", "Bob", "Osei", "bob@acme.test")
	f := newBulkFixture(alice, bob)

	batch := func() []*subject.CreateDTO {
		return []*subject.CreateDTO{
			{EmployeeCode: "EMP001"},
			{EmployeeCode: "EMP002"},
		}
	}

	first, err := f.svc.BulkCreateSubjects(ctx, batch())
	require.NoError(t, err)
	require.Equal(t, 2, first.SuccessfullyCreated)

	second, err := f.svc.BulkCreateSubjects(ctx, batch())
	require.NoError(t, err)
	require.Equal(t, 0, second.SuccessfullyCreated)
	require.Equal(t, 2, second.UpdatedCount)
	require.Equal(t, 0, second.Failed)
	require.Equal(t, OutcomeSuccess, Classify(second))
}

func TestBulkCreateSubjects_EmailConflictOnUpdateRow(t *testing.T) {
	ctx := testContext(t)
	alice := employee.New(testTenantID, "EMP001", "Alice", "Nguyen", "alice@acme.test")
	bob := employee.New(testTenantID, "EMP002", "Bob", "Osei", "bob@acme.test")
	f := newBulkFixture(alice, bob)

	_, err := f.subjects.Create(ctx, subject.New(testTenantID, alice.ID(), "Alice", "Nguyen", "alice@acme.test"))
	require.NoError(t, err)
	_, err = f.subjects.Create(ctx, subject.New(testTenantID, bob.ID(), "Bob", "Osei", "bob@acme.test"))
	require.NoError(t, err)

	result, err := f.svc.BulkCreateSubjects(ctx, []*subject.CreateDTO{
		{EmployeeCode: "EMP001", Email: "bob@acme.test"},
	})
	require.NoError(t, err)
	require.Equal(t, 0, result.UpdatedCount)
	require.Equal(t, 1, result.Failed)
	require.Contains(t, result.Errors[0], "already in use")
}

func TestBulkCreateSubjects_EmptyBatch(t *testing.T) {
	ctx := testContext(t)
	f := newBulkFixture()

	result, err := f.svc.BulkCreateSubjects(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, 0, result.TotalRequested)
	require.Equal(t, OutcomeFailure, Classify(result))
}
