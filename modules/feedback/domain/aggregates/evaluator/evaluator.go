package evaluator

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Evaluator is the role projection of an employee who evaluates others,
// symmetric to the subject projection. At most one active evaluator exists
// per employee per tenant.
type Evaluator struct {
	id           uuid.UUID
	tenantID     uuid.UUID
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
}

func New(tenantID, employeeID uuid.UUID, firstName, lastName, email string) Evaluator {
	return Evaluator{
		id:         uuid.New(),
		tenantID:   tenantID,
		employeeID: employeeID,
		firstName:  strings.TrimSpace(firstName),
		lastName:   strings.TrimSpace(lastName),
		email:      strings.ToLower(strings.TrimSpace(email)),
		isActive:   true,
	}
}

func Hydrate(
	id uuid.UUID,
	tenantID uuid.UUID,
	employeeID uuid.UUID,
	userID uuid.UUID,
	firstName string,
	lastName string,
	email string,
	department string,
	designation string,
	passwordHash string,
	isActive bool,
	createdAt time.Time,
	updatedAt time.Time,
) Evaluator {
	return Evaluator{
		id:           id,
		tenantID:     tenantID,
		employeeID:   employeeID,
		userID:       userID,
		firstName:    firstName,
		lastName:     lastName,
		email:        email,
		department:   department,
		designation:  designation,
		passwordHash: passwordHash,
		isActive:     isActive,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

func (e Evaluator) ID() uuid.UUID         { return e.id }
func (e Evaluator) TenantID() uuid.UUID   { return e.tenantID }
func (e Evaluator) EmployeeID() uuid.UUID { return e.employeeID }
func (e Evaluator) UserID() uuid.UUID     { return e.userID }
func (e Evaluator) FirstName() string     { return e.firstName }
func (e Evaluator) LastName() string      { return e.lastName }
func (e Evaluator) Email() string         { return e.email }
func (e Evaluator) Department() string    { return e.department }
func (e Evaluator) Designation() string   { return e.designation }
func (e Evaluator) PasswordHash() string  { return e.passwordHash }
func (e Evaluator) IsActive() bool        { return e.isActive }
func (e Evaluator) CreatedAt() time.Time  { return e.createdAt }
func (e Evaluator) UpdatedAt() time.Time  { return e.updatedAt }
func (e Evaluator) IsZero() bool          { return e.id == uuid.Nil }

func (e Evaluator) WithDetails(department, designation string) Evaluator {
	e.department = strings.TrimSpace(department)
	e.designation = strings.TrimSpace(designation)
	return e
}

// WithAccount links the provisioned login account and its default password
// hash.
func (e Evaluator) WithAccount(userID uuid.UUID, passwordHash string) Evaluator {
	e.userID = userID
	e.passwordHash = passwordHash
	return e
}

// Overwritten applies the mutable fields of an update row on top of the
// existing record. Identity, account link and lifecycle stay untouched.
func (e Evaluator) Overwritten(firstName, lastName, email, department, designation string) Evaluator {
	if v := strings.TrimSpace(firstName); v != "" {
		e.firstName = v
	}
	if v := strings.TrimSpace(lastName); v != "" {
		e.lastName = v
	}
	if v := strings.ToLower(strings.TrimSpace(email)); v != "" {
		e.email = v
	}
	if v := strings.TrimSpace(department); v != "" {
		e.department = v
	}
	if v := strings.TrimSpace(designation); v != "" {
		e.designation = v
	}
	return e
}

func (e Evaluator) Deactivated() Evaluator {
	e.isActive = false
	return e
}
