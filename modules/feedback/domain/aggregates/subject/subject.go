package subject

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Subject is the role projection of an employee who is being evaluated. It
// owns the login account link and default password hash created at
// provisioning time. At most one active subject exists per employee per
// tenant.
type Subject struct {
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

func New(tenantID, employeeID uuid.UUID, firstName, lastName, email string) Subject {
	return Subject{
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
) Subject {
	return Subject{
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

func (s Subject) ID() uuid.UUID         { return s.id }
func (s Subject) TenantID() uuid.UUID   { return s.tenantID }
func (s Subject) EmployeeID() uuid.UUID { return s.employeeID }
func (s Subject) UserID() uuid.UUID     { return s.userID }
func (s Subject) FirstName() string     { return s.firstName }
func (s Subject) LastName() string      { return s.lastName }
func (s Subject) Email() string         { return s.email }
func (s Subject) Department() string    { return s.department }
func (s Subject) Designation() string   { return s.designation }
func (s Subject) PasswordHash() string  { return s.passwordHash }
func (s Subject) IsActive() bool        { return s.isActive }
func (s Subject) CreatedAt() time.Time  { return s.createdAt }
func (s Subject) UpdatedAt() time.Time  { return s.updatedAt }
func (s Subject) IsZero() bool          { return s.id == uuid.Nil }

func (s Subject) WithDetails(department, designation string) Subject {
	s.department = strings.TrimSpace(department)
	s.designation = strings.TrimSpace(designation)
	return s
}

// WithAccount links the provisioned login account and its default password
// hash.
func (s Subject) WithAccount(userID uuid.UUID, passwordHash string) Subject {
	s.userID = userID
	s.passwordHash = passwordHash
	return s
}

// Overwritten applies the mutable fields of an update row on top of the
// existing record. Identity, account link and lifecycle stay untouched.
func (s Subject) Overwritten(firstName, lastName, email, department, designation string) Subject {
	if v := strings.TrimSpace(firstName); v != "" {
		s.firstName = v
	}
	if v := strings.TrimSpace(lastName); v != "" {
		s.lastName = v
	}
	if v := strings.ToLower(strings.TrimSpace(email)); v != "" {
		s.email = v
	}
	if v := strings.TrimSpace(department); v != "" {
		s.department = v
	}
	if v := strings.TrimSpace(designation); v != "" {
		s.designation = v
	}
	return s
}

func (s Subject) Deactivated() Subject {
	s.isActive = false
	return s
}
