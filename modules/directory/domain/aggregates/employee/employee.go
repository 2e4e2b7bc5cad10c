package employee

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Employee is the canonical identity record for one person inside a tenant.
// Subjects and evaluators are role projections of exactly one employee.
type Employee struct {
	id          uuid.UUID
	tenantID    uuid.UUID
	code        string
	firstName   string
	lastName    string
	email       string
	department  string
	designation string
	attributes  map[string]string
	isActive    bool
	createdAt   time.Time
	updatedAt   time.Time
}

func New(tenantID uuid.UUID, code, firstName, lastName, email string) Employee {
	return Employee{
		id:        uuid.New(),
		tenantID:  tenantID,
		code:      normalizeCode(code),
		firstName: strings.TrimSpace(firstName),
		lastName:  strings.TrimSpace(lastName),
		email:     normalizeEmail(email),
		isActive:  true,
	}
}

func Hydrate(
	id uuid.UUID,
	tenantID uuid.UUID,
	code string,
	firstName string,
	lastName string,
	email string,
	department string,
	designation string,
	attributes map[string]string,
	isActive bool,
	createdAt time.Time,
	updatedAt time.Time,
) Employee {
	return Employee{
		id:          id,
		tenantID:    tenantID,
		code:        normalizeCode(code),
		firstName:   firstName,
		lastName:    lastName,
		email:       normalizeEmail(email),
		department:  department,
		designation: designation,
		attributes:  attributes,
		isActive:    isActive,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

func (e Employee) ID() uuid.UUID                 { return e.id }
func (e Employee) TenantID() uuid.UUID           { return e.tenantID }
func (e Employee) Code() string                  { return e.code }
func (e Employee) FirstName() string             { return e.firstName }
func (e Employee) LastName() string              { return e.lastName }
func (e Employee) Email() string                 { return e.email }
func (e Employee) Department() string            { return e.department }
func (e Employee) Designation() string           { return e.designation }
func (e Employee) Attributes() map[string]string { return e.attributes }
func (e Employee) IsActive() bool                { return e.isActive }
func (e Employee) CreatedAt() time.Time          { return e.createdAt }
func (e Employee) UpdatedAt() time.Time          { return e.updatedAt }
func (e Employee) IsZero() bool                  { return e.id == uuid.Nil && e.code == "" }

func (e Employee) WithDetails(department, designation string, attributes map[string]string) Employee {
	e.department = strings.TrimSpace(department)
	e.designation = strings.TrimSpace(designation)
	e.attributes = attributes
	return e
}

func (e Employee) Deactivated() Employee {
	e.isActive = false
	return e
}

func normalizeCode(v string) string  { return strings.ToUpper(strings.TrimSpace(v)) }
func normalizeEmail(v string) string { return strings.ToLower(strings.TrimSpace(v)) }
