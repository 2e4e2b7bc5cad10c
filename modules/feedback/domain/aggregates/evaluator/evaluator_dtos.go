package evaluator

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/loophq/loop360/pkg/constants"
	"github.com/loophq/loop360/pkg/serrors"
)

// EdgeDTO declares one desired relationship edge in a bulk row's fan-out
// list: this evaluator evaluates the given subject.
type EdgeDTO struct {
	SubjectID    uuid.UUID `json:"subject_id" validate:"required"`
	Relationship string    `json:"relationship" validate:"required"`
}

// CreateDTO is one row of a bulk evaluator import. Only the employee code is
// mandatory; descriptive fields default to the employee record when empty.
type CreateDTO struct {
	EmployeeCode string `json:"employee_code" validate:"required"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email" validate:"omitempty,email"`
	Department   string `json:"department"`
	Designation  string `json:"designation"`

	Relationships []EdgeDTO `json:"relationships"`
}

func (d *CreateDTO) Normalize() {
	d.EmployeeCode = strings.ToUpper(strings.TrimSpace(d.EmployeeCode))
	d.FirstName = strings.TrimSpace(d.FirstName)
	d.LastName = strings.TrimSpace(d.LastName)
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	for i := range d.Relationships {
		d.Relationships[i].Relationship = strings.TrimSpace(d.Relationships[i].Relationship)
	}
}

func (d *CreateDTO) Ok() (serrors.ValidationErrors, bool) {
	d.Normalize()

	errs := constants.Validate.Struct(d)
	if errs == nil {
		return serrors.ValidationErrors{}, true
	}
	return serrors.ProcessValidatorErrors(errs.(validator.ValidationErrors)), false
}
