package employee

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/loophq/loop360/pkg/constants"
	"github.com/loophq/loop360/pkg/serrors"
)

type CreateDTO struct {
	Code        string `json:"code" validate:"required"`
	FirstName   string `json:"first_name" validate:"required"`
	LastName    string `json:"last_name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Department  string `json:"department"`
	Designation string `json:"designation"`

	Attributes map[string]string `json:"attributes"`
}

func (d *CreateDTO) Normalize() {
	d.Code = strings.ToUpper(strings.TrimSpace(d.Code))
	d.FirstName = strings.TrimSpace(d.FirstName)
	d.LastName = strings.TrimSpace(d.LastName)
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
}

func (d *CreateDTO) Ok() (serrors.ValidationErrors, bool) {
	d.Normalize()

	errs := constants.Validate.Struct(d)
	if errs == nil {
		return serrors.ValidationErrors{}, true
	}
	return serrors.ProcessValidatorErrors(errs.(validator.ValidationErrors)), false
}

func (d *CreateDTO) ToEntity(tenantID uuid.UUID) Employee {
	e := New(tenantID, d.Code, d.FirstName, d.LastName, d.Email)
	return e.WithDetails(d.Department, d.Designation, d.Attributes)
}
