package serrors

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// BaseError is a coded error. Code is stable and machine-readable, Message
// is for humans.
type BaseError struct {
	Code    string
	Message string
}

func (e *BaseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewError(code, message string) *BaseError {
	return &BaseError{Code: code, Message: message}
}

// ValidationErrors maps a field name to the error reported for it.
type ValidationErrors map[string]*BaseError

func NewFieldRequiredError(field string) *BaseError {
	return NewError("FIELD_REQUIRED", fmt.Sprintf("%s is required", field))
}

func NewInvalidEmailError(field string) *BaseError {
	return NewError("INVALID_EMAIL", fmt.Sprintf("%s must be a valid email address", field))
}

// ProcessValidatorErrors converts go-playground validator errors into coded
// field errors.
func ProcessValidatorErrors(errs validator.ValidationErrors) ValidationErrors {
	out := make(ValidationErrors, len(errs))
	for _, err := range errs {
		switch err.Tag() {
		case "required":
			out[err.Field()] = NewFieldRequiredError(err.Field())
		case "email":
			out[err.Field()] = NewInvalidEmailError(err.Field())
		default:
			out[err.Field()] = NewError(
				"INVALID_FIELD",
				fmt.Sprintf("%s failed %s validation", err.Field(), err.Tag()),
			)
		}
	}
	return out
}
