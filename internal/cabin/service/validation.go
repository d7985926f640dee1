package service

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// CreateInput carries the cabin fields a caller may set on creation. The
// required-field list is configuration (tags), not service logic.
type CreateInput struct {
	Name                  string `validate:"required,max=120"`
	Address               string `validate:"max=200"`
	PostalCode            string `validate:"max=16"`
	City                  string `validate:"max=80"`
	Phone                 string `validate:"max=32"`
	Email                 string `validate:"omitempty,email"`
	ContactPersonName     string `validate:"max=120"`
	ContactPersonEmployer string `validate:"max=120"`
	IsMember              *bool
}

// UpdateInput uses pointers for partial-update semantics: nil means "leave
// unchanged", never "clear".
type UpdateInput struct {
	Name                  *string `validate:"omitempty,min=1,max=120"`
	Address               *string `validate:"omitempty,max=200"`
	PostalCode            *string `validate:"omitempty,max=16"`
	City                  *string `validate:"omitempty,max=80"`
	Phone                 *string `validate:"omitempty,max=32"`
	Email                 *string `validate:"omitempty,email"`
	ContactPersonName     *string `validate:"omitempty,max=120"`
	ContactPersonEmployer *string `validate:"omitempty,max=120"`
	IsMember              *bool
}

func validateCreateInput(input CreateInput) error {
	if err := validate.Struct(input); err != nil {
		return ErrValidation.WithCause(err)
	}
	return nil
}

func validateUpdateInput(input UpdateInput) error {
	if err := validate.Struct(input); err != nil {
		return ErrValidation.WithCause(err)
	}
	return nil
}
