package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateStructReturnsNilWhenValid(t *testing.T) {
	input := struct {
		Email string `validate:"required,email"`
		Role  string `validate:"oneof=admin company_user"`
	}{
		Email: "owner@example.com",
		Role:  "admin",
	}

	assert.Nil(t, ValidateStruct(input))
}

func TestValidateStructFieldKeys(t *testing.T) {
	input := struct {
		Email     string `validate:"required,email"`
		FirstName string `validate:"required"`
		Role      string `validate:"omitempty,oneof=admin company_user"`
	}{
		Email: "not-an-email",
		Role:  "superuser",
	}

	errs := ValidateStruct(input)
	assert.Len(t, errs, 3)
	assert.Equal(t, "email must be a valid email", errs["email"])
	assert.Equal(t, "first_name is required", errs["first_name"])
	assert.Contains(t, errs["role"], "must be one of")
}

func TestValidateStructUsesJSONTagNames(t *testing.T) {
	input := struct {
		EmployeeID          uint `json:"employee_id" validate:"required"`
		RequestingCompanyID uint `json:"requesting_company_id" validate:"required"`
	}{}

	errs := ValidateStruct(input)
	assert.Len(t, errs, 2)
	assert.Equal(t, "employee_id is required", errs["employee_id"])
	assert.Equal(t, "requesting_company_id is required", errs["requesting_company_id"])
}

func TestFieldError(t *testing.T) {
	errs := FieldError("status", "This request has already been responded to.")
	assert.Equal(t, ValidationErrors{"status": "This request has already been responded to."}, errs)
	assert.Equal(t, "status: This request has already been responded to.", errs.Error())
}
