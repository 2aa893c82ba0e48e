package utils

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator builds a validator that reports fields by their json key, so
// error maps match the wire names (EmployeeID reports as employee_id).
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return toSnakeCase(fld.Name)
		}
		return name
	})
	return v
}

// ValidationErrors is a field-keyed error map surfaced to callers on any
// validation failure. Broken invariants are never partially applied.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	var parts []string
	for field, msg := range v {
		parts = append(parts, field+": "+msg)
	}
	return strings.Join(parts, ", ")
}

// FieldError builds a single-field validation error.
func FieldError(field, message string) ValidationErrors {
	return ValidationErrors{field: message}
}

// ValidateStruct validates s against its validate tags and returns a
// field-keyed error map, or nil when the struct is valid.
func ValidateStruct(s interface{}) ValidationErrors {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	errs := make(ValidationErrors)
	for _, err := range err.(validator.ValidationErrors) {
		field := err.Field()
		param := err.Param()

		switch err.Tag() {
		case "required":
			errs[field] = field + " is required"
		case "min":
			errs[field] = field + " must be at least " + param + " characters"
		case "max":
			errs[field] = field + " must be at most " + param + " characters"
		case "email":
			errs[field] = field + " must be a valid email"
		case "oneof":
			errs[field] = field + " must be one of: " + param
		case "gte":
			errs[field] = field + " must be " + param + " or greater"
		case "url":
			errs[field] = field + " must be a valid URL"
		default:
			errs[field] = field + " is invalid"
		}
	}

	return errs
}

// toSnakeCase converts a struct field name to its json key form.
func toSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
