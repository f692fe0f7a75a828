// Package validation checks request structs tagged for
// go-playground/validator and reports the first failure as an
// apperr.ValidationError named after the field's json key.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/entreprenapp/backoffice/internal/apperr"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return f.Name
		}

		return name
	})

	return v
}

func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("validating input: %w", err)
	}

	fe := fieldErrs[0]

	switch fe.Tag() {
	case "required":
		return apperr.Invalid(fe.Field(), "required")
	case "max":
		return apperr.Invalidf(fe.Field(), "must be at most %s characters", fe.Param())
	case "min":
		return apperr.Invalidf(fe.Field(), "must be at least %s characters", fe.Param())
	case "email":
		return apperr.Invalid(fe.Field(), "must be a valid email address")
	case "iso3166_1_alpha2":
		return apperr.Invalid(fe.Field(), "must be a two-letter ISO country code")
	default:
		return apperr.Invalidf(fe.Field(), "failed %q check", fe.Tag())
	}
}
