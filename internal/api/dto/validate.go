package dto

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks the struct tags of a request payload.
func Validate(payload any) error {
	return instance().Struct(payload)
}

// ValidEmail reports whether email passes the same rule as the request tags.
func ValidEmail(email string) bool {
	return instance().Var(email, "required,email") == nil
}

// ValidationDetails maps each failing json field to the rule it broke.
func ValidationDetails(err error) map[string]any {
	details := map[string]any{}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return details
	}
	for _, ve := range validationErrors {
		details[ve.Field()] = ve.Tag()
	}
	return details
}
