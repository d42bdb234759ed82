// AngelaMos | 2026
// validation.go

package core

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{2,20}$`)

// ValidUsername reports whether s is an acceptable public username.
func ValidUsername(s string) bool {
	return usernamePattern.MatchString(s)
}

// IsUUID reports whether s parses as a UUID. Postgres rejects malformed
// values for UUID columns with an error rather than a miss.
func IsUUID(s string) bool {
	return uuid.Validate(s) == nil
}

// NewValidator returns a validator that reports JSON field names and knows
// the "username" tag.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	//nolint:errcheck // tag name is static and the func is non-nil
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return ValidUsername(fl.Field().String())
	})

	return v
}
