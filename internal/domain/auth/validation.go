package auth

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"adminpanel/internal/core/apperror"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	phonePattern    = regexp.MustCompile(`^05\d{8}$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("strong_password", func(fl validator.FieldLevel) bool {
		return len(passwordWeaknesses(fl.Field().String())) == 0
	})
	return v
}

// Validate checks s against its validate tags and returns a validation
// AppError listing every failed rule.
func Validate(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.NewInternal(err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe)...)
	}
	return apperror.NewValidationList(msgs)
}

// ValidatePassword applies the password strength rules to a single value.
func ValidatePassword(password string) error {
	return Validate(NewPasswordRequest{NewPassword: password})
}

func fieldMessage(fe validator.FieldError) []string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return []string{fmt.Sprintf("%s is required", field)}
	case "min":
		return []string{fmt.Sprintf("%s must be at least %s characters", field, fe.Param())}
	case "max":
		return []string{fmt.Sprintf("%s must not exceed %s characters", field, fe.Param())}
	case "email":
		return []string{"email is not a valid address"}
	case "username":
		return []string{"username may contain only letters, digits and underscores"}
	case "phone":
		return []string{"phoneNumber must match 05XXXXXXXX"}
	case "strong_password":
		return passwordWeaknesses(fmt.Sprint(fe.Value()))
	default:
		return []string{fmt.Sprintf("%s is invalid", field)}
	}
}

func passwordWeaknesses(pw string) []string {
	var hasUpper, hasLower, hasDigit bool
	for _, r := range pw {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}

	var out []string
	if !hasUpper {
		out = append(out, "password must contain an uppercase letter")
	}
	if !hasLower {
		out = append(out, "password must contain a lowercase letter")
	}
	if !hasDigit {
		out = append(out, "password must contain a digit")
	}
	return out
}
