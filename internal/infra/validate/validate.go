package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	customErrors "github.com/mslee98/crawl-back/internal/domain/auth/errors"
)

var loginIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// New returns a validator that reports json field names and knows the "loginid" rule.
func New() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("loginid", func(fl validator.FieldLevel) bool {
		return loginIDPattern.MatchString(fl.Field().String())
	})
	return v
}

// Struct validates s and converts the first failure into a *errors.FieldError.
func Struct(v *validator.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return customErrors.NewInvalidArgument(err.Error())
	}
	fe := verrs[0]
	return customErrors.NewFieldError(fe.Field(), fe.Tag(), describe(fe))
}

func describe(fe validator.FieldError) string {
	f := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", f)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", f, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", f, fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", f)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", f)
	case "loginid":
		return fmt.Sprintf("%s may contain only letters, digits and underscores", f)
	default:
		return fmt.Sprintf("%s failed on %q", f, fe.Tag())
	}
}
