// Package validate wraps go-playground/validator so field errors surface
// as apperr validation errors with readable messages.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dukerupert/chorechart/internal/apperr"
)

// Messages maps custom tags to the sentence used when they fail.
type Messages map[string]string

// Validator is a validator instance plus the messages for its custom tags.
type Validator struct {
	v        *validator.Validate
	messages Messages
}

// New returns a validator that names fields by their json tag.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return &Validator{v: v, messages: Messages{}}
}

// Register adds a custom tag and the message reported when it fails.
func (val *Validator) Register(tag string, fn validator.Func, message string) {
	if err := val.v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation %q: %v", tag, err))
	}
	val.messages[tag] = message
}

// Struct validates s and returns the first failure as a validation error.
func (val *Validator) Struct(s any) error {
	return val.convert(val.v.Struct(s))
}

// Var validates a single value under the given field name.
func (val *Validator) Var(field string, value any, tag string) error {
	err := val.v.Var(value, tag)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return apperr.Validationf("%s", val.describe(field, verrs[0]))
	}
	return err
}

func (val *Validator) convert(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return apperr.Validationf("%s", val.describe(verrs[0].Field(), verrs[0]))
	}
	return err
}

func (val *Validator) describe(field string, fe validator.FieldError) string {
	if msg, ok := val.messages[fe.Tag()]; ok {
		return field + " " + msg
	}

	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if isString {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
