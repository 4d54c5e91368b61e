// Package validation checks request structs with go-playground/validator and
// reports failures as apperr.ValidationError values keyed by JSON field name.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"nutriplan/internal/apperr"
	"nutriplan/models"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Errors lists every failing field. errors.As finds the first one as an
// *apperr.ValidationError.
type Errors []*apperr.ValidationError

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Error()
	}
	return strings.Join(msgs, "; ")
}

func (e Errors) Unwrap() []error {
	out := make([]error, len(e))
	for i, fe := range e {
		out[i] = fe
	}
	return out
}

// Get returns the shared validator.
func Get() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(jsonName)
		mustRegister("meal_category", models.ValidMealCategory)
		mustRegister("activity_level", models.ValidActivityLevel)
		mustRegister("goal", models.ValidGoal)
		mustRegister("gender", models.ValidGender)
	})
	return validate
}

func mustRegister(tag string, valid func(string) bool) {
	err := validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return valid(strings.ToLower(fl.Field().String()))
	})
	if err != nil {
		panic(fmt.Sprintf("register %s validator: %v", tag, err))
	}
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}

// Struct validates s. It returns nil or an Errors value.
func Struct(s any) error {
	err := Get().Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := make(Errors, len(fieldErrs))
	for i, fe := range fieldErrs {
		out[i] = &apperr.ValidationError{Field: fe.Field(), Constraint: constraint(fe)}
	}
	return out
}

var simpleConstraints = map[string]string{
	"required":       "is required",
	"email":          "must be a valid email address",
	"meal_category":  "must be one of breakfast, lunch, dinner, snack",
	"activity_level": "must be one of sedentary, lightly_active, moderately_active, very_active, extremely_active",
	"goal":           "must be one of weight_loss, weight_gain, maintenance, muscle_gain",
	"gender":         "must be one of male, female, other",
}

var paramConstraints = map[string]string{
	"oneof": "must be one of: %s",
	"gte":   "must be greater than or equal to %s",
	"lte":   "must be less than or equal to %s",
	"gt":    "must be greater than %s",
	"lt":    "must be less than %s",
}

func constraint(fe validator.FieldError) string {
	if c, ok := simpleConstraints[fe.Tag()]; ok {
		return c
	}
	if c, ok := paramConstraints[fe.Tag()]; ok {
		return fmt.Sprintf(c, fe.Param())
	}
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "min":
		if isString {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if isString {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	}
	return fmt.Sprintf("failed %s validation", fe.Tag())
}
