// Package apperr defines the error taxonomy shared by the recommendation
// engine, the stores, and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
)

// ErrModelUnavailable reports that a trained model is absent or could not be
// loaded. Callers fall back to a simpler strategy instead of failing.
var ErrModelUnavailable = errors.New("model unavailable")

// NotFoundError reports a missing entity.
type NotFoundError struct {
	Entity string
	Key    any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Entity, e.Key)
}

// ValidationError reports an input that violates a constraint.
type ValidationError struct {
	Field      string
	Constraint string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Constraint)
}

// InsufficientDataError reports that a component needs more inputs than it was given.
type InsufficientDataError struct {
	Component string
	Required  int
	Found     int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s requires at least %d items, found %d", e.Component, e.Required, e.Found)
}

// NotFound builds a NotFoundError.
func NotFound(entity string, key any) error {
	return &NotFoundError{Entity: entity, Key: key}
}

// Validation builds a ValidationError.
func Validation(field, constraint string) error {
	return &ValidationError{Field: field, Constraint: constraint}
}

// InsufficientData builds an InsufficientDataError.
func InsufficientData(component string, required, found int) error {
	return &InsufficientDataError{Component: component, Required: required, Found: found}
}

// IsNotFound reports whether err wraps a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsValidation reports whether err wraps a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsInsufficientData reports whether err wraps an InsufficientDataError.
func IsInsufficientData(err error) bool {
	var target *InsufficientDataError
	return errors.As(err, &target)
}

// IsModelUnavailable reports whether err wraps ErrModelUnavailable.
func IsModelUnavailable(err error) bool {
	return errors.Is(err, ErrModelUnavailable)
}
