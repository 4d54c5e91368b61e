package apperr

import (
	"fmt"
	"testing"
)

func TestPredicatesSeeThroughWrapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"not found", NotFound("user", 7), IsNotFound},
		{"validation", Validation("days", "must be between 1 and 14"), IsValidation},
		{"insufficient", InsufficientData("meal_planner", 10, 3), IsInsufficientData},
		{"model", ErrModelUnavailable, IsModelUnavailable},
	}

	for _, tt := range cases {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			wrapped := fmt.Errorf("outer: %w", tt.err)
			if !tt.check(wrapped) {
				t.Fatalf("predicate did not match %v", wrapped)
			}
		})
	}
}

func TestMessages(t *testing.T) {
	t.Parallel()

	if got := NotFound("meal", 12).Error(); got != "meal 12 not found" {
		t.Fatalf("NotFound message = %q", got)
	}
	if got := InsufficientData("ingredient_matcher", 2, 1).Error(); got != "ingredient_matcher requires at least 2 items, found 1" {
		t.Fatalf("InsufficientData message = %q", got)
	}
	if IsNotFound(Validation("rating", "out of range")) {
		t.Fatal("validation error must not match IsNotFound")
	}
}
