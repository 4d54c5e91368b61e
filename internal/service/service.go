// Package service holds the write-side business rules that sit between the
// HTTP handlers and the stores: target computation, consumption logging,
// rating bookkeeping and catalogue changes. Writes that affect trained
// models notify the retrain queue and drop cached recommendations.
package service

import (
	"context"

	applog "nutriplan/internal/log"
	"nutriplan/internal/retrain"
)

// Invalidator drops cached recommendations for a user.
type Invalidator interface {
	Invalidate(userID uint)
}

type nopInvalidator struct{}

func (nopInvalidator) Invalidate(uint) {}

type nopNotifier struct{}

func (nopNotifier) RatingsChanged(context.Context, uint) error { return nil }
func (nopNotifier) MealsChanged(context.Context, uint) error   { return nil }

func orNopInvalidator(c Invalidator) Invalidator {
	if c == nil {
		return nopInvalidator{}
	}
	return c
}

func orNopNotifier(n retrain.Notifier) retrain.Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}

// notify reports a model-affecting write without failing the caller.
func notify(ctx context.Context, what string, fn func(context.Context, uint) error, mealID uint) {
	if err := fn(ctx, mealID); err != nil {
		applog.Warn(ctx, "retrain notification failed", "change", what, "meal_id", mealID, "err", err)
	}
}
