package service

import (
	"context"
	"testing"
	"time"

	"nutriplan/internal/apperr"
	"nutriplan/internal/store"
	"nutriplan/models"
)

func TestMealLogLogMeal(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := emptyStores(t)
	cache := &recordingCache{}
	svc := NewMealLog(s.Users, s.Meals, s.Consumption, cache)

	u := mustCreateUser(t, s, models.User{Email: "a@example.com", Username: "a"})
	meal := mustCreateMeal(t, s, models.Meal{Name: "Pasta", Category: models.CategoryDinner, Calories: 410.5, Protein: 14.25, Carbohydrates: 70, Fat: 8})

	tests := []struct {
		name     string
		req      LogRequest
		wantErr  func(error) bool
		wantCal  float64
		wantType string
	}{
		{name: "default serving", req: LogRequest{UserID: u.ID, MealID: meal.ID}, wantCal: 410.5, wantType: models.CategoryDinner},
		{name: "two servings", req: LogRequest{UserID: u.ID, MealID: meal.ID, Servings: 2, MealType: "Lunch"}, wantCal: 821, wantType: "lunch"},
		{name: "negative servings", req: LogRequest{UserID: u.ID, MealID: meal.ID, Servings: -1}, wantErr: apperr.IsValidation},
		{name: "unknown meal", req: LogRequest{UserID: u.ID, MealID: 999}, wantErr: apperr.IsNotFound},
		{name: "unknown user", req: LogRequest{UserID: 999, MealID: meal.ID}, wantErr: apperr.IsNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, err := svc.LogMeal(ctx, tt.req)
			if tt.wantErr != nil {
				if !tt.wantErr(err) {
					t.Fatalf("LogMeal error = %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("LogMeal: %v", err)
			}
			if entry.TotalCalories != tt.wantCal || entry.MealType != tt.wantType {
				t.Fatalf("entry = %+v, want calories %v type %q", entry, tt.wantCal, tt.wantType)
			}
		})
	}
	if got := cache.invalidated(); len(got) != 2 {
		t.Fatalf("invalidations = %v, want 2", got)
	}
}

func TestMealLogTotalsAreFrozen(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := emptyStores(t)
	svc := NewMealLog(s.Users, s.Meals, s.Consumption, nil)

	u := mustCreateUser(t, s, models.User{Email: "a@example.com", Username: "a"})
	meal := mustCreateMeal(t, s, models.Meal{Name: "Soup", Category: models.CategoryLunch, Calories: 200, Protein: 10})
	day := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	if _, err := svc.LogMeal(ctx, LogRequest{UserID: u.ID, MealID: meal.ID, Date: &day, Servings: 1.5}); err != nil {
		t.Fatalf("LogMeal: %v", err)
	}

	meal.Calories = 900
	if err := s.Meals.Update(ctx, meal); err != nil {
		t.Fatalf("update meal: %v", err)
	}

	history, err := svc.History(ctx, u.ID, &day, store.Page{})
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 1 || history[0].TotalCalories != 300 {
		t.Fatalf("history = %+v, want one entry with 300 calories", history)
	}
}

func TestMealLogDailySummary(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := emptyStores(t)
	svc := NewMealLog(s.Users, s.Meals, s.Consumption, nil)

	u := mustCreateUser(t, s, models.User{Email: "a@example.com", Username: "a"})
	meal := mustCreateMeal(t, s, models.Meal{Name: "Bowl", Category: models.CategoryLunch, Calories: 500, Protein: 30, Carbohydrates: 50, Fat: 20, Fiber: 6})
	day := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	other := day.AddDate(0, 0, 1)

	for _, d := range []*time.Time{&day, &day, &other} {
		if _, err := svc.LogMeal(ctx, LogRequest{UserID: u.ID, MealID: meal.ID, Date: d}); err != nil {
			t.Fatalf("LogMeal: %v", err)
		}
	}

	summary, err := svc.DailySummary(ctx, u.ID, &day)
	if err != nil {
		t.Fatalf("DailySummary: %v", err)
	}
	if summary.MealCount != 2 {
		t.Fatalf("meal count = %d, want 2", summary.MealCount)
	}
	if summary.Consumed.Calories != 1000 || summary.Consumed.Fiber != 12 {
		t.Fatalf("consumed = %+v", summary.Consumed)
	}
	if summary.Targets != defaultTargets {
		t.Fatalf("targets = %+v, want defaults", summary.Targets)
	}
	if summary.Remaining.Calories != 1000 || summary.Progress.Calories != 50 {
		t.Fatalf("remaining/progress = %v/%v", summary.Remaining.Calories, summary.Progress.Calories)
	}
	if !summary.Date.Equal(models.DayStart(day)) {
		t.Fatalf("date = %v", summary.Date)
	}

	if _, err := svc.DailySummary(ctx, 999, nil); !apperr.IsNotFound(err) {
		t.Fatalf("unknown user error = %v, want not found", err)
	}
}

func TestMealLogDailySummaryUsesUserTargets(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := emptyStores(t)
	svc := NewMealLog(s.Users, s.Meals, s.Consumption, nil)
	svc.now = func() time.Time { return time.Date(2026, 3, 2, 23, 0, 0, 0, time.UTC) }

	u := mustCreateUser(t, s, models.User{Email: "a@example.com", Username: "a", DailyCalorieTarget: ptr(1800.0)})

	summary, err := svc.DailySummary(ctx, u.ID, nil)
	if err != nil {
		t.Fatalf("DailySummary: %v", err)
	}
	if summary.Targets.Calories != 1800 || summary.Targets.Protein != defaultTargets.Protein {
		t.Fatalf("targets = %+v", summary.Targets)
	}
	if summary.MealCount != 0 || summary.Remaining.Calories != 1800 {
		t.Fatalf("empty day summary = %+v", summary.Summary)
	}
}
