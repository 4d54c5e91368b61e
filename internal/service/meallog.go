package service

import (
	"context"
	"strings"
	"time"

	"nutriplan/internal/apperr"
	applog "nutriplan/internal/log"
	"nutriplan/internal/nutrition"
	"nutriplan/internal/store"
	"nutriplan/models"
)

// Daily targets assumed for users whose health profile is incomplete.
var defaultTargets = nutrition.Targets{
	Calories:      2000,
	Protein:       150,
	Carbohydrates: 250,
	Fat:           65,
}

// LogRequest describes one consumed meal. A nil Date means today and zero
// Servings means one serving.
type LogRequest struct {
	UserID   uint
	MealID   uint
	Date     *time.Time
	MealType string
	Servings float64
}

// DaySummary is a day's consumption against the user's targets.
type DaySummary struct {
	Date time.Time `json:"date"`
	nutrition.Summary
}

// MealLog records consumption and summarises it per day.
type MealLog struct {
	users       store.UserStore
	meals       store.MealStore
	consumption store.ConsumptionStore
	cache       Invalidator
	now         func() time.Time
}

// NewMealLog returns a consumption service. cache may be nil.
func NewMealLog(users store.UserStore, meals store.MealStore, consumption store.ConsumptionStore, cache Invalidator) *MealLog {
	return &MealLog{
		users:       users,
		meals:       meals,
		consumption: consumption,
		cache:       orNopInvalidator(cache),
		now:         time.Now,
	}
}

// LogMeal stores a consumption entry whose totals are the meal's current
// per-serving values times servings. Later edits to the meal do not change
// them.
func (s *MealLog) LogMeal(ctx context.Context, req LogRequest) (*models.UserMeal, error) {
	servings := req.Servings
	if servings == 0 {
		servings = 1
	}
	if servings < 0 {
		return nil, apperr.Validation("servings", "must be greater than 0")
	}
	if _, err := s.users.Get(ctx, req.UserID); err != nil {
		return nil, err
	}
	meal, err := s.meals.Get(ctx, req.MealID)
	if err != nil {
		return nil, err
	}

	date := s.now()
	if req.Date != nil {
		date = *req.Date
	}
	mealType := strings.ToLower(strings.TrimSpace(req.MealType))
	if mealType == "" {
		mealType = models.NormalizeMealCategory(meal.Category)
	}

	totals := nutrition.MealNutrition(nutrition.MealBase(meal), servings)
	entry := &models.UserMeal{
		UserID:             req.UserID,
		MealID:             req.MealID,
		Date:               date,
		MealType:           mealType,
		Servings:           servings,
		TotalCalories:      totals.Calories,
		TotalProtein:       totals.Protein,
		TotalCarbohydrates: totals.Carbohydrates,
		TotalFat:           totals.Fat,
	}
	if err := s.consumption.Create(ctx, entry); err != nil {
		return nil, err
	}
	entry.Meal = meal
	s.cache.Invalidate(req.UserID)
	applog.Debug(ctx, "meal logged", "user_id", req.UserID, "meal_id", req.MealID, "servings", servings)
	return entry, nil
}

// History lists a user's entries newest first, optionally for one day.
func (s *MealLog) History(ctx context.Context, userID uint, date *time.Time, page store.Page) ([]models.UserMeal, error) {
	if _, err := s.users.Get(ctx, userID); err != nil {
		return nil, err
	}
	return s.consumption.ListByUser(ctx, userID, date, page)
}

// DailySummary totals a day's entries against the user's targets, falling
// back to default targets where the user has none. A nil date means today.
func (s *MealLog) DailySummary(ctx context.Context, userID uint, date *time.Time) (*DaySummary, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	day := s.now()
	if date != nil {
		day = *date
	}
	day = models.DayStart(day)

	entries, err := s.consumption.GetByUserAndDate(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	consumed := make([]nutrition.Nutrients, 0, len(entries))
	for i := range entries {
		consumed = append(consumed, entryNutrients(&entries[i]))
	}
	return &DaySummary{Date: day, Summary: nutrition.DailySummary(consumed, userTargets(user))}, nil
}

// entryNutrients uses the frozen totals for macros and derives the untracked
// nutrients from the meal when it is still available.
func entryNutrients(e *models.UserMeal) nutrition.Nutrients {
	n := nutrition.Nutrients{
		Calories:      e.TotalCalories,
		Protein:       e.TotalProtein,
		Carbohydrates: e.TotalCarbohydrates,
		Fat:           e.TotalFat,
	}
	if e.Meal != nil {
		extra := nutrition.MealNutrition(nutrition.MealBase(e.Meal), e.Servings)
		n.Fiber, n.Sugar, n.Sodium = extra.Fiber, extra.Sugar, extra.Sodium
	}
	return n
}

func userTargets(u *models.User) nutrition.Targets {
	t := defaultTargets
	if u.DailyCalorieTarget != nil {
		t.Calories = *u.DailyCalorieTarget
	}
	if u.DailyProteinTarget != nil {
		t.Protein = *u.DailyProteinTarget
	}
	if u.DailyCarbTarget != nil {
		t.Carbohydrates = *u.DailyCarbTarget
	}
	if u.DailyFatTarget != nil {
		t.Fat = *u.DailyFatTarget
	}
	return t
}
