package recommend

import (
	"math"
	"slices"
	"testing"

	"gorm.io/gorm"

	"nutriplan/models"
)

func ptr(v float64) *float64 { return &v }

func muscleUser() *models.User {
	return &models.User{
		Goal:               models.GoalMuscleGain,
		DailyCalorieTarget: ptr(2000),
		DailyProteinTarget: ptr(150),
	}
}

func bowl() *models.Meal {
	return &models.Meal{
		Model:        gorm.Model{ID: 7},
		Name:         "Greek Chicken Bowl",
		Category:     models.CategoryLunch,
		Calories:     450,
		Protein:      50,
		IsVegetarian: false,
		IsHalal:      true,
	}
}

func TestScoreAllFactors(t *testing.T) {
	t.Parallel()

	pref := &models.Preference{PreferredCuisine: "Greek", FavoriteIngredients: "chicken, rice"}
	history := []models.UserMeal{
		{MealID: 7, Meal: &models.Meal{Category: models.CategoryLunch}},
	}
	s := NewSignals(muscleUser(), pref, history, 500, 30)

	// calorie fit 0.3 + protein fit 0.2 + cuisine 0.2 + favorite 0.1
	// + category 0.2 + eaten 0.3 + density 0.1
	if got := Score(bowl(), s); math.Abs(got-1.4) > 1e-9 {
		t.Fatalf("Score = %v, want 1.4", got)
	}

	want := []string{
		"You've enjoyed this meal before",
		"Matches your Greek preference",
		"High protein content",
		"Fits your daily calorie goals",
	}
	if got := Reasons(bowl(), s); !slices.Equal(got, want) {
		t.Fatalf("Reasons = %q, want %q", got, want)
	}
}

func TestScoreHardFilters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		pref *models.Preference
		want bool
	}{
		{"no preference", nil, true},
		{"halal satisfied", &models.Preference{Halal: true}, true},
		{"vegetarian missing", &models.Preference{Vegetarian: true}, false},
		{"vegan missing", &models.Preference{Vegan: true, Halal: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSignals(muscleUser(), tt.pref, nil, 0, 0)
			got := Score(bowl(), s)
			if (got > 0) != tt.want {
				t.Fatalf("Score = %v, want positive=%v", got, tt.want)
			}
		})
	}
}

func TestScoreZeroCalorieMeal(t *testing.T) {
	t.Parallel()

	water := &models.Meal{Name: "Water", Category: models.CategorySnack}
	s := NewSignals(&models.User{}, nil, nil, 0, 0)
	if got := Score(water, s); got != 0 {
		t.Fatalf("Score = %v, want 0", got)
	}
	if got := ContentReason(water, s); got != "Personalized recommendation based on your profile" {
		t.Fatalf("ContentReason = %q", got)
	}
}

func TestScoreWithoutTargetsSkipsNutritionFit(t *testing.T) {
	t.Parallel()

	user := &models.User{Goal: models.GoalMuscleGain}
	s := NewSignals(user, nil, nil, 0, 0)
	// Only the density bonus applies.
	if got := Score(bowl(), s); got != 0.1 {
		t.Fatalf("Score = %v, want 0.1", got)
	}
	if got := ContentReason(bowl(), s); got != "High protein content" {
		t.Fatalf("ContentReason = %q", got)
	}
}

func TestScoreCalorieFitClamps(t *testing.T) {
	t.Parallel()

	user := &models.User{Goal: models.GoalMaintenance, DailyCalorieTarget: ptr(1000)}
	huge := &models.Meal{Name: "Feast", Calories: 5000, Protein: 10}

	s := NewSignals(user, nil, nil, 0, 0)
	if got := Score(huge, s); got != 0 {
		t.Fatalf("Score = %v, want 0 for an oversized meal", got)
	}

	full := NewSignals(user, nil, nil, 1200, 0)
	if got := Score(bowl(), full); got != 0.1 {
		t.Fatalf("Score = %v, want only the density bonus once the target is exceeded", got)
	}
}

func TestFavoritesAreUncapped(t *testing.T) {
	t.Parallel()

	pref := &models.Preference{FavoriteIngredients: "greek, chicken, bowl, , "}
	s := NewSignals(&models.User{}, pref, nil, 0, 0)
	meal := bowl()
	meal.Protein = 0
	if got := Score(meal, s); math.Abs(got-0.3) > 1e-9 {
		t.Fatalf("Score = %v, want 0.3", got)
	}
}
