package models

import "strings"

// Gender values accepted on user profiles.
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

// Activity levels used to scale BMR into TDEE.
const (
	ActivitySedentary        = "sedentary"
	ActivityLightlyActive    = "lightly_active"
	ActivityModeratelyActive = "moderately_active"
	ActivityVeryActive       = "very_active"
	ActivityExtremelyActive  = "extremely_active"
)

// Goals drive calorie adjustments and default macro ratios.
const (
	GoalWeightLoss  = "weight_loss"
	GoalWeightGain  = "weight_gain"
	GoalMaintenance = "maintenance"
	GoalMuscleGain  = "muscle_gain"
)

// Meal categories double as the meal types users log against.
const (
	CategoryBreakfast = "breakfast"
	CategoryLunch     = "lunch"
	CategoryDinner    = "dinner"
	CategorySnack     = "snack"
)

// DefaultActivityLevel and DefaultGoal apply when a profile omits them.
const (
	DefaultActivityLevel = ActivitySedentary
	DefaultGoal          = GoalMaintenance
)

var (
	genders        = []string{GenderMale, GenderFemale, GenderOther}
	activityLevels = []string{ActivitySedentary, ActivityLightlyActive, ActivityModeratelyActive, ActivityVeryActive, ActivityExtremelyActive}
	goals          = []string{GoalWeightLoss, GoalWeightGain, GoalMaintenance, GoalMuscleGain}
	mealCategories = []string{CategoryBreakfast, CategoryLunch, CategoryDinner, CategorySnack}
)

// MealCategories returns the categories in planning order.
func MealCategories() []string {
	out := make([]string, len(mealCategories))
	copy(out, mealCategories)
	return out
}

// ValidGender reports whether value is a supported gender.
func ValidGender(value string) bool { return contains(genders, value) }

// ValidActivityLevel reports whether value is a supported activity level.
func ValidActivityLevel(value string) bool { return contains(activityLevels, value) }

// ValidGoal reports whether value is a supported goal.
func ValidGoal(value string) bool { return contains(goals, value) }

// ValidMealCategory reports whether value is a supported meal category.
func ValidMealCategory(value string) bool { return contains(mealCategories, value) }

// NormalizeActivityLevel lowercases value and falls back to DefaultActivityLevel.
func NormalizeActivityLevel(value string) string {
	return normalize(value, activityLevels, DefaultActivityLevel)
}

// NormalizeGoal lowercases value and falls back to DefaultGoal.
func NormalizeGoal(value string) string {
	return normalize(value, goals, DefaultGoal)
}

// NormalizeMealCategory maps unknown or empty categories onto lunch, matching
// how the planner buckets uncategorised meals.
func NormalizeMealCategory(value string) string {
	return normalize(value, mealCategories, CategoryLunch)
}

func normalize(value string, allowed []string, fallback string) string {
	candidate := strings.ToLower(strings.TrimSpace(value))
	if contains(allowed, candidate) {
		return candidate
	}
	return fallback
}

func contains(values []string, value string) bool {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
