// Package nutrition holds the stateless energy and macro calculations:
// Mifflin-St Jeor BMR, activity-scaled TDEE, goal-adjusted calorie targets,
// macro splits, and per-day aggregation of consumed meals.
package nutrition

import (
	"math"
	"strings"

	"nutriplan/internal/apperr"
	"nutriplan/models"
)

var activityMultipliers = map[string]float64{
	models.ActivitySedentary:        1.2,
	models.ActivityLightlyActive:    1.375,
	models.ActivityModeratelyActive: 1.55,
	models.ActivityVeryActive:       1.725,
	models.ActivityExtremelyActive:  1.9,
}

var goalAdjustments = map[string]float64{
	models.GoalWeightLoss:  -500,
	models.GoalWeightGain:  500,
	models.GoalMuscleGain:  300,
	models.GoalMaintenance: 0,
}

var defaultRatios = map[string]Ratios{
	models.GoalWeightLoss:  {Protein: 0.30, Carbs: 0.40, Fat: 0.30},
	models.GoalMuscleGain:  {Protein: 0.35, Carbs: 0.45, Fat: 0.20},
	models.GoalWeightGain:  {Protein: 0.25, Carbs: 0.50, Fat: 0.25},
	models.GoalMaintenance: {Protein: 0.30, Carbs: 0.45, Fat: 0.25},
}

// Ratios are calorie fractions for protein, carbohydrates and fat.
type Ratios struct {
	Protein float64 `json:"protein"`
	Carbs   float64 `json:"carbs"`
	Fat     float64 `json:"fat"`
}

func (r *Ratios) usable() bool {
	return r != nil && r.Protein > 0 && r.Carbs > 0 && r.Fat > 0
}

// Macros are gram targets.
type Macros struct {
	Protein       float64 `json:"protein"`
	Carbohydrates float64 `json:"carbohydrates"`
	Fat           float64 `json:"fat"`
}

// Nutrients are the seven tracked nutrient amounts.
type Nutrients struct {
	Calories      float64 `json:"calories"`
	Protein       float64 `json:"protein"`
	Carbohydrates float64 `json:"carbohydrates"`
	Fat           float64 `json:"fat"`
	Fiber         float64 `json:"fiber"`
	Sugar         float64 `json:"sugar"`
	Sodium        float64 `json:"sodium"`
}

// Targets are daily goals for calories and the three macros.
type Targets struct {
	Calories      float64 `json:"calories"`
	Protein       float64 `json:"protein"`
	Carbohydrates float64 `json:"carbohydrates"`
	Fat           float64 `json:"fat"`
}

// Summary reports a day's consumption against targets.
type Summary struct {
	Consumed  Nutrients `json:"consumed"`
	Targets   Targets   `json:"targets"`
	Remaining Targets   `json:"remaining"`
	Progress  Targets   `json:"progress"`
	MealCount int       `json:"meal_count"`
}

// Profile carries the physiology needed to derive targets.
type Profile struct {
	WeightKg      float64
	HeightCm      float64
	Age           int
	Gender        string
	ActivityLevel string
	Goal          string
	Ratios        *Ratios
}

// ProfileFromUser builds a Profile from a stored user and optional preference ratios.
func ProfileFromUser(u *models.User, pref *models.Preference) Profile {
	p := Profile{
		WeightKg:      u.Weight,
		HeightCm:      u.Height,
		Age:           u.Age,
		Gender:        u.Gender,
		ActivityLevel: u.ActivityLevel,
		Goal:          u.Goal,
	}
	if pref.HasMacroRatios() {
		p.Ratios = &Ratios{
			Protein: *pref.PreferredProteinRatio,
			Carbs:   *pref.PreferredCarbRatio,
			Fat:     *pref.PreferredFatRatio,
		}
	}
	return p
}

// BMR returns the Mifflin-St Jeor basal metabolic rate. Genders other than
// male and female use the midpoint constant.
func BMR(weightKg, heightCm float64, age int, gender string) (float64, error) {
	switch {
	case weightKg <= 0:
		return 0, apperr.Validation("weight", "must be positive")
	case heightCm <= 0:
		return 0, apperr.Validation("height", "must be positive")
	case age <= 0:
		return 0, apperr.Validation("age", "must be positive")
	}

	base := 10*weightKg + 6.25*heightCm - 5*float64(age)
	switch strings.ToLower(strings.TrimSpace(gender)) {
	case models.GenderMale:
		return base + 5, nil
	case models.GenderFemale:
		return base - 161, nil
	default:
		return base - 78, nil
	}
}

// TDEE scales bmr by the activity multiplier; unknown levels count as sedentary.
func TDEE(bmr float64, activityLevel string) float64 {
	multiplier, ok := activityMultipliers[strings.ToLower(strings.TrimSpace(activityLevel))]
	if !ok {
		multiplier = activityMultipliers[models.ActivitySedentary]
	}
	return bmr * multiplier
}

// CalorieTarget applies the goal adjustment to tdee; unknown goals add nothing.
func CalorieTarget(tdee float64, goal string) float64 {
	return tdee + goalAdjustments[strings.ToLower(strings.TrimSpace(goal))]
}

// DefaultRatios returns the macro split used for goal when no override is set.
func DefaultRatios(goal string) Ratios {
	if r, ok := defaultRatios[strings.ToLower(strings.TrimSpace(goal))]; ok {
		return r
	}
	return defaultRatios[models.GoalMaintenance]
}

// MacroTargets converts calories into gram targets. ratios wins when all three
// fractions are positive; otherwise the goal's defaults apply.
func MacroTargets(calories float64, goal string, ratios *Ratios) Macros {
	r := DefaultRatios(goal)
	if ratios.usable() {
		r = *ratios
	}
	return Macros{
		Protein:       Round(calories*r.Protein/4, 2),
		Carbohydrates: Round(calories*r.Carbs/4, 2),
		Fat:           Round(calories*r.Fat/9, 2),
	}
}

// ComputeTargets chains BMR, TDEE, calorie target and macros for p. ok is false when
// the profile lacks any field BMR needs.
func ComputeTargets(p Profile) (Targets, bool) {
	if p.WeightKg <= 0 || p.HeightCm <= 0 || p.Age <= 0 || strings.TrimSpace(p.Gender) == "" {
		return Targets{}, false
	}
	bmr, err := BMR(p.WeightKg, p.HeightCm, p.Age, p.Gender)
	if err != nil {
		return Targets{}, false
	}
	calories := CalorieTarget(TDEE(bmr, p.ActivityLevel), p.Goal)
	macros := MacroTargets(calories, p.Goal, p.Ratios)
	return Targets{
		Calories:      calories,
		Protein:       macros.Protein,
		Carbohydrates: macros.Carbohydrates,
		Fat:           macros.Fat,
	}, true
}

// MealNutrition multiplies per-serving values by servings, rounded to 2 decimals.
func MealNutrition(base Nutrients, servings float64) Nutrients {
	return Nutrients{
		Calories:      Round(base.Calories*servings, 2),
		Protein:       Round(base.Protein*servings, 2),
		Carbohydrates: Round(base.Carbohydrates*servings, 2),
		Fat:           Round(base.Fat*servings, 2),
		Fiber:         Round(base.Fiber*servings, 2),
		Sugar:         Round(base.Sugar*servings, 2),
		Sodium:        Round(base.Sodium*servings, 2),
	}
}

// MealBase extracts the per-serving nutrients of a meal.
func MealBase(m *models.Meal) Nutrients {
	return Nutrients{
		Calories:      m.Calories,
		Protein:       m.Protein,
		Carbohydrates: m.Carbohydrates,
		Fat:           m.Fat,
		Fiber:         m.Fiber,
		Sugar:         m.Sugar,
		Sodium:        m.Sodium,
	}
}

// DailySummary sums entries and reports remaining amounts and progress
// percentages against targets. A target of zero or less yields zero progress.
func DailySummary(entries []Nutrients, targets Targets) Summary {
	var total Nutrients
	for _, e := range entries {
		total.Calories += e.Calories
		total.Protein += e.Protein
		total.Carbohydrates += e.Carbohydrates
		total.Fat += e.Fat
		total.Fiber += e.Fiber
		total.Sugar += e.Sugar
		total.Sodium += e.Sodium
	}

	consumed := MealNutrition(total, 1)
	return Summary{
		Consumed: consumed,
		Targets:  targets,
		Remaining: Targets{
			Calories:      remaining(targets.Calories, consumed.Calories),
			Protein:       remaining(targets.Protein, consumed.Protein),
			Carbohydrates: remaining(targets.Carbohydrates, consumed.Carbohydrates),
			Fat:           remaining(targets.Fat, consumed.Fat),
		},
		Progress: Targets{
			Calories:      progress(consumed.Calories, targets.Calories),
			Protein:       progress(consumed.Protein, targets.Protein),
			Carbohydrates: progress(consumed.Carbohydrates, targets.Carbohydrates),
			Fat:           progress(consumed.Fat, targets.Fat),
		},
		MealCount: len(entries),
	}
}

func remaining(target, consumed float64) float64 {
	return Round(math.Max(0, target-consumed), 2)
}

func progress(consumed, target float64) float64 {
	if target <= 0 {
		return 0
	}
	return Round(consumed/target*100, 1)
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
