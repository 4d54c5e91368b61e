package nutrition

import (
	"math"
	"testing"

	"nutriplan/internal/apperr"
	"nutriplan/models"
)

func almostEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

func TestBMR(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		gender string
		want   float64
	}{
		{"male", "male", 1561.25},
		{"female", "Female", 1395.25},
		{"other", "other", 1478.25},
		{"unspecified", "", 1478.25},
	}

	for _, tt := range cases {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := BMR(70, 165, 35, tt.gender)
			if err != nil {
				t.Fatalf("BMR returned error: %v", err)
			}
			if !almostEqual(got, tt.want, 1e-9) {
				t.Fatalf("BMR(%q) = %v, want %v", tt.gender, got, tt.want)
			}
		})
	}
}

func TestBMRRejectsNonPositiveInputs(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		weight float64
		height float64
		age    int
	}{
		{"weight", 0, 170, 30},
		{"height", 70, -1, 30},
		{"age", 70, 170, 0},
	}

	for _, tt := range cases {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := BMR(tt.weight, tt.height, tt.age, models.GenderMale)
			if !apperr.IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestBMRMonotonic(t *testing.T) {
	t.Parallel()

	for _, gender := range []string{models.GenderMale, models.GenderFemale, models.GenderOther} {
		base, _ := BMR(70, 170, 30, gender)
		heavier, _ := BMR(71, 170, 30, gender)
		taller, _ := BMR(70, 171, 30, gender)
		older, _ := BMR(70, 170, 31, gender)
		if !(heavier > base && taller > base && older < base) {
			t.Fatalf("BMR not monotonic for %s: base=%v heavier=%v taller=%v older=%v", gender, base, heavier, taller, older)
		}
	}
}

func TestTDEEAndCalorieTarget(t *testing.T) {
	t.Parallel()

	if got := TDEE(1000, "VERY_ACTIVE"); !almostEqual(got, 1725, 1e-9) {
		t.Fatalf("TDEE very active = %v", got)
	}
	if got := TDEE(1000, "marathoner"); !almostEqual(got, 1200, 1e-9) {
		t.Fatalf("TDEE unknown = %v, want sedentary", got)
	}
	if got := CalorieTarget(2000, models.GoalWeightLoss); got != 1500 {
		t.Fatalf("CalorieTarget weight loss = %v", got)
	}
	if got := CalorieTarget(2000, models.GoalMuscleGain); got != 2300 {
		t.Fatalf("CalorieTarget muscle gain = %v", got)
	}
	if got := CalorieTarget(2000, "shred"); got != 2000 {
		t.Fatalf("CalorieTarget unknown = %v", got)
	}
}

func TestMacroTargetsMaintenanceSumsToCalories(t *testing.T) {
	t.Parallel()

	m := MacroTargets(2000, models.GoalMaintenance, nil)
	total := m.Protein*4 + m.Carbohydrates*4 + m.Fat*9
	if !almostEqual(total, 2000, 9) {
		t.Fatalf("macro calories = %v, want about 2000", total)
	}
}

func TestMacroTargetsUsesExplicitRatios(t *testing.T) {
	t.Parallel()

	got := MacroTargets(1800, models.GoalWeightLoss, &Ratios{Protein: 0.4, Carbs: 0.3, Fat: 0.3})
	want := Macros{Protein: 180, Carbohydrates: 135, Fat: 60}
	if got != want {
		t.Fatalf("MacroTargets = %+v, want %+v", got, want)
	}

	partial := MacroTargets(1800, models.GoalWeightLoss, &Ratios{Protein: 0.4})
	if partial != MacroTargets(1800, models.GoalWeightLoss, nil) {
		t.Fatalf("partial ratios should fall back to goal defaults, got %+v", partial)
	}
}

func TestComputeTargetsEndToEnd(t *testing.T) {
	t.Parallel()

	bmr, err := BMR(70, 175, 30, models.GenderMale)
	if err != nil {
		t.Fatalf("BMR error: %v", err)
	}
	if bmr != 1727.5 {
		t.Fatalf("bmr = %v, want 1727.5", bmr)
	}
	if tdee := TDEE(bmr, models.ActivityModeratelyActive); !almostEqual(tdee, 2677.625, 1e-9) {
		t.Fatalf("tdee = %v, want 2677.625", tdee)
	}

	targets, ok := ComputeTargets(Profile{
		WeightKg:      70,
		HeightCm:      175,
		Age:           30,
		Gender:        models.GenderMale,
		ActivityLevel: models.ActivityModeratelyActive,
		Goal:          models.GoalMaintenance,
	})
	if !ok {
		t.Fatal("expected targets to be computed")
	}
	if !almostEqual(targets.Calories, 2677.625, 1e-9) {
		t.Fatalf("calories = %v", targets.Calories)
	}
	if targets.Protein != 200.82 || targets.Carbohydrates != 301.23 || targets.Fat != 74.38 {
		t.Fatalf("macros = %+v", targets)
	}
}

func TestComputeTargetsRequiresHealthFields(t *testing.T) {
	t.Parallel()

	if _, ok := ComputeTargets(Profile{WeightKg: 70, HeightCm: 175, Age: 30}); ok {
		t.Fatal("expected missing gender to prevent target computation")
	}
}

func TestMealNutritionRounds(t *testing.T) {
	t.Parallel()

	got := MealNutrition(Nutrients{Calories: 333.333, Sodium: 1}, 1.5)
	if got.Calories != 500 || got.Sodium != 1.5 {
		t.Fatalf("MealNutrition = %+v", got)
	}
}

func TestDailySummary(t *testing.T) {
	t.Parallel()

	entries := []Nutrients{
		{Calories: 600, Protein: 40, Carbohydrates: 50, Fat: 20},
		{Calories: 900, Protein: 60, Carbohydrates: 100, Fat: 30},
	}
	targets := Targets{Calories: 2000, Protein: 80, Carbohydrates: 250, Fat: 0}

	got := DailySummary(entries, targets)
	if got.Consumed.Calories != 1500 || got.MealCount != 2 {
		t.Fatalf("consumed = %+v", got.Consumed)
	}
	if got.Remaining.Calories != 500 || got.Remaining.Protein != 0 {
		t.Fatalf("remaining = %+v", got.Remaining)
	}
	if got.Progress.Calories != 75 || got.Progress.Protein != 125 || got.Progress.Fat != 0 {
		t.Fatalf("progress = %+v", got.Progress)
	}
}
