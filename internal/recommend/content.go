package recommend

import (
	"fmt"
	"math"
	"strings"

	"nutriplan/internal/nutrition"
	"nutriplan/models"
)

const (
	calorieFitWeight     = 0.3
	proteinFitWeight     = 0.2
	cuisineBonus         = 0.2
	favoriteBonus        = 0.1
	categoryHistoryBonus = 0.2
	eatenBeforeBonus     = 0.3
	densityBonus         = 0.1

	mealShareOfRemaining    = 0.3
	proteinShareOfRemaining = 0.4
	densityThreshold        = 0.1
	highProteinGrams        = 30
	calorieFitReasonShare   = 0.4
)

// Signals is everything the content scorer knows about a user at request
// time. Build it once per request with NewSignals.
type Signals struct {
	User       *models.User
	Preference *models.Preference

	ConsumedCalories float64
	ConsumedProtein  float64

	required   models.DietaryFlags
	favorites  []string
	cuisine    string
	categories map[string]struct{}
	eaten      map[uint]struct{}
}

// NewSignals indexes the user's history and preference for scoring.
func NewSignals(user *models.User, pref *models.Preference, history []models.UserMeal, consumedCalories, consumedProtein float64) *Signals {
	s := &Signals{
		User:             user,
		Preference:       pref,
		ConsumedCalories: consumedCalories,
		ConsumedProtein:  consumedProtein,
		required:         pref.Required(),
		favorites:        pref.Favorites(),
		categories:       make(map[string]struct{}),
		eaten:            make(map[uint]struct{}, len(history)),
	}
	if pref != nil {
		s.cuisine = strings.ToLower(strings.TrimSpace(pref.PreferredCuisine))
	}
	for _, entry := range history {
		s.eaten[entry.MealID] = struct{}{}
		if entry.Meal != nil && entry.Meal.Category != "" {
			s.categories[entry.Meal.Category] = struct{}{}
		}
	}
	return s
}

func (s *Signals) goalFavorsProtein() bool {
	goal := strings.ToLower(s.User.Goal)
	return goal == models.GoalMuscleGain || goal == models.GoalWeightLoss
}

// Score rates how well meal suits the user. Meals failing a required dietary
// flag score exactly 0. Scores are not normalised and are rounded to three
// decimals.
func Score(meal *models.Meal, s *Signals) float64 {
	if !meal.Flags().Satisfies(s.required) {
		return 0
	}

	var score float64
	if target := s.User.CalorieTarget(); target != 0 {
		remaining := math.Max(0, target-s.ConsumedCalories)
		remainingProtein := math.Max(0, s.User.ProteinTarget()-s.ConsumedProtein)

		if remaining > 0 {
			fit := 1 - math.Abs(meal.Calories-remaining*mealShareOfRemaining)/remaining
			score += math.Max(0, math.Min(1, fit)) * calorieFitWeight
		}
		if s.goalFavorsProtein() && remainingProtein > 0 {
			fit := math.Min(1, meal.Protein/(remainingProtein*proteinShareOfRemaining))
			score += fit * proteinFitWeight
		}
	}

	name := strings.ToLower(meal.Name)
	description := strings.ToLower(meal.Description)
	if s.cuisine != "" && (strings.Contains(name, s.cuisine) || strings.Contains(description, s.cuisine)) {
		score += cuisineBonus
	}
	for _, fav := range s.favorites {
		if strings.Contains(name, fav) || strings.Contains(description, fav) {
			score += favoriteBonus
		}
	}

	if _, ok := s.categories[meal.Category]; ok {
		score += categoryHistoryBonus
	}
	if _, ok := s.eaten[meal.ID]; ok {
		score += eatenBeforeBonus
	}

	if meal.Calories > 0 && meal.Protein/meal.Calories > densityThreshold {
		score += densityBonus
	}
	return nutrition.Round(score, 3)
}

// Reasons lists the human readable factors that apply to meal, in a fixed
// order. It returns nil when none apply.
func Reasons(meal *models.Meal, s *Signals) []string {
	var reasons []string
	if _, ok := s.eaten[meal.ID]; ok {
		reasons = append(reasons, "You've enjoyed this meal before")
	}
	if s.cuisine != "" && strings.Contains(strings.ToLower(meal.Name), s.cuisine) {
		reasons = append(reasons, fmt.Sprintf("Matches your %s preference", s.Preference.PreferredCuisine))
	}
	if s.goalFavorsProtein() && meal.Protein > highProteinGrams {
		reasons = append(reasons, "High protein content")
	}
	if target := s.User.CalorieTarget(); target != 0 {
		remaining := target - s.ConsumedCalories
		if meal.Calories <= remaining*calorieFitReasonShare {
			reasons = append(reasons, "Fits your daily calorie goals")
		}
	}
	return reasons
}

// ContentReason joins Reasons with the profile fallback.
func ContentReason(meal *models.Meal, s *Signals) string {
	if reasons := Reasons(meal, s); len(reasons) > 0 {
		return strings.Join(reasons, "; ")
	}
	return "Personalized recommendation based on your profile"
}
