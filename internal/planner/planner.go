// Package planner builds multi-day meal plans that spread a user's calorie
// target across breakfast, lunch, dinner and a snack while favouring variety.
package planner

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"nutriplan/internal/apperr"
	applog "nutriplan/internal/log"
	"nutriplan/internal/nutrition"
	"nutriplan/internal/store"
	"nutriplan/models"
)

const (
	MinDays     = 1
	MaxDays     = 14
	DefaultDays = 7

	minEligibleMeals = 10
	shortlistSize    = 3
	fallbackMeals    = 5
	catalogueChunk   = 500
	dateLayout       = "2006-01-02"
)

// Daily targets used when the user has none stored.
const (
	DefaultCalories      = 2000
	DefaultProtein       = 50
	DefaultCarbohydrates = 250
	DefaultFat           = 65
)

type slot struct {
	category string
	share    float64
}

var slots = []slot{
	{models.CategoryBreakfast, 0.25},
	{models.CategoryLunch, 0.35},
	{models.CategoryDinner, 0.30},
	{models.CategorySnack, 0.10},
}

// UserSource loads user profiles.
type UserSource interface {
	Get(ctx context.Context, id uint) (*models.User, error)
}

// PreferenceSource loads a user's preference.
type PreferenceSource interface {
	GetByUserID(ctx context.Context, userID uint) (*models.Preference, error)
}

// MealSource lists the catalogue.
type MealSource interface {
	All(ctx context.Context) ([]models.Meal, error)
	FilterByDietary(ctx context.Context, flags models.DietaryFlags, page store.Page) ([]models.Meal, error)
}

// PlannedMeal is the meal chosen for one slot.
type PlannedMeal struct {
	ID            uint    `json:"id"`
	Name          string  `json:"name"`
	Calories      float64 `json:"calories"`
	Protein       float64 `json:"protein"`
	Carbohydrates float64 `json:"carbohydrates"`
	Fat           float64 `json:"fat"`
	Category      string  `json:"category"`
	IsVegetarian  bool    `json:"is_vegetarian"`
}

// Macros holds calories and the three macronutrients.
type Macros struct {
	Calories      float64 `json:"calories"`
	Protein       float64 `json:"protein"`
	Carbohydrates float64 `json:"carbohydrates"`
	Fat           float64 `json:"fat"`
}

func (m *Macros) add(meal *models.Meal) {
	m.Calories += meal.Calories
	m.Protein += meal.Protein
	m.Carbohydrates += meal.Carbohydrates
	m.Fat += meal.Fat
}

// Day is one planned day. TargetsMet holds percentages of the daily targets.
type Day struct {
	Date       string                 `json:"date"`
	DayName    string                 `json:"day_name"`
	DayNumber  int                    `json:"day_number"`
	Meals      map[string]PlannedMeal `json:"meals"`
	Totals     Macros                 `json:"totals"`
	TargetsMet Macros                 `json:"targets_met"`
}

// WeekTotals sums the whole plan.
type WeekTotals struct {
	TotalCalories        float64 `json:"total_calories"`
	TotalProtein         float64 `json:"total_protein"`
	TotalCarbohydrates   float64 `json:"total_carbohydrates"`
	TotalFat             float64 `json:"total_fat"`
	AverageDailyCalories float64 `json:"average_daily_calories"`
	AverageDailyProtein  float64 `json:"average_daily_protein"`
}

// Plan is a generated meal plan.
type Plan struct {
	UserID       uint       `json:"user_id"`
	StartDate    string     `json:"start_date"`
	EndDate      string     `json:"end_date"`
	Days         int        `json:"days"`
	DailyTargets Macros     `json:"daily_targets"`
	WeeklyPlan   []Day      `json:"weekly_plan"`
	WeeklyTotals WeekTotals `json:"weekly_totals"`
	VarietyScore float64    `json:"variety_score"`
}

// Planner generates plans. A zero seed draws a fresh random seed per plan;
// any other seed makes plans for the same user reproducible.
type Planner struct {
	users UserSource
	prefs PreferenceSource
	meals MealSource
	seed  uint64
	now   func() time.Time
}

// New returns a planner.
func New(users UserSource, prefs PreferenceSource, meals MealSource, seed uint64) *Planner {
	return &Planner{users: users, prefs: prefs, meals: meals, seed: seed, now: time.Now}
}

// Generate plans days consecutive days starting at start, or today when
// start is nil.
func (p *Planner) Generate(ctx context.Context, userID uint, start *time.Time, days int) (*Plan, error) {
	if days < MinDays || days > MaxDays {
		return nil, apperr.Validation("days", fmt.Sprintf("must be between %d and %d", MinDays, MaxDays))
	}

	user, err := p.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	pref, err := p.prefs.GetByUserID(ctx, userID)
	if err != nil && !apperr.IsNotFound(err) {
		return nil, fmt.Errorf("load preferences: %w", err)
	}
	all, err := p.catalogue(ctx, pref.Required())
	if err != nil {
		return nil, fmt.Errorf("load meals: %w", err)
	}

	eligible := Eligible(all, pref)
	if len(eligible) < minEligibleMeals {
		return nil, apperr.InsufficientData("meal_planner", minEligibleMeals, len(eligible))
	}
	buckets := bucketize(eligible)

	targets := Macros{
		Calories:      orDefault(user.CalorieTarget(), DefaultCalories),
		Protein:       orDefault(user.ProteinTarget(), DefaultProtein),
		Carbohydrates: orDefault(user.CarbTarget(), DefaultCarbohydrates),
		Fat:           orDefault(user.FatTarget(), DefaultFat),
	}

	first := models.DayStart(p.now())
	if start != nil {
		first = models.DayStart(*start)
	}

	rng := p.rng(userID)
	used := make(map[uint]struct{})
	plan := &Plan{
		UserID:       userID,
		StartDate:    first.Format(dateLayout),
		EndDate:      first.AddDate(0, 0, days-1).Format(dateLayout),
		Days:         days,
		DailyTargets: targets,
		WeeklyPlan:   make([]Day, 0, days),
	}
	for offset := range days {
		date := first.AddDate(0, 0, offset)
		day := planDay(buckets, targets, used, rng)
		day.Date = date.Format(dateLayout)
		day.DayName = date.Weekday().String()
		day.DayNumber = offset + 1
		plan.WeeklyPlan = append(plan.WeeklyPlan, day)
	}
	plan.WeeklyTotals = weekTotals(plan.WeeklyPlan)
	plan.VarietyScore = float64(len(used)) / float64(days*len(slots)) * 100

	applog.Debug(ctx, "meal plan generated", "user_id", userID, "days", days, "eligible", len(eligible), "unique_meals", len(used))
	return plan, nil
}

// catalogue loads the meals carrying every required flag. Without
// requirements it reads the whole catalogue.
func (p *Planner) catalogue(ctx context.Context, required models.DietaryFlags) ([]models.Meal, error) {
	if !required.Any() {
		return p.meals.All(ctx)
	}
	var out []models.Meal
	for skip := 0; ; skip += catalogueChunk {
		chunk, err := p.meals.FilterByDietary(ctx, required, store.Page{Skip: skip, Limit: catalogueChunk})
		if err != nil {
			return nil, err
		}
		out = append(out, chunk...)
		if len(chunk) < catalogueChunk {
			return out, nil
		}
	}
}

func (p *Planner) rng(userID uint) *rand.Rand {
	seed := p.seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	return rand.New(rand.NewPCG(seed, uint64(userID)))
}

// Eligible keeps the meals that satisfy every required dietary flag and
// mention none of the disliked ingredients.
func Eligible(meals []models.Meal, pref *models.Preference) []models.Meal {
	required := pref.Required()
	dislikes := pref.Dislikes()
	out := make([]models.Meal, 0, len(meals))
	for _, m := range meals {
		if !m.Flags().Satisfies(required) {
			continue
		}
		if containsAny(strings.ToLower(m.Ingredients), dislikes) {
			continue
		}
		out = append(out, m)
	}
	return out
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}

// bucketize groups meals by category. Unknown categories count as lunch; an
// empty bucket borrows the lunch bucket, or the first few meals when lunch is
// empty too.
func bucketize(meals []models.Meal) map[string][]*models.Meal {
	buckets := make(map[string][]*models.Meal, len(slots))
	for i := range meals {
		category := models.NormalizeMealCategory(meals[i].Category)
		buckets[category] = append(buckets[category], &meals[i])
	}
	lunch := buckets[models.CategoryLunch]
	for _, s := range slots {
		if len(buckets[s.category]) > 0 {
			continue
		}
		if len(lunch) > 0 {
			buckets[s.category] = slices.Clone(lunch)
			continue
		}
		n := min(fallbackMeals, len(meals))
		fallback := make([]*models.Meal, 0, n)
		for i := range n {
			fallback = append(fallback, &meals[i])
		}
		buckets[s.category] = fallback
	}
	return buckets
}

func planDay(buckets map[string][]*models.Meal, targets Macros, used map[uint]struct{}, rng *rand.Rand) Day {
	day := Day{Meals: make(map[string]PlannedMeal, len(slots))}
	for _, s := range slots {
		meal := pick(buckets[s.category], targets.Calories*s.share, used, rng)
		if meal == nil {
			continue
		}
		used[meal.ID] = struct{}{}
		day.Meals[s.category] = PlannedMeal{
			ID:            meal.ID,
			Name:          meal.Name,
			Calories:      meal.Calories,
			Protein:       meal.Protein,
			Carbohydrates: meal.Carbohydrates,
			Fat:           meal.Fat,
			Category:      meal.Category,
			IsVegetarian:  meal.IsVegetarian,
		}
		day.Totals.add(meal)
	}
	day.TargetsMet = Macros{
		Calories:      percentOf(day.Totals.Calories, targets.Calories),
		Protein:       percentOf(day.Totals.Protein, targets.Protein),
		Carbohydrates: percentOf(day.Totals.Carbohydrates, targets.Carbohydrates),
		Fat:           percentOf(day.Totals.Fat, targets.Fat),
	}
	return day
}

// pick chooses uniformly among the shortlist of meals closest to target
// calories, preferring meals not used yet.
func pick(bucket []*models.Meal, target float64, used map[uint]struct{}, rng *rand.Rand) *models.Meal {
	if len(bucket) == 0 {
		return nil
	}
	candidates := make([]*models.Meal, 0, len(bucket))
	for _, m := range bucket {
		if _, ok := used[m.ID]; !ok {
			candidates = append(candidates, m)
		}
	}
	if len(candidates) == 0 {
		candidates = slices.Clone(bucket)
	}

	distance := func(m *models.Meal) float64 {
		return math.Abs(m.Calories-target) / (target + 1)
	}
	slices.SortStableFunc(candidates, func(a, b *models.Meal) int {
		return cmp.Compare(distance(a), distance(b))
	})
	shortlist := candidates[:min(shortlistSize, len(candidates))]
	return shortlist[rng.IntN(len(shortlist))]
}

func percentOf(value, target float64) float64 {
	if target == 0 {
		return 0
	}
	return nutrition.Round(value/target*100, 1)
}

func weekTotals(days []Day) WeekTotals {
	var sum Macros
	for _, d := range days {
		sum.Calories += d.Totals.Calories
		sum.Protein += d.Totals.Protein
		sum.Carbohydrates += d.Totals.Carbohydrates
		sum.Fat += d.Totals.Fat
	}
	out := WeekTotals{
		TotalCalories:      nutrition.Round(sum.Calories, 1),
		TotalProtein:       nutrition.Round(sum.Protein, 1),
		TotalCarbohydrates: nutrition.Round(sum.Carbohydrates, 1),
		TotalFat:           nutrition.Round(sum.Fat, 1),
	}
	if n := float64(len(days)); n > 0 {
		out.AverageDailyCalories = nutrition.Round(sum.Calories/n, 1)
		out.AverageDailyProtein = nutrition.Round(sum.Protein/n, 1)
	}
	return out
}

func orDefault(v, fallback float64) float64 {
	if v == 0 {
		return fallback
	}
	return v
}
