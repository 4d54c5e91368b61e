package service

import (
	"context"
	"strings"

	"nutriplan/internal/apperr"
	"nutriplan/internal/ingredients"
	applog "nutriplan/internal/log"
	"nutriplan/internal/nutrition"
	"nutriplan/internal/retrain"
	"nutriplan/internal/store"
	"nutriplan/models"
)

// Ingredient search defaults.
const (
	DefaultRecipeLimit = 10
	DefaultMinMatch    = 1
	MaxRecipeLimit     = 50
)

// RecipeIndex is the trained ingredient matcher.
type RecipeIndex interface {
	Search(ctx context.Context, query []string, limit, minMatch int) ([]ingredients.Match, error)
	Retrain(ctx context.Context) (ingredients.Status, error)
	Status(ctx context.Context) ingredients.Status
}

// RecipeMatch is an ingredient search hit joined with its current meal row.
type RecipeMatch struct {
	Meal               models.Meal `json:"meal"`
	Similarity         float64     `json:"similarity"`
	MatchedIngredients int         `json:"matched_ingredients"`
	TotalIngredients   int         `json:"total_ingredients"`
	Score              float64     `json:"score"`
	AverageRating      float64     `json:"average_rating"`
	RatingCount        int         `json:"rating_count"`
}

// Catalogue manages meals and user-authored recipes.
type Catalogue struct {
	users    store.UserStore
	meals    store.MealStore
	index    RecipeIndex
	notifier retrain.Notifier
}

// NewCatalogue returns a catalogue service. index and notifier may be nil;
// without an index ingredient search returns no results.
func NewCatalogue(users store.UserStore, meals store.MealStore, index RecipeIndex, notifier retrain.Notifier) *Catalogue {
	return &Catalogue{users: users, meals: meals, index: index, notifier: orNopNotifier(notifier)}
}

// Create adds a meal to the catalogue.
func (s *Catalogue) Create(ctx context.Context, meal *models.Meal) error {
	if err := NormalizeMeal(meal); err != nil {
		return err
	}
	meal.ID = 0
	meal.AverageRating, meal.RatingCount = 0, 0
	if err := s.meals.Create(ctx, meal); err != nil {
		return err
	}
	notify(ctx, retrain.TopicMealsChanged, s.notifier.MealsChanged, meal.ID)
	return nil
}

// CreateRecipe adds a meal with ingredients, authored by userID unless it
// is zero.
func (s *Catalogue) CreateRecipe(ctx context.Context, userID uint, meal *models.Meal) error {
	if strings.TrimSpace(meal.Ingredients) == "" {
		return apperr.Validation("ingredients", "must not be empty")
	}
	meal.CreatedByUserID = nil
	if userID != 0 {
		if _, err := s.users.Get(ctx, userID); err != nil {
			return err
		}
		meal.CreatedByUserID = &userID
	}
	if err := s.Create(ctx, meal); err != nil {
		return err
	}
	applog.Info(ctx, "recipe created", "meal_id", meal.ID, "user_id", userID)
	return nil
}

func (s *Catalogue) Get(ctx context.Context, id uint) (*models.Meal, error) {
	return s.meals.Get(ctx, id)
}

// List returns meals, optionally restricted to one category.
func (s *Catalogue) List(ctx context.Context, category string, page store.Page) ([]models.Meal, error) {
	return s.meals.List(ctx, store.MealFilter{Category: category}, page)
}

// Analyze scales a meal's per-serving nutrients to servings. Zero servings
// means one.
func (s *Catalogue) Analyze(ctx context.Context, mealID uint, servings float64) (nutrition.Nutrients, error) {
	if servings == 0 {
		servings = 1
	}
	if servings < 0 {
		return nutrition.Nutrients{}, apperr.Validation("servings", "must be greater than 0")
	}
	meal, err := s.meals.Get(ctx, mealID)
	if err != nil {
		return nutrition.Nutrients{}, err
	}
	return nutrition.MealNutrition(nutrition.MealBase(meal), servings), nil
}

// Search matches text against meal names and descriptions.
func (s *Catalogue) Search(ctx context.Context, text string, page store.Page) ([]models.Meal, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.Validation("q", "must not be empty")
	}
	return s.meals.Search(ctx, text, page)
}

// FindByIngredients ranks meals by how well their ingredients match query.
// Hits whose meal has since been deleted are skipped.
func (s *Catalogue) FindByIngredients(ctx context.Context, query []string, limit, minMatch int) ([]RecipeMatch, error) {
	cleaned := make([]string, 0, len(query))
	for _, q := range query {
		if q = strings.TrimSpace(q); q != "" {
			cleaned = append(cleaned, q)
		}
	}
	if len(cleaned) == 0 {
		return nil, apperr.Validation("ingredients", "at least one ingredient is required")
	}
	if limit <= 0 {
		limit = DefaultRecipeLimit
	}
	limit = min(limit, MaxRecipeLimit)
	if minMatch <= 0 {
		minMatch = DefaultMinMatch
	}
	if s.index == nil {
		return []RecipeMatch{}, nil
	}

	matches, err := s.index.Search(ctx, cleaned, limit, minMatch)
	if err != nil {
		return nil, err
	}
	out := make([]RecipeMatch, 0, len(matches))
	for _, m := range matches {
		meal, err := s.meals.Get(ctx, m.Entry.MealID)
		if err != nil {
			if apperr.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		out = append(out, RecipeMatch{
			Meal:               *meal,
			Similarity:         m.Similarity,
			MatchedIngredients: m.MatchedCount,
			TotalIngredients:   m.TotalIngredients,
			Score:              m.Score,
			AverageRating:      m.Entry.AverageRating,
			RatingCount:        m.Entry.RatingCount,
		})
	}
	return out, nil
}

// TrainIndex retrains the ingredient matcher now.
func (s *Catalogue) TrainIndex(ctx context.Context) (ingredients.Status, error) {
	if s.index == nil {
		return ingredients.Status{}, apperr.ErrModelUnavailable
	}
	return s.index.Retrain(ctx)
}

// IndexStatus reports the ingredient matcher's state.
func (s *Catalogue) IndexStatus(ctx context.Context) ingredients.Status {
	if s.index == nil {
		return ingredients.Status{}
	}
	return s.index.Status(ctx)
}

// NormalizeMeal trims and checks a meal before it is written. Vegan meals are
// always vegetarian.
func NormalizeMeal(meal *models.Meal) error {
	meal.Name = strings.TrimSpace(meal.Name)
	if meal.Name == "" {
		return apperr.Validation("name", "must not be empty")
	}
	meal.Category = strings.ToLower(strings.TrimSpace(meal.Category))
	if meal.Category != "" && !models.ValidMealCategory(meal.Category) {
		return apperr.Validation("category", "must be one of "+strings.Join(models.MealCategories(), ", "))
	}
	nutrients := []struct {
		field string
		value float64
	}{
		{"calories", meal.Calories},
		{"protein", meal.Protein},
		{"carbohydrates", meal.Carbohydrates},
		{"fat", meal.Fat},
		{"fiber", meal.Fiber},
		{"sugar", meal.Sugar},
		{"sodium", meal.Sodium},
	}
	for _, n := range nutrients {
		if n.value < 0 {
			return apperr.Validation(n.field, "must not be negative")
		}
	}
	if meal.IsVegan {
		meal.IsVegetarian = true
	}
	return nil
}
