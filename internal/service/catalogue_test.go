package service

import (
	"context"
	"errors"
	"testing"

	"nutriplan/internal/apperr"
	"nutriplan/internal/ingredients"
	"nutriplan/internal/store"
	"nutriplan/models"
)

type fakeIndex struct {
	matches  []ingredients.Match
	query    []string
	limit    int
	minMatch int
	trained  int
}

func (f *fakeIndex) Search(_ context.Context, query []string, limit, minMatch int) ([]ingredients.Match, error) {
	f.query, f.limit, f.minMatch = query, limit, minMatch
	return f.matches, nil
}

func (f *fakeIndex) Retrain(context.Context) (ingredients.Status, error) {
	f.trained++
	return ingredients.Status{Trained: true, RecipesCount: 2}, nil
}

func (f *fakeIndex) Status(context.Context) ingredients.Status {
	return ingredients.Status{Trained: f.trained > 0}
}

func TestCatalogueCreateValidates(t *testing.T) {
	t.Parallel()
	s := emptyStores(t)
	svc := NewCatalogue(s.Users, s.Meals, nil, nil)

	tests := []struct {
		name      string
		meal      models.Meal
		wantField string
	}{
		{name: "blank name", meal: models.Meal{Name: "  "}, wantField: "name"},
		{name: "unknown category", meal: models.Meal{Name: "Tea", Category: "brunch"}, wantField: "category"},
		{name: "negative fat", meal: models.Meal{Name: "Tea", Fat: -1}, wantField: "fat"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			meal := tt.meal
			err := svc.Create(context.Background(), &meal)
			var verr *apperr.ValidationError
			if !errors.As(err, &verr) || verr.Field != tt.wantField {
				t.Fatalf("Create error = %v, want validation on %q", err, tt.wantField)
			}
		})
	}
}

func TestCatalogueCreateRecipe(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := emptyStores(t)
	notifier := &recordingNotifier{}
	svc := NewCatalogue(s.Users, s.Meals, nil, notifier)
	u := mustCreateUser(t, s, models.User{Email: "a@example.com", Username: "a"})

	if err := svc.CreateRecipe(ctx, u.ID, &models.Meal{Name: "Plain"}); !apperr.IsValidation(err) {
		t.Fatalf("recipe without ingredients error = %v, want validation", err)
	}
	if err := svc.CreateRecipe(ctx, 999, &models.Meal{Name: "X", Ingredients: "a"}); !apperr.IsNotFound(err) {
		t.Fatalf("unknown author error = %v, want not found", err)
	}

	recipe := &models.Meal{Name: " Tofu Bowl ", Category: "Dinner", Ingredients: "tofu, rice", IsVegan: true, AverageRating: 5, RatingCount: 9}
	if err := svc.CreateRecipe(ctx, u.ID, recipe); err != nil {
		t.Fatalf("CreateRecipe: %v", err)
	}

	got, err := svc.Get(ctx, recipe.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Tofu Bowl" || got.Category != models.CategoryDinner || !got.IsVegetarian {
		t.Fatalf("stored recipe = %+v", got)
	}
	if got.CreatedByUserID == nil || *got.CreatedByUserID != u.ID {
		t.Fatalf("creator = %v, want %d", got.CreatedByUserID, u.ID)
	}
	if got.RatingCount != 0 || got.AverageRating != 0 {
		t.Fatalf("new recipe carries ratings: %v/%d", got.AverageRating, got.RatingCount)
	}

	anonymous := &models.Meal{Name: "Rice", Ingredients: "rice", CreatedByUserID: &u.ID}
	if err := svc.CreateRecipe(ctx, 0, anonymous); err != nil {
		t.Fatalf("CreateRecipe anonymous: %v", err)
	}
	if anonymous.CreatedByUserID != nil {
		t.Fatalf("anonymous recipe creator = %v", *anonymous.CreatedByUserID)
	}
	if len(notifier.meals) != 2 || notifier.meals[0] != recipe.ID {
		t.Fatalf("meal notifications = %v", notifier.meals)
	}
}

func TestCatalogueListAndSearch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := seededStores(t)
	svc := NewCatalogue(s.Users, s.Meals, nil, nil)

	snacks, err := svc.List(ctx, "SNACK", store.Page{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(snacks) != 4 {
		t.Fatalf("snacks = %d, want 4", len(snacks))
	}

	found, err := svc.Search(ctx, "salad", store.Page{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(found) != 1 || found[0].Name != "Greek Salad" {
		t.Fatalf("search = %+v", found)
	}
	if _, err := svc.Search(ctx, " ", store.Page{}); !apperr.IsValidation(err) {
		t.Fatalf("blank search error = %v, want validation", err)
	}
}

func TestCatalogueFindByIngredients(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := seededStores(t)
	index := &fakeIndex{matches: []ingredients.Match{
		{Entry: ingredients.Entry{MealID: 9, AverageRating: 4.5, RatingCount: 2}, Similarity: 0.8, MatchedCount: 2, TotalIngredients: 4, Score: 0.9},
		{Entry: ingredients.Entry{MealID: 404}, Score: 0.5},
		{Entry: ingredients.Entry{MealID: 6}, Similarity: 0.3, MatchedCount: 1, TotalIngredients: 5, Score: 0.4},
	}}
	svc := NewCatalogue(s.Users, s.Meals, index, nil)

	got, err := svc.FindByIngredients(ctx, []string{" chicken ", "", "garlic"}, 0, 0)
	if err != nil {
		t.Fatalf("FindByIngredients: %v", err)
	}
	if len(index.query) != 2 || index.limit != DefaultRecipeLimit || index.minMatch != DefaultMinMatch {
		t.Fatalf("index called with %q limit %d min %d", index.query, index.limit, index.minMatch)
	}
	if len(got) != 2 {
		t.Fatalf("results = %d, want deleted meal skipped", len(got))
	}
	if got[0].Meal.Name != "Grilled Chicken Breast" || got[0].AverageRating != 4.5 || got[0].MatchedIngredients != 2 {
		t.Fatalf("first result = %+v", got[0])
	}

	if _, err := svc.FindByIngredients(ctx, []string{" "}, 5, 1); !apperr.IsValidation(err) {
		t.Fatalf("empty query error = %v, want validation", err)
	}
	if _, err := svc.FindByIngredients(ctx, []string{"rice"}, 500, 1); err != nil || index.limit != MaxRecipeLimit {
		t.Fatalf("limit = %d, err = %v", index.limit, err)
	}

	status, err := svc.TrainIndex(ctx)
	if err != nil || !status.Trained {
		t.Fatalf("TrainIndex = %+v, %v", status, err)
	}
	if !svc.IndexStatus(ctx).Trained {
		t.Fatal("IndexStatus not trained after TrainIndex")
	}
}

func TestCatalogueWithoutIndex(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := emptyStores(t)
	svc := NewCatalogue(s.Users, s.Meals, nil, nil)

	got, err := svc.FindByIngredients(ctx, []string{"rice"}, 5, 1)
	if err != nil || len(got) != 0 {
		t.Fatalf("FindByIngredients = %v, %v", got, err)
	}
	if _, err := svc.TrainIndex(ctx); !apperr.IsModelUnavailable(err) {
		t.Fatalf("TrainIndex error = %v, want model unavailable", err)
	}
	if svc.IndexStatus(ctx).Trained {
		t.Fatal("IndexStatus reports trained without an index")
	}
}

func TestCatalogueAnalyze(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := emptyStores(t)
	svc := NewCatalogue(s.Users, s.Meals, nil, nil)
	meal := mustCreateMeal(t, s, models.Meal{Name: "Rice", Calories: 130.333, Protein: 2.7, Sodium: 1})

	tests := []struct {
		name     string
		mealID   uint
		servings float64
		wantCal  float64
		wantErr  func(error) bool
	}{
		{name: "default serving", mealID: meal.ID, wantCal: 130.33},
		{name: "three servings", mealID: meal.ID, servings: 3, wantCal: 391},
		{name: "negative", mealID: meal.ID, servings: -2, wantErr: apperr.IsValidation},
		{name: "unknown meal", mealID: 999, servings: 1, wantErr: apperr.IsNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Analyze(ctx, tt.mealID, tt.servings)
			if tt.wantErr != nil {
				if !tt.wantErr(err) {
					t.Fatalf("Analyze error = %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Analyze: %v", err)
			}
			if !approx(got.Calories, tt.wantCal) {
				t.Fatalf("calories = %v, want %v", got.Calories, tt.wantCal)
			}
		})
	}
}
