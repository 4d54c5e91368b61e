package handlers

import (
	"net/http"

	"nutriplan/internal/apperr"
	"nutriplan/internal/service"
)

type recipeSearchRequest struct {
	Ingredients []string `json:"ingredients" validate:"required,min=1,max=50,dive,max=100"`
	Limit       int      `json:"limit" validate:"omitempty,gte=1,lte=50"`
	MinMatch    int      `json:"min_match" validate:"omitempty,gte=1"`
}

type recipeRatingRequest struct {
	Rating  float64 `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string  `json:"comment" validate:"max=1000"`
}

type createRecipeRequest struct {
	mealRequest
	UserID uint `json:"created_by_user_id"`
}

func (a *API) searchRecipes(w http.ResponseWriter, r *http.Request) {
	var req recipeSearchRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	matches, err := a.Catalogue.FindByIngredients(r.Context(), req.Ingredients, req.Limit, req.MinMatch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, matches)
}

func (a *API) createRecipe(w http.ResponseWriter, r *http.Request) {
	var req createRecipeRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	meal := req.model()
	if err := a.Catalogue.CreateRecipe(r.Context(), req.UserID, &meal); err != nil {
		writeError(w, r, err)
		return
	}
	total := len(meal.IngredientList())
	writeJSON(w, r, http.StatusCreated, service.RecipeMatch{
		Meal:               meal,
		Similarity:         1,
		MatchedIngredients: total,
		TotalIngredients:   total,
		Score:              1,
	})
}

func (a *API) trainRecipes(w http.ResponseWriter, r *http.Request) {
	status, err := a.Catalogue.TrainIndex(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, status)
}

func (a *API) recipeStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, a.Catalogue.IndexStatus(r.Context()))
}

// rateRecipe takes the rater from the user_id query parameter.
func (a *API) rateRecipe(w http.ResponseWriter, r *http.Request) {
	mealID, err := pathID(r, "mealID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	userID, err := queryInt(r, "user_id", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if userID < 1 {
		writeError(w, r, apperr.Validation("user_id", "is required"))
		return
	}
	var req recipeRatingRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	rating, err := a.Ratings.Rate(r.Context(), uint(userID), mealID, req.Rating, req.Comment)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, rating)
}

// recipeUserRating answers null when the user has not rated the recipe.
func (a *API) recipeUserRating(w http.ResponseWriter, r *http.Request) {
	userID, mealID, err := userAndMeal(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rating, err := a.Ratings.Get(r.Context(), userID, mealID)
	switch {
	case apperr.IsNotFound(err):
		writeJSON(w, r, http.StatusOK, nil)
	case err != nil:
		writeError(w, r, err)
	default:
		writeJSON(w, r, http.StatusOK, rating)
	}
}
