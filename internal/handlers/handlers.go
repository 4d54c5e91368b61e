// Package handlers exposes the JSON HTTP API on a chi router.
package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"nutriplan/internal/collab"
	applog "nutriplan/internal/log"
	"nutriplan/internal/planner"
	"nutriplan/internal/recommend"
	"nutriplan/internal/service"
)

// CollabModel is the collaborative filtering model lifecycle.
type CollabModel interface {
	Retrain(ctx context.Context) (collab.Stats, error)
	Status(ctx context.Context) collab.Status
}

// Deps are the services behind the API. Collab may be nil.
type Deps struct {
	Users       *service.Users
	MealLog     *service.MealLog
	Ratings     *service.Ratings
	Catalogue   *service.Catalogue
	Saved       *service.Saved
	Recommender *recommend.Hybrid
	Planner     *planner.Planner
	Collab      CollabModel
}

// API serves the /api routes.
type API struct {
	Deps
}

func New(deps Deps) *API {
	return &API{Deps: deps}
}

// Routes registers every /api endpoint on r.
func (a *API) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/", a.createUser)
			r.Get("/", a.listUsers)
			r.Route("/{userID}", func(r chi.Router) {
				r.Get("/", a.getUser)
				r.Put("/", a.updateUser)
				r.Delete("/", a.deleteUser)
				r.Get("/preferences", a.getPreferences)
				r.Put("/preferences", a.updatePreferences)
				r.Post("/meals", a.logMeal)
				r.Get("/meals", a.mealHistory)
			})
		})

		r.Route("/meals", func(r chi.Router) {
			r.Post("/", a.createMeal)
			r.Get("/", a.listMeals)
			r.Get("/search", a.searchMeals)
			r.Get("/{mealID}", a.getMeal)
		})

		r.Route("/nutrition", func(r chi.Router) {
			r.Post("/analyze", a.analyzeMeal)
			r.Get("/users/{userID}/daily", a.dailyNutrition)
		})

		r.Route("/recommendations", func(r chi.Router) {
			r.Get("/users/{userID}", a.recommendations)
			r.Get("/popular", a.popular)
			r.Get("/model/status", a.collabStatus)
			r.Post("/model/train", a.trainCollab)
		})

		r.Route("/planner/users/{userID}", func(r chi.Router) {
			r.Post("/generate", a.generatePlan)
			r.Get("/quick-plan", a.quickPlan)
		})

		r.Route("/ratings", func(r chi.Router) {
			r.Post("/users/{userID}/meals/{mealID}", a.rateMeal)
			r.Get("/users/{userID}/meals/{mealID}", a.getRating)
			r.Delete("/users/{userID}/meals/{mealID}", a.deleteRating)
			r.Get("/meals/{mealID}", a.mealRatings)
			r.Get("/meals/{mealID}/stats", a.ratingStats)
		})

		r.Route("/saved/users/{userID}", func(r chi.Router) {
			r.Get("/", a.savedMeals)
			r.Post("/meals/{mealID}", a.saveMeal)
			r.Delete("/meals/{mealID}", a.unsaveMeal)
			r.Get("/meals/{mealID}/is-saved", a.isSaved)
		})

		r.Route("/ai", func(r chi.Router) {
			r.Post("/search", a.searchRecipes)
			r.Post("/create", a.createRecipe)
			r.Post("/train", a.trainRecipes)
			r.Get("/model/status", a.recipeStatus)
			r.Post("/meals/{mealID}/rate", a.rateRecipe)
			r.Get("/meals/{mealID}/ratings", a.mealRatings)
			r.Get("/meals/{mealID}/user/{userID}/rating", a.recipeUserRating)
		})
	})
	applog.Debug(context.Background(), "api routes registered")
}

func noContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
