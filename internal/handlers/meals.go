package handlers

import (
	"net/http"

	"nutriplan/internal/service"
	"nutriplan/models"
)

type mealRequest struct {
	Name          string  `json:"name" validate:"required,max=200"`
	Description   string  `json:"description" validate:"max=2000"`
	Category      string  `json:"category" validate:"omitempty,meal_category"`
	ServingSize   string  `json:"serving_size" validate:"max=100"`
	Calories      float64 `json:"calories" validate:"gte=0"`
	Protein       float64 `json:"protein" validate:"gte=0"`
	Carbohydrates float64 `json:"carbohydrates" validate:"gte=0"`
	Fat           float64 `json:"fat" validate:"gte=0"`
	Fiber         float64 `json:"fiber" validate:"gte=0"`
	Sugar         float64 `json:"sugar" validate:"gte=0"`
	Sodium        float64 `json:"sodium" validate:"gte=0"`
	IsVegetarian  bool    `json:"is_vegetarian"`
	IsVegan       bool    `json:"is_vegan"`
	IsGlutenFree  bool    `json:"is_gluten_free"`
	IsDairyFree   bool    `json:"is_dairy_free"`
	IsNutFree     bool    `json:"is_nut_free"`
	IsHalal       bool    `json:"is_halal"`
	IsKosher      bool    `json:"is_kosher"`
	Ingredients   string  `json:"ingredients" validate:"max=5000"`
}

func (m mealRequest) model() models.Meal {
	return models.Meal{
		Name:          m.Name,
		Description:   m.Description,
		Category:      m.Category,
		ServingSize:   m.ServingSize,
		Calories:      m.Calories,
		Protein:       m.Protein,
		Carbohydrates: m.Carbohydrates,
		Fat:           m.Fat,
		Fiber:         m.Fiber,
		Sugar:         m.Sugar,
		Sodium:        m.Sodium,
		IsVegetarian:  m.IsVegetarian,
		IsVegan:       m.IsVegan,
		IsGlutenFree:  m.IsGlutenFree,
		IsDairyFree:   m.IsDairyFree,
		IsNutFree:     m.IsNutFree,
		IsHalal:       m.IsHalal,
		IsKosher:      m.IsKosher,
		Ingredients:   m.Ingredients,
	}
}

type logMealRequest struct {
	MealID   uint    `json:"meal_id" validate:"required"`
	Date     string  `json:"date"`
	MealType string  `json:"meal_type" validate:"omitempty,meal_category"`
	Servings float64 `json:"servings" validate:"omitempty,gt=0,lte=100"`
}

func (a *API) createMeal(w http.ResponseWriter, r *http.Request) {
	var req mealRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	meal := req.model()
	if err := a.Catalogue.Create(r.Context(), &meal); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, meal)
}

func (a *API) listMeals(w http.ResponseWriter, r *http.Request) {
	page, err := queryPage(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	meals, err := a.Catalogue.List(r.Context(), r.URL.Query().Get("category"), page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, meals)
}

func (a *API) getMeal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "mealID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	meal, err := a.Catalogue.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, meal)
}

func (a *API) searchMeals(w http.ResponseWriter, r *http.Request) {
	page, err := queryPage(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	meals, err := a.Catalogue.Search(r.Context(), r.URL.Query().Get("q"), page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, meals)
}

func (a *API) logMeal(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req logMealRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	entry, err := a.MealLog.LogMeal(r.Context(), service.LogRequest{
		UserID:   userID,
		MealID:   req.MealID,
		Date:     date,
		MealType: req.MealType,
		Servings: req.Servings,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, entry)
}

func (a *API) mealHistory(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	date, err := parseDate("date", r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := queryPage(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	entries, err := a.MealLog.History(r.Context(), userID, date, page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, entries)
}
