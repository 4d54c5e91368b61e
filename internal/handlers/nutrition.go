package handlers

import "net/http"

type analyzeRequest struct {
	MealID   uint    `json:"meal_id" validate:"required"`
	Servings float64 `json:"servings" validate:"omitempty,gt=0,lte=100"`
}

func (a *API) analyzeMeal(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	nutrients, err := a.Catalogue.Analyze(r.Context(), req.MealID, req.Servings)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, nutrients)
}

func (a *API) dailyNutrition(w http.ResponseWriter, r *http.Request) {
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
	summary, err := a.MealLog.DailySummary(r.Context(), userID, date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, summary)
}
