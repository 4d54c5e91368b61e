package handlers

import "net/http"

type saveRequest struct {
	Note *string `json:"note" validate:"omitempty,max=500"`
}

type savedStatus struct {
	IsSaved bool `json:"is_saved"`
}

func (a *API) saveMeal(w http.ResponseWriter, r *http.Request) {
	userID, mealID, err := userAndMeal(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req saveRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		writeError(w, r, err)
		return
	}
	saved, err := a.Saved.Save(r.Context(), userID, mealID, req.Note)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, saved)
}

func (a *API) unsaveMeal(w http.ResponseWriter, r *http.Request) {
	userID, mealID, err := userAndMeal(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := a.Saved.Delete(r.Context(), userID, mealID); err != nil {
		writeError(w, r, err)
		return
	}
	noContent(w)
}

func (a *API) savedMeals(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := queryPage(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	saved, err := a.Saved.List(r.Context(), userID, page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, saved)
}

func (a *API) isSaved(w http.ResponseWriter, r *http.Request) {
	userID, mealID, err := userAndMeal(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	saved, err := a.Saved.IsSaved(r.Context(), userID, mealID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, savedStatus{IsSaved: saved})
}
