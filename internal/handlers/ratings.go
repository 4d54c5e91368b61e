package handlers

import "net/http"

type rateRequest struct {
	Rating float64 `json:"rating" validate:"required,gte=1,lte=5"`
	Review string  `json:"review" validate:"max=1000"`
}

func userAndMeal(r *http.Request) (userID, mealID uint, err error) {
	if userID, err = pathID(r, "userID"); err != nil {
		return 0, 0, err
	}
	if mealID, err = pathID(r, "mealID"); err != nil {
		return 0, 0, err
	}
	return userID, mealID, nil
}

func (a *API) rateMeal(w http.ResponseWriter, r *http.Request) {
	userID, mealID, err := userAndMeal(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req rateRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	rating, err := a.Ratings.Rate(r.Context(), userID, mealID, req.Rating, req.Review)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, rating)
}

func (a *API) getRating(w http.ResponseWriter, r *http.Request) {
	userID, mealID, err := userAndMeal(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rating, err := a.Ratings.Get(r.Context(), userID, mealID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, rating)
}

func (a *API) deleteRating(w http.ResponseWriter, r *http.Request) {
	userID, mealID, err := userAndMeal(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := a.Ratings.Delete(r.Context(), userID, mealID); err != nil {
		writeError(w, r, err)
		return
	}
	noContent(w)
}

func (a *API) mealRatings(w http.ResponseWriter, r *http.Request) {
	mealID, err := pathID(r, "mealID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := queryPage(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ratings, err := a.Ratings.ListByMeal(r.Context(), mealID, page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, ratings)
}

func (a *API) ratingStats(w http.ResponseWriter, r *http.Request) {
	mealID, err := pathID(r, "mealID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	stats, err := a.Ratings.Stats(r.Context(), mealID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, stats)
}
