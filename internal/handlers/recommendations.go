package handlers

import (
	"net/http"

	"nutriplan/internal/apperr"
	"nutriplan/internal/recommend"
)

const maxRecommendations = 50

func (a *API) recommendations(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := queryLimit(r, recommend.DefaultLimit, maxRecommendations)
	if err != nil {
		writeError(w, r, err)
		return
	}
	useML, err := queryBool(r, "use_ml", true)
	if err != nil {
		writeError(w, r, err)
		return
	}
	recs, err := a.Recommender.Recommend(r.Context(), recommend.Request{
		UserID:   userID,
		Category: r.URL.Query().Get("category"),
		Limit:    limit,
		UseML:    useML,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, recs)
}

func (a *API) popular(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r, recommend.DefaultLimit, maxRecommendations)
	if err != nil {
		writeError(w, r, err)
		return
	}
	meals, err := a.Recommender.Popular(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, meals)
}

func (a *API) collabStatus(w http.ResponseWriter, r *http.Request) {
	if a.Collab == nil {
		writeError(w, r, apperr.ErrModelUnavailable)
		return
	}
	writeJSON(w, r, http.StatusOK, a.Collab.Status(r.Context()))
}

func (a *API) trainCollab(w http.ResponseWriter, r *http.Request) {
	if a.Collab == nil {
		writeError(w, r, apperr.ErrModelUnavailable)
		return
	}
	stats, err := a.Collab.Retrain(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	a.Recommender.Cache().Clear()
	writeJSON(w, r, http.StatusOK, stats)
}

func queryLimit(r *http.Request, fallback, maxLimit int) (int, error) {
	limit, err := queryInt(r, "limit", fallback)
	if err != nil {
		return 0, err
	}
	if limit < 1 || limit > maxLimit {
		return 0, apperr.Validation("limit", "must be between 1 and 50")
	}
	return limit, nil
}
