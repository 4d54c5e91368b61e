package handlers

import (
	"net/http"

	"nutriplan/internal/planner"
)

type planRequest struct {
	StartDate string `json:"start_date"`
	Days      int    `json:"days"`
}

func (a *API) generatePlan(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req planRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		writeError(w, r, err)
		return
	}
	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	days := req.Days
	if days == 0 {
		days = planner.DefaultDays
	}
	plan, err := a.Planner.Generate(r.Context(), userID, start, days)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, plan)
}

// quickPlan plans from today, clamping days to the planner's maximum.
func (a *API) quickPlan(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	days, err := queryInt(r, "days", planner.DefaultDays)
	if err != nil {
		writeError(w, r, err)
		return
	}
	plan, err := a.Planner.Generate(r.Context(), userID, nil, min(days, planner.MaxDays))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, plan)
}
