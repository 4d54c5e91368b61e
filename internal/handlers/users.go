package handlers

import (
	"net/http"

	"nutriplan/internal/service"
	"nutriplan/models"
)

type createUserRequest struct {
	Email         string  `json:"email" validate:"required,email,max=255"`
	Username      string  `json:"username" validate:"required,min=3,max=50"`
	FirstName     string  `json:"first_name" validate:"max=100"`
	LastName      string  `json:"last_name" validate:"max=100"`
	Age           int     `json:"age" validate:"omitempty,gte=1,lte=120"`
	Gender        string  `json:"gender" validate:"omitempty,gender"`
	Height        float64 `json:"height" validate:"omitempty,gt=0,lte=300"`
	Weight        float64 `json:"weight" validate:"omitempty,gt=0,lte=500"`
	ActivityLevel string  `json:"activity_level" validate:"omitempty,activity_level"`
	Goal          string  `json:"goal" validate:"omitempty,goal"`
}

type updateUserRequest struct {
	Email         *string  `json:"email" validate:"omitempty,email,max=255"`
	Username      *string  `json:"username" validate:"omitempty,min=3,max=50"`
	FirstName     *string  `json:"first_name" validate:"omitempty,max=100"`
	LastName      *string  `json:"last_name" validate:"omitempty,max=100"`
	Age           *int     `json:"age" validate:"omitempty,gte=1,lte=120"`
	Gender        *string  `json:"gender" validate:"omitempty,gender"`
	Height        *float64 `json:"height" validate:"omitempty,gt=0,lte=300"`
	Weight        *float64 `json:"weight" validate:"omitempty,gt=0,lte=500"`
	ActivityLevel *string  `json:"activity_level" validate:"omitempty,activity_level"`
	Goal          *string  `json:"goal" validate:"omitempty,goal"`
}

type preferenceRequest struct {
	Vegetarian          *bool   `json:"vegetarian"`
	Vegan               *bool   `json:"vegan"`
	GlutenFree          *bool   `json:"gluten_free"`
	DairyFree           *bool   `json:"dairy_free"`
	NutFree             *bool   `json:"nut_free"`
	Halal               *bool   `json:"halal"`
	Kosher              *bool   `json:"kosher"`
	PreferredCuisine    *string `json:"preferred_cuisine" validate:"omitempty,max=100"`
	DislikedIngredients *string `json:"disliked_ingredients" validate:"omitempty,max=500"`
	FavoriteIngredients *string `json:"favorite_ingredients" validate:"omitempty,max=500"`

	PreferredProteinRatio *float64 `json:"preferred_protein_ratio" validate:"omitempty,gte=0,lte=1"`
	PreferredCarbRatio    *float64 `json:"preferred_carb_ratio" validate:"omitempty,gte=0,lte=1"`
	PreferredFatRatio     *float64 `json:"preferred_fat_ratio" validate:"omitempty,gte=0,lte=1"`
}

func (a *API) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	user := models.User{
		Email:         req.Email,
		Username:      req.Username,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Age:           req.Age,
		Gender:        req.Gender,
		Height:        req.Height,
		Weight:        req.Weight,
		ActivityLevel: req.ActivityLevel,
		Goal:          req.Goal,
	}
	if err := a.Users.Create(r.Context(), &user); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, user)
}

func (a *API) listUsers(w http.ResponseWriter, r *http.Request) {
	page, err := queryPage(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	users, err := a.Users.List(r.Context(), page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, users)
}

func (a *API) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "userID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	user, err := a.Users.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, user)
}

func (a *API) updateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "userID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req updateUserRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	user, err := a.Users.Update(r.Context(), id, service.UserPatch{
		Email:         req.Email,
		Username:      req.Username,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Age:           req.Age,
		Gender:        req.Gender,
		Height:        req.Height,
		Weight:        req.Weight,
		ActivityLevel: req.ActivityLevel,
		Goal:          req.Goal,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, user)
}

func (a *API) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "userID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := a.Users.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	noContent(w)
}

func (a *API) getPreferences(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "userID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	pref, err := a.Users.GetPreferences(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, pref)
}

func (a *API) updatePreferences(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "userID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req preferenceRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	pref, err := a.Users.UpdatePreferences(r.Context(), id, service.PreferencePatch{
		Vegetarian:            req.Vegetarian,
		Vegan:                 req.Vegan,
		GlutenFree:            req.GlutenFree,
		DairyFree:             req.DairyFree,
		NutFree:               req.NutFree,
		Halal:                 req.Halal,
		Kosher:                req.Kosher,
		PreferredCuisine:      req.PreferredCuisine,
		DislikedIngredients:   req.DislikedIngredients,
		FavoriteIngredients:   req.FavoriteIngredients,
		PreferredProteinRatio: req.PreferredProteinRatio,
		PreferredCarbRatio:    req.PreferredCarbRatio,
		PreferredFatRatio:     req.PreferredFatRatio,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, pref)
}
