package service

import (
	"context"
	"fmt"
	"strings"

	"nutriplan/internal/apperr"
	applog "nutriplan/internal/log"
	"nutriplan/internal/nutrition"
	"nutriplan/internal/store"
	"nutriplan/models"
)

// UserPatch holds the fields of a partial user update. Nil fields are left
// unchanged.
type UserPatch struct {
	Email         *string
	Username      *string
	FirstName     *string
	LastName      *string
	Age           *int
	Gender        *string
	Height        *float64
	Weight        *float64
	ActivityLevel *string
	Goal          *string
}

func (p UserPatch) touchesHealth() bool {
	return p.Age != nil || p.Gender != nil || p.Height != nil || p.Weight != nil ||
		p.ActivityLevel != nil || p.Goal != nil
}

func (p UserPatch) apply(u *models.User) {
	setIf(&u.Email, p.Email)
	setIf(&u.Username, p.Username)
	setIf(&u.FirstName, p.FirstName)
	setIf(&u.LastName, p.LastName)
	setIf(&u.Age, p.Age)
	setIf(&u.Height, p.Height)
	setIf(&u.Weight, p.Weight)
	if p.Gender != nil {
		u.Gender = strings.ToLower(*p.Gender)
	}
	if p.ActivityLevel != nil {
		u.ActivityLevel = models.NormalizeActivityLevel(*p.ActivityLevel)
	}
	if p.Goal != nil {
		u.Goal = models.NormalizeGoal(*p.Goal)
	}
}

// PreferencePatch holds the fields of a partial preference update.
type PreferencePatch struct {
	Vegetarian          *bool
	Vegan               *bool
	GlutenFree          *bool
	DairyFree           *bool
	NutFree             *bool
	Halal               *bool
	Kosher              *bool
	PreferredCuisine    *string
	DislikedIngredients *string
	FavoriteIngredients *string

	PreferredProteinRatio *float64
	PreferredCarbRatio    *float64
	PreferredFatRatio     *float64
}

func (p PreferencePatch) validate() error {
	ratios := []struct {
		field string
		value *float64
	}{
		{"preferred_protein_ratio", p.PreferredProteinRatio},
		{"preferred_carb_ratio", p.PreferredCarbRatio},
		{"preferred_fat_ratio", p.PreferredFatRatio},
	}
	for _, r := range ratios {
		if r.value != nil && (*r.value < 0 || *r.value > 1) {
			return apperr.Validation(r.field, "must be between 0 and 1")
		}
	}
	return nil
}

func (p PreferencePatch) touchesRatios() bool {
	return p.PreferredProteinRatio != nil || p.PreferredCarbRatio != nil || p.PreferredFatRatio != nil
}

func (p PreferencePatch) apply(pref *models.Preference) {
	setIf(&pref.Vegetarian, p.Vegetarian)
	setIf(&pref.Vegan, p.Vegan)
	setIf(&pref.GlutenFree, p.GlutenFree)
	setIf(&pref.DairyFree, p.DairyFree)
	setIf(&pref.NutFree, p.NutFree)
	setIf(&pref.Halal, p.Halal)
	setIf(&pref.Kosher, p.Kosher)
	setIf(&pref.PreferredCuisine, p.PreferredCuisine)
	setIf(&pref.DislikedIngredients, p.DislikedIngredients)
	setIf(&pref.FavoriteIngredients, p.FavoriteIngredients)
	if p.PreferredProteinRatio != nil {
		pref.PreferredProteinRatio = p.PreferredProteinRatio
	}
	if p.PreferredCarbRatio != nil {
		pref.PreferredCarbRatio = p.PreferredCarbRatio
	}
	if p.PreferredFatRatio != nil {
		pref.PreferredFatRatio = p.PreferredFatRatio
	}
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// Users manages profiles, their derived daily targets and preferences.
type Users struct {
	users store.UserStore
	prefs store.PreferenceStore
	cache Invalidator
}

// NewUsers returns a user service. cache may be nil.
func NewUsers(users store.UserStore, prefs store.PreferenceStore, cache Invalidator) *Users {
	return &Users{users: users, prefs: prefs, cache: orNopInvalidator(cache)}
}

// Create stores u, filling in daily targets when the health profile is
// complete.
func (s *Users) Create(ctx context.Context, u *models.User) error {
	u.Gender = strings.ToLower(u.Gender)
	u.ActivityLevel = models.NormalizeActivityLevel(u.ActivityLevel)
	u.Goal = models.NormalizeGoal(u.Goal)
	applyTargets(u, nil)
	if err := s.users.Create(ctx, u); err != nil {
		return err
	}
	applog.Info(ctx, "user created", "user_id", u.ID, "has_targets", u.DailyCalorieTarget != nil)
	return nil
}

func (s *Users) Get(ctx context.Context, id uint) (*models.User, error) {
	return s.users.Get(ctx, id)
}

func (s *Users) List(ctx context.Context, page store.Page) ([]models.User, error) {
	return s.users.List(ctx, page)
}

func (s *Users) Delete(ctx context.Context, id uint) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(id)
	return nil
}

// Update applies patch and recomputes targets when a health field changed.
func (s *Users) Update(ctx context.Context, id uint, patch UserPatch) (*models.User, error) {
	u, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.apply(u)
	if patch.touchesHealth() {
		pref, err := s.preference(ctx, id)
		if err != nil {
			return nil, err
		}
		applyTargets(u, pref)
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	s.cache.Invalidate(id)
	return u, nil
}

// GetPreferences returns the user's preference, creating an empty one on
// first access.
func (s *Users) GetPreferences(ctx context.Context, userID uint) (*models.Preference, error) {
	if _, err := s.users.Get(ctx, userID); err != nil {
		return nil, err
	}
	pref, err := s.prefs.GetByUserID(ctx, userID)
	if err == nil {
		return pref, nil
	}
	if !apperr.IsNotFound(err) {
		return nil, err
	}
	pref = &models.Preference{UserID: userID}
	if err := s.prefs.Create(ctx, pref); err != nil {
		return nil, fmt.Errorf("create default preference: %w", err)
	}
	return pref, nil
}

// UpdatePreferences applies patch to the user's preference. Macro ratios
// must lie in [0, 1]; when all three are set the user's targets are
// recomputed with them.
func (s *Users) UpdatePreferences(ctx context.Context, userID uint, patch PreferencePatch) (*models.Preference, error) {
	if err := patch.validate(); err != nil {
		return nil, err
	}
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	current, err := s.preference(ctx, userID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		current = &models.Preference{UserID: userID}
	}
	patch.apply(current)

	saved, err := s.prefs.CreateOrUpdate(ctx, userID, current)
	if err != nil {
		return nil, err
	}

	if patch.touchesRatios() && applyTargets(u, saved) {
		if err := s.users.Update(ctx, u); err != nil {
			return nil, err
		}
	}
	s.cache.Invalidate(userID)
	return saved, nil
}

func (s *Users) preference(ctx context.Context, userID uint) (*models.Preference, error) {
	pref, err := s.prefs.GetByUserID(ctx, userID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return pref, nil
}

// applyTargets sets u's daily targets when its health profile is complete
// and reports whether it did. An incomplete profile clears them.
func applyTargets(u *models.User, pref *models.Preference) bool {
	targets, ok := nutrition.ComputeTargets(nutrition.ProfileFromUser(u, pref))
	if !ok {
		u.DailyCalorieTarget = nil
		u.DailyProteinTarget = nil
		u.DailyCarbTarget = nil
		u.DailyFatTarget = nil
		return false
	}
	u.DailyCalorieTarget = &targets.Calories
	u.DailyProteinTarget = &targets.Protein
	u.DailyCarbTarget = &targets.Carbohydrates
	u.DailyFatTarget = &targets.Fat
	return true
}
