// Package recommend ranks catalogue meals for a user by blending a content
// score (dietary fit, nutrition targets, tastes, history) with collaborative
// rating predictions when a trained model is available.
package recommend

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"nutriplan/internal/apperr"
	"nutriplan/internal/collab"
	applog "nutriplan/internal/log"
	"nutriplan/internal/metrics"
	"nutriplan/internal/nutrition"
	"nutriplan/internal/store"
	"nutriplan/models"
)

const (
	DefaultLimit = 10

	mlWeight        = 0.6
	contentWeight   = 0.4
	mlCandidateMult = 3

	highlyRatedThreshold  = 0.7
	popularThreshold      = 0.5
	collaborativeFallback = "collaborative"
)

// UserSource loads user profiles.
type UserSource interface {
	Get(ctx context.Context, id uint) (*models.User, error)
}

// MealSource lists the catalogue.
type MealSource interface {
	Get(ctx context.Context, id uint) (*models.Meal, error)
	List(ctx context.Context, filter store.MealFilter, page store.Page) ([]models.Meal, error)
	All(ctx context.Context) ([]models.Meal, error)
}

// PreferenceSource loads a user's preference.
type PreferenceSource interface {
	GetByUserID(ctx context.Context, userID uint) (*models.Preference, error)
}

// ConsumptionSource supplies consumption history and today's totals.
type ConsumptionSource interface {
	History(ctx context.Context, userID uint) ([]models.UserMeal, error)
	DailyAggregate(ctx context.Context, userID uint, date time.Time) (store.DailyAggregate, error)
}

// ModelSource provides the collaborative model when one is available.
type ModelSource interface {
	EnsureLoaded(ctx context.Context) (*collab.Model, error)
}

// Request selects recommendations.
type Request struct {
	UserID   uint
	Category string
	Limit    int
	UseML    bool
}

// Recommendation is one ranked meal.
type Recommendation struct {
	Meal         models.Meal `json:"meal"`
	Score        float64     `json:"score"`
	MLScore      *float64    `json:"ml_score"`
	ContentScore float64     `json:"content_score"`
	Reason       string      `json:"reason"`
}

// PopularMeal is a meal ranked by community popularity.
type PopularMeal struct {
	Meal   models.Meal `json:"meal"`
	Score  float64     `json:"score"`
	Reason string      `json:"reason"`
}

// Hybrid combines the content scorer with the collaborative model.
type Hybrid struct {
	users       UserSource
	meals       MealSource
	preferences PreferenceSource
	consumption ConsumptionSource
	model       ModelSource
	cache       *Cache
	now         func() time.Time
}

// NewHybrid wires a recommender. model may be nil for content-only ranking.
func NewHybrid(users UserSource, meals MealSource, prefs PreferenceSource, consumption ConsumptionSource, model ModelSource, cache *Cache) *Hybrid {
	if cache == nil {
		cache = NewCache(0)
	}
	return &Hybrid{
		users:       users,
		meals:       meals,
		preferences: prefs,
		consumption: consumption,
		model:       model,
		cache:       cache,
		now:         time.Now,
	}
}

// Cache exposes the result cache.
func (h *Hybrid) Cache() *Cache { return h.cache }

// Invalidate drops cached results for userID after their data changed.
func (h *Hybrid) Invalidate(userID uint) { h.cache.Invalidate(userID) }

// Recommend returns up to req.Limit meals ranked for the user. Meals failing
// the user's dietary restrictions are never returned.
func (h *Hybrid) Recommend(ctx context.Context, req Request) ([]Recommendation, error) {
	if req.Limit <= 0 {
		req.Limit = DefaultLimit
	}
	key := cacheKey{UserID: req.UserID, Category: req.Category, Limit: req.Limit, UseML: req.UseML}
	if recs, ok := h.cache.get(key); ok {
		metrics.RecordCacheLookup(true)
		return recs, nil
	}
	metrics.RecordCacheLookup(false)

	start := time.Now()
	recs, mode, err := h.compute(ctx, req)
	if err != nil {
		return nil, err
	}
	metrics.RecordRecommendation(mode, time.Since(start))
	h.cache.set(key, recs)
	return recs, nil
}

type scored struct {
	meal    *models.Meal
	content float64
	ml      float64
	hybrid  float64
}

func (h *Hybrid) compute(ctx context.Context, req Request) ([]Recommendation, string, error) {
	user, err := h.users.Get(ctx, req.UserID)
	if err != nil {
		return nil, "", err
	}

	meals, err := h.candidates(ctx, req.Category)
	if err != nil {
		return nil, "", err
	}
	if len(meals) == 0 {
		return []Recommendation{}, "content", nil
	}

	signals, err := h.signals(ctx, user)
	if err != nil {
		return nil, "", err
	}

	survivors := make([]scored, 0, len(meals))
	for i := range meals {
		content := Score(&meals[i], signals)
		if content == 0 {
			continue
		}
		survivors = append(survivors, scored{meal: &meals[i], content: content})
	}

	mode := "content"
	if req.UseML {
		if predictions := h.predict(ctx, req, survivors); predictions != nil {
			mode = "hybrid"
			for i := range survivors {
				if p, ok := predictions[survivors[i].meal.ID]; ok {
					survivors[i].ml = (max(1, min(5, p)) - 1) / 4
				}
			}
		}
	}

	for i := range survivors {
		s := &survivors[i]
		if s.ml > 0 {
			s.hybrid = s.ml*mlWeight + s.content*contentWeight
		} else {
			s.hybrid = s.content
		}
	}
	slices.SortStableFunc(survivors, func(a, b scored) int {
		return cmp.Compare(b.hybrid, a.hybrid)
	})
	if len(survivors) > req.Limit {
		survivors = survivors[:req.Limit]
	}

	out := make([]Recommendation, 0, len(survivors))
	for _, s := range survivors {
		rec := Recommendation{
			Meal:         *s.meal,
			Score:        nutrition.Round(s.hybrid, 3),
			ContentScore: nutrition.Round(s.content, 3),
			Reason:       hybridReason(s.meal, signals, s.ml),
		}
		if s.ml > 0 {
			ml := nutrition.Round(s.ml, 3)
			rec.MLScore = &ml
		}
		out = append(out, rec)
	}
	return out, mode, nil
}

func (h *Hybrid) candidates(ctx context.Context, category string) ([]models.Meal, error) {
	all, err := h.meals.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load meals: %w", err)
	}
	if category == "" {
		return all, nil
	}
	out := make([]models.Meal, 0, len(all))
	for _, m := range all {
		if strings.EqualFold(m.Category, category) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (h *Hybrid) signals(ctx context.Context, user *models.User) (*Signals, error) {
	pref, err := h.preferences.GetByUserID(ctx, user.ID)
	if err != nil && !apperr.IsNotFound(err) {
		return nil, fmt.Errorf("load preferences: %w", err)
	}
	history, err := h.consumption.History(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	today, err := h.consumption.DailyAggregate(ctx, user.ID, h.now())
	if err != nil {
		return nil, fmt.Errorf("load today's totals: %w", err)
	}
	return NewSignals(user, pref, history, today.TotalCalories, today.TotalProtein), nil
}

// predict returns raw rating predictions keyed by meal, or nil when no
// trained model is available.
func (h *Hybrid) predict(ctx context.Context, req Request, survivors []scored) map[uint]float64 {
	if h.model == nil {
		return nil
	}
	model, err := h.model.EnsureLoaded(ctx)
	if err != nil {
		metrics.RecordFallback(collaborativeFallback)
		if apperr.IsModelUnavailable(err) {
			applog.Debug(ctx, "collaborative model unavailable, using content scores")
		} else {
			applog.Warn(ctx, "collaborative model load failed, using content scores", "err", err)
		}
		return nil
	}
	if !model.IsTrained() {
		return nil
	}

	ids := make([]uint, len(survivors))
	for i, s := range survivors {
		ids[i] = s.meal.ID
	}
	predictions := model.Recommend(req.UserID, ids, req.Limit*mlCandidateMult)
	out := make(map[uint]float64, len(predictions))
	for _, p := range predictions {
		out[p.MealID] = p.Score
	}
	return out
}

func hybridReason(meal *models.Meal, s *Signals, ml float64) string {
	var reasons []string
	switch {
	case ml > highlyRatedThreshold:
		reasons = append(reasons, "Highly rated by similar users")
	case ml > popularThreshold:
		reasons = append(reasons, "Popular among users with similar preferences")
	}
	reasons = append(reasons, Reasons(meal, s)...)
	if len(reasons) > 0 {
		return strings.Join(reasons, "; ")
	}
	if ml > 0 {
		return "Personalized recommendation based on user behavior"
	}
	return "Personalized recommendation based on your profile"
}

// Popular lists meals the community rates highly. Without a trained model it
// falls back to the first meals of the catalogue.
func (h *Hybrid) Popular(ctx context.Context, limit int) ([]PopularMeal, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	var model *collab.Model
	if h.model != nil {
		m, err := h.model.EnsureLoaded(ctx)
		switch {
		case err == nil && m.IsTrained():
			model = m
		case err != nil && !apperr.IsModelUnavailable(err):
			applog.Warn(ctx, "collaborative model load failed, listing catalogue", "err", err)
		}
	}

	if model == nil {
		metrics.RecordFallback(collaborativeFallback)
		meals, err := h.meals.List(ctx, store.MealFilter{}, store.Page{Limit: limit})
		if err != nil {
			return nil, fmt.Errorf("list meals: %w", err)
		}
		out := make([]PopularMeal, 0, len(meals))
		for _, m := range meals {
			out = append(out, PopularMeal{Meal: m, Score: 1.0, Reason: "Popular meal"})
		}
		return out, nil
	}

	ranked := model.Popular(limit)
	out := make([]PopularMeal, 0, len(ranked))
	for _, p := range ranked {
		meal, err := h.meals.Get(ctx, p.MealID)
		if err != nil {
			if apperr.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		out = append(out, PopularMeal{Meal: *meal, Score: nutrition.Round(p.Score, 3), Reason: "Popular among all users"})
	}
	return out, nil
}
