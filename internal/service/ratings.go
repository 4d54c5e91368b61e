package service

import (
	"context"
	"fmt"

	"nutriplan/internal/apperr"
	"nutriplan/internal/nutrition"
	"nutriplan/internal/retrain"
	"nutriplan/internal/store"
	"nutriplan/models"
)

const maxReviewLength = 1000

// Ratings records user ratings. Every change drops the rater's cached
// recommendations and asks for a collaborative model retrain.
type Ratings struct {
	users    store.UserStore
	meals    store.MealStore
	ratings  store.RatingStore
	cache    Invalidator
	notifier retrain.Notifier
}

// NewRatings returns a rating service. cache and notifier may be nil.
func NewRatings(users store.UserStore, meals store.MealStore, ratings store.RatingStore, cache Invalidator, notifier retrain.Notifier) *Ratings {
	return &Ratings{
		users:    users,
		meals:    meals,
		ratings:  ratings,
		cache:    orNopInvalidator(cache),
		notifier: orNopNotifier(notifier),
	}
}

// Rate creates or replaces the user's rating of a meal.
func (s *Ratings) Rate(ctx context.Context, userID, mealID uint, value float64, review string) (*models.MealRating, error) {
	if value < models.MinRating || value > models.MaxRating {
		return nil, apperr.Validation("rating", fmt.Sprintf("must be between %g and %g", models.MinRating, models.MaxRating))
	}
	if len(review) > maxReviewLength {
		return nil, apperr.Validation("review", fmt.Sprintf("must be at most %d characters", maxReviewLength))
	}
	if _, err := s.users.Get(ctx, userID); err != nil {
		return nil, err
	}
	rating, err := s.ratings.Upsert(ctx, userID, mealID, value, review)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(userID)
	notify(ctx, retrain.TopicRatingsChanged, s.notifier.RatingsChanged, mealID)
	return rating, nil
}

func (s *Ratings) Get(ctx context.Context, userID, mealID uint) (*models.MealRating, error) {
	return s.ratings.Get(ctx, mealID, userID)
}

// Delete removes the user's rating so the meal can be rated afresh.
func (s *Ratings) Delete(ctx context.Context, userID, mealID uint) error {
	if err := s.ratings.Delete(ctx, userID, mealID); err != nil {
		return err
	}
	s.cache.Invalidate(userID)
	notify(ctx, retrain.TopicRatingsChanged, s.notifier.RatingsChanged, mealID)
	return nil
}

func (s *Ratings) ListByMeal(ctx context.Context, mealID uint, page store.Page) ([]models.MealRating, error) {
	if _, err := s.meals.Get(ctx, mealID); err != nil {
		return nil, err
	}
	return s.ratings.ListByMeal(ctx, mealID, page)
}

// Stats returns the live rating aggregate of a meal.
func (s *Ratings) Stats(ctx context.Context, mealID uint) (store.RatingAggregate, error) {
	if _, err := s.meals.Get(ctx, mealID); err != nil {
		return store.RatingAggregate{}, err
	}
	agg, err := s.ratings.AggregateForMeal(ctx, mealID)
	if err != nil {
		return store.RatingAggregate{}, err
	}
	agg.AverageRating = nutrition.Round(agg.AverageRating, 2)
	return agg, nil
}
