// Package store implements the persistence boundary on gorm. Every store
// accepts a context and reports missing rows as apperr.NotFoundError.
package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"nutriplan/internal/apperr"
	"nutriplan/models"
)

const (
	defaultPageLimit = 100
	maxPageLimit     = 500
)

// Page selects a window of results.
type Page struct {
	Skip  int
	Limit int
}

func (p Page) normalized() Page {
	if p.Skip < 0 {
		p.Skip = 0
	}
	if p.Limit <= 0 {
		p.Limit = defaultPageLimit
	}
	if p.Limit > maxPageLimit {
		p.Limit = maxPageLimit
	}
	return p
}

func (p Page) apply(q *gorm.DB) *gorm.DB {
	p = p.normalized()
	return q.Offset(p.Skip).Limit(p.Limit)
}

// MealFilter narrows meal listings. Zero values match everything.
type MealFilter struct {
	Category string
	Flags    models.DietaryFlags
}

// DailyAggregate sums a user's consumption for one day.
type DailyAggregate struct {
	Date               time.Time `json:"date"`
	TotalCalories      float64   `json:"total_calories"`
	TotalProtein       float64   `json:"total_protein"`
	TotalCarbohydrates float64   `json:"total_carbohydrates"`
	TotalFat           float64   `json:"total_fat"`
	MealCount          int       `json:"meal_count"`
}

// RatingAggregate is the average and count of a meal's ratings.
type RatingAggregate struct {
	AverageRating float64 `json:"average_rating"`
	TotalRatings  int     `json:"total_ratings"`
}

// MealStore persists the meal catalogue.
type MealStore interface {
	Get(ctx context.Context, id uint) (*models.Meal, error)
	List(ctx context.Context, filter MealFilter, page Page) ([]models.Meal, error)
	Create(ctx context.Context, meal *models.Meal) error
	Update(ctx context.Context, meal *models.Meal) error
	Delete(ctx context.Context, id uint) error
	Search(ctx context.Context, text string, page Page) ([]models.Meal, error)
	FilterByDietary(ctx context.Context, flags models.DietaryFlags, page Page) ([]models.Meal, error)
	All(ctx context.Context) ([]models.Meal, error)
}

// UserStore persists user profiles.
type UserStore interface {
	Get(ctx context.Context, id uint) (*models.User, error)
	List(ctx context.Context, page Page) ([]models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uint) error
}

// PreferenceStore persists the one-to-one user preference.
type PreferenceStore interface {
	GetByUserID(ctx context.Context, userID uint) (*models.Preference, error)
	Create(ctx context.Context, pref *models.Preference) error
	Update(ctx context.Context, pref *models.Preference) error
	CreateOrUpdate(ctx context.Context, userID uint, pref *models.Preference) (*models.Preference, error)
}

// ConsumptionStore persists logged meals.
type ConsumptionStore interface {
	Create(ctx context.Context, entry *models.UserMeal) error
	ListByUser(ctx context.Context, userID uint, date *time.Time, page Page) ([]models.UserMeal, error)
	GetByUserAndDate(ctx context.Context, userID uint, date time.Time) ([]models.UserMeal, error)
	DailyAggregate(ctx context.Context, userID uint, date time.Time) (DailyAggregate, error)
}

// RatingStore persists ratings and keeps each meal's aggregate in step.
type RatingStore interface {
	Upsert(ctx context.Context, userID, mealID uint, value float64, review string) (*models.MealRating, error)
	Get(ctx context.Context, mealID, userID uint) (*models.MealRating, error)
	ListByMeal(ctx context.Context, mealID uint, page Page) ([]models.MealRating, error)
	AggregateForMeal(ctx context.Context, mealID uint) (RatingAggregate, error)
	Delete(ctx context.Context, userID, mealID uint) error
	All(ctx context.Context) ([]models.MealRating, error)
}

// SavedMealStore persists bookmarks.
type SavedMealStore interface {
	Save(ctx context.Context, userID, mealID uint, note *string) (*models.SavedMeal, error)
	Delete(ctx context.Context, userID, mealID uint) error
	ListByUser(ctx context.Context, userID uint, page Page) ([]models.SavedMeal, error)
	Exists(ctx context.Context, userID, mealID uint) (bool, error)
}

// Stores bundles the gorm-backed stores sharing one connection.
type Stores struct {
	Meals       *Meals
	Users       *Users
	Preferences *Preferences
	Consumption *Consumption
	Ratings     *Ratings
	Saved       *SavedMeals
}

// New builds every store on db.
func New(db *gorm.DB) *Stores {
	return &Stores{
		Meals:       &Meals{db: db},
		Users:       &Users{db: db},
		Preferences: &Preferences{db: db},
		Consumption: &Consumption{db: db},
		Ratings:     &Ratings{db: db},
		Saved:       &SavedMeals{db: db},
	}
}

func notFound(err error, entity string, key any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(entity, key)
	}
	return err
}
