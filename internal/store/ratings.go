package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"nutriplan/models"
)

var _ RatingStore = (*Ratings)(nil)

const refreshAggregateSQL = `UPDATE meals SET
	average_rating = COALESCE((SELECT AVG(rating) FROM meal_ratings WHERE meal_id = ? AND deleted_at IS NULL), 0),
	rating_count = (SELECT COUNT(*) FROM meal_ratings WHERE meal_id = ? AND deleted_at IS NULL)
	WHERE id = ?`

// Ratings is the gorm RatingStore. Writes and the meal aggregate refresh
// share one transaction, so concurrent raters never lose an update.
type Ratings struct {
	db *gorm.DB
}

// Upsert creates or overwrites the rating of userID for mealID.
func (s *Ratings) Upsert(ctx context.Context, userID, mealID uint, value float64, review string) (*models.MealRating, error) {
	var out models.MealRating
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&models.Meal{}, mealID).Error; err != nil {
			return notFound(err, "meal", mealID)
		}

		rating := models.MealRating{UserID: userID, MealID: mealID, Rating: value, Review: review}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "meal_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"rating", "review", "updated_at"}),
		}).Create(&rating).Error
		if err != nil {
			return fmt.Errorf("upsert rating: %w", err)
		}

		if err := refreshAggregate(tx, mealID); err != nil {
			return err
		}
		return tx.Where("user_id = ? AND meal_id = ?", userID, mealID).First(&out).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Ratings) Get(ctx context.Context, mealID, userID uint) (*models.MealRating, error) {
	var rating models.MealRating
	err := s.db.WithContext(ctx).Where("user_id = ? AND meal_id = ?", userID, mealID).First(&rating).Error
	if err != nil {
		return nil, notFound(err, "rating", fmt.Sprintf("user %d meal %d", userID, mealID))
	}
	return &rating, nil
}

func (s *Ratings) ListByMeal(ctx context.Context, mealID uint, page Page) ([]models.MealRating, error) {
	var ratings []models.MealRating
	err := page.apply(s.db.WithContext(ctx).Where("meal_id = ?", mealID).Order("id")).Find(&ratings).Error
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	return ratings, nil
}

// AggregateForMeal computes the live average and count for mealID.
func (s *Ratings) AggregateForMeal(ctx context.Context, mealID uint) (RatingAggregate, error) {
	var row struct {
		AverageRating float64
		TotalRatings  int
	}
	err := s.db.WithContext(ctx).
		Model(&models.MealRating{}).
		Select("COALESCE(AVG(rating), 0) AS average_rating, COUNT(id) AS total_ratings").
		Where("meal_id = ?", mealID).
		Scan(&row).Error
	if err != nil {
		return RatingAggregate{}, fmt.Errorf("aggregate ratings: %w", err)
	}
	return RatingAggregate{AverageRating: row.AverageRating, TotalRatings: row.TotalRatings}, nil
}

// Delete removes the rating row outright so the pair can be rated again.
func (s *Ratings) Delete(ctx context.Context, userID, mealID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Unscoped().Where("user_id = ? AND meal_id = ?", userID, mealID).Delete(&models.MealRating{})
		if res.Error != nil {
			return fmt.Errorf("delete rating: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return notFound(gorm.ErrRecordNotFound, "rating", fmt.Sprintf("user %d meal %d", userID, mealID))
		}
		return refreshAggregate(tx, mealID)
	})
}

// All returns every rating, the training input of the collaborative model.
func (s *Ratings) All(ctx context.Context) ([]models.MealRating, error) {
	var ratings []models.MealRating
	if err := s.db.WithContext(ctx).Order("id").Find(&ratings).Error; err != nil {
		return nil, fmt.Errorf("load ratings: %w", err)
	}
	return ratings, nil
}

func refreshAggregate(tx *gorm.DB, mealID uint) error {
	if err := tx.Exec(refreshAggregateSQL, mealID, mealID, mealID).Error; err != nil {
		return fmt.Errorf("refresh rating aggregate: %w", err)
	}
	return nil
}
