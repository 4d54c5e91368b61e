package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"nutriplan/models"
)

var _ SavedMealStore = (*SavedMeals)(nil)

// SavedMeals is the gorm SavedMealStore.
type SavedMeals struct {
	db *gorm.DB
}

// Save bookmarks mealID for userID. Saving twice keeps one row; a non-nil
// note replaces the stored one.
func (s *SavedMeals) Save(ctx context.Context, userID, mealID uint, note *string) (*models.SavedMeal, error) {
	var out models.SavedMeal
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&models.Meal{}, mealID).Error; err != nil {
			return notFound(err, "meal", mealID)
		}

		err := tx.Where("user_id = ? AND meal_id = ?", userID, mealID).First(&out).Error
		switch {
		case err == nil:
			if note == nil {
				return nil
			}
			out.Note = *note
			return tx.Save(&out).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			out = models.SavedMeal{UserID: userID, MealID: mealID}
			if note != nil {
				out.Note = *note
			}
			return tx.Create(&out).Error
		default:
			return err
		}
	})
	if err != nil {
		return nil, fmt.Errorf("save meal: %w", err)
	}
	return &out, nil
}

func (s *SavedMeals) Delete(ctx context.Context, userID, mealID uint) error {
	res := s.db.WithContext(ctx).Unscoped().Where("user_id = ? AND meal_id = ?", userID, mealID).Delete(&models.SavedMeal{})
	if res.Error != nil {
		return fmt.Errorf("unsave meal: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "saved meal", fmt.Sprintf("user %d meal %d", userID, mealID))
	}
	return nil
}

func (s *SavedMeals) ListByUser(ctx context.Context, userID uint, page Page) ([]models.SavedMeal, error) {
	var saved []models.SavedMeal
	err := page.apply(s.db.WithContext(ctx).Preload("Meal").Where("user_id = ?", userID).Order("id")).Find(&saved).Error
	if err != nil {
		return nil, fmt.Errorf("list saved meals: %w", err)
	}
	return saved, nil
}

func (s *SavedMeals) Exists(ctx context.Context, userID, mealID uint) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.SavedMeal{}).Where("user_id = ? AND meal_id = ?", userID, mealID).Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("check saved meal: %w", err)
	}
	return n > 0, nil
}
