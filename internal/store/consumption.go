package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"nutriplan/models"
)

var _ ConsumptionStore = (*Consumption)(nil)

// Consumption is the gorm ConsumptionStore. Dates are stored as UTC midnight.
type Consumption struct {
	db *gorm.DB
}

func (s *Consumption) Create(ctx context.Context, entry *models.UserMeal) error {
	entry.Date = models.DayStart(entry.Date)
	if err := s.db.WithContext(ctx).Omit("Meal").Create(entry).Error; err != nil {
		return fmt.Errorf("create consumption entry: %w", err)
	}
	return nil
}

// ListByUser returns a user's entries, newest first, optionally limited to one day.
func (s *Consumption) ListByUser(ctx context.Context, userID uint, date *time.Time, page Page) ([]models.UserMeal, error) {
	q := s.db.WithContext(ctx).Preload("Meal").Where("user_id = ?", userID)
	if date != nil {
		q = q.Where("date = ?", models.DayStart(*date))
	}

	var entries []models.UserMeal
	if err := page.apply(q.Order("date DESC").Order("id DESC")).Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list consumption: %w", err)
	}
	return entries, nil
}

func (s *Consumption) GetByUserAndDate(ctx context.Context, userID uint, date time.Time) ([]models.UserMeal, error) {
	var entries []models.UserMeal
	err := s.db.WithContext(ctx).
		Preload("Meal").
		Where("user_id = ? AND date = ?", userID, models.DayStart(date)).
		Order("id").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("load consumption for day: %w", err)
	}
	return entries, nil
}

// History returns every entry of a user with its meal, oldest first.
func (s *Consumption) History(ctx context.Context, userID uint) ([]models.UserMeal, error) {
	var entries []models.UserMeal
	err := s.db.WithContext(ctx).
		Preload("Meal").
		Where("user_id = ?", userID).
		Order("date").
		Order("id").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("load consumption history: %w", err)
	}
	return entries, nil
}

func (s *Consumption) DailyAggregate(ctx context.Context, userID uint, date time.Time) (DailyAggregate, error) {
	day := models.DayStart(date)
	var row struct {
		TotalCalories      float64
		TotalProtein       float64
		TotalCarbohydrates float64
		TotalFat           float64
		MealCount          int
	}
	err := s.db.WithContext(ctx).
		Model(&models.UserMeal{}).
		Select(`COALESCE(SUM(total_calories), 0) AS total_calories,
			COALESCE(SUM(total_protein), 0) AS total_protein,
			COALESCE(SUM(total_carbohydrates), 0) AS total_carbohydrates,
			COALESCE(SUM(total_fat), 0) AS total_fat,
			COUNT(id) AS meal_count`).
		Where("user_id = ? AND date = ?", userID, day).
		Scan(&row).Error
	if err != nil {
		return DailyAggregate{}, fmt.Errorf("aggregate consumption: %w", err)
	}
	return DailyAggregate{
		Date:               day,
		TotalCalories:      row.TotalCalories,
		TotalProtein:       row.TotalProtein,
		TotalCarbohydrates: row.TotalCarbohydrates,
		TotalFat:           row.TotalFat,
		MealCount:          row.MealCount,
	}, nil
}
