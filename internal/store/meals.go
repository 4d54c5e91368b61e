package store

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"nutriplan/models"
)

var _ MealStore = (*Meals)(nil)

// Meals is the gorm MealStore.
type Meals struct {
	db *gorm.DB
}

func (s *Meals) Get(ctx context.Context, id uint) (*models.Meal, error) {
	var meal models.Meal
	if err := s.db.WithContext(ctx).First(&meal, id).Error; err != nil {
		return nil, notFound(err, "meal", id)
	}
	return &meal, nil
}

// FindByName returns the first meal whose name matches case-insensitively.
func (s *Meals) FindByName(ctx context.Context, name string) (*models.Meal, error) {
	var meal models.Meal
	err := s.db.WithContext(ctx).
		Where("lower(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		First(&meal).Error
	if err != nil {
		return nil, notFound(err, "meal", name)
	}
	return &meal, nil
}

func (s *Meals) List(ctx context.Context, filter MealFilter, page Page) ([]models.Meal, error) {
	q := applyFlags(s.db.WithContext(ctx).Model(&models.Meal{}), filter.Flags)
	if category := strings.TrimSpace(filter.Category); category != "" {
		q = q.Where("lower(category) = ?", strings.ToLower(category))
	}

	var meals []models.Meal
	if err := page.apply(q.Order("id")).Find(&meals).Error; err != nil {
		return nil, fmt.Errorf("list meals: %w", err)
	}
	return meals, nil
}

func (s *Meals) Create(ctx context.Context, meal *models.Meal) error {
	if err := s.db.WithContext(ctx).Create(meal).Error; err != nil {
		return fmt.Errorf("create meal: %w", err)
	}
	return nil
}

// Update writes every editable column of meal. The rating aggregate is owned
// by the rating store and is never overwritten here.
func (s *Meals) Update(ctx context.Context, meal *models.Meal) error {
	res := s.db.WithContext(ctx).
		Model(meal).
		Select("*").
		Omit("id", "created_at", "deleted_at", "average_rating", "rating_count").
		Updates(meal)
	if res.Error != nil {
		return fmt.Errorf("update meal: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "meal", meal.ID)
	}
	return nil
}

func (s *Meals) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Meal{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete meal: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "meal", id)
	}
	return nil
}

// Search matches text against name and description, case-insensitively.
func (s *Meals) Search(ctx context.Context, text string, page Page) ([]models.Meal, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(text)) + "%"
	var meals []models.Meal
	err := page.apply(s.db.WithContext(ctx).
		Where("lower(name) LIKE ? OR lower(description) LIKE ?", pattern, pattern).
		Order("id")).
		Find(&meals).Error
	if err != nil {
		return nil, fmt.Errorf("search meals: %w", err)
	}
	return meals, nil
}

func (s *Meals) FilterByDietary(ctx context.Context, flags models.DietaryFlags, page Page) ([]models.Meal, error) {
	return s.List(ctx, MealFilter{Flags: flags}, page)
}

// All returns the whole catalogue ordered by id.
func (s *Meals) All(ctx context.Context) ([]models.Meal, error) {
	var meals []models.Meal
	if err := s.db.WithContext(ctx).Order("id").Find(&meals).Error; err != nil {
		return nil, fmt.Errorf("load meals: %w", err)
	}
	return meals, nil
}

func (s *Meals) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Meal{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count meals: %w", err)
	}
	return n, nil
}

func applyFlags(q *gorm.DB, flags models.DietaryFlags) *gorm.DB {
	columns := []struct {
		on     bool
		column string
	}{
		{flags.Vegetarian, "is_vegetarian"},
		{flags.Vegan, "is_vegan"},
		{flags.GlutenFree, "is_gluten_free"},
		{flags.DairyFree, "is_dairy_free"},
		{flags.NutFree, "is_nut_free"},
		{flags.Halal, "is_halal"},
		{flags.Kosher, "is_kosher"},
	}
	for _, c := range columns {
		if c.on {
			q = q.Where(c.column+" = ?", true)
		}
	}
	return q
}
