package models

import "gorm.io/gorm"

// SavedMeal bookmarks a meal for a user.
type SavedMeal struct {
	gorm.Model
	UserID uint   `gorm:"not null;uniqueIndex:idx_saved_meals_user_meal" json:"user_id"`
	MealID uint   `gorm:"not null;uniqueIndex:idx_saved_meals_user_meal" json:"meal_id"`
	Meal   *Meal  `gorm:"foreignKey:MealID" json:"meal,omitempty"`
	Note   string `gorm:"type:varchar(500)" json:"note"`
}

// All returns every model managed by AutoMigrate, in dependency order.
func All() []any {
	return []any{
		&User{},
		&Preference{},
		&Meal{},
		&UserMeal{},
		&MealRating{},
		&SavedMeal{},
	}
}
