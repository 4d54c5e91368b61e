package models

import (
	"time"

	"gorm.io/gorm"
)

// UserMeal records a consumed meal. Totals are frozen at creation time and do
// not follow later edits to the meal's base nutrition.
type UserMeal struct {
	gorm.Model
	UserID   uint      `gorm:"not null;index" json:"user_id"`
	MealID   uint      `gorm:"not null;index" json:"meal_id"`
	Meal     *Meal     `gorm:"foreignKey:MealID" json:"meal,omitempty"`
	Date     time.Time `gorm:"not null;index" json:"date"`
	MealType string    `gorm:"type:varchar(50)" json:"meal_type"`
	Servings float64   `gorm:"not null;default:1" json:"servings"`

	TotalCalories      float64 `json:"total_calories"`
	TotalProtein       float64 `json:"total_protein"`
	TotalCarbohydrates float64 `json:"total_carbohydrates"`
	TotalFat           float64 `json:"total_fat"`
}

// DayStart truncates t to midnight UTC, the canonical form of UserMeal.Date.
func DayStart(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
