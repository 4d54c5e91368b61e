package models

import "gorm.io/gorm"

// Rating bounds accepted for meal ratings.
const (
	MinRating = 1.0
	MaxRating = 5.0
)

// MealRating is a user's 1-5 star rating of a meal. Each user rates a meal at most once.
type MealRating struct {
	gorm.Model
	UserID uint    `gorm:"not null;uniqueIndex:idx_meal_ratings_user_meal" json:"user_id"`
	MealID uint    `gorm:"not null;uniqueIndex:idx_meal_ratings_user_meal;index" json:"meal_id"`
	Rating float64 `gorm:"not null" json:"rating"`
	Review string  `gorm:"type:varchar(1000)" json:"review"`
}
