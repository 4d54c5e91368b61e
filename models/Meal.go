package models

import (
	"strings"

	"gorm.io/gorm"
)

// Meal holds per-serving nutrition facts for a dish. Meals seeded by the
// system have no creator; CreatedByUserID only records provenance.
type Meal struct {
	gorm.Model
	Name        string `gorm:"not null;index" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Category    string `gorm:"type:varchar(100);index" json:"category"`
	ServingSize string `gorm:"type:varchar(100)" json:"serving_size"`

	Calories      float64 `gorm:"not null" json:"calories"`
	Protein       float64 `gorm:"not null" json:"protein"`
	Carbohydrates float64 `gorm:"not null" json:"carbohydrates"`
	Fat           float64 `gorm:"not null" json:"fat"`
	Fiber         float64 `gorm:"not null;default:0" json:"fiber"`
	Sugar         float64 `gorm:"not null;default:0" json:"sugar"`
	Sodium        float64 `gorm:"not null;default:0" json:"sodium"`

	IsVegetarian bool `gorm:"not null;default:false" json:"is_vegetarian"`
	IsVegan      bool `gorm:"not null;default:false" json:"is_vegan"`
	IsGlutenFree bool `gorm:"not null;default:false" json:"is_gluten_free"`
	IsDairyFree  bool `gorm:"not null;default:false" json:"is_dairy_free"`
	IsNutFree    bool `gorm:"not null;default:false" json:"is_nut_free"`
	IsHalal      bool `gorm:"not null;default:false" json:"is_halal"`
	IsKosher     bool `gorm:"not null;default:false" json:"is_kosher"`

	Ingredients string `gorm:"type:text" json:"ingredients"`

	AverageRating float64 `gorm:"not null;default:0" json:"average_rating"`
	RatingCount   int     `gorm:"not null;default:0" json:"rating_count"`

	CreatedByUserID *uint `gorm:"index" json:"created_by_user_id,omitempty"`
}

// Flags returns the dietary flags the meal satisfies.
func (m *Meal) Flags() DietaryFlags {
	return DietaryFlags{
		Vegetarian: m.IsVegetarian,
		Vegan:      m.IsVegan,
		GlutenFree: m.IsGlutenFree,
		DairyFree:  m.IsDairyFree,
		NutFree:    m.IsNutFree,
		Halal:      m.IsHalal,
		Kosher:     m.IsKosher,
	}
}

// IngredientList splits the comma separated ingredient text into trimmed,
// lowercased entries, dropping blanks.
func (m *Meal) IngredientList() []string {
	return SplitList(m.Ingredients)
}

// DietaryFlags mirrors the seven dietary attributes shared by meals and preferences.
type DietaryFlags struct {
	Vegetarian bool `json:"vegetarian"`
	Vegan      bool `json:"vegan"`
	GlutenFree bool `json:"gluten_free"`
	DairyFree  bool `json:"dairy_free"`
	NutFree    bool `json:"nut_free"`
	Halal      bool `json:"halal"`
	Kosher     bool `json:"kosher"`
}

// Satisfies reports whether f covers every flag set in required.
func (f DietaryFlags) Satisfies(required DietaryFlags) bool {
	return len(f.Missing(required)) == 0
}

// Missing lists the required flags f does not cover.
func (f DietaryFlags) Missing(required DietaryFlags) []string {
	var missing []string
	check := func(name string, need, have bool) {
		if need && !have {
			missing = append(missing, name)
		}
	}
	check("vegetarian", required.Vegetarian, f.Vegetarian)
	check("vegan", required.Vegan, f.Vegan)
	check("gluten_free", required.GlutenFree, f.GlutenFree)
	check("dairy_free", required.DairyFree, f.DairyFree)
	check("nut_free", required.NutFree, f.NutFree)
	check("halal", required.Halal, f.Halal)
	check("kosher", required.Kosher, f.Kosher)
	return missing
}

// Any reports whether at least one flag is set.
func (f DietaryFlags) Any() bool {
	return f.Vegetarian || f.Vegan || f.GlutenFree || f.DairyFree || f.NutFree || f.Halal || f.Kosher
}

// SplitList splits comma separated free text into trimmed, lowercased values.
func SplitList(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	parts := strings.Split(text, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
