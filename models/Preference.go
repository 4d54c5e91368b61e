package models

import "gorm.io/gorm"

// Preference stores a user's dietary restrictions and tastes. Dietary flags
// are hard filters: a meal lacking a required flag is never recommended.
type Preference struct {
	gorm.Model
	UserID uint `gorm:"uniqueIndex;not null" json:"user_id"`

	Vegetarian bool `gorm:"not null;default:false" json:"vegetarian"`
	Vegan      bool `gorm:"not null;default:false" json:"vegan"`
	GlutenFree bool `gorm:"not null;default:false" json:"gluten_free"`
	DairyFree  bool `gorm:"not null;default:false" json:"dairy_free"`
	NutFree    bool `gorm:"not null;default:false" json:"nut_free"`
	Halal      bool `gorm:"not null;default:false" json:"halal"`
	Kosher     bool `gorm:"not null;default:false" json:"kosher"`

	PreferredCuisine    string `gorm:"type:varchar(100)" json:"preferred_cuisine"`
	DislikedIngredients string `gorm:"type:varchar(500)" json:"disliked_ingredients"`
	FavoriteIngredients string `gorm:"type:varchar(500)" json:"favorite_ingredients"`

	PreferredProteinRatio *float64 `json:"preferred_protein_ratio"`
	PreferredCarbRatio    *float64 `json:"preferred_carb_ratio"`
	PreferredFatRatio     *float64 `json:"preferred_fat_ratio"`
}

// Required returns the dietary flags the user insists on. A nil preference requires nothing.
func (p *Preference) Required() DietaryFlags {
	if p == nil {
		return DietaryFlags{}
	}
	return DietaryFlags{
		Vegetarian: p.Vegetarian,
		Vegan:      p.Vegan,
		GlutenFree: p.GlutenFree,
		DairyFree:  p.DairyFree,
		NutFree:    p.NutFree,
		Halal:      p.Halal,
		Kosher:     p.Kosher,
	}
}

// Favorites returns the normalised favorite ingredient keywords.
func (p *Preference) Favorites() []string {
	if p == nil {
		return nil
	}
	return SplitList(p.FavoriteIngredients)
}

// Dislikes returns the normalised disliked ingredient keywords.
func (p *Preference) Dislikes() []string {
	if p == nil {
		return nil
	}
	return SplitList(p.DislikedIngredients)
}

// HasMacroRatios reports whether all three macro ratio overrides are set.
func (p *Preference) HasMacroRatios() bool {
	return p != nil && p.PreferredProteinRatio != nil && p.PreferredCarbRatio != nil && p.PreferredFatRatio != nil
}
