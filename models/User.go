package models

import "gorm.io/gorm"

// User represents a person tracking meals. Daily targets stay nil until the
// health fields needed to derive them (weight, height, age, gender) are set.
type User struct {
	gorm.Model
	Email         string  `gorm:"uniqueIndex;not null" json:"email"`
	Username      string  `gorm:"uniqueIndex;not null" json:"username"`
	FirstName     string  `json:"first_name"`
	LastName      string  `json:"last_name"`
	Age           int     `json:"age"`
	Gender        string  `gorm:"type:varchar(20)" json:"gender"`
	Height        float64 `json:"height"`
	Weight        float64 `json:"weight"`
	ActivityLevel string  `gorm:"type:varchar(50)" json:"activity_level"`
	Goal          string  `gorm:"type:varchar(50)" json:"goal"`

	DailyCalorieTarget *float64 `json:"daily_calorie_target"`
	DailyProteinTarget *float64 `json:"daily_protein_target"`
	DailyCarbTarget    *float64 `json:"daily_carb_target"`
	DailyFatTarget     *float64 `json:"daily_fat_target"`

	Preference *Preference `gorm:"foreignKey:UserID" json:"preference,omitempty"`
}

// HasHealthProfile reports whether every field needed for target computation is present.
func (u *User) HasHealthProfile() bool {
	return u != nil && u.Weight > 0 && u.Height > 0 && u.Age > 0 && u.Gender != ""
}

// CalorieTarget returns the persisted calorie target or zero when unset.
func (u *User) CalorieTarget() float64 { return deref(u.DailyCalorieTarget) }

// ProteinTarget returns the persisted protein target or zero when unset.
func (u *User) ProteinTarget() float64 { return deref(u.DailyProteinTarget) }

// CarbTarget returns the persisted carbohydrate target or zero when unset.
func (u *User) CarbTarget() float64 { return deref(u.DailyCarbTarget) }

// FatTarget returns the persisted fat target or zero when unset.
func (u *User) FatTarget() float64 { return deref(u.DailyFatTarget) }

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
