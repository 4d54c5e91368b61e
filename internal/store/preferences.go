package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"nutriplan/internal/apperr"
	"nutriplan/models"
)

var _ PreferenceStore = (*Preferences)(nil)

// Preferences is the gorm PreferenceStore.
type Preferences struct {
	db *gorm.DB
}

func (s *Preferences) GetByUserID(ctx context.Context, userID uint) (*models.Preference, error) {
	var pref models.Preference
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&pref).Error; err != nil {
		return nil, notFound(err, "preference", userID)
	}
	return &pref, nil
}

func (s *Preferences) Create(ctx context.Context, pref *models.Preference) error {
	if err := s.db.WithContext(ctx).Create(pref).Error; err != nil {
		return fmt.Errorf("create preference: %w", err)
	}
	return nil
}

func (s *Preferences) Update(ctx context.Context, pref *models.Preference) error {
	if err := s.db.WithContext(ctx).Save(pref).Error; err != nil {
		return fmt.Errorf("update preference: %w", err)
	}
	return nil
}

// CreateOrUpdate stores pref as the preference of userID, replacing the
// existing row's values when there is one.
func (s *Preferences) CreateOrUpdate(ctx context.Context, userID uint, pref *models.Preference) (*models.Preference, error) {
	var out *models.Preference
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txStore := &Preferences{db: tx}
		existing, err := txStore.GetByUserID(ctx, userID)
		switch {
		case err == nil:
			pref.ID = existing.ID
			pref.CreatedAt = existing.CreatedAt
		case apperr.IsNotFound(err):
			pref.ID = 0
		default:
			return err
		}
		pref.UserID = userID
		if err := tx.Save(pref).Error; err != nil {
			return fmt.Errorf("save preference: %w", err)
		}
		out = pref
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
