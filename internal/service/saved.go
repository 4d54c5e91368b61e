package service

import (
	"context"

	"nutriplan/internal/store"
	"nutriplan/models"
)

// Saved manages meal bookmarks.
type Saved struct {
	users store.UserStore
	saved store.SavedMealStore
}

func NewSaved(users store.UserStore, saved store.SavedMealStore) *Saved {
	return &Saved{users: users, saved: saved}
}

// Save bookmarks a meal. Saving an already saved meal only updates the note
// when one is given.
func (s *Saved) Save(ctx context.Context, userID, mealID uint, note *string) (*models.SavedMeal, error) {
	if _, err := s.users.Get(ctx, userID); err != nil {
		return nil, err
	}
	return s.saved.Save(ctx, userID, mealID, note)
}

func (s *Saved) Delete(ctx context.Context, userID, mealID uint) error {
	return s.saved.Delete(ctx, userID, mealID)
}

func (s *Saved) List(ctx context.Context, userID uint, page store.Page) ([]models.SavedMeal, error) {
	if _, err := s.users.Get(ctx, userID); err != nil {
		return nil, err
	}
	return s.saved.ListByUser(ctx, userID, page)
}

// IsSaved reports whether userID has bookmarked mealID.
func (s *Saved) IsSaved(ctx context.Context, userID, mealID uint) (bool, error) {
	if _, err := s.users.Get(ctx, userID); err != nil {
		return false, err
	}
	return s.saved.Exists(ctx, userID, mealID)
}
