package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"nutriplan/internal/apperr"
	"nutriplan/models"
)

var _ UserStore = (*Users)(nil)

// Users is the gorm UserStore.
type Users struct {
	db *gorm.DB
}

func (s *Users) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err, "user", id)
	}
	return &user, nil
}

func (s *Users) List(ctx context.Context, page Page) ([]models.User, error) {
	var users []models.User
	if err := page.apply(s.db.WithContext(ctx).Order("id")).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *Users) Create(ctx context.Context, user *models.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return duplicate(err, "create user")
	}
	return nil
}

func (s *Users) Update(ctx context.Context, user *models.User) error {
	if user.ID == 0 {
		return notFound(gorm.ErrRecordNotFound, "user", user.ID)
	}
	if err := s.db.WithContext(ctx).Omit("Preference").Save(user).Error; err != nil {
		return duplicate(err, "update user")
	}
	return nil
}

func (s *Users) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.User{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "user", id)
	}
	return nil
}

// duplicate reports a unique index violation on email or username as a
// validation failure.
func duplicate(err error, op string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Validation("email", "email or username is already registered")
	}
	return fmt.Errorf("%s: %w", op, err)
}
