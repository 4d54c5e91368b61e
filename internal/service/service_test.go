package service

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"nutriplan/internal/db/mock"
	"nutriplan/internal/store"
	"nutriplan/models"
)

type recordingCache struct {
	mu    sync.Mutex
	users []uint
}

func (c *recordingCache) Invalidate(userID uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.users = append(c.users, userID)
}

func (c *recordingCache) invalidated() []uint {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]uint(nil), c.users...)
}

type recordingNotifier struct {
	mu      sync.Mutex
	ratings []uint
	meals   []uint
	err     error
}

func (n *recordingNotifier) RatingsChanged(_ context.Context, mealID uint) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ratings = append(n.ratings, mealID)
	return n.err
}

func (n *recordingNotifier) MealsChanged(_ context.Context, mealID uint) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.meals = append(n.meals, mealID)
	return n.err
}

var errBroker = errors.New("broker down")

func emptyStores(t *testing.T) *store.Stores {
	t.Helper()
	database, err := mock.Open(context.Background())
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	return store.New(database)
}

func seededStores(t *testing.T) *store.Stores {
	t.Helper()
	database, err := mock.New(context.Background())
	if err != nil {
		t.Fatalf("open seeded database: %v", err)
	}
	return store.New(database)
}

func mustCreateUser(t *testing.T, s *store.Stores, u models.User) *models.User {
	t.Helper()
	if err := s.Users.Create(context.Background(), &u); err != nil {
		t.Fatalf("create user %q: %v", u.Username, err)
	}
	return &u
}

func mustCreateMeal(t *testing.T, s *store.Stores, m models.Meal) *models.Meal {
	t.Helper()
	if err := s.Meals.Create(context.Background(), &m); err != nil {
		t.Fatalf("create meal %q: %v", m.Name, err)
	}
	return &m
}

func approx(got, want float64) bool {
	return math.Abs(got-want) < 0.011
}

func ptr[T any](v T) *T { return &v }
