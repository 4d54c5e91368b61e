package ingredients

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"nutriplan/internal/apperr"
	applog "nutriplan/internal/log"
	"nutriplan/internal/metrics"
	"nutriplan/internal/snapshot"
	"nutriplan/models"
)

// SnapshotName is the key the matcher is persisted under.
const SnapshotName = "ingredient_matcher"

const (
	metricsModel      = "ingredients"
	missingRetryAfter = time.Minute
)

// MealSource supplies the catalogue to index.
type MealSource interface {
	All(ctx context.Context) ([]models.Meal, error)
}

// Status describes the loaded matcher.
type Status struct {
	Trained        bool `json:"is_trained"`
	RecipesCount   int  `json:"recipes_count"`
	VocabularySize int  `json:"vocabulary_size"`
}

// Service owns the matcher and its persisted snapshot.
type Service struct {
	meals     MealSource
	snapshots snapshot.Store
	now       func() time.Time

	mu          sync.Mutex
	matcher     *Matcher
	missingTill time.Time
}

// NewService returns a service with no matcher loaded.
func NewService(meals MealSource, snapshots snapshot.Store) *Service {
	return &Service{meals: meals, snapshots: snapshots, now: time.Now}
}

// EnsureLoaded returns the matcher, loading the snapshot on first use. A
// missing or unreadable snapshot yields apperr.ErrModelUnavailable and is not
// retried for a minute.
func (s *Service) EnsureLoaded(ctx context.Context) (*Matcher, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.matcher != nil {
		return s.matcher, nil
	}
	if s.now().Before(s.missingTill) {
		return nil, apperr.ErrModelUnavailable
	}

	var snap Snapshot
	if err := s.snapshots.Load(ctx, SnapshotName, &snap); err != nil {
		s.missingTill = s.now().Add(missingRetryAfter)
		if errors.Is(err, snapshot.ErrNotFound) {
			return nil, apperr.ErrModelUnavailable
		}
		applog.Warn(ctx, "ingredient matcher snapshot unreadable", "err", err)
		return nil, fmt.Errorf("%w: load ingredient matcher: %v", apperr.ErrModelUnavailable, err)
	}
	m, err := Restore(snap)
	if err != nil {
		s.missingTill = s.now().Add(missingRetryAfter)
		applog.Warn(ctx, "ingredient matcher snapshot rejected", "err", err)
		return nil, fmt.Errorf("%w: restore ingredient matcher: %v", apperr.ErrModelUnavailable, err)
	}
	s.matcher = m
	applog.Info(ctx, "ingredient matcher loaded", "recipes", m.RecipesCount())
	return m, nil
}

// Retrain indexes the current catalogue, persists it and swaps it in.
func (s *Service) Retrain(ctx context.Context) (status Status, err error) {
	start := time.Now()
	defer func() { metrics.RecordRetrain(metricsModel, time.Since(start), err) }()

	meals, err := s.meals.All(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("load meals: %w", err)
	}
	m, err := Train(meals)
	if err != nil {
		return Status{}, err
	}
	if err := s.snapshots.Save(ctx, SnapshotName, m.Snapshot()); err != nil {
		return Status{}, fmt.Errorf("save ingredient matcher: %w", err)
	}

	s.mu.Lock()
	s.matcher = m
	s.missingTill = time.Time{}
	s.mu.Unlock()

	status = statusOf(m)
	applog.Info(ctx, "ingredient matcher trained", "recipes", status.RecipesCount, "vocabulary", status.VocabularySize)
	return status, nil
}

// Search returns the best matches, or an empty slice when no matcher has
// been trained yet.
func (s *Service) Search(ctx context.Context, query []string, limit, minMatch int) ([]Match, error) {
	m, err := s.EnsureLoaded(ctx)
	if err != nil {
		if apperr.IsModelUnavailable(err) {
			metrics.RecordFallback(metricsModel)
			return []Match{}, nil
		}
		return nil, err
	}
	return m.Search(query, limit, minMatch), nil
}

// Status reports the loaded matcher without training one.
func (s *Service) Status(ctx context.Context) Status {
	m, err := s.EnsureLoaded(ctx)
	if err != nil {
		return Status{}
	}
	return statusOf(m)
}

func statusOf(m *Matcher) Status {
	return Status{Trained: true, RecipesCount: m.RecipesCount(), VocabularySize: m.VocabularySize()}
}
