package collab

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

// SnapshotName is the key the model is persisted under.
const SnapshotName = "collaborative_filtering"

const (
	metricsModel      = "collaborative"
	missingRetryAfter = time.Minute
)

// RatingSource supplies training data.
type RatingSource interface {
	All(ctx context.Context) ([]models.MealRating, error)
}

// Status describes the loaded model.
type Status struct {
	Stats
	Available bool `json:"available"`
}

// Service owns a model and its persisted snapshot. The first caller of
// EnsureLoaded loads the snapshot; concurrent callers wait for it.
type Service struct {
	cfg       Config
	ratings   RatingSource
	snapshots snapshot.Store
	now       func() time.Time

	mu          sync.Mutex
	model       *Model
	missingTill time.Time
}

// NewService returns a service with no model loaded.
func NewService(cfg Config, ratings RatingSource, snapshots snapshot.Store) *Service {
	return &Service{
		cfg:       cfg,
		ratings:   ratings,
		snapshots: snapshots,
		now:       time.Now,
	}
}

// EnsureLoaded returns the trained model, loading it from the snapshot store
// on first use. A missing or unreadable snapshot yields
// apperr.ErrModelUnavailable and is not retried for a minute.
func (s *Service) EnsureLoaded(ctx context.Context) (*Model, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.model != nil {
		return s.model, nil
	}
	if s.now().Before(s.missingTill) {
		return nil, apperr.ErrModelUnavailable
	}

	var snap Snapshot
	if err := s.snapshots.Load(ctx, SnapshotName, &snap); err != nil {
		if errors.Is(err, snapshot.ErrNotFound) {
			s.missingTill = s.now().Add(missingRetryAfter)
			return nil, apperr.ErrModelUnavailable
		}
		s.missingTill = s.now().Add(missingRetryAfter)
		applog.Warn(ctx, "collaborative model snapshot unreadable", "err", err)
		return nil, fmt.Errorf("%w: load collaborative model: %v", apperr.ErrModelUnavailable, err)
	}

	model := NewModel(s.cfg)
	if err := model.Restore(snap); err != nil {
		s.missingTill = s.now().Add(missingRetryAfter)
		applog.Warn(ctx, "collaborative model snapshot rejected", "err", err)
		return nil, fmt.Errorf("%w: restore collaborative model: %v", apperr.ErrModelUnavailable, err)
	}
	s.model = model
	applog.Info(ctx, "collaborative model loaded", "users", len(snap.UserRatings), "meals", len(snap.MealRatings))
	return model, nil
}

// Retrain rebuilds the model from every stored rating, persists it and swaps
// it in for subsequent callers.
func (s *Service) Retrain(ctx context.Context) (stats Stats, err error) {
	start := time.Now()
	defer func() { metrics.RecordRetrain(metricsModel, time.Since(start), err) }()

	rows, err := s.ratings.All(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("load ratings: %w", err)
	}
	if len(rows) == 0 {
		return Stats{}, apperr.InsufficientData("collaborative_model", 1, 0)
	}

	interactions := make([]Interaction, 0, len(rows))
	for _, r := range rows {
		interactions = append(interactions, Interaction{UserID: r.UserID, MealID: r.MealID, Rating: r.Rating})
	}

	model := NewModel(s.cfg)
	s.mu.Lock()
	if s.model != nil {
		model.version = s.model.Stats().Version
	}
	s.mu.Unlock()
	model.Train(interactions)

	if err := s.snapshots.Save(ctx, SnapshotName, model.Snapshot()); err != nil {
		return Stats{}, fmt.Errorf("save collaborative model: %w", err)
	}

	s.mu.Lock()
	s.model = model
	s.missingTill = time.Time{}
	s.mu.Unlock()

	stats = model.Stats()
	applog.Info(ctx, "collaborative model trained",
		"users", stats.Users, "meals", stats.Meals, "ratings", stats.Ratings, "version", stats.Version)
	return stats, nil
}

// Status reports whether a model is available without training one.
func (s *Service) Status(ctx context.Context) Status {
	model, err := s.EnsureLoaded(ctx)
	if err != nil {
		return Status{}
	}
	return Status{Stats: model.Stats(), Available: true}
}
