package collab

import (
	"fmt"
	"time"
)

// SnapshotVersion identifies the layout of Snapshot.
const SnapshotVersion = 1

// Snapshot is the persisted state of a trained model.
type Snapshot struct {
	Version     int                       `json:"version"`
	ModelRev    int                       `json:"model_rev"`
	UserRatings map[uint]map[uint]float64 `json:"user_ratings"`
	MealRatings map[uint]map[uint]float64 `json:"meal_ratings"`
	Popularity  map[uint]float64          `json:"popularity"`
	TrainedAt   time.Time                 `json:"trained_at"`
}

// Snapshot copies the model state.
func (m *Model) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		Version:     SnapshotVersion,
		ModelRev:    m.version,
		UserRatings: copyNested(m.userRatings),
		MealRatings: copyNested(m.mealRatings),
		Popularity:  copyFlat(m.popularity),
		TrainedAt:   m.trainedAt,
	}
}

// Restore replaces the model state with s and marks the model trained.
func (m *Model) Restore(s Snapshot) error {
	if s.Version != SnapshotVersion {
		return fmt.Errorf("unsupported collaborative snapshot version %d", s.Version)
	}
	users := copyNested(s.UserRatings)
	meals := copyNested(s.MealRatings)
	if users == nil {
		users = make(map[uint]map[uint]float64)
	}
	if meals == nil {
		meals = make(map[uint]map[uint]float64)
	}
	popularity := copyFlat(s.Popularity)
	if popularity == nil {
		popularity = popularityScores(meals)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.userRatings = users
	m.mealRatings = meals
	m.popularity = popularity
	m.trained = true
	m.version = s.ModelRev
	m.trainedAt = s.TrainedAt
	return nil
}

func copyNested(in map[uint]map[uint]float64) map[uint]map[uint]float64 {
	if in == nil {
		return nil
	}
	out := make(map[uint]map[uint]float64, len(in))
	for k, v := range in {
		out[k] = copyFlat(v)
	}
	return out
}

func copyFlat(in map[uint]float64) map[uint]float64 {
	if in == nil {
		return nil
	}
	out := make(map[uint]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
