// Package collab implements user-based collaborative filtering over explicit
// meal ratings, with an average-times-log-count popularity fallback.
//
// For a user u and an unrated meal m:
//
//	predict(u, m) = sum_{v in N(u)} sim(u, v) * r(v, m) / sum_{v in N(u)} |sim(u, v)|
//
// where N(u) are the K most similar users. Similarity takes the dot product
// over co-rated meals and divides by the magnitudes of each user's full
// rating vector.
package collab

import (
	"cmp"
	"math"
	"slices"
	"sync"
	"time"
)

const (
	DefaultK             = 20
	DefaultMaxCandidates = 5000
	// NeutralRating is predicted when there is no signal at all.
	NeutralRating = 3.0

	minRating = 1.0
	maxRating = 5.0
)

// Config tunes the model.
type Config struct {
	// K is the number of neighbours used per prediction.
	K int
	// MaxCandidates caps how many candidate meals Recommend scores.
	MaxCandidates int
}

// DefaultConfig returns the standard settings.
func DefaultConfig() Config {
	return Config{K: DefaultK, MaxCandidates: DefaultMaxCandidates}
}

// Interaction is one observed rating.
type Interaction struct {
	UserID uint
	MealID uint
	Rating float64
}

// Prediction is a scored meal.
type Prediction struct {
	MealID uint    `json:"meal_id"`
	Score  float64 `json:"score"`
}

// Stats summarises a trained model.
type Stats struct {
	Trained   bool      `json:"trained"`
	Version   int       `json:"version"`
	Users     int       `json:"users"`
	Meals     int       `json:"meals"`
	Ratings   int       `json:"ratings"`
	TrainedAt time.Time `json:"trained_at"`
}

type neighbor struct {
	userID     uint
	similarity float64
}

// Model holds sparse rating maps in both orientations.
type Model struct {
	cfg Config

	mu          sync.RWMutex
	userRatings map[uint]map[uint]float64
	mealRatings map[uint]map[uint]float64
	popularity  map[uint]float64
	trained     bool
	version     int
	trainedAt   time.Time
}

// NewModel returns an untrained model.
func NewModel(cfg Config) *Model {
	if cfg.K <= 0 {
		cfg.K = DefaultK
	}
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = DefaultMaxCandidates
	}
	return &Model{
		cfg:         cfg,
		userRatings: make(map[uint]map[uint]float64),
		mealRatings: make(map[uint]map[uint]float64),
		popularity:  make(map[uint]float64),
	}
}

// Train replaces the model state with interactions. A later interaction for
// the same user and meal overwrites an earlier one.
func (m *Model) Train(interactions []Interaction) {
	users := make(map[uint]map[uint]float64)
	meals := make(map[uint]map[uint]float64)
	for _, in := range interactions {
		if users[in.UserID] == nil {
			users[in.UserID] = make(map[uint]float64)
		}
		if meals[in.MealID] == nil {
			meals[in.MealID] = make(map[uint]float64)
		}
		users[in.UserID][in.MealID] = in.Rating
		meals[in.MealID][in.UserID] = in.Rating
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.userRatings = users
	m.mealRatings = meals
	m.popularity = popularityScores(meals)
	m.trained = true
	m.version++
	m.trainedAt = time.Now().UTC()
}

func popularityScores(meals map[uint]map[uint]float64) map[uint]float64 {
	out := make(map[uint]float64, len(meals))
	for mealID, ratings := range meals {
		if len(ratings) == 0 {
			continue
		}
		var sum float64
		for _, r := range ratings {
			sum += r
		}
		avg := sum / float64(len(ratings))
		out[mealID] = avg * math.Log(float64(len(ratings))+1)
	}
	return out
}

// IsTrained reports whether Train or Restore has run.
func (m *Model) IsTrained() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.trained
}

// Stats reports the size and version of the model.
func (m *Model) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ratings := 0
	for _, r := range m.userRatings {
		ratings += len(r)
	}
	return Stats{
		Trained:   m.trained,
		Version:   m.version,
		Users:     len(m.userRatings),
		Meals:     len(m.mealRatings),
		Ratings:   ratings,
		TrainedAt: m.trainedAt,
	}
}

// Similarity returns the similarity of two users, or 0 when they share no
// rated meal or either has a zero vector.
func (m *Model) Similarity(a, b uint) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return similarity(m.userRatings[a], m.userRatings[b])
}

func similarity(a, b map[uint]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	var dot float64
	overlap := false
	for mealID, ra := range small {
		if rb, ok := large[mealID]; ok {
			dot += ra * rb
			overlap = true
		}
	}
	if !overlap {
		return 0
	}
	magA, magB := magnitude(a), magnitude(b)
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (magA * magB)
}

func magnitude(v map[uint]float64) float64 {
	var sum float64
	for _, r := range v {
		sum += r * r
	}
	return math.Sqrt(sum)
}

// neighbors scans every other user and keeps the K most similar with
// positive similarity. Must be called with the read lock held.
func (m *Model) neighbors(userID uint) []neighbor {
	own, ok := m.userRatings[userID]
	if !ok {
		return nil
	}
	var out []neighbor
	for otherID, other := range m.userRatings {
		if otherID == userID {
			continue
		}
		if sim := similarity(own, other); sim > 0 {
			out = append(out, neighbor{userID: otherID, similarity: sim})
		}
	}
	slices.SortFunc(out, func(x, y neighbor) int {
		if c := cmp.Compare(y.similarity, x.similarity); c != 0 {
			return c
		}
		return cmp.Compare(x.userID, y.userID)
	})
	if len(out) > m.cfg.K {
		out = out[:m.cfg.K]
	}
	return out
}

// Predict estimates how userID would rate mealID, always within [1, 5]. A
// rating the user already gave is returned as is.
func (m *Model) Predict(userID, mealID uint) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.userRatings[userID][mealID]; ok {
		return r
	}
	return m.predictWith(m.neighbors(userID), mealID)
}

func (m *Model) predictWith(neighbors []neighbor, mealID uint) float64 {
	var weighted, total float64
	for _, n := range neighbors {
		if r, ok := m.userRatings[n.userID][mealID]; ok {
			weighted += r * n.similarity
			total += math.Abs(n.similarity)
		}
	}
	if total > 0 {
		return clamp(weighted / total)
	}
	return clamp(m.popularityOf(mealID))
}

func (m *Model) popularityOf(mealID uint) float64 {
	if p, ok := m.popularity[mealID]; ok {
		return p
	}
	return NeutralRating
}

// Recommend predicts ratings for the candidates the user has not rated and
// returns the best limit of them. When every candidate is already rated the
// candidates are ranked by popularity instead.
func (m *Model) Recommend(userID uint, candidates []uint, limit int) []Prediction {
	if len(candidates) > m.cfg.MaxCandidates {
		candidates = candidates[:m.cfg.MaxCandidates]
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	rated := m.userRatings[userID]
	unrated := make([]uint, 0, len(candidates))
	for _, id := range candidates {
		if _, ok := rated[id]; !ok {
			unrated = append(unrated, id)
		}
	}

	var out []Prediction
	if len(unrated) == 0 {
		out = make([]Prediction, 0, len(candidates))
		for _, id := range candidates {
			out = append(out, Prediction{MealID: id, Score: m.popularityOf(id)})
		}
	} else {
		nb := m.neighbors(userID)
		out = make([]Prediction, 0, len(unrated))
		for _, id := range unrated {
			out = append(out, Prediction{MealID: id, Score: m.predictWith(nb, id)})
		}
	}

	sortPredictions(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Popular ranks every rated meal by popularity.
func (m *Model) Popular(limit int) []Prediction {
	m.mu.RLock()
	out := make([]Prediction, 0, len(m.popularity))
	for id, p := range m.popularity {
		out = append(out, Prediction{MealID: id, Score: p})
	}
	m.mu.RUnlock()

	sortPredictions(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func sortPredictions(p []Prediction) {
	slices.SortFunc(p, func(x, y Prediction) int {
		if c := cmp.Compare(y.Score, x.Score); c != 0 {
			return c
		}
		return cmp.Compare(x.MealID, y.MealID)
	})
}

func clamp(v float64) float64 {
	return math.Max(minRating, math.Min(maxRating, v))
}
