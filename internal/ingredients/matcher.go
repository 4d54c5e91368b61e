// Package ingredients matches free-text ingredient lists against the meal
// catalogue with a TF-IDF model blended with community ratings.
package ingredients

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"nutriplan/internal/apperr"
	"nutriplan/models"
)

const (
	minTrainingMeals = 2
	unratedAverage   = 2.5

	similarityWeight = 0.6
	ratingWeight     = 0.3
	matchWeight      = 0.1
)

// Entry is the indexed form of one meal.
type Entry struct {
	MealID        uint     `json:"meal_id"`
	Name          string   `json:"name"`
	Category      string   `json:"category"`
	Calories      float64  `json:"calories"`
	Protein       float64  `json:"protein"`
	Ingredients   []string `json:"ingredients"`
	Document      string   `json:"document"`
	AverageRating float64  `json:"average_rating"`
	RatingCount   int      `json:"rating_count"`

	vector Vector
}

// Match is one search hit.
type Match struct {
	Entry            Entry   `json:"-"`
	Similarity       float64 `json:"similarity"`
	MatchedCount     int     `json:"matched_ingredients"`
	TotalIngredients int     `json:"total_ingredients"`
	Score            float64 `json:"score"`
}

// Matcher is a fitted ingredient index. The zero value is untrained.
type Matcher struct {
	vectorizer *Vectorizer
	entries    []Entry
	trainedAt  time.Time
}

// Train indexes every meal with ingredient text. At least two such meals are
// required.
func Train(meals []models.Meal) (*Matcher, error) {
	entries := make([]Entry, 0, len(meals))
	docs := make([]string, 0, len(meals))
	for i := range meals {
		meal := &meals[i]
		if strings.TrimSpace(meal.Ingredients) == "" {
			continue
		}
		list := meal.IngredientList()
		avg := meal.AverageRating
		if avg <= 0 {
			avg = unratedAverage
		}
		doc := strings.Join(list, " ")
		entries = append(entries, Entry{
			MealID:        meal.ID,
			Name:          meal.Name,
			Category:      meal.Category,
			Calories:      meal.Calories,
			Protein:       meal.Protein,
			Ingredients:   list,
			Document:      doc,
			AverageRating: avg,
			RatingCount:   meal.RatingCount,
		})
		docs = append(docs, doc)
	}
	if len(entries) < minTrainingMeals {
		return nil, apperr.InsufficientData("ingredient_matcher", minTrainingMeals, len(entries))
	}

	v := NewVectorizer(defaultMaxFeatures)
	v.Fit(docs)
	for i := range entries {
		entries[i].vector = v.Transform(entries[i].Document)
	}
	return &Matcher{vectorizer: v, entries: entries, trainedAt: time.Now().UTC()}, nil
}

// RecipesCount returns the number of indexed meals.
func (m *Matcher) RecipesCount() int {
	return len(m.entries)
}

// VocabularySize returns the number of features of the fitted vectorizer.
func (m *Matcher) VocabularySize() int {
	if m.vectorizer == nil {
		return 0
	}
	return len(m.vectorizer.Vocabulary)
}

// Search ranks indexed meals against the query ingredients. Meals matching
// fewer than minMatch query ingredients by substring are skipped.
func (m *Matcher) Search(query []string, limit, minMatch int) []Match {
	normalized := make([]string, 0, len(query))
	for _, q := range query {
		if q = strings.ToLower(strings.TrimSpace(q)); q != "" {
			normalized = append(normalized, q)
		}
	}
	if len(normalized) == 0 || m.vectorizer == nil {
		return []Match{}
	}

	qv := m.vectorizer.Transform(strings.Join(normalized, " "))
	out := make([]Match, 0, len(m.entries))
	for _, e := range m.entries {
		matched := 0
		for _, q := range normalized {
			if containsIngredient(e.Ingredients, q) {
				matched++
			}
		}
		if matched < minMatch {
			continue
		}
		sim := Cosine(qv, e.vector)
		ratingScore := (e.AverageRating - 1) / 4
		matchBoost := min(float64(matched)/float64(len(normalized)), 1)
		out = append(out, Match{
			Entry:            e,
			Similarity:       sim,
			MatchedCount:     matched,
			TotalIngredients: len(e.Ingredients),
			Score:            sim*similarityWeight + ratingScore*ratingWeight + matchBoost*matchWeight,
		})
	}

	slices.SortStableFunc(out, func(a, b Match) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func containsIngredient(stored []string, q string) bool {
	for _, s := range stored {
		if strings.Contains(s, q) {
			return true
		}
	}
	return false
}

// SnapshotVersion identifies the layout of Snapshot.
const SnapshotVersion = 1

// Snapshot is the persisted matcher. Entry vectors are rebuilt from their
// documents on restore.
type Snapshot struct {
	Version    int         `json:"version"`
	Vectorizer *Vectorizer `json:"vectorizer"`
	Entries    []Entry     `json:"entries"`
	TrainedAt  time.Time   `json:"trained_at"`
}

// Snapshot returns the persistable state of m.
func (m *Matcher) Snapshot() Snapshot {
	return Snapshot{
		Version:    SnapshotVersion,
		Vectorizer: m.vectorizer,
		Entries:    m.entries,
		TrainedAt:  m.trainedAt,
	}
}

// Restore rebuilds a matcher from a snapshot.
func Restore(s Snapshot) (*Matcher, error) {
	if s.Version != SnapshotVersion {
		return nil, fmt.Errorf("unsupported ingredient snapshot version %d", s.Version)
	}
	if s.Vectorizer == nil || len(s.Vectorizer.IDF) != len(s.Vectorizer.Vocabulary) {
		return nil, fmt.Errorf("ingredient snapshot has an invalid vectorizer")
	}
	entries := make([]Entry, len(s.Entries))
	copy(entries, s.Entries)
	for i := range entries {
		entries[i].vector = s.Vectorizer.Transform(entries[i].Document)
	}
	return &Matcher{vectorizer: s.Vectorizer, entries: entries, trainedAt: s.TrainedAt}, nil
}
