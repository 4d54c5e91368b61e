package collab

import (
	"math"
	"testing"
)

func trainedModel(t *testing.T, interactions []Interaction) *Model {
	t.Helper()
	m := NewModel(DefaultConfig())
	m.Train(interactions)
	return m
}

func TestSimilarity(t *testing.T) {
	t.Parallel()

	m := trainedModel(t, []Interaction{
		{UserID: 1, MealID: 10, Rating: 5},
		{UserID: 1, MealID: 11, Rating: 3},
		{UserID: 2, MealID: 10, Rating: 4},
		{UserID: 2, MealID: 12, Rating: 2},
		{UserID: 3, MealID: 13, Rating: 4},
	})

	// dot = 5*4 = 20, |u1| = sqrt(34), |u2| = sqrt(20)
	want := 20 / (math.Sqrt(34) * math.Sqrt(20))
	if got := m.Similarity(1, 2); math.Abs(got-want) > 1e-9 {
		t.Fatalf("Similarity(1, 2) = %v, want %v", got, want)
	}
	if got := m.Similarity(2, 1); math.Abs(got-want) > 1e-9 {
		t.Fatalf("similarity should be symmetric, got %v", got)
	}
	if got := m.Similarity(1, 3); got != 0 {
		t.Fatalf("no overlap should give 0, got %v", got)
	}
	if got := m.Similarity(1, 99); got != 0 {
		t.Fatalf("unknown user should give 0, got %v", got)
	}
}

func TestTrainOverwritesDuplicatePairs(t *testing.T) {
	t.Parallel()

	m := trainedModel(t, []Interaction{
		{UserID: 1, MealID: 10, Rating: 2},
		{UserID: 1, MealID: 10, Rating: 5},
	})
	if got := m.Predict(1, 10); got != 5 {
		t.Fatalf("Predict = %v, want the later rating 5", got)
	}
	if stats := m.Stats(); stats.Ratings != 1 || stats.Users != 1 || stats.Meals != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestPredict(t *testing.T) {
	t.Parallel()

	m := trainedModel(t, []Interaction{
		{UserID: 1, MealID: 10, Rating: 5},
		{UserID: 1, MealID: 11, Rating: 4},
		{UserID: 2, MealID: 10, Rating: 5},
		{UserID: 2, MealID: 11, Rating: 4},
		{UserID: 2, MealID: 12, Rating: 4},
		{UserID: 3, MealID: 10, Rating: 1},
		{UserID: 3, MealID: 12, Rating: 2},
		{UserID: 4, MealID: 13, Rating: 5},
	})

	tests := []struct {
		name   string
		user   uint
		meal   uint
		verify func(float64) bool
	}{
		{"stored rating returned verbatim", 1, 11, func(v float64) bool { return v == 4 }},
		{"weighted neighbour average", 1, 12, func(v float64) bool {
			s2, s3 := m.Similarity(1, 2), m.Similarity(1, 3)
			want := (4*s2 + 2*s3) / (s2 + s3)
			return math.Abs(v-want) < 1e-9
		}},
		{"popularity fallback", 1, 13, func(v float64) bool { return v == 5*math.Log(2) }},
		{"unknown meal is neutral", 1, 99, func(v float64) bool { return v == NeutralRating }},
		{"cold user popularity is clamped", 42, 10, func(v float64) bool { return v == 5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.Predict(tt.user, tt.meal)
			if !tt.verify(got) {
				t.Fatalf("Predict(%d, %d) = %v", tt.user, tt.meal, got)
			}
			if got < minRating || got > maxRating {
				t.Fatalf("prediction %v outside [1, 5]", got)
			}
		})
	}
}

func TestPredictionsStayInRange(t *testing.T) {
	t.Parallel()

	var interactions []Interaction
	for u := uint(1); u <= 12; u++ {
		for meal := uint(1); meal <= 15; meal++ {
			if (u+meal)%3 == 0 {
				continue
			}
			rating := float64((u*meal)%5) + 1
			interactions = append(interactions, Interaction{UserID: u, MealID: meal, Rating: rating})
		}
	}
	m := trainedModel(t, interactions)

	for u := uint(1); u <= 13; u++ {
		for meal := uint(1); meal <= 16; meal++ {
			if got := m.Predict(u, meal); got < 1 || got > 5 {
				t.Fatalf("Predict(%d, %d) = %v outside [1, 5]", u, meal, got)
			}
		}
	}
}

func TestRecommendExcludesRatedMeals(t *testing.T) {
	t.Parallel()

	m := trainedModel(t, []Interaction{
		{UserID: 1, MealID: 10, Rating: 5},
		{UserID: 2, MealID: 10, Rating: 5},
		{UserID: 2, MealID: 11, Rating: 5},
		{UserID: 2, MealID: 12, Rating: 1},
	})

	got := m.Recommend(1, []uint{10, 11, 12}, 10)
	if len(got) != 2 {
		t.Fatalf("expected 2 predictions, got %+v", got)
	}
	if got[0].MealID != 11 || got[1].MealID != 12 {
		t.Fatalf("unexpected order %+v", got)
	}
	if got[0].Score < got[1].Score {
		t.Fatalf("predictions not sorted: %+v", got)
	}

	limited := m.Recommend(1, []uint{10, 11, 12}, 1)
	if len(limited) != 1 || limited[0].MealID != 11 {
		t.Fatalf("limit not applied: %+v", limited)
	}
}

func TestRecommendAllRatedFallsBackToPopularity(t *testing.T) {
	t.Parallel()

	m := trainedModel(t, []Interaction{
		{UserID: 1, MealID: 10, Rating: 2},
		{UserID: 1, MealID: 11, Rating: 4},
		{UserID: 2, MealID: 11, Rating: 4},
	})

	got := m.Recommend(1, []uint{10, 11}, 5)
	if len(got) != 2 {
		t.Fatalf("expected both candidates, got %+v", got)
	}
	if got[0].MealID != 11 {
		t.Fatalf("expected the more popular meal first, got %+v", got)
	}
	if want := 4 * math.Log(3); math.Abs(got[0].Score-want) > 1e-9 {
		t.Fatalf("score = %v, want %v", got[0].Score, want)
	}
}

func TestRecommendCapsCandidates(t *testing.T) {
	t.Parallel()

	m := NewModel(Config{K: 5, MaxCandidates: 2})
	m.Train([]Interaction{{UserID: 1, MealID: 1, Rating: 4}})

	got := m.Recommend(2, []uint{5, 6, 7, 8}, 10)
	if len(got) != 2 {
		t.Fatalf("expected 2 scored candidates, got %+v", got)
	}
}

func TestPopular(t *testing.T) {
	t.Parallel()

	m := trainedModel(t, []Interaction{
		{UserID: 1, MealID: 10, Rating: 5},
		{UserID: 1, MealID: 11, Rating: 4},
		{UserID: 2, MealID: 11, Rating: 4},
		{UserID: 3, MealID: 11, Rating: 4},
	})

	got := m.Popular(1)
	if len(got) != 1 || got[0].MealID != 11 {
		t.Fatalf("Popular(1) = %+v", got)
	}
	if want := 4 * math.Log(4); math.Abs(got[0].Score-want) > 1e-9 {
		t.Fatalf("popularity = %v, want %v", got[0].Score, want)
	}
}

func TestSnapshotRestore(t *testing.T) {
	t.Parallel()

	src := trainedModel(t, []Interaction{
		{UserID: 1, MealID: 10, Rating: 5},
		{UserID: 2, MealID: 10, Rating: 3},
		{UserID: 2, MealID: 11, Rating: 4},
	})
	snap := src.Snapshot()

	dst := NewModel(DefaultConfig())
	if dst.IsTrained() {
		t.Fatal("new model should be untrained")
	}
	if err := dst.Restore(snap); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if !dst.IsTrained() {
		t.Fatal("restored model should be trained")
	}
	for _, pair := range [][2]uint{{1, 10}, {1, 11}, {2, 11}, {3, 10}} {
		if a, b := src.Predict(pair[0], pair[1]), dst.Predict(pair[0], pair[1]); a != b {
			t.Fatalf("Predict%v differs after restore: %v vs %v", pair, a, b)
		}
	}

	snap.UserRatings[1][10] = 1
	if got := src.Predict(1, 10); got != 5 {
		t.Fatalf("snapshot should not alias model state, got %v", got)
	}

	if err := dst.Restore(Snapshot{Version: 99}); err == nil {
		t.Fatal("expected error for unknown snapshot version")
	}
}
