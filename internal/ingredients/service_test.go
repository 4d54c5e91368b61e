package ingredients

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"nutriplan/internal/apperr"
	"nutriplan/internal/snapshot"
)

type countingStore struct {
	snapshot.Store
	loads atomic.Int32
}

func (c *countingStore) Load(ctx context.Context, name string, v any) error {
	c.loads.Add(1)
	time.Sleep(5 * time.Millisecond)
	return c.Store.Load(ctx, name, v)
}

func TestServiceDegradesOnCorruptSnapshot(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	store, err := snapshot.NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, SnapshotName+".json.gz"), []byte("not a gzip stream"), 0o600); err != nil {
		t.Fatalf("write corrupt snapshot: %v", err)
	}

	svc := NewService(staticMeals(catalogue()), store)
	if _, err := svc.EnsureLoaded(ctx); !apperr.IsModelUnavailable(err) {
		t.Fatalf("expected ErrModelUnavailable for a corrupt snapshot, got %v", err)
	}
	matches, err := svc.Search(ctx, []string{"rice"}, 5, 1)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if matches == nil || len(matches) != 0 {
		t.Fatalf("expected an empty non-nil result, got %#v", matches)
	}
	if status := svc.Status(ctx); status.Trained {
		t.Fatalf("expected untrained status, got %+v", status)
	}

	if _, err := svc.Retrain(ctx); err != nil {
		t.Fatalf("Retrain: %v", err)
	}
	matches, err = svc.Search(ctx, []string{"rice"}, 5, 1)
	if err != nil || len(matches) != 2 {
		t.Fatalf("search after retrain = %d matches, %v", len(matches), err)
	}
}

func TestServiceThrottlesFailedLoads(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	inner, err := snapshot.NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, SnapshotName+".json.gz"), []byte("garbage"), 0o600); err != nil {
		t.Fatalf("write corrupt snapshot: %v", err)
	}
	store := &countingStore{Store: inner}
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	svc := NewService(staticMeals(catalogue()), store)
	svc.now = func() time.Time { return now }
	for range 3 {
		if _, err := svc.Search(ctx, []string{"rice"}, 5, 1); err != nil {
			t.Fatalf("Search: %v", err)
		}
	}
	if got := store.loads.Load(); got != 1 {
		t.Fatalf("expected one load attempt inside the retry window, got %d", got)
	}

	now = now.Add(2 * time.Minute)
	if _, err := svc.Search(ctx, []string{"rice"}, 5, 1); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got := store.loads.Load(); got != 2 {
		t.Fatalf("expected a retry after the window, got %d loads", got)
	}
}

func TestEnsureLoadedSerializesConcurrentLoads(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	inner, err := snapshot.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if _, err := NewService(staticMeals(catalogue()), inner).Retrain(ctx); err != nil {
		t.Fatalf("Retrain: %v", err)
	}

	store := &countingStore{Store: inner}
	svc := NewService(staticMeals(nil), store)

	const callers = 16
	results := make([]*Matcher, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = svc.EnsureLoaded(ctx)
		}()
	}
	wg.Wait()

	for i := range callers {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if results[i] != results[0] {
			t.Fatalf("caller %d got a different matcher instance", i)
		}
	}
	if got := store.loads.Load(); got != 1 {
		t.Fatalf("expected exactly one snapshot load, got %d", got)
	}
}
