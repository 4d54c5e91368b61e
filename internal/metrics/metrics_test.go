package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRetrainSplitsOutcome(t *testing.T) {
	okBefore := testutil.ToFloat64(RetrainTotal.WithLabelValues("collab", "true"))
	failBefore := testutil.ToFloat64(RetrainTotal.WithLabelValues("collab", "false"))

	RecordRetrain("collab", 10*time.Millisecond, nil)
	RecordRetrain("collab", 10*time.Millisecond, errors.New("boom"))
	RecordRetrain("collab", 10*time.Millisecond, nil)

	if got := testutil.ToFloat64(RetrainTotal.WithLabelValues("collab", "true")) - okBefore; got != 2 {
		t.Fatalf("successful retrains = %v, want 2", got)
	}
	if got := testutil.ToFloat64(RetrainTotal.WithLabelValues("collab", "false")) - failBefore; got != 1 {
		t.Fatalf("failed retrains = %v, want 1", got)
	}
}

func TestRecordCacheLookup(t *testing.T) {
	hits := testutil.ToFloat64(RecommendationCacheHits)
	misses := testutil.ToFloat64(RecommendationCacheMisses)

	RecordCacheLookup(true)
	RecordCacheLookup(false)
	RecordCacheLookup(false)

	if got := testutil.ToFloat64(RecommendationCacheHits) - hits; got != 1 {
		t.Fatalf("hits = %v, want 1", got)
	}
	if got := testutil.ToFloat64(RecommendationCacheMisses) - misses; got != 2 {
		t.Fatalf("misses = %v, want 2", got)
	}
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/meals", "200"))
	RecordAPIRequest("GET", "/api/meals", 200, time.Millisecond)
	if got := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/meals", "200")) - before; got != 1 {
		t.Fatalf("requests = %v, want 1", got)
	}
}
