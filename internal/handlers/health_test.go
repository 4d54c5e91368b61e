package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	applog "nutriplan/internal/log"
)

func TestHealthReportsOKWithUTCTimestamp(t *testing.T) {
	t.Parallel()

	before := time.Now().UTC().Add(-time.Second)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req = req.WithContext(applog.WithRequestID(req.Context(), "health-req-1"))
	rec := httptest.NewRecorder()
	Health(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected JSON content type, got %q", ct)
	}

	var body healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode health body: %v", err)
	}
	if body.Status != "ok" {
		t.Fatalf("expected status ok, got %q", body.Status)
	}
	if body.Time.Before(before) || body.Time.Location() != time.UTC {
		t.Fatalf("expected a current UTC timestamp, got %v", body.Time)
	}
}
