package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nutriplan/internal/handlers"
	applog "nutriplan/internal/log"
	"nutriplan/internal/metrics"
)

const requestIDHeader = "X-Request-ID"

func newRouter(cfg Config) http.Handler {
	r := chi.NewRouter()
	applog.Debug(context.Background(), "registering http routes")

	r.Use(requestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", requestIDHeader},
			ExposedHeaders: []string{requestIDHeader},
			MaxAge:         300,
		}))
	}
	r.Use(recordMetrics)

	r.Get("/healthz", handlers.Health)
	r.Handle("/metrics", promhttp.Handler())
	applog.Debug(context.Background(), "route registered", "path", "/healthz")

	r.Group(func(r chi.Router) {
		if cfg.RateLimitPerMinute > 0 {
			r.Use(httprate.LimitByIP(cfg.RateLimitPerMinute, time.Minute))
		}
		if cfg.API != nil {
			cfg.API.Routes(r)
			applog.Debug(context.Background(), "route registered", "path", "/api", "rate_limit", cfg.RateLimitPerMinute)
		}
	})
	return r
}

// requestID propagates or assigns an X-Request-ID and attaches it to the
// request context for logging.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(applog.WithRequestID(r.Context(), id)))
	})
}

// recordMetrics counts requests by their chi route pattern so path ids do
// not explode label cardinality.
func recordMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.RecordAPIRequest(r.Method, route, status, time.Since(start))
		applog.Debug(r.Context(), "request handled", "method", r.Method, "route", route, "status", status, "duration", time.Since(start))
	})
}
