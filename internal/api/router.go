package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewRouter creates and returns a configured Chi router.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	// ── Global middleware ─────────────────────────────────────────────────────
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)

	// ── Health & metrics ──────────────────────────────────────────────────────
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ok(w, map[string]string{"status": "ok", "service": "gart-risk-api"})
	})
	r.Handle("/metrics", promhttp.Handler())

	// ── API v1 ────────────────────────────────────────────────────────────────
	r.Route("/api/v1", func(r chi.Router) {

		// Evaluation pipeline and dashboard feed
		r.Route("/attempts", func(r chi.Router) {
			r.Post("/", h.SubmitAttempt)
			r.Get("/", h.ListAttempts)
		})

		// Per-user reporting views (read-only)
		r.Route("/users/{id}", func(r chi.Router) {
			r.Get("/attempts", h.GetUserAttempts)
			r.Get("/baseline", h.GetUserBaseline)
			r.Get("/summary", h.GetUserSummary)
		})

		// SOC overview
		r.Get("/reports/overview", h.GetOverview)

		// Admin / demo utilities
		r.Post("/admin/seed", h.SeedData)
	})

	return r
}

// requestLogger emits one structured record per request.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info("http",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
