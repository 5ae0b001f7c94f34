package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/webdev-it/baza-ai/internal/database"
	mw "github.com/webdev-it/baza-ai/internal/middleware"
	inats "github.com/webdev-it/baza-ai/internal/nats"
)

// RouterConfig holds configuration and the pieces injected from main.go to
// avoid an import cycle with the auth package.
type RouterConfig struct {
	CORSAllowedOrigins []string
	Login              http.HandlerFunc
	LoginRateLimiter   func(http.Handler) http.Handler
	AuthMiddleware     func(http.Handler) http.Handler
}

func NewRouter(pool *pgxpool.Pool, rdb *redis.Client, natsClient *inats.Client, cfg RouterConfig, h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.SecurityHeaders)
	r.Use(mw.Logging)
	r.Use(mw.Recovery)
	r.Use(mw.Metrics)
	r.Use(cors.Handler(mw.CORS(cfg.CORSAllowedOrigins)))

	// Liveness probe, always 200, no dependency checks
	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		JSON(w, http.StatusOK, map[string]string{"status": "alive"})
	})

	// Readiness probe, checks Postgres, Redis and NATS
	readinessHandler := func(w http.ResponseWriter, r *http.Request) {
		health := map[string]string{
			"status":   "healthy",
			"database": "healthy",
			"redis":    "healthy",
			"nats":     "healthy",
		}

		status := http.StatusOK

		if err := database.HealthCheck(r.Context(), pool); err != nil {
			health["database"] = "unhealthy"
			health["status"] = "degraded"
			status = http.StatusServiceUnavailable
		}

		// Redis only backs the advisory burst limiter, so losing it
		// degrades the readiness report without failing it.
		if err := rdb.Ping(r.Context()).Err(); err != nil {
			health["redis"] = "unhealthy"
			health["status"] = "degraded"
		}

		if natsClient != nil && !natsClient.Healthy() {
			health["nats"] = "unhealthy"
			health["status"] = "degraded"
			status = http.StatusServiceUnavailable
		} else if natsClient == nil {
			health["nats"] = "not configured"
		}

		JSON(w, status, health)
	}

	r.Get("/health/ready", readinessHandler)
	r.Get("/health", readinessHandler)

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			if cfg.LoginRateLimiter != nil {
				r.Use(cfg.LoginRateLimiter)
			}
			r.Post("/login", cfg.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(cfg.AuthMiddleware)

			r.Route("/users/{jid}", func(r chi.Router) {
				r.Get("/quota", h.GetUserQuota)
				r.Get("/events", h.GetUserEvents)
				r.Delete("/history", h.DeleteUserHistory)
				r.Put("/subscription", h.PutUserSubscription)
			})
		})
	})

	return r
}
