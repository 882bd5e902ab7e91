package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterConfig holds router options
type RouterConfig struct {
	AllowedOrigins []string
	RequestTimeout time.Duration // 0 disables the timeout middleware
	Metrics        http.Handler  // served at /metrics when set
}

// NewRouter builds the chi router with middleware, health endpoints and API routes
func NewRouter(h *BacktestHandler, config RouterConfig) chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if config.RequestTimeout > 0 {
		r.Use(middleware.Timeout(config.RequestTimeout))
	}

	origins := config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	// Health and monitoring endpoints
	r.Get("/health", h.HandleHealth)
	r.Get("/ready", h.HandleReady)
	if config.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", config.Metrics)
	}

	h.RegisterRoutes(r)

	return r
}
