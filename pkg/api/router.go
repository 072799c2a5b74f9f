package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/marmos91/dittodav/internal/logger"
	"github.com/marmos91/dittodav/pkg/api/handlers"
	apimw "github.com/marmos91/dittodav/pkg/api/middleware"
)

// Deps are the gateway components the admin API reads and drives.
type Deps struct {
	Users  handlers.UserCache
	Mounts handlers.MountLister
}

// NewRouter creates the admin router.
//
// Routes:
//   - GET /health - Liveness probe
//   - GET /health/ready - Readiness probe
//   - GET /api/v1/users - Cached users
//   - DELETE /api/v1/users - Evict every cached user
//   - DELETE /api/v1/users/{name} - Evict one cached user
//   - GET /api/v1/stats - Credential cache statistics
func NewRouter(cfg APIConfig, deps Deps) http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		handlers.NotFound(w, "not found")
	})
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	healthHandler := handlers.NewHealthHandler(deps.Mounts)
	r.Route("/health", func(r chi.Router) {
		r.Get("/", healthHandler.Liveness)
		r.Get("/ready", healthHandler.Readiness)
	})

	if deps.Users != nil {
		userHandler := handlers.NewUserHandler(deps.Users)
		r.Route("/api/v1", func(r chi.Router) {
			r.Use(apimw.RequireToken(cfg.Token))

			r.Get("/users", userHandler.List)
			r.Delete("/users", userHandler.EvictAll)
			r.Delete("/users/{name}", userHandler.Evict)
			r.Get("/stats", userHandler.Stats)
		})
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	return r
}

// requestLogger logs admin requests using the internal logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logger.Debug("Admin request completed",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
		)
	})
}
