// Package api exposes the records resources over HTTP.
//
// Every resource is mounted under /api/{name}. GET routes are served through
// the response cache; write routes go through the repository, which clears
// the cached reads of the resource after a successful change.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ammar0144/recordsapi/pkg/cache"
	"github.com/ammar0144/recordsapi/pkg/httpcache"
)

// Deps are the collaborators of the router
type Deps struct {
	// Cache memoizes GET responses. Nil disables response caching.
	Cache    *cache.ResponseCache
	CacheTTL time.Duration

	// Gatherer is served at /metrics when set
	Gatherer prometheus.Gatherer

	// Health reports whether the backing services are reachable
	Health func(ctx context.Context) error

	Logger *slog.Logger
}

// NewRouter builds the HTTP handler serving resources
func NewRouter(deps Deps, resources ...Resource) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", healthHandler(deps.Health, logger))
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	cached := func(next http.Handler) http.Handler { return next }
	if deps.Cache != nil {
		cached = httpcache.New(deps.Cache, logger).Wrap(deps.CacheTTL)
		r.Mount("/admin/cache", newCacheAdmin(deps.Cache, logger).routes())
	}

	r.Route("/api", func(api chi.Router) {
		for _, res := range resources {
			api.Mount("/"+res.Name(), res.routes(cached))
		}
	})

	return r
}

func healthHandler(check func(ctx context.Context) error, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				logger.Warn("health check failed", "error", err)
				_ = httpcache.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		_ = httpcache.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// requestLogger logs one line per request once the response is written
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"cache", ww.Header().Get(httpcache.HeaderCache),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
