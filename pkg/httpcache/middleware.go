// Package httpcache caches GET responses of net/http handlers in a
// cache.ResponseCache and invalidates them after writes.
package httpcache

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/ammar0144/recordsapi/pkg/cache"
)

// HeaderCache reports whether a GET was served from the cache
const HeaderCache = "X-Cache"

// Middleware wires a ResponseCache into an HTTP handler chain
type Middleware struct {
	cache  *cache.ResponseCache
	logger *slog.Logger
}

// New creates cache middleware backed by rc
func New(rc *cache.ResponseCache, logger *slog.Logger) *Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &Middleware{
		cache:  rc,
		logger: logger,
	}
}

// RequestKey returns the cache key of r: the method and the full request URI
// including its query string.
func RequestKey(r *http.Request) string {
	return "GET:" + r.URL.RequestURI()
}

// Wrap returns middleware that memoizes GET responses for ttl. Other methods
// pass through without touching the cache. Server errors are never stored.
func (m *Middleware) Wrap(ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			key := RequestKey(r)
			if e, ok := m.cache.Get(r.Context(), key); ok {
				w.Header().Set(HeaderCache, "HIT")
				replay(w, e)
				return
			}

			w.Header().Set(HeaderCache, "MISS")
			cw := newCaptureWriter(w)
			next.ServeHTTP(cw, r)

			if !cw.wroteHeader || cw.status >= http.StatusInternalServerError || cw.body.Len() == 0 {
				return
			}
			e := cw.entry(key)
			e.TTL = ttl
			m.cache.Set(r.Context(), e)
		})
	}
}

// Invalidate returns middleware for write routes that clears every cached
// read of resource once the handler responds with a 2xx status.
func (m *Middleware) Invalidate(resource string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			cw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(cw, r)

			if cw.status < 200 || cw.status > 299 {
				return
			}
			n := m.cache.ClearForResource(r.Context(), resource)
			m.logger.Debug("invalidated cached reads after write",
				"resource", resource,
				"method", r.Method,
				"path", r.URL.Path,
				"keys", n,
			)
		})
	}
}

// statusWriter records the status code of a response
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Unwrap() http.ResponseWriter {
	return sw.ResponseWriter
}
