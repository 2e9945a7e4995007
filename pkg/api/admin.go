package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"

	"github.com/ammar0144/recordsapi/pkg/cache"
	"github.com/ammar0144/recordsapi/pkg/httpcache"
)

// cacheAdmin exposes manual invalidation for operators
type cacheAdmin struct {
	cache  *cache.ResponseCache
	logger *slog.Logger
}

func newCacheAdmin(rc *cache.ResponseCache, logger *slog.Logger) *cacheAdmin {
	return &cacheAdmin{cache: rc, logger: logger}
}

func (a *cacheAdmin) routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", a.stats)
	r.Delete("/", a.clear)
	r.Delete("/resources/{resource}", a.clearResource)
	return r
}

type clearResult struct {
	Scope   string `json:"scope"`
	Cleared int    `json:"cleared,omitempty"` // unknown for key and all
}

func (a *cacheAdmin) stats(w http.ResponseWriter, r *http.Request) {
	_ = httpcache.JSON(w, http.StatusOK, a.cache.Metrics().GetSnapshot())
}

// clear evicts by ?key=, ?contains= or ?pattern=; without parameters it
// evicts everything.
func (a *cacheAdmin) clear(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	var res clearResult
	switch {
	case q.Has("key"):
		a.cache.ClearExact(ctx, q.Get("key"))
		res = clearResult{Scope: "key"}
	case q.Has("contains"):
		res = clearResult{Cleared: a.cache.ClearContaining(ctx, q.Get("contains")), Scope: "contains"}
	case q.Has("pattern"):
		re, err := regexp.Compile(q.Get("pattern"))
		if err != nil {
			writeError(w, r, a.logger, fmt.Errorf("%w: invalid pattern: %v", errBadRequest, err))
			return
		}
		res = clearResult{Cleared: a.cache.ClearByPattern(ctx, re), Scope: "pattern"}
	default:
		a.cache.ClearAll(ctx)
		res = clearResult{Scope: "all"}
	}

	a.logger.Info("cache cleared by operator", "scope", res.Scope, "keys", res.Cleared)
	_ = httpcache.JSON(w, http.StatusOK, res)
}

func (a *cacheAdmin) clearResource(w http.ResponseWriter, r *http.Request) {
	resource := chi.URLParam(r, "resource")
	n := a.cache.ClearForResource(r.Context(), resource)
	_ = httpcache.JSON(w, http.StatusOK, clearResult{Cleared: n, Scope: "resource"})
}
