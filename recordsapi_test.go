package recordsapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammar0144/recordsapi/pkg/cache"
	"github.com/ammar0144/recordsapi/pkg/httpcache"
)

func TestResponseCacheRoundTrip(t *testing.T) {
	cfg := cache.DefaultConfig()
	cfg.CheckPeriod = time.Hour
	rc, err := NewResponseCache(cfg, nil)
	require.NoError(t, err)
	defer rc.Close()

	calls := 0
	h := NewCacheMiddleware(rc, nil).Wrap(time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_ = httpcache.JSON(w, http.StatusOK, map[string]int{"calls": calls})
	}))

	get := func() string {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sisters?filter[status]=active", nil))
		return rec.Body.String()
	}

	first := get()
	assert.Equal(t, first, get())
	assert.Equal(t, 1, calls)

	assert.Equal(t, 1, rc.ClearForResource(context.Background(), "sisters"))
	assert.NotEqual(t, first, get())
	assert.Equal(t, 2, calls)
}

func TestParseRequest(t *testing.T) {
	req, err := ParseRequest("filter[status]=active&page=2&limit=5")
	require.NoError(t, err)
	require.Len(t, req.Filters, 1)
	assert.Equal(t, "status", req.Filters[0].Column)
	assert.Equal(t, 2, req.Pagination.Page)
}
