package api

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ammar0144/recordsapi/pkg/db"
)

// recordingConnector is a database/sql connector that remembers every query
// it receives. COUNT(*) statements report total rows; all other queries
// return no rows.
type recordingConnector struct {
	mu      sync.Mutex
	queries []string
	total   int64
}

func (c *recordingConnector) Connect(context.Context) (driver.Conn, error) {
	return &recordingConn{c: c}, nil
}

func (c *recordingConnector) Driver() driver.Driver { return recordingDriver{c: c} }

func (c *recordingConnector) lastSelect() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.queries) - 1; i >= 0; i-- {
		if !strings.HasPrefix(c.queries[i], "SELECT COUNT(*)") {
			return c.queries[i]
		}
	}
	return ""
}

type recordingDriver struct{ c *recordingConnector }

func (d recordingDriver) Open(string) (driver.Conn, error) { return &recordingConn{c: d.c}, nil }

type recordingConn struct{ c *recordingConnector }

func (*recordingConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepared statements not supported")
}

func (*recordingConn) Close() error { return nil }

func (*recordingConn) Begin() (driver.Tx, error) {
	return nil, errors.New("transactions not supported")
}

func (rc *recordingConn) QueryContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Rows, error) {
	rc.c.mu.Lock()
	rc.c.queries = append(rc.c.queries, query)
	total := rc.c.total
	rc.c.mu.Unlock()

	if strings.HasPrefix(query, "SELECT COUNT(*)") {
		return &countRows{n: total}, nil
	}
	return &countRows{done: true}, nil
}

type countRows struct {
	n    int64
	done bool
}

func (*countRows) Columns() []string { return []string{"count"} }

func (*countRows) Close() error { return nil }

func (r *countRows) Next(dest []driver.Value) error {
	if r.done {
		return io.EOF
	}
	dest[0] = r.n
	r.done = true
	return nil
}

// newRegistryServer serves the registered records resources over a
// recording connection
func newRegistryServer(t *testing.T) (http.Handler, *recordingConnector) {
	t.Helper()
	conn := &recordingConnector{total: 2}
	sqlDB := sql.OpenDB(conn)
	t.Cleanup(func() { _ = sqlDB.Close() })

	gdb, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
		Logger:                 logger.Discard,
	})
	require.NoError(t, err)

	cfg := db.DefaultConfig()
	cfg.Database = "records"
	cfg.Username = "records"
	m := db.NewManagerWithDB(cfg, gdb, nil)

	return NewRouter(Deps{}, Resources(m, nil, nil)...), conn
}

func get(h http.Handler, path string, params url.Values) *httptest.ResponseRecorder {
	target := path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestRegisteredResourcesQualifyColumns(t *testing.T) {
	h, conn := newRegistryServer(t)

	rec := get(h, "/api/sisters", url.Values{
		"filter[id]": {"3"},
		"sortBy":     {"created_at"},
		"joins":      {`[{"table":"communities","on":{"base":"sisters.community_id","target":"communities.id"}}]`},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t,
		"SELECT sisters.* FROM sisters INNER JOIN communities ON sisters.community_id = communities.id WHERE sisters.id = ? ORDER BY sisters.created_at ASC LIMIT ? OFFSET ?",
		conn.lastSelect())

	rec = get(h, "/api/missions", url.Values{
		"filter[sisters.status]": {"active"},
		"joins":                  {`[{"table":"sisters","on":{"base":"missions.sister_id","target":"sisters.id"}}]`},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t,
		"SELECT missions.* FROM missions INNER JOIN sisters ON missions.sister_id = sisters.id WHERE sisters.status = ? ORDER BY missions.start_date DESC LIMIT ? OFFSET ?",
		conn.lastSelect())

	rec = get(h, "/api/communities", url.Values{"sortBy": {"name"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "SELECT * FROM communities ORDER BY communities.name ASC LIMIT ? OFFSET ?", conn.lastSelect())
}

func TestRegisteredResourcesRejectColumnsOutsideRequest(t *testing.T) {
	h, conn := newRegistryServer(t)

	tests := []struct {
		name   string
		path   string
		params url.Values
	}{
		{"sister filter on community without join", "/api/sisters", url.Values{"filter[communities.country]": {"PH"}}},
		{"mission filter on sister without join", "/api/missions", url.Values{"filter[sisters.status]": {"active"}}},
		{"column not exposed", "/api/sisters", url.Values{"filter[password]": {"x"}}},
		{"join not exposed", "/api/sisters", url.Values{
			"joins": {`[{"table":"missions","on":{"base":"sisters.id","target":"missions.sister_id"}}]`},
		}},
		{"bare join condition", "/api/sisters", url.Values{
			"joins": {`[{"table":"communities","on":{"base":"community_id","target":"id"}}]`},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(h, tt.path, tt.params)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}

	conn.mu.Lock()
	defer conn.mu.Unlock()
	assert.Empty(t, conn.queries)
}
