package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPaginationQuery(t *testing.T) {
	got := BuildPaginationQuery("SELECT * FROM t", 0, -5)
	assert.Equal(t, "SELECT * FROM t LIMIT ? OFFSET ?", got.SQL)
	assert.Equal(t, []any{20, 0}, got.Params)

	got = BuildPaginationQuery("  SELECT * FROM t  ", 3, 10)
	assert.Equal(t, "SELECT * FROM t LIMIT ? OFFSET ?", got.SQL)
	assert.Equal(t, []any{10, 20}, got.Params)
}

func TestPagination_Normalize(t *testing.T) {
	page, limit, offset := Pagination{Page: -1, Limit: 0}.Normalize()
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, limit)
	assert.Equal(t, 0, offset)

	page, limit, offset = Pagination{Page: 2, Limit: 50}.Normalize()
	assert.Equal(t, 2, page)
	assert.Equal(t, 50, limit)
	assert.Equal(t, 50, offset)
}

func TestBuildSortQuery(t *testing.T) {
	got, err := BuildSortQuery(" SELECT * FROM t ", "", "DESC")
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM t", got)

	got, err = BuildSortQuery("SELECT * FROM t", "last_name", "desc")
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM t ORDER BY last_name DESC", got)

	got, err = BuildSortQuery("SELECT * FROM t", "last_name", "sideways")
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM t ORDER BY last_name ASC", got)

	_, err = BuildSortQuery("SELECT * FROM t", "name; --", "ASC")
	assert.ErrorIs(t, err, ErrUnsafeIdentifier)
}

func TestBuildJoinQuery(t *testing.T) {
	base := "SELECT * FROM t1"

	got, err := BuildJoinQuery(base, nil)
	require.NoError(t, err)
	assert.Equal(t, base, got)

	got, err = BuildJoinQuery(base, []Join{{Table: "t2", On: &JoinOn{Base: "t1.id", Target: "t2.tid"}}})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM t1 INNER JOIN t2 ON t1.id = t2.tid", got)

	got, err = BuildJoinQuery(base, []Join{
		{Type: "left", Table: "communities", Alias: "c", On: &JoinOn{Base: "t1.community_id", Target: "c.id"}},
		{Type: RightJoin, Table: "missions", On: &JoinOn{Base: "t1.mission_id", Target: "missions.id"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM t1 LEFT JOIN communities c ON t1.community_id = c.id RIGHT JOIN missions ON t1.mission_id = missions.id", got)

	// unknown join types fall back to INNER
	got, err = BuildJoinQuery(base, []Join{{Type: "OUTER", Table: "t2", On: &JoinOn{Base: "t1.id", Target: "t2.tid"}}})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM t1 INNER JOIN t2 ON t1.id = t2.tid", got)
}

func TestBuildJoinQuery_Rejects(t *testing.T) {
	base := "SELECT * FROM t1"

	_, err := BuildJoinQuery(base, []Join{{Table: "t2"}})
	assert.ErrorIs(t, err, ErrMalformedJoin)

	_, err = BuildJoinQuery(base, []Join{{Table: "t2", On: &JoinOn{Target: "t2.tid"}}})
	assert.ErrorIs(t, err, ErrMalformedJoin)
	assert.Contains(t, err.Error(), "on.base")

	_, err = BuildJoinQuery(base, []Join{{Table: "t2", On: &JoinOn{Base: "t1.id"}}})
	assert.ErrorIs(t, err, ErrMalformedJoin)
	assert.Contains(t, err.Error(), "on.target")

	_, err = BuildJoinQuery(base, []Join{{Table: "t2 x", On: &JoinOn{Base: "t1.id", Target: "t2.tid"}}})
	assert.ErrorIs(t, err, ErrUnsafeIdentifier)

	_, err = BuildJoinQuery(base, []Join{{Table: "t2", Alias: "x;", On: &JoinOn{Base: "t1.id", Target: "t2.tid"}}})
	assert.ErrorIs(t, err, ErrUnsafeIdentifier)

	_, err = BuildJoinQuery(base, []Join{{Table: "t2", On: &JoinOn{Base: "1=1 OR t1.id", Target: "t2.tid"}}})
	assert.ErrorIs(t, err, ErrUnsafeIdentifier)
}
