package query

import (
	"encoding/json"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilters(t *testing.T) {
	raw := "page=2&filter%5Bstatus%5D%5Bin%5D=active,leave&filter[age][between]=30,40" +
		"&filter[score][op]=%3E%3D&filter[score][value]=50&filter[name]=Anna&sortBy=name"

	filters, err := ParseFilters(raw)
	require.NoError(t, err)
	require.Len(t, filters, 4)

	assert.Equal(t, Filter{Column: "status", Value: InList{Values: []any{"active", "leave"}}}, filters[0])
	assert.Equal(t, Filter{Column: "age", Value: Between{Low: "30", High: "40"}}, filters[1])
	assert.Equal(t, Filter{Column: "score", Value: Comparison{Operator: ">=", Value: "50"}}, filters[2])
	assert.Equal(t, Filter{Column: "name", Value: Scalar{V: "Anna"}}, filters[3])

	where, err := BuildWhereClause(filters)
	require.NoError(t, err)
	assert.Equal(t, "WHERE status IN (?, ?) AND age BETWEEN ? AND ? AND score >= ? AND name = ?", where.SQL)
	assert.Equal(t, []any{"active", "leave", "30", "40", "50", "Anna"}, where.Params)
}

func TestParseFilters_RepeatedEqualityBecomesIn(t *testing.T) {
	filters, err := ParseFilters("filter[status]=active&filter[status]=leave")
	require.NoError(t, err)
	require.Len(t, filters, 1)
	assert.Equal(t, InList{Values: []any{"active", "leave"}}, filters[0].Value)
}

func TestParseFilters_Malformed(t *testing.T) {
	cases := []string{
		"filter[age][between]=1,2,3",
		"filter[score][op]=>",
		"filter[x][nope]=1",
		"filter[]=1",
		"filter[a]b=1",
		"filter[a]=%zz",
	}
	for _, raw := range cases {
		_, err := ParseFilters(raw)
		assert.ErrorIs(t, err, ErrMalformedFilter, raw)
		assert.True(t, IsClientError(err), raw)
	}
}

func TestParseFiltersJSON_KeepsOrder(t *testing.T) {
	data := []byte(`{
		"status": ["active", "leave"],
		"deleted_at": null,
		"age": {"between": [30, 40]},
		"score": {"operator": ">=", "value": 50},
		"community_id": 7
	}`)

	filters, err := ParseFiltersJSON(data)
	require.NoError(t, err)
	require.Len(t, filters, 5)

	cols := make([]string, len(filters))
	for i, f := range filters {
		cols[i] = f.Column
	}
	assert.Equal(t, []string{"status", "deleted_at", "age", "score", "community_id"}, cols)

	where, err := BuildWhereClause(filters)
	require.NoError(t, err)
	assert.Equal(t, "WHERE status IN (?, ?) AND age BETWEEN ? AND ? AND score >= ? AND community_id = ?", where.SQL)
	assert.Equal(t, []any{"active", "leave", json.Number("30"), json.Number("40"), json.Number("50"), json.Number("7")}, where.Params)
}

func TestParseFiltersJSON_Malformed(t *testing.T) {
	for _, data := range []string{`[]`, `{"age": {"between": [1]}}`, `{"x": {"operator": 5}}`, `{"x": `} {
		_, err := ParseFiltersJSON([]byte(data))
		assert.ErrorIs(t, err, ErrMalformedFilter, data)
	}

	filters, err := ParseFiltersJSON([]byte(`{"score": {"operator": "DROP", "value": 1}}`))
	require.NoError(t, err)
	_, err = BuildWhereClause(filters)
	assert.ErrorIs(t, err, ErrUnsupportedOperator)
}

func TestParseRequest(t *testing.T) {
	joins := `[{"type":"left","table":"communities","alias":"c","on":{"base":"sisters.community_id","target":"c.id"}}]`
	values := url.Values{}
	values.Set("page", "abc")
	values.Set("limit", "5")
	values.Set("sortBy", "last_name")
	values.Set("sortOrder", "desc")
	values.Set("joins", joins)
	values.Set("filter[status]", "active")

	req, err := ParseRequest(values.Encode())
	require.NoError(t, err)

	assert.Equal(t, Pagination{Page: 0, Limit: 5}, req.Pagination)
	assert.Equal(t, Sort{Column: "last_name", Order: Desc}, req.Sort)
	require.Len(t, req.Joins, 1)
	assert.Equal(t, "communities", req.Joins[0].Table)
	assert.Equal(t, &JoinOn{Base: "sisters.community_id", Target: "c.id"}, req.Joins[0].On)
	assert.Equal(t, Filters{{Column: "status", Value: Scalar{V: "active"}}}, req.Filters)

	_, err = ParseRequest("joins=not-json")
	assert.ErrorIs(t, err, ErrMalformedJoin)
}

func TestParseRequestJSONFilters(t *testing.T) {
	values := url.Values{}
	values.Set("filter[status]", "active")
	values.Set("filters", `{"age": {"between": [30, 40]}, "community_id": [1, 2]}`)

	req, err := ParseRequest(values.Encode())
	require.NoError(t, err)
	require.Len(t, req.Filters, 3)
	assert.Equal(t, "status", req.Filters[0].Column)
	assert.Equal(t, "age", req.Filters[1].Column)
	assert.IsType(t, Between{}, req.Filters[1].Value)
	assert.Equal(t, "community_id", req.Filters[2].Column)
	assert.IsType(t, InList{}, req.Filters[2].Value)

	_, err = ParseRequest("filters=%7Bnope")
	assert.ErrorIs(t, err, ErrMalformedFilter)
}
