package query

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestBuilder_Build(t *testing.T) {
	b := NewBuilder("sisters").
		Select("sisters.*", "c.name").
		Join(Join{Type: LeftJoin, Table: "communities", Alias: "c", On: &JoinOn{Base: "sisters.community_id", Target: "c.id"}}).
		Where(Filters{}.Add("sisters.status", In("active", "leave")).Add("sisters.age", Cmp(">", 30))).
		OrderBy("sisters.last_name", Desc).
		Paginate(Pagination{Page: 2, Limit: 10})

	got, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT sisters.*, c.name FROM sisters LEFT JOIN communities c ON sisters.community_id = c.id"+
			" WHERE sisters.status IN (?, ?) AND sisters.age > ?"+
			" ORDER BY sisters.last_name DESC LIMIT ? OFFSET ?",
		got.SQL)
	assert.Equal(t, []any{"active", "leave", 30, 10, 10}, got.Params)

	count, err := b.BuildCount()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT COUNT(*) FROM (SELECT sisters.*, c.name FROM sisters LEFT JOIN communities c ON sisters.community_id = c.id"+
			" WHERE sisters.status IN (?, ?) AND sisters.age > ?) AS counted",
		count.SQL)
	assert.Equal(t, []any{"active", "leave", 30}, count.Params)
}

func TestBuilder_Minimal(t *testing.T) {
	got, err := NewBuilder("missions").Build()
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM missions", got.SQL)
	assert.Empty(t, got.Params)
}

func TestBuilder_RejectsUnsafeParts(t *testing.T) {
	_, err := NewBuilder("sisters; DROP TABLE x").Build()
	assert.ErrorIs(t, err, ErrUnsafeIdentifier)

	_, err = NewBuilder("sisters").Select("name, password").Build()
	assert.ErrorIs(t, err, ErrUnsafeIdentifier)

	_, err = NewBuilder("sisters").Select("x y.*").Build()
	assert.ErrorIs(t, err, ErrUnsafeIdentifier)

	_, err = NewBuilder("sisters").OrderBy("1; --", Asc).Build()
	assert.ErrorIs(t, err, ErrUnsafeIdentifier)
}

// Same input always yields byte-identical output.
func TestBuilder_Deterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ident := rapid.StringMatching(`[a-z_]{1,12}`)
		n := rapid.IntRange(0, 6).Draw(t, "filters")

		var filters Filters
		for i := 0; i < n; i++ {
			col := ident.Draw(t, "column")
			switch rapid.IntRange(0, 3).Draw(t, "shape") {
			case 0:
				filters = filters.Add(col, Eq(rapid.Int().Draw(t, "v")))
			case 1:
				filters = filters.Add(col, In(rapid.String().Draw(t, "a"), rapid.String().Draw(t, "b")))
			case 2:
				filters = filters.Add(col, Range(rapid.Int().Draw(t, "lo"), rapid.Int().Draw(t, "hi")))
			default:
				op := rapid.SampledFrom([]string{"=", "!=", ">", ">=", "<", "<=", "like"}).Draw(t, "op")
				filters = filters.Add(col, Cmp(op, rapid.String().Draw(t, "v")))
			}
		}

		table := ident.Draw(t, "table")
		sortCol := ident.Draw(t, "sort")
		first, err := NewBuilder(table).Where(filters).OrderBy(sortCol, Desc).Paginate(Pagination{Page: 3, Limit: 15}).Build()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		second, err := NewBuilder(table).Where(filters).OrderBy(sortCol, Desc).Paginate(Pagination{Page: 3, Limit: 15}).Build()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if first.SQL != second.SQL {
			t.Fatalf("SQL differs:\n%s\n%s", first.SQL, second.SQL)
		}
		if strings.Count(first.SQL, "?") != len(first.Params) {
			t.Fatalf("placeholders and params disagree: %s %v", first.SQL, first.Params)
		}
		if len(first.Params) != len(second.Params) {
			t.Fatalf("param count differs")
		}
		for i := range first.Params {
			if first.Params[i] != second.Params[i] {
				t.Fatalf("param %d differs: %v vs %v", i, first.Params[i], second.Params[i])
			}
		}
	})
}
