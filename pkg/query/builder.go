package query

import (
	"fmt"
	"strings"
)

// Builder assembles a complete list statement from validated parts:
// SELECT ... FROM ... [JOIN ...] [WHERE ...] [ORDER BY ...] [LIMIT ? OFFSET ?].
//
// Every identifier, including the table and selected columns, goes through
// SanitizeIdentifier. Values only ever reach the statement as bind params.
type Builder struct {
	table      string
	selectCols []string
	joins      []Join
	filters    Filters
	sort       *Sort
	page       *Pagination
}

// NewBuilder creates a builder selecting every column of table
func NewBuilder(table string) *Builder {
	return &Builder{
		table:      table,
		selectCols: []string{"*"},
	}
}

// Select sets the columns to select
func (b *Builder) Select(cols ...string) *Builder {
	if len(cols) > 0 {
		b.selectCols = cols
	}
	return b
}

// Join adds JOIN clauses
func (b *Builder) Join(joins ...Join) *Builder {
	b.joins = append(b.joins, joins...)
	return b
}

// Where adds filters
func (b *Builder) Where(filters Filters) *Builder {
	b.filters = append(b.filters, filters...)
	return b
}

// OrderBy sets the ORDER BY column. An empty column clears it.
func (b *Builder) OrderBy(column string, order SortOrder) *Builder {
	if column == "" {
		b.sort = nil
		return b
	}
	b.sort = &Sort{Column: column, Order: order}
	return b
}

// Paginate sets LIMIT/OFFSET from a page request
func (b *Builder) Paginate(p Pagination) *Builder {
	b.page = &p
	return b
}

// base renders the SELECT ... FROM ... JOIN ... WHERE ... prefix shared by
// the list and count statements.
func (b *Builder) base() (Fragment, error) {
	table, err := SanitizeIdentifier(b.table)
	if err != nil {
		return Fragment{}, err
	}

	cols := make([]string, len(b.selectCols))
	for i, c := range b.selectCols {
		if c == "*" {
			cols[i] = c
			continue
		}
		// table.* is allowed as long as the table part is a safe identifier
		if prefix, ok := strings.CutSuffix(c, ".*"); ok {
			if _, err := SanitizeIdentifier(prefix); err != nil {
				return Fragment{}, err
			}
			cols[i] = c
			continue
		}
		col, err := SanitizeIdentifier(c)
		if err != nil {
			return Fragment{}, err
		}
		cols[i] = col
	}

	query, err := BuildJoinQuery(fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), table), b.joins)
	if err != nil {
		return Fragment{}, err
	}

	where, err := BuildWhereClause(b.filters)
	if err != nil {
		return Fragment{}, err
	}
	if !where.IsEmpty() {
		query += " " + where.SQL
	}

	return Fragment{SQL: query, Params: where.Params}, nil
}

// Build renders the full list statement
func (b *Builder) Build() (Fragment, error) {
	stmt, err := b.base()
	if err != nil {
		return Fragment{}, err
	}

	if b.sort != nil {
		stmt.SQL, err = BuildSortQuery(stmt.SQL, b.sort.Column, string(b.sort.Order))
		if err != nil {
			return Fragment{}, err
		}
	}

	if b.page != nil {
		paged := BuildPaginationQuery(stmt.SQL, b.page.Page, b.page.Limit)
		stmt.SQL = paged.SQL
		stmt.Params = append(stmt.Params, paged.Params...)
	}

	return stmt, nil
}

// BuildCount renders a COUNT(*) over the filtered statement, ignoring sort
// and pagination.
func (b *Builder) BuildCount() (Fragment, error) {
	stmt, err := b.base()
	if err != nil {
		return Fragment{}, err
	}
	stmt.SQL = "SELECT COUNT(*) FROM (" + stmt.SQL + ") AS counted"
	return stmt, nil
}
