package query

import "strings"

// Pagination defaults applied when the caller supplies nothing usable
const (
	DefaultPage  = 1
	DefaultLimit = 20
)

// Pagination describes a page request. Zero or negative values fall back to
// the defaults instead of failing.
type Pagination struct {
	Page  int `json:"page" yaml:"page"`
	Limit int `json:"limit" yaml:"limit"`
}

// Normalize returns the page and limit to use together with the row offset.
// The offset is never negative.
func (p Pagination) Normalize() (page, limit, offset int) {
	page = p.Page
	if page < 1 {
		page = DefaultPage
	}
	limit = p.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	return page, limit, (page - 1) * limit
}

// BuildPaginationQuery appends `LIMIT ? OFFSET ?` to the trimmed base query.
// It never fails: malformed input is normalized to the defaults.
func BuildPaginationQuery(baseQuery string, page, limit int) Fragment {
	_, safeLimit, offset := Pagination{Page: page, Limit: limit}.Normalize()
	return Fragment{
		SQL:    strings.TrimSpace(baseQuery) + " LIMIT ? OFFSET ?",
		Params: []any{safeLimit, offset},
	}
}
