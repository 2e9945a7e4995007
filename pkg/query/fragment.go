package query

import "strings"

// Fragment is a piece of SQL text together with the values bound to its
// `?` placeholders, in placeholder order. Fragments must only ever be
// executed through a parameterized API.
type Fragment struct {
	SQL    string
	Params []any
}

// IsEmpty reports whether the fragment carries no SQL
func (f Fragment) IsEmpty() bool {
	return f.SQL == ""
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
