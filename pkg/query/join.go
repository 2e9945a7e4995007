package query

import (
	"fmt"
	"strings"
)

// JoinType represents the SQL JOIN kinds accepted from callers
type JoinType string

const (
	InnerJoin JoinType = "INNER"
	LeftJoin  JoinType = "LEFT"
	RightJoin JoinType = "RIGHT"
)

// JoinOn holds the two columns compared by a join condition
type JoinOn struct {
	Base   string `json:"base" yaml:"base"`
	Target string `json:"target" yaml:"target"`
}

// Join describes a JOIN clause. On is required; Alias is optional.
type Join struct {
	Type  JoinType `json:"type" yaml:"type"`
	Table string   `json:"table" yaml:"table"`
	Alias string   `json:"alias,omitempty" yaml:"alias,omitempty"`
	On    *JoinOn  `json:"on" yaml:"on"`
}

// normalizeJoinType maps t onto one of the supported join types.
// Unknown values become INNER rather than failing.
func normalizeJoinType(t JoinType) JoinType {
	switch JoinType(strings.ToUpper(strings.TrimSpace(string(t)))) {
	case LeftJoin:
		return LeftJoin
	case RightJoin:
		return RightJoin
	default:
		return InnerJoin
	}
}

// buildJoin validates a single join and renders it
func buildJoin(j Join) (string, error) {
	switch {
	case j.On == nil:
		return "", fmt.Errorf("%w: join on %q is missing on", ErrMalformedJoin, j.Table)
	case j.On.Base == "":
		return "", fmt.Errorf("%w: join on %q is missing on.base", ErrMalformedJoin, j.Table)
	case j.On.Target == "":
		return "", fmt.Errorf("%w: join on %q is missing on.target", ErrMalformedJoin, j.Table)
	}

	table, err := SanitizeIdentifier(j.Table)
	if err != nil {
		return "", err
	}
	base, err := SanitizeIdentifier(j.On.Base)
	if err != nil {
		return "", err
	}
	target, err := SanitizeIdentifier(j.On.Target)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(string(normalizeJoinType(j.Type)))
	b.WriteString(" JOIN ")
	b.WriteString(table)
	if j.Alias != "" {
		alias, err := SanitizeIdentifier(j.Alias)
		if err != nil {
			return "", err
		}
		b.WriteString(" ")
		b.WriteString(alias)
	}
	b.WriteString(" ON ")
	b.WriteString(base)
	b.WriteString(" = ")
	b.WriteString(target)
	return b.String(), nil
}

// BuildJoinQuery appends the given joins, in order, to the trimmed base
// query. No joins leaves the query unchanged. Any invalid join fails the
// whole call.
func BuildJoinQuery(baseQuery string, joins []Join) (string, error) {
	base := strings.TrimSpace(baseQuery)
	if len(joins) == 0 {
		return base, nil
	}

	clauses := make([]string, 0, len(joins))
	for _, j := range joins {
		clause, err := buildJoin(j)
		if err != nil {
			return "", err
		}
		clauses = append(clauses, clause)
	}

	return base + " " + strings.Join(clauses, " "), nil
}
