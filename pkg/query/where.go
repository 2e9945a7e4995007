package query

import (
	"fmt"
	"strings"
)

// BuildWhereClause turns an ordered filter set into a WHERE clause.
//
// Every column is validated, including those of entries without a value,
// which are then skipped. Lists become IN clauses, ranges become
// BETWEEN, comparisons use their (validated) operator and everything else is
// an equality test. When no clause is produced the returned SQL is empty so
// callers never emit a dangling WHERE. The first unsafe column aborts the
// whole call.
func BuildWhereClause(filters Filters) (Fragment, error) {
	conditions := make([]string, 0, len(filters))
	params := make([]any, 0, len(filters))

	for _, f := range filters {
		column, err := SanitizeIdentifier(f.Column)
		if err != nil {
			return Fragment{}, err
		}
		if isEmpty(f.Value) {
			continue
		}

		condSQL, condArgs, err := buildCondition(column, f.Value)
		if err != nil {
			return Fragment{}, err
		}
		conditions = append(conditions, condSQL)
		params = append(params, condArgs...)
	}

	if len(conditions) == 0 {
		return Fragment{SQL: "", Params: []any{}}, nil
	}

	return Fragment{
		SQL:    "WHERE " + strings.Join(conditions, " AND "),
		Params: params,
	}, nil
}

// buildCondition builds SQL for a single, non-empty filter value
func buildCondition(column string, value FilterValue) (string, []any, error) {
	switch v := value.(type) {
	case InList:
		args := make([]any, len(v.Values))
		copy(args, v.Values)
		return fmt.Sprintf("%s IN (%s)", column, placeholders(len(args))), args, nil
	case Between:
		return fmt.Sprintf("%s BETWEEN ? AND ?", column), []any{v.Low, v.High}, nil
	case Comparison:
		op, err := SanitizeOperator(v.Operator)
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("%s %s ?", column, op), []any{v.Value}, nil
	case Scalar:
		return fmt.Sprintf("%s = ?", column), []any{v.V}, nil
	default:
		return fmt.Sprintf("%s = ?", column), []any{value}, nil
	}
}
