package query

import (
	"fmt"
	"regexp"
	"strings"
)

// identifierPattern is the only shape an identifier may take before it is
// embedded in generated SQL. Values never go through here; they are bound.
var identifierPattern = regexp.MustCompile(`^[a-zA-Z0-9_.]+$`)

// Operator represents SQL comparison operators accepted in filters
type Operator string

const (
	Equal              Operator = "="
	NotEqual           Operator = "!="
	GreaterThan        Operator = ">"
	GreaterThanOrEqual Operator = ">="
	LessThan           Operator = "<"
	LessThanOrEqual    Operator = "<="
	Like               Operator = "LIKE"
)

var supportedOperators = map[Operator]struct{}{
	Equal:              {},
	NotEqual:           {},
	GreaterThan:        {},
	GreaterThanOrEqual: {},
	LessThan:           {},
	LessThanOrEqual:    {},
	Like:               {},
}

// SanitizeIdentifier returns name unchanged when it only contains letters,
// digits, underscores and dots. Every identifier that ends up in a fragment
// passes through this function first.
func SanitizeIdentifier(name string) (string, error) {
	if !identifierPattern.MatchString(name) {
		return "", fmt.Errorf("%w: %q", ErrUnsafeIdentifier, name)
	}
	return name, nil
}

// SanitizeOperator normalizes op to upper case and checks it against the
// supported operator set.
func SanitizeOperator(op string) (Operator, error) {
	normalized := Operator(strings.ToUpper(strings.TrimSpace(op)))
	if _, ok := supportedOperators[normalized]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedOperator, op)
	}
	return normalized, nil
}
