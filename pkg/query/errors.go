package query

import "errors"

// Sentinel errors for fragment building. All of them describe malformed or
// malicious input and should be reported to the client as a bad request.
var (
	// ErrUnsafeIdentifier is returned when a column, table or alias name fails the allow-list pattern
	ErrUnsafeIdentifier = errors.New("unsafe identifier")

	// ErrUnsupportedOperator is returned for comparison operators outside the fixed set
	ErrUnsupportedOperator = errors.New("unsupported operator")

	// ErrMalformedJoin is returned when a join descriptor is missing a required field
	ErrMalformedJoin = errors.New("malformed join")

	// ErrMalformedFilter is returned when request parameters cannot be mapped onto a filter shape
	ErrMalformedFilter = errors.New("malformed filter")
)

// IsUnsafeIdentifier checks if an error is ErrUnsafeIdentifier
func IsUnsafeIdentifier(err error) bool {
	return errors.Is(err, ErrUnsafeIdentifier)
}

// IsUnsupportedOperator checks if an error is ErrUnsupportedOperator
func IsUnsupportedOperator(err error) bool {
	return errors.Is(err, ErrUnsupportedOperator)
}

// IsMalformedJoin checks if an error is ErrMalformedJoin
func IsMalformedJoin(err error) bool {
	return errors.Is(err, ErrMalformedJoin)
}

// IsMalformedFilter checks if an error is ErrMalformedFilter
func IsMalformedFilter(err error) bool {
	return errors.Is(err, ErrMalformedFilter)
}

// IsClientError reports whether err was caused by caller-supplied input
// rather than by the database or the cache.
func IsClientError(err error) bool {
	return IsUnsafeIdentifier(err) || IsUnsupportedOperator(err) || IsMalformedJoin(err) || IsMalformedFilter(err)
}
