package repository

import (
	"errors"
	"fmt"

	"github.com/ammar0144/recordsapi/pkg/query"
)

var (
	// ErrNotFound is returned when no row matches a primary key
	ErrNotFound = errors.New("record not found")

	// ErrColumnNotAllowed is returned for filter or sort columns a resource does not expose.
	// It wraps query.ErrMalformedFilter so it is reported as a client error.
	ErrColumnNotAllowed = fmt.Errorf("%w: column not allowed", query.ErrMalformedFilter)

	// ErrJoinNotAllowed is returned for join targets a resource does not expose
	ErrJoinNotAllowed = fmt.Errorf("%w: join target not allowed", query.ErrMalformedJoin)
)

// IsNotFound checks if an error is ErrNotFound
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
