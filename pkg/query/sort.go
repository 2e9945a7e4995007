package query

import (
	"fmt"
	"strings"
)

// SortOrder is the direction of an ORDER BY clause
type SortOrder string

const (
	Asc  SortOrder = "ASC"
	Desc SortOrder = "DESC"
)

// Sort describes a single ORDER BY column
type Sort struct {
	Column string    `json:"column" yaml:"column"`
	Order  SortOrder `json:"order" yaml:"order"`
}

// ParseSortOrder coerces order to ASC or DESC. Anything unrecognized is ASC.
func ParseSortOrder(order string) SortOrder {
	if strings.EqualFold(strings.TrimSpace(order), string(Desc)) {
		return Desc
	}
	return Asc
}

// BuildSortQuery appends `ORDER BY <column> <ASC|DESC>` to the trimmed base
// query. An empty sortBy leaves the query unchanged.
func BuildSortQuery(baseQuery, sortBy, sortOrder string) (string, error) {
	base := strings.TrimSpace(baseQuery)
	if sortBy == "" {
		return base, nil
	}

	column, err := SanitizeIdentifier(sortBy)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s ORDER BY %s %s", base, column, ParseSortOrder(sortOrder)), nil
}
