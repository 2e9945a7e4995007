package query

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Query string parameter names understood by ParseRequest
const (
	ParamPage      = "page"
	ParamLimit     = "limit"
	ParamSortBy    = "sortBy"
	ParamSortOrder = "sortOrder"
	ParamJoins     = "joins"
	ParamFilters   = "filters"

	filterPrefix = "filter["
)

// Request is the list request decoded from a query string
type Request struct {
	Filters    Filters
	Sort       Sort
	Pagination Pagination
	Joins      []Join
}

// ParseRequest decodes filters, sort, pagination and joins from a raw query
// string. Pagination is lenient; malformed filters or joins fail.
//
// Filters come from `filter[...]` parameters followed by the entries of an
// optional `filters` JSON object.
func ParseRequest(rawQuery string) (Request, error) {
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return Request{}, fmt.Errorf("%w: %v", ErrMalformedFilter, err)
	}

	filters, err := ParseFilters(rawQuery)
	if err != nil {
		return Request{}, err
	}
	if raw := values.Get(ParamFilters); raw != "" {
		more, err := ParseFiltersJSON([]byte(raw))
		if err != nil {
			return Request{}, err
		}
		filters = append(filters, more...)
	}

	req := Request{
		Filters:    filters,
		Sort:       ParseSort(values),
		Pagination: ParsePagination(values),
	}

	if raw := values.Get(ParamJoins); raw != "" {
		req.Joins, err = ParseJoinsJSON([]byte(raw))
		if err != nil {
			return Request{}, err
		}
	}

	return req, nil
}

// ParsePagination reads page and limit. Values that are not integers are
// left at zero and normalized later.
func ParsePagination(values url.Values) Pagination {
	page, _ := strconv.Atoi(values.Get(ParamPage))
	limit, _ := strconv.Atoi(values.Get(ParamLimit))
	return Pagination{Page: page, Limit: limit}
}

// ParseSort reads sortBy and sortOrder
func ParseSort(values url.Values) Sort {
	return Sort{
		Column: values.Get(ParamSortBy),
		Order:  ParseSortOrder(values.Get(ParamSortOrder)),
	}
}

// filterParts accumulates the bracketed parameters seen for one column
type filterParts struct {
	eq      []string
	in      []string
	between []string
	op      string
	value   *string
}

// ParseFilters decodes `filter[...]` parameters from a raw query string.
// Columns keep the order of their first appearance:
//
//	filter[status]=active              status = ?
//	filter[status][in]=a,b             status IN (?, ?)
//	filter[age][between]=30,40         age BETWEEN ? AND ?
//	filter[score][op]=>=&filter[score][value]=50
//
// Column names are not validated here; the builder does that.
func ParseFilters(rawQuery string) (Filters, error) {
	var order []string
	parts := make(map[string]*filterParts)

	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedFilter, err)
		}
		if !strings.HasPrefix(key, filterPrefix) {
			continue
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedFilter, err)
		}

		column, modifier, err := splitFilterKey(key)
		if err != nil {
			return nil, err
		}

		p, ok := parts[column]
		if !ok {
			p = &filterParts{}
			parts[column] = p
			order = append(order, column)
		}

		switch modifier {
		case "":
			p.eq = append(p.eq, value)
		case "in":
			p.in = append(p.in, splitList(value)...)
		case "between":
			p.between = append(p.between, splitList(value)...)
		case "op":
			p.op = value
		case "value":
			v := value
			p.value = &v
		default:
			return nil, fmt.Errorf("%w: unknown modifier %q for %q", ErrMalformedFilter, modifier, column)
		}
	}

	filters := make(Filters, 0, len(order))
	for _, column := range order {
		fv, err := parts[column].resolve(column)
		if err != nil {
			return nil, err
		}
		filters = filters.Add(column, fv)
	}
	return filters, nil
}

// resolve decides the filter shape for the accumulated parts
func (p *filterParts) resolve(column string) (FilterValue, error) {
	switch {
	case len(p.between) > 0:
		if len(p.between) != 2 {
			return nil, fmt.Errorf("%w: between on %q needs exactly 2 values, got %d", ErrMalformedFilter, column, len(p.between))
		}
		return Between{Low: p.between[0], High: p.between[1]}, nil
	case len(p.in) > 0:
		return InList{Values: toAny(p.in)}, nil
	case p.op != "" || p.value != nil:
		if p.value == nil {
			return nil, fmt.Errorf("%w: operator on %q has no value", ErrMalformedFilter, column)
		}
		op := p.op
		if op == "" {
			op = string(Equal)
		}
		return Comparison{Operator: op, Value: *p.value}, nil
	case len(p.eq) > 1:
		return InList{Values: toAny(p.eq)}, nil
	case len(p.eq) == 1:
		return Scalar{V: p.eq[0]}, nil
	}
	return nil, nil
}

// splitFilterKey splits `filter[col]` or `filter[col][mod]`
func splitFilterKey(key string) (column, modifier string, err error) {
	rest := strings.TrimPrefix(key, filterPrefix)
	column, rest, ok := strings.Cut(rest, "]")
	if !ok || column == "" {
		return "", "", fmt.Errorf("%w: bad filter key %q", ErrMalformedFilter, key)
	}
	if rest == "" {
		return column, "", nil
	}
	if !strings.HasPrefix(rest, "[") || !strings.HasSuffix(rest, "]") {
		return "", "", fmt.Errorf("%w: bad filter key %q", ErrMalformedFilter, key)
	}
	return column, strings.ToLower(rest[1 : len(rest)-1]), nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	items := strings.Split(s, ",")
	for i := range items {
		items[i] = strings.TrimSpace(items[i])
	}
	return items
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// ParseFiltersJSON decodes a JSON object of filters, keeping key order.
// Each value is classified once:
//
//	null                          no filter
//	[...]                         IN
//	{"between": [lo, hi]}         BETWEEN
//	{"operator": op, "value": v}  comparison
//	anything else                 equality
func ParseFiltersJSON(data []byte) (Filters, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFilter, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("%w: filters must be a JSON object", ErrMalformedFilter)
	}

	var filters Filters
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedFilter, err)
		}
		column, _ := tok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedFilter, err)
		}

		fv, err := classifyJSON(column, raw)
		if err != nil {
			return nil, err
		}
		filters = filters.Add(column, fv)
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFilter, err)
	}
	return filters, nil
}

func classifyJSON(column string, raw json.RawMessage) (FilterValue, error) {
	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFilter, err)
	}

	switch val := v.(type) {
	case nil:
		return nil, nil
	case []any:
		return InList{Values: val}, nil
	case map[string]any:
		if between, ok := val["between"]; ok {
			bounds, ok := between.([]any)
			if !ok || len(bounds) != 2 {
				return nil, fmt.Errorf("%w: between on %q needs exactly 2 values", ErrMalformedFilter, column)
			}
			return Between{Low: bounds[0], High: bounds[1]}, nil
		}
		if op, ok := val["operator"]; ok {
			opStr, ok := op.(string)
			if !ok {
				return nil, fmt.Errorf("%w: operator on %q must be a string", ErrMalformedFilter, column)
			}
			return Comparison{Operator: opStr, Value: val["value"]}, nil
		}
		return Scalar{V: string(raw)}, nil
	default:
		return Scalar{V: val}, nil
	}
}

// ParseJoinsJSON decodes a JSON array of join descriptors. Validation happens
// when the joins are built.
func ParseJoinsJSON(data []byte) ([]Join, error) {
	var joins []Join
	if err := json.Unmarshal(data, &joins); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJoin, err)
	}
	return joins, nil
}
