package query

// FilterValue is the already-disambiguated value of a single filter entry.
// It is one of Scalar, InList, Between or Comparison; the shape is decided
// once, where the request is parsed, and never sniffed again by the builder.
type FilterValue interface {
	isFilterValue()
}

// Scalar filters a column by equality. A nil V means no filter.
type Scalar struct {
	V any
}

// InList filters a column against a list of values (IN clause).
type InList struct {
	Values []any
}

// Between filters a column to an inclusive range.
type Between struct {
	Low  any
	High any
}

// Comparison filters a column with one of the supported operators.
// Operator is validated when the clause is built.
type Comparison struct {
	Operator string
	Value    any
}

func (Scalar) isFilterValue()     {}
func (InList) isFilterValue()     {}
func (Between) isFilterValue()    {}
func (Comparison) isFilterValue() {}

// Filter is one column/value pair of a filter set
type Filter struct {
	Column string
	Value  FilterValue
}

// Filters is an ordered filter set. Clause and parameter order in the
// generated fragment follow the order of this slice.
type Filters []Filter

// Add appends a filter and returns the set for chaining
func (f Filters) Add(column string, value FilterValue) Filters {
	return append(f, Filter{Column: column, Value: value})
}

// Eq is shorthand for an equality filter
func Eq(v any) FilterValue { return Scalar{V: v} }

// In is shorthand for an IN filter
func In(values ...any) FilterValue { return InList{Values: values} }

// Range is shorthand for a BETWEEN filter
func Range(low, high any) FilterValue { return Between{Low: low, High: high} }

// Cmp is shorthand for an operator comparison
func Cmp(op string, v any) FilterValue { return Comparison{Operator: op, Value: v} }

// isEmpty reports whether the value should be treated as "no filter"
func isEmpty(v FilterValue) bool {
	switch fv := v.(type) {
	case nil:
		return true
	case Scalar:
		return fv.V == nil
	case InList:
		return len(fv.Values) == 0
	}
	return false
}
