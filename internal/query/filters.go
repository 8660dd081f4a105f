package query

import "fmt"

// Filter is one equality condition on an entity property.
type Filter struct {
	Field string
	Value any
}

// Filters is an ordered set of equality conditions. Order is kept in the rendered
// statement so that statement text is deterministic.
type Filters []Filter

// Where starts a filter set with one condition.
func Where(field string, value any) Filters {
	return Filters{{Field: field, Value: value}}
}

// And appends a condition.
func (f Filters) And(field string, value any) Filters {
	return append(f, Filter{Field: field, Value: value})
}

type term struct {
	field   string
	literal string
}

// terms renders every filter with a non-nil value.
func (f Filters) terms() ([]term, error) {
	out := make([]term, 0, len(f))
	for _, filter := range f {
		lit, ok, err := Literal(filter.Value)
		if err != nil {
			return nil, fmt.Errorf("filter %q: %w", filter.Field, err)
		}
		if !ok {
			continue
		}
		out = append(out, term{field: filter.Field, literal: lit})
	}
	return out, nil
}
