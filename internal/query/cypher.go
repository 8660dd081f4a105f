package query

import "strings"

// CypherProperties builds the body of a property map used inside a node pattern:
//
//	name: 'Airline', rank: 3
//
// Filters with nil values are left out. The result is empty when nothing is left.
func CypherProperties(filters Filters) (string, error) {
	terms, err := filters.terms()
	if err != nil {
		return "", err
	}
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = t.field + ": " + t.literal
	}
	return strings.Join(parts, ", "), nil
}

// NodePattern builds a node pattern such as (t:TSP_TYPE { name: 'Airline' }).
func NodePattern(variable, label string, filters Filters) (string, error) {
	props, err := CypherProperties(filters)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("(")
	b.WriteString(variable)
	b.WriteString(":")
	b.WriteString(label)
	if props != "" {
		b.WriteString(" { ")
		b.WriteString(props)
		b.WriteString(" }")
	}
	b.WriteString(")")
	return b.String(), nil
}
