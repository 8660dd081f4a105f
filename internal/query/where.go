package query

import "strings"

// OrGroup builds a parenthesized disjunction of equality terms on one field:
//
//	OrGroup("country.name", []string{"KZ", "DE"}) == "(country.name='KZ' OR country.name='DE')"
//
// The pattern dialect has no list membership operator, so inclusion filters are
// spelled out this way. An empty or nil list yields "", meaning no clause.
func OrGroup(field string, values []string) string {
	if len(values) == 0 {
		return ""
	}
	terms := make([]string, len(values))
	for i, v := range values {
		terms[i] = field + "=" + Quote(v)
	}
	return "(" + strings.Join(terms, " OR ") + ")"
}

// ComposeWhere joins three optional clauses into a WHERE clause. An empty string
// means the clause is absent.
//
//   - all present: WHERE a AND b AND c
//   - all absent: no WHERE clause at all
//   - otherwise: WHERE followed by the present clauses joined with AND
func ComposeWhere(a, b, c string) string {
	switch {
	case a != "" && b != "" && c != "":
		return "WHERE " + a + " AND " + b + " AND " + c
	case a == "" && b == "" && c == "":
		return ""
	default:
		present := make([]string, 0, 2)
		for _, clause := range []string{a, b, c} {
			if clause != "" {
				present = append(present, clause)
			}
		}
		return "WHERE " + strings.Join(present, " AND ")
	}
}
