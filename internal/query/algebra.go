package query

import "strings"

// Property renders an algebra attribute reference such as 'TSP'.'name'.
func Property(entity, field string) string {
	return Quote(entity) + "." + Quote(field)
}

// Properties renders a bracketed attribute list such as ['TSP'.'id', 'TSP'.'name'].
// An empty field renders NULL, which leaves that column of a VALUES table unused.
func Properties(entity string, fields ...string) string {
	refs := make([]string, len(fields))
	for i, f := range fields {
		if f == "" {
			refs[i] = "NULL"
			continue
		}
		refs[i] = Property(entity, f)
	}
	return "[" + strings.Join(refs, ", ") + "]"
}

// AlgebraMatch builds the statement that selects entity nodes by equality
// filters. With no effective filter it is a full scan:
//
//	GRAPH::SCAN('TSP')
//	GRAPH::SELECT('TSP'.'id' = 'abc' AND 'TSP'.'rank' = 3)
func AlgebraMatch(entity string, filters Filters) (string, error) {
	terms, err := filters.terms()
	if err != nil {
		return "", err
	}
	if len(terms) == 0 {
		return "GRAPH::SCAN(" + Quote(entity) + ")", nil
	}

	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = Property(entity, t.field) + " = " + t.literal
	}
	return "GRAPH::SELECT(" + strings.Join(parts, " AND ") + ")", nil
}

// LetBuilder assembles an algebra LET ... IN block. Bindings are rendered in the
// order they were added.
type LetBuilder struct {
	names []string
	exprs []string
}

// Let starts a LET block.
func Let() *LetBuilder {
	return &LetBuilder{}
}

// Bind adds "@name = expr". The name is given without the @ sigil.
func (b *LetBuilder) Bind(name, expr string) *LetBuilder {
	b.names = append(b.names, name)
	b.exprs = append(b.exprs, expr)
	return b
}

// In closes the block with the binding whose value is returned.
func (b *LetBuilder) In(name string) string {
	var sb strings.Builder
	sb.WriteString("LET\n")
	for i := range b.names {
		sb.WriteString("    @")
		sb.WriteString(b.names[i])
		sb.WriteString(" = ")
		sb.WriteString(b.exprs[i])
		if i < len(b.names)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("IN\n    @")
	sb.WriteString(name)
	return sb.String()
}
