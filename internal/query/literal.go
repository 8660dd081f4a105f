// Package query builds statement text for the graph engine's two dialects.
//
// Everything here is a pure function of its inputs. Values are rendered as
// literals: strings are single-quoted with backslash escapes, integers are
// emitted bare, and integers used as node or edge identifiers in VALUES tables
// carry the long suffix ("42L").
package query

import (
	"fmt"
	"strconv"
	"strings"
)

var quoteReplacer = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// Quote renders s as a single-quoted string literal.
func Quote(s string) string {
	return "'" + quoteReplacer.Replace(s) + "'"
}

// Long renders v as a long-integer literal.
func Long(v int64) string {
	return strconv.FormatInt(v, 10) + "L"
}

// Literal renders a filter value. Strings are quoted, integers are bare. Pointers
// are dereferenced; ok is false for nil and nil pointers, which callers omit.
func Literal(v any) (lit string, ok bool, err error) {
	switch x := v.(type) {
	case nil:
		return "", false, nil
	case string:
		return Quote(x), true, nil
	case int:
		return strconv.Itoa(x), true, nil
	case int32:
		return strconv.FormatInt(int64(x), 10), true, nil
	case int64:
		return strconv.FormatInt(x, 10), true, nil
	case *string:
		if x == nil {
			return "", false, nil
		}
		return Quote(*x), true, nil
	case *int:
		if x == nil {
			return "", false, nil
		}
		return strconv.Itoa(*x), true, nil
	case *int32:
		if x == nil {
			return "", false, nil
		}
		return strconv.FormatInt(int64(*x), 10), true, nil
	case *int64:
		if x == nil {
			return "", false, nil
		}
		return strconv.FormatInt(*x, 10), true, nil
	default:
		return "", false, fmt.Errorf("query: unsupported filter value %T", v)
	}
}

// ColumnType is a VALUES table column type.
type ColumnType string

const (
	TypeLong   ColumnType = "LONG"
	TypeString ColumnType = "STRING"
)

// Values renders an inline VALUES table. Each row must have one cell per column:
// int64 or int for LONG columns, string for STRING columns. A nil cell renders NULL.
//
//	Values([]ColumnType{TypeLong, TypeString}, []any{int64(3), "x"}) == "VALUES([LONG, STRING], [[3L, 'x']])"
func Values(columns []ColumnType, rows ...[]any) (string, error) {
	types := make([]string, len(columns))
	for i, c := range columns {
		types[i] = string(c)
	}

	rendered := make([]string, len(rows))
	for r, row := range rows {
		if len(row) != len(columns) {
			return "", fmt.Errorf("query: VALUES row %d has %d cells, want %d", r, len(row), len(columns))
		}
		cells := make([]string, len(row))
		for i, cell := range row {
			lit, err := valuesCell(columns[i], cell)
			if err != nil {
				return "", fmt.Errorf("query: VALUES row %d column %d: %w", r, i, err)
			}
			cells[i] = lit
		}
		rendered[r] = "[" + strings.Join(cells, ", ") + "]"
	}

	return "VALUES([" + strings.Join(types, ", ") + "], [" + strings.Join(rendered, ", ") + "])", nil
}

// LongValues renders a VALUES table whose columns are all LONG.
func LongValues(rows ...[]int64) string {
	if len(rows) == 0 {
		return "VALUES([], [])"
	}
	columns := make([]string, len(rows[0]))
	for i := range columns {
		columns[i] = string(TypeLong)
	}
	rendered := make([]string, len(rows))
	for r, row := range rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = Long(v)
		}
		rendered[r] = "[" + strings.Join(cells, ", ") + "]"
	}
	return "VALUES([" + strings.Join(columns, ", ") + "], [" + strings.Join(rendered, ", ") + "])"
}

func valuesCell(column ColumnType, cell any) (string, error) {
	if cell == nil {
		return "NULL", nil
	}
	switch column {
	case TypeLong:
		switch v := cell.(type) {
		case int64:
			return Long(v), nil
		case int:
			return Long(int64(v)), nil
		}
	case TypeString:
		if v, ok := cell.(string); ok {
			return Quote(v), nil
		}
	}
	return "", fmt.Errorf("cannot render %T as %s", cell, column)
}
