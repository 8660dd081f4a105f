package graphdb

import (
	"fmt"
	"reflect"
	"strings"
)

// SchemaTag is the struct tag that binds a field to a result column.
const SchemaTag = "graph"

// Schema is the ordered list of fields of T that result columns are mapped onto.
// The Nth column of a row goes to the Nth tagged field, whatever the column is
// called in the statement.
type Schema[T any] struct {
	names   []string
	indexes [][]int
}

// NewSchema builds the schema of T from its `graph:"name"` tags in declaration
// order. Fields tagged "-" and untagged fields are skipped.
func NewSchema[T any]() (Schema[T], error) {
	var zero T
	rt := reflect.TypeOf(zero)
	if rt == nil || rt.Kind() != reflect.Struct {
		return Schema[T]{}, fmt.Errorf("graphdb: schema target %T is not a struct", zero)
	}

	var s Schema[T]
	for _, f := range reflect.VisibleFields(rt) {
		if !f.IsExported() || f.Anonymous {
			continue
		}
		tag, ok := f.Tag.Lookup(SchemaTag)
		if !ok {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		s.names = append(s.names, name)
		s.indexes = append(s.indexes, f.Index)
	}
	if len(s.names) == 0 {
		return Schema[T]{}, fmt.Errorf("graphdb: %s has no %q tagged fields", rt, SchemaTag)
	}
	return s, nil
}

// MustSchema is like NewSchema but panics on error. Use it for package-level schemas.
func MustSchema[T any]() Schema[T] {
	s, err := NewSchema[T]()
	if err != nil {
		panic(err)
	}
	return s
}

// Fields returns the column names in order.
func (s Schema[T]) Fields() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Len returns the number of columns a row must carry.
func (s Schema[T]) Len() int { return len(s.names) }

// MapRow decodes one row into a T.
func MapRow[T any](row Row, schema Schema[T]) (T, error) {
	var rec T
	if len(row) != schema.Len() {
		return rec, fmt.Errorf("graphdb: row has %d columns, schema %v has %d: %w",
			len(row), schema.names, schema.Len(), ErrColumnMismatch)
	}

	rv := reflect.ValueOf(&rec).Elem()
	for i, cv := range row {
		value := Decode(cv)
		if value == nil {
			continue
		}
		field := rv.FieldByIndex(schema.indexes[i])
		if err := assign(field, value); err != nil {
			return rec, fmt.Errorf("graphdb: column %q: %w", schema.names[i], err)
		}
	}
	return rec, nil
}

// MapRows decodes every row, preserving row order. The first bad row fails the
// whole batch.
func MapRows[T any](rows []Row, schema Schema[T]) ([]T, error) {
	out := make([]T, 0, len(rows))
	for i, row := range rows {
		rec, err := MapRow(row, schema)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func assign(field reflect.Value, value any) error {
	if field.Kind() == reflect.Pointer {
		ptr := reflect.New(field.Type().Elem())
		if err := assign(ptr.Elem(), value); err != nil {
			return err
		}
		field.Set(ptr)
		return nil
	}

	v := reflect.ValueOf(value)
	ft := field.Type()
	switch {
	case v.Type().AssignableTo(ft):
		field.Set(v)
	case ft.Kind() == reflect.Interface && v.Type().Implements(ft):
		field.Set(v)
	case convertible(v.Kind(), ft.Kind()) && v.Type().ConvertibleTo(ft):
		field.Set(v.Convert(ft))
	default:
		return fmt.Errorf("cannot assign %T to field of type %s", value, ft)
	}
	return nil
}

// convertible limits reflect conversions to the same family so that, for
// example, an integer never silently becomes a one-rune string.
func convertible(from, to reflect.Kind) bool {
	switch {
	case isInt(from):
		return isInt(to) || isFloat(to)
	case isFloat(from):
		return isFloat(to)
	case from == reflect.String:
		return to == reflect.String
	case from == reflect.Bool:
		return to == reflect.Bool
	}
	return false
}

func isInt(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}
