package graphdb

import (
	"fmt"
	"time"
)

// Kind identifies which variant of a ColumnValue is populated.
type Kind uint8

const (
	KindUnset Kind = iota
	KindNull
	KindInt
	KindLong
	KindString
	KindTimestamp
	KindDouble
	KindBool
	KindOID
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindLong:
		return "long"
	case KindString:
		return "string"
	case KindTimestamp:
		return "timestamp"
	case KindDouble:
		return "double"
	case KindBool:
		return "bool"
	case KindOID:
		return "oid"
	default:
		return "unset"
	}
}

// ColumnValue is one cell of an engine result row. The set of variants is closed:
// only the types declared in this file implement it. A nil ColumnValue means the
// engine sent a cell with no variant populated.
type ColumnValue interface {
	Kind() Kind
	// Native returns the Go value carried by the variant.
	Native() any
	sealed()
}

type (
	// Null is the explicit null variant.
	Null struct{}
	// Int is the 32-bit integer variant.
	Int int32
	// Long is the 64-bit integer variant.
	Long int64
	// String is the string variant.
	String string
	// Timestamp is the timestamp variant, always normalized to UTC.
	Timestamp time.Time
	// Double is the float64 variant.
	Double float64
	// Bool is the boolean variant.
	Bool bool
	// OID is an engine object identifier (node or edge id).
	OID int64
)

func (Null) Kind() Kind      { return KindNull }
func (Int) Kind() Kind       { return KindInt }
func (Long) Kind() Kind      { return KindLong }
func (String) Kind() Kind    { return KindString }
func (Timestamp) Kind() Kind { return KindTimestamp }
func (Double) Kind() Kind    { return KindDouble }
func (Bool) Kind() Kind      { return KindBool }
func (OID) Kind() Kind       { return KindOID }

func (Null) Native() any        { return nil }
func (v Int) Native() any       { return int32(v) }
func (v Long) Native() any      { return int64(v) }
func (v String) Native() any    { return string(v) }
func (v Timestamp) Native() any { return time.Time(v).UTC() }
func (v Double) Native() any    { return float64(v) }
func (v Bool) Native() any      { return bool(v) }
func (v OID) Native() any       { return int64(v) }

func (Null) sealed()      {}
func (Int) sealed()       {}
func (Long) sealed()      {}
func (String) sealed()    {}
func (Timestamp) sealed() {}
func (Double) sealed()    {}
func (Bool) sealed()      {}
func (OID) sealed()       {}

// Decode converts a wire cell into its Go value. Unset cells decode to nil.
func Decode(v ColumnValue) any {
	if v == nil {
		return nil
	}
	return v.Native()
}

// Row is one result row, ordered like the projection of the statement that
// produced it.
type Row []ColumnValue

// Values decodes every cell of the row.
func (r Row) Values() []any {
	out := make([]any, len(r))
	for i, cv := range r {
		out[i] = Decode(cv)
	}
	return out
}

// ValueOf builds a ColumnValue from a Go scalar. It is the inverse of Decode and is
// mostly useful for fakes and tests.
func ValueOf(v any) (ColumnValue, error) {
	switch x := v.(type) {
	case nil:
		return Null{}, nil
	case ColumnValue:
		return x, nil
	case int32:
		return Int(x), nil
	case int:
		return Long(x), nil
	case int64:
		return Long(x), nil
	case string:
		return String(x), nil
	case time.Time:
		return Timestamp(x.UTC()), nil
	case float64:
		return Double(x), nil
	case bool:
		return Bool(x), nil
	default:
		return nil, fmt.Errorf("graphdb: no column variant for %T", v)
	}
}

// MustRow builds a Row from Go scalars and panics on unsupported types.
func MustRow(values ...any) Row {
	row := make(Row, len(values))
	for i, v := range values {
		cv, err := ValueOf(v)
		if err != nil {
			panic(err)
		}
		row[i] = cv
	}
	return row
}
