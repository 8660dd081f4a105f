package sparksee

import (
	"errors"
	"fmt"
	"math"
	"time"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/ArystanIgen/master-thesis-files/internal/graphdb"
)

// Field numbers, see api/sparksee_server.proto.
const (
	fieldSessionID = 1

	fieldQuerySession = 1
	fieldQueryAlgebra = 2
	fieldQueryCypher  = 3

	fieldQueryIDValue = 1

	fieldResultSetSession = 1
	fieldResultSetQueryID = 2

	fieldRowsArgsID      = 1
	fieldRowsArgsMaxRows = 2

	fieldResultRowsRows = 1
	fieldRowValues      = 1

	fieldValueNull      = 1
	fieldValueInt       = 2
	fieldValueLong      = 3
	fieldValueString    = 4
	fieldValueTimestamp = 5
	fieldValueDouble    = 6
	fieldValueBool      = 7
	fieldValueOID       = 8

	fieldTimestampSeconds = 1
	fieldTimestampNanos   = 2
)

var errWireType = errors.New("sparksee: unexpected wire type")

// message is implemented by every request and response type exchanged with the
// engine. Messages are encoded by hand with protowire so that no generated code
// is needed.
type message interface {
	marshal() []byte
	unmarshal(b []byte) error
}

// ============================================================================
// MESSAGES
// ============================================================================

type emptyMsg struct{}

func (*emptyMsg) marshal() []byte { return nil }

func (*emptyMsg) unmarshal(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		return skip(num, typ, b)
	})
}

type sessionMsg struct {
	ID int64
}

func (m *sessionMsg) marshal() []byte {
	var b []byte
	b = appendInt64(b, fieldSessionID, m.ID)
	return b
}

func (m *sessionMsg) unmarshal(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == fieldSessionID {
			v, n, err := consumeVarint(typ, b)
			m.ID = int64(v)
			return n, err
		}
		return skip(num, typ, b)
	})
}

type queryMsg struct {
	Session sessionMsg
	Dialect graphdb.Dialect
	Text    string
}

func (m *queryMsg) marshal() []byte {
	var b []byte
	b = appendMessage(b, fieldQuerySession, &m.Session)
	if m.Dialect == graphdb.DialectCypher {
		b = appendString(b, fieldQueryCypher, m.Text)
	} else {
		b = appendString(b, fieldQueryAlgebra, m.Text)
	}
	return b
}

func (m *queryMsg) unmarshal(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fieldQuerySession:
			return consumeMessage(typ, b, &m.Session)
		case fieldQueryAlgebra, fieldQueryCypher:
			s, n, err := consumeString(typ, b)
			m.Text = s
			m.Dialect = graphdb.DialectAlgebra
			if num == fieldQueryCypher {
				m.Dialect = graphdb.DialectCypher
			}
			return n, err
		}
		return skip(num, typ, b)
	})
}

type queryIDMsg struct {
	QueryID int64
}

func (m *queryIDMsg) marshal() []byte {
	return appendInt64(nil, fieldQueryIDValue, m.QueryID)
}

func (m *queryIDMsg) unmarshal(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == fieldQueryIDValue {
			v, n, err := consumeVarint(typ, b)
			m.QueryID = int64(v)
			return n, err
		}
		return skip(num, typ, b)
	})
}

type resultSetIDMsg struct {
	Session sessionMsg
	QueryID int64
}

func (m *resultSetIDMsg) marshal() []byte {
	var b []byte
	b = appendMessage(b, fieldResultSetSession, &m.Session)
	b = appendInt64(b, fieldResultSetQueryID, m.QueryID)
	return b
}

func (m *resultSetIDMsg) unmarshal(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fieldResultSetSession:
			return consumeMessage(typ, b, &m.Session)
		case fieldResultSetQueryID:
			v, n, err := consumeVarint(typ, b)
			m.QueryID = int64(v)
			return n, err
		}
		return skip(num, typ, b)
	})
}

type resultRowsArgsMsg struct {
	ID      resultSetIDMsg
	MaxRows int32
}

func (m *resultRowsArgsMsg) marshal() []byte {
	var b []byte
	b = appendMessage(b, fieldRowsArgsID, &m.ID)
	b = appendInt64(b, fieldRowsArgsMaxRows, int64(m.MaxRows))
	return b
}

func (m *resultRowsArgsMsg) unmarshal(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fieldRowsArgsID:
			return consumeMessage(typ, b, &m.ID)
		case fieldRowsArgsMaxRows:
			v, n, err := consumeVarint(typ, b)
			m.MaxRows = int32(v)
			return n, err
		}
		return skip(num, typ, b)
	})
}

type resultRowsMsg struct {
	Rows []graphdb.Row
}

func (m *resultRowsMsg) marshal() []byte {
	var b []byte
	for _, row := range m.Rows {
		r := rowMsg{Values: row}
		b = appendMessage(b, fieldResultRowsRows, &r)
	}
	return b
}

func (m *resultRowsMsg) unmarshal(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == fieldResultRowsRows {
			var r rowMsg
			n, err := consumeMessage(typ, b, &r)
			if err == nil {
				m.Rows = append(m.Rows, r.Values)
			}
			return n, err
		}
		return skip(num, typ, b)
	})
}

type rowMsg struct {
	Values graphdb.Row
}

func (m *rowMsg) marshal() []byte {
	var b []byte
	for _, v := range m.Values {
		cv := columnValueMsg{Value: v}
		b = appendMessage(b, fieldRowValues, &cv)
	}
	return b
}

func (m *rowMsg) unmarshal(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == fieldRowValues {
			var cv columnValueMsg
			n, err := consumeMessage(typ, b, &cv)
			if err == nil {
				m.Values = append(m.Values, cv.Value)
			}
			return n, err
		}
		return skip(num, typ, b)
	})
}

// columnValueMsg is the tagged union cell. The oneof field number selects the
// variant; a cell with no known field decodes to a nil ColumnValue.
type columnValueMsg struct {
	Value graphdb.ColumnValue
}

func (m *columnValueMsg) marshal() []byte {
	var b []byte
	switch v := m.Value.(type) {
	case graphdb.Null:
		b = appendBool(b, fieldValueNull, true)
	case graphdb.Int:
		b = appendVarint(b, fieldValueInt, uint64(int64(v)))
	case graphdb.Long:
		b = appendVarint(b, fieldValueLong, uint64(v))
	case graphdb.String:
		b = appendString(b, fieldValueString, string(v))
	case graphdb.Timestamp:
		ts := timestampMsg{Time: time.Time(v)}
		b = appendMessage(b, fieldValueTimestamp, &ts)
	case graphdb.Double:
		b = protowire.AppendTag(b, fieldValueDouble, protowire.Fixed64Type)
		b = protowire.AppendFixed64(b, math.Float64bits(float64(v)))
	case graphdb.Bool:
		b = appendBool(b, fieldValueBool, bool(v))
	case graphdb.OID:
		b = appendVarint(b, fieldValueOID, uint64(v))
	}
	return b
}

func (m *columnValueMsg) unmarshal(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fieldValueNull:
			_, n, err := consumeVarint(typ, b)
			m.Value = graphdb.Null{}
			return n, err
		case fieldValueInt:
			v, n, err := consumeVarint(typ, b)
			m.Value = graphdb.Int(int32(v))
			return n, err
		case fieldValueLong:
			v, n, err := consumeVarint(typ, b)
			m.Value = graphdb.Long(int64(v))
			return n, err
		case fieldValueString:
			s, n, err := consumeString(typ, b)
			m.Value = graphdb.String(s)
			return n, err
		case fieldValueTimestamp:
			var ts timestampMsg
			n, err := consumeMessage(typ, b, &ts)
			m.Value = graphdb.Timestamp(ts.Time)
			return n, err
		case fieldValueDouble:
			if typ != protowire.Fixed64Type {
				return 0, fmt.Errorf("%w: field %d", errWireType, num)
			}
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return 0, protowire.ParseError(n)
			}
			m.Value = graphdb.Double(math.Float64frombits(v))
			return n, nil
		case fieldValueBool:
			v, n, err := consumeVarint(typ, b)
			m.Value = graphdb.Bool(protowire.DecodeBool(v))
			return n, err
		case fieldValueOID:
			v, n, err := consumeVarint(typ, b)
			m.Value = graphdb.OID(int64(v))
			return n, err
		}
		return skip(num, typ, b)
	})
}

type timestampMsg struct {
	Time time.Time
}

func (m *timestampMsg) marshal() []byte {
	var b []byte
	b = appendInt64(b, fieldTimestampSeconds, m.Time.Unix())
	b = appendInt64(b, fieldTimestampNanos, int64(m.Time.Nanosecond()))
	return b
}

func (m *timestampMsg) unmarshal(b []byte) error {
	var seconds, nanos int64
	err := walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fieldTimestampSeconds:
			v, n, err := consumeVarint(typ, b)
			seconds = int64(v)
			return n, err
		case fieldTimestampNanos:
			v, n, err := consumeVarint(typ, b)
			nanos = int64(int32(v))
			return n, err
		}
		return skip(num, typ, b)
	})
	m.Time = time.Unix(seconds, nanos).UTC()
	return err
}

// ============================================================================
// ENCODING HELPERS
// ============================================================================

// appendInt64 follows proto3 scalar rules and leaves zero values out.
func appendInt64(b []byte, num protowire.Number, v int64) []byte {
	if v == 0 {
		return b
	}
	return appendVarint(b, num, uint64(v))
}

// appendVarint always writes the field. Oneof members need this to stay set
// when they hold a zero value.
func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeBool(v))
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendMessage(b []byte, num protowire.Number, m message) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, m.marshal())
}

// walk calls fn for every field in b. fn returns how many bytes of the value it
// consumed.
func walk(b []byte, fn func(num protowire.Number, typ protowire.Type, b []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		m, err := fn(num, typ, b)
		if err != nil {
			return err
		}
		b = b[m:]
	}
	return nil
}

func skip(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	n := protowire.ConsumeFieldValue(num, typ, b)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	return n, nil
}

func consumeVarint(typ protowire.Type, b []byte) (uint64, int, error) {
	if typ != protowire.VarintType {
		return 0, 0, errWireType
	}
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, 0, protowire.ParseError(n)
	}
	return v, n, nil
}

func consumeString(typ protowire.Type, b []byte) (string, int, error) {
	if typ != protowire.BytesType {
		return "", 0, errWireType
	}
	s, n := protowire.ConsumeString(b)
	if n < 0 {
		return "", 0, protowire.ParseError(n)
	}
	return s, n, nil
}

func consumeMessage(typ protowire.Type, b []byte, m message) (int, error) {
	if typ != protowire.BytesType {
		return 0, errWireType
	}
	raw, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	if err := m.unmarshal(raw); err != nil {
		return 0, err
	}
	return n, nil
}

// ============================================================================
// CODEC
// ============================================================================

// codecName replaces the default proto codec on connections opened by this
// package, so every call is encoded by the message types above.
const codecName = "proto"

// Codec is the gRPC codec for the hand-encoded engine messages.
type Codec struct{}

func (Codec) Name() string { return codecName }

func (Codec) Marshal(v any) ([]byte, error) {
	m, ok := v.(message)
	if !ok {
		return nil, fmt.Errorf("sparksee: cannot marshal %T", v)
	}
	return m.marshal(), nil
}

func (Codec) Unmarshal(data []byte, v any) error {
	m, ok := v.(message)
	if !ok {
		return fmt.Errorf("sparksee: cannot unmarshal into %T", v)
	}
	return m.unmarshal(data)
}
