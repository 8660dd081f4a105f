package graphdb_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArystanIgen/master-thesis-files/internal/graphdb"
)

func TestDecode_EveryVariant(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 30, 0, 0, time.FixedZone("CET", 3600))

	tests := []struct {
		name  string
		value graphdb.ColumnValue
		want  any
		kind  graphdb.Kind
	}{
		{"null", graphdb.Null{}, nil, graphdb.KindNull},
		{"int", graphdb.Int(7), int32(7), graphdb.KindInt},
		{"long", graphdb.Long(1 << 40), int64(1 << 40), graphdb.KindLong},
		{"string", graphdb.String("Air Co"), "Air Co", graphdb.KindString},
		{"timestamp", graphdb.Timestamp(ts), ts.UTC(), graphdb.KindTimestamp},
		{"double", graphdb.Double(2.5), 2.5, graphdb.KindDouble},
		{"bool", graphdb.Bool(true), true, graphdb.KindBool},
		{"oid", graphdb.OID(1024), int64(1024), graphdb.KindOID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.value.Kind())
			assert.Equal(t, tt.want, graphdb.Decode(tt.value))
		})
	}
}

func TestDecode_TimestampIsUTC(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 30, 0, 0, time.FixedZone("CET", 3600))
	got, ok := graphdb.Decode(graphdb.Timestamp(ts)).(time.Time)
	require.True(t, ok)
	assert.Equal(t, time.UTC, got.Location())
	assert.True(t, got.Equal(ts))
}

func TestDecode_Unset(t *testing.T) {
	assert.Nil(t, graphdb.Decode(nil))
	assert.Equal(t, "unset", graphdb.KindUnset.String())
}

func TestRowValues(t *testing.T) {
	row := graphdb.Row{graphdb.OID(3), graphdb.String("abc"), nil, graphdb.Null{}}
	assert.Equal(t, []any{int64(3), "abc", nil, nil}, row.Values())
}

func TestValueOf(t *testing.T) {
	cv, err := graphdb.ValueOf(42)
	require.NoError(t, err)
	assert.Equal(t, graphdb.Long(42), cv)

	cv, err = graphdb.ValueOf(int32(42))
	require.NoError(t, err)
	assert.Equal(t, graphdb.Int(42), cv)

	cv, err = graphdb.ValueOf(nil)
	require.NoError(t, err)
	assert.Equal(t, graphdb.Null{}, cv)

	_, err = graphdb.ValueOf(struct{}{})
	assert.Error(t, err)

	assert.Panics(t, func() { graphdb.MustRow([]int{1}) })
}
