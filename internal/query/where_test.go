package query_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ArystanIgen/master-thesis-files/internal/query"
)

func TestOrGroup(t *testing.T) {
	assert.Equal(t, "", query.OrGroup("country.name", nil))
	assert.Equal(t, "", query.OrGroup("country.name", []string{}))
	assert.Equal(t, "(country.name='KZ')", query.OrGroup("country.name", []string{"KZ"}))
	assert.Equal(t,
		"(country.name='KZ' OR country.name='DE' OR country.name='O\\'Land')",
		query.OrGroup("country.name", []string{"KZ", "DE", "O'Land"}),
	)
}

func TestComposeWhere(t *testing.T) {
	const (
		a = "(tsp_type.name='Airline')"
		b = "(country.name='KZ')"
		c = "(time_slot.name='Morning')"
	)

	tests := []struct {
		name    string
		a, b, c string
		want    string
	}{
		{"all present", a, b, c, "WHERE " + a + " AND " + b + " AND " + c},
		{"all absent", "", "", "", ""},

		{"only a", a, "", "", "WHERE " + a},
		{"only b", "", b, "", "WHERE " + b},
		{"only c", "", "", c, "WHERE " + c},

		{"a and b", a, b, "", "WHERE " + a + " AND " + b},
		{"a and c", a, "", c, "WHERE " + a + " AND " + c},
		{"b and c", "", b, c, "WHERE " + b + " AND " + c},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, query.ComposeWhere(tt.a, tt.b, tt.c))
		})
	}
}

func TestComposeWhere_EmptyListsProduceNoClause(t *testing.T) {
	got := query.ComposeWhere(
		query.OrGroup("tsp_type.name", []string{}),
		query.OrGroup("country.name", nil),
		query.OrGroup("time_slot.name", []string{}),
	)
	assert.Equal(t, "", got)
}
