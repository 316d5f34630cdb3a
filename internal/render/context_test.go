package render

import (
	"database/sql"
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/exprsql/internal/dialect"
	"github.com/roach88/exprsql/internal/sqlerr"
	"github.com/roach88/exprsql/internal/types"
)

var (
	pg     = dialect.Latest(dialect.PostgreSQL)
	mysql  = dialect.Latest(dialect.MySQL)
	sqlite = dialect.Latest(dialect.SQLite)
)

func TestAppendIdent(t *testing.T) {
	testCases := []struct {
		d        dialect.Dialect
		name     string
		expected string
	}{
		{pg, "user", `"user"`},
		{pg, `we"ird`, `"we""ird"`},
		{mysql, "order", "`order`"},
		{mysql, "a`b", "`a``b`"},
		{sqlite, "group", `"group"`},
	}

	for _, tc := range testCases {
		t.Run(tc.d.Family.String()+"/"+tc.name, func(t *testing.T) {
			c := New(tc.d)
			c.AppendIdent(tc.name)
			assert.Equal(t, tc.expected, c.SQL())
		})
	}
}

func TestAppendQualifiedSkipsEmptyParts(t *testing.T) {
	c := New(pg)
	c.AppendQualified("", "orders", "total")
	assert.Equal(t, `"orders"."total"`, c.SQL())
}

func TestNormalizedIdentifiers(t *testing.T) {
	decomposed := "cafe\u0301"

	c := New(sqlite, WithNormalizedIdentifiers(true))
	c.AppendIdent(decomposed)
	assert.Equal(t, "\"caf\u00e9\"", c.SQL())

	c = New(sqlite)
	c.AppendIdent(decomposed)
	assert.Equal(t, `"`+decomposed+`"`, c.SQL())
}

func TestPlaceholders(t *testing.T) {
	c := New(pg)
	c.AppendParam(1)
	c.WriteString(", ")
	c.AppendParam("x")
	assert.Equal(t, "$1, $2", c.SQL())
	assert.Equal(t, []any{1, "x"}, c.Args())

	c = New(mysql)
	c.AppendParam(1)
	c.WriteString(", ")
	c.AppendParam(2)
	assert.Equal(t, "?, ?", c.SQL())

	c = New(sqlite, WithPlaceholder(PlaceholderDollar))
	c.AppendParam(1)
	assert.Equal(t, "$1", c.SQL())
}

func TestNamedParamsReuseIndexWithDollar(t *testing.T) {
	c := New(pg)
	c.AppendNamedParam("id")
	c.WriteString(" ")
	c.AppendParam(7)
	c.WriteString(" ")
	c.AppendNamedParam("id")
	assert.Equal(t, "$1 $2 $1", c.SQL())
	assert.Equal(t, []any{sql.Named("id", nil), 7}, c.Args())

	c = New(mysql)
	c.AppendNamedParam("id")
	c.WriteString(" ")
	c.AppendNamedParam("id")
	assert.Equal(t, "? ?", c.SQL())
	assert.Len(t, c.Args(), 2)
}

func TestParsePlaceholder(t *testing.T) {
	p, err := ParsePlaceholder("dollar")
	require.NoError(t, err)
	assert.Equal(t, PlaceholderDollar, p)

	_, err = ParsePlaceholder("colon")
	assert.Error(t, err)
}

func TestRequireNamesDialectAndMinimumVersion(t *testing.T) {
	old := dialect.Dialect{Family: dialect.SQLite, Version: dialect.V(3, 31, 0)}
	err := New(old).Require(dialect.FeatureDistinctFrom)
	require.Error(t, err)
	assert.True(t, sqlerr.IsDialect(err))
	assert.Contains(t, err.Error(), "SQLite 3.31")
	assert.Contains(t, err.Error(), "min_version=3.39")

	assert.NoError(t, New(pg).Require(dialect.FeatureDistinctFrom))
}

func literal(t *testing.T, d dialect.Dialect, typ *types.Type, v any) string {
	t.Helper()
	c := New(d)
	require.NoError(t, c.AppendLiteral(typ, v))
	return c.SQL()
}

func TestAppendLiteral(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	id := uuid.MustParse("0190a6d2-7c1e-7a3b-8f00-000000000001")
	dec, _, err := apd.NewFromString("12.50")
	require.NoError(t, err)

	testCases := []struct {
		name     string
		d        dialect.Dialect
		typ      *types.Type
		value    any
		expected string
	}{
		{"null", pg, types.Integer, nil, "NULL"},
		{"integer", mysql, types.Bigint, int64(-42), "-42"},
		{"unsigned", sqlite, types.Integer, uint16(7), "7"},
		{"decimal", pg, types.Decimal, dec, "12.50"},
		{"decimal from string", mysql, types.Decimal, "3.14", "3.14"},
		{"decimal from int", sqlite, types.Decimal, 3, "3"},
		{"float", pg, types.Double, 0.5, "0.5"},
		{"pg string with quote", pg, types.Text, "it's", "'it''s'"},
		{"pg string with backslash", pg, types.Text, `a\b`, ` E'a\\b'`},
		{"mysql string with backslash", mysql, types.Varchar, `a\b'`, `'a\\b'''`},
		{"sqlite string", sqlite, types.Text, "it's", "'it''s'"},
		{"pg bool", pg, types.Boolean, true, "TRUE"},
		{"sqlite bool", sqlite, types.Boolean, false, "0"},
		{"pg date", pg, types.Date, ts, "DATE '2024-03-01'"},
		{"mysql timestamp", mysql, types.Timestamp, ts, "TIMESTAMP '2024-03-01 12:30:00'"},
		{"sqlite timestamp", sqlite, types.Timestamp, ts, "'2024-03-01 12:30:00'"},
		{"pg interval", pg, types.Interval, 90 * time.Second, "INTERVAL '90000000 microseconds'"},
		{"pg jsonb", pg, types.JSONB, json.RawMessage(`{"a":1}`), `'{"a":1}'::JSONB`},
		{"mysql json from map", mysql, types.JSON, map[string]int{"a": 1}, `'{"a":1}'`},
		{"pg bytes", pg, types.Bytes, []byte{0xde, 0xad}, `'\xdead'::BYTEA`},
		{"sqlite bytes", sqlite, types.Bytes, []byte{0xde, 0xad}, "X'DEAD'"},
		{"pg uuid", pg, types.UUID, id, "'0190a6d2-7c1e-7a3b-8f00-000000000001'::UUID"},
		{"mysql uuid string", mysql, types.UUID, id.String(), "'0190a6d2-7c1e-7a3b-8f00-000000000001'"},
		{"bits", mysql, types.Bit, "0101", "B'0101'"},
		{"pg array", pg, types.ArrayOf(types.Integer), []int32{1, 2}, "ARRAY[1, 2]"},
		{"pg empty array", pg, types.ArrayOf(types.Text), []string{}, "ARRAY[]::TEXT[]"},
		{"pointer", sqlite, types.Bigint, &[]int64{5}[0], "5"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, literal(t, tc.d, tc.typ, tc.value))
		})
	}
}

func TestAppendLiteralErrors(t *testing.T) {
	testCases := []struct {
		name        string
		d           dialect.Dialect
		typ         *types.Type
		value       any
		wantDialect bool
	}{
		{"string as integer", pg, types.Integer, "x", false},
		{"nan", pg, types.Double, math.NaN(), false},
		{"bad uuid", pg, types.UUID, "nope", false},
		{"bad bits", pg, types.Bit, "012", false},
		{"sqlite bits", sqlite, types.Bit, "01", true},
		{"mysql array", mysql, types.ArrayOf(types.Integer), []int{1}, true},
		{"sqlite interval", sqlite, types.Interval, time.Second, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := New(tc.d).AppendLiteral(tc.typ, tc.value)
			require.Error(t, err)
			if tc.wantDialect {
				assert.True(t, sqlerr.IsDialect(err), err.Error())
			} else {
				assert.True(t, sqlerr.IsConstruction(err), err.Error())
			}
		})
	}
}
