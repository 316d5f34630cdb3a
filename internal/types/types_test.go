package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/exprsql/internal/dialect"
)

func TestClass(t *testing.T) {
	assert.Equal(t, ClassNumber, Bigint.Class())
	assert.Equal(t, ClassNumber, Decimal.Class())
	assert.Equal(t, ClassString, Char.Class())
	assert.Equal(t, ClassTemporal, Interval.Class())
	assert.Equal(t, ClassArray, ArrayOf(Integer).Class())
	assert.Equal(t, ClassOther, UUID.Class())

	assert.True(t, Varchar.NumberOrString())
	assert.False(t, JSON.NumberOrString())
}

func TestArrayEquality(t *testing.T) {
	a := ArrayOf(Integer)
	b := ArrayOf(Integer)

	assert.NotSame(t, a, b)
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(ArrayOf(Bigint)))
	assert.Same(t, Integer, a.Elem())
	assert.Equal(t, "integer[]", a.Name())
}

func TestParse(t *testing.T) {
	testCases := []struct {
		input    string
		expected *Type
	}{
		{"bigint", Bigint},
		{"INT", Integer},
		{"numeric", Decimal},
		{"double precision", Double},
		{" bool ", Boolean},
		{"bytea", Bytes},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := Parse(tc.input)
			require.NoError(t, err)
			assert.Same(t, tc.expected, got)
		})
	}

	arr, err := Parse("text[][]")
	require.NoError(t, err)
	assert.True(t, arr.Equal(ArrayOf(ArrayOf(Text))))

	_, err = Parse("money")
	assert.Error(t, err)
	_, err = Parse("")
	assert.Error(t, err)
}

func TestDefaultFor(t *testing.T) {
	dec, _, err := apd.NewFromString("1.25")
	require.NoError(t, err)

	testCases := []struct {
		name     string
		value    any
		expected *Type
	}{
		{"nil", nil, Null},
		{"bool", true, Boolean},
		{"int8", int8(1), Tinyint},
		{"int16", int16(1), Smallint},
		{"int32", int32(1), Integer},
		{"int", 1, Bigint},
		{"uint64", uint64(1), Bigint},
		{"float32", float32(1), Real},
		{"float64", 1.5, Double},
		{"string", "x", Varchar},
		{"time", time.Now(), Timestamp},
		{"duration", time.Second, Interval},
		{"raw json", json.RawMessage(`{}`), JSON},
		{"uuid", uuid.New(), UUID},
		{"decimal", dec, Decimal},
		{"bytes", []byte("x"), Bytes},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := DefaultFor(tc.value)
			require.True(t, ok)
			assert.Same(t, tc.expected, got)
		})
	}

	arr, ok := DefaultFor([]int32{1, 2})
	require.True(t, ok)
	assert.True(t, arr.Equal(ArrayOf(Integer)))

	_, ok = DefaultFor(struct{}{})
	assert.False(t, ok)
	_, ok = DefaultFor(map[string]int{})
	assert.False(t, ok)
}

func TestSQLName(t *testing.T) {
	testCases := []struct {
		typ      *Type
		family   dialect.Family
		expected string
		ok       bool
	}{
		{Bigint, dialect.PostgreSQL, "BIGINT", true},
		{Smallint, dialect.PostgreSQL, "SMALLINT", true},
		{Bigint, dialect.MySQL, "SIGNED", true},
		{Double, dialect.PostgreSQL, "DOUBLE PRECISION", true},
		{Double, dialect.SQLite, "REAL", true},
		{Varchar, dialect.PostgreSQL, "VARCHAR", true},
		{Varchar, dialect.MySQL, "CHAR", true},
		{JSONB, dialect.PostgreSQL, "JSONB", true},
		{JSONB, dialect.MySQL, "JSON", true},
		{Timestamp, dialect.MySQL, "DATETIME", true},
		{ArrayOf(Integer), dialect.PostgreSQL, "INTEGER[]", true},
		{ArrayOf(Integer), dialect.MySQL, "", false},
		{Boolean, dialect.MySQL, "", false},
		{Interval, dialect.SQLite, "", false},
		{Null, dialect.PostgreSQL, "", false},
	}
	for _, tc := range testCases {
		t.Run(tc.typ.Name()+"/"+tc.family.String(), func(t *testing.T) {
			got, ok := tc.typ.SQLName(tc.family)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.expected, got)
		})
	}
}
