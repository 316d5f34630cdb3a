package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/exprsql/internal/sqlerr"
	"github.com/roach88/exprsql/internal/sqlop"
)

var integerTypes = []*Type{Tinyint, Smallint, Mediumint, Integer, Bigint}

func TestIntegerPromotionPicksWiderAndKeepsLeftOnTie(t *testing.T) {
	for _, op := range []sqlop.Binary{sqlop.Plus, sqlop.Minus, sqlop.Times, sqlop.Divide, sqlop.Mod} {
		for _, a := range integerTypes {
			for _, b := range integerTypes {
				got, err := Resolve(op, a, b)
				require.NoError(t, err)

				expected := a
				if b.Size() > a.Size() {
					expected = b
				}
				assert.Same(t, expected, got, "%s %s %s", a, op.SQL(), b)
			}
		}
	}
}

func TestTieKeepsLeftOperand(t *testing.T) {
	// Two distinct integer types of equal width.
	other := &Type{name: "int4", kind: KindInteger, size: 32}

	got, err := Resolve(sqlop.Plus, Integer, other)
	require.NoError(t, err)
	assert.Same(t, Integer, got)

	got, err = Resolve(sqlop.Times, other, Integer)
	require.NoError(t, err)
	assert.Same(t, other, got)
}

func TestNumericLadder(t *testing.T) {
	testCases := []struct {
		name     string
		op       sqlop.Binary
		l, r     *Type
		expected *Type
	}{
		{"float beats decimal", sqlop.Plus, Decimal, Double, Double},
		{"float beats integer", sqlop.Minus, Real, Bigint, Real},
		{"wider float", sqlop.Times, Real, Double, Double},
		{"decimal beats integer", sqlop.Plus, Bigint, Decimal, Decimal},
		{"decimal left", sqlop.Divide, Decimal, Integer, Decimal},
		{"string coerces to double", sqlop.Plus, Varchar, Integer, Double},
		{"identical strings", sqlop.Minus, Text, Text, Text},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Resolve(tc.op, tc.l, tc.r)
			require.NoError(t, err)
			assert.Same(t, tc.expected, got)
		})
	}
}

func TestAdditiveUnitPreserving(t *testing.T) {
	got := Additive(Date, Integer)
	assert.Same(t, Date, got)

	got = Additive(Bigint, Timestamp)
	assert.Same(t, Timestamp, got, "non-numeric side wins regardless of position")

	got = Additive(Interval, Decimal)
	assert.Same(t, Interval, got)
}

func TestArithmeticHasNoUnitPreservingCase(t *testing.T) {
	assert.Same(t, Text, Arithmetic(Date, Integer))
	assert.Same(t, Text, Arithmetic(Integer, Date))
	assert.Same(t, Date, Arithmetic(Date, Date))
}

func TestAdditiveFallbackToIdentity(t *testing.T) {
	assert.Same(t, Date, Additive(Date, Date))
	assert.Same(t, Text, Additive(Date, Timestamp))
	assert.Same(t, Text, Additive(JSON, Varchar), "string is not strictly numeric")
}

func TestBitwiseIdenticalTypes(t *testing.T) {
	exact := append([]*Type{Bit, VarBit}, integerTypes...)
	for _, op := range []sqlop.Binary{sqlop.BitAnd, sqlop.BitOr, sqlop.BitXor, sqlop.LeftShift, sqlop.RightShift} {
		for _, typ := range exact {
			got, err := Resolve(op, typ, typ)
			require.NoError(t, err)
			assert.Same(t, typ, got, "%s %s %s", typ, op.SQL(), typ)
		}
	}
}

func TestBitwisePromotion(t *testing.T) {
	testCases := []struct {
		name     string
		l, r     *Type
		expected *Type
	}{
		{"bit on left wins", VarBit, Integer, VarBit},
		{"bit on right wins", Bigint, Bit, Bit},
		{"two bit types keep left", Bit, VarBit, Bit},
		{"no integer gives string", Text, Decimal, Text},
		{"one integer gives bigint", Smallint, Decimal, Bigint},
		{"one integer on right gives bigint", Double, Tinyint, Bigint},
		{"wider integer", Smallint, Integer, Integer},
		{"tie keeps left", Integer, &Type{name: "int4", kind: KindInteger, size: 32}, Integer},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Same(t, tc.expected, Bitwise(tc.l, tc.r))
		})
	}
}

func TestResolveUnexpectedOperator(t *testing.T) {
	_, err := Resolve(sqlop.Binary(99), Integer, Integer)
	require.Error(t, err)
	assert.True(t, sqlerr.IsProgramming(err))
	assert.Equal(t, sqlerr.CodeUnexpectedOperator, sqlerr.CodeOf(err))
}

func TestResolveUnary(t *testing.T) {
	got, err := ResolveUnary(sqlop.Negate, Decimal)
	require.NoError(t, err)
	assert.Same(t, Decimal, got)

	got, err = ResolveUnary(sqlop.BitNot, Smallint)
	require.NoError(t, err)
	assert.Same(t, Smallint, got)

	got, err = ResolveUnary(sqlop.BitNot, Text)
	require.NoError(t, err)
	assert.Same(t, Bigint, got)

	_, err = ResolveUnary(sqlop.Unary(42), Text)
	assert.True(t, sqlerr.IsProgramming(err))
}
