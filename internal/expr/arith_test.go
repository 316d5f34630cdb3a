package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/exprsql/internal/dialect"
	"github.com/roach88/exprsql/internal/sqlerr"
	"github.com/roach88/exprsql/internal/sqlop"
	"github.com/roach88/exprsql/internal/types"
)

func TestBinary_PrecedenceAwareTypeDiffersFromLeftFold(t *testing.T) {
	a := col("a", types.Date)
	b := col("b", types.Integer)
	c := col("c", types.Double)

	// a + b * c, built fluently as (a + b) then * c.
	chain := Must(Must(Add(a, b)).Then(sqlop.Times, c))

	assert.Equal(t, `"t"."a" + "t"."b" * "t"."c"`, sqlOf(t, chain, pg))
	assert.Equal(t, types.Date, chain.Type())

	naive := types.Arithmetic(types.Additive(types.Date, types.Integer), types.Double)
	assert.Equal(t, types.Text, naive)
	assert.NotEqual(t, naive, chain.Type())
}

func TestBinary_ParenStopsReassociation(t *testing.T) {
	a := col("a", types.Date)
	b := col("b", types.Integer)
	c := col("c", types.Double)

	grouped := Must(Mul(Must(Group(Must(Add(a, b)))), c))

	assert.Equal(t, `("t"."a" + "t"."b") * "t"."c"`, sqlOf(t, grouped, pg))
	assert.Equal(t, types.Text, grouped.Type())

	chained := Must(Mul(Must(Add(a, b)), c))
	assert.Equal(t, `"t"."a" + "t"."b" * "t"."c"`, sqlOf(t, chained, pg))
	assert.Equal(t, types.Date, chained.Type())
}

func TestBinary_LooserOuterResolvesInnerFirst(t *testing.T) {
	a := col("a", types.Integer)
	b := col("b", types.Smallint)
	c := col("c", types.Bigint)

	chain := Must(Must(Mul(a, b)).Then(sqlop.Plus, c))

	want := types.Additive(types.Arithmetic(types.Integer, types.Smallint), types.Bigint)
	assert.Equal(t, want, chain.Type())
	assert.Equal(t, types.Bigint, chain.Type())
}

func TestBinary_FourOperandChain(t *testing.T) {
	a := col("a", types.Integer)
	b := col("b", types.Smallint)
	c := col("c", types.Bit)
	d := col("d", types.Bit)

	// a + b * c ^ d groups as a + (b * (c ^ d)).
	chain := Must(Must(Must(Add(a, b)).Then(sqlop.Times, c)).Then(sqlop.BitXor, d))

	want := types.Additive(types.Integer,
		types.Arithmetic(types.Smallint, types.Bitwise(types.Bit, types.Bit)))
	assert.Equal(t, want, chain.Type())
	assert.Equal(t, "`t`.`a` + `t`.`b` * `t`.`c` ^ `t`.`d`", sqlOf(t, chain, mysql))
	// PostgreSQL ranks # below *, so the XOR pair needs its own parentheses.
	assert.Equal(t, `"t"."a" + "t"."b" * ("t"."c" # "t"."d")`, sqlOf(t, chain, pg))
}

func TestBinary_BitwiseGroupingPerDialect(t *testing.T) {
	a := col("a", types.Bigint)
	b := col("b", types.Bigint)
	c := col("c", types.Decimal)

	// XOR binds tighter than *, so (a ^ b) * c.
	xorTimes := Must(Mul(Must(NewBinary(sqlop.BitXor, a, b)), c))
	assert.Equal(t, types.Decimal, xorTimes.Type())
	assert.Equal(t, "`t`.`a` ^ `t`.`b` * `t`.`c`", sqlOf(t, xorTimes, mysql))
	assert.Equal(t, `("t"."a" # "t"."b") * "t"."c"`, sqlOf(t, xorTimes, pg))

	// & binds tighter than |, so 1 | (2 & 0).
	orAnd := Must(NewBinary(sqlop.BitAnd, Must(NewBinary(sqlop.BitOr, val(1), val(2))), val(0)))
	testCases := []struct {
		name string
		d    dialect.Dialect
		want string
	}{
		{"mysql", mysql, "1 | 2 & 0"},
		{"postgresql", pg, "1 | (2 & 0)"},
		{"sqlite", sqlite, "1 | (2 & 0)"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, sqlOf(t, orAnd, tc.d))
		})
	}

	// | then & at one level on SQLite groups left to right without help.
	andOr := Must(NewBinary(sqlop.BitOr, Must(NewBinary(sqlop.BitAnd, val(1), val(2))), val(4)))
	assert.Equal(t, "1 & 2 | 4", sqlOf(t, andOr, sqlite))

	// A shift after + stays bare everywhere: + binds tighter on all three.
	shift := Must(NewBinary(sqlop.LeftShift, Must(Add(val(1), val(2))), val(3)))
	for _, d := range []dialect.Dialect{pg, mysql, sqlite} {
		assert.Equal(t, "1 + 2 << 3", sqlOf(t, shift, d))
	}
}

func TestBinary_RenderingIsIdempotent(t *testing.T) {
	chain := Must(Must(Must(Add(val(1), val(2))).Then(sqlop.Times, val(3))).Then(sqlop.BitOr, val(4)))
	for _, d := range []dialect.Dialect{pg, mysql, sqlite} {
		assert.Equal(t, sqlOf(t, chain, d), sqlOf(t, chain, d))
	}
}

func TestBinary_RightOperandIsParenthesized(t *testing.T) {
	a := col("a", types.Integer)
	b := col("b", types.Integer)
	c := col("c", types.Bigint)

	e := Must(Sub(a, Must(Sub(b, c))))
	assert.Equal(t, `"t"."a" - ("t"."b" - "t"."c")`, sqlOf(t, e, pg))
	assert.Equal(t, types.Arithmetic(types.Integer, types.Arithmetic(types.Integer, types.Bigint)), e.Type())
}

func TestBinary_TypeIsMemoized(t *testing.T) {
	e := Must(Add(col("a", types.Integer), col("b", types.Double)))
	first := e.Type()
	assert.Same(t, first, e.Type())
	assert.Equal(t, types.Double, first)
}

func TestBinary_XorPerDialect(t *testing.T) {
	e := Must(NewBinary(sqlop.BitXor, col("x", types.Integer), col("y", types.Integer)))

	assert.Equal(t, `"t"."x" # "t"."y"`, sqlOf(t, e, pg))
	assert.Equal(t, "`t`.`x` ^ `t`.`y`", sqlOf(t, e, mysql))

	err := renderErr(e, sqlite)
	require.Error(t, err)
	assert.True(t, sqlerr.IsDialect(err))
	assert.Contains(t, err.Error(), "SQLite")
}

func TestBinary_UnexpectedOperator(t *testing.T) {
	_, err := NewBinary(sqlop.Binary(99), val(1), val(2))
	require.Error(t, err)
	assert.True(t, sqlerr.IsProgramming(err))
	assert.Equal(t, sqlerr.CodeUnexpectedOperator, sqlerr.CodeOf(err))
}

func TestBinary_RejectsInvalidOperands(t *testing.T) {
	var missing *Column

	testCases := []struct {
		name  string
		build func() error
	}{
		{"nil interface", func() error { _, err := Add(nil, val(1)); return err }},
		{"typed nil", func() error { _, err := Add(val(1), missing); return err }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.build()
			require.Error(t, err)
			assert.Equal(t, sqlerr.CodeInvalidOperand, sqlerr.CodeOf(err))
		})
	}
}

func TestOperand_RejectsNonScalarNodes(t *testing.T) {
	testCases := []struct {
		name string
		node Node
		msg  string
	}{
		{"field group", AllOf("t"), "field group"},
		{"params", Must(BindList(nil, 1, 2)), "multi-value"},
		{"row", Must(RowOf(val(1), val(2))), "row value"},
		{"delayed row", NewDelayedRow("d"), "row value"},
		{"word", Must(Keyword("distinct")), "not a scalar"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Operand("+", tc.node)
			require.Error(t, err)
			assert.True(t, sqlerr.IsConstruction(err))
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}

func TestUnary(t *testing.T) {
	x := col("x", types.Smallint)
	e := Must(Neg(Must(Neg(x))))
	assert.Equal(t, `-(-"t"."x")`, sqlOf(t, e, pg))
	assert.Equal(t, types.Smallint, e.Type())

	inv := Must(NewUnary(sqlop.BitNot, col("s", types.Text)))
	assert.Equal(t, types.Bigint, inv.Type())
	assert.Equal(t, `~"t"."s"`, sqlOf(t, inv, sqlite))

	_, err := NewUnary(sqlop.Unary(9), x)
	assert.True(t, sqlerr.IsProgramming(err))
}

func TestUnary_NegativeLiteralNeverFormsComment(t *testing.T) {
	neg := Must(Neg(Must(Lit(types.Integer, -5))))
	pos := Must(Neg(Must(Lit(types.Integer, 5))))
	pred := Must(And(
		Must(Eq(col("a", types.Integer), neg)),
		Must(Eq(col("b", types.Integer), val(1))),
	))

	for _, d := range []dialect.Dialect{pg, mysql, sqlite} {
		t.Run(d.Family.Key(), func(t *testing.T) {
			assert.Equal(t, "-(-5)", sqlOf(t, neg, d))
			assert.Equal(t, "-5", sqlOf(t, pos, d))
			assert.NotContains(t, sqlOf(t, pred, d), "--")
		})
	}
	assert.Equal(t, `"t"."a" = (-(-5)) AND "t"."b" = 1`, sqlOf(t, pred, pg))
}

func TestDelayedReference(t *testing.T) {
	st := newStack()
	outer := st.Push("statement", "")
	b, err := outer.Declare("total", nil)
	require.NoError(t, err)
	st.Push("subquery", "")

	ref := Must(Lookup(st, "o", "total"))
	sum := Must(Add(ref, col("n", types.Integer)))

	assert.True(t, sum.Delayed())
	_, err = TypeOf(sum)
	require.Error(t, err)
	assert.Equal(t, sqlerr.CodeDelayedType, sqlerr.CodeOf(err))
	assert.Panics(t, func() { sum.Type() })

	// Rendering does not need the type.
	assert.Equal(t, `"o"."total" + "t"."n"`, sqlOf(t, sum, pg))

	require.NoError(t, b.Resolve(types.Bigint))
	assert.False(t, sum.Delayed())
	typ, err := TypeOf(sum)
	require.NoError(t, err)
	assert.Equal(t, types.Bigint, typ)

	_, err = Lookup(st, "", "missing")
	assert.Equal(t, sqlerr.CodeInvalidOperand, sqlerr.CodeOf(err))
}

func TestCast(t *testing.T) {
	e := Must(CastTo(col("a", types.Integer), types.Text))
	assert.Equal(t, types.Text, e.Type())
	assert.Equal(t, `CAST("t"."a" AS TEXT)`, sqlOf(t, e, pg))
	assert.Equal(t, "CAST(`t`.`a` AS CHAR)", sqlOf(t, e, mysql))

	// Casts are self-delimiting operands.
	sum := Must(Add(e, val("x")))
	assert.Equal(t, `CAST("t"."a" AS TEXT) + 'x'`, sqlOf(t, sum, pg))

	iv := Must(CastTo(val("1 day"), types.Interval))
	err := renderErr(iv, sqlite)
	assert.True(t, sqlerr.IsDialect(err))

	_, err = CastTo(val(1), nil)
	assert.True(t, sqlerr.IsConstruction(err))
}

func TestRenderIsIdempotent(t *testing.T) {
	st := newStack()
	st.Push("statement", "")
	id := Must(Named(st, "id", types.Bigint))

	tree := Must(And(
		Must(Eq(col("id", types.Bigint), id)),
		Must(NewIn(st, col("kind", types.Text), Must(BindList(nil, "a", "b")), false)),
		Must(Compare(sqlop.Greater, Must(Add(col("n", types.Integer), Must(Bind(nil, 3)))), id)),
	))

	testCases := []struct {
		name     string
		d        dialect.Dialect
		expected string
	}{
		{"postgres", pg, `"t"."id" = $1 AND "t"."kind" IN ($2, $3) AND ("t"."n" + $4) > $1`},
		{"mysql", mysql, "`t`.`id` = ? AND `t`.`kind` IN (?, ?) AND (`t`.`n` + ?) > ?"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s1, args1, err := Render(tree, tc.d)
			require.NoError(t, err)
			s2, args2, err := Render(tree, tc.d)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, s1)
			assert.Equal(t, s1, s2)
			assert.Equal(t, args1, args2)
		})
	}
}
