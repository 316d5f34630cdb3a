package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/exprsql/internal/dialect"
	"github.com/roach88/exprsql/internal/scope"
	"github.com/roach88/exprsql/internal/sqlerr"
	"github.com/roach88/exprsql/internal/types"
)

func TestCall_InfersFirstNonNullArgument(t *testing.T) {
	c := Must(NewCall(CallSpec{Name: "coalesce"}, Null(), col("a", types.Integer), val("x")))
	assert.Equal(t, types.Integer, c.Type())
	assert.Equal(t, `coalesce(NULL, "t"."a", 'x')`, sqlOf(t, c, pg))

	allNull := Must(NewCall(CallSpec{Name: "coalesce"}, Null()))
	assert.Equal(t, types.Null, allNull.Type())

	now := Must(NewCall(CallSpec{Name: "now", Return: types.Timestamp}))
	assert.Equal(t, "now()", sqlOf(t, now, pg))
	assert.Equal(t, types.Timestamp, now.Type())
}

func TestCall_InferenceWaitsForDelayedArgument(t *testing.T) {
	st := newStack()
	f := st.Push(scope.KindStatement, "")
	b, err := f.Declare("v", nil)
	require.NoError(t, err)

	ref := Must(RefTo(b, "o"))
	c := Must(NewCall(CallSpec{Name: "coalesce"}, ref, val(0)))
	assert.True(t, c.Delayed())
	_, err = TypeOf(c)
	assert.Equal(t, sqlerr.CodeDelayedType, sqlerr.CodeOf(err))

	require.NoError(t, b.Resolve(types.Decimal))
	assert.Equal(t, types.Decimal, c.Type())
}

func TestCall_NamedNotation(t *testing.T) {
	a, b, c := col("a", types.Integer), col("b", types.Text), col("c", types.Text)
	spec := CallSpec{Name: "f", Return: types.Text}

	ok := Must(NewCall(spec, a, Must(NameArg("name", b)), Must(NameArg("name2", c))))
	assert.Equal(t, `f("t"."a", name => "t"."b", name2 => "t"."c")`, sqlOf(t, ok, pg))
	assert.True(t, sqlerr.IsDialect(renderErr(ok, mysql)))

	_, err := NewCall(spec, Must(NameArg("name", b)), c)
	require.Error(t, err)
	assert.Equal(t, sqlerr.CodePositionalAfterNamed, sqlerr.CodeOf(err))
	assert.Contains(t, err.Error(), "function=f")
	assert.Contains(t, err.Error(), "argument #2")

	_, err = NameArg("bad name", b)
	assert.Equal(t, sqlerr.CodeInvalidOperand, sqlerr.CodeOf(err))
}

func TestCall_Words(t *testing.T) {
	distinct := Must(Keyword("distinct"))
	from := Must(Keyword("from"))
	year := Must(Keyword("year"))

	count := Must(NewCall(CallSpec{Name: "count", Return: types.Bigint}, distinct, col("a", types.Integer)))
	assert.Equal(t, `count(DISTINCT "t"."a")`, sqlOf(t, count, pg))

	extract := Must(NewCall(CallSpec{Name: "extract", Return: types.Integer}, year, from, col("ts", types.Timestamp)))
	assert.Equal(t, `extract(YEAR FROM "t"."ts")`, sqlOf(t, extract, pg))

	star := Must(NewCall(CallSpec{Name: "count", Return: types.Bigint}, Star{}))
	assert.Equal(t, "count(*)", sqlOf(t, star, sqlite))

	_, err := Keyword("drop;")
	assert.Equal(t, sqlerr.CodeInvalidOperand, sqlerr.CodeOf(err))
}

func TestCall_TypeAndIdentArguments(t *testing.T) {
	ta := Must(TypeArg(types.Bigint))
	id := Must(Identifier("public", "seq"))
	c := Must(NewCall(CallSpec{Name: "f", Return: types.Text}, ta, id))
	assert.Equal(t, `f(BIGINT, "public"."seq")`, sqlOf(t, c, pg))
	assert.Equal(t, "f(SIGNED, `public`.`seq`)", sqlOf(t, c, mysql))

	_, err := Identifier("a", "")
	assert.Equal(t, sqlerr.CodeInvalidOperand, sqlerr.CodeOf(err))
}

func TestCall_KeyValue(t *testing.T) {
	kv := Must(Pair(val("k"), col("a", types.Integer)))
	c := Must(NewCall(CallSpec{Name: "json_build_object", Return: types.JSON}, kv))
	assert.Equal(t, `json_build_object('k', "t"."a")`, sqlOf(t, c, pg))

	_, err := Pair(val(1), col("a", types.Integer))
	assert.Equal(t, sqlerr.CodeInvalidOperand, sqlerr.CodeOf(err))
}

func TestCall_RejectsArgumentShapes(t *testing.T) {
	spec := CallSpec{Name: "f", Return: types.Text}
	var missing *Column

	testCases := []struct {
		name string
		args []Node
		msg  string
	}{
		{"nil", []Node{val(1), nil}, "argument #2"},
		{"typed nil", []Node{missing}, "argument #1"},
		{"params", []Node{val(1), Must(BindList(nil, 1, 2))}, "multi-value"},
		{"subquery", []Node{Must(SubqueryOf(twoColumns()))}, "cannot be a function argument"},
		{"delayed row", []Node{NewDelayedRow("d")}, "cannot be a function argument"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewCall(spec, tc.args...)
			require.Error(t, err)
			assert.Equal(t, sqlerr.CodeArgumentShape, sqlerr.CodeOf(err))
			assert.Contains(t, err.Error(), tc.msg)
			assert.Contains(t, err.Error(), "function=f")
		})
	}

	_, err := NewCall(CallSpec{Name: "f(x)"})
	assert.Equal(t, sqlerr.CodeInvalidOperand, sqlerr.CodeOf(err))
}

func TestCall_FieldGroupAndRowArguments(t *testing.T) {
	c := Must(NewCall(CallSpec{Name: "row_to_json", Return: types.JSON}, AllOf("t")))
	assert.Equal(t, `row_to_json("t".*)`, sqlOf(t, c, pg))

	r := Must(NewCall(CallSpec{Name: "f", Return: types.Text}, Must(RowOf(val(1), val(2)))))
	assert.Equal(t, "f((1, 2))", sqlOf(t, r, pg))
}

func TestCall_DialectRestrictions(t *testing.T) {
	c := Must(NewCall(CallSpec{Name: "ilike_only", Return: types.Text, Families: []dialect.Family{dialect.PostgreSQL}}))
	assert.Equal(t, "ilike_only()", sqlOf(t, c, pg))

	err := renderErr(c, sqlite)
	require.Error(t, err)
	assert.True(t, sqlerr.IsDialect(err))
	assert.Contains(t, err.Error(), "function ilike_only")
}

func TestWindowed(t *testing.T) {
	rn := Must(NewCall(CallSpec{Name: "row_number", Return: types.Bigint}))
	w := Must(Over(rn, windowText(`ORDER BY "t"."a"`)))

	assert.Equal(t, `row_number() OVER (ORDER BY "t"."a")`, sqlOf(t, w, pg))
	assert.Equal(t, types.Bigint, w.Type())

	old := dialect.Dialect{Family: dialect.MySQL, Version: dialect.V(5, 7, 0)}
	assert.True(t, sqlerr.IsDialect(renderErr(w, old)))
}

func TestOverName_DeferredWindowCheck(t *testing.T) {
	sum := Must(NewCall(CallSpec{Name: "sum"}, col("a", types.Integer)))

	st := newStack()
	f := st.Push(scope.KindStatement, "")
	ref, err := OverName(st, sum, "w")
	require.NoError(t, err)
	require.NoError(t, f.DeclareWindow("w"))
	require.NoError(t, st.Pop())
	assert.Equal(t, `sum("t"."a") OVER "w"`, sqlOf(t, ref, pg))
	assert.Equal(t, types.Integer, ref.Type())

	st.Push(scope.KindStatement, "")
	_, err = OverName(st, sum, "missing")
	require.NoError(t, err)
	err = st.Pop()
	require.Error(t, err)
	assert.True(t, sqlerr.HasCode(err, sqlerr.CodeUnknownWindow))
	assert.True(t, sqlerr.IsDeferred(err))

	_, err = OverName(st, sum, "w")
	assert.Equal(t, sqlerr.CodeScope, sqlerr.CodeOf(err))
}
