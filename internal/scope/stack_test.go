package scope

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/exprsql/internal/sqlerr"
	"github.com/roach88/exprsql/internal/testutil"
	"github.com/roach88/exprsql/internal/types"
)

func newTestStack() *Stack {
	return NewStack(
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithIDGenerator(NewSequenceGenerator("f")),
	)
}

func TestStack_PushPeekPop(t *testing.T) {
	s := newTestStack()

	_, err := s.Peek()
	require.Error(t, err)
	assert.Equal(t, sqlerr.CodeScope, sqlerr.CodeOf(err))

	outer := s.Push(KindStatement, "main")
	inner := s.Push(KindSubquery, "")
	assert.Equal(t, "f-1", outer.ID())
	assert.Equal(t, "f-2", inner.ID())
	assert.Equal(t, 1, inner.Depth())
	assert.Equal(t, 2, s.Depth())

	top, err := s.Peek()
	require.NoError(t, err)
	assert.Same(t, inner, top)

	require.NoError(t, s.Pop())
	assert.True(t, inner.Closed())
	top, err = s.Peek()
	require.NoError(t, err)
	assert.Same(t, outer, top)

	require.NoError(t, s.Pop())
	assert.Error(t, s.Pop())
}

func TestStack_ReadyCheckResolvesOnPop(t *testing.T) {
	s := newTestStack()
	f := s.Push(KindStatement, "")

	p := f.OnScopeEnd(CheckFunc{Name: "ok"})
	assert.Equal(t, StatePending, p.State())

	require.NoError(t, s.Pop())
	assert.Equal(t, StateResolved, p.State())
	assert.Equal(t, 0, p.Hops())
	assert.Equal(t, "f-1", p.Origin())
}

func TestStack_ReadyCheckFailure(t *testing.T) {
	s := newTestStack()
	f := s.Push(KindStatement, "")

	boom := sqlerr.ColumnCountMismatch("IN", "(a, b)", 2, 3)
	p := f.OnScopeEnd(CheckFunc{
		Name:       "width",
		ValidateFn: func() error { return boom },
	})

	err := s.Pop()
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, StateFailed, p.State())
	assert.Same(t, boom, p.Err())
}

func TestStack_NotReadyCheckPropagatesUntilResolved(t *testing.T) {
	s := newTestStack()
	s.Push(KindStatement, "")
	mid := s.Push(KindSubquery, "")
	s.Push(KindDerived, "")

	ready := false
	validated := 0
	inner, err := s.Peek()
	require.NoError(t, err)
	p := inner.OnScopeEnd(CheckFunc{
		Name:       "late",
		ReadyFn:    func() bool { return ready },
		ValidateFn: func() error { validated++; return nil },
	})

	require.NoError(t, s.Pop())
	assert.Equal(t, StatePropagated, p.State())
	assert.Equal(t, 1, p.Hops())
	assert.Len(t, mid.Pending(), 1)

	ready = true
	require.NoError(t, s.Pop())
	assert.Equal(t, StateResolved, p.State())
	assert.Equal(t, 1, validated)

	require.NoError(t, s.Pop())
	assert.Equal(t, StateResolved, p.State())
}

func TestStack_LogsSettledChecks(t *testing.T) {
	rec, logger := testutil.NewLogRecorder()
	s := NewStack(WithLogger(logger), WithIDGenerator(NewSequenceGenerator("f")))
	s.Push(KindStatement, "")
	inner := s.Push(KindSubquery, "")

	ready := false
	inner.OnScopeEnd(CheckFunc{Name: "late", ReadyFn: func() bool { return ready }})
	inner.OnScopeEnd(CheckFunc{
		Name:       "width",
		ValidateFn: func() error { return sqlerr.ColumnCountMismatch("IN", "(a, b)", 2, 3) },
	})

	require.Error(t, s.Pop())
	ready = true
	require.NoError(t, s.Pop())

	settled := rec.Find("deferred check settled")
	require.Len(t, settled, 3)
	assert.Equal(t, "propagated", settled[0].Attrs["state"])
	assert.Equal(t, "f-2", settled[0].Attrs["frame"])
	assert.Equal(t, slog.LevelWarn, settled[1].Level)
	assert.Equal(t, "width", settled[1].Attrs["check"])
	assert.Equal(t, "resolved", settled[2].Attrs["state"])
	assert.Equal(t, "f-1", settled[2].Attrs["frame"])
	assert.Equal(t, int64(1), settled[2].Attrs["hops"])

	assert.Len(t, rec.Find("scope pushed"), 2)
	assert.Len(t, rec.Find("scope popped"), 2)
}

func TestStack_OutermostCloseFailsUnresolved(t *testing.T) {
	s := newTestStack()
	s.Push(KindStatement, "")
	inner := s.Push(KindSubquery, "")

	p := inner.OnScopeEnd(CheckFunc{
		Name:    "row",
		ReadyFn: func() bool { return false },
		UnresolvedFn: func() error {
			return sqlerr.UnknownRow("IN", "(a, b)", 2)
		},
	})
	silent := inner.OnScopeEnd(CheckFunc{
		Name:    "silent",
		ReadyFn: func() bool { return false },
	})

	require.NoError(t, s.Pop())
	err := s.Pop()
	require.Error(t, err)

	assert.Equal(t, StateFailed, p.State())
	assert.True(t, sqlerr.HasCode(err, sqlerr.CodeUnknownRow))
	assert.Equal(t, 1, p.Hops())

	assert.Equal(t, StateFailed, silent.State())
	assert.True(t, sqlerr.HasCode(err, sqlerr.CodeInternal))
}

func TestStack_ChecksFireInRegistrationOrder(t *testing.T) {
	s := newTestStack()
	f := s.Push(KindStatement, "")

	var order []string
	for _, name := range []string{"a", "b", "c"} {
		f.OnScopeEnd(CheckFunc{
			Name:       name,
			ValidateFn: func() error { order = append(order, name); return nil },
		})
	}

	require.NoError(t, s.Pop())
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestStack_CloseJoinsAllFailures(t *testing.T) {
	s := newTestStack()
	outer := s.Push(KindStatement, "")
	inner := s.Push(KindSubquery, "")

	outer.OnScopeEnd(CheckFunc{Name: "outer", ValidateFn: func() error {
		return sqlerr.New(sqlerr.CodeUnknownWindow, "outer")
	}})
	inner.OnScopeEnd(CheckFunc{Name: "inner", ValidateFn: func() error {
		return sqlerr.New(sqlerr.CodeColumnCountMismatch, "inner")
	}})

	err := s.Close()
	require.Error(t, err)
	assert.True(t, sqlerr.HasCode(err, sqlerr.CodeUnknownWindow))
	assert.True(t, sqlerr.HasCode(err, sqlerr.CodeColumnCountMismatch))
	assert.Equal(t, 0, s.Depth())
}

func TestStack_Lookup(t *testing.T) {
	s := newTestStack()
	outer := s.Push(KindStatement, "")
	_, err := outer.Declare("total", types.Bigint)
	require.NoError(t, err)
	s.Push(KindSubquery, "")

	b, hops, ok := s.Lookup("total")
	require.True(t, ok)
	assert.Equal(t, 1, hops)
	typ, resolved := b.Type()
	assert.True(t, resolved)
	assert.Equal(t, types.Bigint, typ)

	_, _, ok = s.Lookup("missing")
	assert.False(t, ok)
}

func TestFrame_DeclareDuplicate(t *testing.T) {
	f := newTestStack().Push(KindStatement, "")
	_, err := f.Declare("x", nil)
	require.NoError(t, err)
	_, err = f.Declare("x", nil)
	assert.Equal(t, sqlerr.CodeDuplicateName, sqlerr.CodeOf(err))
}

func TestBinding_ResolveOnce(t *testing.T) {
	f := newTestStack().Push(KindStatement, "")
	b, err := f.Declare("x", nil)
	require.NoError(t, err)

	_, ok := b.Type()
	assert.False(t, ok)

	require.NoError(t, b.Resolve(types.Integer))
	err = b.Resolve(types.Text)
	assert.Equal(t, sqlerr.CodeAlreadyResolved, sqlerr.CodeOf(err))

	typ, ok := b.Type()
	assert.True(t, ok)
	assert.Equal(t, types.Integer, typ)

	assert.Error(t, b.Resolve(nil))
}

func TestFrame_Windows(t *testing.T) {
	f := newTestStack().Push(KindStatement, "")
	assert.False(t, f.HasWindow("w"))
	require.NoError(t, f.DeclareWindow("w"))
	assert.True(t, f.HasWindow("w"))
	assert.Equal(t, sqlerr.CodeDuplicateName, sqlerr.CodeOf(f.DeclareWindow("w")))
}

func TestFrame_Params(t *testing.T) {
	s := newTestStack()
	f := s.Push(KindStatement, "")
	require.NoError(t, f.DeclareParam("id", types.Bigint))
	require.NoError(t, f.DeclareParam("id", types.Bigint))

	err := f.DeclareParam("id", types.Text)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected=bigint")

	s.Push(KindSubquery, "")
	typ, ok := s.LookupParam("id")
	require.True(t, ok)
	assert.Equal(t, types.Bigint, typ)
}

func TestUUIDv7Generator(t *testing.T) {
	id := UUIDv7Generator{}.Generate()
	parsed, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}
