package sqlerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeCategory(t *testing.T) {
	testCases := []struct {
		code     Code
		expected Category
	}{
		{CodeInvalidOperand, CategoryConstruction},
		{CodePositionalAfterNamed, CategoryConstruction},
		{CodeWindowState, CategoryConstruction},
		{CodeColumnCountMismatch, CategoryDeferred},
		{CodeUnknownRow, CategoryDeferred},
		{CodeUnknownWindow, CategoryDeferred},
		{CodeUnsupportedDialect, CategoryDialect},
		{CodeUnexpectedOperator, CategoryProgramming},
		{CodeDelayedType, CategoryProgramming},
	}

	for _, tc := range testCases {
		t.Run(string(tc.code), func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.code.Category())
		})
	}
}

func TestErrorMessageIncludesContext(t *testing.T) {
	err := ColumnCountMismatch("IN", "derived", 2, 3)

	msg := err.Error()
	assert.Contains(t, msg, "COLUMN_COUNT_MISMATCH")
	assert.Contains(t, msg, "operator=IN")
	assert.Contains(t, msg, "expected=2")
	assert.Contains(t, msg, "actual=3")
}

func TestUnsupportedDialectNamesDialect(t *testing.T) {
	err := UnsupportedDialect("ILIKE", "MySQL 8.0.0")

	assert.Contains(t, err.Error(), "dialect=MySQL 8.0.0")
	assert.True(t, IsDialect(err))
	assert.False(t, IsConstruction(err))
}

func TestCategoryHelpersSeeWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("build statement: %w", PositionalAfterNamed("f", 2))

	assert.True(t, IsConstruction(wrapped))
	assert.False(t, IsDeferred(wrapped))
	assert.Equal(t, CodePositionalAfterNamed, CodeOf(wrapped))
}

func TestHasCodeLooksInsideJoinedErrors(t *testing.T) {
	joined := errors.Join(
		UnknownRow("IN", "r1", 2),
		ColumnCountMismatch("IN", "r2", 1, 2),
	)

	assert.True(t, HasCode(joined, CodeUnknownRow))
	assert.True(t, HasCode(joined, CodeColumnCountMismatch))
	assert.False(t, HasCode(joined, CodeArity))
	assert.False(t, HasCode(nil, CodeArity))
}

func TestDetailsAreSorted(t *testing.T) {
	err := &Error{
		Code:    CodeInternal,
		Message: "boom",
		Details: map[string]string{"b": "2", "a": "1"},
	}
	require.Equal(t, "INTERNAL: boom (a=1, b=2)", err.Error())
	assert.True(t, IsProgramming(err))
}
