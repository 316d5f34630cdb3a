// Package sqlerr defines the error taxonomy shared by every layer of the
// expression engine.
//
// Errors fall into four categories:
//   - Construction: an invalid tree was requested; raised at the call that
//     detected it.
//   - Deferred: a check postponed to scope end failed (column counts,
//     unresolved rows, unknown windows).
//   - Dialect: a node cannot be rendered for the active database family or
//     version; raised only while rendering.
//   - Programming: a defect inside the engine itself. These should be
//     unreachable and are kept apart so logs and tests can tell them from
//     user mistakes.
package sqlerr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Code identifies a specific error condition.
type Code string

const (
	// Construction errors.
	CodeInvalidOperand       Code = "INVALID_OPERAND"
	CodeDuplicateModifier    Code = "DUPLICATE_MODIFIER"
	CodeArgumentShape        Code = "ARGUMENT_SHAPE"
	CodePositionalAfterNamed Code = "POSITIONAL_AFTER_NAMED"
	CodeArity                Code = "ARITY"
	CodeColumnCount          Code = "COLUMN_COUNT"
	CodeWindowState          Code = "WINDOW_STATE"
	CodeDuplicateName        Code = "DUPLICATE_NAME"
	CodeAlreadyResolved      Code = "ALREADY_RESOLVED"
	CodeScope                Code = "SCOPE"

	// Deferred validation errors.
	CodeColumnCountMismatch Code = "COLUMN_COUNT_MISMATCH"
	CodeUnknownRow          Code = "UNKNOWN_ROW"
	CodeUnknownWindow       Code = "UNKNOWN_WINDOW"

	// Dialect capability errors.
	CodeUnsupportedDialect Code = "UNSUPPORTED_DIALECT"

	// Programming errors.
	CodeUnexpectedOperator Code = "UNEXPECTED_OPERATOR"
	CodeDelayedType        Code = "DELAYED_TYPE"
	CodeInternal           Code = "INTERNAL"
)

// Category groups codes by when and why they are raised.
type Category string

const (
	CategoryConstruction Category = "construction"
	CategoryDeferred     Category = "deferred"
	CategoryDialect      Category = "dialect"
	CategoryProgramming  Category = "programming"
)

// Category returns the category a code belongs to.
func (c Code) Category() Category {
	switch c {
	case CodeColumnCountMismatch, CodeUnknownRow, CodeUnknownWindow:
		return CategoryDeferred
	case CodeUnsupportedDialect:
		return CategoryDialect
	case CodeUnexpectedOperator, CodeDelayedType, CodeInternal:
		return CategoryProgramming
	default:
		return CategoryConstruction
	}
}

// Error is the structured error returned by the engine.
//
// Only the fields that apply to the failing check are set. Error() renders
// the populated ones so a message is actionable without re-deriving the
// expression that caused it.
type Error struct {
	// Code identifies the error condition.
	Code Code

	// Message is a human-readable description.
	Message string

	// Operator is the SQL operator involved, if any.
	Operator string

	// Operand describes the offending operand or argument.
	Operand string

	// Function names the function being built, if any.
	Function string

	// Dialect names the render target for dialect errors.
	Dialect string

	// Expected and Actual describe shape mismatches (column counts, states).
	Expected string
	Actual   string

	// Details carries any additional context.
	Details map[string]string
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	b.WriteString(e.Message)

	var ctx []string
	if e.Function != "" {
		ctx = append(ctx, "function="+e.Function)
	}
	if e.Operator != "" {
		ctx = append(ctx, "operator="+e.Operator)
	}
	if e.Operand != "" {
		ctx = append(ctx, "operand="+e.Operand)
	}
	if e.Dialect != "" {
		ctx = append(ctx, "dialect="+e.Dialect)
	}
	if e.Expected != "" || e.Actual != "" {
		ctx = append(ctx, "expected="+e.Expected, "actual="+e.Actual)
	}
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			ctx = append(ctx, k+"="+e.Details[k])
		}
	}
	if len(ctx) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(ctx, ", "))
		b.WriteString(")")
	}
	return b.String()
}

// Category returns the category of the error's code.
func (e *Error) Category() Category {
	return e.Code.Category()
}

// New creates an Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// HasCode reports whether any *Error reachable from err carries code.
// Unlike CodeOf it looks inside errors.Join trees.
func HasCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	var e *Error
	if errors.As(err, &e) && e.Code == code {
		return true
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, inner := range joined.Unwrap() {
			if HasCode(inner, code) {
				return true
			}
		}
	}
	return false
}

func isCategory(err error, c Category) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Category() == c
	}
	return false
}

// IsConstruction returns true if err is a construction contract error.
func IsConstruction(err error) bool { return isCategory(err, CategoryConstruction) }

// IsDeferred returns true if err was raised by a deferred validation.
func IsDeferred(err error) bool { return isCategory(err, CategoryDeferred) }

// IsDialect returns true if err is a dialect capability error.
func IsDialect(err error) bool { return isCategory(err, CategoryDialect) }

// IsProgramming returns true if err indicates a defect in the engine.
func IsProgramming(err error) bool { return isCategory(err, CategoryProgramming) }
