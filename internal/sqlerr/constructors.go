package sqlerr

import "fmt"

// InvalidOperand reports an operand that is not allowed where it was used.
func InvalidOperand(operator, operand, reason string) *Error {
	return &Error{
		Code:     CodeInvalidOperand,
		Message:  reason,
		Operator: operator,
		Operand:  operand,
	}
}

// DuplicateModifier reports a modifier applied twice, or one that conflicts
// with a modifier already present.
func DuplicateModifier(operator, modifier string) *Error {
	return &Error{
		Code:     CodeDuplicateModifier,
		Message:  fmt.Sprintf("modifier %s already set", modifier),
		Operator: operator,
	}
}

// ArgumentShape reports a function argument that does not fit the call shape.
func ArgumentShape(function string, index int, reason string) *Error {
	return &Error{
		Code:     CodeArgumentShape,
		Message:  reason,
		Function: function,
		Operand:  fmt.Sprintf("argument #%d", index+1),
	}
}

// PositionalAfterNamed reports a positional argument that follows a named one.
func PositionalAfterNamed(function string, index int) *Error {
	return &Error{
		Code:     CodePositionalAfterNamed,
		Message:  "positional argument cannot follow a named argument",
		Function: function,
		Operand:  fmt.Sprintf("argument #%d", index+1),
	}
}

// Arity reports a call with the wrong number of arguments.
func Arity(function string, expected string, actual int) *Error {
	return &Error{
		Code:     CodeArity,
		Message:  "wrong number of arguments",
		Function: function,
		Expected: expected,
		Actual:   fmt.Sprintf("%d", actual),
	}
}

// ColumnCount reports a row shape mismatch detected at construction time.
func ColumnCount(operator string, expected, actual int) *Error {
	return &Error{
		Code:     CodeColumnCount,
		Message:  "row column count does not match",
		Operator: operator,
		Expected: fmt.Sprintf("%d", expected),
		Actual:   fmt.Sprintf("%d", actual),
	}
}

// ColumnCountMismatch reports a row shape mismatch found at scope end.
func ColumnCountMismatch(operator, row string, expected, actual int) *Error {
	return &Error{
		Code:     CodeColumnCountMismatch,
		Message:  fmt.Sprintf("row %s column count does not match", row),
		Operator: operator,
		Operand:  row,
		Expected: fmt.Sprintf("%d", expected),
		Actual:   fmt.Sprintf("%d", actual),
	}
}

// UnknownRow reports a delayed row still unresolved when the outermost
// scope closed.
func UnknownRow(operator, row string, expected int) *Error {
	return &Error{
		Code:     CodeUnknownRow,
		Message:  fmt.Sprintf("row %s was never resolved", row),
		Operator: operator,
		Operand:  row,
		Expected: fmt.Sprintf("%d", expected),
		Actual:   "unknown",
	}
}

// UnsupportedDialect reports a feature the render target cannot express.
func UnsupportedDialect(feature, dialect string) *Error {
	return &Error{
		Code:     CodeUnsupportedDialect,
		Message:  fmt.Sprintf("%s is not supported", feature),
		Operator: feature,
		Dialect:  dialect,
	}
}

// UnexpectedOperator reports an operator outside every promotion family.
func UnexpectedOperator(operator string) *Error {
	return &Error{
		Code:     CodeUnexpectedOperator,
		Message:  "unexpected operator",
		Operator: operator,
	}
}

// Delayed reports an attempt to read the type of a node that is still
// waiting on an unresolved dependency.
func Delayed(operand string) *Error {
	return &Error{
		Code:    CodeDelayedType,
		Message: "type is not resolved yet",
		Operand: operand,
	}
}

// WindowState reports a window frame builder call that is not valid in the
// builder's current state, or a clause closed before it was complete.
func WindowState(operation, state, reason string) *Error {
	return &Error{
		Code:     CodeWindowState,
		Message:  reason,
		Operator: operation,
		Actual:   state,
	}
}
