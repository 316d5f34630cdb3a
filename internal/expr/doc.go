// Package expr implements the expression and predicate node algebra.
//
// Every node is an immutable tree element built through a constructor that
// validates its operands. Nodes form a closed set: Node and Expr carry
// unexported marker methods, so renderers and type inference switch over
// the concrete types exhaustively.
//
// NODE KINDS:
//
//   - Expr: a scalar-valued node with a semantic type (literals,
//     parameters, columns, arithmetic, casts, calls, subqueries).
//   - Predicate: an Expr of boolean type (comparisons, AND/OR/NOT,
//     BETWEEN, LIKE, IN, EXISTS, IS tests).
//   - Other Nodes are only valid in particular positions: Row and
//     DelayedRow on the left of IN, Params in an IN list, FieldGroup and the
//     argument nodes inside function calls.
//
// TYPES AND DELAY:
//
// Type() resolves a node's semantic type. A node whose type depends on a
// correlated reference that has not been resolved yet reports Delayed();
// callers must check Delayed before asking for the type. Binary nodes
// memoize their type on first resolution. TypeOf wraps both calls and
// returns an error instead of panicking.
//
// Binary chains built fluently, as in a.Plus(b).Times(c), render without
// parentheses around the left operand, so SQL precedence groups them. Type
// inference follows the same grouping: when the outer operator binds
// tighter than the inner one, the inner right operand is combined with the
// outer right operand first. Paren stops this re-association.
//
// RENDERING:
//
// AppendSQL writes a node to a render.Context. Dialect checks happen there,
// never at construction, so the same tree may render for PostgreSQL and
// fail for SQLite.
package expr
