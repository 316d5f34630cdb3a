// Package scope tracks the nesting of statement construction and runs the
// checks that can only complete once a scope is fully known.
//
// ARCHITECTURE:
//
// Each statement build owns one Stack. Entering a subquery, CTE or derived
// table pushes a Frame; finishing it pops the frame. A Stack is not safe
// for concurrent use, but independent statements may be built in parallel
// with their own stacks.
//
// DEFERRED VALIDATION:
//
// A Check registered with Frame.OnScopeEnd is wrapped in a Pending record
// that moves through a small state machine:
//
//	Pending ──pop, ready──────────▶ Resolved | Failed
//	Pending ──pop, not ready──────▶ Propagated (queued on the parent frame)
//	Propagated ──parent pop───────▶ Resolved | Failed | Propagated
//	any ──pop of outermost frame, not ready──▶ Failed (Unresolved error)
//
// Every registered check therefore ends in Resolved or Failed; none is
// dropped. Checks run in the order scopes close and, within one scope, in
// registration order.
//
// BINDINGS:
//
// Frames also hold the names declared at their level: output columns that
// correlated references look up (Binding), named windows, and named
// parameters. A Binding's type may be supplied after the reference was
// built; until then expressions referring to it report themselves delayed.
package scope
