package scope

import (
	"fmt"
	"sync/atomic"

	"github.com/roach88/exprsql/internal/sqlerr"
	"github.com/roach88/exprsql/internal/types"
)

// Kind describes what a frame was pushed for.
type Kind string

const (
	KindStatement Kind = "statement"
	KindSubquery  Kind = "subquery"
	KindCTE       Kind = "cte"
	KindDerived   Kind = "derived"
)

// Frame is one nesting level of statement construction.
type Frame struct {
	id    string
	kind  Kind
	name  string
	depth int

	pending  []*Pending
	bindings map[string]*Binding
	windows  map[string]bool
	params   map[string]*types.Type
	closed   bool
}

// ID returns the frame's unique id.
func (f *Frame) ID() string { return f.id }

// Kind returns what the frame was pushed for.
func (f *Frame) Kind() Kind { return f.kind }

// Name returns the optional label given at push time.
func (f *Frame) Name() string { return f.name }

// Depth returns the frame's nesting depth; the outermost frame is 0.
func (f *Frame) Depth() int { return f.depth }

// Closed reports whether the frame has been popped.
func (f *Frame) Closed() bool { return f.closed }

// Pending returns the checks currently queued on the frame.
func (f *Frame) Pending() []*Pending {
	out := make([]*Pending, len(f.pending))
	copy(out, f.pending)
	return out
}

// OnScopeEnd queues c to run when the frame is popped.
func (f *Frame) OnScopeEnd(c Check) *Pending {
	p := &Pending{check: c, state: StatePending, origin: f.id}
	f.pending = append(f.pending, p)
	return p
}

// Declare adds an output name to the frame. t may be nil when the type is
// not known yet; resolve it later through the returned Binding.
func (f *Frame) Declare(name string, t *types.Type) (*Binding, error) {
	if _, exists := f.bindings[name]; exists {
		return nil, &sqlerr.Error{
			Code:    sqlerr.CodeDuplicateName,
			Message: fmt.Sprintf("name %q already declared in this scope", name),
			Operand: name,
		}
	}
	if f.bindings == nil {
		f.bindings = make(map[string]*Binding)
	}
	b := &Binding{name: name, frame: f.id}
	if t != nil {
		b.typ.Store(t)
	}
	f.bindings[name] = b
	return b, nil
}

// Binding returns the binding declared under name in this frame only.
func (f *Frame) Binding(name string) (*Binding, bool) {
	b, ok := f.bindings[name]
	return b, ok
}

// DeclareWindow records a named window definition.
func (f *Frame) DeclareWindow(name string) error {
	if f.windows[name] {
		return &sqlerr.Error{
			Code:    sqlerr.CodeDuplicateName,
			Message: fmt.Sprintf("window %q already defined in this scope", name),
			Operand: name,
		}
	}
	if f.windows == nil {
		f.windows = make(map[string]bool)
	}
	f.windows[name] = true
	return nil
}

// HasWindow reports whether a window named name is defined in this frame.
func (f *Frame) HasWindow(name string) bool {
	return f.windows[name]
}

// DeclareParam records a named parameter. Re-declaring it with the same
// type is allowed; a different type is a construction error.
func (f *Frame) DeclareParam(name string, t *types.Type) error {
	if prev, ok := f.params[name]; ok {
		if prev.Equal(t) {
			return nil
		}
		return &sqlerr.Error{
			Code:     sqlerr.CodeDuplicateName,
			Message:  fmt.Sprintf("parameter %q already declared with another type", name),
			Operand:  name,
			Expected: prev.Name(),
			Actual:   t.Name(),
		}
	}
	if f.params == nil {
		f.params = make(map[string]*types.Type)
	}
	f.params[name] = t
	return nil
}

// Param returns the type of a parameter declared in this frame.
func (f *Frame) Param(name string) (*types.Type, bool) {
	t, ok := f.params[name]
	return t, ok
}

// Binding is a name declared by a frame whose type may arrive late.
//
// The type is a single-assignment cell: once resolved it never changes,
// so expressions that read it may memoize what they derive from it.
type Binding struct {
	name  string
	frame string
	typ   atomic.Pointer[types.Type]
}

// Name returns the declared name.
func (b *Binding) Name() string { return b.name }

// Frame returns the id of the declaring frame.
func (b *Binding) Frame() string { return b.frame }

// Type returns the resolved type, or false while unresolved.
func (b *Binding) Type() (*types.Type, bool) {
	t := b.typ.Load()
	return t, t != nil
}

// Resolve supplies the binding's type. It fails if already resolved.
func (b *Binding) Resolve(t *types.Type) error {
	if t == nil {
		return sqlerr.InvalidOperand("resolve", b.name, "type must not be nil")
	}
	if !b.typ.CompareAndSwap(nil, t) {
		return &sqlerr.Error{
			Code:    sqlerr.CodeAlreadyResolved,
			Message: fmt.Sprintf("name %q already has a type", b.name),
			Operand: b.name,
		}
	}
	return nil
}
