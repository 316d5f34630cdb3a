package scope

// Check is a validation postponed until the scope that registered it ends.
type Check interface {
	// Ready reports whether the dependency the check waits on is resolved.
	Ready() bool

	// Validate runs the check. It is only called once Ready is true.
	Validate() error

	// Unresolved returns the error reported when the outermost scope closes
	// and the check is still not ready.
	Unresolved() error

	// String describes the check for logs.
	String() string
}

// State is the lifecycle state of a pending check.
type State uint8

const (
	StatePending State = iota
	StatePropagated
	StateResolved
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StatePropagated:
		return "propagated"
	case StateResolved:
		return "resolved"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Pending tracks one registered check across scope closes.
type Pending struct {
	check  Check
	state  State
	origin string
	hops   int
	err    error
}

// State returns the current lifecycle state.
func (p *Pending) State() State { return p.state }

// Err returns the failure, if the check failed.
func (p *Pending) Err() error { return p.err }

// Hops returns how many times the check was handed to an enclosing frame.
func (p *Pending) Hops() int { return p.hops }

// Origin returns the id of the frame the check was registered on.
func (p *Pending) Origin() string { return p.origin }

// Check returns the wrapped check.
func (p *Pending) Check() Check { return p.check }

// CheckFunc adapts plain functions to the Check interface. A nil ReadyFn
// means always ready.
type CheckFunc struct {
	Name         string
	ReadyFn      func() bool
	ValidateFn   func() error
	UnresolvedFn func() error
}

// Ready implements Check.
func (c CheckFunc) Ready() bool {
	if c.ReadyFn == nil {
		return true
	}
	return c.ReadyFn()
}

// Validate implements Check.
func (c CheckFunc) Validate() error {
	if c.ValidateFn == nil {
		return nil
	}
	return c.ValidateFn()
}

// Unresolved implements Check.
func (c CheckFunc) Unresolved() error {
	if c.UnresolvedFn == nil {
		return nil
	}
	return c.UnresolvedFn()
}

func (c CheckFunc) String() string { return c.Name }
