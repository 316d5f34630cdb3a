package scope

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/exprsql/internal/sqlerr"
	"github.com/roach88/exprsql/internal/types"
)

// Stack is the scope stack of one statement build.
type Stack struct {
	frames []*Frame
	ids    IDGenerator
	logger *slog.Logger
}

// Option configures a Stack.
type Option func(*Stack)

// WithLogger sets the logger used for frame and check transitions.
func WithLogger(l *slog.Logger) Option {
	return func(s *Stack) { s.logger = l }
}

// WithIDGenerator sets the generator for frame ids.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Stack) { s.ids = g }
}

// NewStack creates an empty stack.
func NewStack(opts ...Option) *Stack {
	s := &Stack{ids: UUIDv7Generator{}}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Depth returns the number of open frames.
func (s *Stack) Depth() int { return len(s.frames) }

// Push opens a new frame and makes it current.
func (s *Stack) Push(kind Kind, name string) *Frame {
	f := &Frame{
		id:    s.ids.Generate(),
		kind:  kind,
		name:  name,
		depth: len(s.frames),
	}
	s.frames = append(s.frames, f)
	s.logger.Debug("scope pushed",
		"frame", f.id,
		"kind", string(kind),
		"name", name,
		"depth", f.depth)
	return f
}

// Peek returns the current frame.
func (s *Stack) Peek() (*Frame, error) {
	if len(s.frames) == 0 {
		return nil, sqlerr.New(sqlerr.CodeScope, "no open scope")
	}
	return s.frames[len(s.frames)-1], nil
}

// Pop closes the current frame and settles its pending checks.
//
// Ready checks are validated; checks still waiting are handed to the
// enclosing frame, or fail with their Unresolved error when the frame is
// the outermost one. All failures are returned joined; the frame is
// removed regardless.
func (s *Stack) Pop() error {
	f, err := s.Peek()
	if err != nil {
		return err
	}
	s.frames = s.frames[:len(s.frames)-1]
	f.closed = true

	var parent *Frame
	if len(s.frames) > 0 {
		parent = s.frames[len(s.frames)-1]
	}

	var errs []error
	for _, p := range f.pending {
		s.settle(f, parent, p)
		if p.state == StateFailed {
			errs = append(errs, p.err)
		}
	}
	f.pending = nil

	s.logger.Debug("scope popped",
		"frame", f.id,
		"kind", string(f.kind),
		"depth", f.depth,
		"failed", len(errs))
	return errors.Join(errs...)
}

func (s *Stack) settle(f, parent *Frame, p *Pending) {
	switch {
	case p.check.Ready():
		if err := p.check.Validate(); err != nil {
			p.state = StateFailed
			p.err = err
		} else {
			p.state = StateResolved
		}
	case parent != nil:
		p.state = StatePropagated
		p.hops++
		parent.pending = append(parent.pending, p)
	default:
		p.state = StateFailed
		p.err = p.check.Unresolved()
		if p.err == nil {
			p.err = &sqlerr.Error{
				Code:    sqlerr.CodeInternal,
				Message: fmt.Sprintf("check %s never became ready", p.check),
			}
		}
	}

	level := slog.LevelDebug
	if p.state == StateFailed {
		level = slog.LevelWarn
	}
	s.logger.Log(context.Background(), level, "deferred check settled",
		"frame", f.id,
		"check", p.check.String(),
		"state", p.state.String(),
		"hops", p.hops)
}

// Close pops every open frame, innermost first, and returns all failures.
func (s *Stack) Close() error {
	var errs []error
	for len(s.frames) > 0 {
		if err := s.Pop(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Lookup finds the nearest binding named name, searching from the current
// frame outward. It also returns how many frames out it was found.
func (s *Stack) Lookup(name string) (*Binding, int, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if b, ok := s.frames[i].bindings[name]; ok {
			return b, len(s.frames) - 1 - i, true
		}
	}
	return nil, 0, false
}

// LookupParam finds the nearest declaration of a named parameter.
func (s *Stack) LookupParam(name string) (*types.Type, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if t, ok := s.frames[i].params[name]; ok {
			return t, true
		}
	}
	return nil, false
}
