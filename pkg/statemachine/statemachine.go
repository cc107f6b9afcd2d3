package statemachine

import (
	"context"
	"fmt"
	"sync"
)

// State is a node of the machine.
type State interface {
	Name() string
}

// Event triggers a transition.
type Event interface {
	Name() string
}

// Guard decides at fire time whether a transition may proceed. data is
// whatever the caller passed to Fire.
type Guard func(ctx context.Context, from State, event Event, data any) bool

// Transition moves the machine from From to To on Event once all Guards pass.
type Transition struct {
	From   State
	To     State
	Event  Event
	Guards []Guard
}

// StringState is a State backed by its name.
type StringState string

func (s StringState) Name() string { return string(s) }

// StringEvent is an Event backed by its name.
type StringEvent string

func (e StringEvent) Name() string { return string(e) }

// Machine is safe for concurrent use.
type Machine struct {
	mu          sync.RWMutex
	current     State
	transitions map[string]map[string][]Transition
}

// Option configures a Machine during construction.
type Option func(*Machine) error

// New returns a machine positioned at initial.
func New(initial State, opts ...Option) (*Machine, error) {
	if initial == nil {
		return nil, ErrNilInitialState
	}

	m := &Machine{
		current:     initial,
		transitions: make(map[string]map[string][]Transition),
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// MustNew is New that panics on a malformed transition table.
func MustNew(initial State, opts ...Option) *Machine {
	m, err := New(initial, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to create state machine: %v", err))
	}
	return m
}

// WithTransition declares one transition.
func WithTransition(from, to State, event Event, guards ...Guard) Option {
	return func(m *Machine) error {
		return m.add(Transition{From: from, To: to, Event: event, Guards: guards})
	}
}

// WithTransitions declares a table of transitions in priority order.
func WithTransitions(table []Transition) Option {
	return func(m *Machine) error {
		for i, t := range table {
			if err := m.add(t); err != nil {
				return fmt.Errorf("transition[%d]: %w", i, err)
			}
		}
		return nil
	}
}

// Current returns the state the machine is in.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Fire applies the first transition for the current state and event whose
// guards pass. The state is unchanged on error.
func (m *Machine) Fire(ctx context.Context, event Event, data any) error {
	if event == nil {
		return ErrInvalidEvent
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.match(ctx, event, data)
	if err != nil {
		return err
	}
	m.current = t.To
	return nil
}

// CanFire reports whether Fire would succeed.
func (m *Machine) CanFire(ctx context.Context, event Event, data any) bool {
	if event == nil {
		return false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	_, err := m.match(ctx, event, data)
	return err == nil
}

func (m *Machine) add(t Transition) error {
	if t.From == nil || t.To == nil || t.Event == nil {
		return ErrInvalidTransition
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	byEvent, ok := m.transitions[t.From.Name()]
	if !ok {
		byEvent = make(map[string][]Transition)
		m.transitions[t.From.Name()] = byEvent
	}
	byEvent[t.Event.Name()] = append(byEvent[t.Event.Name()], t)
	return nil
}

// match must be called with m.mu held.
func (m *Machine) match(ctx context.Context, event Event, data any) (Transition, error) {
	from, name := m.current.Name(), event.Name()

	candidates := m.transitions[from][name]
	if len(candidates) == 0 {
		return Transition{}, &ErrNoTransitionAvailable{StateName: from, EventName: name}
	}

next:
	for _, t := range candidates {
		for _, guard := range t.Guards {
			if guard != nil && !guard(ctx, m.current, event, data) {
				continue next
			}
		}
		return t, nil
	}
	return Transition{}, &ErrTransitionRejected{StateName: from, EventName: name}
}
