package twofactor

import (
	"context"
	"fmt"
	"time"

	"github.com/datumlabs/totpgate/pkg/statemachine"
)

// State is the position of an identity in the secret lifecycle.
type State string

const (
	StateNoSecret     State = "no_secret"
	StatePendingSetup State = "pending_setup"
	StateEnabled      State = "enabled"
)

func (s State) Name() string { return string(s) }

// Event drives a State change.
type Event string

const (
	EventBeginSetup    Event = "begin_setup"
	EventCompleteSetup Event = "complete_setup"
	EventExpireSetup   Event = "expire_setup"
)

func (e Event) Name() string { return string(e) }

// transitionInput is handed to guards by Next.
type transitionInput struct {
	pending *PendingSetup
	now     time.Time
}

func setupExpired(_ context.Context, _ statemachine.State, _ statemachine.Event, data any) bool {
	in, ok := data.(transitionInput)
	return ok && in.pending != nil && in.pending.Expired(in.now)
}

func setupLive(ctx context.Context, from statemachine.State, ev statemachine.Event, data any) bool {
	return !setupExpired(ctx, from, ev, data)
}

// lifecycle lists every legal move. Enabled is terminal: there is no disable
// or rotate flow.
var lifecycle = []statemachine.Transition{
	{From: StateNoSecret, To: StatePendingSetup, Event: EventBeginSetup},
	{From: StatePendingSetup, To: StatePendingSetup, Event: EventBeginSetup},
	{From: StatePendingSetup, To: StateEnabled, Event: EventCompleteSetup, Guards: []statemachine.Guard{setupLive}},
	{From: StatePendingSetup, To: StateNoSecret, Event: EventExpireSetup, Guards: []statemachine.Guard{setupExpired}},
}

// Next fires ev on the lifecycle positioned at StateOf(p, pending) and returns
// the resulting state. Completing an expired setup fails with ErrSetupExpired.
func Next(ctx context.Context, p *Profile, pending *PendingSetup, ev Event, now time.Time) (State, error) {
	from := StateOf(p, pending)
	sm := statemachine.MustNew(from, statemachine.WithTransitions(lifecycle))

	err := sm.Fire(ctx, ev, transitionInput{pending: pending, now: now})
	switch {
	case err == nil:
		return sm.Current().(State), nil
	case statemachine.IsNoTransitionAvailableError(err) && from == StateEnabled && ev == EventBeginSetup:
		return from, ErrAlreadyEnabled
	case statemachine.IsNoTransitionAvailableError(err) && from == StateNoSecret && ev == EventCompleteSetup:
		return from, ErrSetupNotFound
	case statemachine.IsTransitionRejectedError(err) && ev == EventCompleteSetup:
		return from, ErrSetupExpired
	}
	return from, fmt.Errorf("%w: %w", ErrInvalidTransition, err)
}

// StateOf derives the lifecycle state from stored records. A pending setup
// counts until it is observed as expired.
func StateOf(p *Profile, pending *PendingSetup) State {
	switch {
	case p != nil && p.TOTPEnabled:
		return StateEnabled
	case pending != nil:
		return StatePendingSetup
	default:
		return StateNoSecret
	}
}
