// Package statemachine is a small finite state machine with guarded
// transitions.
//
// Transitions are declared up front and fired by event. When several
// transitions share a source state and event, the first one whose guards all
// pass wins, which lets guards branch on runtime data:
//
//	sm := statemachine.MustNew(Pending,
//		statemachine.WithTransition(Pending, Enabled, Complete, notExpired),
//		statemachine.WithTransition(Pending, Cleared, Expire),
//	)
//
//	if err := sm.Fire(ctx, Complete, now); err != nil {
//		if statemachine.IsTransitionRejectedError(err) { ... }
//	}
//
// States and events are anything with a Name. StringState and StringEvent
// cover the common case; domain packages usually give their own string types
// a Name method instead.
package statemachine
