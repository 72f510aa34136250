// Package statemachine is a small finite state machine with guards, actions
// and a record of the states entered.
//
// Machines are assembled with a Builder:
//
//	b := statemachine.NewBuilder(Start)
//	b.From(Start).When(Fetch).To(Fetched).WithAction(logEntry).Add()
//	sm := b.Build()
//
//	if err := sm.Fire(ctx, Fetch, nil); err != nil {
//	    // no transition, a guard said no, or an action failed
//	}
//	path := sm.History() // [Start Fetched]
//
// Fire holds the machine's lock while actions run, so actions must not call
// back into the same machine.
package statemachine
