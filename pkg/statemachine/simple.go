package statemachine

import (
	"context"
	"fmt"
	"sync"
)

// SimpleStateMachine is a thread-safe in-memory state machine.
// Transitions are looked up as [fromState][event][]Transition.
type SimpleStateMachine struct {
	initialState State
	currentState State
	history      []State
	transitions  map[string]map[string][]Transition
	mu           sync.RWMutex
}

// NewSimpleStateMachine creates a machine in initialState with no transitions.
func NewSimpleStateMachine(initialState State) *SimpleStateMachine {
	return &SimpleStateMachine{
		initialState: initialState,
		currentState: initialState,
		history:      []State{initialState},
		transitions:  make(map[string]map[string][]Transition),
	}
}

func (sm *SimpleStateMachine) Current() State {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.currentState
}

func (sm *SimpleStateMachine) History() []State {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	out := make([]State, len(sm.history))
	copy(out, sm.history)
	return out
}

func (sm *SimpleStateMachine) AddTransition(from, to State, event Event, guards []Guard, actions []Action) error {
	if from == nil || to == nil || event == nil {
		return ErrInvalidTransition
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	if _, ok := sm.transitions[from.Name()]; !ok {
		sm.transitions[from.Name()] = make(map[string][]Transition)
	}

	// Several transitions may share from/event; guards pick between them.
	sm.transitions[from.Name()][event.Name()] = append(sm.transitions[from.Name()][event.Name()], Transition{
		From:    from,
		To:      to,
		Event:   event,
		Guards:  guards,
		Actions: actions,
	})
	return nil
}

func (sm *SimpleStateMachine) Fire(ctx context.Context, event Event, data any) error {
	if event == nil {
		return ErrInvalidEvent
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	candidates := sm.transitions[sm.currentState.Name()][event.Name()]
	if len(candidates) == 0 {
		return NewErrNoTransitionAvailable(sm.currentState.Name(), event.Name())
	}

	t := sm.pick(ctx, candidates, event, data)
	if t == nil {
		return NewErrTransitionRejected(sm.currentState.Name(), event.Name())
	}

	for _, action := range t.Actions {
		if action == nil {
			continue
		}
		if err := action(ctx, sm.currentState, t.To, event, data); err != nil {
			return fmt.Errorf("action failed: %w", err)
		}
	}

	sm.currentState = t.To
	sm.history = append(sm.history, t.To)
	return nil
}

func (sm *SimpleStateMachine) CanFire(ctx context.Context, event Event, data any) bool {
	if event == nil {
		return false
	}

	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.pick(ctx, sm.transitions[sm.currentState.Name()][event.Name()], event, data) != nil
}

// pick returns the first transition whose guards all pass. Callers hold the lock.
func (sm *SimpleStateMachine) pick(ctx context.Context, candidates []Transition, event Event, data any) *Transition {
	for i, t := range candidates {
		passed := true
		for _, guard := range t.Guards {
			if guard != nil && !guard(ctx, sm.currentState, event, data) {
				passed = false
				break
			}
		}
		if passed {
			return &candidates[i]
		}
	}
	return nil
}

func (sm *SimpleStateMachine) Reset() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.currentState = sm.initialState
	sm.history = []State{sm.initialState}
	return nil
}
