package statemachine

// Builder provides a fluent API for building state machines.
type Builder struct {
	machine      *SimpleStateMachine
	currentFrom  State
	currentEvent Event
	currentTo    State
	guards       []Guard
	actions      []Action
}

func NewBuilder(initialState State) *Builder {
	return &Builder{
		machine: NewSimpleStateMachine(initialState),
	}
}

// From starts a new transition definition.
func (b *Builder) From(state State) *Builder {
	b.reset()
	b.currentFrom = state
	return b
}

func (b *Builder) When(event Event) *Builder {
	b.currentEvent = event
	return b
}

func (b *Builder) To(state State) *Builder {
	b.currentTo = state
	return b
}

func (b *Builder) WithGuard(guard Guard) *Builder {
	b.guards = append(b.guards, guard)
	return b
}

func (b *Builder) WithAction(action Action) *Builder {
	b.actions = append(b.actions, action)
	return b
}

// Add finalizes the current transition and adds it to the machine.
func (b *Builder) Add() (*Builder, error) {
	if err := b.machine.AddTransition(b.currentFrom, b.currentTo, b.currentEvent, b.guards, b.actions); err != nil {
		return b, err
	}
	b.reset()
	return b, nil
}

func (b *Builder) Build() StateMachine {
	return b.machine
}

func (b *Builder) reset() {
	b.currentFrom = nil
	b.currentEvent = nil
	b.currentTo = nil
	b.guards = nil
	b.actions = nil
}
