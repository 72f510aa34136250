package relay

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/docrelay/pkg/logger"
	"github.com/dmitrymomot/docrelay/pkg/statemachine"
)

// Stage is a step of a single invocation. It is the state type of the
// invocation's state machine.
type Stage string

const (
	StageStart         Stage = "start"
	StageTokenAcquired Stage = "token_acquired"
	StageAborted       Stage = "aborted"
	StageStaged        Stage = "staged"
	StageCompressed    Stage = "compressed"
	StageUploaded      Stage = "uploaded"
	StageCleaned       Stage = "cleaned"
)

func (s Stage) Name() string { return string(s) }

// Events driving the stage machine.
const (
	eventToken    = statemachine.StringEvent("token")
	eventAbort    = statemachine.StringEvent("abort")
	eventStage    = statemachine.StringEvent("stage")
	eventCompress = statemachine.StringEvent("compress")
	eventUpload   = statemachine.StringEvent("upload")
	eventClean    = statemachine.StringEvent("clean")
)

// stageTransitions is the only path through an invocation. Every stage after
// the token can fall through to cleaned on failure; there is no way back.
var stageTransitions = []struct {
	from  Stage
	event statemachine.StringEvent
	to    Stage
}{
	{StageStart, eventToken, StageTokenAcquired},
	{StageStart, eventAbort, StageAborted},
	{StageAborted, eventClean, StageCleaned},
	{StageTokenAcquired, eventStage, StageStaged},
	{StageTokenAcquired, eventClean, StageCleaned},
	{StageStaged, eventCompress, StageCompressed},
	{StageStaged, eventClean, StageCleaned},
	{StageCompressed, eventUpload, StageUploaded},
	{StageCompressed, eventClean, StageCleaned},
	{StageUploaded, eventClean, StageCleaned},
}

// newStageMachine builds a machine in StageStart. actions run on every
// transition.
func newStageMachine(actions ...statemachine.Action) statemachine.StateMachine {
	b := statemachine.NewBuilder(StageStart)
	for _, t := range stageTransitions {
		b.From(t.from).When(t.event).To(t.to)
		for _, a := range actions {
			b.WithAction(a)
		}
		if _, err := b.Add(); err != nil {
			panic(fmt.Sprintf("relay: stage table: %v", err))
		}
	}
	return b.Build()
}

// stagesOf returns the stages the machine has entered, in order.
func stagesOf(sm statemachine.StateMachine) []Stage {
	h := sm.History()
	out := make([]Stage, len(h))
	for i, s := range h {
		out[i] = Stage(s.Name())
	}
	return out
}

func currentStage(sm statemachine.StateMachine) Stage {
	return Stage(sm.Current().Name())
}

// fire moves sm along event. A refused transition is a bug in the pipeline,
// not in the event, so it is logged and the invocation carries on.
func (p *Pipeline) fire(ctx context.Context, sm statemachine.StateMachine, event statemachine.StringEvent) {
	if err := sm.Fire(ctx, event, nil); err != nil {
		p.logger.ErrorContext(ctx, "stage tracking", logger.Error(err))
	}
}
