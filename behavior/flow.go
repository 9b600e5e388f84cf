package behavior

import "github.com/justapithecus/wodscript/types"

// FlowState is the workout-level state machine's current phase.
type FlowState string

// Flow state constants.
const (
	FlowPending   FlowState = "pending"
	FlowRunning   FlowState = "running"
	FlowPaused    FlowState = "paused"
	FlowCompleted FlowState = "completed"
	FlowCancelled FlowState = "cancelled"
)

// Flow is mounted once at the root block and tracks the session-level
// start/pause/resume/cancel/complete transitions, emitting
// workout:started and workout:completed/workout:cancelled. Child blocks
// never see Flow directly; they observe its state only indirectly
// through the clock being paused/resumed by the session orchestrator.
type Flow struct {
	Base

	RootBlockKey types.BlockKey

	state      FlowState
	elapsedMs  int64
}

func (f *Flow) OnMount(ctx *Context) ([]Action, error) {
	f.state = FlowRunning
	return []Action{Emit(types.EventTypeWorkoutStarted, map[string]any{
		"root_block_key": string(f.RootBlockKey),
	})}, nil
}

func (f *Flow) OnTick(ctx *Context, elapsedMs int64) ([]Action, error) {
	if f.state == FlowRunning {
		f.elapsedMs += elapsedMs
	}
	return nil, nil
}

// Pause transitions to FlowPaused. The session orchestrator is
// responsible for also pausing the clock; Flow only tracks the logical
// phase for outcome classification.
func (f *Flow) Pause() {
	if f.state == FlowRunning {
		f.state = FlowPaused
	}
}

// Resume transitions back to FlowRunning.
func (f *Flow) Resume() {
	if f.state == FlowPaused {
		f.state = FlowRunning
	}
}

// Complete transitions to FlowCompleted and returns the terminal action
// set (workout:completed, then Complete to pop the root block).
func (f *Flow) Complete() []Action {
	f.state = FlowCompleted
	return []Action{
		Emit(types.EventTypeWorkoutCompleted, map[string]any{"elapsed_ms": f.elapsedMs}),
		Complete(),
	}
}

// Cancel transitions to FlowCancelled and returns the terminal action
// set (workout:cancelled, then Complete to pop the root block).
func (f *Flow) Cancel(reason string) []Action {
	f.state = FlowCancelled
	return []Action{
		Emit(types.EventTypeWorkoutCancelled, map[string]any{"reason": reason}),
		Complete(),
	}
}

// State returns the current flow phase.
func (f *Flow) State() FlowState {
	return f.state
}

// ElapsedMs returns the accumulated running time, excluding paused
// intervals.
func (f *Flow) ElapsedMs() int64 {
	return f.elapsedMs
}
