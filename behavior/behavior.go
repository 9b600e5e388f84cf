// Package behavior implements the catalogue of small, composable effect
// units a block is assembled from: timer, loop, effort, reps-publish,
// interval, rest, sound-cue, parent-context, and the workout flow state
// machine.
package behavior

import (
	"github.com/justapithecus/wodscript/clock"
	"github.com/justapithecus/wodscript/memory"
	"github.com/justapithecus/wodscript/types"
)

// ActionKind discriminates the effect a Behavior hook is requesting from
// the block/runtime that owns it.
type ActionKind string

// Action kind constants.
const (
	ActionNone       ActionKind = "none"
	ActionPushChild  ActionKind = "push_child"
	ActionComplete   ActionKind = "complete"
	ActionEmit       ActionKind = "emit"
)

// Action is a single effect requested by a behavior hook. A hook may
// return several actions from one call; the block applies them in order.
type Action struct {
	Kind ActionKind

	// ChildStatementID is set for ActionPushChild.
	ChildStatementID types.StatementID

	// EventType and Payload are set for ActionEmit.
	EventType types.EventType
	Payload   map[string]any
}

// PushChild requests that the block compile and push the given child
// statement as a new top-of-stack block.
func PushChild(id types.StatementID) Action {
	return Action{Kind: ActionPushChild, ChildStatementID: id}
}

// Complete requests that the owning block be popped on the next
// scheduler turn.
func Complete() Action {
	return Action{Kind: ActionComplete}
}

// Emit requests that an event be published on the event bus, attributed
// to the owning block's key.
func Emit(eventType types.EventType, payload map[string]any) Action {
	return Action{Kind: ActionEmit, EventType: eventType, Payload: payload}
}

// Context is handed to every behavior hook call. It exposes the owning
// block's identity and the shared collaborators a behavior may touch:
// the memory plane and the clock. Behaviors never reach across blocks
// except through the memory plane.
type Context struct {
	BlockKey types.BlockKey
	Memory   *memory.Plane
	Clock    *clock.Clock
	Statement types.Statement
}

// Behavior is one effect unit in a block's fixed, ordered behavior list.
// Hooks fire at well-defined points in the block lifecycle: OnMount when
// the block is pushed, OnNext on every scheduler advance, OnTick on
// every clock tick while mounted, OnDispose when the block is popped.
// Behaviors are never reused across blocks.
type Behavior interface {
	OnMount(ctx *Context) ([]Action, error)
	OnNext(ctx *Context) ([]Action, error)
	OnTick(ctx *Context, elapsedMs int64) ([]Action, error)
	OnDispose(ctx *Context) error
}

// MetricsReporter is implemented by behaviors that contribute a summary
// metric to their block's span:closed record when the block pops.
// Behaviors without anything worth reporting simply don't implement it.
type MetricsReporter interface {
	SpanMetrics() []types.SpanMetric
}

// Base is embedded by concrete behaviors to provide no-op defaults for
// hooks they don't need to implement.
type Base struct{}

func (Base) OnMount(*Context) ([]Action, error)                { return nil, nil }
func (Base) OnNext(*Context) ([]Action, error)                 { return nil, nil }
func (Base) OnTick(*Context, int64) ([]Action, error)          { return nil, nil }
func (Base) OnDispose(*Context) error                          { return nil }
