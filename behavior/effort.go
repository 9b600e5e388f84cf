package behavior

import "github.com/justapithecus/wodscript/types"

// Effort is the leaf behavior for a movement statement: a label, an
// optional target rep count, and optional resistance/distance metadata
// carried through to its emitted events and spans. With no RepsTarget it
// completes on its first OnNext; with RepsTarget set it completes once
// the reps recorded through RecordReps (the runtime's CompleteReps input)
// reach the target.
type Effort struct {
	Base

	Label      string
	RepsTarget int

	// Resistance and Distance are the formatted fragment values (e.g.
	// "135 lb", "400 m"), empty when the statement carried neither.
	Resistance string
	Distance   string

	repsDone  int
	completed bool
}

func (e *Effort) payload(extra map[string]any) map[string]any {
	p := map[string]any{
		"label":          e.Label,
		"reps_completed": e.repsDone,
		"reps_target":    e.RepsTarget,
	}
	if e.Resistance != "" {
		p["resistance"] = e.Resistance
	}
	if e.Distance != "" {
		p["distance"] = e.Distance
	}
	for k, v := range extra {
		p[k] = v
	}
	return p
}

func (e *Effort) OnMount(ctx *Context) ([]Action, error) {
	return []Action{Emit(types.EventTypeEffortSet, e.payload(nil))}, nil
}

// RecordReps adds n completed reps and returns the actions (reps-completed,
// and effort:complete plus a completion request once a set target is
// reached). With no target set it never completes the effort; OnNext does.
func (e *Effort) RecordReps(n int) []Action {
	if e.completed {
		return nil
	}
	e.repsDone += n

	actions := []Action{Emit(types.EventTypeEffortReps, e.payload(nil))}

	if e.RepsTarget > 0 && e.repsDone >= e.RepsTarget {
		e.completed = true
		actions = append(actions, Emit(types.EventTypeEffortComplete, e.payload(nil)), Complete())
	}
	return actions
}

func (e *Effort) OnNext(ctx *Context) ([]Action, error) {
	if e.RepsTarget == 0 && !e.completed {
		e.completed = true
		return []Action{Emit(types.EventTypeEffortComplete, e.payload(nil)), Complete()}, nil
	}
	return nil, nil
}

// SpanMetrics reports the effort's final rep count and load for its
// enclosing span.
func (e *Effort) SpanMetrics() []types.SpanMetric {
	metrics := []types.SpanMetric{
		{Key: "reps_completed", Value: e.repsDone},
		{Key: "reps_target", Value: e.RepsTarget},
	}
	if e.Resistance != "" {
		metrics = append(metrics, types.SpanMetric{Key: "resistance", Value: e.Resistance})
	}
	if e.Distance != "" {
		metrics = append(metrics, types.SpanMetric{Key: "distance", Value: e.Distance})
	}
	return metrics
}
