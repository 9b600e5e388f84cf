package behavior

import "github.com/justapithecus/wodscript/types"

// Rest is a leaf behavior for a [Rest] statement: it holds for a
// duration (if one was given) or, with no duration, completes
// immediately on the next scheduler turn and leaves pacing to an
// enclosing Interval/Timer.
type Rest struct {
	Base

	DurationMs int64

	// Cues, when set, fires "countdown" once the rest enters its final
	// five seconds, cueing the athlete back in before the next effort.
	Cues *SoundCue

	elapsedMs int64
	completed bool
}

func (r *Rest) payload(remainingMs int64) map[string]any {
	return map[string]any{
		"remaining_ms": remainingMs,
		"elapsed_ms":   r.elapsedMs,
		"direction":    "countdown",
		"display_time": displayMs(remainingMs),
	}
}

func (r *Rest) OnMount(ctx *Context) ([]Action, error) {
	if r.DurationMs <= 0 {
		return nil, nil
	}
	return []Action{Emit(types.EventTypeTimerStarted, r.payload(r.DurationMs))}, nil
}

func (r *Rest) OnNext(ctx *Context) ([]Action, error) {
	if r.DurationMs <= 0 {
		return []Action{Complete()}, nil
	}
	return nil, nil
}

func (r *Rest) OnTick(ctx *Context, elapsedMs int64) ([]Action, error) {
	if r.DurationMs <= 0 || r.completed {
		return nil, nil
	}
	r.elapsedMs += elapsedMs
	remaining := r.DurationMs - r.elapsedMs
	if remaining <= 0 {
		r.completed = true
		actions := r.cueActions(0)
		return append(actions, Emit(types.EventTypeTimerComplete, r.payload(0)), Complete()), nil
	}
	actions := r.cueActions(remaining)
	return append(actions, Emit(types.EventTypeTimerTick, r.payload(remaining))), nil
}

func (r *Rest) cueActions(remaining int64) []Action {
	if r.Cues == nil || remaining > 5_000 {
		return nil
	}
	return r.Cues.Fire("countdown")
}

// SpanMetrics reports the rest's elapsed time for its enclosing span.
func (r *Rest) SpanMetrics() []types.SpanMetric {
	return []types.SpanMetric{{Key: "elapsed_ms", Value: r.elapsedMs}}
}
