package behavior

import "github.com/justapithecus/wodscript/types"

// Interval drives an EMOM (every-minute-on-the-minute) block: it mounts
// one child per interval and, if the child's own behaviors finish early,
// holds until the interval boundary before advancing to the next.
type Interval struct {
	Base

	ChildStatementIDs []types.StatementID
	IntervalMs        int64
	TotalIntervals    int // 0 means "until children exhausted"

	// Cues, when set, fires "round_end" in the final five seconds of
	// each interval, warning that the minute boundary is near.
	Cues *SoundCue

	elapsedInInterval int64
	intervalIdx       int
	childPushed       bool
}

func (iv *Interval) OnMount(ctx *Context) ([]Action, error) {
	return []Action{Emit(types.EventTypeLoopRoundAdvance, map[string]any{
		"round":        1,
		"total_rounds": iv.TotalIntervals,
	})}, nil
}

func (iv *Interval) OnNext(ctx *Context) ([]Action, error) {
	if iv.intervalIdx >= len(iv.ChildStatementIDs) {
		return []Action{Complete()}, nil
	}
	if iv.childPushed {
		return nil, nil
	}
	id := iv.ChildStatementIDs[iv.intervalIdx]
	iv.childPushed = true
	return []Action{PushChild(id)}, nil
}

func (iv *Interval) OnTick(ctx *Context, elapsedMs int64) ([]Action, error) {
	iv.elapsedInInterval += elapsedMs
	if iv.elapsedInInterval < iv.IntervalMs {
		remaining := iv.IntervalMs - iv.elapsedInInterval
		if iv.Cues != nil && remaining <= 5_000 {
			return iv.Cues.Fire("round_end"), nil
		}
		return nil, nil
	}
	iv.elapsedInInterval -= iv.IntervalMs
	iv.intervalIdx++
	iv.childPushed = false
	if iv.Cues != nil {
		iv.Cues.ResetCues()
	}

	if iv.intervalIdx >= len(iv.ChildStatementIDs) {
		return []Action{Complete()}, nil
	}
	return []Action{Emit(types.EventTypeLoopRoundAdvance, map[string]any{
		"round":        iv.intervalIdx + 1,
		"total_rounds": iv.TotalIntervals,
	})}, nil
}

// SpanMetrics reports the interval's completed round count for its
// enclosing span.
func (iv *Interval) SpanMetrics() []types.SpanMetric {
	return []types.SpanMetric{{Key: "rounds_completed", Value: iv.intervalIdx}}
}
