package behavior

import (
	"fmt"

	"github.com/justapithecus/wodscript/types"
)

// Timer counts down from (or up toward) a duration, emitting
// timer:started once on mount, timer:tick on every clock tick, and
// timer:complete exactly once when the duration elapses. A
// timer:complete is never followed by another tick for the same block.
type Timer struct {
	Base

	DurationMs  int64
	IsCountdown bool

	// Cues, when set, fires "halfway" once the countdown crosses its
	// midpoint and "countdown" once it enters its final ten seconds. Nil
	// disables cueing.
	Cues *SoundCue

	elapsedMs int64
	completed bool
}

func (t *Timer) remaining() int64 {
	if t.IsCountdown {
		left := t.DurationMs - t.elapsedMs
		if left < 0 {
			return 0
		}
		return left
	}
	return t.elapsedMs
}

func (t *Timer) direction() string {
	if t.IsCountdown {
		return "countdown"
	}
	return "countup"
}

// displayMs formats a millisecond duration as mm:ss, the value shown on
// a live clock face regardless of count direction.
func displayMs(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	total := ms / 1000
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

func (t *Timer) payload(extra map[string]any) map[string]any {
	p := map[string]any{
		"remaining_ms": t.remaining(),
		"elapsed_ms":   t.elapsedMs,
		"direction":    t.direction(),
		"display_time": displayMs(t.remaining()),
	}
	for k, v := range extra {
		p[k] = v
	}
	return p
}

func (t *Timer) OnMount(ctx *Context) ([]Action, error) {
	return []Action{Emit(types.EventTypeTimerStarted, t.payload(nil))}, nil
}

func (t *Timer) OnTick(ctx *Context, elapsedMs int64) ([]Action, error) {
	if t.completed {
		return nil, nil
	}
	t.elapsedMs += elapsedMs

	if t.IsCountdown && t.elapsedMs >= t.DurationMs {
		t.completed = true
		actions := t.cueActions()
		actions = append(actions, Emit(types.EventTypeTimerComplete, t.payload(map[string]any{"remaining_ms": 0, "display_time": displayMs(0)})), Complete())
		return actions, nil
	}

	actions := t.cueActions()
	actions = append(actions, Emit(types.EventTypeTimerTick, t.payload(nil)))
	return actions, nil
}

// cueActions fires the timer's threshold cues as the remaining time
// crosses the halfway and final-ten-seconds marks.
func (t *Timer) cueActions() []Action {
	if t.Cues == nil || !t.IsCountdown {
		return nil
	}
	remaining := t.remaining()
	var actions []Action
	if remaining <= t.DurationMs/2 {
		actions = append(actions, t.Cues.Fire("halfway")...)
	}
	if remaining <= 10_000 {
		actions = append(actions, t.Cues.Fire("countdown")...)
	}
	return actions
}

// Done reports whether a countdown timer has elapsed. Always false for
// count-up timers, which run until their parent block decides to stop
// them (e.g. an AMRAP's enclosing cap timer).
func (t *Timer) Done() bool {
	return t.completed
}

// SpanMetrics reports the timer's final elapsed time and direction for
// its enclosing span.
func (t *Timer) SpanMetrics() []types.SpanMetric {
	return []types.SpanMetric{
		{Key: "elapsed_ms", Value: t.elapsedMs},
		{Key: "direction", Value: t.direction()},
	}
}
