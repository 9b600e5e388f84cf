package behavior

import "github.com/justapithecus/wodscript/types"

// Loop advances a block through a sequence of rounds, pushing its
// children's statement ids once per round and emitting
// loop:round-advanced on each new round. TotalRounds is 0 for an
// unbounded loop (AMRAP), in which case Loop never reports itself done
// and relies on an enclosing Timer/flow behavior to request completion.
type Loop struct {
	Base

	ChildStatementIDs []types.StatementID
	TotalRounds       int

	round        int
	childIdx     int
	awaitingNext bool
}

func (l *Loop) OnMount(ctx *Context) ([]Action, error) {
	l.round = 1
	l.childIdx = 0
	return []Action{Emit(types.EventTypeLoopRoundAdvance, map[string]any{
		"round":        l.round,
		"total_rounds": l.TotalRounds,
	})}, nil
}

// OnNext pushes the next child in the current round, or advances to the
// next round if the current round's children are exhausted.
func (l *Loop) OnNext(ctx *Context) ([]Action, error) {
	if len(l.ChildStatementIDs) == 0 {
		return []Action{Complete()}, nil
	}

	if l.childIdx >= len(l.ChildStatementIDs) {
		if l.TotalRounds > 0 && l.round >= l.TotalRounds {
			return []Action{Complete()}, nil
		}
		l.round++
		l.childIdx = 0
		return []Action{Emit(types.EventTypeLoopRoundAdvance, map[string]any{
			"round":        l.round,
			"total_rounds": l.TotalRounds,
		})}, nil
	}

	id := l.ChildStatementIDs[l.childIdx]
	l.childIdx++
	return []Action{PushChild(id)}, nil
}

// Round returns the current 1-based round number.
func (l *Loop) Round() int { return l.round }

// SpanMetrics reports the rounds completed for its enclosing span.
func (l *Loop) SpanMetrics() []types.SpanMetric {
	return []types.SpanMetric{{Key: "rounds_completed", Value: l.round}}
}
