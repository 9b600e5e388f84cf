package runtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/justapithecus/wodscript/clock"
	"github.com/justapithecus/wodscript/parser"
	"github.com/justapithecus/wodscript/types"
)

// newScenarioSession builds a session over src with a manual clock, so
// these tests run instantly instead of over real wall-clock time. advance
// moves the fake clock forward; the caller still calls sess.Tick to fan
// that time out across live blocks.
func newScenarioSession(t *testing.T, src string) (sess *Session, advance func(time.Duration)) {
	t.Helper()
	s := parser.Parse(src)
	require.Empty(t, s.Errors())

	clk, adv := clock.NewManual(time.Unix(0, 0))
	sess, err := NewSessionWithClock(types.SessionMeta{SessionID: "sess-scenario", Attempt: 1}, s, clk)
	require.NoError(t, err)
	return sess, adv
}

func eventTypes(events []types.EventEnvelope) []types.EventType {
	out := make([]types.EventType, 0, len(events))
	for _, e := range events {
		out = append(out, e.Type)
	}
	return out
}

func countType(events []types.EventEnvelope, t types.EventType) int {
	n := 0
	for _, e := range events {
		if e.Type == t {
			n++
		}
	}
	return n
}

// Scenario 1: simple for-time.
func TestScenario_SimpleForTime(t *testing.T) {
	sess, _ := newScenarioSession(t, "10 Pushups\n15 Squats\n")

	var events []types.EventEnvelope
	sess.Subscribe(func(e types.EventEnvelope) { events = append(events, e) })

	require.NoError(t, sess.Run(Start()))
	for i := 0; i < 20 && sess.Outcome() == nil; i++ {
		_ = sess.Run(Next())
		_ = sess.Run(CompleteReps(15))
	}

	require.NotNil(t, sess.Outcome())
	require.Equal(t, types.OutcomeCompleted, sess.Outcome().Status)

	types_ := eventTypes(events)
	require.Equal(t, types.EventTypeWorkoutStarted, types_[0])
	require.Equal(t, types.EventTypeWorkoutCompleted, types_[len(types_)-1])

	require.Equal(t, 2, countType(events, types.EventTypeEffortSet))
	require.Equal(t, 2, countType(events, types.EventTypeEffortComplete))
	require.Equal(t, 1, countType(events, types.EventTypeWorkoutStarted))
	require.Equal(t, 1, countType(events, types.EventTypeWorkoutCompleted))

	pushed := countType(events, types.EventTypeBlockPushed)
	popped := countType(events, types.EventTypeBlockPopped)
	require.Equal(t, pushed, popped)
}

// Scenario 2: AMRAP 20 of Cindy. The timer is authoritative for
// termination regardless of how many rounds the scripted reps complete.
func TestScenario_AMRAPTerminatesOnTimerNotRoundCount(t *testing.T) {
	sess, advance := newScenarioSession(t, "20:00 AMRAP\n  5 Pullups\n  10 Pushups\n  15 Squats\n")

	var events []types.EventEnvelope
	sess.Subscribe(func(e types.EventEnvelope) { events = append(events, e) })

	require.NoError(t, sess.Run(Start()))

	for i := 0; i < 260 && sess.Outcome() == nil; i++ {
		advance(6 * time.Second)
		require.NoError(t, sess.Tick())
		_ = sess.Run(Next())
		_ = sess.Run(CompleteReps(5))
	}

	require.NotNil(t, sess.Outcome())
	require.Equal(t, types.OutcomeCompleted, sess.Outcome().Status)
	require.GreaterOrEqual(t, countType(events, types.EventTypeTimerTick), 1)
	require.Equal(t, 1, countType(events, types.EventTypeTimerComplete))
}

// Scenario 4 (adapted): EMOM-style fixed interval round advances are
// separated by tick-driven wall time, not by how quickly reps complete.
func TestScenario_EMOMAdvancesOnMinuteBoundary(t *testing.T) {
	sess, advance := newScenarioSession(t, "EMOM (5)\n  3 Power Cleans\n")

	// Only the EMOM block's own interval rounds matter here, not the
	// root loop's single round over top-level statements (total_rounds
	// 1 there vs 5 for the interval).
	var rounds []int
	sess.Subscribe(func(e types.EventEnvelope) {
		if e.Type != types.EventTypeLoopRoundAdvance {
			return
		}
		total, _ := e.Payload["total_rounds"].(int)
		if total != 5 {
			return
		}
		if r, ok := e.Payload["round"].(int); ok {
			rounds = append(rounds, r)
		}
	})

	require.NoError(t, sess.Run(Start()))
	require.NoError(t, sess.Run(Next())) // pushes the EMOM block, mounting its interval
	require.Equal(t, []int{1}, rounds)

	// Completing reps early must not advance the round before the
	// minute boundary.
	_ = sess.Run(CompleteReps(3))
	require.Equal(t, []int{1}, rounds)

	advance(60 * time.Second)
	require.NoError(t, sess.Tick())

	require.GreaterOrEqual(t, len(rounds), 1)
}

// Scenario 5: pause/resume. No timer:tick events occur between Pause and
// Resume, since the manual clock's Advance calls are still made by the
// test but Tick measures elapsed time from the clock itself, which the
// session pauses internally.
func TestScenario_PauseResumeSuppressesTicksWhilePaused(t *testing.T) {
	sess, advance := newScenarioSession(t, "20:00 AMRAP\n  10 Pushups\n")

	var events []types.EventEnvelope
	sess.Subscribe(func(e types.EventEnvelope) { events = append(events, e) })

	require.NoError(t, sess.Run(Start()))
	require.NoError(t, sess.Run(Next())) // pushes the AMRAP block, mounting its timer

	advance(1 * time.Second)
	require.NoError(t, sess.Tick())
	ticksBeforePause := countType(events, types.EventTypeTimerTick)
	require.GreaterOrEqual(t, ticksBeforePause, 1)

	require.NoError(t, sess.Run(Pause()))
	advance(5 * time.Second)
	require.NoError(t, sess.Tick())
	require.Equal(t, ticksBeforePause, countType(events, types.EventTypeTimerTick))

	require.NoError(t, sess.Run(Resume()))
	advance(1 * time.Second)
	require.NoError(t, sess.Tick())
	require.Greater(t, countType(events, types.EventTypeTimerTick), ticksBeforePause)
}

// Scenario 6: nested rounds. Exactly 6 effort:complete events; the outer
// loop advances twice with total_rounds 2, the inner loop 3x per outer
// round with total_rounds 3.
func TestScenario_NestedRoundsCompleteSixEfforts(t *testing.T) {
	sess, _ := newScenarioSession(t, "(2)\n  (3)\n    5 Pullups\n")

	var events []types.EventEnvelope
	sess.Subscribe(func(e types.EventEnvelope) { events = append(events, e) })

	require.NoError(t, sess.Run(Start()))

	for i := 0; i < 40 && sess.Outcome() == nil; i++ {
		_ = sess.Run(Next())
		_ = sess.Run(CompleteReps(5))
	}

	require.NotNil(t, sess.Outcome())
	require.Equal(t, types.OutcomeCompleted, sess.Outcome().Status)
	require.Equal(t, 6, countType(events, types.EventTypeEffortComplete))

	var outerTotals, innerTotals []int
	for _, e := range events {
		if e.Type != types.EventTypeLoopRoundAdvance {
			continue
		}
		total, _ := e.Payload["total_rounds"].(int)
		switch total {
		case 2:
			outerTotals = append(outerTotals, total)
		case 3:
			innerTotals = append(innerTotals, total)
		}
	}
	require.Len(t, outerTotals, 2)
	require.Len(t, innerTotals, 6)
}

// Universal invariant: every block:pushed is eventually matched by
// exactly one block:popped with the same block key, popped strictly
// later in event order.
func TestInvariant_EveryPushHasExactlyOneLaterPop(t *testing.T) {
	sess, _ := newScenarioSession(t, "For Time\n  10 Pushups\n  15 Squats\n")

	var events []types.EventEnvelope
	sess.Subscribe(func(e types.EventEnvelope) { events = append(events, e) })

	require.NoError(t, sess.Run(Start()))
	for i := 0; i < 20 && sess.Outcome() == nil; i++ {
		_ = sess.Run(Next())
		_ = sess.Run(CompleteReps(15))
	}
	require.NotNil(t, sess.Outcome())

	pushedAt := map[types.BlockKey]int{}
	poppedAt := map[types.BlockKey]int{}
	for i, e := range events {
		switch e.Type {
		case types.EventTypeBlockPushed:
			require.NotContains(t, pushedAt, e.BlockKey, "block pushed twice: %s", e.BlockKey)
			pushedAt[e.BlockKey] = i
		case types.EventTypeBlockPopped:
			require.NotContains(t, poppedAt, e.BlockKey, "block popped twice: %s", e.BlockKey)
			poppedAt[e.BlockKey] = i
		}
	}

	require.Equal(t, len(pushedAt), len(poppedAt))
	for key, pushIdx := range pushedAt {
		popIdx, ok := poppedAt[key]
		require.True(t, ok, "block %s pushed but never popped", key)
		require.Greater(t, popIdx, pushIdx, "block %s popped before it was pushed", key)
	}
}

// Universal invariant: a timer:complete is never followed by another
// tick for the same block key.
func TestInvariant_TimerCompleteNeverFollowedByTick(t *testing.T) {
	sess, advance := newScenarioSession(t, "0:01 AMRAP\n  5 Pullups\n")

	var events []types.EventEnvelope
	sess.Subscribe(func(e types.EventEnvelope) { events = append(events, e) })

	require.NoError(t, sess.Run(Start()))
	require.NoError(t, sess.Run(Next())) // pushes the AMRAP block, mounting its timer
	for i := 0; i < 10 && sess.Outcome() == nil; i++ {
		advance(500 * time.Millisecond)
		_ = sess.Tick()
		// A Next() turn is what lets the root notice its only child (the
		// AMRAP block) has popped and complete the session in turn; a
		// cap timer elapsing only pops the AMRAP block itself.
		_ = sess.Run(Next())
	}
	require.NotNil(t, sess.Outcome())

	completedAt := map[types.BlockKey]int{}
	for i, e := range events {
		if e.Type == types.EventTypeTimerComplete {
			completedAt[e.BlockKey] = i
		}
	}
	for i, e := range events {
		if e.Type != types.EventTypeTimerTick {
			continue
		}
		if doneIdx, ok := completedAt[e.BlockKey]; ok {
			require.Less(t, i, doneIdx, "tick for block %s after its timer:complete", e.BlockKey)
		}
	}
}
