package behavior

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/justapithecus/wodscript/clock"
	"github.com/justapithecus/wodscript/memory"
	"github.com/justapithecus/wodscript/types"
)

func newTestContext() *Context {
	return &Context{
		BlockKey: types.NewBlockKey(1, 0, types.RootBlockKey),
		Memory:   memory.New(),
		Clock:    clock.New(),
	}
}

func TestTimer_CountdownCompletesExactlyOnce(t *testing.T) {
	ctx := newTestContext()
	timer := &Timer{DurationMs: 1000, IsCountdown: true}

	_, err := timer.OnMount(ctx)
	require.NoError(t, err)

	actions, err := timer.OnTick(ctx, 600)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	require.Equal(t, types.EventTypeTimerTick, actions[0].EventType)

	actions, err = timer.OnTick(ctx, 500)
	require.NoError(t, err)
	require.Len(t, actions, 2)
	require.Equal(t, types.EventTypeTimerComplete, actions[0].EventType)
	require.Equal(t, ActionComplete, actions[1].Kind)
	require.True(t, timer.Done())

	actions, err = timer.OnTick(ctx, 100)
	require.NoError(t, err)
	require.Empty(t, actions)
}

func TestLoop_AdvancesThroughChildrenThenRounds(t *testing.T) {
	ctx := newTestContext()
	loop := &Loop{
		ChildStatementIDs: []types.StatementID{1, 2},
		TotalRounds:       2,
	}
	_, err := loop.OnMount(ctx)
	require.NoError(t, err)

	actions, err := loop.OnNext(ctx)
	require.NoError(t, err)
	require.Equal(t, ActionPushChild, actions[0].Kind)
	require.Equal(t, types.StatementID(1), actions[0].ChildStatementID)

	actions, err = loop.OnNext(ctx)
	require.NoError(t, err)
	require.Equal(t, types.StatementID(2), actions[0].ChildStatementID)

	// Round 1 exhausted, advances to round 2.
	actions, err = loop.OnNext(ctx)
	require.NoError(t, err)
	require.Equal(t, ActionEmit, actions[0].Kind)
	require.Equal(t, 2, loop.Round())
}

func TestEffort_CompletesAtRepTarget(t *testing.T) {
	ctx := newTestContext()
	effort := &Effort{Label: "Pullups", RepsTarget: 21}
	_, err := effort.OnMount(ctx)
	require.NoError(t, err)

	actions := effort.RecordReps(10)
	require.Len(t, actions, 1)

	actions = effort.RecordReps(11)
	require.Len(t, actions, 3)
	require.Equal(t, types.EventTypeEffortComplete, actions[1].EventType)
	require.Equal(t, ActionComplete, actions[2].Kind)
}

func TestSoundCue_FiresOncePerCueUntilReset(t *testing.T) {
	cue := &SoundCue{}
	actions := cue.Fire("halfway")
	require.Len(t, actions, 1)

	actions = cue.Fire("halfway")
	require.Empty(t, actions)

	cue.ResetCues()
	actions = cue.Fire("halfway")
	require.Len(t, actions, 1)
}

func TestFlow_CompleteIsTerminal(t *testing.T) {
	flow := &Flow{RootBlockKey: types.RootBlockKey}
	ctx := newTestContext()
	_, err := flow.OnMount(ctx)
	require.NoError(t, err)
	require.Equal(t, FlowRunning, flow.State())

	actions := flow.Complete()
	require.Equal(t, FlowCompleted, flow.State())
	require.Equal(t, types.EventTypeWorkoutCompleted, actions[0].EventType)
	require.Equal(t, ActionComplete, actions[1].Kind)
}
