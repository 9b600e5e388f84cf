package policy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/justapithecus/wodscript/types"
)

func TestStubSink_WriteEventsAccumulates(t *testing.T) {
	sink := NewStubSink()
	err := sink.WriteEvents(context.Background(), []*types.EventEnvelope{
		{Type: types.EventTypeWorkoutStarted},
		{Type: types.EventTypeBlockPushed},
	})
	require.NoError(t, err)
	require.Equal(t, int64(2), sink.Stats().EventsWritten)
	require.Equal(t, int64(1), sink.Stats().EventBatches)
}

func TestStubSink_ErrorOnWrite(t *testing.T) {
	sink := NewStubSink()
	sink.ErrorOnWrite = errors.New("disk full")
	err := sink.WriteEvents(context.Background(), []*types.EventEnvelope{{Type: types.EventTypeTimerTick}})
	require.ErrorIs(t, err, sink.ErrorOnWrite)
	require.Zero(t, sink.Stats().EventsWritten)
}

func TestStubSink_Close(t *testing.T) {
	sink := NewStubSink()
	require.False(t, sink.Stats().Closed)
	require.NoError(t, sink.Close())
	require.True(t, sink.Stats().Closed)
}
