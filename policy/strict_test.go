package policy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/justapithecus/wodscript/types"
)

func TestStrictPolicy_WritesImmediately(t *testing.T) {
	sink := NewStubSink()
	p := NewStrictPolicy(sink)

	require.NoError(t, p.IngestEvent(context.Background(), &types.EventEnvelope{Type: types.EventTypeWorkoutStarted}))
	require.Equal(t, int64(1), sink.Stats().EventsWritten)
	require.Equal(t, int64(1), p.Stats().EventsPersisted)
	require.Equal(t, int64(1), p.Stats().TotalEvents)
}

func TestStrictPolicy_SinkErrorPropagates(t *testing.T) {
	sink := NewStubSink()
	sink.ErrorOnWrite = errors.New("write failed")
	p := NewStrictPolicy(sink)

	err := p.IngestEvent(context.Background(), &types.EventEnvelope{Type: types.EventTypeWorkoutCompleted})
	require.Error(t, err)
	require.Equal(t, int64(1), p.Stats().Errors)
	require.Zero(t, p.Stats().EventsPersisted)
}

func TestStrictPolicy_NeverDrops(t *testing.T) {
	sink := NewStubSink()
	p := NewStrictPolicy(sink)

	require.NoError(t, p.IngestEvent(context.Background(), &types.EventEnvelope{Type: types.EventTypeTimerTick}))
	require.Equal(t, int64(1), sink.Stats().EventsWritten)
	require.Zero(t, p.Stats().EventsDropped)
}

func TestStrictPolicy_CloseClosesSink(t *testing.T) {
	sink := NewStubSink()
	p := NewStrictPolicy(sink)
	require.NoError(t, p.Close())
	require.True(t, sink.Stats().Closed)
}
