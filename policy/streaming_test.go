package policy

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/justapithecus/wodscript/types"
)

func TestNewStreamingPolicy_RequiresATrigger(t *testing.T) {
	_, err := NewStreamingPolicy(NewStubSink(), StreamingConfig{})
	require.ErrorIs(t, err, ErrStreamingInvalidConfig)
}

func TestStreamingPolicy_FlushesOnCountThreshold(t *testing.T) {
	sink := NewStubSink()
	p, err := NewStreamingPolicy(sink, StreamingConfig{FlushCount: 2})
	require.NoError(t, err)

	require.NoError(t, p.IngestEvent(context.Background(), &types.EventEnvelope{Type: types.EventTypeWorkoutStarted}))
	require.Zero(t, sink.Stats().EventsWritten)

	require.NoError(t, p.IngestEvent(context.Background(), &types.EventEnvelope{Type: types.EventTypeBlockPushed}))
	require.Equal(t, int64(2), sink.Stats().EventsWritten)
	require.Equal(t, int64(1), p.FlushTriggerStats()[FlushTriggerCount])
}

func TestStreamingPolicy_FlushesOnInterval(t *testing.T) {
	sink := NewStubSink()
	p, err := NewStreamingPolicy(sink, StreamingConfig{FlushInterval: 5 * time.Millisecond})
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.IngestEvent(context.Background(), &types.EventEnvelope{Type: types.EventTypeWorkoutStarted}))
	require.Eventually(t, func() bool {
		return sink.Stats().EventsWritten == 1
	}, 200*time.Millisecond, 5*time.Millisecond)
}

func TestStreamingPolicy_NeverDrops(t *testing.T) {
	sink := NewStubSink()
	p, err := NewStreamingPolicy(sink, StreamingConfig{FlushCount: 100})
	require.NoError(t, err)

	require.NoError(t, p.IngestEvent(context.Background(), &types.EventEnvelope{Type: types.EventTypeTimerTick}))
	require.Zero(t, p.Stats().EventsDropped)
	require.Equal(t, int64(1), p.Stats().TotalEvents)
}

func TestStreamingPolicy_CloseFlushesRemainder(t *testing.T) {
	sink := NewStubSink()
	p, err := NewStreamingPolicy(sink, StreamingConfig{FlushCount: 100})
	require.NoError(t, err)

	require.NoError(t, p.IngestEvent(context.Background(), &types.EventEnvelope{Type: types.EventTypeWorkoutCompleted}))
	require.NoError(t, p.Close())
	require.Equal(t, int64(1), sink.Stats().EventsWritten)
}
