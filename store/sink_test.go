package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/justapithecus/wodscript/types"
)

func TestDeriveDay(t *testing.T) {
	ts := time.Date(2026, 8, 1, 14, 30, 0, 0, time.UTC)
	require.Equal(t, "2026-08-01", DeriveDay(ts))
}

func TestSink_WriteEventsDelegates(t *testing.T) {
	client := NewStubClient()
	sink := NewSink(testConfig(), client)

	events := []*types.EventEnvelope{{Type: types.EventTypeWorkoutStarted}}
	err := sink.WriteEvents(context.Background(), events)
	require.NoError(t, err)

	require.Len(t, client.Events, 1)
	require.Equal(t, "wodscript", client.Events[0].Dataset)
	require.Equal(t, "session-123", client.Events[0].SessionID)
	require.Equal(t, events, client.Events[0].Events)
}

func TestSink_WriteResultDelegates(t *testing.T) {
	client := NewStubClient()
	sink := NewSink(testConfig(), client)

	result := &types.SessionResultFrame{
		Outcome: types.SessionResultOutcome{Status: types.SessionResultStatusCompleted},
	}
	completedAt := time.Date(2026, 8, 1, 12, 20, 0, 0, time.UTC)

	err := sink.WriteResult(context.Background(), result, completedAt)
	require.NoError(t, err)

	require.Len(t, client.Results, 1)
	require.Equal(t, result, client.Results[0].Result)
	require.Equal(t, completedAt, client.Results[0].CompletedAt)
}

func TestSink_Close(t *testing.T) {
	client := NewStubClient()
	sink := NewSink(testConfig(), client)

	require.NoError(t, sink.Close())
	require.True(t, client.Closed)
}

func TestStubClient_ImplementsClient(t *testing.T) {
	var _ Client = NewStubClient()
}
