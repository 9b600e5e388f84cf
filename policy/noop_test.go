package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/justapithecus/wodscript/types"
)

func TestNoopPolicy_DroppableCountedAsDropped(t *testing.T) {
	p := NewNoopPolicy()
	require.NoError(t, p.IngestEvent(context.Background(), &types.EventEnvelope{Type: types.EventTypeSoundCue}))
	require.Equal(t, int64(1), p.Stats().EventsDropped)
	require.Zero(t, p.Stats().EventsPersisted)
}

func TestNoopPolicy_NonDroppableCountedAsPersisted(t *testing.T) {
	p := NewNoopPolicy()
	require.NoError(t, p.IngestEvent(context.Background(), &types.EventEnvelope{Type: types.EventTypeWorkoutCompleted}))
	require.Equal(t, int64(1), p.Stats().EventsPersisted)
	require.Zero(t, p.Stats().EventsDropped)
}

func TestNoopPolicy_CloseIsNoop(t *testing.T) {
	p := NewNoopPolicy()
	require.NoError(t, p.Close())
}
