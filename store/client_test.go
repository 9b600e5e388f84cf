package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/justapithecus/lode/lode"

	"github.com/justapithecus/wodscript/types"
)

func TestHiveClient_WriteEvents(t *testing.T) {
	cfg := testConfig()
	client, err := NewHiveClientWithFactory(cfg, lode.NewMemoryFactory())
	require.NoError(t, err)

	events := []*types.EventEnvelope{
		{
			ContractVersion: "0.1.0",
			EventID:         "evt-1",
			SessionID:       cfg.SessionID,
			Seq:             1,
			Type:            types.EventTypeWorkoutStarted,
			Ts:              "2026-08-01T12:00:00Z",
			Payload:         map[string]any{},
			Attempt:         1,
		},
		{
			ContractVersion: "0.1.0",
			EventID:         "evt-2",
			SessionID:       cfg.SessionID,
			Seq:             2,
			Type:            types.EventTypeBlockPushed,
			Ts:              "2026-08-01T12:00:01Z",
			BlockKey:        "root.round[1]",
			Payload:         map[string]any{"block_key": "root.round[1]"},
			Attempt:         1,
		},
	}

	require.NoError(t, client.WriteEvents(context.Background(), cfg.Dataset, cfg.SessionID, events))
}

func TestHiveClient_WriteEvents_EmptyIsNoop(t *testing.T) {
	cfg := testConfig()
	client, err := NewHiveClientWithFactory(cfg, lode.NewMemoryFactory())
	require.NoError(t, err)

	require.NoError(t, client.WriteEvents(context.Background(), cfg.Dataset, cfg.SessionID, nil))
}

func TestHiveClient_WriteResult(t *testing.T) {
	cfg := testConfig()
	client, err := NewHiveClientWithFactory(cfg, lode.NewMemoryFactory())
	require.NoError(t, err)

	result := &types.SessionResultFrame{
		Outcome: types.SessionResultOutcome{Status: types.SessionResultStatusCompleted},
	}

	err = client.WriteResult(context.Background(), cfg.Dataset, cfg.SessionID, result, time.Date(2026, 8, 1, 12, 20, 0, 0, time.UTC))
	require.NoError(t, err)
}

func TestHiveClient_Close(t *testing.T) {
	cfg := testConfig()
	client, err := NewHiveClientWithFactory(cfg, lode.NewMemoryFactory())
	require.NoError(t, err)
	require.NoError(t, client.Close())
}

func TestHiveClient_ImplementsClient(t *testing.T) {
	cfg := testConfig()
	client, err := NewHiveClientWithFactory(cfg, lode.NewMemoryFactory())
	require.NoError(t, err)
	var _ Client = client
}
