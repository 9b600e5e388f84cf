package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/justapithecus/lode/lode"
)

func TestNewReadDatasetFS(t *testing.T) {
	ds, err := NewReadDatasetFS("wodscript", t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, ds)
}

func TestMatchesPartitionValue(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		key   string
		value string
		want  bool
	}{
		{"exact match", "program=Cindy/category=amrap/day=2026-08-01/session_id=s1/event_type=workout_started/data.jsonl", "event_type", "workout_started", true},
		{"no false positive on prefix", "session_id=session-10/event_type=x/data.jsonl", "session_id", "session-1", false},
		{"exact id match", "session_id=session-1/event_type=x/data.jsonl", "session_id", "session-1", true},
		{"missing key", "program=Cindy/category=amrap/data.jsonl", "session_id", "s1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, matchesPartitionValue(tt.path, tt.key, tt.value))
		})
	}
}

func TestSnapshotMatchesFilter_EmptyValueMatchesAll(t *testing.T) {
	snap := &lode.Snapshot{}
	require.True(t, snapshotMatchesFilter(snap, "session_id", ""))
}

func TestIsSessionResultSnapshot_NoFiles(t *testing.T) {
	snap := &lode.Snapshot{}
	require.False(t, isSessionResultSnapshot(snap))
}
