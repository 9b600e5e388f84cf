package metrics

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCollector_IncrementMethods(t *testing.T) {
	c := NewCollector("strict", "fs", "session-001")

	c.IncSessionStarted()
	c.IncSessionCompleted()
	c.IncSessionCancelled()
	c.IncSessionCancelled()
	c.IncSessionCrashed()
	c.IncBlockPushed()
	c.IncBlockPushed()
	c.IncBlockPopped()
	c.IncTimerTick()
	c.IncTimerTick()
	c.IncTimerTick()
	c.IncIPCDecodeErrors()
	c.IncStoreWriteSuccess()
	c.IncStoreWriteSuccess()
	c.IncStoreWriteFailure()

	s := c.Snapshot()

	require.Equal(t, int64(1), s.SessionsStarted)
	require.Equal(t, int64(1), s.SessionsCompleted)
	require.Equal(t, int64(2), s.SessionsCancelled)
	require.Equal(t, int64(1), s.SessionsCrashed)
	require.Equal(t, int64(2), s.BlocksPushed)
	require.Equal(t, int64(1), s.BlocksPopped)
	require.Equal(t, int64(3), s.TimerTicks)
	require.Equal(t, int64(1), s.IPCDecodeErrors)
	require.Equal(t, int64(2), s.StoreWriteSuccess)
	require.Equal(t, int64(1), s.StoreWriteFailure)
}

func TestCollector_Dimensions(t *testing.T) {
	c := NewCollector("buffered", "s3", "session-42")
	s := c.Snapshot()

	require.Equal(t, "buffered", s.Policy)
	require.Equal(t, "s3", s.StorageBackend)
	require.Equal(t, "session-42", s.SessionID)
}

func TestCollector_AbsorbPolicyStats(t *testing.T) {
	c := NewCollector("strict", "fs", "session-001")

	droppedByType := map[string]int64{
		"timer:tick": 5,
		"sound:cue":  2,
	}
	c.AbsorbPolicyStats(100, 92, 8, droppedByType)

	s := c.Snapshot()

	require.Equal(t, int64(100), s.EventsReceived)
	require.Equal(t, int64(92), s.EventsPersisted)
	require.Equal(t, int64(8), s.EventsDropped)
	require.Len(t, s.DroppedByType, 2)
	require.Equal(t, int64(5), s.DroppedByType["timer:tick"])
	require.Equal(t, int64(2), s.DroppedByType["sound:cue"])
}

func TestCollector_AbsorbPolicyStats_MapIsolation(t *testing.T) {
	c := NewCollector("strict", "fs", "session-001")

	original := map[string]int64{"timer:tick": 5}
	c.AbsorbPolicyStats(10, 5, 5, original)

	original["timer:tick"] = 999
	original["new_type"] = 100

	s := c.Snapshot()
	require.Equal(t, int64(5), s.DroppedByType["timer:tick"])
	_, exists := s.DroppedByType["new_type"]
	require.False(t, exists)
}

func TestCollector_SnapshotImmutability(t *testing.T) {
	c := NewCollector("strict", "fs", "session-001")
	c.IncSessionStarted()
	c.IncStoreWriteSuccess()

	s1 := c.Snapshot()

	c.IncSessionCompleted()
	c.IncStoreWriteSuccess()
	c.IncStoreWriteSuccess()

	require.Zero(t, s1.SessionsCompleted)
	require.Equal(t, int64(1), s1.StoreWriteSuccess)

	s2 := c.Snapshot()
	require.Equal(t, int64(1), s2.SessionsCompleted)
	require.Equal(t, int64(3), s2.StoreWriteSuccess)
}

func TestCollector_SnapshotDroppedByTypeIsolation(t *testing.T) {
	c := NewCollector("strict", "fs", "session-001")
	c.AbsorbPolicyStats(10, 5, 5, map[string]int64{"timer:tick": 3})

	s := c.Snapshot()
	s.DroppedByType["timer:tick"] = 999
	s.DroppedByType["injected"] = 1

	s2 := c.Snapshot()
	require.Equal(t, int64(3), s2.DroppedByType["timer:tick"])
	_, exists := s2.DroppedByType["injected"]
	require.False(t, exists)
}

func TestCollector_NilReceiverSafety(t *testing.T) {
	var c *Collector

	c.IncSessionStarted()
	c.IncSessionCompleted()
	c.IncSessionCancelled()
	c.IncSessionCrashed()
	c.IncBlockPushed()
	c.IncBlockPopped()
	c.IncTimerTick()
	c.IncIPCDecodeErrors()
	c.IncStoreWriteSuccess()
	c.IncStoreWriteFailure()
	c.AbsorbPolicyStats(10, 8, 2, map[string]int64{"timer:tick": 2})

	s := c.Snapshot()
	require.Zero(t, s.SessionsStarted)
	require.Nil(t, s.DroppedByType)
}

func TestCollector_ConcurrentAccess(t *testing.T) {
	c := NewCollector("strict", "fs", "session-001")
	const goroutines = 10
	const iterations = 1000

	var wg sync.WaitGroup
	wg.Add(goroutines)

	for range goroutines {
		go func() {
			defer wg.Done()
			for range iterations {
				c.IncSessionStarted()
				c.IncStoreWriteSuccess()
				c.IncTimerTick()
			}
		}()
	}

	wg.Wait()

	s := c.Snapshot()
	want := int64(goroutines * iterations)

	require.Equal(t, want, s.SessionsStarted)
	require.Equal(t, want, s.StoreWriteSuccess)
	require.Equal(t, want, s.TimerTicks)
}

func TestCollector_ZeroValueSnapshot(t *testing.T) {
	c := NewCollector("strict", "fs", "session-001")
	s := c.Snapshot()

	require.Zero(t, s.SessionsStarted)
	require.Zero(t, s.SessionsCompleted)
	require.Zero(t, s.SessionsCancelled)
	require.Zero(t, s.SessionsCrashed)
	require.Zero(t, s.BlocksPushed)
	require.Zero(t, s.BlocksPopped)
	require.Zero(t, s.TimerTicks)
	require.Zero(t, s.EventsReceived)
	require.Zero(t, s.EventsPersisted)
	require.Zero(t, s.EventsDropped)
	require.Zero(t, s.IPCDecodeErrors)
	require.Zero(t, s.StoreWriteSuccess)
	require.Zero(t, s.StoreWriteFailure)
	require.Empty(t, s.DroppedByType)
}
