// Package metrics provides per-session metrics collection.
//
// The Collector accumulates counters during a single session. It is a
// leaf package with no internal dependencies. Ingestion policy metrics
// are absorbed from policy.Stats at session completion rather than
// recorded live, avoiding double-counting.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all metrics. Returned
// by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Session lifecycle
	SessionsStarted   int64
	SessionsCompleted int64
	SessionsCancelled int64
	SessionsCrashed   int64

	// Block/timer activity
	BlocksPushed int64
	BlocksPopped int64
	TimerTicks   int64

	// Ingestion (absorbed from policy.Stats at session completion)
	EventsReceived  int64
	EventsPersisted int64
	EventsDropped   int64
	DroppedByType   map[string]int64

	// IPC (decoding persisted/replayed session frames)
	IPCDecodeErrors int64

	// Store
	StoreWriteSuccess int64
	StoreWriteFailure int64

	// Dimensions (informational, set at construction)
	Policy         string
	StorageBackend string
	SessionID      string
}

// Collector accumulates metrics during a single session. Thread-safe
// via sync.Mutex. All increment methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex

	sessionsStarted   int64
	sessionsCompleted int64
	sessionsCancelled int64
	sessionsCrashed   int64

	blocksPushed int64
	blocksPopped int64
	timerTicks   int64

	ipcDecodeErrors int64

	storeWriteSuccess int64
	storeWriteFailure int64

	eventsReceived  int64
	eventsPersisted int64
	eventsDropped   int64
	droppedByType   map[string]int64

	policy         string
	storageBackend string
	sessionID      string
}

// NewCollector creates a Collector with dimension labels. policy and
// storageBackend are required; sessionID is optional.
func NewCollector(policy, storageBackend, sessionID string) *Collector {
	return &Collector{
		droppedByType:  make(map[string]int64),
		policy:         policy,
		storageBackend: storageBackend,
		sessionID:      sessionID,
	}
}

// --- Session lifecycle ---

// IncSessionStarted records a session start.
func (c *Collector) IncSessionStarted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.sessionsStarted++
	c.mu.Unlock()
}

// IncSessionCompleted records a normal session completion.
func (c *Collector) IncSessionCompleted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.sessionsCompleted++
	c.mu.Unlock()
}

// IncSessionCancelled records a user-cancelled session.
func (c *Collector) IncSessionCancelled() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.sessionsCancelled++
	c.mu.Unlock()
}

// IncSessionCrashed records a session that terminated via runtime:error.
func (c *Collector) IncSessionCrashed() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.sessionsCrashed++
	c.mu.Unlock()
}

// --- Block/timer activity ---

// IncBlockPushed records a block:pushed event.
func (c *Collector) IncBlockPushed() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.blocksPushed++
	c.mu.Unlock()
}

// IncBlockPopped records a block:popped event.
func (c *Collector) IncBlockPopped() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.blocksPopped++
	c.mu.Unlock()
}

// IncTimerTick records a timer:tick event.
func (c *Collector) IncTimerTick() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.timerTicks++
	c.mu.Unlock()
}

// --- IPC ---

// IncIPCDecodeErrors records a frame decode error while replaying a
// persisted session.
func (c *Collector) IncIPCDecodeErrors() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.ipcDecodeErrors++
	c.mu.Unlock()
}

// --- Store ---
// Store counters are per-call, not per-record. A single WriteEvents
// call with N events counts as 1 success. Per-event granularity is
// tracked separately by policy.Stats (events_persisted_total).

// IncStoreWriteSuccess records a successful store write operation (per-call).
func (c *Collector) IncStoreWriteSuccess() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.storeWriteSuccess++
	c.mu.Unlock()
}

// IncStoreWriteFailure records a failed store write operation (per-call).
func (c *Collector) IncStoreWriteFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.storeWriteFailure++
	c.mu.Unlock()
}

// --- Ingestion (absorbed from policy.Stats) ---

// AbsorbPolicyStats copies ingestion counters from policy.Stats into the
// collector. Called once after session completion with the final policy
// stats snapshot. The droppedByType map keys are string-typed event
// types to keep this package free of dependencies on the types package.
func (c *Collector) AbsorbPolicyStats(totalEvents, persisted, dropped int64, droppedByType map[string]int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.eventsReceived = totalEvents
	c.eventsPersisted = persisted
	c.eventsDropped = dropped
	c.droppedByType = make(map[string]int64, len(droppedByType))
	for k, v := range droppedByType {
		c.droppedByType[k] = v
	}
	c.mu.Unlock()
}

// --- Snapshot ---

// Snapshot returns an immutable point-in-time view of all metrics. The
// returned Snapshot is safe to read concurrently; the Collector can
// continue to be mutated independently.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	dropped := make(map[string]int64, len(c.droppedByType))
	for k, v := range c.droppedByType {
		dropped[k] = v
	}

	return Snapshot{
		SessionsStarted:   c.sessionsStarted,
		SessionsCompleted: c.sessionsCompleted,
		SessionsCancelled: c.sessionsCancelled,
		SessionsCrashed:   c.sessionsCrashed,

		BlocksPushed: c.blocksPushed,
		BlocksPopped: c.blocksPopped,
		TimerTicks:   c.timerTicks,

		EventsReceived:  c.eventsReceived,
		EventsPersisted: c.eventsPersisted,
		EventsDropped:   c.eventsDropped,
		DroppedByType:   dropped,

		IPCDecodeErrors: c.ipcDecodeErrors,

		StoreWriteSuccess: c.storeWriteSuccess,
		StoreWriteFailure: c.storeWriteFailure,

		Policy:         c.policy,
		StorageBackend: c.storageBackend,
		SessionID:      c.sessionID,
	}
}
