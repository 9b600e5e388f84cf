// Package policy defines the event ingestion policy interface: how a
// session's published events are buffered, dropped, and persisted.
package policy

import (
	"context"
	"sync"

	"github.com/justapithecus/wodscript/types"
)

// Policy controls buffering, dropping, and persistence behavior for a
// session's event stream.
//
//   - May drop: timer:tick, sound:cue
//   - Must NOT drop: everything else, including both terminal events
//     (workout:completed, workout:cancelled, runtime:error)
//   - Policy must not alter event shapes
//   - Policy failure terminates the session
type Policy interface {
	// IngestEvent handles an event envelope. May drop droppable event
	// types. Must not drop non-droppable types; return error to
	// terminate the session.
	IngestEvent(ctx context.Context, envelope *types.EventEnvelope) error

	// Flush flushes any buffered data. Called on workout:completed,
	// workout:cancelled, runtime:error, or session termination.
	Flush(ctx context.Context) error

	// Close cleans up policy resources.
	Close() error

	// Stats returns an atomic snapshot of policy metrics.
	Stats() Stats
}

// Stats represents policy observability metrics.
type Stats struct {
	// TotalEvents is the total number of events received.
	TotalEvents int64
	// EventsPersisted is the number of events persisted.
	EventsPersisted int64
	// EventsDropped is the total number of events dropped.
	EventsDropped int64
	// DroppedByType maps event types to drop counts.
	DroppedByType map[types.EventType]int64
	// BufferSize is the current buffer size in bytes (if buffered).
	BufferSize int64
	// FlushCount is the number of flush operations.
	FlushCount int64
	// Errors is the count of non-fatal errors encountered.
	Errors int64
}

// droppableTypes defines which event types may be dropped by policy.
var droppableTypes = map[types.EventType]bool{
	types.EventTypeTimerTick: true,
	types.EventTypeSoundCue:  true,
}

// IsDroppable returns true if the event type may be dropped by policy.
func IsDroppable(eventType types.EventType) bool {
	return droppableTypes[eventType]
}

// DroppableTypes returns the set of event types that may be dropped.
func DroppableTypes() map[types.EventType]bool {
	result := make(map[types.EventType]bool, len(droppableTypes))
	for k, v := range droppableTypes {
		result[k] = v
	}
	return result
}

// statsRecorder is an internal helper for thread-safe stats management.
// Policies call explicit methods to record mutations; recorder does not
// infer or automate any policy decisions.
//
// Lock discipline:
//   - StrictPolicy uses the locking methods (incTotalEvents, snapshot, etc.)
//   - BufferedPolicy/StreamingPolicy use the Locked methods
//     (incTotalEventsLocked, snapshotLocked, etc.) only while holding their
//     own mu, so buffer state and stats counters stay atomic together.
type statsRecorder struct {
	mu    sync.Mutex
	stats Stats
}

func newStatsRecorder() *statsRecorder {
	return &statsRecorder{
		stats: Stats{
			DroppedByType: make(map[types.EventType]int64),
		},
	}
}

func (r *statsRecorder) incTotalEvents() {
	r.mu.Lock()
	r.stats.TotalEvents++
	r.mu.Unlock()
}

func (r *statsRecorder) incEventsPersisted(n int64) {
	r.mu.Lock()
	r.stats.EventsPersisted += n
	r.mu.Unlock()
}

func (r *statsRecorder) incErrors() {
	r.mu.Lock()
	r.stats.Errors++
	r.mu.Unlock()
}

func (r *statsRecorder) incFlush() {
	r.mu.Lock()
	r.stats.FlushCount++
	r.mu.Unlock()
}

func (r *statsRecorder) snapshot() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.stats
	s.DroppedByType = make(map[types.EventType]int64, len(r.stats.DroppedByType))
	for k, v := range r.stats.DroppedByType {
		s.DroppedByType[k] = v
	}
	return s
}

// --- Locked methods for BufferedPolicy/StreamingPolicy ---
// Caller must hold the policy's own mu.

func (r *statsRecorder) incTotalEventsLocked() {
	r.stats.TotalEvents++
}

func (r *statsRecorder) incEventsPersistedLocked(n int64) {
	r.stats.EventsPersisted += n
}

func (r *statsRecorder) incEventsDroppedLocked(eventType types.EventType) {
	r.stats.EventsDropped++
	r.stats.DroppedByType[eventType]++
}

func (r *statsRecorder) incErrorsLocked() {
	r.stats.Errors++
}

func (r *statsRecorder) incFlushLocked() {
	r.stats.FlushCount++
}

func (r *statsRecorder) setBufferSizeLocked(bytes int64) {
	r.stats.BufferSize = bytes
}

// snapshotLocked returns an atomic snapshot of stats with the given
// bufferSize. Caller must hold the policy's own mu.
func (r *statsRecorder) snapshotLocked(bufferSize int64) Stats {
	s := r.stats
	s.BufferSize = bufferSize
	s.DroppedByType = make(map[types.EventType]int64, len(r.stats.DroppedByType))
	for k, v := range r.stats.DroppedByType {
		s.DroppedByType[k] = v
	}
	return s
}
