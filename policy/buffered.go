package policy

import (
	"context"
	"errors"
	"sync"

	"github.com/justapithecus/wodscript/log"
	"github.com/justapithecus/wodscript/types"
)

// BufferedConfig configures a BufferedPolicy.
type BufferedConfig struct {
	// MaxBufferEvents is the maximum number of events to buffer. Zero
	// means no limit (use MaxBufferBytes instead).
	MaxBufferEvents int

	// MaxBufferBytes is the maximum buffer size in bytes (estimated).
	// Zero means no limit (use MaxBufferEvents instead). At least one
	// limit must be set.
	MaxBufferBytes int64

	// Logger is an optional logger for policy observability. If nil, no
	// logging is emitted.
	Logger *log.Logger
}

// DefaultBufferedConfig returns sensible defaults for buffered policy.
func DefaultBufferedConfig() BufferedConfig {
	return BufferedConfig{
		MaxBufferEvents: 1000,
		MaxBufferBytes:  10 * 1024 * 1024, // 10 MB
	}
}

// ErrBufferFull is returned when buffer is full and event is non-droppable.
var ErrBufferFull = errors.New("buffer full: cannot accept non-droppable event")

// ErrInvalidConfig is returned when BufferedConfig is invalid.
var ErrInvalidConfig = errors.New("invalid config: at least one of MaxBufferEvents or MaxBufferBytes must be set")

// BufferedPolicy implements buffered persistence with drop rules.
//
//   - Bounded buffer with explicit limits
//   - May drop: timer:tick, sound:cue
//   - Must NOT drop: everything else
//   - Batch writes on flush; buffer preserved on flush failure (prefer
//     duplicates over loss)
type BufferedPolicy struct {
	sink   Sink
	config BufferedConfig
	logger *log.Logger

	mu          sync.Mutex // guards buffer state only
	eventBuffer []*types.EventEnvelope
	bufferBytes int64
	stats       *statsRecorder
}

// NewBufferedPolicy creates a new buffered policy. Returns error if
// config is invalid.
func NewBufferedPolicy(sink Sink, config BufferedConfig) (*BufferedPolicy, error) {
	if config.MaxBufferEvents <= 0 && config.MaxBufferBytes <= 0 {
		return nil, ErrInvalidConfig
	}

	return &BufferedPolicy{
		sink:        sink,
		config:      config,
		logger:      config.Logger,
		eventBuffer: make([]*types.EventEnvelope, 0, max(config.MaxBufferEvents, 100)),
		stats:       newStatsRecorder(),
	}, nil
}

// IngestEvent buffers the event, applying drop rules if buffer is full.
//
// Drop strategy when full:
//   - If incoming event is droppable: drop it, record in stats
//   - If incoming event is non-droppable and buffer has droppable
//     events: drop oldest droppable
//   - If incoming event is non-droppable and no droppable events:
//     return error (terminates the session)
func (p *BufferedPolicy) IngestEvent(ctx context.Context, envelope *types.EventEnvelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stats.incTotalEventsLocked()

	eventSize := p.estimateEventSize(envelope)

	if p.hasRoomForEvent(eventSize) {
		p.appendEvent(envelope, eventSize)
		return nil
	}

	if IsDroppable(envelope.Type) {
		p.stats.incEventsDroppedLocked(envelope.Type)
		p.logDrop(envelope.Type, "buffer_full")
		return nil
	}

	if p.dropOldestDroppable() && p.hasRoomForBytes(eventSize) {
		p.appendEvent(envelope, eventSize)
		return nil
	}

	p.stats.incErrorsLocked()
	p.logBufferOverflow(envelope.Type)
	return ErrBufferFull
}

// appendEvent adds an event to the buffer. Caller must hold mu.
func (p *BufferedPolicy) appendEvent(envelope *types.EventEnvelope, eventSize int64) {
	p.eventBuffer = append(p.eventBuffer, envelope)
	p.bufferBytes += eventSize
	p.stats.setBufferSizeLocked(p.bufferBytes)
}

// Flush writes all buffered events to the sink. On failure, the buffer
// is preserved so a retry does not lose data (at-least-once semantics).
func (p *BufferedPolicy) Flush(ctx context.Context) error {
	p.mu.Lock()
	p.stats.incFlushLocked()
	events := p.eventBuffer
	p.mu.Unlock()

	if len(events) == 0 {
		return nil
	}

	if err := p.sink.WriteEvents(ctx, events); err != nil {
		p.mu.Lock()
		p.stats.incErrorsLocked()
		p.mu.Unlock()
		p.logFlushFailure(err)
		return err
	}

	p.mu.Lock()
	p.stats.incEventsPersistedLocked(int64(len(events)))
	p.clearEventBuffer()
	p.mu.Unlock()

	return nil
}

// clearEventBuffer resets the event buffer. Caller must hold mu.
func (p *BufferedPolicy) clearEventBuffer() {
	p.eventBuffer = make([]*types.EventEnvelope, 0, max(p.config.MaxBufferEvents, 100))
	p.recalculateBufferBytes()
}

// recalculateBufferBytes recalculates bufferBytes from the buffer.
// Caller must hold mu.
func (p *BufferedPolicy) recalculateBufferBytes() {
	var total int64
	for _, event := range p.eventBuffer {
		total += p.estimateEventSize(event)
	}
	p.bufferBytes = total
	p.stats.setBufferSizeLocked(p.bufferBytes)
}

// Close flushes remaining data and closes the sink.
func (p *BufferedPolicy) Close() error {
	_ = p.Flush(context.Background())
	return p.sink.Close()
}

// Stats returns policy statistics. Returns an atomic snapshot: the
// buffer mutex is held while taking the snapshot, ensuring all counters
// and buffer size are captured from the same point in time.
func (p *BufferedPolicy) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.stats.snapshotLocked(p.bufferBytes)
}

func (p *BufferedPolicy) hasRoomForEvent(eventSize int64) bool {
	if p.config.MaxBufferEvents > 0 && len(p.eventBuffer) >= p.config.MaxBufferEvents {
		return false
	}
	return p.hasRoomForBytes(eventSize)
}

func (p *BufferedPolicy) hasRoomForBytes(size int64) bool {
	if p.config.MaxBufferBytes > 0 && p.bufferBytes+size > p.config.MaxBufferBytes {
		return false
	}
	return true
}

// dropOldestDroppable removes the oldest droppable event from the
// buffer. Returns true if an event was dropped. Caller must hold mu.
func (p *BufferedPolicy) dropOldestDroppable() bool {
	for i, event := range p.eventBuffer {
		if IsDroppable(event.Type) {
			eventType := event.Type
			eventSize := p.estimateEventSize(event)
			p.eventBuffer = append(p.eventBuffer[:i], p.eventBuffer[i+1:]...)
			p.bufferBytes -= eventSize
			p.stats.setBufferSizeLocked(p.bufferBytes)
			p.stats.incEventsDroppedLocked(eventType)
			p.logDrop(eventType, "evicted_for_non_droppable")
			return true
		}
	}
	return false
}

// estimateEventSize returns an estimated size in bytes for an event.
// Rough estimate for buffer management.
func (p *BufferedPolicy) estimateEventSize(envelope *types.EventEnvelope) int64 {
	size := int64(200)
	if envelope.Payload != nil {
		size += int64(len(envelope.Payload) * 50)
	}
	return size
}

// --- Logging helpers ---

func (p *BufferedPolicy) logDrop(eventType types.EventType, reason string) {
	if p.logger == nil {
		return
	}
	p.logger.Warn("event dropped", map[string]any{
		"event_type": string(eventType),
		"reason":     reason,
		"policy":     "buffered",
	})
}

func (p *BufferedPolicy) logBufferOverflow(eventType types.EventType) {
	if p.logger == nil {
		return
	}
	p.logger.Error("buffer overflow", map[string]any{
		"event_type": string(eventType),
		"policy":     "buffered",
	})
}

func (p *BufferedPolicy) logFlushFailure(err error) {
	if p.logger == nil {
		return
	}
	p.logger.Error("flush failed", map[string]any{
		"error":  err.Error(),
		"policy": "buffered",
	})
}

// Verify BufferedPolicy implements Policy.
var _ Policy = (*BufferedPolicy)(nil)
