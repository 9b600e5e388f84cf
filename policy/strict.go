package policy

import (
	"context"
	"sync"

	"github.com/justapithecus/wodscript/types"
)

// StrictPolicy implements synchronous, unbuffered persistence.
//
//   - No buffering: each event is written immediately
//   - No drops: all events are persisted
//   - Backpressure: caller blocks on sink latency
//   - Sink errors terminate the session
type StrictPolicy struct {
	sink Sink

	mu    sync.Mutex
	stats Stats
}

// NewStrictPolicy creates a new strict policy writing to the given sink.
func NewStrictPolicy(sink Sink) *StrictPolicy {
	return &StrictPolicy{
		sink: sink,
		stats: Stats{
			DroppedByType: make(map[types.EventType]int64),
		},
	}
}

// IngestEvent writes the event immediately to the sink.
func (p *StrictPolicy) IngestEvent(ctx context.Context, envelope *types.EventEnvelope) error {
	p.mu.Lock()
	p.stats.TotalEvents++
	p.mu.Unlock()

	if err := p.sink.WriteEvents(ctx, []*types.EventEnvelope{envelope}); err != nil {
		p.mu.Lock()
		p.stats.Errors++
		p.mu.Unlock()
		return err
	}

	p.mu.Lock()
	p.stats.EventsPersisted++
	p.mu.Unlock()

	return nil
}

// Flush is a no-op for strict policy (nothing is buffered).
func (p *StrictPolicy) Flush(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stats.FlushCount++
	return nil
}

// Close closes the underlying sink.
func (p *StrictPolicy) Close() error {
	return p.sink.Close()
}

// Stats returns policy statistics.
func (p *StrictPolicy) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	stats := p.stats
	stats.DroppedByType = make(map[types.EventType]int64, len(p.stats.DroppedByType))
	for k, v := range p.stats.DroppedByType {
		stats.DroppedByType[k] = v
	}

	return stats
}

// Verify StrictPolicy implements Policy.
var _ Policy = (*StrictPolicy)(nil)
