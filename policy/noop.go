package policy

import (
	"context"
	"sync"

	"github.com/justapithecus/wodscript/types"
)

// NoopPolicy is a no-op policy for testing. Accepts all events but does
// not actually persist them.
//
// Stats reflect droppable vs non-droppable semantics: droppable events
// (timer:tick, sound:cue) are counted as dropped, non-droppable events
// are counted as persisted even though noop doesn't actually persist.
type NoopPolicy struct {
	mu    sync.Mutex
	stats Stats
}

// NewNoopPolicy creates a new no-op policy.
func NewNoopPolicy() *NoopPolicy {
	return &NoopPolicy{
		stats: Stats{
			DroppedByType: make(map[types.EventType]int64),
		},
	}
}

// IngestEvent accepts the event but does not persist it.
func (p *NoopPolicy) IngestEvent(_ context.Context, envelope *types.EventEnvelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stats.TotalEvents++

	if IsDroppable(envelope.Type) {
		p.stats.EventsDropped++
		p.stats.DroppedByType[envelope.Type]++
	} else {
		p.stats.EventsPersisted++
	}

	return nil
}

// Flush is a no-op.
func (p *NoopPolicy) Flush(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stats.FlushCount++

	return nil
}

// Close is a no-op.
func (p *NoopPolicy) Close() error {
	return nil
}

// Stats returns the policy statistics.
func (p *NoopPolicy) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	stats := p.stats
	stats.DroppedByType = make(map[types.EventType]int64, len(p.stats.DroppedByType))
	for k, v := range p.stats.DroppedByType {
		stats.DroppedByType[k] = v
	}

	return stats
}

// Verify NoopPolicy implements Policy.
var _ Policy = (*NoopPolicy)(nil)
