package runtime

import (
	"sync"
	"time"

	"github.com/justapithecus/wodscript/types"
)

// Bus sequences behavior-emitted actions into EventEnvelope records and
// fans them out to subscribers, matching the teacher's ingestion-engine
// pattern of a monotonic per-session sequence number plus terminal-event
// detection.
type Bus struct {
	mu   sync.Mutex
	subs []func(types.EventEnvelope)

	sessionID       string
	parentSessionID *string
	attempt         int
	seq             int64
}

// NewBus constructs a Bus for one session's lifetime.
func NewBus(sessionID string, parentSessionID *string, attempt int) *Bus {
	return &Bus{sessionID: sessionID, parentSessionID: parentSessionID, attempt: attempt}
}

// Subscribe registers fn to receive every future published envelope.
func (b *Bus) Subscribe(fn func(types.EventEnvelope)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, fn)
}

// Publish assigns the next sequence number and timestamp to an event and
// fans it out synchronously to all subscribers, in the same scheduler
// turn it was produced.
func (b *Bus) Publish(blockKey types.BlockKey, eventType types.EventType, payload map[string]any, ts time.Time, eventID string) types.EventEnvelope {
	b.mu.Lock()
	b.seq++
	env := types.EventEnvelope{
		ContractVersion: types.ContractVersion,
		EventID:         eventID,
		SessionID:       b.sessionID,
		ParentSessionID: b.parentSessionID,
		Attempt:         b.attempt,
		Seq:             b.seq,
		Type:            eventType,
		Ts:              ts.UTC().Format(time.RFC3339Nano),
		BlockKey:        string(blockKey),
		Payload:         payload,
	}
	var subs []func(types.EventEnvelope)
	subs = append(subs, b.subs...)
	b.mu.Unlock()

	for _, fn := range subs {
		fn(env)
	}
	return env
}
