// Package block implements the runtime unit a compiled statement becomes:
// a stable block key, a fixed-order set of behaviors, an owned memory
// segment, and a mount/next/tick/dispose lifecycle.
package block

import (
	"fmt"

	"github.com/justapithecus/wodscript/behavior"
	"github.com/justapithecus/wodscript/clock"
	"github.com/justapithecus/wodscript/memory"
	"github.com/justapithecus/wodscript/types"
)

// Block is the runtime unit produced by the JIT compiler. A block owns
// its behaviors for its entire life; behaviors are never reused across
// blocks, matching the one-struct-per-push discipline the compiler
// relies on.
type Block struct {
	Key       types.BlockKey
	Kind      string
	Statement types.Statement

	// StartedMs is the workout-elapsed time, in milliseconds, at which
	// the runtime pushed this block. Set by the runtime, not by New,
	// since the block itself has no notion of session-wide elapsed time.
	StartedMs int64

	behaviors []behavior.Behavior
	memory    *memory.Plane
	clock     *clock.Clock

	mounted  bool
	disposed bool
}

// New constructs a Block. The block is not yet mounted; call Mount to
// run its behaviors' OnMount hooks.
func New(key types.BlockKey, kind string, stmt types.Statement, behaviors []behavior.Behavior, mem *memory.Plane, clk *clock.Clock) *Block {
	return &Block{
		Key:       key,
		Kind:      kind,
		Statement: stmt,
		behaviors: behaviors,
		memory:    mem,
		clock:     clk,
	}
}

func (b *Block) context() *behavior.Context {
	return &behavior.Context{
		BlockKey:  b.Key,
		Memory:    b.memory,
		Clock:     b.clock,
		Statement: b.Statement,
	}
}

// Mount runs OnMount on every behavior in fixed order, collecting their
// actions. A failed mount propagates the first error and leaves the
// block's mounted flag false so the runtime stack does not push it.
func (b *Block) Mount() ([]behavior.Action, error) {
	if b.mounted {
		return nil, fmt.Errorf("block %s: already mounted", b.Key)
	}
	var actions []behavior.Action
	for _, bh := range b.behaviors {
		acts, err := bh.OnMount(b.context())
		if err != nil {
			return nil, fmt.Errorf("block %s mount: %w", b.Key, err)
		}
		actions = append(actions, acts...)
	}
	b.mounted = true
	return actions, nil
}

// Next runs OnNext on every behavior in fixed order, collecting their
// actions. Called once per scheduler advance while the block is
// mounted and not disposed.
func (b *Block) Next() ([]behavior.Action, error) {
	if !b.mounted || b.disposed {
		return nil, fmt.Errorf("block %s: next called while not mounted", b.Key)
	}
	var actions []behavior.Action
	for _, bh := range b.behaviors {
		acts, err := bh.OnNext(b.context())
		if err != nil {
			return nil, fmt.Errorf("block %s next: %w", b.Key, err)
		}
		actions = append(actions, acts...)
	}
	return actions, nil
}

// Tick runs OnTick on every behavior in fixed order with the elapsed
// time since the previous tick, collecting their actions.
func (b *Block) Tick(elapsedMs int64) ([]behavior.Action, error) {
	if !b.mounted || b.disposed {
		return nil, fmt.Errorf("block %s: tick called while not mounted", b.Key)
	}
	var actions []behavior.Action
	for _, bh := range b.behaviors {
		acts, err := bh.OnTick(b.context(), elapsedMs)
		if err != nil {
			return nil, fmt.Errorf("block %s tick: %w", b.Key, err)
		}
		actions = append(actions, acts...)
	}
	return actions, nil
}

// Dispose runs OnDispose on every behavior in reverse fixed order and
// releases every memory slot this block owns. Dispose is idempotent:
// calling it twice is a no-op on the second call, matching the runtime
// stack's "dispose exactly once" invariant even if a caller double-pops.
func (b *Block) Dispose() error {
	if b.disposed {
		return nil
	}
	b.disposed = true

	for i := len(b.behaviors) - 1; i >= 0; i-- {
		if err := b.behaviors[i].OnDispose(b.context()); err != nil {
			return fmt.Errorf("block %s dispose: %w", b.Key, err)
		}
	}
	b.memory.ReleaseAll(b.Key)
	return nil
}

// GetMemory reads a slot owned anywhere in the plane, typically used by
// a renderer or test harness rather than by behaviors themselves
// (behaviors receive the plane directly via Context).
func (b *Block) GetMemory(id memory.SlotID) (any, error) {
	return b.memory.Get(id)
}

// SetMemory writes a slot in the shared plane.
func (b *Block) SetMemory(id memory.SlotID, value any) error {
	return b.memory.Set(id, value)
}

// Behaviors returns the block's owned behaviors in fixed order, used by
// the runtime scheduler to reach into a specific behavior (e.g. Effort's
// RecordReps, SoundCue's ResetCues) in response to external input.
func (b *Block) Behaviors() []behavior.Behavior {
	return b.behaviors
}

// Mounted reports whether Mount has completed successfully.
func (b *Block) Mounted() bool { return b.mounted }

// Disposed reports whether Dispose has been called.
func (b *Block) Disposed() bool { return b.disposed }
