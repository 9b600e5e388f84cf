// Package memory implements the typed, owner-tagged, subscribable shared
// memory plane used by behaviors to communicate within a block stack.
package memory

import (
	"fmt"
	"sync"

	"github.com/justapithecus/wodscript/types"
)

// SlotID identifies a memory slot.
type SlotID string

// AnchorID identifies a named, re-targetable anchor.
type AnchorID string

// Visibility controls whether a slot is visible only to its owning block
// or to the whole plane.
type Visibility string

// Visibility constants.
const (
	VisibilityPrivate Visibility = "private"
	VisibilityPublic  Visibility = "public"
)

// Slot is one typed, owner-tagged value in the memory plane.
type Slot struct {
	ID         SlotID
	Owner      types.BlockKey
	TypeTag    string
	Visibility Visibility
	value      any
	released   bool
}

// SubscriberFunc is notified on every Set with the new and previous
// values, in the same scheduler turn as the Set that produced them.
type SubscriberFunc func(newVal, oldVal any)

// AnchorSubscriberFunc is notified on every Retarget with the new and
// previous target block keys.
type AnchorSubscriberFunc func(newTarget, previous types.BlockKey)

// Plane is the shared memory plane. All operations are serialized with
// respect to the runtime's cooperative scheduler; the mutex here guards
// against accidental concurrent access rather than expressing true
// parallelism (the scheduler never calls into the plane from two
// goroutines at once).
type Plane struct {
	mu sync.Mutex

	slots   map[SlotID]*Slot
	subs    map[SlotID][]SubscriberFunc
	nextSeq int

	anchors    map[AnchorID]types.BlockKey
	anchorSubs map[AnchorID][]AnchorSubscriberFunc
}

// New constructs an empty Plane.
func New() *Plane {
	return &Plane{
		slots:      make(map[SlotID]*Slot),
		subs:       make(map[SlotID][]SubscriberFunc),
		anchors:    make(map[AnchorID]types.BlockKey),
		anchorSubs: make(map[AnchorID][]AnchorSubscriberFunc),
	}
}

// Allocate creates a new slot owned by owner, seeded with initial, and
// returns its id. Slots are created by behaviors during mount.
func (p *Plane) Allocate(owner types.BlockKey, typeTag string, visibility Visibility, initial any) SlotID {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.nextSeq++
	id := SlotID(fmt.Sprintf("slot-%d", p.nextSeq))
	p.slots[id] = &Slot{
		ID:         id,
		Owner:      owner,
		TypeTag:    typeTag,
		Visibility: visibility,
		value:      initial,
	}
	return id
}

// Get returns the slot's current value. Fails with InvalidRefError when
// the slot has been released.
func (p *Plane) Get(id SlotID) (any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	slot, ok := p.slots[id]
	if !ok || slot.released {
		return nil, &types.InvalidRefError{RefID: string(id)}
	}
	return slot.value, nil
}

// Set updates the slot's value and synchronously notifies subscribers
// with (new, old). Fails with InvalidRefError when the slot has been
// released.
func (p *Plane) Set(id SlotID, value any) error {
	p.mu.Lock()
	slot, ok := p.slots[id]
	if !ok || slot.released {
		p.mu.Unlock()
		return &types.InvalidRefError{RefID: string(id)}
	}
	old := slot.value
	slot.value = value
	subs := append([]SubscriberFunc(nil), p.subs[id]...)
	p.mu.Unlock()

	for _, fn := range subs {
		fn(value, old)
	}
	return nil
}

// Subscribe registers fn to be called on every future Set against id.
// The returned func removes the subscription.
func (p *Plane) Subscribe(id SlotID, fn SubscriberFunc) func() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.subs[id] = append(p.subs[id], fn)
	idx := len(p.subs[id]) - 1

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		subs := p.subs[id]
		if idx < len(subs) {
			subs[idx] = nil
		}
	}
}

// Search returns the ids of every non-released slot for which criteria
// returns true.
func (p *Plane) Search(criteria func(*Slot) bool) []SlotID {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []SlotID
	for id, slot := range p.slots {
		if slot.released {
			continue
		}
		if criteria(slot) {
			out = append(out, id)
		}
	}
	return out
}

// ReleaseAll marks every slot owned by owner as released. Subsequent
// Get/Set against those slots fail with InvalidRefError; existing
// references observe the absent state rather than dangling data.
func (p *Plane) ReleaseAll(owner types.BlockKey) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, slot := range p.slots {
		if slot.Owner == owner {
			slot.released = true
			slot.value = nil
		}
	}
}

// GetOrCreateAnchor returns the current target of the named anchor,
// creating it with initial as its target if it does not yet exist.
func (p *Plane) GetOrCreateAnchor(id AnchorID, initial types.BlockKey) types.BlockKey {
	p.mu.Lock()
	defer p.mu.Unlock()

	if target, ok := p.anchors[id]; ok {
		return target
	}
	p.anchors[id] = initial
	return initial
}

// Retarget repoints the anchor at target and synchronously notifies
// anchor subscribers with (new, previous).
func (p *Plane) Retarget(id AnchorID, target types.BlockKey) {
	p.mu.Lock()
	previous := p.anchors[id]
	p.anchors[id] = target
	subs := append([]AnchorSubscriberFunc(nil), p.anchorSubs[id]...)
	p.mu.Unlock()

	for _, fn := range subs {
		fn(target, previous)
	}
}

// SubscribeAnchor registers fn to be called on every future Retarget of
// id. The returned func removes the subscription.
func (p *Plane) SubscribeAnchor(id AnchorID, fn AnchorSubscriberFunc) func() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.anchorSubs[id] = append(p.anchorSubs[id], fn)
	idx := len(p.anchorSubs[id]) - 1

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		subs := p.anchorSubs[id]
		if idx < len(subs) {
			subs[idx] = nil
		}
	}
}

// GetTyped reads a slot's value asserted to type T. Fails with
// TypeMismatchError when the slot holds a different concrete type.
func GetTyped[T any](p *Plane, id SlotID) (T, error) {
	var zero T
	raw, err := p.Get(id)
	if err != nil {
		return zero, err
	}
	v, ok := raw.(T)
	if !ok {
		return zero, &types.TypeMismatchError{
			RefID: string(id),
			Want:  fmt.Sprintf("%T", zero),
			Got:   fmt.Sprintf("%T", raw),
		}
	}
	return v, nil
}
