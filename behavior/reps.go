package behavior

import "github.com/justapithecus/wodscript/memory"

// RepsPublisher republishes the rep-scheme target for the current round
// of an enclosing Loop to a public memory slot, so a For-Time block's
// completion check and a renderer can both read the target without
// reaching into the Loop behavior directly.
type RepsPublisher struct {
	Base

	Scheme []int
	Round  func() int // reads the sibling Loop's current round

	slotID memory.SlotID
	have   bool
}

func (r *RepsPublisher) targetForRound() int {
	round := r.Round()
	if round < 1 || round > len(r.Scheme) {
		return 0
	}
	return r.Scheme[round-1]
}

func (r *RepsPublisher) OnMount(ctx *Context) ([]Action, error) {
	return nil, r.publish(ctx)
}

func (r *RepsPublisher) OnNext(ctx *Context) ([]Action, error) {
	return nil, r.publish(ctx)
}

func (r *RepsPublisher) publish(ctx *Context) error {
	target := r.targetForRound()
	if !r.have {
		r.slotID = ctx.Memory.Allocate(ctx.BlockKey, "int", memory.VisibilityPublic, target)
		r.have = true
		return nil
	}
	return ctx.Memory.Set(r.slotID, target)
}

// SlotID returns the memory slot this publisher writes the current
// round's rep target to, once allocated.
func (r *RepsPublisher) SlotID() (memory.SlotID, bool) {
	return r.slotID, r.have
}
