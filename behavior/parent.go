package behavior

import "github.com/justapithecus/wodscript/memory"

// ParentContext republishes a block's own identity/context into the
// memory plane as a public anchor so descendant blocks can discover
// their nearest ancestor of a given role (e.g. a nested rounds block
// locating the enclosing AMRAP cap timer) without an explicit parent
// pointer threaded through every behavior constructor.
type ParentContext struct {
	Base

	AnchorID memory.AnchorID
}

func (p *ParentContext) OnMount(ctx *Context) ([]Action, error) {
	ctx.Memory.GetOrCreateAnchor(p.AnchorID, ctx.BlockKey)
	ctx.Memory.Retarget(p.AnchorID, ctx.BlockKey)
	return nil, nil
}

func (p *ParentContext) OnDispose(ctx *Context) error {
	return nil
}
