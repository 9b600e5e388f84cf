// Package runtime assembles the compiled-block stack, the event bus, and
// the cooperative session scheduler that together execute a parsed
// script against wall-clock or simulated time.
package runtime

import (
	"fmt"

	"github.com/justapithecus/wodscript/behavior"
	"github.com/justapithecus/wodscript/block"
	"github.com/justapithecus/wodscript/types"
)

// blockAction pairs a behavior action with the block key that produced
// it, letting the scheduler attribute emitted events to the right block.
type blockAction struct {
	key    types.BlockKey
	action behavior.Action
}

func toBlockActions(key types.BlockKey, actions []behavior.Action) []blockAction {
	out := make([]blockAction, len(actions))
	for i, a := range actions {
		out[i] = blockAction{key: key, action: a}
	}
	return out
}

// Stack is the ordered collection of live blocks, root first. Only the
// top of the stack receives Next calls, while clock ticks fan out to
// every live block; pushing mounts the new block immediately but defers
// its first Next to the following scheduling turn.
type Stack struct {
	blocks []*block.Block
}

// NewStack constructs an empty stack.
func NewStack() *Stack {
	return &Stack{}
}

// PushBlock mounts b and places it on top of the stack, returning the
// actions produced by its OnMount hooks. A failed mount leaves the
// stack unchanged.
func (s *Stack) PushBlock(b *block.Block) ([]blockAction, error) {
	actions, err := b.Mount()
	if err != nil {
		return nil, fmt.Errorf("stack push %s: %w", b.Key, err)
	}
	s.blocks = append(s.blocks, b)
	return toBlockActions(b.Key, actions), nil
}

// Pop disposes and removes the top block. Disposal is idempotent and
// blocks are disposed exactly once: Pop never disposes a block twice
// even if called after the stack is already empty.
func (s *Stack) Pop() (*block.Block, error) {
	if len(s.blocks) == 0 {
		return nil, fmt.Errorf("stack pop: empty stack")
	}
	top := s.blocks[len(s.blocks)-1]
	s.blocks = s.blocks[:len(s.blocks)-1]
	if err := top.Dispose(); err != nil {
		return top, err
	}
	return top, nil
}

// Current returns the top-of-stack block, or nil if the stack is empty.
func (s *Stack) Current() *block.Block {
	if len(s.blocks) == 0 {
		return nil
	}
	return s.blocks[len(s.blocks)-1]
}

// Contains reports whether key is still live on the stack, at any depth.
func (s *Stack) Contains(key types.BlockKey) bool {
	for _, b := range s.blocks {
		if b.Key == key {
			return true
		}
	}
	return false
}

// Graph returns a snapshot of the live block keys, ordered from root to
// top.
func (s *Stack) Graph() []types.BlockKey {
	out := make([]types.BlockKey, len(s.blocks))
	for i, b := range s.blocks {
		out[i] = b.Key
	}
	return out
}

// Depth returns the number of live blocks.
func (s *Stack) Depth() int {
	return len(s.blocks)
}

// Empty reports whether the stack has no live blocks.
func (s *Stack) Empty() bool {
	return len(s.blocks) == 0
}

// All returns every live block, root first, for Tick fan-out.
func (s *Stack) All() []*block.Block {
	return s.blocks
}
