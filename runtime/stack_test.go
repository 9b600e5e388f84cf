package runtime

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/justapithecus/wodscript/behavior"
	"github.com/justapithecus/wodscript/block"
	"github.com/justapithecus/wodscript/clock"
	"github.com/justapithecus/wodscript/memory"
	"github.com/justapithecus/wodscript/types"
)

func TestStack_PushPopLIFO(t *testing.T) {
	mem := memory.New()
	clk := clock.New()
	stack := NewStack()

	rootKey := types.NewBlockKey(1, 0, types.RootBlockKey)
	root := block.New(rootKey, "group", types.Statement{ID: 1}, []behavior.Behavior{&behavior.Effort{Label: "root"}}, mem, clk)
	childKey := types.NewBlockKey(2, 0, rootKey)
	child := block.New(childKey, "effort", types.Statement{ID: 2}, []behavior.Behavior{&behavior.Effort{Label: "child"}}, mem, clk)

	_, err := stack.PushBlock(root)
	require.NoError(t, err)
	_, err = stack.PushBlock(child)
	require.NoError(t, err)
	require.Equal(t, 2, stack.Depth())
	require.Equal(t, childKey, stack.Current().Key)

	popped, err := stack.Pop()
	require.NoError(t, err)
	require.Equal(t, childKey, popped.Key)
	require.True(t, popped.Disposed())
	require.Equal(t, rootKey, stack.Current().Key)

	_, err = stack.Pop()
	require.NoError(t, err)
	require.True(t, stack.Empty())
}

func TestStack_PopEmptyErrors(t *testing.T) {
	stack := NewStack()
	_, err := stack.Pop()
	require.Error(t, err)
}

func TestStack_ContainsAtAnyDepth(t *testing.T) {
	mem := memory.New()
	clk := clock.New()
	stack := NewStack()

	rootKey := types.NewBlockKey(1, 0, types.RootBlockKey)
	root := block.New(rootKey, "group", types.Statement{ID: 1}, []behavior.Behavior{&behavior.Effort{Label: "root"}}, mem, clk)
	childKey := types.NewBlockKey(2, 0, rootKey)
	child := block.New(childKey, "effort", types.Statement{ID: 2}, []behavior.Behavior{&behavior.Effort{Label: "child"}}, mem, clk)

	_, err := stack.PushBlock(root)
	require.NoError(t, err)
	require.False(t, stack.Contains(childKey))

	_, err = stack.PushBlock(child)
	require.NoError(t, err)
	require.True(t, stack.Contains(rootKey))
	require.True(t, stack.Contains(childKey))

	_, err = stack.Pop()
	require.NoError(t, err)
	require.True(t, stack.Contains(rootKey))
	require.False(t, stack.Contains(childKey))
}
