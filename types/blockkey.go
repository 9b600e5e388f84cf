package types

import (
	"fmt"
	"strconv"
	"strings"
)

// BlockKey is a block's stable identity, derived from its statement id,
// an instance counter (disambiguating repeated mounts of the same
// statement across loop rounds), and its parent's block key.
//
// Format: "<statement-id>(<instance-counter>):<parent-block-key>". The
// root block's own key is RootBlockKey (the empty string), so a block
// mounted directly under the root has an empty parent-block-key segment.
type BlockKey string

// NewBlockKey builds a block key for a statement mounted as the instance-th
// instance of that statement under parent.
func NewBlockKey(id StatementID, instance int, parent BlockKey) BlockKey {
	return BlockKey(fmt.Sprintf("%d(%d):%s", id, instance, parent))
}

// RootBlockKey is the block key used for the top-level block, which has no
// parent.
const RootBlockKey BlockKey = ""

// StatementID extracts the statement id segment of a block key.
func (k BlockKey) StatementID() (StatementID, error) {
	s := string(k)
	open := strings.IndexByte(s, '(')
	if open < 0 {
		return 0, fmt.Errorf("block key %q: missing instance segment", s)
	}
	n, err := strconv.Atoi(s[:open])
	if err != nil {
		return 0, fmt.Errorf("block key %q: invalid statement id: %w", s, err)
	}
	return StatementID(n), nil
}

// Parent extracts the parent block key segment of a block key.
func (k BlockKey) Parent() (BlockKey, error) {
	s := string(k)
	colon := strings.IndexByte(s, ':')
	if colon < 0 {
		return "", fmt.Errorf("block key %q: missing parent segment", s)
	}
	return BlockKey(s[colon+1:]), nil
}

// IsRoot reports whether k's parent segment is empty, i.e. k is mounted
// directly under the root block. RootBlockKey itself has no parent
// segment and reports false.
func (k BlockKey) IsRoot() bool {
	p, err := k.Parent()
	return err == nil && p == RootBlockKey
}
