package types

// StatementID is a stable per-parse statement identifier.
type StatementID int

// StatementMeta carries a statement's source position and leaf status.
type StatementMeta struct {
	// Span is the statement's source position.
	Span Span
	// IsLeaf is true when the statement has no children.
	IsLeaf bool
}

// Statement is one node of the parsed statement tree. Children is an
// ordered sequence of groups, each group an ordered sequence of child ids.
// Consecutive children marked LapCompose coalesce into one group; children
// marked LapRound or LapNone each form their own singleton group.
//
// Invariant: for every child id c listed in a parent p, the child
// statement's Parent equals p.ID.
type Statement struct {
	// ID is this statement's stable identifier.
	ID StatementID
	// Parent is the parent statement's id, or nil for a root statement.
	Parent *StatementID
	// Children is the ordered sequence of child groups.
	Children [][]StatementID
	// Fragments are this statement's typed annotations, in source order.
	Fragments []Fragment
	// Meta carries the span and leaf flag.
	Meta StatementMeta
}
