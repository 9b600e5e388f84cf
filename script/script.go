// Package script provides a read-only, indexed view over a parsed
// statement tree.
package script

import "github.com/justapithecus/wodscript/types"

// Script is a read-only container: owned source text, an ordered vector
// of statements, and an optional parser-error list. It is never mutated
// after construction and is safe for concurrent read access.
type Script struct {
	text   string
	stmts  []types.Statement
	byID   map[types.StatementID]int
	errs   []*types.ParseError
}

// New constructs a Script over stmts in source order. byID is built once
// so By(id) is O(1).
func New(text string, stmts []types.Statement, errs []*types.ParseError) *Script {
	byID := make(map[types.StatementID]int, len(stmts))
	for i, s := range stmts {
		byID[s.ID] = i
	}
	return &Script{text: text, stmts: stmts, byID: byID, errs: errs}
}

// Text returns the owned source text.
func (s *Script) Text() string { return s.text }

// Len returns the number of statements in the script.
func (s *Script) Len() int { return len(s.stmts) }

// At returns the statement at the given source-order index.
func (s *Script) At(index int) (types.Statement, bool) {
	if index < 0 || index >= len(s.stmts) {
		return types.Statement{}, false
	}
	return s.stmts[index], true
}

// ByID returns the statement with the given id.
func (s *Script) ByID(id types.StatementID) (types.Statement, bool) {
	idx, ok := s.byID[id]
	if !ok {
		return types.Statement{}, false
	}
	return s.stmts[idx], true
}

// ChildrenOf returns the flattened child ids of the statement with the
// given id, in group then in-group order.
func (s *Script) ChildrenOf(id types.StatementID) []types.StatementID {
	stmt, ok := s.ByID(id)
	if !ok {
		return nil
	}
	var out []types.StatementID
	for _, group := range stmt.Children {
		out = append(out, group...)
	}
	return out
}

// Roots returns the ids of statements with no parent, in source order.
func (s *Script) Roots() []types.StatementID {
	var out []types.StatementID
	for _, st := range s.stmts {
		if st.Parent == nil {
			out = append(out, st.ID)
		}
	}
	return out
}

// All returns every statement in source order. Callers must not mutate
// the returned slice's elements' Children/Fragments slices in place.
func (s *Script) All() []types.Statement {
	return s.stmts
}

// Errors returns the parser diagnostics recorded while building this
// Script. An empty slice does not imply a well-formed program; it only
// means no statement failed to parse.
func (s *Script) Errors() []*types.ParseError {
	return s.errs
}
