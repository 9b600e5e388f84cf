// Package types defines core domain types shared across the lexer, parser,
// compiler, and runtime.
//
//nolint:revive // types is a common Go package naming convention
package types

import (
	"errors"
	"fmt"
)

// SessionMeta contains session identity and lineage metadata.
//
// A session is one execution attempt of a compiled script. A session that
// crashed or was cancelled mid-workout may be resumed as a new attempt
// linked to its predecessor via ParentSessionID.
type SessionMeta struct {
	// SessionID is the canonical session identifier. Must be globally unique.
	SessionID string
	// ParentSessionID links a resumed session to its predecessor. Nil for
	// an initial session.
	ParentSessionID *string
	// Attempt is the attempt number. Starts at 1 for initial sessions.
	Attempt int
}

// Validate validates lineage rules:
//   - attempt >= 1
//   - attempt == 1 => parent_session_id must be nil (initial session)
//   - attempt > 1 => parent_session_id must be present (resumed session)
func (m *SessionMeta) Validate() error {
	if m.SessionID == "" {
		return errors.New("session_id must be non-empty")
	}

	if m.Attempt < 1 {
		return fmt.Errorf("attempt must be >= 1, got %d", m.Attempt)
	}

	if m.Attempt == 1 && m.ParentSessionID != nil {
		return errors.New("initial session (attempt=1) must not have parent_session_id")
	}

	if m.Attempt > 1 && m.ParentSessionID == nil {
		return fmt.Errorf("resumed session (attempt=%d) must have parent_session_id", m.Attempt)
	}

	return nil
}

// OutcomeStatus represents the final status of a session.
type OutcomeStatus string

const (
	// OutcomeCompleted indicates the session reached workout:completed.
	OutcomeCompleted OutcomeStatus = "completed"
	// OutcomeCancelled indicates the session was stopped before completion.
	OutcomeCancelled OutcomeStatus = "cancelled"
	// OutcomeCompileError indicates a statement could not be compiled.
	// The fallthrough strategy always matches, so this is unreachable in
	// practice; retained for defense in depth.
	OutcomeCompileError OutcomeStatus = "compile_error"
	// OutcomeRuntimeCrash indicates an unrecoverable error escaped the
	// scheduler loop.
	OutcomeRuntimeCrash OutcomeStatus = "runtime_crash"
)

// SessionOutcome represents the final outcome of a session.
type SessionOutcome struct {
	// Status is the outcome classification.
	Status OutcomeStatus
	// Message is a human-readable description.
	Message string
	// ErrorType is populated for compile-error/crash outcomes.
	ErrorType *string
	// Stack is populated for crash outcomes.
	Stack *string
}
