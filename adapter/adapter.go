// Package adapter defines the output-adapter boundary: downstream systems
// notified once a session reaches a terminal outcome.
//
// The runtime owns adapter lifecycle; callers provide configuration only.
package adapter

import "context"

// SessionCompletedEvent is the payload published when a session finishes.
type SessionCompletedEvent struct {
	ContractVersion string `json:"contract_version"`
	EventType       string `json:"event_type"` // always "workout_completed" or "workout_cancelled"
	SessionID       string `json:"session_id"`
	Program         string `json:"program"`
	Category        string `json:"category"`
	Day             string `json:"day"`
	Outcome         string `json:"outcome"` // completed, cancelled, runtime_crash
	StoragePath     string `json:"storage_path"`
	Timestamp       string `json:"timestamp"` // ISO 8601
	ParentSessionID string `json:"parent_session_id,omitempty"`
	Attempt         int    `json:"attempt"`
	EventCount      int64  `json:"event_count"`
	DurationMs      int64  `json:"duration_ms"`
}

// Adapter publishes session completion events to a downstream system.
// Implementations must be safe for single-use per session.
type Adapter interface {
	// Publish sends a session completion event to the downstream system.
	// Must respect context cancellation and deadlines.
	Publish(ctx context.Context, event *SessionCompletedEvent) error

	// Close releases adapter resources.
	Close() error
}
