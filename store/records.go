package store

import "github.com/justapithecus/wodscript/types"

// RecordKind discriminates the storage format of a persisted record.
const (
	RecordKindEvent         = "event"
	RecordKindSessionResult = "session_result"
)

// EventRecord is the storage format for a session's events.
// Includes the record_kind discriminator and the partition keys consumed
// by the Hive layout.
type EventRecord struct {
	RecordKind string `json:"record_kind"`

	ContractVersion string         `json:"contract_version"`
	EventID         string         `json:"event_id"`
	SessionID       string         `json:"session_id"`
	Seq             int64          `json:"seq"`
	Type            string         `json:"type"`
	Ts              string         `json:"ts"`
	BlockKey        string         `json:"block_key,omitempty"`
	Payload         map[string]any `json:"payload"`
	ParentSessionID *string        `json:"parent_session_id,omitempty"`
	Attempt         int            `json:"attempt"`

	// Partition keys (used by Hive layout)
	Program  string `json:"program"`
	Category string `json:"category"`
	Day      string `json:"day"`
}

// SessionResultRecord is the storage format for a session's terminal
// outcome, written once the session reaches a terminal event.
type SessionResultRecord struct {
	RecordKind string `json:"record_kind"`

	Status      string  `json:"status"`
	Message     *string `json:"message,omitempty"`
	ErrorType   *string `json:"error_type,omitempty"`
	Stack       *string `json:"stack,omitempty"`
	SessionID   string  `json:"session_id"`
	CompletedAt string  `json:"completed_at"`

	// Partition keys
	Program  string `json:"program"`
	Category string `json:"category"`
	Day      string `json:"day"`
}

// toEventRecordMap converts an EventEnvelope to a map for Hive storage.
// The store's dataset requires records as map[string]any.
func toEventRecordMap(e *types.EventEnvelope, cfg Config) map[string]any {
	m := map[string]any{
		"record_kind":      RecordKindEvent,
		"contract_version": e.ContractVersion,
		"event_id":         e.EventID,
		"session_id":       e.SessionID,
		"seq":              e.Seq,
		"type":             string(e.Type),
		"event_type":       string(e.Type), // partition key
		"ts":               e.Ts,
		"block_key":        e.BlockKey,
		"payload":          e.Payload,
		"attempt":          e.Attempt,
		"program":          cfg.Program,
		"category":         cfg.Category,
		"day":              cfg.Day,
	}
	if e.ParentSessionID != nil {
		m["parent_session_id"] = *e.ParentSessionID
	}
	return m
}

// toSessionResultRecordMap converts a SessionResultFrame to a map for Hive
// storage. Written to the event_type=session_result partition, the same
// pattern the teacher used to give binary artifact chunks their own
// pseudo event_type value distinct from any real event.
func toSessionResultRecordMap(result *types.SessionResultFrame, sessionID, completedAt string, cfg Config) map[string]any {
	m := map[string]any{
		"record_kind":  RecordKindSessionResult,
		"status":       string(result.Outcome.Status),
		"session_id":   sessionID,
		"completed_at": completedAt,
		"event_type":   types.SessionResultType, // partition key
		"program":      cfg.Program,
		"category":     cfg.Category,
		"day":          cfg.Day,
	}
	if result.Outcome.Message != nil {
		m["message"] = *result.Outcome.Message
	}
	if result.Outcome.ErrorType != nil {
		m["error_type"] = *result.Outcome.ErrorType
	}
	if result.Outcome.Stack != nil {
		m["stack"] = *result.Outcome.Stack
	}
	return m
}
