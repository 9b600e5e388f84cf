package types

// EventType represents the kind of event carried in an EventEnvelope.
type EventType string

// Event type constants emitted by the runtime over the session's lifetime.
const (
	EventTypeWorkoutStarted   EventType = "workout:started"
	EventTypeWorkoutCompleted EventType = "workout:completed"
	EventTypeWorkoutCancelled EventType = "workout:cancelled"
	EventTypeBlockPushed      EventType = "block:pushed"
	EventTypeBlockPopped      EventType = "block:popped"
	EventTypeTimerStarted     EventType = "timer:started"
	EventTypeTimerTick        EventType = "timer:tick"
	EventTypeTimerComplete    EventType = "timer:complete"
	EventTypeLoopRoundAdvance EventType = "loop:round-advanced"
	EventTypeEffortSet        EventType = "effort:set"
	EventTypeEffortReps       EventType = "effort:reps-completed"
	EventTypeEffortComplete   EventType = "effort:complete"
	EventTypeSoundCue         EventType = "sound:cue"
	EventTypeSpanClosed       EventType = "span:closed"
	EventTypeRuntimeError     EventType = "runtime:error"
)

// IsTerminal returns true if this event type ends the session.
func (e EventType) IsTerminal() bool {
	return e == EventTypeWorkoutCompleted || e == EventTypeWorkoutCancelled || e == EventTypeRuntimeError
}

// LogLevel represents log severity for log fields attached to events.
type LogLevel string

// Log level constants.
const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// EventEnvelope is the envelope for every event emitted by a session.
// All fields use msgpack tags so the envelope can be framed identically
// whether it is kept in-process, persisted to the store, or replayed.
type EventEnvelope struct {
	// ContractVersion is the semantic version of the event envelope contract.
	ContractVersion string `msgpack:"contract_version"`
	// EventID is a unique identifier for this event, scoped to the session.
	EventID string `msgpack:"event_id"`
	// SessionID is the canonical session identifier.
	SessionID string `msgpack:"session_id"`
	// Seq is the monotonic sequence number, starts at 1.
	Seq int64 `msgpack:"seq"`
	// Type is the event type discriminator.
	Type EventType `msgpack:"type"`
	// Ts is the event timestamp in ISO 8601 UTC format.
	Ts string `msgpack:"ts"`
	// BlockKey identifies the block that emitted the event, empty for
	// session-scoped events (workout:started, workout:completed).
	BlockKey string `msgpack:"block_key,omitempty"`
	// Payload is the type-specific payload.
	Payload map[string]any `msgpack:"payload"`
	// ParentSessionID is the parent session ID for resumed sessions.
	ParentSessionID *string `msgpack:"parent_session_id,omitempty"`
	// Attempt is the attempt number, always present, starts at 1.
	Attempt int `msgpack:"attempt"`
}

// WorkoutStartedPayload is the payload for workout:started.
type WorkoutStartedPayload struct {
	// RootBlockKey is the key of the top-level block mounted first.
	RootBlockKey string `msgpack:"root_block_key"`
}

// WorkoutCompletedPayload is the payload for workout:completed.
type WorkoutCompletedPayload struct {
	// ElapsedMs is the total wall-clock duration of the session.
	ElapsedMs int64 `msgpack:"elapsed_ms"`
}

// WorkoutCancelledPayload is the payload for workout:cancelled.
type WorkoutCancelledPayload struct {
	// Reason is a human-readable cancellation reason.
	Reason string `msgpack:"reason"`
}

// BlockLifecyclePayload is the payload for block:pushed and block:popped.
type BlockLifecyclePayload struct {
	// Kind is the behavior-driven block kind (e.g. "interval", "amrap").
	Kind string `msgpack:"kind"`
	// Depth is the stack depth after the transition.
	Depth int `msgpack:"depth"`
}

// TimerPayload is the payload for timer:started, timer:tick, and
// timer:complete.
type TimerPayload struct {
	// RemainingMs is the time remaining on a countdown timer, or the
	// elapsed time on a count-up timer.
	RemainingMs int64 `msgpack:"remaining_ms"`
	// ElapsedMs is the cumulative time the timer has run.
	ElapsedMs int64 `msgpack:"elapsed_ms"`
	// Direction is "countdown" or "countup".
	Direction string `msgpack:"direction"`
	// DisplayTime is RemainingMs formatted as mm:ss.
	DisplayTime string `msgpack:"display_time"`
}

// LoopRoundAdvancedPayload is the payload for loop:round-advanced.
type LoopRoundAdvancedPayload struct {
	// Round is the 1-based round number just entered.
	Round int `msgpack:"round"`
	// TotalRounds is the configured round count, 0 if unbounded (AMRAP).
	TotalRounds int `msgpack:"total_rounds"`
}

// EffortPayload is the payload for effort:set, effort:reps-completed, and
// effort:complete.
type EffortPayload struct {
	// Label is the effort's descriptive text (e.g. "Pullups").
	Label string `msgpack:"label"`
	// RepsCompleted is the cumulative reps recorded against this effort.
	RepsCompleted int `msgpack:"reps_completed"`
	// RepsTarget is the target rep count, 0 if open-ended.
	RepsTarget int `msgpack:"reps_target"`
	// Resistance is the formatted load (e.g. "135 lb"), empty if none.
	Resistance string `msgpack:"resistance,omitempty"`
	// Distance is the formatted distance (e.g. "400 m"), empty if none.
	Distance string `msgpack:"distance,omitempty"`
}

// SoundCuePayload is the payload for sound:cue.
type SoundCuePayload struct {
	// Cue is the cue name (e.g. "countdown", "halfway", "complete").
	Cue string `msgpack:"cue"`
}

// SpanMetric is one named measurement a behavior contributes to its
// block's span:closed record (e.g. reps completed, rounds completed).
type SpanMetric struct {
	Key   string `msgpack:"key"`
	Value any    `msgpack:"value"`
}

// SpanClosedPayload is the payload for span:closed, the authoritative
// analytics record for a completed block: the source line it covers,
// the block's start/stop offsets relative to workout elapsed time (pause
// time excluded), and whatever metrics its behaviors reported.
type SpanClosedPayload struct {
	// Line is the 1-based source line of the closed span.
	Line int `msgpack:"line"`
	// StartMs is the workout-elapsed time, in milliseconds, when the
	// block was pushed.
	StartMs int64 `msgpack:"start_ms"`
	// StopMs is the workout-elapsed time, in milliseconds, when the
	// block was popped. StopMs - StartMs is the span's duration.
	StopMs int64 `msgpack:"stop_ms"`
	// Metrics are the summary measurements the block's behaviors
	// reported at pop time.
	Metrics []SpanMetric `msgpack:"metrics,omitempty"`
}

// RuntimeErrorPayload is the payload for runtime:error.
type RuntimeErrorPayload struct {
	// ErrorType is the error type/category.
	ErrorType string `msgpack:"error_type"`
	// Message is the error message.
	Message string `msgpack:"message"`
	// Stack is an optional stack trace.
	Stack *string `msgpack:"stack,omitempty"`
}
