package runtime

// InputKind discriminates the external control events a running session
// accepts.
type InputKind string

// Input kind constants.
const (
	InputStart         InputKind = "start"
	InputPause         InputKind = "pause"
	InputResume        InputKind = "resume"
	InputStop          InputKind = "stop"
	InputNext          InputKind = "next"
	InputCompleteReps  InputKind = "complete_reps"
	InputResetCues     InputKind = "reset_cues"
	InputCancel        InputKind = "cancel"
)

// Input is one external control event delivered to a session via run().
type Input struct {
	Kind InputKind

	// RepsCount is set for InputCompleteReps.
	RepsCount int

	// Reason is set for InputCancel.
	Reason string
}

// Start builds an InputStart event.
func Start() Input { return Input{Kind: InputStart} }

// Pause builds an InputPause event.
func Pause() Input { return Input{Kind: InputPause} }

// Resume builds an InputResume event.
func Resume() Input { return Input{Kind: InputResume} }

// Stop builds an InputStop event.
func Stop() Input { return Input{Kind: InputStop} }

// Next builds an InputNext event, advancing the current top-of-stack
// block without waiting for a clock tick.
func Next() Input { return Input{Kind: InputNext} }

// CompleteReps builds an InputCompleteReps event carrying the count of
// reps just completed against the current effort block.
func CompleteReps(count int) Input { return Input{Kind: InputCompleteReps, RepsCount: count} }

// ResetCues builds an InputResetCues event, clearing every sound cue's
// fired-once latch in the current stack.
func ResetCues() Input { return Input{Kind: InputResetCues} }

// Cancel builds an InputCancel event, terminating the session with the
// given reason.
func Cancel(reason string) Input { return Input{Kind: InputCancel, Reason: reason} }
