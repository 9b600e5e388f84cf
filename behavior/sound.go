package behavior

import "github.com/justapithecus/wodscript/types"

// SoundCue fires a named audio cue once per (block, cue) pair between
// ResetCues calls. It keeps no list of trigger points itself; callers
// drive Fire explicitly with a cue name from a sibling Timer/Interval/Rest
// behavior rather than from OnTick directly, since cue points are
// domain-specific (halfway, countdown, round_end).
type SoundCue struct {
	Base

	fired map[string]bool
}

// Fire emits sound:cue for name unless it has already fired since the
// last ResetCues call.
func (s *SoundCue) Fire(name string) []Action {
	if s.fired == nil {
		s.fired = make(map[string]bool)
	}
	if s.fired[name] {
		return nil
	}
	s.fired[name] = true
	return []Action{Emit(types.EventTypeSoundCue, map[string]any{"cue": name})}
}

// ResetCues clears the fired set, permitting every cue to fire again.
func (s *SoundCue) ResetCues() {
	s.fired = make(map[string]bool)
}
