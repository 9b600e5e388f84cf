package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/justapithecus/wodscript/behavior"
	"github.com/justapithecus/wodscript/block"
	"github.com/justapithecus/wodscript/clock"
	"github.com/justapithecus/wodscript/compile"
	"github.com/justapithecus/wodscript/log"
	"github.com/justapithecus/wodscript/memory"
	"github.com/justapithecus/wodscript/metrics"
	"github.com/justapithecus/wodscript/policy"
	"github.com/justapithecus/wodscript/script"
	"github.com/justapithecus/wodscript/types"
)

// flushTimeout bounds how long a session waits for its policy to flush
// buffered events on termination. A stuck sink must not hang the caller
// forever once a workout has already completed or been cancelled.
const flushTimeout = 5 * time.Second

// Session owns a stack, clock, event bus, compiler, and script reference,
// and runs the cooperative single-threaded scheduler: one external event
// or clock tick advances the top of the stack by exactly one turn.
type Session struct {
	meta   types.SessionMeta
	script *script.Script

	stack    *Stack
	clk      *clock.Clock
	bus      *Bus
	compiler *compile.Compiler
	mem      *memory.Plane

	flow      *behavior.Flow
	startedAt time.Time
	outcome   *types.SessionOutcome

	log     *log.Logger
	metrics *metrics.Collector
	policy  policy.Policy
}

// NewSession constructs a Session over a parsed script, backed by the
// real wall clock. Call Run(Start()) to begin execution.
func NewSession(meta types.SessionMeta, s *script.Script) (*Session, error) {
	return newSession(meta, s, clock.New())
}

// NewSessionWithClock constructs a Session backed by a caller-supplied
// clock, typically clock.NewManual, for deterministic tests.
func NewSessionWithClock(meta types.SessionMeta, s *script.Script, clk *clock.Clock) (*Session, error) {
	return newSession(meta, s, clk)
}

func newSession(meta types.SessionMeta, s *script.Script, clk *clock.Clock) (*Session, error) {
	if err := meta.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session metadata: %w", err)
	}

	mem := memory.New()
	sess := &Session{
		meta:     meta,
		script:   s,
		stack:    NewStack(),
		clk:      clk,
		bus:      NewBus(meta.SessionID, meta.ParentSessionID, meta.Attempt),
		compiler: compile.New(s, mem, clk),
		mem:      mem,
		log:      log.NewLogger(meta),
		metrics:  metrics.NewCollector("", "", meta.SessionID),
	}
	return sess, nil
}

// AttachPolicy wires an ingestion policy and a metrics collector labeled
// with the policy and storage backend names into the session. Call before
// Run(Start()); every published event is offered to the policy, and the
// policy is flushed once the session reaches a terminal outcome. A policy
// error terminates the session the same way a behavior error does.
func (s *Session) AttachPolicy(policyName, storageBackend string, p policy.Policy) {
	s.policy = p
	s.metrics = metrics.NewCollector(policyName, storageBackend, s.meta.SessionID)
}

// Metrics returns a point-in-time snapshot of the session's accumulated
// counters.
func (s *Session) Metrics() metrics.Snapshot {
	return s.metrics.Snapshot()
}

// Subscribe registers fn against the session's event bus.
func (s *Session) Subscribe(fn func(types.EventEnvelope)) {
	s.bus.Subscribe(fn)
}

// Outcome returns the session's terminal classification, or nil while
// still running.
func (s *Session) Outcome() *types.SessionOutcome {
	return s.outcome
}

func (s *Session) publish(key types.BlockKey, eventType types.EventType, payload map[string]any) {
	env := s.bus.Publish(key, eventType, payload, s.clk.Now(), uuid.New().String())
	s.recordEventMetrics(eventType)

	if s.policy != nil {
		if err := s.policy.IngestEvent(context.Background(), &env); err != nil {
			s.log.Error("policy ingest failed", map[string]any{
				"error":      err.Error(),
				"event_type": string(eventType),
			})
		}
	}

	if eventType.IsTerminal() {
		s.classify(eventType, payload)
		s.finish()
	}
}

// recordEventMetrics folds an emitted event into the session's counters.
// Terminal and classify-relevant counters are handled in finish; this
// covers the per-event activity dimensions the collector tracks live.
func (s *Session) recordEventMetrics(eventType types.EventType) {
	switch eventType {
	case types.EventTypeBlockPushed:
		s.metrics.IncBlockPushed()
	case types.EventTypeBlockPopped:
		s.metrics.IncBlockPopped()
	case types.EventTypeTimerTick:
		s.metrics.IncTimerTick()
	}
}

// finish runs once a session reaches a terminal outcome: flush the
// ingestion policy (bounded, best-effort), absorb its final stats into
// the metrics collector, and record the outcome itself.
func (s *Session) finish() {
	switch s.outcome.Status {
	case types.OutcomeCompleted:
		s.metrics.IncSessionCompleted()
	case types.OutcomeCancelled:
		s.metrics.IncSessionCancelled()
	case types.OutcomeRuntimeCrash:
		s.metrics.IncSessionCrashed()
	}

	if s.policy == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	if err := s.policy.Flush(ctx); err != nil {
		s.log.Error("policy flush failed", map[string]any{"error": err.Error()})
	}

	stats := s.policy.Stats()
	dropped := make(map[string]int64, len(stats.DroppedByType))
	for k, v := range stats.DroppedByType {
		dropped[string(k)] = v
	}
	s.metrics.AbsorbPolicyStats(stats.TotalEvents, stats.EventsPersisted, stats.EventsDropped, dropped)
}

func (s *Session) classify(eventType types.EventType, payload map[string]any) {
	switch eventType {
	case types.EventTypeWorkoutCompleted:
		s.outcome = &types.SessionOutcome{Status: types.OutcomeCompleted}
	case types.EventTypeWorkoutCancelled:
		msg := ""
		if reason, ok := payload["reason"].(string); ok {
			msg = reason
		}
		s.outcome = &types.SessionOutcome{Status: types.OutcomeCancelled, Message: msg}
	case types.EventTypeRuntimeError:
		msg := ""
		if m, ok := payload["message"].(string); ok {
			msg = m
		}
		s.outcome = &types.SessionOutcome{Status: types.OutcomeRuntimeCrash, Message: msg}
	}
}

// Run dispatches one external input event through the scheduler, applying
// its immediate effect and then driving the resulting turn: collect
// actions from the event, apply them in order, and drain the produced
// events onto the bus. A push mounts its child in the same turn, but the
// new top's first Next is deferred to the following turn.
func (s *Session) Run(in Input) error {
	if s.outcome != nil {
		return fmt.Errorf("session %s: already terminated", s.meta.SessionID)
	}

	switch in.Kind {
	case InputStart:
		return s.start()
	case InputPause:
		s.clk.Pause()
		if s.flow != nil {
			s.flow.Pause()
		}
		return nil
	case InputResume:
		s.clk.Resume()
		if s.flow != nil {
			s.flow.Resume()
		}
		return nil
	case InputStop, InputCancel:
		return s.cancel(in.Reason)
	case InputNext:
		return s.advanceTop()
	case InputCompleteReps:
		return s.completeReps(in.RepsCount)
	case InputResetCues:
		s.resetCues()
		return nil
	default:
		return fmt.Errorf("session %s: unknown input kind %q", s.meta.SessionID, in.Kind)
	}
}

// Tick measures elapsed time since the previous Tick (real wall-clock
// time, or simulated time if the session's clock source was replaced
// with a manual one) and fans it out top to bottom across every live
// block, then drains the resulting actions.
func (s *Session) Tick() error {
	if s.outcome != nil {
		return nil
	}
	elapsedMs := s.clk.Advance()
	if elapsedMs == 0 {
		return nil
	}
	return s.fanOut(elapsedMs)
}

// fanOut drives a single tick of elapsedMs across every live block, top
// to bottom, without itself advancing the clock. Used by Tick (which
// measures the elapsed time) and by Drive's callback (which receives it
// already measured by the clock.Driver that owns the Advance call).
func (s *Session) fanOut(elapsedMs int64) error {
	blocks := s.stack.All()
	for i := len(blocks) - 1; i >= 0; i-- {
		b := blocks[i]
		actions, err := b.Tick(elapsedMs)
		if err != nil {
			s.fail(err)
			return err
		}
		for _, a := range actions {
			s.apply(b.Key, a)
		}
	}
	return nil
}

// Drive wires a clock.Driver over the session's own clock, so real-time
// playback can advance the session without a caller polling Tick. The
// driver is returned unstarted; the caller starts and stops it.
func (s *Session) Drive(interval time.Duration) *clock.Driver {
	d := clock.NewDriver(s.clk, interval)
	d.SetOnTick(func(elapsedMs int64) {
		if s.outcome != nil {
			return
		}
		_ = s.fanOut(elapsedMs)
	})
	return d
}

func (s *Session) start() error {
	s.startedAt = time.Now()
	s.metrics.IncSessionStarted()
	s.flow = &behavior.Flow{RootBlockKey: types.RootBlockKey}
	loop := &behavior.Loop{ChildStatementIDs: s.script.Roots(), TotalRounds: 1}

	root := block.New(types.RootBlockKey, "root", types.Statement{}, []behavior.Behavior{s.flow, loop}, s.mem, s.clk)
	root.StartedMs = s.flow.ElapsedMs()
	actions, err := s.stack.PushBlock(root)
	if err != nil {
		s.fail(err)
		return err
	}
	for _, ba := range actions {
		s.apply(ba.key, ba.action)
	}
	s.publish(types.RootBlockKey, types.EventTypeBlockPushed, map[string]any{
		"kind":  root.Kind,
		"depth": s.stack.Depth(),
	})
	return nil
}

// cancel unwinds every live block from the top down, disposing each in
// turn, then emits workout:cancelled once the stack is empty. Unlike a
// normal completion (which the root Loop drives by exhausting its
// children), a cancel can arrive with any depth of blocks still live.
func (s *Session) cancel(reason string) error {
	if reason == "" {
		reason = "stopped"
	}
	for s.stack.Depth() > 0 {
		popped, err := s.stack.Pop()
		if err != nil {
			s.fail(err)
			return err
		}
		s.publish(popped.Key, types.EventTypeBlockPopped, map[string]any{
			"kind":  popped.Kind,
			"depth": s.stack.Depth(),
		})
		s.closeSpan(popped)
	}
	if s.flow != nil {
		for _, act := range s.flow.Cancel(reason) {
			if act.Kind == behavior.ActionEmit {
				s.publish(types.RootBlockKey, act.EventType, act.Payload)
			}
		}
	}
	return nil
}

func (s *Session) advanceTop() error {
	top := s.stack.Current()
	if top == nil {
		return fmt.Errorf("session %s: no active block", s.meta.SessionID)
	}
	actions, err := top.Next()
	if err != nil {
		s.fail(err)
		return err
	}
	for _, a := range actions {
		s.apply(top.Key, a)
	}
	return nil
}

func (s *Session) completeReps(n int) error {
	top := s.stack.Current()
	if top == nil {
		return fmt.Errorf("session %s: no active block", s.meta.SessionID)
	}
	for _, bh := range top.Behaviors() {
		if e, ok := bh.(*behavior.Effort); ok {
			for _, a := range e.RecordReps(n) {
				s.apply(top.Key, a)
			}
		}
	}
	return nil
}

func (s *Session) resetCues() {
	for _, b := range s.stack.All() {
		for _, bh := range b.Behaviors() {
			if cue, ok := bh.(*behavior.SoundCue); ok {
				cue.ResetCues()
			}
		}
	}
}

// apply dispatches a single behavior action produced by the block at key.
func (s *Session) apply(key types.BlockKey, a behavior.Action) {
	switch a.Kind {
	case behavior.ActionEmit:
		s.publish(key, a.EventType, a.Payload)

	case behavior.ActionPushChild:
		child, err := s.compiler.Compile(a.ChildStatementID, key)
		if err != nil {
			s.fail(err)
			return
		}
		if s.flow != nil {
			child.StartedMs = s.flow.ElapsedMs()
		}
		mountActions, err := s.stack.PushBlock(child)
		if err != nil {
			s.fail(err)
			return
		}
		for _, ba := range mountActions {
			s.apply(ba.key, ba.action)
		}
		s.publish(child.Key, types.EventTypeBlockPushed, map[string]any{
			"kind":  child.Kind,
			"depth": s.stack.Depth(),
		})

	case behavior.ActionComplete:
		if key == types.RootBlockKey && s.flow != nil && s.flow.State() == behavior.FlowRunning {
			for _, act := range s.flow.Complete() {
				s.apply(key, act)
			}
			return
		}
		if !s.stack.Contains(key) {
			// Stale completion: the block already popped earlier in this
			// same scheduling turn, e.g. a cap timer and the block's own
			// interval both request completion on the tick that exhausts
			// them together.
			return
		}
		// key may sit below the current top (a cap timer elapsing while
		// a child effort is still active mid-rep): pop top-down until key
		// itself comes off, carrying away whatever is still nested above
		// it.
		for {
			popped, err := s.stack.Pop()
			if err != nil {
				s.fail(err)
				return
			}
			s.publish(popped.Key, types.EventTypeBlockPopped, map[string]any{
				"kind":  popped.Kind,
				"depth": s.stack.Depth(),
			})
			s.closeSpan(popped)
			if popped.Key == key {
				break
			}
		}
		// The parent's own completion is driven by its next scheduling
		// turn (Run(Next()) or the next Tick), never synchronously here,
		// matching the deferred-next rule for pushes.
	}
}

// closeSpan emits span:closed for a popped block's source line, unless
// the block is the synthetic root (which carries no source span of its
// own). This is the authoritative analytics record for the block: the
// start/stop offsets are workout-elapsed time (pause time excluded), so
// summing every span's duration reconciles against workout:completed's
// own elapsed_ms.
func (s *Session) closeSpan(popped *block.Block) {
	if popped.Key == types.RootBlockKey {
		return
	}
	line := popped.Statement.Meta.Span.Line
	if line == 0 {
		return
	}
	stopMs := popped.StartedMs
	if s.flow != nil {
		stopMs = s.flow.ElapsedMs()
	}

	var metrics []types.SpanMetric
	for _, bh := range popped.Behaviors() {
		if reporter, ok := bh.(behavior.MetricsReporter); ok {
			metrics = append(metrics, reporter.SpanMetrics()...)
		}
	}

	s.publish(popped.Key, types.EventTypeSpanClosed, map[string]any{
		"line":     line,
		"start_ms": popped.StartedMs,
		"stop_ms":  stopMs,
		"metrics":  metrics,
	})
}

func (s *Session) fail(err error) {
	s.publish(types.RootBlockKey, types.EventTypeRuntimeError, map[string]any{
		"message": err.Error(),
	})
}
