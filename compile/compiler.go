// Package compile implements the JIT block compiler: a fixed ordered
// list of strategies that map a statement to a compiled block.
package compile

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/justapithecus/wodscript/behavior"
	"github.com/justapithecus/wodscript/block"
	"github.com/justapithecus/wodscript/clock"
	"github.com/justapithecus/wodscript/memory"
	"github.com/justapithecus/wodscript/script"
	"github.com/justapithecus/wodscript/types"
)

// Compiler maps statements to blocks. Compilation is lazy per block: a
// parent's children are compiled when the parent begins executing that
// group, not at push time.
type Compiler struct {
	script *script.Script
	memory *memory.Plane
	clock  *clock.Clock

	instances map[types.StatementID]int
}

// New constructs a Compiler over a parsed Script, sharing the runtime's
// memory plane and clock.
func New(s *script.Script, mem *memory.Plane, clk *clock.Clock) *Compiler {
	return &Compiler{
		script:    s,
		memory:    mem,
		clock:     clk,
		instances: make(map[types.StatementID]int),
	}
}

// Compile builds a Block for the statement id, parented under parentKey.
// The first strategy whose predicate matches the statement's fragments
// takes it; strategy 9 (fallthrough) always matches, so Compile never
// fails to produce a block for a valid statement id.
func (c *Compiler) Compile(id types.StatementID, parentKey types.BlockKey) (*block.Block, error) {
	stmt, ok := c.script.ByID(id)
	if !ok {
		return nil, fmt.Errorf("compile: unknown statement id %d", id)
	}

	instance := c.instances[id]
	c.instances[id]++
	key := types.NewBlockKey(id, instance, parentKey)

	for _, strat := range strategies {
		if strat.match(stmt) {
			behaviors := strat.build(c, stmt, key)
			return block.New(key, strat.kind, stmt, behaviors, c.memory, c.clock), nil
		}
	}

	// Unreachable: fallthrough always matches.
	return block.New(key, "fallthrough", stmt, []behavior.Behavior{&noop{}}, c.memory, c.clock), nil
}

// childIDs flattens a statement's grouped children into a single ordered
// list. Every strategy, the Group strategy included, uses it, so children
// run one after another in source order; no strategy runs the members of
// a compose group concurrently.
func (c *Compiler) childIDs(stmt types.Statement) []types.StatementID {
	var out []types.StatementID
	for _, group := range stmt.Children {
		out = append(out, group...)
	}
	return out
}

type strategy struct {
	kind  string
	match func(types.Statement) bool
	build func(c *Compiler, stmt types.Statement, key types.BlockKey) []behavior.Behavior
}

// strategies is the fixed, ordered list consulted by Compile. Order
// encodes precedence: AMRAP is checked, and therefore wins, before
// For-Time, resolving the ambiguity of a statement carrying both an
// explicit cap and completion children as time-capped.
var strategies = []strategy{
	{kind: "interval", match: isInterval, build: buildInterval},
	{kind: "amrap", match: isAMRAP, build: buildAMRAP},
	{kind: "for_time", match: isForTime, build: buildForTime},
	{kind: "rep_scheme_rounds", match: isRepSchemeRounds, build: buildRepSchemeRounds},
	{kind: "fixed_rounds", match: isFixedRounds, build: buildFixedRounds},
	{kind: "group", match: isGroup, build: buildGroup},
	{kind: "rest", match: isRest, build: buildRest},
	{kind: "effort", match: isEffort, build: buildEffort},
	{kind: "fallthrough", match: func(types.Statement) bool { return true }, build: buildFallthrough},
}

func fragmentsOfKind(stmt types.Statement, kind types.FragmentKind) []types.Fragment {
	var out []types.Fragment
	for _, f := range stmt.Fragments {
		if f.Kind == kind {
			out = append(out, f)
		}
	}
	return out
}

func hasAction(stmt types.Statement, keyword string) bool {
	for _, f := range fragmentsOfKind(stmt, types.FragmentAction) {
		if strings.EqualFold(f.ActionKeyword, keyword) {
			return true
		}
	}
	return false
}

func firstTimer(stmt types.Statement) (types.Fragment, bool) {
	fs := fragmentsOfKind(stmt, types.FragmentTimer)
	if len(fs) == 0 {
		return types.Fragment{}, false
	}
	return fs[0], true
}

func firstRounds(stmt types.Statement) (types.Fragment, bool) {
	fs := fragmentsOfKind(stmt, types.FragmentRounds)
	if len(fs) == 0 {
		return types.Fragment{}, false
	}
	return fs[0], true
}

func firstEffort(stmt types.Statement) (types.Fragment, bool) {
	fs := fragmentsOfKind(stmt, types.FragmentEffort)
	if len(fs) == 0 {
		return types.Fragment{}, false
	}
	return fs[0], true
}

func firstRestAction(stmt types.Statement) bool {
	return hasAction(stmt, "Rest")
}

func firstResistance(stmt types.Statement) (types.Fragment, bool) {
	fs := fragmentsOfKind(stmt, types.FragmentResistance)
	if len(fs) == 0 {
		return types.Fragment{}, false
	}
	return fs[0], true
}

func firstDistance(stmt types.Statement) (types.Fragment, bool) {
	fs := fragmentsOfKind(stmt, types.FragmentDistance)
	if len(fs) == 0 {
		return types.Fragment{}, false
	}
	return fs[0], true
}

func formatResistance(f types.Fragment) string {
	return strconv.FormatFloat(f.ResistanceValue, 'f', -1, 64) + " " + string(f.ResistanceUnit)
}

func formatDistance(f types.Fragment) string {
	return strconv.FormatFloat(f.DistanceValue, 'f', -1, 64) + " " + string(f.DistanceUnit)
}

// --- 1. Interval (EMOM) ---

func isInterval(stmt types.Statement) bool {
	if !hasAction(stmt, "EMOM") {
		return false
	}
	_, ok := firstRounds(stmt)
	return ok
}

func buildInterval(c *Compiler, stmt types.Statement, key types.BlockKey) []behavior.Behavior {
	rounds, _ := firstRounds(stmt)
	timer, _ := firstTimer(stmt)
	periodMs := timer.TimerMillis
	if periodMs == 0 {
		periodMs = 60_000
	}
	n := rounds.RoundsCount
	if n == 0 {
		n = len(rounds.RoundsScheme)
	}
	children := c.childIDs(stmt)
	capCues := &behavior.SoundCue{}
	roundCues := &behavior.SoundCue{}

	return []behavior.Behavior{
		&behavior.Timer{DurationMs: periodMs * int64(n), IsCountdown: true, Cues: capCues},
		&behavior.Interval{ChildStatementIDs: repeatChildren(children, n), IntervalMs: periodMs, TotalIntervals: n, Cues: roundCues},
		&behavior.ParentContext{AnchorID: memory.AnchorID(string(key) + ":interval")},
		capCues,
		roundCues,
	}
}

// repeatChildren tiles children once per round, so an Interval/Loop
// behavior can treat "one iteration" uniformly regardless of how many
// statements compose it.
func repeatChildren(children []types.StatementID, rounds int) []types.StatementID {
	if rounds <= 0 {
		rounds = 1
	}
	out := make([]types.StatementID, 0, len(children)*rounds)
	for i := 0; i < rounds; i++ {
		out = append(out, children...)
	}
	return out
}

// --- 2. Time-capped rounds (AMRAP) ---

func isAMRAP(stmt types.Statement) bool {
	return hasAction(stmt, "AMRAP")
}

func buildAMRAP(c *Compiler, stmt types.Statement, key types.BlockKey) []behavior.Behavior {
	timer, _ := firstTimer(stmt)
	rounds, hasRounds := firstRounds(stmt)
	total := 0
	if hasRounds {
		total = rounds.RoundsCount
		if total == 0 {
			total = len(rounds.RoundsScheme)
		}
	}
	children := c.childIDs(stmt)
	cues := &behavior.SoundCue{}
	loop := &behavior.Loop{ChildStatementIDs: children, TotalRounds: total}

	behaviors := []behavior.Behavior{
		&behavior.Timer{DurationMs: timer.TimerMillis, IsCountdown: true, Cues: cues},
		loop,
		cues,
	}
	if hasRounds && len(rounds.RoundsScheme) > 0 {
		behaviors = append(behaviors, &behavior.RepsPublisher{Scheme: rounds.RoundsScheme, Round: loop.Round})
	}
	behaviors = append(behaviors, &behavior.ParentContext{AnchorID: memory.AnchorID(string(key) + ":amrap")})
	return behaviors
}

// --- 3. For-time (with optional cap) ---

func isForTime(stmt types.Statement) bool {
	return hasAction(stmt, "For Time")
}

func buildForTime(c *Compiler, stmt types.Statement, key types.BlockKey) []behavior.Behavior {
	children := c.childIDs(stmt)
	behaviors := []behavior.Behavior{
		&behavior.Timer{IsCountdown: false},
	}
	if timer, ok := firstTimer(stmt); ok && timer.TimerMillis > 0 {
		cues := &behavior.SoundCue{}
		behaviors = append(behaviors, &behavior.Timer{DurationMs: timer.TimerMillis, IsCountdown: true, Cues: cues}, cues)
	}
	behaviors = append(behaviors,
		&behavior.Loop{ChildStatementIDs: children, TotalRounds: 1},
		&behavior.ParentContext{AnchorID: memory.AnchorID(string(key) + ":for_time")},
	)
	return behaviors
}

// --- 4. Rep-scheme rounds ---

func isRepSchemeRounds(stmt types.Statement) bool {
	rounds, ok := firstRounds(stmt)
	return ok && len(rounds.RoundsScheme) > 0
}

func buildRepSchemeRounds(c *Compiler, stmt types.Statement, key types.BlockKey) []behavior.Behavior {
	rounds, _ := firstRounds(stmt)
	children := c.childIDs(stmt)
	loop := &behavior.Loop{ChildStatementIDs: children, TotalRounds: len(rounds.RoundsScheme)}
	publisher := &behavior.RepsPublisher{Scheme: rounds.RoundsScheme, Round: loop.Round}
	return []behavior.Behavior{
		loop,
		publisher,
		&behavior.ParentContext{AnchorID: memory.AnchorID(string(key) + ":rep_scheme")},
	}
}

// --- 5. Fixed rounds ---

func isFixedRounds(stmt types.Statement) bool {
	rounds, ok := firstRounds(stmt)
	return ok && rounds.RoundsCount > 0
}

func buildFixedRounds(c *Compiler, stmt types.Statement, key types.BlockKey) []behavior.Behavior {
	rounds, _ := firstRounds(stmt)
	children := c.childIDs(stmt)
	return []behavior.Behavior{
		&behavior.Loop{ChildStatementIDs: children, TotalRounds: rounds.RoundsCount},
		&behavior.ParentContext{AnchorID: memory.AnchorID(string(key) + ":fixed_rounds")},
	}
}

// --- 6. Group ---

func isGroup(stmt types.Statement) bool {
	if stmt.Meta.IsLeaf {
		return false
	}
	_, hasEffort := firstEffort(stmt)
	return !hasEffort
}

func buildGroup(c *Compiler, stmt types.Statement, key types.BlockKey) []behavior.Behavior {
	children := c.childIDs(stmt)
	behaviors := []behavior.Behavior{
		&behavior.Loop{ChildStatementIDs: children, TotalRounds: 1},
	}
	// A bare duration header with no AMRAP/EMOM/For Time action caps the
	// group's wall-clock time rather than driving rounds itself.
	if timer, ok := firstTimer(stmt); ok && timer.TimerMillis > 0 {
		cues := &behavior.SoundCue{}
		behaviors = append(behaviors, &behavior.Timer{DurationMs: timer.TimerMillis, IsCountdown: true, Cues: cues}, cues)
	}
	return behaviors
}

// --- 7. Rest ---

func isRest(stmt types.Statement) bool {
	return firstRestAction(stmt)
}

func buildRest(c *Compiler, stmt types.Statement, key types.BlockKey) []behavior.Behavior {
	timer, _ := firstTimer(stmt)
	cues := &behavior.SoundCue{}
	return []behavior.Behavior{
		&behavior.Rest{DurationMs: timer.TimerMillis, Cues: cues},
		cues,
	}
}

// --- 8. Effort (leaf) ---

func isEffort(stmt types.Statement) bool {
	_, ok := firstEffort(stmt)
	return ok
}

func buildEffort(c *Compiler, stmt types.Statement, key types.BlockKey) []behavior.Behavior {
	effort, _ := firstEffort(stmt)
	rep := fragmentsOfKind(stmt, types.FragmentRep)
	target := 0
	if len(rep) > 0 {
		target = rep[0].RepCount
	}
	eb := &behavior.Effort{Label: effort.EffortLabel, RepsTarget: target}
	if resistance, ok := firstResistance(stmt); ok {
		eb.Resistance = formatResistance(resistance)
	}
	if distance, ok := firstDistance(stmt); ok {
		eb.Distance = formatDistance(distance)
	}
	behaviors := []behavior.Behavior{eb}
	if timer, ok := firstTimer(stmt); ok {
		behaviors = append(behaviors, &behavior.Timer{DurationMs: timer.TimerMillis, IsCountdown: timer.IsCountdown})
	}
	return behaviors
}

// --- 9. Fallthrough ---

func buildFallthrough(c *Compiler, stmt types.Statement, key types.BlockKey) []behavior.Behavior {
	return []behavior.Behavior{&noop{}}
}

// noop is the fallthrough leaf behavior: it completes immediately on the
// first OnNext call.
type noop struct {
	behavior.Base
}

func (n *noop) OnNext(ctx *behavior.Context) ([]behavior.Action, error) {
	return []behavior.Action{behavior.Complete()}, nil
}
