// Package parser builds a statement tree with fragment-level annotations
// from a stream of lexer tokens.
package parser

import (
	"strconv"
	"strings"

	"github.com/justapithecus/wodscript/lexer"
	"github.com/justapithecus/wodscript/script"
	"github.com/justapithecus/wodscript/types"
)

// line is one non-trivial source line reduced to its tokens, stripped of
// the leading lap marker (if any) and trailing comment.
type line struct {
	lap       types.LapKind
	indent    int
	tokens    []lexer.Token
	lineSpan  types.Span
}

// Parser builds a Script from source text. One statement per non-trivial
// line; nesting is indentation-driven; lap classification and child
// grouping happen per §4.2.
type Parser struct {
	source string
	lines  []line
	stmts  []types.Statement
	errs   []*types.ParseError
	nextID types.StatementID
}

// Parse tokenizes and parses src, returning a read-only Script. Lex and
// parse errors are recorded on the Script rather than returned as a Go
// error; the caller inspects Script.Errors() to decide how to proceed.
func Parse(src string) *script.Script {
	tokens, lexErrs := lexer.Lex(src)

	p := &Parser{source: src}
	for _, le := range lexErrs {
		p.errs = append(p.errs, &types.ParseError{
			Span:     le.Position,
			Expected: "well-formed token",
			Found:    le.Reason,
		})
	}

	p.lines = groupLines(tokens)
	p.parseBlock(p.lines, nil)

	return script.New(src, p.stmts, p.errs)
}

// groupLines splits a token stream into per-line token groups, dropping
// comment tokens and newline tokens, and recording the indent and lap
// marker for each resulting line. Blank lines (no tokens after
// stripping) are omitted entirely.
func groupLines(tokens []lexer.Token) []line {
	var lines []line
	var cur []lexer.Token
	var curIndent int
	var curLap types.LapKind
	var curSpanStart types.Span
	haveFirst := false

	flush := func() {
		if len(cur) == 0 {
			return
		}
		lap := curLap
		if lap == "" {
			lap = types.LapNone
		}
		lines = append(lines, line{
			lap:      lap,
			indent:   curIndent,
			tokens:   cur,
			lineSpan: curSpanStart,
		})
		cur = nil
		curLap = ""
		haveFirst = false
	}

	for _, tok := range tokens {
		switch tok.Kind {
		case lexer.TokenNewline:
			flush()
			continue
		case lexer.TokenComment:
			continue
		case lexer.TokenEOF:
			flush()
			continue
		}

		if !haveFirst {
			curIndent = tok.Indent
			curSpanStart = tok.Span
			haveFirst = true
			switch tok.Kind {
			case lexer.TokenLapPlus:
				curLap = types.LapCompose
				continue
			case lexer.TokenLapMinus:
				curLap = types.LapRound
				continue
			}
		}
		cur = append(cur, tok)
	}
	flush()
	return lines
}

// parseBlock consumes a run of lines at a single indentation level
// (the first line's indent), recursively parsing deeper-indented runs as
// children, and returns the ids of the statements it created at this
// level.
func (p *Parser) parseBlock(lines []line, parent *types.StatementID) []types.StatementID {
	if len(lines) == 0 {
		return nil
	}
	levelIndent := lines[0].indent

	var ids []types.StatementID
	i := 0
	for i < len(lines) {
		ln := lines[i]
		if ln.indent < levelIndent {
			break
		}
		if ln.indent > levelIndent {
			// Orphaned deep indent with no header; record and skip.
			p.errs = append(p.errs, &types.ParseError{
				Span:     ln.lineSpan,
				Expected: "statement at indent <= parent",
				Found:    "unexpected deeper indent",
			})
			i++
			continue
		}

		id := p.nextID
		p.nextID++

		fragments := collectFragments(ln.tokens)

		// Gather the contiguous run of more-deeply-indented lines that
		// follow this header as its children.
		j := i + 1
		var childLines []line
		for j < len(lines) && lines[j].indent > levelIndent {
			childLines = append(childLines, lines[j])
			j++
		}

		stmt := types.Statement{
			ID:     id,
			Parent: parent,
			Meta: types.StatementMeta{
				Span:   ln.lineSpan,
				IsLeaf: len(childLines) == 0,
			},
			Fragments: fragments,
		}
		p.stmts = append(p.stmts, stmt)
		idx := len(p.stmts) - 1
		childIDs := p.parseBlock(childLines, &id)
		p.stmts[idx].Children = groupChildren(childIDs, childLapKinds(childLines, levelIndent))

		ids = append(ids, id)
		i = j
	}
	return ids
}

// childLapKinds extracts, for each direct child header line within
// childLines (those at the first nested indent level), its lap
// classification, in order.
func childLapKinds(childLines []line, parentIndent int) []types.LapKind {
	if len(childLines) == 0 {
		return nil
	}
	childIndent := childLines[0].indent
	var kinds []types.LapKind
	for _, ln := range childLines {
		if ln.indent != childIndent {
			continue
		}
		kinds = append(kinds, ln.lap)
	}
	return kinds
}

// groupChildren folds a flat child-id list plus parallel lap
// classifications into the grouped-children shape: consecutive
// LapCompose children coalesce into one group; LapRound and LapNone
// children each form their own singleton group.
func groupChildren(ids []types.StatementID, laps []types.LapKind) [][]types.StatementID {
	var groups [][]types.StatementID
	var current []types.StatementID

	flush := func() {
		if len(current) > 0 {
			groups = append(groups, current)
			current = nil
		}
	}

	for i, id := range ids {
		lap := types.LapNone
		if i < len(laps) {
			lap = laps[i]
		}
		switch lap {
		case types.LapCompose:
			current = append(current, id)
		default:
			flush()
			groups = append(groups, []types.StatementID{id})
		}
	}
	flush()
	return groups
}

// collectFragments builds the fragment list for one statement's header
// tokens, in source order.
func collectFragments(tokens []lexer.Token) []types.Fragment {
	var out []types.Fragment
	for _, tok := range tokens {
		switch tok.Kind {
		case lexer.TokenDuration:
			ms, isCountdown := parseDuration(tok.Text)
			out = append(out, types.Fragment{
				Kind:        types.FragmentTimer,
				Span:        tok.Span,
				TimerMillis: ms,
				IsCountdown: isCountdown,
			})
		case lexer.TokenInteger:
			n, _ := strconv.Atoi(tok.Text)
			out = append(out, types.Fragment{
				Kind:     types.FragmentRep,
				Span:     tok.Span,
				RepCount: n,
			})
		case lexer.TokenRepScheme:
			out = append(out, types.Fragment{
				Kind:         types.FragmentRounds,
				Span:         tok.Span,
				RoundsScheme: parseRepScheme(tok.Text),
			})
		case lexer.TokenWeight:
			val, unit := splitNumericUnit(tok.Text)
			out = append(out, types.Fragment{
				Kind:            types.FragmentResistance,
				Span:            tok.Span,
				ResistanceValue: val,
				ResistanceUnit:  types.ResistanceUnit(unit),
			})
		case lexer.TokenDistance:
			val, unit := splitNumericUnit(tok.Text)
			out = append(out, types.Fragment{
				Kind:          types.FragmentDistance,
				Span:          tok.Span,
				DistanceValue: val,
				DistanceUnit:  types.DistanceUnit(unit),
			})
		case lexer.TokenRounds:
			out = append(out, parseRoundsFragment(tok))
		case lexer.TokenAction:
			out = append(out, types.Fragment{
				Kind:          types.FragmentAction,
				Span:          tok.Span,
				ActionKeyword: tok.Text,
			})
		case lexer.TokenKeyword:
			out = append(out, types.Fragment{
				Kind:          types.FragmentAction,
				Span:          tok.Span,
				ActionKeyword: tok.Text,
			})
		case lexer.TokenText:
			label := strings.TrimSpace(tok.Text)
			if label == "" {
				continue
			}
			out = append(out, types.Fragment{
				Kind:        types.FragmentEffort,
				Span:        tok.Span,
				EffortLabel: label,
			})
		}
	}
	return out
}

func parseRoundsFragment(tok lexer.Token) types.Fragment {
	text := tok.Text
	if strings.Contains(text, "-") {
		return types.Fragment{
			Kind:         types.FragmentRounds,
			Span:         tok.Span,
			RoundsScheme: parseRepScheme(text),
		}
	}
	n, _ := strconv.Atoi(strings.TrimSpace(text))
	return types.Fragment{
		Kind:        types.FragmentRounds,
		Span:        tok.Span,
		RoundsCount: n,
	}
}

func parseRepScheme(text string) []int {
	parts := strings.Split(text, "-")
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}

// parseDuration converts a duration literal ("HH:MM:SS", "MM:SS", ":SS",
// "Ns", "Nm", "Nh", optionally "-"-prefixed) into milliseconds and an
// is-countdown flag.
func parseDuration(text string) (int64, bool) {
	isCountdown := strings.HasPrefix(text, "-") || strings.HasPrefix(text, "−")
	body := strings.TrimPrefix(strings.TrimPrefix(text, "-"), "−")

	if strings.Contains(body, ":") {
		parts := strings.Split(body, ":")
		var seconds int64
		for _, part := range parts {
			n, _ := strconv.Atoi(part)
			seconds = seconds*60 + int64(n)
		}
		return seconds * 1000, isCountdown
	}

	unit := body[len(body)-1]
	n, _ := strconv.Atoi(body[:len(body)-1])
	switch unit {
	case 's':
		return int64(n) * 1000, isCountdown
	case 'm':
		return int64(n) * 60 * 1000, isCountdown
	case 'h':
		return int64(n) * 60 * 60 * 1000, isCountdown
	}
	return 0, isCountdown
}

// splitNumericUnit splits a "95lb"-shaped token into its numeric value
// and trailing unit letters.
func splitNumericUnit(text string) (float64, string) {
	i := 0
	for i < len(text) && (text[i] >= '0' && text[i] <= '9' || text[i] == '.') {
		i++
	}
	val, _ := strconv.ParseFloat(text[:i], 64)
	return val, text[i:]
}
