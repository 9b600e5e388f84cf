package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/wodscript/cli/render"
	"github.com/justapithecus/wodscript/parser"
	"github.com/justapithecus/wodscript/types"
)

// statementView is the rendered form of one parsed types.Statement.
type statementView struct {
	ID        int      `json:"id"`
	Parent    *int     `json:"parent,omitempty"`
	Line      int      `json:"line"`
	IsLeaf    bool     `json:"is_leaf"`
	Fragments []string `json:"fragments"`
	Children  [][]int  `json:"children,omitempty"`
}

// parseErrorView is the rendered form of one types.ParseError.
type parseErrorView struct {
	Line     int    `json:"line"`
	Col      int    `json:"col"`
	Expected string `json:"expected"`
	Found    string `json:"found"`
}

// parseResult is the top-level JSON/table payload for wodc parse.
type parseResult struct {
	Statements []statementView  `json:"statements"`
	Errors     []parseErrorView `json:"errors,omitempty"`
}

// ParseCommand returns the parse command. It never executes a script; it
// only builds and prints the statement tree.
func ParseCommand() *cli.Command {
	return &cli.Command{
		Name:      "parse",
		Usage:     "Print the statement tree for a script",
		ArgsUsage: "<script>",
		Flags:     ReadOnlyFlags(),
		Action:    parseAction,
	}
}

func parseAction(c *cli.Context) error {
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for parse command", exitConfigError)
	}

	path := c.Args().First()
	if path == "" {
		return cli.Exit("script path required: wodc parse <script>", exitConfigError)
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return cli.Exit(fmt.Sprintf("cannot read script %q: %v", path, err), exitConfigError)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	s := parser.Parse(string(src))
	result := buildParseResult(s)

	if err := r.Render(result); err != nil {
		return err
	}
	if len(result.Errors) > 0 {
		return cli.Exit("", exitConfigError)
	}
	return nil
}

// scriptStatements exposes the read-only interface parse/validate need
// from a *script.Script without importing it directly into two files.
type scriptStatements interface {
	All() []types.Statement
	Errors() []*types.ParseError
}

func buildParseResult(s scriptStatements) parseResult {
	stmts := s.All()
	views := make([]statementView, 0, len(stmts))
	for _, st := range stmts {
		var parent *int
		if st.Parent != nil {
			p := int(*st.Parent)
			parent = &p
		}
		var children [][]int
		for _, group := range st.Children {
			row := make([]int, 0, len(group))
			for _, id := range group {
				row = append(row, int(id))
			}
			children = append(children, row)
		}
		views = append(views, statementView{
			ID:        int(st.ID),
			Parent:    parent,
			Line:      st.Meta.Span.Line,
			IsLeaf:    st.Meta.IsLeaf,
			Fragments: summarizeFragments(st.Fragments),
			Children:  children,
		})
	}

	errs := s.Errors()
	errViews := make([]parseErrorView, 0, len(errs))
	for _, e := range errs {
		errViews = append(errViews, parseErrorView{
			Line:     e.Span.Line,
			Col:      e.Span.ColumnStart,
			Expected: e.Expected,
			Found:    e.Found,
		})
	}

	return parseResult{Statements: views, Errors: errViews}
}

// summarizeFragments renders each fragment as a short human-readable
// string, e.g. "timer=20000ms countdown" or "effort=Pullups".
func summarizeFragments(fragments []types.Fragment) []string {
	out := make([]string, 0, len(fragments))
	for _, f := range fragments {
		var b strings.Builder
		switch f.Kind {
		case types.FragmentTimer:
			fmt.Fprintf(&b, "timer=%dms", f.TimerMillis)
			if f.IsCountdown {
				b.WriteString(" countdown")
			}
		case types.FragmentRep:
			fmt.Fprintf(&b, "rep=%d", f.RepCount)
		case types.FragmentEffort:
			fmt.Fprintf(&b, "effort=%s", f.EffortLabel)
		case types.FragmentResistance:
			fmt.Fprintf(&b, "resistance=%g%s", f.ResistanceValue, f.ResistanceUnit)
		case types.FragmentDistance:
			fmt.Fprintf(&b, "distance=%g%s", f.DistanceValue, f.DistanceUnit)
		case types.FragmentRounds:
			if len(f.RoundsScheme) > 0 {
				fmt.Fprintf(&b, "rounds=%v", f.RoundsScheme)
			} else {
				fmt.Fprintf(&b, "rounds=%d", f.RoundsCount)
			}
		case types.FragmentAction:
			fmt.Fprintf(&b, "action=%s", f.ActionKeyword)
		case types.FragmentIncrement:
			fmt.Fprintf(&b, "increment=%+d", f.IncrementSign)
		case types.FragmentLap:
			fmt.Fprintf(&b, "lap=%s", f.Lap)
		default:
			fmt.Fprintf(&b, "%s", f.Kind)
		}
		out = append(out, b.String())
	}
	return out
}
