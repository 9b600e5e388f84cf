package cmd

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/wodscript/cli/render"
	"github.com/justapithecus/wodscript/lexer"
)

// tokenView is the rendered form of one lexer.Token.
type tokenView struct {
	Kind   string `json:"kind"`
	Text   string `json:"text"`
	Line   int    `json:"line"`
	Col    int    `json:"col"`
	Indent int    `json:"indent"`
}

// LexCommand returns the lex command. It never executes a script; it only
// tokenizes it.
func LexCommand() *cli.Command {
	return &cli.Command{
		Name:      "lex",
		Usage:     "Print the token stream for a script",
		ArgsUsage: "<script>",
		Flags:     ReadOnlyFlags(),
		Action:    lexAction,
	}
}

func lexAction(c *cli.Context) error {
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for lex command", exitConfigError)
	}

	path := c.Args().First()
	if path == "" {
		return cli.Exit("script path required: wodc lex <script>", exitConfigError)
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return cli.Exit(fmt.Sprintf("cannot read script %q: %v", path, err), exitConfigError)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	tokens, errs := lexer.Lex(string(src))

	views := make([]tokenView, 0, len(tokens))
	for _, tok := range tokens {
		views = append(views, tokenView{
			Kind:   string(tok.Kind),
			Text:   tok.Text,
			Line:   tok.Span.Line,
			Col:    tok.Span.ColumnStart,
			Indent: tok.Indent,
		})
	}

	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintln(os.Stderr, e.Error())
		}
		if err := r.Render(views); err != nil {
			return err
		}
		return cli.Exit("", exitConfigError)
	}

	return r.Render(views)
}
