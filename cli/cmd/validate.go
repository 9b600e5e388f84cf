package cmd

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/wodscript/cli/render"
	"github.com/justapithecus/wodscript/parser"
)

// validateResult is the payload for wodc validate.
type validateResult struct {
	Valid  bool             `json:"valid"`
	Errors []parseErrorView `json:"errors,omitempty"`
}

// ValidateCommand returns the validate command. It parses a script and
// reports its parse errors; it neither compiles nor executes it.
func ValidateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Check a script for parse errors without running it",
		ArgsUsage: "<script>",
		Flags:     ReadOnlyFlags(),
		Action:    validateAction,
	}
}

func validateAction(c *cli.Context) error {
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for validate command", exitConfigError)
	}

	path := c.Args().First()
	if path == "" {
		return cli.Exit("script path required: wodc validate <script>", exitConfigError)
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
	parsed := buildParseResult(s)

	result := validateResult{
		Valid:  len(parsed.Errors) == 0,
		Errors: parsed.Errors,
	}

	if err := r.Render(result); err != nil {
		return err
	}
	if !result.Valid {
		return cli.Exit("", exitConfigError)
	}
	return nil
}
