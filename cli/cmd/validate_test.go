package cmd

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/justapithecus/wodscript/parser"
)

func TestValidateResult_ValidScript(t *testing.T) {
	s := parser.Parse("AMRAP 20m\n  5 Pullups\n  10 Pushups\n  15 Squats")
	parsed := buildParseResult(s)
	result := validateResult{Valid: len(parsed.Errors) == 0, Errors: parsed.Errors}

	require.True(t, result.Valid)
	require.Empty(t, result.Errors)
}

func TestValidateResult_InvalidScript(t *testing.T) {
	s := parser.Parse("  Pullups")
	parsed := buildParseResult(s)
	result := validateResult{Valid: len(parsed.Errors) == 0, Errors: parsed.Errors}

	require.False(t, result.Valid)
	require.NotEmpty(t, result.Errors)
}
