package cmd

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/justapithecus/wodscript/lexer"
)

func TestLexAction_TokenView_RoundTrip(t *testing.T) {
	tokens, errs := lexer.Lex("AMRAP 20m\n  5 Pullups")
	require.Empty(t, errs)
	require.NotEmpty(t, tokens)

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

	require.Equal(t, "AMRAP", views[0].Text)
	require.Equal(t, 1, views[0].Line)
}

func TestLexAction_ReportsLexErrors(t *testing.T) {
	_, errs := lexer.Lex("[unclosed")
	require.NotEmpty(t, errs)
	for _, e := range errs {
		require.NotEmpty(t, e.Reason)
	}
}
