// Package lexer tokenizes workout script source text into typed lexemes
// with source spans.
package lexer

import "github.com/justapithecus/wodscript/types"

// TokenKind discriminates the lexical category of a Token.
type TokenKind string

// Token kind constants.
const (
	TokenDuration  TokenKind = "duration"
	TokenInteger   TokenKind = "integer"
	TokenRepScheme TokenKind = "rep_scheme"
	TokenWeight    TokenKind = "weight"
	TokenDistance  TokenKind = "distance"
	TokenAction    TokenKind = "action"
	TokenRounds    TokenKind = "rounds"
	TokenKeyword   TokenKind = "keyword"
	TokenLapPlus   TokenKind = "lap_plus"
	TokenLapMinus  TokenKind = "lap_minus"
	TokenComment   TokenKind = "comment"
	TokenNewline   TokenKind = "newline"
	TokenText      TokenKind = "text"
	TokenEOF       TokenKind = "eof"
)

// keywords recognized as inline keyword tokens regardless of case.
var keywords = map[string]string{
	"amrap":    "AMRAP",
	"emom":     "EMOM",
	"for time": "For Time",
}

// Token is one lexeme produced by the lexer.
type Token struct {
	// Kind is the lexical category.
	Kind TokenKind
	// Text is the token's literal source text.
	Text string
	// Span is the token's source position.
	Span types.Span
	// Indent is the number of leading spaces on this token's line. Only
	// meaningful on the first token of a line (the parser reads it there
	// to drive indentation-based nesting).
	Indent int
}
