package lexer

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/justapithecus/wodscript/types"
)

// Lexer scans workout script source text in a single left-to-right pass
// with no lookahead beyond one token.
type Lexer struct {
	src    []rune
	pos    int
	line   int
	col    int
	indent int
	atBOL  bool
}

// New constructs a Lexer over src.
func New(src string) *Lexer {
	return &Lexer{
		src:   []rune(src),
		line:  1,
		col:   1,
		atBOL: true,
	}
}

// Lex scans the entire source and returns the resulting tokens. Lex
// errors are recorded in the returned slice rather than aborting the
// scan; the caller decides whether to treat them as fatal.
func Lex(src string) ([]Token, []*types.LexError) {
	l := New(src)
	var tokens []Token
	var errs []*types.LexError

	for {
		tok, err := l.next()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		tokens = append(tokens, tok)
		if tok.Kind == TokenEOF {
			break
		}
	}
	return tokens, errs
}

func (l *Lexer) peek() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekAt(offset int) rune {
	if l.pos+offset >= len(l.src) {
		return 0
	}
	return l.src[l.pos+offset]
}

func (l *Lexer) advance() rune {
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *Lexer) span(startLine, startCol int) types.Span {
	return types.Span{
		Line:        startLine,
		ColumnStart: startCol,
		ColumnEnd:   l.col,
		Length:      l.col - startCol,
	}
}

// next scans and returns the next token. Leading spaces on a line are
// consumed and recorded as indent rather than emitted as tokens.
func (l *Lexer) next() (Token, *types.LexError) {
	if l.atBOL {
		indent := 0
		for l.peek() == ' ' {
			l.advance()
			indent++
		}
		l.indent = indent
		l.atBOL = false
	}

	if l.pos >= len(l.src) {
		return Token{Kind: TokenEOF, Span: l.span(l.line, l.col), Indent: l.indent}, nil
	}

	startLine, startCol := l.line, l.col
	r := l.peek()

	switch {
	case r == '\n':
		l.advance()
		l.atBOL = true
		return Token{Kind: TokenNewline, Text: "\n", Span: l.span(startLine, startCol), Indent: l.indent}, nil

	case r == ' ' || r == '\t':
		l.advance()
		return l.next()

	case r == '#' || r == '>':
		return l.lexComment(startLine, startCol), nil

	case r == '[':
		return l.lexBracketed(startLine, startCol)

	case r == '(':
		return l.lexParenthesized(startLine, startCol)

	case r == '+' && l.nextIsLapBoundary(1):
		l.advance()
		return Token{Kind: TokenLapPlus, Text: "+", Span: l.span(startLine, startCol), Indent: l.indent}, nil

	case (r == '-' || r == '−') && l.nextIsLapBoundary(1):
		l.advance()
		return Token{Kind: TokenLapMinus, Text: "-", Span: l.span(startLine, startCol), Indent: l.indent}, nil

	case r == '-' || r == '−' || unicode.IsDigit(r):
		return l.lexNumeric(startLine, startCol)

	default:
		return l.lexText(startLine, startCol), nil
	}
}

// nextIsLapBoundary reports whether the rune at offset is whitespace or
// EOF, which distinguishes a standalone lap marker ("+ Run 400m") from a
// signed numeric prefix ("-30s").
func (l *Lexer) nextIsLapBoundary(offset int) bool {
	r := l.peekAt(offset)
	return r == 0 || r == ' ' || r == '\t'
}

func (l *Lexer) lexComment(startLine, startCol int) Token {
	var b strings.Builder
	for l.pos < len(l.src) && l.peek() != '\n' {
		b.WriteRune(l.advance())
	}
	return Token{Kind: TokenComment, Text: b.String(), Span: l.span(startLine, startCol), Indent: l.indent}
}

func (l *Lexer) lexBracketed(startLine, startCol int) (Token, *types.LexError) {
	l.advance() // consume '['
	var b strings.Builder
	for l.pos < len(l.src) && l.peek() != ']' && l.peek() != '\n' {
		b.WriteRune(l.advance())
	}
	if l.peek() != ']' {
		return Token{}, &types.LexError{
			Position: l.span(startLine, startCol),
			Reason:   "unclosed bracket",
		}
	}
	l.advance() // consume ']'
	return Token{Kind: TokenAction, Text: b.String(), Span: l.span(startLine, startCol), Indent: l.indent}, nil
}

func (l *Lexer) lexParenthesized(startLine, startCol int) (Token, *types.LexError) {
	l.advance() // consume '('
	var b strings.Builder
	for l.pos < len(l.src) && l.peek() != ')' && l.peek() != '\n' {
		b.WriteRune(l.advance())
	}
	if l.peek() != ')' {
		return Token{}, &types.LexError{
			Position: l.span(startLine, startCol),
			Reason:   "unclosed parenthesis",
		}
	}
	l.advance() // consume ')'
	return Token{Kind: TokenRounds, Text: b.String(), Span: l.span(startLine, startCol), Indent: l.indent}, nil
}

// lexNumeric scans a duration, integer, rep-scheme, weight, or distance
// starting at a digit or a leading minus sign.
func (l *Lexer) lexNumeric(startLine, startCol int) (Token, *types.LexError) {
	var b strings.Builder
	isCountdown := false
	if l.peek() == '-' || l.peek() == '−' {
		isCountdown = true
		b.WriteRune(l.advance())
	}

	for l.pos < len(l.src) && (unicode.IsDigit(l.peek())) {
		b.WriteRune(l.advance())
	}

	if b.Len() == 0 || (isCountdown && b.Len() == 1) {
		return Token{}, &types.LexError{
			Position: l.span(startLine, startCol),
			Reason:   "malformed numeric literal",
		}
	}

	// Duration: HH:MM:SS / MM:SS / :SS already starts with digits, so a
	// colon continuation extends it.
	if l.peek() == ':' {
		for l.peek() == ':' {
			b.WriteRune(l.advance())
			if !unicode.IsDigit(l.peek()) {
				return Token{}, &types.LexError{
					Position: l.span(startLine, startCol),
					Reason:   "malformed duration",
				}
			}
			for l.pos < len(l.src) && unicode.IsDigit(l.peek()) {
				b.WriteRune(l.advance())
			}
		}
		return Token{Kind: TokenDuration, Text: b.String(), Span: l.span(startLine, startCol), Indent: l.indent}, nil
	}

	// Duration unit suffix: s, m, h (single letter, not followed by more
	// letters — "5m" duration vs "5mi" distance is disambiguated by unit
	// length below).
	if unit := l.peekUnit(); unit != "" {
		switch unit {
		case "s", "m", "h":
			b.WriteString(l.consumeUnit(unit))
			return Token{Kind: TokenDuration, Text: b.String(), Span: l.span(startLine, startCol), Indent: l.indent}, nil
		case "lb", "kg", "bw":
			b.WriteString(l.consumeUnit(unit))
			return Token{Kind: TokenWeight, Text: b.String(), Span: l.span(startLine, startCol), Indent: l.indent}, nil
		case "km", "ft", "mi":
			b.WriteString(l.consumeUnit(unit))
			return Token{Kind: TokenDistance, Text: b.String(), Span: l.span(startLine, startCol), Indent: l.indent}, nil
		}
	}
	if l.peek() == '%' {
		b.WriteRune(l.advance())
		return Token{Kind: TokenWeight, Text: b.String(), Span: l.span(startLine, startCol), Indent: l.indent}, nil
	}

	// Rep-scheme: integer sequence joined by '-', e.g. 21-15-9.
	if l.peek() == '-' && unicode.IsDigit(l.peekAt(1)) {
		for l.peek() == '-' && unicode.IsDigit(l.peekAt(1)) {
			b.WriteRune(l.advance())
			for l.pos < len(l.src) && unicode.IsDigit(l.peek()) {
				b.WriteRune(l.advance())
			}
		}
		return Token{Kind: TokenRepScheme, Text: b.String(), Span: l.span(startLine, startCol), Indent: l.indent}, nil
	}

	if isCountdown {
		// A bare "-N" with no unit and no scheme continuation is not a
		// recognized numeric form.
		return Token{}, &types.LexError{
			Position: l.span(startLine, startCol),
			Reason:   "malformed duration",
		}
	}

	if _, err := strconv.Atoi(b.String()); err != nil {
		return Token{}, &types.LexError{
			Position: l.span(startLine, startCol),
			Reason:   "malformed integer",
		}
	}
	return Token{Kind: TokenInteger, Text: b.String(), Span: l.span(startLine, startCol), Indent: l.indent}, nil
}

// peekUnit returns the longest known unit suffix starting at the current
// position, or "" if none matches.
func (l *Lexer) peekUnit() string {
	for _, unit := range []string{"km", "mi", "ft", "lb", "kg", "bw", "s", "m", "h"} {
		if l.hasPrefix(unit) && !isLetter(l.peekAt(len([]rune(unit)))) {
			return unit
		}
	}
	return ""
}

func (l *Lexer) hasPrefix(s string) bool {
	runes := []rune(s)
	for i, r := range runes {
		if l.peekAt(i) != r {
			return false
		}
	}
	return true
}

func (l *Lexer) consumeUnit(unit string) string {
	for range []rune(unit) {
		l.advance()
	}
	return unit
}

func isLetter(r rune) bool {
	return unicode.IsLetter(r)
}

// lexText scans a free-text run (effort name or inline keyword), reading
// until the next newline, comment marker, bracket/paren boundary, or a
// digit that begins a new word.
func (l *Lexer) lexText(startLine, startCol int) Token {
	var b strings.Builder
	for l.pos < len(l.src) {
		r := l.peek()
		if r == '\n' || r == '[' || r == '(' || r == '#' || r == '>' {
			break
		}
		// A word starting with a digit ("AMRAP 20m", "Run 400m") is a
		// numeric token of its own, not part of the text run.
		if unicode.IsDigit(r) && (l.src[l.pos-1] == ' ' || l.src[l.pos-1] == '\t') {
			break
		}
		b.WriteRune(l.advance())
	}
	text := strings.TrimRight(b.String(), " \t")

	if kw, ok := keywords[strings.ToLower(strings.TrimSpace(text))]; ok {
		return Token{Kind: TokenKeyword, Text: kw, Span: l.span(startLine, startCol), Indent: l.indent}
	}
	return Token{Kind: TokenText, Text: text, Span: l.span(startLine, startCol), Indent: l.indent}
}
