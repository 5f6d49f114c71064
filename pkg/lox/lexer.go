package lox

import (
	"strconv"
	"unicode/utf8"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// lexer holds scanning state over a single unit of source text.
type lexer struct {
	source  string
	start   int // byte offset of the token being scanned
	current int // byte offset of the next rune
	line    int

	tokens []Tok
	errs   *multierror.Error
}

// Tokenize scans source into tokens, always terminated by a single EOF
// token. Scanning never stops early: unexpected characters and
// unterminated strings are left out of the token stream and returned as
// Diagnostics inside a *multierror.Error alongside the tokens.
func Tokenize(source string, debugLexer bool) ([]Tok, error) {
	lx := &lexer{
		source: source,
		line:   1,
		tokens: make([]Tok, 0, len(source)/4+1),
	}

	for !lx.atEnd() {
		lx.start = lx.current
		lx.scanToken()
	}
	lx.tokens = append(lx.tokens, Tok{Kind: EOF, Line: lx.line})

	if debugLexer {
		for _, tok := range lx.tokens {
			LogDebug("lex ->", tok.String())
		}
	}

	return lx.tokens, lx.errs.ErrorOrNil()
}

func (lx *lexer) scanToken() {
	c := lx.advance()
	switch c {
	case '(':
		lx.addToken(LeftParen)
	case ')':
		lx.addToken(RightParen)
	case '{':
		lx.addToken(LeftBrace)
	case '}':
		lx.addToken(RightBrace)
	case ',':
		lx.addToken(Comma)
	case '.':
		lx.addToken(Dot)
	case ';':
		lx.addToken(Semicolon)
	case '*':
		lx.addToken(Star)
	case '-':
		if lx.match('-') {
			lx.addToken(MinusMinus)
		} else {
			lx.addToken(Minus)
		}
	case '+':
		if lx.match('+') {
			lx.addToken(PlusPlus)
		} else {
			lx.addToken(Plus)
		}
	case '!':
		if lx.match('=') {
			lx.addToken(BangEqual)
		} else {
			lx.addToken(Bang)
		}
	case '=':
		if lx.match('=') {
			lx.addToken(EqualEqual)
		} else {
			lx.addToken(Equal)
		}
	case '<':
		if lx.match('=') {
			lx.addToken(LessEqual)
		} else {
			lx.addToken(Less)
		}
	case '>':
		if lx.match('=') {
			lx.addToken(GreaterEqual)
		} else {
			lx.addToken(Greater)
		}
	case '/':
		if lx.match('/') {
			// line comment runs to end of line
			for lx.peek() != '\n' && !lx.atEnd() {
				lx.advance()
			}
		} else {
			lx.addToken(Slash)
		}
	case ' ', '\r', '\t':
		// whitespace
	case '\n':
		lx.line++
	case '"':
		lx.scanString()
	default:
		if isDigit(c) {
			lx.scanNumber()
		} else if isAlpha(c) {
			lx.scanIdentifier()
		} else {
			lx.errorf("Unexpected character.")
		}
	}
}

func (lx *lexer) scanString() {
	for lx.peek() != '"' && !lx.atEnd() {
		if lx.peek() == '\n' {
			lx.line++
		}
		lx.advance()
	}

	if lx.atEnd() {
		lx.errorf("Unterminated string.")
		return
	}

	lx.advance() // closing quote

	value := lx.source[lx.start+1 : lx.current-1]
	lx.addLiteral(StringLiteral, value)
}

func (lx *lexer) scanNumber() {
	for isDigit(lx.peek()) {
		lx.advance()
	}

	// a fractional part needs digits on both sides of the dot
	if lx.peek() == '.' && isDigit(lx.peekNext()) {
		lx.advance()
		for isDigit(lx.peek()) {
			lx.advance()
		}
	}

	// a literal beyond float64 range scans as +Inf
	f, err := strconv.ParseFloat(lx.source[lx.start:lx.current], 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		LogErrf(ErrAssert, "lexer produced an unparseable number %q: %s",
			lx.source[lx.start:lx.current], err)
	}
	lx.addLiteral(NumberLiteral, f)
}

func (lx *lexer) scanIdentifier() {
	for isAlphaNumeric(lx.peek()) {
		lx.advance()
	}

	text := lx.source[lx.start:lx.current]
	if kind, isKeyword := keywords[text]; isKeyword {
		lx.addToken(kind)
		return
	}
	lx.addToken(Identifier)
}

func (lx *lexer) addToken(kind Kind) {
	lx.addLiteral(kind, nil)
}

func (lx *lexer) addLiteral(kind Kind, literal interface{}) {
	lx.tokens = append(lx.tokens, Tok{
		Kind:    kind,
		Lexeme:  lx.source[lx.start:lx.current],
		Literal: literal,
		Line:    lx.line,
	})
}

func (lx *lexer) errorf(message string) {
	lx.errs = multierror.Append(lx.errs, Diagnostic{Line: lx.line, Message: message})
}

func (lx *lexer) atEnd() bool {
	return lx.current >= len(lx.source)
}

func (lx *lexer) advance() rune {
	r, size := utf8.DecodeRuneInString(lx.source[lx.current:])
	lx.current += size
	return r
}

func (lx *lexer) match(expected rune) bool {
	if lx.atEnd() || lx.peek() != expected {
		return false
	}
	lx.current++
	return true
}

func (lx *lexer) peek() rune {
	if lx.atEnd() {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(lx.source[lx.current:])
	return r
}

func (lx *lexer) peekNext() rune {
	if lx.atEnd() {
		return 0
	}
	_, size := utf8.DecodeRuneInString(lx.source[lx.current:])
	if lx.current+size >= len(lx.source) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(lx.source[lx.current+size:])
	return r
}

func isDigit(c rune) bool {
	return c >= '0' && c <= '9'
}

func isAlpha(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func isAlphaNumeric(c rune) bool {
	return isAlpha(c) || isDigit(c)
}
