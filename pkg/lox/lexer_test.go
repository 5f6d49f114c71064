package lox

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(tokens []Tok) []Kind {
	ks := make([]Kind, len(tokens))
	for i, tok := range tokens {
		ks[i] = tok.Kind
	}
	return ks
}

func TestTokenizeOperators(t *testing.T) {
	t.Parallel()

	tokens, err := Tokenize("(){},.-+;/*! != = == > >= < <= -- ++", false)
	require.NoError(t, err)
	assert.Equal(t, []Kind{
		LeftParen, RightParen, LeftBrace, RightBrace, Comma, Dot, Minus, Plus,
		Semicolon, Slash, Star, Bang, BangEqual, Equal, EqualEqual, Greater,
		GreaterEqual, Less, LessEqual, MinusMinus, PlusPlus, EOF,
	}, kinds(tokens))
}

func TestTokenizeOversizedNumber(t *testing.T) {
	t.Parallel()

	tokens, err := Tokenize("1"+strings.Repeat("0", 400), false)
	require.NoError(t, err)
	require.Equal(t, []Kind{NumberLiteral, EOF}, kinds(tokens))
	assert.Equal(t, math.Inf(1), tokens[0].Literal)
}

func TestTokenizeLiterals(t *testing.T) {
	t.Parallel()

	tokens, err := Tokenize(`12.5 7 "hi" 1.`, false)
	require.NoError(t, err)
	require.Equal(t, []Kind{NumberLiteral, NumberLiteral, StringLiteral, NumberLiteral, Dot, EOF}, kinds(tokens))

	assert.Equal(t, 12.5, tokens[0].Literal)
	assert.Equal(t, float64(7), tokens[1].Literal)
	assert.Equal(t, "hi", tokens[2].Literal)
	assert.Equal(t, `"hi"`, tokens[2].Lexeme)
	assert.Equal(t, float64(1), tokens[3].Literal)
}

func TestTokenizeKeywordsAndIdentifiers(t *testing.T) {
	t.Parallel()

	tokens, err := Tokenize("orchid or class classy _x9 this", false)
	require.NoError(t, err)
	assert.Equal(t, []Kind{Identifier, Or, Class, Identifier, Identifier, This, EOF}, kinds(tokens))
}

func TestTokenizeLinesAndComments(t *testing.T) {
	t.Parallel()

	source := "var a; // trailing comment\n\"two\nlines\"\nprint"
	tokens, err := Tokenize(source, false)
	require.NoError(t, err)
	require.Equal(t, []Kind{Var, Identifier, Semicolon, StringLiteral, Print, EOF}, kinds(tokens))

	assert.Equal(t, 1, tokens[0].Line)
	// a string token carries the line it ends on
	assert.Equal(t, 3, tokens[3].Line)
	assert.Equal(t, 4, tokens[4].Line)
	assert.Equal(t, 4, tokens[5].Line)
}

func TestTokenizeErrorsKeepScanning(t *testing.T) {
	t.Parallel()

	tokens, err := Tokenize("var a = 1; @ var b = \"open", false)
	require.Error(t, err)

	diags := Diagnostics(err)
	require.Len(t, diags, 2)
	assert.Equal(t, "[line 1] Error: Unexpected character.", diags[0].Error())
	assert.Equal(t, "[line 1] Error: Unterminated string.", diags[1].Error())

	// everything around the bad characters is still tokenized
	assert.Equal(t, []Kind{
		Var, Identifier, Equal, NumberLiteral, Semicolon,
		Var, Identifier, Equal, EOF,
	}, kinds(tokens))
}
