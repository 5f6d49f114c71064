package lox

import (
	"fmt"
)

// Kind is the lexical category of a Tok.
type Kind int

const (
	// single-character punctuation
	LeftParen Kind = iota
	RightParen
	LeftBrace
	RightBrace
	Comma
	Dot
	Minus
	Plus
	Semicolon
	Slash
	Star

	// one or two character operators
	Bang
	BangEqual
	Equal
	EqualEqual
	Greater
	GreaterEqual
	Less
	LessEqual
	MinusMinus
	PlusPlus

	// literals
	Identifier
	StringLiteral
	NumberLiteral

	// keywords
	And
	Class
	Else
	False
	Fun
	For
	If
	Nil
	Or
	Print
	Return
	Super
	This
	True
	Var
	While

	EOF
)

var keywords = map[string]Kind{
	"and":    And,
	"class":  Class,
	"else":   Else,
	"false":  False,
	"for":    For,
	"fun":    Fun,
	"if":     If,
	"nil":    Nil,
	"or":     Or,
	"print":  Print,
	"return": Return,
	"super":  Super,
	"this":   This,
	"true":   True,
	"var":    Var,
	"while":  While,
}

func (k Kind) String() string {
	switch k {
	case LeftParen:
		return "'('"
	case RightParen:
		return "')'"
	case LeftBrace:
		return "'{'"
	case RightBrace:
		return "'}'"
	case Comma:
		return "','"
	case Dot:
		return "'.'"
	case Minus:
		return "'-'"
	case Plus:
		return "'+'"
	case Semicolon:
		return "';'"
	case Slash:
		return "'/'"
	case Star:
		return "'*'"
	case Bang:
		return "'!'"
	case BangEqual:
		return "'!='"
	case Equal:
		return "'='"
	case EqualEqual:
		return "'=='"
	case Greater:
		return "'>'"
	case GreaterEqual:
		return "'>='"
	case Less:
		return "'<'"
	case LessEqual:
		return "'<='"
	case MinusMinus:
		return "'--'"
	case PlusPlus:
		return "'++'"
	case Identifier:
		return "identifier"
	case StringLiteral:
		return "string literal"
	case NumberLiteral:
		return "number literal"
	case EOF:
		return "end of input"
	}

	for word, kind := range keywords {
		if kind == k {
			return "'" + word + "'"
		}
	}
	return "unknown token"
}

// Tok is a single lexical unit. Literal is set only for string and
// number tokens, as a string and a float64 respectively.
type Tok struct {
	Kind    Kind
	Lexeme  string
	Literal interface{}
	Line    int
}

func (tok Tok) String() string {
	switch tok.Kind {
	case StringLiteral, NumberLiteral, Identifier:
		return fmt.Sprintf("%s '%s' [line %d]", tok.Kind, tok.Lexeme, tok.Line)
	default:
		return fmt.Sprintf("%s [line %d]", tok.Kind, tok.Line)
	}
}
