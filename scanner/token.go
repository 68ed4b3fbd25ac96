package scanner

import (
	"strconv"

	"github.com/ava12/lrx/grammar"
	"github.com/ava12/lrx/source"
)

// Token is a scanned lexeme. Type is a terminal id, grammar.EofId at end of input
// or grammar.ErrorId for a character no terminal starts with.
type Token struct {
	tokenType  int
	typeName   string
	text       string
	pos        source.Pos
	start, end source.Mark
}

func NewToken(tokenType int, typeName, text string, pos source.Pos, start, end source.Mark) *Token {
	return &Token{tokenType, typeName, text, pos, start, end}
}

func (t *Token) Type() int {
	return t.tokenType
}

func (t *Token) TypeName() string {
	return t.typeName
}

func (t *Token) Text() string {
	return t.text
}

func (t *Token) Pos() source.Pos {
	return t.pos
}

func (t *Token) Source() *source.Source {
	return t.pos.Source()
}

func (t *Token) SourceName() string {
	return t.pos.SourceName()
}

func (t *Token) Line() int {
	return t.pos.Line()
}

func (t *Token) Col() int {
	return t.pos.Col()
}

// Start is the input mark before the token.
func (t *Token) Start() source.Mark {
	return t.start
}

// End is the input mark after the token.
func (t *Token) End() source.Mark {
	return t.end
}

// Title describes the token in messages.
func (t *Token) Title(g *grammar.Grammar) string {
	switch {
	case t.tokenType == grammar.EofId:
		return "end of input"
	case t.tokenType == grammar.ErrorId:
		return "wrong char " + strconv.Quote(t.text)
	case g.Symbols[t.tokenType].Flags&grammar.LiteralTerm != 0:
		return g.Symbols[t.tokenType].Title()
	default:
		return t.typeName + " " + strconv.Quote(t.text)
	}
}
