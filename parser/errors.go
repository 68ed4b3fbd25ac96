package parser

import (
	"github.com/ava12/lrx"
	"github.com/ava12/lrx/grammar"
	"github.com/ava12/lrx/scanner"
)

// Error codes used by parser:
const (
	// "unexpected end of input, expecting %s"
	UnexpectedEofError = lrx.SyntaxErrors + iota
	// "unexpected %s, expecting %s"
	UnexpectedTokenError
)

const (
	// "parser stack exceeds %d states"
	StackOverflowError = lrx.ParserErrors + iota
	// "no implementation bound to action %s"
	UnknownActionError
	// "action %s failed: %s"
	ActionError
	// "action %s returned %s value, expecting %s"
	ValueKindError
	// "too many syntax errors, giving up after %d recoveries"
	RecoveryLimitError
	// "no goto on %s in state %d"
	BrokenTablesError
)

func unexpectedEofError(t *scanner.Token, expected string) *lrx.Error {
	return lrx.FormatErrorPos(t, UnexpectedEofError, "unexpected end of input, expecting %s", expected)
}

func unexpectedTokenError(g *grammar.Grammar, t *scanner.Token, expected string) *lrx.Error {
	return lrx.FormatErrorPos(t, UnexpectedTokenError, "unexpected %s, expecting %s", t.Title(g), expected)
}

func stackOverflowError(pos lrx.SourcePos, depth int) *lrx.Error {
	return lrx.FormatErrorPos(pos, StackOverflowError, "parser stack exceeds %d states", depth)
}

func unknownActionError(name string) *lrx.Error {
	return lrx.FormatError(UnknownActionError, "no implementation bound to action %s", name)
}

func actionError(pos lrx.SourcePos, name string, e error) *lrx.Error {
	return lrx.FormatErrorPos(pos, ActionError, "action %s failed: %s", name, e)
}

func valueKindError(pos lrx.SourcePos, name string, got, want lrx.Kind) *lrx.Error {
	return lrx.FormatErrorPos(pos, ValueKindError, "action %s returned %s value, expecting %s", name, got, want)
}

func recoveryLimitError(n int) *lrx.Error {
	return lrx.FormatError(RecoveryLimitError, "too many syntax errors, giving up after %d recoveries", n)
}

func brokenTablesError(nonterm string, state int) *lrx.Error {
	return lrx.FormatError(BrokenTablesError, "no goto on %s in state %d", nonterm, state)
}
