/*
Package lrx is a general-purpose LALR(k) parser construction library.

Consists of subpackages:
  - rangeset: non-overlapping code point interval sets and alphabet partitions;
  - regex: regular expression compiler producing NFA fragments and merged DFAs;
  - grammar: pure data description of a grammar and of the tables built for it;
  - config: per-entry-point options, optionally loaded from TOML;
  - langdef: grammar construction API, quantifier desugaring and validation;
  - automaton: LALR(k) automaton builder;
  - scanner: per-state scanners and whitespace folding;
  - parser: table-driven runtime engine;
  - source: source files, source queue and the input reader used by scanners;
  - cmd/lrxgen: console utility dumping tables or diagnostics for bundled grammars.

Typical usage is:

1. Describe terminals (regular expressions) and rules with semantic actions using langdef.Builder.

2. Build a language for an entry point (start symbol, whitespace terminals, lookahead level).

3. Create a parser for the language; this builds the automaton and per-state scanners.

4. Feed the parser sources; the result of the accepting rule is the parse result.
*/
package lrx

import (
	"fmt"
)

// Error classes used by subpackages, each class contains up to 99 error codes:
const (
	GrammarErrors   = 1   // used by langdef
	AutomatonErrors = 101 // used by automaton and scanner construction
	LexicalErrors   = 201 // used by scanner
	SyntaxErrors    = 301 // used by parser
	ParserErrors    = 401 // used by parser
	RegexErrors     = 501 // used by regex
	ConfigErrors    = 601 // used by config
)

// Error is the error type used by lrx subpackages.
type Error struct {
	// Code contains non-zero error code.
	Code int

	// Message contains non-empty error message including source name and position information if provided.
	Message string

	// SourceName contains source name that caused this error or empty string.
	SourceName string

	// Line contains line number in source file or 0.
	Line int

	// Col contains column number in source file or 0.
	Col int
}

// SourcePos is used to retrieve source name and position information when constructing an error;
// source.Pos and scanner.Token implement this interface.
type SourcePos interface {
	// SourceName returns source file name or empty string.
	SourceName() string
	// Line returns line number or 0.
	Line() int
	// Col returns column number or 0.
	Col() int
}

// NewError creates new Error structure.
// name, line, and col will be added to error message if provided (non-zero).
func NewError(code int, msg, name string, line, col int) *Error {
	if name != "" && line != 0 && col != 0 {
		msg += fmt.Sprintf(" in %s at line %d col %d", name, line, col)
	}
	return &Error{code, msg, name, line, col}
}

// Error simply returns Error.Message.
func (e *Error) Error() string {
	return e.Message
}

// Is reports whether target is an *Error with the same code,
// so errors.Is(e, &lrx.Error{Code: code}) works for wrapped errors.
func (e *Error) Is(target error) bool {
	t, valid := target.(*Error)
	return valid && t.Code == e.Code
}

// Class returns the error class (GrammarErrors, SyntaxErrors, etc.) of the error code.
func (e *Error) Class() int {
	return (e.Code-1)/100*100 + 1
}

// FormatError creates Error structure with no source and position information.
// params will be added to error message using fmt.Sprintf function.
func FormatError(code int, msg string, params ...any) *Error {
	if len(params) > 0 {
		msg = fmt.Sprintf(msg, params...)
	}
	return NewError(code, msg, "", 0, 0)
}

// FormatErrorPos creates Error structure with source and position information.
// pos must not be nil.
// params will be added to error message using fmt.Sprintf function.
func FormatErrorPos(pos SourcePos, code int, msg string, params ...any) *Error {
	if len(params) > 0 {
		msg = fmt.Sprintf(msg, params...)
	}
	return NewError(code, msg, pos.SourceName(), pos.Line(), pos.Col())
}
