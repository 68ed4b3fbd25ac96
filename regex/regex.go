// Package regex compiles regular expressions into NFA fragments and merges
// several fragments into a single DFA whose states accept prioritized tokens.
//
// Supported syntax: alternation, concatenation, grouping with ( ) and (?: ),
// repetitions * + ? {m} {m,} {m,n}, character classes with negation,
// shorthand classes \d \w \s \D \W \S, Unicode properties \p{Name} \P{Name},
// escapes \n \t \r \f \v \a \0 \xHH \x{H...} \uHHHH, assertions ^ $ \b \B.
// A leading (?i) makes the expression case insensitive.
package regex

import (
	"fmt"
	"strings"

	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"

	"github.com/ava12/lrx"
)

func tracer() tracing.Trace {
	return gtrace.CoreTracer
}

// Error codes used by regex package:
const (
	// "invalid regular expression %q at %d: %s"
	SyntaxError = lrx.RegexErrors + iota
	// "%s accept the same text %q with equal priority"
	AmbiguityError
	// "expression %s accepts empty text"
	EmptyMatchError
	// "fixed-ender expression %s must end with a literal"
	FixedEnderError
	// "expressions %s are too complex"
	TooComplexError
)

func syntaxError(src string, pos int, msg string, params ...any) *lrx.Error {
	return lrx.FormatError(SyntaxError, "invalid regular expression %q at %d: %s", src, pos, fmt.Sprintf(msg, params...))
}

func exprNames(exprs []Expr) string {
	names := make([]string, len(exprs))
	for i, x := range exprs {
		names[i] = x.title()
	}
	return strings.Join(names, ", ")
}

func ambiguityError(exprs []Expr, sample string) *lrx.Error {
	return lrx.FormatError(AmbiguityError, "%s accept the same text %q with equal priority", exprNames(exprs), sample)
}

func tooComplexError(frags []fragment) *lrx.Error {
	exprs := make([]Expr, len(frags))
	for i, f := range frags {
		exprs[i] = f.expr
	}
	return lrx.FormatError(TooComplexError, "expressions %s are too complex", exprNames(exprs))
}

// Flags modify expression compilation and matching.
type Flags uint8

const (
	// Caseless makes expression case insensitive using simple case folding.
	Caseless Flags = 1 << iota
	// FixedEnder stops the expression at the first occurrence of its trailing literal.
	FixedEnder
	// Immediate stops scanning as soon as the expression wins.
	Immediate
)

// Expr is an expression to merge. Token is reported by accepting DFA states.
// When several expressions accept the same text the one with the highest priority wins.
type Expr struct {
	Name     string
	Source   string
	Token    int
	Priority int
	Flags    Flags
}

func (x Expr) title() string {
	if x.Name != "" {
		return x.Name
	}
	return "/" + x.Source + "/"
}

// Info describes the language of an expression, lengths are counted in code points.
type Info struct {
	MinLen int
	// MaxLen is -1 if unbounded.
	MaxLen       int
	AcceptsEmpty bool
}

// Regex is a parsed expression.
type Regex struct {
	Source string
	Flags  Flags
	root   *node
}

func Parse(src string, flags Flags) (*Regex, error) {
	root, e := parse(src, flags&Caseless != 0)
	if e != nil {
		return nil, e
	}

	res := &Regex{src, flags, root}
	if flags&FixedEnder != 0 && !endsWithLiteral(root) {
		return nil, lrx.FormatError(FixedEnderError, "fixed-ender expression /%s/ must end with a literal", src)
	}
	return res, nil
}

func endsWithLiteral(n *node) bool {
	for n.kind == nodeConcat {
		n = n.subs[len(n.subs)-1]
	}
	return n.kind == nodeSet && !n.set.HasPseudo()
}

// Analyze parses expression and returns its length info.
func Analyze(src string, flags Flags) (Info, error) {
	r, e := Parse(src, flags)
	if e != nil {
		return Info{}, e
	}
	return r.Info(), nil
}

func (r *Regex) Info() Info {
	lo, hi := lengths(r.root)
	return Info{lo, hi, lo == 0}
}

func lengths(n *node) (lo, hi int) {
	switch n.kind {
	case nodeSet:
		if n.set.HasPseudo() {
			return 0, 0
		}
		return 1, 1

	case nodeConcat:
		for _, sub := range n.subs {
			l, h := lengths(sub)
			lo += l
			if hi >= 0 {
				if h < 0 {
					hi = -1
				} else {
					hi += h
				}
			}
		}

	case nodeAlt:
		lo = -1
		for _, sub := range n.subs {
			l, h := lengths(sub)
			if lo < 0 || l < lo {
				lo = l
			}
			if hi >= 0 && (h < 0 || h > hi) {
				hi = h
			}
		}

	case nodeRepeat:
		l, h := lengths(n.subs[0])
		lo = l * n.min
		switch {
		case n.max == 0 || h == 0:
			hi = 0
		case n.max < 0 || h < 0:
			hi = -1
		default:
			hi = h * n.max
		}
	}
	return
}

// Compile builds a DFA for a single expression accepting token 0.
// Expressions accepting empty text are allowed here.
func Compile(src string, flags Flags) (*DFA, error) {
	r, e := Parse(src, flags)
	if e != nil {
		return nil, e
	}

	a := newNfa()
	if e := a.addFragment(r.root, Expr{Source: src, Flags: flags}); e != nil {
		return nil, e
	}
	return determinize(a)
}

// Merge builds a single DFA accepting tokens of all expressions.
// Expressions accepting empty text are rejected.
// Equal-priority expressions accepting a common text are an AmbiguityError.
func Merge(exprs []Expr) (*DFA, error) {
	a := newNfa()
	for _, x := range exprs {
		r, e := Parse(x.Source, x.Flags)
		if e != nil {
			return nil, e
		}
		if r.Info().AcceptsEmpty {
			return nil, lrx.FormatError(EmptyMatchError, "expression %s accepts empty text", x.title())
		}
		if e := a.addFragment(r.root, x); e != nil {
			return nil, e
		}
	}

	dfa, e := determinize(a)
	if e == nil {
		tracer().Debugf("regex merge of %d expressions: %d NFA states, %d DFA states", len(exprs), len(a.states), len(dfa.States))
	}
	return dfa, e
}
