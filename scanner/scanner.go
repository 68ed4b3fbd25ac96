// Package scanner builds state-scoped scanners and runs them over source input.
//
// Every legal terminal set of the parsing tables gets a DFA merged from the terminals of the set
// and from all whitespace terminals. Sets differing only in end of input share the same DFA.
package scanner

import (
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/bits-and-blooms/bitset"
	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"
	"go.uber.org/multierr"

	"github.com/ava12/lrx"
	"github.com/ava12/lrx/automaton"
	"github.com/ava12/lrx/grammar"
	"github.com/ava12/lrx/internal/bmap"
	"github.com/ava12/lrx/regex"
)

func tracer() tracing.Trace {
	return gtrace.CoreTracer
}

// Error codes used by scanner:
const (
	// WrongCharError indicates that no terminal matches at current position.
	// Error message contains the rune at current source position.
	WrongCharError = lrx.LexicalErrors + iota

	// SpliceError indicates that whitespace action produced text for an input that cannot take it.
	SpliceError
)

// WrongChar returns an error for a token of grammar.ErrorId type.
func WrongChar(t *Token) *lrx.Error {
	r, _ := utf8.DecodeRuneInString(t.Text())
	return lrx.FormatErrorPos(t, WrongCharError, "wrong char %q (u+%x)", r, r)
}

// Build fills t.Scanners, one scanner per legal set.
// Terminals accepting the same text with equal priority are reported as automaton.AmbiguousGrammarError.
func Build(t *grammar.Tables) error {
	g := t.Grammar
	memo := bmap.New[*grammar.Scanner](len(t.LegalSets))
	t.Scanners = make([]grammar.Scanner, len(t.LegalSets))
	var errs error

	for i, legal := range t.LegalSets {
		set := bitset.New(uint(g.FirstNonterm))
		for _, id := range legal {
			if id >= grammar.FirstTerminal {
				set.Set(uint(id))
			}
		}
		for _, id := range g.Whitespace {
			set.Set(uint(id))
		}

		key, _ := set.MarshalBinary()
		if sc, found := memo.Get(key); found {
			t.Scanners[i] = *sc
			continue
		}

		sc, e := build(g, set)
		if e != nil {
			errs = multierr.Append(errs, stateError(t, i, e))
			sc = &grammar.Scanner{}
		}
		memo.Set(key, sc)
		t.Scanners[i] = *sc
	}

	tracer().Debugf("%s: %d scanners for %d legal sets", g.Name, memo.Len(), len(t.LegalSets))
	return errs
}

// BuildAll returns a scanner for all terminals of a grammar.
// It fails if some terminals are ambiguous even though they never meet in the same state.
func BuildAll(g *grammar.Grammar) (*grammar.Scanner, error) {
	set := bitset.New(uint(g.FirstNonterm))
	for _, id := range g.Terminals() {
		set.Set(uint(id))
	}
	return build(g, set)
}

func build(g *grammar.Grammar, set *bitset.BitSet) (*grammar.Scanner, error) {
	sc := &grammar.Scanner{}
	var exprs []regex.Expr
	for id, ok := set.NextSet(0); ok; id, ok = set.NextSet(id + 1) {
		s := &g.Symbols[id]
		sc.Terms = append(sc.Terms, int(id))
		exprs = append(exprs, regex.Expr{
			Name:     s.Title(),
			Source:   s.Re,
			Token:    int(id),
			Priority: s.Priority,
			Flags:    s.RegexFlags(),
		})
	}

	dfa, e := regex.Merge(exprs)
	if e != nil {
		return nil, e
	}
	sc.DFA = *dfa
	return sc, nil
}

// stateError adds the states using a legal set to an expression merge error.
func stateError(t *grammar.Tables, legal int, e error) error {
	var re *lrx.Error
	if !errors.As(e, &re) || re.Code != regex.AmbiguityError {
		return e
	}

	var states []string
	for i, s := range t.States {
		if s.Legal == legal {
			states = append(states, strconv.Itoa(i))
		}
	}
	for i, s := range t.LaStates {
		if s.Legal == legal {
			states = append(states, "la"+strconv.Itoa(i))
		}
	}
	return lrx.FormatError(automaton.AmbiguousGrammarError, "%s in states %s expecting %s",
		re.Message, strings.Join(states, ", "), expectedText(t, legal))
}

func expectedText(t *grammar.Tables, legal int) string {
	for i, s := range t.States {
		if s.Legal == legal {
			return t.Expected(i)
		}
	}
	for i, s := range t.LaStates {
		if s.Legal == legal {
			return t.LaExpected(i)
		}
	}
	return "nothing"
}
