package grammar

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ava12/lrx/regex"
)

// Op is an automaton move operation.
type Op uint8

const (
	// Shift pushes Arg state and consumes the token.
	Shift Op = iota + 1
	// Reduce reduces rule Arg.
	Reduce
	// ShiftReduce consumes the token and immediately reduces rule Arg.
	ShiftReduce
	// Goto pushes Arg state after a reduction.
	Goto
	// GotoReduce immediately reduces rule Arg after a reduction.
	GotoReduce
	// LookAhead defers the decision to lookahead state Arg.
	LookAhead
	// Accept finishes the parse.
	Accept
)

var opNames = [...]string{"", "shift", "reduce", "shift-reduce", "goto", "goto-reduce", "lookahead", "accept"}

func (op Op) String() string {
	if int(op) < len(opNames) && op != 0 {
		return opNames[op]
	}
	return "op(" + strconv.Itoa(int(op)) + ")"
}

func (op Op) MarshalText() ([]byte, error) {
	return []byte(op.String()), nil
}

func (op *Op) UnmarshalText(text []byte) error {
	for i, n := range opNames {
		if i > 0 && n == string(text) {
			*op = Op(i)
			return nil
		}
	}
	return fmt.Errorf("unknown move %q", text)
}

type Move struct {
	Op  Op
	Arg int
}

func (m Move) String() string {
	if m.Op == Accept {
		return m.Op.String()
	}
	return m.Op.String() + " " + strconv.Itoa(m.Arg)
}

// Entry binds a move to a symbol. Entry lists are sorted by Symbol.
type Entry struct {
	Symbol int
	Move   Move
}

// Item is a rule with a dot position.
type Item struct {
	Rule, Dot int
}

// NoRule marks states having no default reduction.
const NoRule = -1

// State is an LR state.
// Shifts hold token moves other than plain reductions: Shift, ShiftReduce, LookAhead and Accept.
type State struct {
	Kernel  []Item
	Shifts  []Entry `json:",omitempty"`
	Reduces []Entry `json:",omitempty"`
	Gotos   []Entry `json:",omitempty"`
	// DefaultReduce is reduced without looking at the next token.
	DefaultReduce int
	// Legal is an index in LegalSets and Scanners.
	Legal int
}

// LaState defers a decision taken in Origin state.
// Depth tokens are buffered when the state is consulted, entries are keyed by the last one.
// An entry either leads to a deeper LaState or holds the move to apply to the first buffered token.
type LaState struct {
	Origin  int
	Depth   int
	Entries []Entry
	Legal   int
}

// Scanner is a merged DFA accepting terminal ids of a legal set together with whitespace.
type Scanner struct {
	Terms []int
	regex.DFA
}

type Tables struct {
	Grammar   *Grammar
	States    []State
	LaStates  []LaState `json:",omitempty"`
	LegalSets [][]int
	Scanners  []Scanner
	LrkLevel  int
}

func lookup(entries []Entry, symbol int) (Move, bool) {
	i := sort.Search(len(entries), func(i int) bool {
		return entries[i].Symbol >= symbol
	})
	if i < len(entries) && entries[i].Symbol == symbol {
		return entries[i].Move, true
	}
	return Move{}, false
}

// Move returns the move for a terminal in an LR state.
func (t *Tables) Move(state, term int) (Move, bool) {
	st := &t.States[state]
	m, found := lookup(st.Shifts, term)
	if !found {
		m, found = lookup(st.Reduces, term)
	}
	return m, found
}

// Goto returns the move for a nonterminal after reduction.
func (t *Tables) Goto(state, nonterm int) (Move, bool) {
	return lookup(t.States[state].Gotos, nonterm)
}

// LaMove returns the move for a terminal in a lookahead state.
func (t *Tables) LaMove(la, term int) (Move, bool) {
	return lookup(t.LaStates[la].Entries, term)
}

// Expected returns a human-readable list of terminals legal in an LR state.
func (t *Tables) Expected(state int) string {
	return t.expected(t.States[state].Legal)
}

// LaExpected returns a human-readable list of terminals legal in a lookahead state.
func (t *Tables) LaExpected(la int) string {
	return t.expected(t.LaStates[la].Legal)
}

func (t *Tables) expected(legal int) string {
	terms := t.LegalSets[legal]
	names := make([]string, len(terms))
	for i, id := range terms {
		names[i] = t.Grammar.Symbols[id].Title()
	}

	switch len(names) {
	case 0:
		return "nothing"
	case 1:
		return names[0]
	default:
		return strings.Join(names[:len(names)-1], ", ") + " or " + names[len(names)-1]
	}
}

// SortEntries orders entry list by symbol.
func SortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Symbol < entries[j].Symbol
	})
}
