// Package automaton builds LALR(1) parsing tables from a grammar model
// and resolves remaining conflicts with bounded multi-token lookahead.
//
// Conflicts are resolved by lookahead states: the parser buffers tokens and consults
// a tree of LaStates until a single action stays viable for the buffered sequence.
// The depth of the tree is limited by the lookahead level given to Build.
package automaton

import (
	"encoding/binary"
	"sort"

	"github.com/bits-and-blooms/bitset"
	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"
	"go.uber.org/multierr"

	"github.com/ava12/lrx/grammar"
	"github.com/ava12/lrx/internal/bmap"
)

func tracer() tracing.Trace {
	return gtrace.CoreTracer
}

// MaxStates limits the number of LR states.
const MaxStates = 50000

type action struct {
	op  grammar.Op
	arg int
}

func (a action) move() grammar.Move {
	return grammar.Move{Op: a.op, Arg: a.arg}
}

func (b *builder) actionString(a action) string {
	switch a.op {
	case grammar.Shift:
		return "shift"
	case grammar.Accept:
		return "accept"
	default:
		return "reduce " + b.g.RuleString(a.arg)
	}
}

type builder struct {
	g   *grammar.Grammar
	lrk int

	itemBase []int
	itemRule []int
	itemDot  []int
	hashBit  int
	nullable *bitset.BitSet
	first    []*bitset.BitSet

	states    []*lrState
	index     map[string]int
	scanTerms []int

	tables   *grammar.Tables
	legal    *bmap.Index[[]int]
	maxDepth int
	errs     error
}

func (b *builder) fail(e error) {
	b.errs = multierr.Append(b.errs, e)
}

// Build creates parsing tables for a grammar.
// lrkLevel is the maximum number of tokens examined to take a decision, values below 1 mean 1.
// All conflicts are reported together.
// Scanners are left empty, they are filled by the scanner package.
func Build(g *grammar.Grammar, lrkLevel int) (*grammar.Tables, error) {
	if lrkLevel < 1 {
		lrkLevel = 1
	}
	b := &builder{
		g:       g,
		lrk:     lrkLevel,
		hashBit: g.FirstNonterm,
		tables:  &grammar.Tables{Grammar: g, LrkLevel: lrkLevel},
		legal:   bmap.New[[]int](16),
	}

	b.initItems()
	b.computeFirst()
	if e := b.buildLr0(); e != nil {
		return nil, e
	}
	b.computeLookaheads()
	b.computeReduces()
	b.collectScanTerms()
	b.buildStates()
	if b.errs != nil {
		return nil, b.errs
	}

	b.collapse()
	b.tables.LegalSets = b.legal.Values()
	tracer().Debugf("%s: %d states, %d lookahead states, %d legal sets, lookahead depth %d",
		g.Name, len(b.tables.States), len(b.tables.LaStates), len(b.tables.LegalSets), max(b.maxDepth, 1))
	return b.tables, nil
}

func (b *builder) collectScanTerms() {
	if b.g.End == grammar.EofId {
		b.scanTerms = append(b.scanTerms, grammar.EofId)
	}
	for _, t := range b.g.Terminals() {
		if !b.g.IsWhitespace(t) {
			b.scanTerms = append(b.scanTerms, t)
		}
	}
}

// intern returns an index of the legal terminal set.
func (b *builder) intern(terms []int) int {
	key := make([]byte, 0, len(terms)*2)
	for _, t := range terms {
		key = binary.AppendUvarint(key, uint64(t))
	}
	id, _ := b.legal.Intern(key, func(int) []int {
		return append([]int(nil), terms...)
	})
	return id
}

// actions lists every action possible in a state on a terminal: shift first, then reductions, then accept.
func (b *builder) actions(st *lrState, term int) []action {
	var res []action
	if next, found := st.trans[term]; found {
		res = append(res, action{grammar.Shift, next})
	}
	for _, r := range st.reduces[term] {
		res = append(res, action{grammar.Reduce, r})
	}
	if st.accepts && term == b.g.End {
		res = append(res, action{op: grammar.Accept})
	}
	return res
}

func (b *builder) buildStates() {
	b.tables.States = make([]grammar.State, len(b.states))
	for s, st := range b.states {
		ts := &b.tables.States[s]
		ts.DefaultReduce = grammar.NoRule
		ts.Kernel = make([]grammar.Item, len(st.kernel))
		for i, it := range st.kernel {
			ts.Kernel[i] = grammar.Item{Rule: b.itemRule[it], Dot: b.itemDot[it]}
		}

		var legal []int
		for _, term := range b.scanTerms {
			acts := b.actions(st, term)
			var m grammar.Move
			switch {
			case len(acts) == 0:
				continue
			case len(acts) == 1:
				m = acts[0].move()
			case b.lrk <= 1:
				b.fail(conflictError(1, b.conflictContext(s, []int{term}, acts)))
				continue
			default:
				m = b.resolveConflict(s, term, acts)
				tracer().Infof("%s: conflict in state %d on %s resolved with lookahead", b.g.Name, s, b.g.Symbols[term].Title())
			}

			legal = append(legal, term)
			e := grammar.Entry{Symbol: term, Move: m}
			if m.Op == grammar.Reduce {
				ts.Reduces = append(ts.Reduces, e)
			} else {
				ts.Shifts = append(ts.Shifts, e)
			}
		}

		for _, sym := range st.symbols {
			if !b.g.IsTerminal(sym) {
				ts.Gotos = append(ts.Gotos, grammar.Entry{Symbol: sym, Move: grammar.Move{Op: grammar.Goto, Arg: st.trans[sym]}})
			}
		}
		ts.Legal = b.intern(legal)
		ts.DefaultReduce = defaultReduce(ts)
	}
}

// defaultReduce returns the rule reduced on every legal token of a state having no other moves.
func defaultReduce(ts *grammar.State) int {
	if len(ts.Shifts) > 0 || len(ts.Reduces) == 0 {
		return grammar.NoRule
	}
	rule := ts.Reduces[0].Move.Arg
	for _, e := range ts.Reduces[1:] {
		if e.Move.Arg != rule {
			return grammar.NoRule
		}
	}
	return rule
}

// reduceOnly returns the rule of a state whose only item is a complete one, or NoRule.
func (b *builder) reduceOnly(state int) int {
	st := b.states[state]
	if len(st.items) != 1 || !b.isComplete(st.items[0]) {
		return grammar.NoRule
	}
	rule := b.itemRule[st.items[0]]
	if rule == b.g.AcceptRule {
		return grammar.NoRule
	}
	return rule
}

// collapse replaces transitions into reduce-only states with combined moves.
func (b *builder) collapse() {
	fold := func(entries []grammar.Entry, from, to grammar.Op) int {
		n := 0
		for i := range entries {
			m := &entries[i].Move
			if m.Op != from {
				continue
			}
			if rule := b.reduceOnly(m.Arg); rule != grammar.NoRule {
				m.Op, m.Arg = to, rule
				n++
			}
		}
		return n
	}

	n := 0
	for i := range b.tables.States {
		ts := &b.tables.States[i]
		n += fold(ts.Shifts, grammar.Shift, grammar.ShiftReduce)
		n += fold(ts.Gotos, grammar.Goto, grammar.GotoReduce)
	}
	for i := range b.tables.LaStates {
		n += fold(b.tables.LaStates[i].Entries, grammar.Shift, grammar.ShiftReduce)
	}
	tracer().Debugf("%s: %d moves collapsed", b.g.Name, n)
}

// Reachable returns ids of states that can be entered at run time after collapsing.
func Reachable(t *grammar.Tables) []int {
	las := make(map[int][]int)
	for i, la := range t.LaStates {
		las[la.Origin] = append(las[la.Origin], i)
	}

	seen := make([]bool, len(t.States))
	seen[0] = true
	res := []int{0}
	visit := func(entries []grammar.Entry) {
		for _, e := range entries {
			if (e.Move.Op == grammar.Shift || e.Move.Op == grammar.Goto) && !seen[e.Move.Arg] {
				seen[e.Move.Arg] = true
				res = append(res, e.Move.Arg)
			}
		}
	}

	for i := 0; i < len(res); i++ {
		ts := &t.States[res[i]]
		visit(ts.Shifts)
		visit(ts.Gotos)
		for _, la := range las[res[i]] {
			visit(t.LaStates[la].Entries)
		}
	}
	sort.Ints(res)
	return res
}
