package regex

import (
	"encoding/binary"
	"sort"
	"strings"

	"github.com/ava12/lrx/internal/queue"
	"github.com/ava12/lrx/rangeset"
)

// MaxStates limits the number of DFA states built for a single merge.
const MaxStates = 20000

// Trans is a DFA transition on code points [From, To), negative ranges are assertions.
type Trans struct {
	From int `json:"from"`
	To   int `json:"to"`
	Next int `json:"next"`
}

// State is a DFA state, Accept is the winning token or -1.
// Transitions are sorted by From, assertion transitions come first.
type State struct {
	Trans  []Trans `json:"trans"`
	Accept int     `json:"accept"`
}

// DFA starts in state 0.
type DFA struct {
	States []State
}

// Next returns the state reached on code point c or -1.
func (d *DFA) Next(state, c int) int {
	ts := d.States[state].Trans
	i := sort.Search(len(ts), func(i int) bool {
		return ts[i].To > c
	})
	if i < len(ts) && ts[i].From <= c {
		return ts[i].Next
	}
	return -1
}

// Settle follows assertion transitions holding between prev and next code points.
func (d *DFA) Settle(state, prev, next int) int {
	for changed := true; changed; {
		changed = false
		for _, t := range d.States[state].Trans {
			if t.From >= 0 {
				break
			}
			if t.Next != state && rangeset.Holds(t.From, prev, next) {
				state = t.Next
				changed = true
				break
			}
		}
	}
	return state
}

// Match returns accepted token if the whole text is matched.
func (d *DFA) Match(text string) (token int, matched bool) {
	token, size := d.Longest(text)
	if size == len(text) && token >= 0 {
		return token, true
	}
	return -1, false
}

// Longest returns the token accepted for the longest matched prefix of text
// and the prefix size in bytes, token is -1 if nothing matches.
func (d *DFA) Longest(text string) (token, size int) {
	token = -1
	state := 0
	prev := -1
	for i, c := range text {
		state = d.Settle(state, prev, int(c))
		if d.States[state].Accept >= 0 {
			token, size = d.States[state].Accept, i
		}
		state = d.Next(state, int(c))
		if state < 0 {
			return
		}
		prev = int(c)
	}

	state = d.Settle(state, prev, -1)
	if d.States[state].Accept >= 0 {
		token, size = d.States[state].Accept, len(text)
	}
	return
}

type parentLink struct {
	state, c int
}

type determinizer struct {
	a       *nfa
	dfa     *DFA
	sets    [][]int
	index   map[string]int
	parents []parentLink
	queue   *queue.Queue[int]
	buf     []byte
}

func determinize(a *nfa) (*DFA, error) {
	d := &determinizer{
		a:     a,
		dfa:   &DFA{},
		index: make(map[string]int),
		queue: queue.New[int](),
	}
	d.intern(a.closure([]int{0}), parentLink{-1, -1})

	p := &rangeset.Partition{}
	for !d.queue.IsEmpty() {
		id, _ := d.queue.First()
		set := d.sets[id]
		accept, immediate, excluded, e := d.resolve(id)
		if e != nil {
			return nil, e
		}

		d.dfa.States[id].Accept = accept
		if immediate {
			continue
		}

		p.Reset()
		for _, s := range set {
			st := d.a.states[s]
			if st.set != nil && !excluded[st.frag] {
				p.AddSet(st.set, st.next)
			}
		}
		p.MergeAdjacent()

		var trans []Trans
		for _, piece := range p.Pieces() {
			var target []int
			if piece.IsPseudo() {
				target = d.a.closure(append(append([]int(nil), set...), piece.Ids...))
				if len(target) == len(set) {
					continue
				}
			} else {
				target = d.a.closure(piece.Ids)
			}

			next := d.intern(target, parentLink{id, piece.From})
			if len(d.sets) > MaxStates {
				return nil, tooComplexError(d.a.frags)
			}
			if n := len(trans); n > 0 && trans[n-1].Next == next && trans[n-1].To == piece.From {
				trans[n-1].To = piece.To
			} else {
				trans = append(trans, Trans{piece.From, piece.To, next})
			}
		}
		d.dfa.States[id].Trans = trans
	}

	return d.dfa, nil
}

func (d *determinizer) intern(set []int, parent parentLink) int {
	d.buf = d.buf[:0]
	for _, s := range set {
		d.buf = binary.AppendUvarint(d.buf, uint64(s))
	}
	id, found := d.index[string(d.buf)]
	if found {
		return id
	}

	id = len(d.sets)
	d.index[string(d.buf)] = id
	d.sets = append(d.sets, set)
	d.parents = append(d.parents, parent)
	d.dfa.States = append(d.dfa.States, State{Accept: -1})
	d.queue.Append(id)
	return id
}

// resolve selects the token accepted in a DFA state.
// Fragments accepted here and marked as fixed-enders do not continue.
func (d *determinizer) resolve(id int) (accept int, immediate bool, excluded map[int]bool, e error) {
	accept = -1
	var winners []int
	for _, s := range d.sets[id] {
		frag := d.a.states[s].frag
		if frag < 0 || d.a.frags[frag].accept != s {
			continue
		}

		f := d.a.frags[frag]
		if f.expr.Flags&FixedEnder != 0 {
			if excluded == nil {
				excluded = make(map[int]bool)
			}
			excluded[frag] = true
		}

		if len(winners) == 0 || f.expr.Priority > d.a.frags[winners[0]].expr.Priority {
			winners = append(winners[:0], frag)
		} else if f.expr.Priority == d.a.frags[winners[0]].expr.Priority && f.expr.Token != d.a.frags[winners[0]].expr.Token {
			winners = append(winners, frag)
		}
	}

	if len(winners) == 0 {
		return
	}
	if len(winners) > 1 {
		exprs := make([]Expr, len(winners))
		for i, w := range winners {
			exprs[i] = d.a.frags[w].expr
		}
		return -1, false, nil, ambiguityError(exprs, d.sample(id))
	}

	f := d.a.frags[winners[0]]
	return f.expr.Token, f.expr.Flags&Immediate != 0, excluded, nil
}

// sample returns the shortest text leading to DFA state id.
func (d *determinizer) sample(id int) string {
	var cs []rune
	for p := d.parents[id]; p.state >= 0; p = d.parents[p.state] {
		if p.c >= 0 {
			cs = append(cs, rune(p.c))
		}
	}

	sb := strings.Builder{}
	for i := len(cs) - 1; i >= 0; i-- {
		sb.WriteRune(cs[i])
	}
	return sb.String()
}
