package regex

import (
	"sort"

	"github.com/ava12/lrx/rangeset"
)

// nstate is an NFA state with epsilon edges and at most one range-labelled edge.
type nstate struct {
	eps  []int
	set  *rangeset.Set
	next int
	frag int
}

// fragment is a compiled expression inside a merged NFA.
type fragment struct {
	start, accept int
	expr          Expr
}

type nfa struct {
	states []nstate
	frags  []fragment
}

func newNfa() *nfa {
	a := &nfa{}
	a.add(-1)
	return a
}

func (a *nfa) add(frag int) int {
	a.states = append(a.states, nstate{next: -1, frag: frag})
	return len(a.states) - 1
}

func (a *nfa) link(from, to int) {
	a.states[from].eps = append(a.states[from].eps, to)
}

// MaxNfaStates limits the number of NFA states built for a single merge.
const MaxNfaStates = 200000

// addFragment compiles syntax tree into a fragment reachable from the NFA start state.
// Nested repetitions may blow up the NFA, so its size is checked before building.
func (a *nfa) addFragment(root *node, expr Expr) error {
	limit := MaxNfaStates - len(a.states)
	if nfaSize(root, limit) > limit {
		return tooComplexError([]fragment{{expr: expr}})
	}

	frag := len(a.frags)
	start, end := a.build(root, frag)
	a.link(0, start)
	a.frags = append(a.frags, fragment{start, end, expr})
	return nil
}

// nfaSize returns the number of states build adds for a node,
// or some number above limit if that is greater than limit.
func nfaSize(n *node, limit int) int {
	over := limit + 1
	mul := func(count, size int) int {
		if count > 0 && size > over/count {
			return over
		}
		return count * size
	}

	res := 0
	switch n.kind {
	case nodeSet:
		res = 2
	case nodeConcat, nodeAlt:
		if n.kind == nodeAlt {
			res = 2
		}
		for _, sub := range n.subs {
			res += nfaSize(sub, limit)
			if res > limit {
				return over
			}
		}
	case nodeRepeat:
		sub := nfaSize(n.subs[0], limit)
		res = 1 + mul(n.min, sub)
		if n.max < 0 {
			res += 1 + sub
		} else if n.max > n.min {
			res += 1 + mul(n.max-n.min, sub)
		}
	default:
		res = 1
	}
	return min(res, over)
}

func (a *nfa) build(n *node, frag int) (start, end int) {
	switch n.kind {
	case nodeSet:
		start, end = a.add(frag), a.add(frag)
		a.states[start].set = n.set
		a.states[start].next = end

	case nodeConcat:
		start, end = a.build(n.subs[0], frag)
		for _, sub := range n.subs[1:] {
			s, e := a.build(sub, frag)
			a.link(end, s)
			end = e
		}

	case nodeAlt:
		start, end = a.add(frag), a.add(frag)
		for _, sub := range n.subs {
			s, e := a.build(sub, frag)
			a.link(start, s)
			a.link(e, end)
		}

	case nodeRepeat:
		sub := n.subs[0]
		start = a.add(frag)
		end = start
		for i := 0; i < n.min; i++ {
			s, e := a.build(sub, frag)
			a.link(end, s)
			end = e
		}

		if n.max < 0 {
			loop := a.add(frag)
			a.link(end, loop)
			s, e := a.build(sub, frag)
			a.link(loop, s)
			a.link(e, loop)
			end = loop
		} else if n.max > n.min {
			exit := a.add(frag)
			for i := n.min; i < n.max; i++ {
				s, e := a.build(sub, frag)
				a.link(end, s)
				a.link(end, exit)
				end = e
			}
			a.link(end, exit)
			end = exit
		}

	default:
		start = a.add(frag)
		end = start
	}
	return
}

// closure returns sorted epsilon closure of seed states.
func (a *nfa) closure(seeds []int) []int {
	seen := make(map[int]bool, len(seeds)*2)
	stack := append([]int(nil), seeds...)
	for _, s := range seeds {
		seen[s] = true
	}

	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, t := range a.states[s].eps {
			if !seen[t] {
				seen[t] = true
				stack = append(stack, t)
			}
		}
	}

	res := make([]int, 0, len(seen))
	for s := range seen {
		res = append(res, s)
	}
	sort.Ints(res)
	return res
}
