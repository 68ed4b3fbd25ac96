package automaton

import (
	"sort"
	"strconv"
	"strings"

	"github.com/bits-and-blooms/bitset"

	"github.com/ava12/lrx/internal/queue"
)

// lrState is an LR(0) state under construction.
// Items are numbered globally: itemBase[rule] + dot.
type lrState struct {
	kernel  []int
	items   []int
	trans   map[int]int
	symbols []int
	access  int
	parent  int
	preds   []int

	// lookaheads of kernel items, bit hashBit marks propagation
	la []*bitset.BitSet
	// rules reducible on a terminal
	reduces map[int][]int
	accepts bool
}

func (b *builder) initItems() {
	b.itemBase = make([]int, len(b.g.Rules))
	n := 0
	for i, r := range b.g.Rules {
		b.itemBase[i] = n
		n += len(r.Rhs) + 1
	}
	b.itemRule = make([]int, n)
	b.itemDot = make([]int, n)
	for i, r := range b.g.Rules {
		for d := 0; d <= len(r.Rhs); d++ {
			b.itemRule[b.itemBase[i]+d] = i
			b.itemDot[b.itemBase[i]+d] = d
		}
	}
}

// nextSymbol returns the symbol after the dot or -1 for complete items.
func (b *builder) nextSymbol(item int) int {
	rhs := b.g.Rules[b.itemRule[item]].Rhs
	dot := b.itemDot[item]
	if dot < len(rhs) {
		return rhs[dot]
	}
	return -1
}

func (b *builder) isComplete(item int) bool {
	return b.nextSymbol(item) < 0
}

func kernelKey(kernel []int) string {
	sb := strings.Builder{}
	for _, it := range kernel {
		sb.WriteString(strconv.Itoa(it))
		sb.WriteByte(',')
	}
	return sb.String()
}

func (b *builder) closure0(kernel []int) []int {
	added := make(map[int]bool)
	items := append([]int(nil), kernel...)
	for i := 0; i < len(items); i++ {
		sym := b.nextSymbol(items[i])
		if sym < 0 || b.g.IsTerminal(sym) || added[sym] {
			continue
		}

		added[sym] = true
		for _, r := range b.g.Symbols[sym].Rules {
			items = append(items, b.itemBase[r])
		}
	}
	sort.Ints(items[len(kernel):])
	return items
}

func (b *builder) addState(kernel []int, parent, access int) (int, bool) {
	key := kernelKey(kernel)
	if id, found := b.index[key]; found {
		return id, false
	}

	id := len(b.states)
	b.index[key] = id
	b.states = append(b.states, &lrState{
		kernel: kernel,
		trans:  make(map[int]int),
		access: access,
		parent: parent,
	})
	return id, true
}

func (b *builder) buildLr0() error {
	b.index = make(map[string]int)
	b.addState([]int{b.itemBase[b.g.AcceptRule]}, -1, -1)
	q := queue.New(0)

	for !q.IsEmpty() {
		id, _ := q.First()
		st := b.states[id]
		st.items = b.closure0(st.kernel)

		next := make(map[int][]int)
		for _, it := range st.items {
			if sym := b.nextSymbol(it); sym >= 0 {
				next[sym] = append(next[sym], it+1)
			}
		}
		for sym := range next {
			st.symbols = append(st.symbols, sym)
		}
		sort.Ints(st.symbols)

		for _, sym := range st.symbols {
			kernel := next[sym]
			sort.Ints(kernel)
			target, added := b.addState(kernel, id, sym)
			if added {
				if len(b.states) > MaxStates {
					return tooManyStatesError(MaxStates)
				}
				q.Append(target)
			}
			st.trans[sym] = target
			b.states[target].preds = appendUnique(b.states[target].preds, id)
		}
	}

	tracer().Debugf("%s: %d LR(0) states", b.g.Name, len(b.states))
	return nil
}

func appendUnique(list []int, x int) []int {
	for _, y := range list {
		if y == x {
			return list
		}
	}
	return append(list, x)
}

// path returns the symbols leading from the initial state to a state.
func (b *builder) path(state int) []int {
	var res []int
	for st := b.states[state]; st.parent >= 0; st = b.states[st.parent] {
		res = append(res, st.access)
	}
	for i, j := 0, len(res)-1; i < j; i, j = i+1, j-1 {
		res[i], res[j] = res[j], res[i]
	}
	return res
}

// ancestors returns states having a path of given length to a state.
func (b *builder) ancestors(state, depth int) []int {
	current := []int{state}
	for ; depth > 0; depth-- {
		seen := make(map[int]bool)
		var next []int
		for _, s := range current {
			for _, p := range b.states[s].preds {
				if !seen[p] {
					seen[p] = true
					next = append(next, p)
				}
			}
		}
		current = next
	}
	sort.Ints(current)
	return current
}

// computeFirst fills nullable flags and FIRST sets over terminal ids.
func (b *builder) computeFirst() {
	g := b.g
	n := uint(len(g.Symbols))
	b.nullable = bitset.New(n)
	b.first = make([]*bitset.BitSet, len(g.Symbols))
	for i := range g.Symbols {
		b.first[i] = bitset.New(uint(b.hashBit + 1))
		if g.IsTerminal(i) {
			b.first[i].Set(uint(i))
		}
	}

	for changed := true; changed; {
		changed = false
		for _, r := range g.Rules {
			lhs := b.first[r.Lhs]
			count := lhs.Count()
			nullable := true
			for _, s := range r.Rhs {
				lhs.InPlaceUnion(b.first[s])
				if !b.nullable.Test(uint(s)) {
					nullable = false
					break
				}
			}
			if nullable && !b.nullable.Test(uint(r.Lhs)) {
				b.nullable.Set(uint(r.Lhs))
				changed = true
			}
			if lhs.Count() != count {
				changed = true
			}
		}
	}
}

// firstAfter returns FIRST of the symbols following the one after the dot
// and tells whether they all derive the empty string.
func (b *builder) firstAfter(item int) (*bitset.BitSet, bool) {
	rhs := b.g.Rules[b.itemRule[item]].Rhs
	res := bitset.New(uint(b.hashBit + 1))
	for _, s := range rhs[b.itemDot[item]+1:] {
		res.InPlaceUnion(b.first[s])
		if !b.nullable.Test(uint(s)) {
			return res, false
		}
	}
	return res, true
}

// symbolsString formats a symbol sequence for messages.
func (b *builder) symbolsString(symbols []int) string {
	if len(symbols) == 0 {
		return "at start"
	}
	names := make([]string, len(symbols))
	for i, s := range symbols {
		names[i] = b.g.Symbols[s].Title()
	}
	return "after " + strings.Join(names, " ")
}

func (b *builder) itemsString(items []int) string {
	res := make([]string, len(items))
	for i, it := range items {
		res[i] = b.g.ItemString(b.itemRule[it], b.itemDot[it])
	}
	return strings.Join(res, "; ")
}
