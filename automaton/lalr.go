package automaton

import (
	"sort"

	"github.com/bits-and-blooms/bitset"

	"github.com/ava12/lrx/internal/queue"
)

// closure1 computes LR(1) closure of seed items, lookahead sets are merged per item.
func (b *builder) closure1(seeds []int, las []*bitset.BitSet) ([]int, []*bitset.BitSet) {
	items := append([]int(nil), seeds...)
	sets := make([]*bitset.BitSet, len(las))
	pos := make(map[int]int, len(seeds))
	q := queue.New[int]()
	for i, la := range las {
		sets[i] = la.Clone()
		pos[seeds[i]] = i
		q.Append(i)
	}

	for !q.IsEmpty() {
		i, _ := q.First()
		sym := b.nextSymbol(items[i])
		if sym < 0 || b.g.IsTerminal(sym) {
			continue
		}

		la, nullable := b.firstAfter(items[i])
		if nullable {
			la.InPlaceUnion(sets[i])
		}
		for _, r := range b.g.Symbols[sym].Rules {
			it := b.itemBase[r]
			j, found := pos[it]
			if !found {
				pos[it] = len(items)
				items = append(items, it)
				sets = append(sets, la.Clone())
				q.Append(len(items) - 1)
			} else if !sets[j].IsSuperSet(la) {
				sets[j].InPlaceUnion(la)
				q.Append(j)
			}
		}
	}

	return items, sets
}

type laLink struct {
	state, item int
}

// computeLookaheads determines LALR(1) lookaheads of kernel items
// by spontaneous generation and propagation.
func (b *builder) computeLookaheads() {
	size := uint(b.hashBit + 1)
	for _, st := range b.states {
		st.la = make([]*bitset.BitSet, len(st.kernel))
		for i := range st.la {
			st.la[i] = bitset.New(size)
		}
	}
	b.states[0].la[0].Set(uint(b.g.End))

	links := make(map[laLink][]laLink)
	hash := bitset.New(size).Set(uint(b.hashBit))
	for s, st := range b.states {
		for k, kit := range st.kernel {
			items, sets := b.closure1([]int{kit}, []*bitset.BitSet{hash})
			for i, it := range items {
				sym := b.nextSymbol(it)
				if sym < 0 {
					continue
				}

				target := st.trans[sym]
				tk := indexOf(b.states[target].kernel, it+1)
				la := sets[i]
				if la.Test(uint(b.hashBit)) {
					links[laLink{s, k}] = append(links[laLink{s, k}], laLink{target, tk})
					la = la.Clone().Clear(uint(b.hashBit))
				}
				b.states[target].la[tk].InPlaceUnion(la)
			}
		}
	}

	sources := make([]laLink, 0, len(links))
	for from := range links {
		sources = append(sources, from)
	}
	sort.Slice(sources, func(i, j int) bool {
		if sources[i].state != sources[j].state {
			return sources[i].state < sources[j].state
		}
		return sources[i].item < sources[j].item
	})

	for changed := true; changed; {
		changed = false
		for _, from := range sources {
			la := b.states[from.state].la[from.item]
			for _, to := range links[from] {
				dst := b.states[to.state].la[to.item]
				if !dst.IsSuperSet(la) {
					dst.InPlaceUnion(la)
					changed = true
				}
			}
		}
	}
}

// computeReduces fills reducible rules per terminal using the final kernel lookaheads.
func (b *builder) computeReduces() {
	for _, st := range b.states {
		st.reduces = make(map[int][]int)
		items, sets := b.closure1(st.kernel, st.la)
		for i, it := range items {
			if !b.isComplete(it) {
				continue
			}

			rule := b.itemRule[it]
			for t, ok := sets[i].NextSet(0); ok; t, ok = sets[i].NextSet(t + 1) {
				if rule == b.g.AcceptRule {
					if int(t) == b.g.End {
						st.accepts = true
					}
					continue
				}
				st.reduces[int(t)] = appendUnique(st.reduces[int(t)], rule)
			}
		}
		for _, rules := range st.reduces {
			sort.Ints(rules)
		}
	}
}

func indexOf(list []int, x int) int {
	for i, y := range list {
		if y == x {
			return i
		}
	}
	return -1
}
