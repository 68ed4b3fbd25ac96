package automaton

import (
	"sort"
	"strconv"
	"strings"

	"github.com/ava12/lrx/grammar"
	"github.com/ava12/lrx/internal/queue"
)

// MaxStackSuffix limits the simulated stack, deeper entries are forgotten
// and recovered through state predecessors when needed.
const MaxStackSuffix = 32

// laConfig is a suffix of a parser stack, the bottom state is known but the states below it are not.
type laConfig struct {
	stack    []int
	accepted bool
}

func (c laConfig) key() string {
	if c.accepted {
		return "accept"
	}
	sb := strings.Builder{}
	for _, s := range c.stack {
		sb.WriteString(strconv.Itoa(s))
		sb.WriteByte(' ')
	}
	return sb.String()
}

func (c laConfig) push(state int) laConfig {
	stack := make([]int, 0, len(c.stack)+1)
	stack = append(stack, c.stack...)
	stack = append(stack, state)
	if len(stack) > MaxStackSuffix {
		stack = stack[len(stack)-MaxStackSuffix:]
	}
	return laConfig{stack: stack}
}

// branch is one of conflicting actions together with configurations it may lead to.
type branch struct {
	action action
	cfgs   []laConfig
}

func (br *branch) key() string {
	keys := make([]string, len(br.cfgs))
	for i, c := range br.cfgs {
		keys[i] = c.key()
	}
	sort.Strings(keys)
	return strings.Join(keys, "|")
}

// reduce applies a rule to a configuration.
// Popping past the known bottom branches over ancestor states.
func (b *builder) reduce(c laConfig, rule int) []laConfig {
	r := b.g.Rules[rule]
	n := len(r.Rhs)
	if n < len(c.stack) {
		base := c.stack[:len(c.stack)-n]
		next, found := b.states[base[len(base)-1]].trans[r.Lhs]
		if !found {
			return nil
		}
		return []laConfig{laConfig{stack: base}.push(next)}
	}

	var res []laConfig
	for _, p := range b.ancestors(c.stack[0], n-len(c.stack)+1) {
		if next, found := b.states[p].trans[r.Lhs]; found {
			res = append(res, laConfig{stack: []int{p, next}})
		}
	}
	return res
}

// advance performs all reductions possible on a terminal and then consumes it.
func (b *builder) advance(cfgs []laConfig, term int) []laConfig {
	var res []laConfig
	added := make(map[string]bool)
	add := func(c laConfig) {
		k := c.key()
		if !added[k] {
			added[k] = true
			res = append(res, c)
		}
	}

	visited := make(map[string]bool)
	q := queue.New(cfgs...)
	for !q.IsEmpty() {
		c, _ := q.First()
		if c.accepted {
			if term == b.g.End {
				add(c)
			}
			continue
		}

		k := c.key()
		if visited[k] {
			continue
		}
		visited[k] = true

		st := b.states[c.stack[len(c.stack)-1]]
		if next, found := st.trans[term]; found {
			add(c.push(next))
		}
		if st.accepts && term == b.g.End {
			add(laConfig{accepted: true})
		}
		for _, rule := range st.reduces[term] {
			for _, nc := range b.reduce(c, rule) {
				q.Append(nc)
			}
		}
	}
	return res
}

// initialBranch returns configurations reached by applying an action to the conflicting token.
func (b *builder) initialBranch(state, term int, a action) *branch {
	br := &branch{action: a}
	switch a.op {
	case grammar.Shift:
		br.cfgs = []laConfig{{stack: []int{state, a.arg}}}
	case grammar.Accept:
		br.cfgs = []laConfig{{accepted: true}}
	default:
		br.cfgs = b.advance(b.reduce(laConfig{stack: []int{state}}, a.arg), term)
	}
	return br
}

// resolveConflict builds lookahead states deciding between actions on a terminal.
func (b *builder) resolveConflict(state, term int, actions []action) grammar.Move {
	branches := make([]*branch, len(actions))
	for i, a := range actions {
		branches[i] = b.initialBranch(state, term, a)
	}
	prefix := []int{term}
	id := b.laState(state, 2, branches, prefix)
	return grammar.Move{Op: grammar.LookAhead, Arg: id}
}

func (b *builder) laState(origin, depth int, branches []*branch, prefix []int) int {
	id := len(b.tables.LaStates)
	b.tables.LaStates = append(b.tables.LaStates, grammar.LaState{Origin: origin, Depth: depth})
	var entries []grammar.Entry
	var legal []int

	for _, term := range b.scanTerms {
		var viable []*branch
		for _, br := range branches {
			if next := b.advance(br.cfgs, term); len(next) > 0 {
				viable = append(viable, &branch{action: br.action, cfgs: next})
			}
		}
		if len(viable) == 0 {
			continue
		}

		legal = append(legal, term)
		tokens := append(append([]int(nil), prefix...), term)
		var m grammar.Move
		switch {
		case len(viable) == 1:
			m = viable[0].action.move()
		case hasDuplicates(viable):
			b.fail(ambiguityError(b.conflictContext(origin, tokens, actionsOf(viable))))
			continue
		case depth >= b.lrk:
			b.fail(conflictError(depth, b.conflictContext(origin, tokens, actionsOf(viable))))
			continue
		default:
			m = grammar.Move{Op: grammar.LookAhead, Arg: b.laState(origin, depth+1, viable, tokens)}
		}
		entries = append(entries, grammar.Entry{Symbol: term, Move: m})
	}

	b.tables.LaStates[id].Entries = entries
	b.tables.LaStates[id].Legal = b.intern(legal)
	if b.maxDepth < depth {
		b.maxDepth = depth
	}
	return id
}

func hasDuplicates(branches []*branch) bool {
	seen := make(map[string]bool, len(branches))
	for _, br := range branches {
		k := br.key()
		if seen[k] {
			return true
		}
		seen[k] = true
	}
	return false
}

func actionsOf(branches []*branch) []action {
	res := make([]action, len(branches))
	for i, br := range branches {
		res[i] = br.action
	}
	return res
}

func (b *builder) conflictContext(state int, tokens []int, acts []action) string {
	names := make([]string, len(tokens))
	for i, t := range tokens {
		names[i] = b.g.Symbols[t].Title()
	}
	actions := make([]string, len(acts))
	for i, a := range acts {
		actions[i] = b.actionString(a)
	}

	return "in state " + strconv.Itoa(state) + " " + b.symbolsString(b.path(state)) +
		" on " + strings.Join(names, " ") + " between " + strings.Join(actions, " and ") +
		" (items: " + b.itemsString(b.states[state].kernel) + ")"
}
