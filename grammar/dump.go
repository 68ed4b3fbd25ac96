package grammar

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

func newTable(w io.Writer, title string, header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(title)
	t.AppendHeader(header)
	return t
}

// WriteSymbols writes terminal and nonterminal listing.
func (g *Grammar) WriteSymbols(w io.Writer) {
	t := newTable(w, "symbols", table.Row{"#", "type", "name", "expression", "priority", "base", "kind"})
	for i, s := range g.Symbols {
		re := ""
		if s.Type == TerminalSymbol {
			re = "/" + s.Re + "/"
			if s.Flags&WhitespaceTerm != 0 {
				re += " (whitespace)"
			}
		}
		t.AppendRow(table.Row{i, s.Type, s.Title(), re, s.Priority, s.Base, s.Kind})
	}
	t.Render()
}

// WriteRules writes rule listing with bound actions.
func (g *Grammar) WriteRules(w io.Writer) {
	t := newTable(w, "rules", table.Row{"#", "rule", "action", "kind"})
	for i, r := range g.Rules {
		action := ""
		if r.Action != NoAction {
			a := g.Actions[r.Action]
			action = fmt.Sprintf("%s/%d", a.Name, a.Arity)
		}
		rule := g.RuleString(i)
		if r.Synthetic {
			rule += " *"
		}
		t.AppendRow(table.Row{i, rule, action, r.Kind})
	}
	t.Render()
}

func (t *Tables) symbolName(id int) string {
	return t.Grammar.Symbols[id].Title()
}

func (t *Tables) entries(entries []Entry) string {
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = t.symbolName(e.Symbol) + ": " + e.Move.String()
	}
	return strings.Join(parts, "\n")
}

// References returns states having shift or goto moves into each state.
func (t *Tables) References() [][]int {
	res := make([][]int, len(t.States))
	for i, st := range t.States {
		for _, list := range [][]Entry{st.Shifts, st.Gotos} {
			for _, e := range list {
				if e.Move.Op == Shift || e.Move.Op == Goto {
					res[e.Move.Arg] = append(res[e.Move.Arg], i)
				}
			}
		}
	}
	for _, refs := range res {
		sort.Ints(refs)
	}
	return res
}

// WriteStates writes LR states with kernels, moves and cross-references.
func (t *Tables) WriteStates(w io.Writer) {
	g := t.Grammar
	refs := t.References()
	tw := newTable(w, "states", table.Row{"#", "kernel", "moves", "gotos", "from", "expected"})
	for i, st := range t.States {
		items := make([]string, len(st.Kernel))
		for j, it := range st.Kernel {
			items[j] = g.ItemString(it.Rule, it.Dot)
		}

		moves := t.entries(st.Shifts)
		if len(st.Reduces) > 0 {
			if moves != "" {
				moves += "\n"
			}
			moves += t.entries(st.Reduces)
		}
		if st.DefaultReduce != NoRule {
			moves = fmt.Sprintf("default: reduce %d", st.DefaultReduce)
		}

		from := make([]string, len(refs[i]))
		for j, r := range refs[i] {
			from[j] = fmt.Sprint(r)
		}
		tw.AppendRow(table.Row{i, strings.Join(items, "\n"), moves, t.entries(st.Gotos), strings.Join(from, " "), t.Expected(i)})
	}
	tw.Render()

	if len(t.LaStates) == 0 {
		return
	}

	tw = newTable(w, "lookahead states", table.Row{"#", "origin", "depth", "moves"})
	for i, la := range t.LaStates {
		tw.AppendRow(table.Row{i, la.Origin, la.Depth, t.entries(la.Entries)})
	}
	tw.Render()
}

// Dump writes complete diagnostics.
func (t *Tables) Dump(w io.Writer) {
	t.Grammar.WriteSymbols(w)
	t.Grammar.WriteRules(w)
	t.WriteStates(w)
	fmt.Fprintf(w, "%d states, %d lookahead states, %d scanners, lookahead level %d\n",
		len(t.States), len(t.LaStates), len(t.Scanners), t.LrkLevel)
}
