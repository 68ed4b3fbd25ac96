// Package grammar contains the pure data description of a grammar
// and of the parsing and scanning tables built for it.
// Everything here can be marshalled to JSON and consumed by a code emission backend.
package grammar

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ava12/lrx"
	"github.com/ava12/lrx/regex"
)

// SymbolType discriminates symbol variants.
type SymbolType uint8

const (
	TerminalSymbol SymbolType = iota
	NonterminalSymbol
	EofSymbol
	EmptySymbol
	ErrorSymbol
	AcceptSymbol
)

var symbolTypeNames = [...]string{"terminal", "nonterminal", "eof", "empty", "error", "accept"}

func (t SymbolType) String() string {
	if int(t) < len(symbolTypeNames) {
		return symbolTypeNames[t]
	}
	return "symbol(" + strconv.Itoa(int(t)) + ")"
}

func (t SymbolType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *SymbolType) UnmarshalText(text []byte) error {
	for i, n := range symbolTypeNames {
		if n == string(text) {
			*t = SymbolType(i)
			return nil
		}
	}
	return fmt.Errorf("unknown symbol type %q", text)
}

// Reserved symbol ids, terminals follow them, then the accept nonterminal and other nonterminals.
const (
	EofId   = 0
	ErrorId = 1
	EmptyId = 2

	FirstTerminal = 3
)

// NoAction marks rules and terminals having no semantic action.
const NoAction = -1

// TermFlags hold terminal options.
type TermFlags uint8

const (
	// LiteralTerm is an anonymous quoted literal, it produces no value.
	LiteralTerm TermFlags = 1 << iota
	// WhitespaceTerm is skipped by scanners.
	WhitespaceTerm
	CaselessTerm
	FixedEnderTerm
	ImmediateTerm
)

// Symbol is a tagged variant, only fields relevant to Type are set.
type Symbol struct {
	Type SymbolType
	Name string

	// terminals
	Re       string    `json:",omitempty"`
	Priority int       `json:",omitempty"`
	Base     int       `json:",omitempty"`
	Flags    TermFlags `json:",omitempty"`

	// Action is a terminal action index or NoAction.
	Action int
	// Kind of values produced by the symbol.
	Kind lrx.Kind

	// nonterminals
	Rules []int `json:",omitempty"`
}

// Title returns symbol name as shown in messages: literals are quoted.
func (s *Symbol) Title() string {
	switch {
	case s.Type == EofSymbol:
		return "end of input"
	case s.Flags&LiteralTerm != 0:
		return strconv.Quote(s.Name)
	default:
		return s.Name
	}
}

// RegexFlags converts terminal flags to expression flags.
func (s *Symbol) RegexFlags() regex.Flags {
	var res regex.Flags
	if s.Flags&CaselessTerm != 0 {
		res |= regex.Caseless
	}
	if s.Flags&FixedEnderTerm != 0 {
		res |= regex.FixedEnder
	}
	if s.Flags&ImmediateTerm != 0 {
		res |= regex.Immediate
	}
	return res
}

// Builtin names generated actions of synthetic rules.
type Builtin string

const (
	NoBuiltin    Builtin = ""
	ListEmpty    Builtin = "list-empty"
	ListOne      Builtin = "list-one"
	ListAppend   Builtin = "list-append"
	OptionalNone Builtin = "optional-none"
	OptionalSome Builtin = "optional-some"
	Tuple        Builtin = "tuple"
)

// ActionDecl declares a semantic action.
// Arity is the number of values the action takes.
type ActionDecl struct {
	Name    string
	Arity   int
	Result  lrx.Kind
	Builtin Builtin `json:",omitempty"`
}

// Rule is a production. Rules without an action pass their only non-void value through.
type Rule struct {
	Lhs       int
	Rhs       []int
	Action    int
	Synthetic bool `json:",omitempty"`
	Kind      lrx.Kind
}

type Grammar struct {
	Name    string
	Symbols []Symbol
	Rules   []Rule
	Actions []ActionDecl

	// FirstNonterm is the id of the accept symbol, all smaller ids are terminals.
	FirstNonterm int
	AcceptRule   int
	Start        int
	// End plays the role of end of input, it is EofId unless overridden.
	End        int
	Whitespace []int `json:",omitempty"`
}

func (g *Grammar) IsTerminal(id int) bool {
	return id < g.FirstNonterm
}

func (g *Grammar) SymbolByName(name string) (int, bool) {
	for i, s := range g.Symbols {
		if s.Name == name && s.Type != EmptySymbol {
			return i, true
		}
	}
	return -1, false
}

// Terminals returns ids of ordinary terminals.
func (g *Grammar) Terminals() []int {
	res := make([]int, 0, g.FirstNonterm-FirstTerminal)
	for i := FirstTerminal; i < g.FirstNonterm; i++ {
		res = append(res, i)
	}
	return res
}

func (g *Grammar) IsWhitespace(id int) bool {
	return g.IsTerminal(id) && g.Symbols[id].Flags&WhitespaceTerm != 0
}

// RuleString formats rule as "lhs = rhs ...".
func (g *Grammar) RuleString(rule int) string {
	r := g.Rules[rule]
	sb := strings.Builder{}
	sb.WriteString(g.Symbols[r.Lhs].Name)
	sb.WriteString(" =")
	if len(r.Rhs) == 0 {
		sb.WriteString(" ε")
	}
	for _, s := range r.Rhs {
		sb.WriteByte(' ')
		sb.WriteString(g.Symbols[s].Title())
	}
	return sb.String()
}

// ItemString formats rule with a dot at given position.
func (g *Grammar) ItemString(rule, dot int) string {
	r := g.Rules[rule]
	sb := strings.Builder{}
	sb.WriteString(g.Symbols[r.Lhs].Name)
	sb.WriteString(" =")
	for i, s := range r.Rhs {
		if i == dot {
			sb.WriteString(" .")
		}
		sb.WriteByte(' ')
		sb.WriteString(g.Symbols[s].Title())
	}
	if dot >= len(r.Rhs) {
		sb.WriteString(" .")
	}
	return sb.String()
}

// ValueCount returns the number of non-void values of rule rhs.
func (g *Grammar) ValueCount(rule int) int {
	n := 0
	for _, s := range g.Rules[rule].Rhs {
		if g.Symbols[s].Kind != lrx.KindVoid {
			n++
		}
	}
	return n
}
