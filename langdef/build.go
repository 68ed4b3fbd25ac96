package langdef

import (
	"sort"
	"strconv"
	"strings"

	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"
	"go.uber.org/multierr"

	"github.com/ava12/lrx"
	"github.com/ava12/lrx/config"
	"github.com/ava12/lrx/grammar"
	"github.com/ava12/lrx/regex"
)

func tracer() tracing.Trace {
	return gtrace.CoreTracer
}

// Language is a checked grammar with bound semantic actions.
// RuleFuncs and TermFuncs are indexed by grammar action index, unused slots are nil.
type Language struct {
	Grammar   *grammar.Grammar
	RuleFuncs []RuleFunc
	TermFuncs []TermFunc
	Config    config.EntryPoint
}

// kindUnknown marks symbols whose kind is not inferred yet.
const kindUnknown = lrx.Kind(255)

type buildContext struct {
	b        *Builder
	ep       config.EntryPoint
	g        *grammar.Grammar
	lang     *Language
	errs     error
	termIds  map[*termDef]int
	ntIds    map[string]int
	kinds    []lrx.Kind
	ruleKind []lrx.Kind
	actions  map[any]int
}

// Check validates the grammar for an entry point and returns all found errors.
func (b *Builder) Check(ep config.EntryPoint) error {
	_, e := b.Build(ep)
	return e
}

// Build validates the grammar, numbers symbols and rules and binds actions.
// All detected errors are combined into the returned error.
func (b *Builder) Build(ep config.EntryPoint) (*Language, error) {
	c := &buildContext{
		b:       b,
		ep:      ep,
		g:       &grammar.Grammar{Name: b.name, End: grammar.EofId},
		errs:    multierr.Append(b.errs, ep.Validate()),
		termIds: make(map[*termDef]int),
		ntIds:   make(map[string]int),
		actions: make(map[any]int),
	}
	c.lang = &Language{Grammar: c.g, Config: ep}

	c.addSymbols()
	c.checkTerminals()
	c.resolveStart()
	if c.addRules() {
		c.inferKinds()
		c.bindActions()
		c.traceUnreachable()
	}

	if c.errs != nil {
		return nil, c.errs
	}

	tracer().Debugf("language %s: %d symbols, %d rules, %d actions", b.name, len(c.g.Symbols), len(c.g.Rules), len(c.g.Actions))
	return c.lang, nil
}

func (c *buildContext) fail(e error) {
	c.errs = multierr.Append(c.errs, e)
}

func (c *buildContext) addSymbols() {
	g := c.g
	g.Symbols = append(g.Symbols,
		grammar.Symbol{Type: grammar.EofSymbol, Name: "$eof", Action: grammar.NoAction},
		grammar.Symbol{Type: grammar.ErrorSymbol, Name: "$error", Action: grammar.NoAction},
		grammar.Symbol{Type: grammar.EmptySymbol, Name: "$empty", Action: grammar.NoAction},
	)

	for _, t := range c.b.terms {
		c.termIds[t] = len(g.Symbols)
		g.Symbols = append(g.Symbols, grammar.Symbol{
			Type:     grammar.TerminalSymbol,
			Name:     t.name,
			Re:       t.expr,
			Priority: t.priority,
			Base:     t.base,
			Flags:    t.flags,
			Action:   grammar.NoAction,
		})
	}

	g.FirstNonterm = len(g.Symbols)
	g.Symbols = append(g.Symbols, grammar.Symbol{Type: grammar.AcceptSymbol, Name: "$accept", Action: grammar.NoAction})
	for _, nt := range c.b.nonterms {
		if _, found := c.b.termIdx.Get(nt.name); found {
			c.fail(nameConflictError(nt.name))
		}
		c.ntIds[nt.name] = len(g.Symbols)
		g.Symbols = append(g.Symbols, grammar.Symbol{Type: grammar.NonterminalSymbol, Name: nt.name, Action: grammar.NoAction})
	}
}

func (c *buildContext) terminal(role, name string) int {
	def, found := c.b.termIdx.Get(name)
	if !found {
		c.fail(unknownTerminalError(role, name))
		return -1
	}
	return c.termIds[def.(*termDef)]
}

func (c *buildContext) checkTerminals() {
	g := c.g
	for _, name := range c.ep.Whitespace {
		if id := c.terminal("whitespace", name); id >= 0 {
			g.Symbols[id].Flags |= grammar.WhitespaceTerm
		}
	}
	if c.ep.Eof != "" {
		if id := c.terminal("eof", c.ep.Eof); id >= 0 {
			g.End = id
		}
	}

	for _, t := range c.b.terms {
		id := c.termIds[t]
		sym := &g.Symbols[id]
		if c.ep.CaseFolding == config.SimpleFolding {
			sym.Flags |= grammar.CaselessTerm
		}
		if sym.Flags&grammar.WhitespaceTerm != 0 {
			g.Whitespace = append(g.Whitespace, id)
		}

		info, e := regex.Analyze(sym.Re, sym.RegexFlags())
		if e != nil {
			c.fail(regexError(sym.Name, e))
		} else if info.AcceptsEmpty {
			c.fail(emptyTerminalError(sym.Name))
		}

		if t.base != 0 && (t.base < 2 || t.base > 36) {
			c.fail(baseError(t.name, t.base))
		}

		switch {
		case t.action != nil:
			sym.Kind = t.action.Result
			sym.Action = c.termAction(t.action)
		case t.silent:
			sym.Kind = lrx.KindVoid
		case t.base != 0:
			sym.Kind = lrx.KindInt
		default:
			sym.Kind = lrx.KindString
		}
	}
}

func (c *buildContext) resolveStart() {
	name := c.ep.Start
	if name == "" {
		for _, nt := range c.b.nonterms {
			if !nt.synthetic {
				name = nt.name
				break
			}
		}
	}

	id, found := c.ntIds[name]
	if !found || len(c.b.nonterms[id-c.g.FirstNonterm-1].rules) == 0 {
		c.fail(undefinedStartError(name))
		return
	}
	c.g.Start = id
}

func (c *buildContext) resolve(ref symRef) int {
	if ref.literal {
		def, _ := c.b.literals.Get(ref.name)
		return c.termIds[def.(*termDef)]
	}
	if def, found := c.b.termIdx.Get(ref.name); found {
		return c.termIds[def.(*termDef)]
	}
	if id, found := c.ntIds[ref.name]; found {
		return id
	}
	return -1
}

// addRules returns false if some symbols are not resolved.
func (c *buildContext) addRules() bool {
	g := c.g
	g.AcceptRule = 0
	g.Rules = append(g.Rules, grammar.Rule{Lhs: g.FirstNonterm, Rhs: []int{g.Start}, Action: grammar.NoAction})
	g.Symbols[g.FirstNonterm].Rules = []int{0}

	var undefined []string
	seen := make(map[string]bool)
	for _, nt := range c.b.nonterms {
		if len(nt.rules) == 0 {
			undefined = append(undefined, nt.name)
		}
	}

	for _, r := range c.b.rules {
		lhs := c.ntIds[r.lhs]
		rule := grammar.Rule{Lhs: lhs, Rhs: make([]int, len(r.rhs)), Action: grammar.NoAction, Synthetic: r.helper != noHelper}
		for i, ref := range r.rhs {
			id := c.resolve(ref)
			if id < 0 && !seen[ref.name] {
				seen[ref.name] = true
				undefined = append(undefined, ref.name)
			}
			rule.Rhs[i] = id
		}

		g.Symbols[lhs].Rules = append(g.Symbols[lhs].Rules, len(g.Rules))
		g.Rules = append(g.Rules, rule)
	}

	if len(undefined) > 0 {
		sort.Strings(undefined)
		c.fail(undefinedNonterminalError(undefined))
		return false
	}

	keys := make(map[string]bool, len(g.Rules))
	for i, r := range g.Rules {
		if i == g.AcceptRule {
			continue
		}

		key := strconv.Itoa(r.Lhs)
		for _, s := range r.Rhs {
			key += " " + strconv.Itoa(s)
			switch {
			case s == g.End || s == grammar.EofId:
				c.fail(forbiddenTerminalError("eof", g.Symbols[s].Name, g.RuleString(i)))
			case g.IsWhitespace(s):
				c.fail(forbiddenTerminalError("whitespace", g.Symbols[s].Name, g.RuleString(i)))
			}
		}
		if keys[key] {
			c.fail(duplicateRuleError(g.RuleString(i)))
		}
		keys[key] = true
	}
	return true
}

// builderRule returns definition of grammar rule i, rule 0 is the accept rule.
func (c *buildContext) builderRule(i int) *ruleDef {
	return c.b.rules[i-1]
}

func (c *buildContext) inferKinds() {
	g := c.g
	c.kinds = make([]lrx.Kind, len(g.Symbols))
	for i, s := range g.Symbols {
		if g.IsTerminal(i) {
			c.kinds[i] = s.Kind
		} else {
			c.kinds[i] = kindUnknown
		}
	}
	c.ruleKind = make([]lrx.Kind, len(g.Rules))
	for i := range c.ruleKind {
		c.ruleKind[i] = kindUnknown
	}

	for changed := true; changed; {
		changed = false
		for i, r := range g.Rules {
			if c.ruleKind[i] != kindUnknown {
				continue
			}
			k := c.computeRuleKind(i)
			if k == kindUnknown {
				continue
			}
			c.ruleKind[i] = k
			changed = true
			if c.kinds[r.Lhs] == kindUnknown {
				c.kinds[r.Lhs] = k
			}
		}
	}

	for i := range c.kinds {
		if c.kinds[i] == kindUnknown {
			c.kinds[i] = lrx.KindVoid
		}
	}
	for i := range c.ruleKind {
		if c.ruleKind[i] == kindUnknown {
			c.ruleKind[i] = c.computeRuleKind(i)
		}
	}

	for i := g.FirstNonterm; i < len(g.Symbols); i++ {
		sym := &g.Symbols[i]
		sym.Kind = c.kinds[i]
		for _, r := range sym.Rules {
			if c.ruleKind[r] != sym.Kind {
				c.fail(kindError(sym.Name, sym.Kind, c.ruleKind[r]))
				break
			}
		}
	}
	for i := range g.Rules {
		g.Rules[i].Kind = c.ruleKind[i]
	}
}

// computeRuleKind returns rule value kind or kindUnknown if it depends on unknown kinds.
func (c *buildContext) computeRuleKind(i int) lrx.Kind {
	g := c.g
	if i != g.AcceptRule {
		r := c.builderRule(i)
		switch r.helper {
		case noHelper:
			if r.action != nil {
				return r.action.Result
			}
		case helperListEmpty, helperListOne, helperListAppend, helperOptNone, helperOptSome:
			switch c.kinds[c.resolve(r.item)] {
			case kindUnknown:
				return kindUnknown
			case lrx.KindVoid:
				return lrx.KindVoid
			default:
				return lrx.KindObject
			}
		}
	}

	count := 0
	kind := lrx.KindVoid
	for _, s := range g.Rules[i].Rhs {
		switch c.kinds[s] {
		case kindUnknown:
			return kindUnknown
		case lrx.KindVoid:
		default:
			count++
			kind = c.kinds[s]
		}
	}
	if count > 1 {
		return lrx.KindObject
	}
	return kind
}

func (c *buildContext) valueCount(rule int) int {
	n := 0
	for _, s := range c.g.Rules[rule].Rhs {
		if c.kinds[s] != lrx.KindVoid {
			n++
		}
	}
	return n
}

var helperBuiltins = map[helperKind]grammar.Builtin{
	helperListEmpty:  grammar.ListEmpty,
	helperListOne:    grammar.ListOne,
	helperListAppend: grammar.ListAppend,
	helperOptNone:    grammar.OptionalNone,
	helperOptSome:    grammar.OptionalSome,
}

func (c *buildContext) bindActions() {
	g := c.g
	for i := range g.Rules {
		if i == g.AcceptRule {
			continue
		}

		r := c.builderRule(i)
		rule := &g.Rules[i]
		values := c.valueCount(i)
		switch r.helper {
		case noHelper:
			if r.action != nil {
				if r.action.Arity != values {
					c.fail(arityError(r.action.Name, g.RuleString(i), r.action.Arity, values))
				}
				rule.Action = c.ruleAction(r.action)
			} else if values > 1 {
				c.fail(passThroughError(g.RuleString(i), values))
			}

		case helperGroup:
			if values > 1 {
				rule.Action = c.builtinAction(grammar.Tuple, values)
			}

		default:
			if rule.Kind != lrx.KindVoid {
				rule.Action = c.builtinAction(helperBuiltins[r.helper], values)
			}
		}
	}
}

func (c *buildContext) addAction(key any, decl grammar.ActionDecl, rf RuleFunc, tf TermFunc) int {
	if id, found := c.actions[key]; found {
		return id
	}

	id := len(c.g.Actions)
	c.g.Actions = append(c.g.Actions, decl)
	c.lang.RuleFuncs = append(c.lang.RuleFuncs, rf)
	c.lang.TermFuncs = append(c.lang.TermFuncs, tf)
	c.actions[key] = id
	return id
}

func (c *buildContext) ruleAction(a *Action) int {
	return c.addAction(a, grammar.ActionDecl{Name: a.Name, Arity: a.Arity, Result: a.Result}, a.Fn, nil)
}

func (c *buildContext) termAction(a *TermAction) int {
	return c.addAction(a, grammar.ActionDecl{Name: a.Name, Arity: 1, Result: a.Result}, nil, a.Fn)
}

func (c *buildContext) builtinAction(b grammar.Builtin, arity int) int {
	key := string(b) + "/" + strconv.Itoa(arity)
	decl := grammar.ActionDecl{Name: "$" + string(b), Arity: arity, Result: lrx.KindObject, Builtin: b}
	return c.addAction(key, decl, BuiltinFunc(b), nil)
}

func (c *buildContext) traceUnreachable() {
	g := c.g
	reached := make([]bool, len(g.Symbols))
	reached[g.FirstNonterm] = true
	stack := []int{g.FirstNonterm}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, r := range g.Symbols[s].Rules {
			for _, x := range g.Rules[r].Rhs {
				if !reached[x] && !g.IsTerminal(x) {
					reached[x] = true
					stack = append(stack, x)
				}
			}
		}
	}

	var names []string
	for i := g.FirstNonterm; i < len(g.Symbols); i++ {
		if !reached[i] {
			names = append(names, g.Symbols[i].Name)
		}
	}
	if len(names) > 0 {
		tracer().Infof("language %s: unreachable nonterminals: %s", g.Name, strings.Join(names, ", "))
	}
}
