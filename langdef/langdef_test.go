package langdef

import (
	"testing"

	"github.com/npillmayer/schuko/testconfig"

	"github.com/ava12/lrx"
	"github.com/ava12/lrx/config"
	"github.com/ava12/lrx/grammar"
	. "github.com/ava12/lrx/internal/test"
	"github.com/ava12/lrx/regex"
)

func entry(start string, whitespace ...string) config.EntryPoint {
	ep := config.Default()
	ep.Start = start
	ep.Whitespace = whitespace
	return ep
}

func sum(_ ActionContext, args []lrx.Value) (lrx.Value, error) {
	return lrx.Int(args[0].Int + args[1].Int), nil
}

var sumAction = NewAction("sum", 2, lrx.KindInt, sum)

func symbol(t *testing.T, g *grammar.Grammar, name string) *grammar.Symbol {
	id, found := g.SymbolByName(name)
	Assert(t, found, "symbol %s not found", name)
	return &g.Symbols[id]
}

func TestNumbering(t *testing.T) {
	defer testconfig.QuickConfig(t)()
	b := New("sum")
	b.AddTerminal("space", `\s+`, 0, 0, 0)
	b.AddTerminal("num", `[0-9]+`, 0, 10, 0)
	b.AddRule("expr", "expr '+' num", sumAction)
	b.AddRule("expr", "num", nil)
	b.AddRule("other", "'+' '+'", nil)

	lang, e := b.Build(entry("", "space"))
	ExpectNoError(t, e)
	g := lang.Grammar

	ExpectInt(t, grammar.FirstTerminal, 3)
	ExpectString(t, "space", g.Symbols[3].Name)
	ExpectString(t, "num", g.Symbols[4].Name)
	ExpectString(t, "+", g.Symbols[5].Name)
	ExpectInt(t, 6, g.FirstNonterm)
	ExpectString(t, "expr", g.Symbols[g.Start].Name)
	ExpectInt(t, 4, len(g.Rules))
	ExpectString(t, "$accept = expr", g.RuleString(g.AcceptRule))
	ExpectString(t, `expr = expr "+" num`, g.RuleString(1))

	plus := &g.Symbols[5]
	ExpectInt(t, LiteralPriority, plus.Priority)
	Assert(t, plus.Flags&grammar.LiteralTerm != 0, "literal flag not set")
	Assert(t, plus.Kind == lrx.KindVoid, "literal must be void")
	Assert(t, g.Symbols[4].Kind == lrx.KindInt, "num must be int")
	Assert(t, g.Symbols[g.Start].Kind == lrx.KindInt, "expr must be int")
	Assert(t, g.Symbols[3].Flags&grammar.WhitespaceTerm != 0, "whitespace flag not set")
	ExpectInt(t, 1, len(g.Whitespace))

	ExpectInt(t, 1, len(g.Actions))
	ExpectInt(t, 0, g.Rules[1].Action)
	ExpectInt(t, grammar.NoAction, g.Rules[2].Action)
	Assert(t, lang.RuleFuncs[0] != nil, "action function not bound")
}

func TestQuantifiers(t *testing.T) {
	defer testconfig.QuickConfig(t)()
	b := New("list")
	b.AddTerminal("name", `[a-z]+`, 0, 0, 0)
	b.AddRule("list", "name* ';'* name+ name? (name name) (name | name ',')", NewAction("list", 5, lrx.KindObject, nil))
	b.AddRule("again", "name*", nil)

	lang, e := b.Build(entry("list"))
	ExpectNoError(t, e)
	g := lang.Grammar

	star := symbol(t, g, "name*")
	ExpectInt(t, 2, len(star.Rules))
	Assert(t, star.Kind == lrx.KindObject, "name* kind is %s", star.Kind)
	Assert(t, g.Rules[star.Rules[0]].Synthetic, "helper rule must be synthetic")
	ExpectInt(t, 0, len(g.Rules[star.Rules[0]].Rhs))
	Assert(t, g.Actions[g.Rules[star.Rules[0]].Action].Builtin == grammar.ListEmpty, "list-empty expected")
	Assert(t, g.Actions[g.Rules[star.Rules[1]].Action].Builtin == grammar.ListAppend, "list-append expected")

	semis := symbol(t, g, "';'*")
	Assert(t, semis.Kind == lrx.KindVoid, "';'* kind is %s", semis.Kind)
	ExpectInt(t, grammar.NoAction, g.Rules[semis.Rules[1]].Action)

	plus := symbol(t, g, "name+")
	Assert(t, g.Actions[g.Rules[plus.Rules[0]].Action].Builtin == grammar.ListOne, "list-one expected")

	opt := symbol(t, g, "name?")
	Assert(t, g.Actions[g.Rules[opt.Rules[0]].Action].Builtin == grammar.OptionalNone, "optional-none expected")
	Assert(t, g.Actions[g.Rules[opt.Rules[1]].Action].Builtin == grammar.OptionalSome, "optional-some expected")

	tuple := symbol(t, g, "(name name)")
	Assert(t, g.Actions[g.Rules[tuple.Rules[0]].Action].Builtin == grammar.Tuple, "tuple expected")
	ExpectInt(t, 2, g.Actions[g.Rules[tuple.Rules[0]].Action].Arity)

	group := symbol(t, g, "(name | name ',')")
	ExpectInt(t, 2, len(group.Rules))
	Assert(t, group.Kind == lrx.KindString, "group kind is %s", group.Kind)

	ExpectInt(t, 1, len(symbol(t, g, "again").Rules))
	ExpectInt(t, 2, len(star.Rules))
}

func TestBuiltins(t *testing.T) {
	defer testconfig.QuickConfig(t)()
	list, _ := BuiltinFunc(grammar.ListEmpty)(nil, nil)
	list, _ = BuiltinFunc(grammar.ListAppend)(nil, []lrx.Value{list, lrx.Int(1)})
	list, _ = BuiltinFunc(grammar.ListAppend)(nil, []lrx.Value{list, lrx.Int(2)})
	items := List(list)
	ExpectInt(t, 2, len(items))
	ExpectInt(t, 2, int(items[1].Int))

	none, _ := BuiltinFunc(grammar.OptionalNone)(nil, nil)
	_, present := Optional(none)
	ExpectBool(t, false, present)
	some, _ := BuiltinFunc(grammar.OptionalSome)(nil, []lrx.Value{lrx.String("x")})
	v, present := Optional(some)
	ExpectBool(t, true, present)
	ExpectString(t, "x", v.Str)

	args := []lrx.Value{lrx.Int(1), lrx.Int(2)}
	tuple, _ := BuiltinFunc(grammar.Tuple)(nil, args)
	args[0] = lrx.Int(5)
	ExpectInt(t, 1, int(List(tuple)[0].Int))
	Assert(t, BuiltinFunc(grammar.NoBuiltin) == nil, "no builtin expected")
}

func TestCollectsAllErrors(t *testing.T) {
	defer testconfig.QuickConfig(t)()
	b := New("broken")
	b.AddTerminal("space", `\s*`, 0, 0, 0)
	b.AddTerminal("num", `[0-9]+`, 0, 10, 0)
	b.AddTerminal("num", `[0-9]`, 0, 0, 0)
	b.AddTerminal("bad", `(x`, 0, 0, 0)
	b.AddTerminal("odd", `o`, 0, 99, 0)
	b.AddRule("s", "a num", nil)
	b.AddRule("s", "num space", nil)
	b.AddRule("s", "x", nil)
	b.AddRule("s", "x", nil)
	b.AddRule("x", "num num", nil)
	b.AddRule("y", "num", sumAction)
	b.AddRule("z", "(num", nil)

	e := b.Check(entry("s", "space", "tab"))
	for _, code := range []int{
		UndefinedNonterminalError, EmptyTerminalError, DuplicateTerminalError, RegexError,
		RuleSyntaxError, UnknownTerminalError, BaseError,
	} {
		Assert(t, HasErrorCode(e, code), "error %d not reported in: %v", code, e)
	}

	b = New("broken")
	b.AddTerminal("space", `\s+`, 0, 0, Whitespace)
	b.AddTerminal("num", `[0-9]+`, 0, 10, 0)
	b.AddTerminal("end", `;`, 0, 0, 0)
	b.AddRule("s", "x num space", nil)
	b.AddRule("s", "x x", nil)
	b.AddRule("s", "x x", nil)
	b.AddRule("s", "x end", nil)
	b.AddRule("x", "num num", nil)
	b.AddRule("x", "num", sumAction)
	ep := entry("s")
	ep.Eof = "end"
	e = b.Check(ep)
	for _, code := range []int{ForbiddenTerminalError, DuplicateRuleError, ArityError} {
		Assert(t, HasErrorCode(e, code), "error %d not reported in: %v", code, e)
	}
}

func TestKindMismatch(t *testing.T) {
	defer testconfig.QuickConfig(t)()
	b := New("kinds")
	b.AddTerminal("num", `[0-9]+`, 0, 10, 0)
	b.AddTerminal("name", `[a-z]+`, 0, 0, 0)
	b.AddRule("s", "num", nil)
	b.AddRule("s", "name", nil)
	ExpectErrorCode(t, KindError, b.Check(entry("s")))
}

func TestStart(t *testing.T) {
	defer testconfig.QuickConfig(t)()
	b := New("start")
	b.AddTerminal("num", `[0-9]+`, 0, 10, 0)
	b.AddRule("first", "num", nil)
	b.AddRule("second", "first first", sumAction)

	lang, e := b.Build(entry(""))
	ExpectNoError(t, e)
	ExpectString(t, "first", lang.Grammar.Symbols[lang.Grammar.Start].Name)

	lang, e = b.Build(entry("second"))
	ExpectNoError(t, e)
	ExpectString(t, "second", lang.Grammar.Symbols[lang.Grammar.Start].Name)

	ExpectErrorCode(t, UndefinedStartError, b.Check(entry("third")))
	ExpectErrorCode(t, UndefinedStartError, b.Check(entry("num")))
}

func TestTermAction(t *testing.T) {
	defer testconfig.QuickConfig(t)()
	b := New("terms")
	upper := NewTermAction("upper", lrx.KindString, func(_ ActionContext, text string) (lrx.Value, error) {
		return lrx.String(text + "!"), nil
	})
	b.AddTerminal("name", `[a-z]+`, 0, 0, Caseless).WithAction(upper)
	b.AddTerminal("kw", `if`, 2, 0, Silent)
	b.AddRule("s", "kw name", nil)

	ep := entry("s")
	ep.CaseFolding = config.SimpleFolding
	lang, e := b.Build(ep)
	ExpectNoError(t, e)
	g := lang.Grammar
	name := symbol(t, g, "name")
	ExpectInt(t, 0, name.Action)
	Assert(t, lang.TermFuncs[0] != nil, "term action not bound")
	Assert(t, symbol(t, g, "kw").Kind == lrx.KindVoid, "silent terminal must be void")
	Assert(t, symbol(t, g, "kw").Flags&grammar.CaselessTerm != 0, "case folding not applied")
	Assert(t, name.RegexFlags() == regex.Caseless, "unexpected regex flags")
}

func TestRhsParsing(t *testing.T) {
	defer testconfig.QuickConfig(t)()
	item, e := parseRhs(`a 'b' "c'" (d | e f)* g?`)
	ExpectNoError(t, e)
	ExpectInt(t, 1, len(item.alts))
	ExpectString(t, `(a 'b' "c'" (d | e f)* g?)`, item.String())

	for _, bad := range []string{"(a", "a )", "''", "'a", "a # b"} {
		_, e = parseRhs(bad)
		Assert(t, e != nil, "no error for %q", bad)
	}
}
