package parser

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/npillmayer/schuko/testconfig"

	"github.com/ava12/lrx"
	"github.com/ava12/lrx/automaton"
	"github.com/ava12/lrx/config"
	"github.com/ava12/lrx/grammar"
	. "github.com/ava12/lrx/internal/test"
	"github.com/ava12/lrx/langdef"
	"github.com/ava12/lrx/scanner"
	"github.com/ava12/lrx/source"
)

func intAction(name string, arity int, f func(a []int64) (int64, error)) *langdef.Action {
	return langdef.NewAction(name, arity, lrx.KindInt, func(_ langdef.ActionContext, args []lrx.Value) (lrx.Value, error) {
		ints := make([]int64, len(args))
		for i, a := range args {
			ints[i] = a.Int
		}
		res, e := f(ints)
		return lrx.Int(res), e
	})
}

var (
	addAction = intAction("add", 2, func(a []int64) (int64, error) { return a[0] + a[1], nil })
	subAction = intAction("sub", 2, func(a []int64) (int64, error) { return a[0] - a[1], nil })
	mulAction = intAction("mul", 2, func(a []int64) (int64, error) { return a[0] * a[1], nil })
	divAction = intAction("div", 2, func(a []int64) (int64, error) {
		if a[1] == 0 {
			return 0, errors.New("division by zero")
		}
		return a[0] / a[1], nil
	})
	negAction = intAction("neg", 1, func(a []int64) (int64, error) { return -a[0], nil })
)

func calcBuilder() *langdef.Builder {
	b := langdef.New("calc")
	b.AddTerminal("space", `\s+`, 0, 0, langdef.Whitespace)
	b.AddTerminal("num", `[0-9]+`, 0, 10, 0)
	b.AddRule("sum", "sum '+' prod", addAction)
	b.AddRule("sum", "sum '-' prod", subAction)
	b.AddRule("sum", "prod", nil)
	b.AddRule("prod", "prod '*' unary", mulAction)
	b.AddRule("prod", "prod '/' unary", divAction)
	b.AddRule("prod", "unary", nil)
	b.AddRule("unary", "'-' unary", negAction)
	b.AddRule("unary", "atom", nil)
	b.AddRule("atom", "num | '(' sum ')'", nil)
	return b
}

func newCalc(t *testing.T, ep config.EntryPoint) *Parser {
	lang, e := calcBuilder().Build(ep)
	ExpectNoError(t, e)
	p, e := New(lang)
	ExpectNoError(t, e)
	return p
}

func parseInt(t *testing.T, p *Parser, src string, hs *Hooks) int64 {
	v, e := p.ParseString(context.Background(), src, hs)
	ExpectNoError(t, e)
	Expect(t, v.Kind == lrx.KindInt, lrx.KindInt, v.Kind)
	return v.Int
}

func TestCalc(t *testing.T) {
	defer testconfig.QuickConfig(t)()
	p := newCalc(t, config.Default())
	samples := []struct {
		src string
		res int64
	}{
		{"123+2*(3+4)/2+-200", -70},
		{" 123 + 2 * ( 3 + 4 ) / 2 + - 200 ", -70},
		{"123\n+2\t*(3\n\n+4)  /2+-\n200\n", -70},
		{"1-2-3", -4},
		{"2*3+4*5", 26},
		{"--7", 7},
		{"((((42))))", 42},
	}
	for _, s := range samples {
		Expect(t, parseInt(t, p, s.src, nil) == s.res, s.res, s.src)
	}
}

func TestSyntaxErrors(t *testing.T) {
	defer testconfig.QuickConfig(t)()
	p := newCalc(t, config.Default())
	samples := []struct {
		src  string
		code int
		text string
	}{
		{"1+", UnexpectedEofError, "expecting"},
		{"", UnexpectedEofError, "num"},
		{"1+)", UnexpectedTokenError, `unexpected ")"`},
		{"1 2", UnexpectedTokenError, `num "2"`},
		{"1?2", scanner.WrongCharError, "wrong char"},
		{"1/0", ActionError, "division by zero"},
	}
	for _, s := range samples {
		_, e := p.ParseString(context.Background(), s.src, nil)
		ExpectErrorCode(t, s.code, e)
		Assert(t, strings.Contains(e.Error(), s.text), "%q: %q not found in %q", s.src, s.text, e.Error())
	}
}

func TestErrorPosition(t *testing.T) {
	defer testconfig.QuickConfig(t)()
	p := newCalc(t, config.Default())
	q := source.NewQueue(source.New("sample", []byte("1+\n  (2*)")))
	_, e := p.Parse(context.Background(), q, nil)
	var le *lrx.Error
	Assert(t, errors.As(e, &le), "unexpected error type %T", e)
	ExpectInt(t, UnexpectedTokenError, le.Code)
	ExpectString(t, "sample", le.SourceName)
	ExpectInt(t, 2, le.Line)
	ExpectInt(t, 6, le.Col)
}

func twoTokenLanguage(t *testing.T, lrk int) *langdef.Language {
	str := func(s string) *langdef.Action {
		return langdef.NewAction(s, 0, lrx.KindString, func(langdef.ActionContext, []lrx.Value) (lrx.Value, error) {
			return lrx.String(s), nil
		})
	}
	b := langdef.New("lr2")
	b.AddTerminal("space", `\s+`, 0, 0, langdef.Whitespace)
	b.AddRule("s", "one 'x' 'y' | two 'x' 'z'", nil)
	b.AddRule("one", "'a'", str("one"))
	b.AddRule("two", "'a'", str("two"))
	ep := config.Default()
	ep.LrkLevel = lrk
	lang, e := b.Build(ep)
	ExpectNoError(t, e)
	return lang
}

func TestLookahead(t *testing.T) {
	defer testconfig.QuickConfig(t)()
	_, e := New(twoTokenLanguage(t, 1))
	ExpectErrorCode(t, automaton.ConflictUnresolvedError, e)

	p, e := New(twoTokenLanguage(t, 2))
	ExpectNoError(t, e)
	for src, res := range map[string]string{"a x y": "one", "axz": "two", " a\nx z ": "two"} {
		v, e := p.ParseString(context.Background(), src, nil)
		ExpectNoError(t, e)
		ExpectString(t, res, v.Str)
	}

	_, e = p.ParseString(context.Background(), "a x x", nil)
	ExpectErrorCode(t, UnexpectedTokenError, e)
	Assert(t, strings.Contains(e.Error(), `"y" or "z"`), "unexpected message %q", e.Error())

	_, e = p.ParseString(context.Background(), "a x", nil)
	ExpectErrorCode(t, UnexpectedEofError, e)
}

func TestRecovery(t *testing.T) {
	defer testconfig.QuickConfig(t)()
	p := newCalc(t, config.Default())
	var got []*Recovery
	hs := &Hooks{Recover: func(r *Recovery) error {
		got = append(got, r)
		return nil
	}}

	v, e := p.ParseString(context.Background(), "1+)2*3", hs)
	ExpectErrorCode(t, UnexpectedTokenError, e)
	Expect(t, v.Int == 6, 6, v.Int)
	ExpectInt(t, 1, len(got))
	ExpectString(t, ")", got[0].Token.Text())
	Assert(t, strings.Contains(got[0].Expected, "num"), "unexpected expected text %q", got[0].Expected)

	got = nil
	_, e = p.ParseString(context.Background(), "1+", hs)
	ExpectErrorCode(t, UnexpectedEofError, e)
	ExpectInt(t, 0, len(got))

	stop := errors.New("stop")
	_, e = p.ParseString(context.Background(), "1+)2", &Hooks{Recover: func(*Recovery) error { return stop }})
	Assert(t, errors.Is(e, stop), "unexpected error %v", e)
	ExpectErrorCode(t, UnexpectedTokenError, e)

	ep := config.Default()
	ep.MaxRecoveries = 1
	p = newCalc(t, ep)
	_, e = p.ParseString(context.Background(), "1+) 2+) 3", hs)
	ExpectErrorCode(t, RecoveryLimitError, e)
}

func TestRecoveryRepositionsInput(t *testing.T) {
	defer testconfig.QuickConfig(t)()
	p := newCalc(t, config.Default())
	hs := &Hooks{Recover: func(r *Recovery) error {
		in := r.Input
		for {
			c, ok := in.Read()
			if !ok || c == ';' {
				return nil
			}
		}
	}}
	v, e := p.ParseString(context.Background(), "1+)garbage here;10*10", hs)
	ExpectErrorCode(t, UnexpectedTokenError, e)
	Expect(t, v.Int == 100, 100, v.Int)
}

func TestStackOverflow(t *testing.T) {
	defer testconfig.QuickConfig(t)()
	ep := config.Default()
	ep.MaxStackDepth = 10
	p := newCalc(t, ep)
	Expect(t, parseInt(t, p, "((1))", nil) == 1, 1, "((1))")

	_, e := p.ParseString(context.Background(), strings.Repeat("(", 20)+"1"+strings.Repeat(")", 20), &Hooks{
		Recover: func(*Recovery) error { return nil },
	})
	ExpectErrorCode(t, StackOverflowError, e)
}

func TestCancel(t *testing.T) {
	defer testconfig.QuickConfig(t)()
	p := newCalc(t, config.Default())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, e := p.ParseString(ctx, "1", nil)
	Assert(t, errors.Is(e, context.Canceled), "unexpected error %v", e)
}

func TestEofOverride(t *testing.T) {
	defer testconfig.QuickConfig(t)()
	b := calcBuilder()
	b.AddTerminal("semi", `;`, 0, 0, 0)
	ep := config.Default()
	ep.Eof = "semi"
	lang, e := b.Build(ep)
	ExpectNoError(t, e)
	p, e := New(lang)
	ExpectNoError(t, e)

	in := source.FromString("1+2 ; rest")
	v, e := p.ParseInput(context.Background(), in, nil)
	ExpectNoError(t, e)
	Expect(t, v.Int == 3, 3, v.Int)
	c, _ := in.Read()
	Expect(t, c == ';', ";", string(c))

	_, e = p.ParseString(context.Background(), "1+2", nil)
	ExpectErrorCode(t, UnexpectedEofError, e)
}

func TestReuse(t *testing.T) {
	defer testconfig.QuickConfig(t)()
	ep := config.Default()
	ep.Reuse = true
	p := newCalc(t, ep)
	for i := 0; i < 5; i++ {
		Expect(t, parseInt(t, p, "2*(3+4)", nil) == 14, 14, i)
		_, e := p.ParseString(context.Background(), "2*(3+", nil)
		ExpectErrorCode(t, UnexpectedEofError, e)
		Expect(t, parseInt(t, p, "-5", nil) == -5, -5, i)
	}
}

func TestChecksum(t *testing.T) {
	defer testconfig.QuickConfig(t)()
	p := newCalc(t, config.Default())
	text := "12 + 30"
	in := source.NewReader(source.NewQueue(source.New("a", []byte(text))))
	h := sha256.New()
	in.SetChecksum(h)
	_, e := p.ParseInput(context.Background(), in, nil)
	ExpectNoError(t, e)
	want := sha256.Sum256([]byte(text))
	Expect(t, string(h.Sum(nil)) == string(want[:]), want, h.Sum(nil))
}

func TestTrace(t *testing.T) {
	defer testconfig.QuickConfig(t)()
	p := newCalc(t, config.Default())
	counts := map[Phase]int{}
	var rules []int
	hs := &Hooks{Trace: func(e Event) {
		counts[e.Phase]++
		if e.Phase == Reduce {
			rules = append(rules, e.Rule)
		}
	}}
	parseInt(t, p, "1+2", hs)
	ExpectInt(t, 1, counts[Accept])
	ExpectInt(t, 3, counts[Shift])
	Assert(t, counts[Reduce] > 0 && counts[Reduce] == len(rules), "reduces: %v", counts)
	g := p.Tables().Grammar
	ExpectString(t, "sum = sum \"+\" prod", g.RuleString(rules[len(rules)-1]))
}

func TestSplice(t *testing.T) {
	defer testconfig.QuickConfig(t)()
	macros := map[string]string{"@two": "2", "@six": "@two * 3", "@empty": ""}
	b := calcBuilder()
	b.AddTerminal("macro", `@[a-z]+`, 0, 0, langdef.Whitespace).WithAction(langdef.NewTermAction("expand", lrx.KindString,
		func(_ langdef.ActionContext, text string) (lrx.Value, error) {
			return lrx.String(macros[text]), nil
		}))
	lang, e := b.Build(config.Default())
	ExpectNoError(t, e)
	p, e := New(lang)
	ExpectNoError(t, e)

	Expect(t, parseInt(t, p, "1+@six", nil) == 7, 7, "1+@six")
	Expect(t, parseInt(t, p, "@empty 1+@two@empty", nil) == 3, 3, "@empty 1+@two@empty")
}

func TestActionContext(t *testing.T) {
	defer testconfig.QuickConfig(t)()
	type env struct {
		lines []int
	}
	b := langdef.New("lines")
	b.AddTerminal("space", `\s+`, 0, 0, langdef.Whitespace)
	b.AddTerminal("word", `[a-z]+`, 0, 0, 0)
	b.AddRule("text", "item*", nil)
	b.AddRule("item", "word", langdef.NewAction("item", 1, lrx.KindVoid,
		func(c langdef.ActionContext, _ []lrx.Value) (lrx.Value, error) {
			en := c.Env().(*env)
			en.lines = append(en.lines, c.Pos().Line())
			return lrx.Void(), nil
		}))
	lang, e := b.Build(config.Default())
	ExpectNoError(t, e)
	p, e := New(lang)
	ExpectNoError(t, e)

	en := &env{}
	_, e = p.ParseString(context.Background(), "a b\n\nc", &Hooks{Env: en})
	ExpectNoError(t, e)
	Expect(t, len(en.lines) == 3 && en.lines[0] == 1 && en.lines[1] == 1 && en.lines[2] == 3, "[1 1 3]", en.lines)
}

func TestBuiltinValues(t *testing.T) {
	defer testconfig.QuickConfig(t)()
	b := langdef.New("list")
	b.AddTerminal("space", `\s+`, 0, 0, langdef.Whitespace)
	b.AddTerminal("num", `[0-9]+`, 0, 10, 0)
	b.AddTerminal("name", `[a-z]+`, 0, 0, 0)
	b.AddRule("list", "'[' (num (',' num)*)? ']' name?", langdef.NewAction("pack", 2, lrx.KindObject,
		func(_ langdef.ActionContext, args []lrx.Value) (lrx.Value, error) {
			return lrx.Object(append([]lrx.Value(nil), args...)), nil
		}))
	lang, e := b.Build(config.Default())
	ExpectNoError(t, e)
	p, e := New(lang)
	ExpectNoError(t, e)

	v, e := p.ParseString(context.Background(), "[1, 2, 3] x", nil)
	ExpectNoError(t, e)
	res := v.Obj.([]lrx.Value)
	items, found := langdef.Optional(res[0])
	ExpectBool(t, true, found)
	tuple := items.Obj.([]lrx.Value)
	ExpectInt(t, 2, len(tuple))
	Expect(t, tuple[0].Int == 1, 1, tuple[0])
	ExpectInt(t, 2, len(langdef.List(tuple[1])))
	name, found := langdef.Optional(res[1])
	ExpectBool(t, true, found)
	ExpectString(t, "x", name.Str)

	v, e = p.ParseString(context.Background(), "[]", nil)
	ExpectNoError(t, e)
	res = v.Obj.([]lrx.Value)
	_, found = langdef.Optional(res[0])
	ExpectBool(t, false, found)
}

func TestNewFromTables(t *testing.T) {
	defer testconfig.QuickConfig(t)()
	lang, e := calcBuilder().Build(config.Default())
	ExpectNoError(t, e)
	tab, e := automaton.Build(lang.Grammar, lang.Config.LrkLevel)
	ExpectNoError(t, e)
	data, e := json.Marshal(tab)
	ExpectNoError(t, e)

	loaded := &grammar.Tables{}
	ExpectNoError(t, json.Unmarshal(data, loaded))
	bindings := Bindings{Rules: map[string]langdef.RuleFunc{}}
	for _, a := range []*langdef.Action{addAction, subAction, mulAction, divAction} {
		bindings.Rules[a.Name] = a.Fn
	}
	_, e = NewFromTables(loaded, bindings, config.Default())
	ExpectErrorCode(t, UnknownActionError, e)
	Assert(t, strings.Contains(e.Error(), "neg"), "unexpected error %q", e.Error())

	bindings.Rules[negAction.Name] = negAction.Fn
	p, e := NewFromTables(loaded, bindings, config.Default())
	ExpectNoError(t, e)
	Expect(t, parseInt(t, p, "123+2*(3+4)/2+-200", nil) == -70, -70, "calc")
}
