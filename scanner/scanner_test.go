package scanner

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/npillmayer/schuko/testconfig"

	"github.com/ava12/lrx"
	"github.com/ava12/lrx/automaton"
	"github.com/ava12/lrx/config"
	"github.com/ava12/lrx/grammar"
	"github.com/ava12/lrx/internal/test"
	"github.com/ava12/lrx/langdef"
	"github.com/ava12/lrx/source"
)

type termDef struct {
	name, re string
	priority int
	opts     langdef.TermOption
}

// allTerms returns tables having a single scanner for all terminals of a grammar.
func allTerms(t *testing.T, whitespace []string, terms ...termDef) *grammar.Tables {
	t.Helper()
	b := langdef.New("test")
	for _, td := range terms {
		b.AddTerminal(td.name, td.re, td.priority, 0, td.opts)
	}
	b.AddRule("s", terms[0].name, nil)
	ep := config.Default()
	ep.Whitespace = whitespace
	lang, e := b.Build(ep)
	test.ExpectNoError(t, e)

	g := lang.Grammar
	sc, e := BuildAll(g)
	test.ExpectNoError(t, e)
	return &grammar.Tables{Grammar: g, Scanners: []grammar.Scanner{*sc}}
}

type tok struct {
	name, text string
}

func expectTokens(t *testing.T, expected, got []tok) {
	test.ExpectString(t, fmt.Sprint(expected), fmt.Sprint(got))
}

func scanAll(t *testing.T, tb *grammar.Tables, in source.Input, ws WhitespaceFunc) []tok {
	t.Helper()
	d := NewDispatcher(tb, in, ws)
	var res []tok
	for i := 0; i < 100; i++ {
		x, e := d.Next(0)
		test.ExpectNoError(t, e)
		if x.Type() == grammar.EofId {
			return res
		}
		res = append(res, tok{x.TypeName(), x.Text()})
	}
	t.Fatal("too many tokens")
	return nil
}

func TestLongestMatch(t *testing.T) {
	defer testconfig.QuickConfig(t)()
	tb := allTerms(t, nil,
		termDef{name: "num", re: `[0-9]+`},
		termDef{name: "float", re: `[0-9]+\.[0-9]+`},
		termDef{name: "name", re: `[a-z]+`},
	)
	got := scanAll(t, tb, source.FromString("12.5x12.y"), nil)
	expectTokens(t, []tok{
		{"float", "12.5"}, {"name", "x"}, {"num", "12"}, {"$error", "."}, {"name", "y"},
	}, got)
}

func TestPriorityAndAssertions(t *testing.T) {
	defer testconfig.QuickConfig(t)()
	tb := allTerms(t, []string{"space"},
		termDef{name: "name", re: `[a-z]+`},
		termDef{name: "kw", re: `do\b`, priority: 1},
		termDef{name: "head", re: `^#[a-z]+`},
		termDef{name: "hash", re: `#`},
		termDef{name: "space", re: `\s+`},
	)
	got := scanAll(t, tb, source.FromString("doing do\n#tag #x"), nil)
	expectTokens(t, []tok{
		{"name", "doing"}, {"kw", "do"}, {"head", "#tag"}, {"hash", "#"}, {"name", "x"},
	}, got)
}

func TestWhitespaceFolding(t *testing.T) {
	defer testconfig.QuickConfig(t)()
	tb := allTerms(t, []string{"space", "comment"},
		termDef{name: "num", re: `[0-9]+`},
		termDef{name: "op", re: `[-+*/()]`},
		termDef{name: "space", re: `[ \t\n]+`},
		termDef{name: "comment", re: `/\*.*\*/`, priority: 1, opts: langdef.FixedEnder},
	)

	parts := []string{"123", "+", "2", "*", "(", "3", "+", "4", ")", "/", "2", "+", "-", "200"}
	want := scanAll(t, tb, source.FromString(strings.Join(parts, "")), nil)
	test.ExpectInt(t, len(parts), len(want))

	fillers := []string{" ", "\t", "\n", "  \n ", "/* x */", " /* a */ /* b */ "}
	rnd := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		sb := strings.Builder{}
		for _, p := range parts {
			for n := rnd.Intn(3); n > 0; n-- {
				sb.WriteString(fillers[rnd.Intn(len(fillers))])
			}
			sb.WriteString(p)
		}
		text := sb.String()
		got := scanAll(t, tb, source.FromString(text), nil)
		test.Assert(t, fmt.Sprint(got) == fmt.Sprint(want), "%q: expecting %v, got %v", text, want, got)
	}
}

func TestSplice(t *testing.T) {
	defer testconfig.QuickConfig(t)()
	tb := allTerms(t, []string{"space", "macro"},
		termDef{name: "num", re: `[0-9]+`},
		termDef{name: "space", re: `\s+`},
		termDef{name: "macro", re: `@[a-z]+`},
	)
	macros := map[string]string{"@two": "2 @three", "@three": "3", "@none": ""}
	expand := func(x *Token) (*source.Source, error) {
		if x.TypeName() != "macro" {
			return nil, nil
		}
		return source.New(x.Text(), []byte(macros[x.Text()])), nil
	}

	got := scanAll(t, tb, source.FromString("1 @two 4 @none5"), expand)
	expectTokens(t, []tok{{"num", "1"}, {"num", "2"}, {"num", "3"}, {"num", "4"}, {"num", "5"}}, got)

	d := NewDispatcher(tb, struct{ source.Input }{source.FromString("@two")}, expand)
	_, e := d.Next(0)
	test.ExpectErrorCode(t, SpliceError, e)
}

func TestPositions(t *testing.T) {
	defer testconfig.QuickConfig(t)()
	tb := allTerms(t, []string{"space"},
		termDef{name: "num", re: `[0-9]+`},
		termDef{name: "space", re: `\s+`},
	)
	in := source.NewReader(source.NewQueue(source.New("input", []byte("1\n  ?"))))
	d := NewDispatcher(tb, in, nil)

	x, e := d.Next(0)
	test.ExpectNoError(t, e)
	test.ExpectInt(t, 1, x.Line())
	test.ExpectInt(t, 1, x.Col())

	x, e = d.Next(0)
	test.ExpectNoError(t, e)
	test.ExpectInt(t, grammar.ErrorId, x.Type())
	le := WrongChar(x)
	test.ExpectInt(t, WrongCharError, le.Code)
	test.ExpectInt(t, 2, le.Line)
	test.ExpectInt(t, 3, le.Col)
	test.ExpectString(t, "input", le.SourceName)
	test.Assert(t, strings.Contains(x.Title(tb.Grammar), `"?"`), "unexpected title %s", x.Title(tb.Grammar))

	x, e = d.Next(0)
	test.ExpectNoError(t, e)
	test.ExpectInt(t, grammar.EofId, x.Type())
	test.ExpectString(t, "end of input", x.Title(tb.Grammar))
}

func TestStateScopedScanners(t *testing.T) {
	defer testconfig.QuickConfig(t)()
	pair := langdef.NewAction("pair", 2, lrx.KindVoid, func(langdef.ActionContext, []lrx.Value) (lrx.Value, error) {
		return lrx.Void(), nil
	})
	b := langdef.New("pairs")
	b.AddTerminal("word", `[a-z]+`, 0, 0, 0)
	b.AddTerminal("rest", `[a-z =]+`, 0, 0, 0)
	b.AddRule("pair", "word '=' rest", pair)
	lang, e := b.Build(config.Default())
	test.ExpectNoError(t, e)
	tb, e := automaton.Build(lang.Grammar, 1)
	test.ExpectNoError(t, e)
	test.ExpectNoError(t, Build(tb))
	test.ExpectInt(t, len(tb.LegalSets), len(tb.Scanners))

	word, _ := lang.Grammar.SymbolByName("word")
	rest, _ := lang.Grammar.SymbolByName("rest")
	legal := func(state, term int) bool {
		for _, id := range tb.Scanners[tb.States[state].Legal].Terms {
			if id == term {
				return true
			}
		}
		return false
	}

	in := source.FromString("key=a = b")
	d := NewDispatcher(tb, in, nil)
	state := 0
	var got []tok
	for {
		x, e := d.Next(tb.States[state].Legal)
		test.ExpectNoError(t, e)
		if x.Type() == grammar.EofId {
			break
		}
		test.Assert(t, legal(state, x.Type()), "%s scanned in state %d", x.TypeName(), state)
		got = append(got, tok{x.TypeName(), x.Text()})
		m, found := tb.Move(state, x.Type())
		test.Assert(t, found, "no move on %s", x.TypeName())
		if m.Op != grammar.Shift {
			break
		}
		state = m.Arg
	}
	expectTokens(t, []tok{{"word", "key"}, {"=", "="}, {"rest", "a = b"}}, got)
	test.ExpectBool(t, true, legal(0, word))
	test.ExpectBool(t, false, legal(0, rest))

	b = langdef.New("clash")
	b.AddTerminal("word", `[a-z]+`, 0, 0, 0)
	b.AddTerminal("rest", `[a-z =]+`, 0, 0, 0)
	b.AddRule("s", "word | rest", nil)
	lang, e = b.Build(config.Default())
	test.ExpectNoError(t, e)
	tb, e = automaton.Build(lang.Grammar, 1)
	test.ExpectNoError(t, e)
	e = Build(tb)
	test.ExpectErrorCode(t, automaton.AmbiguousGrammarError, e)
	test.Assert(t, strings.Contains(e.Error(), "word"), "unexpected error %s", e)
}
