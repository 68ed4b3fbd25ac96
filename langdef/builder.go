// Package langdef provides the grammar construction API.
//
// Terminals are defined with regular expressions, rules are written as strings:
//
//	b := langdef.New("calc")
//	b.AddTerminal("space", `\s+`, 0, 0, langdef.Whitespace)
//	b.AddTerminal("num", `[0-9]+`, 0, 10, 0)
//	b.AddRule("sum", "sum '+' num", add)
//	b.AddRule("sum", "num", nil)
//	b.AddRule("list", "sum (',' sum)* ','?", makeList)
//
// Rule bodies consist of terminal and nonterminal names, quoted literals ('x' or "x"),
// groups in parentheses with alternatives separated by |, and suffixes * + ?.
// Quoted literals are registered as anonymous terminals on first use.
// Quantifiers and groups are replaced with synthetic helper nonterminals
// producing lists, optional values or tuples.
//
// Errors are collected and reported together by Build.
package langdef

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/emirpasic/gods/maps/treemap"
	"go.uber.org/multierr"

	"github.com/ava12/lrx/grammar"
)

// TermOption holds terminal options.
type TermOption uint8

const (
	// Whitespace terminals are skipped by scanners.
	Whitespace TermOption = 1 << iota
	// Caseless terminals ignore letter case.
	Caseless
	// FixedEnder terminals end at the first occurrence of their trailing literal.
	FixedEnder
	// Immediate terminals are accepted as soon as they match.
	Immediate
	// Silent terminals produce no value.
	Silent
)

// LiteralPriority is the priority of quoted literals, named terminals default to 0.
const LiteralPriority = 1

type termDef struct {
	name     string
	expr     string
	priority int
	base     int
	flags    grammar.TermFlags
	silent   bool
	action   *TermAction
}

// Terminal refers to a defined terminal.
type Terminal struct {
	def *termDef
}

// WithAction sets terminal action.
func (t *Terminal) WithAction(a *TermAction) *Terminal {
	t.def.action = a
	return t
}

type helperKind uint8

const (
	noHelper helperKind = iota
	helperListEmpty
	helperListOne
	helperListAppend
	helperOptNone
	helperOptSome
	helperGroup
)

type symRef struct {
	name    string
	literal bool
}

type ruleDef struct {
	lhs    string
	rhs    []symRef
	action *Action
	helper helperKind
	// item is the repeated or optional symbol of list and optional helpers
	item symRef
}

type ntDef struct {
	name      string
	rules     []int
	synthetic bool
}

// Builder collects terminal and rule definitions.
// A builder is not safe for concurrent use.
type Builder struct {
	name     string
	terms    []*termDef
	termIdx  *treemap.Map // name -> *termDef
	literals *treemap.Map // text -> *termDef
	nonterms []*ntDef
	ntIdx    *treemap.Map // name -> *ntDef
	rules    []*ruleDef
	errs     error
}

func New(name string) *Builder {
	return &Builder{
		name:     name,
		termIdx:  treemap.NewWithStringComparator(),
		literals: treemap.NewWithStringComparator(),
		ntIdx:    treemap.NewWithStringComparator(),
	}
}

var termNameRe = regexp.MustCompile(`^[\pL_][\pL\pN_.-]*$`)

// AddTerminal defines a named terminal.
// Terminals with non-zero base produce integer values parsed in that base,
// other terminals produce their text unless Silent or having an action.
func (b *Builder) AddTerminal(name, expr string, priority, base int, opts TermOption) *Terminal {
	def := &termDef{name: name, expr: expr, priority: priority, base: base, silent: opts&Silent != 0}
	if opts&Whitespace != 0 {
		def.flags |= grammar.WhitespaceTerm
	}
	if opts&Caseless != 0 {
		def.flags |= grammar.CaselessTerm
	}
	if opts&FixedEnder != 0 {
		def.flags |= grammar.FixedEnderTerm
	}
	if opts&Immediate != 0 {
		def.flags |= grammar.ImmediateTerm
	}

	if !termNameRe.MatchString(name) {
		b.errs = multierr.Append(b.errs, terminalNameError(name))
	} else if _, found := b.termIdx.Get(name); found {
		b.errs = multierr.Append(b.errs, duplicateTerminalError(name))
	} else {
		b.terms = append(b.terms, def)
		b.termIdx.Put(name, def)
	}
	return &Terminal{def}
}

func (b *Builder) literal(text string) *termDef {
	if def, found := b.literals.Get(text); found {
		return def.(*termDef)
	}

	def := &termDef{
		name:     text,
		expr:     regexp.QuoteMeta(text),
		priority: LiteralPriority,
		flags:    grammar.LiteralTerm,
		silent:   true,
	}
	b.terms = append(b.terms, def)
	b.literals.Put(text, def)
	return def
}

func (b *Builder) nonterm(name string, synthetic bool) *ntDef {
	if nt, found := b.ntIdx.Get(name); found {
		return nt.(*ntDef)
	}

	nt := &ntDef{name: name, synthetic: synthetic}
	b.nonterms = append(b.nonterms, nt)
	b.ntIdx.Put(name, nt)
	return nt
}

func (b *Builder) addRule(lhs string, rhs []symRef, action *Action, helper helperKind) {
	b.addHelperRule(lhs, rhs, helper, symRef{})
	b.rules[len(b.rules)-1].action = action
}

func (b *Builder) addHelperRule(lhs string, rhs []symRef, helper helperKind, item symRef) {
	nt := b.nonterm(lhs, helper != noHelper)
	nt.rules = append(nt.rules, len(b.rules))
	b.rules = append(b.rules, &ruleDef{lhs: lhs, rhs: rhs, helper: helper, item: item})
}

// AddRule parses rule body and adds rules for lhs nonterminal, one rule per top-level alternative.
// action may be nil for rules passing through their only value.
func (b *Builder) AddRule(lhs, rhs string, action *Action) {
	items, e := parseRhs(rhs)
	if e == nil && !isName(lhs) {
		e = ruleSyntaxError(lhs, rhs, "incorrect nonterminal name")
	}
	if e != nil {
		if le, valid := e.(*rhsError); valid {
			e = ruleSyntaxError(lhs, rhs, le.msg)
		}
		b.errs = multierr.Append(b.errs, e)
		return
	}

	b.nonterm(lhs, false)
	for _, alt := range items.alts {
		b.addRule(lhs, b.desugar(alt), action, noHelper)
	}
}

// desugar replaces groups and quantified items with helper nonterminals.
func (b *Builder) desugar(seq []rhsItem) []symRef {
	res := make([]symRef, len(seq))
	for i, item := range seq {
		res[i] = b.itemRef(item)
	}
	return res
}

func (b *Builder) itemRef(item rhsItem) symRef {
	var base symRef
	switch {
	case item.literal:
		b.literal(item.text)
		base = symRef{item.text, true}
	case item.alts != nil:
		base = b.groupHelper(item)
	default:
		base = symRef{name: item.text}
	}

	if item.suffix == 0 {
		return base
	}

	name := item.String()
	if _, found := b.ntIdx.Get(name); found {
		return symRef{name: name}
	}

	self := symRef{name: name}
	switch item.suffix {
	case '*':
		b.addHelperRule(name, nil, helperListEmpty, base)
		b.addHelperRule(name, []symRef{self, base}, helperListAppend, base)
	case '+':
		b.addHelperRule(name, []symRef{base}, helperListOne, base)
		b.addHelperRule(name, []symRef{self, base}, helperListAppend, base)
	case '?':
		b.addHelperRule(name, nil, helperOptNone, base)
		b.addHelperRule(name, []symRef{base}, helperOptSome, base)
	}
	return self
}

func (b *Builder) groupHelper(item rhsItem) symRef {
	group := rhsItem{alts: item.alts}
	name := group.String()
	if _, found := b.ntIdx.Get(name); !found {
		b.nonterm(name, true)
		for _, alt := range item.alts {
			b.addHelperRule(name, b.desugar(alt), helperGroup, symRef{})
		}
	}
	return symRef{name: name}
}

// rhsItem is a parsed rule body element: a name, a literal or a group, with optional suffix.
type rhsItem struct {
	text    string
	literal bool
	alts    [][]rhsItem
	suffix  byte
}

func (item rhsItem) String() string {
	var s string
	switch {
	case item.literal:
		s = quote(item.text)
	case item.alts != nil:
		parts := make([]string, len(item.alts))
		for i, alt := range item.alts {
			words := make([]string, len(alt))
			for j, x := range alt {
				words[j] = x.String()
			}
			parts[i] = strings.Join(words, " ")
		}
		s = "(" + strings.Join(parts, " | ") + ")"
	default:
		s = item.text
	}
	if item.suffix != 0 {
		s += string(item.suffix)
	}
	return s
}

func quote(text string) string {
	if !strings.Contains(text, "'") {
		return "'" + text + "'"
	}
	return `"` + strings.ReplaceAll(strings.ReplaceAll(text, `\`, `\\`), `"`, `\"`) + `"`
}

type rhsError struct {
	msg string
}

func (e *rhsError) Error() string {
	return e.msg
}

type rhsParser struct {
	text []rune
	pos  int
}

// parseRhs parses rule body into a group item containing top-level alternatives.
func parseRhs(text string) (rhsItem, error) {
	p := &rhsParser{text: []rune(text)}
	alts, e := p.parseAlts()
	if e == nil && p.skipSpace() {
		e = &rhsError{"unexpected " + string(p.text[p.pos])}
	}
	return rhsItem{alts: alts}, e
}

// skipSpace returns true if there is non-space text left.
func (p *rhsParser) skipSpace() bool {
	for p.pos < len(p.text) && unicode.IsSpace(p.text[p.pos]) {
		p.pos++
	}
	return p.pos < len(p.text)
}

func (p *rhsParser) parseAlts() ([][]rhsItem, error) {
	var alts [][]rhsItem
	for {
		seq, e := p.parseSeq()
		if e != nil {
			return nil, e
		}
		alts = append(alts, seq)
		if !p.skipSpace() || p.text[p.pos] != '|' {
			return alts, nil
		}
		p.pos++
	}
}

func (p *rhsParser) parseSeq() ([]rhsItem, error) {
	seq := []rhsItem{}
	for p.skipSpace() {
		c := p.text[p.pos]
		if c == '|' || c == ')' {
			break
		}

		item, e := p.parseItem()
		if e != nil {
			return nil, e
		}
		seq = append(seq, item)
	}
	return seq, nil
}

func (p *rhsParser) parseItem() (rhsItem, error) {
	var item rhsItem
	c := p.text[p.pos]
	switch {
	case c == '\'' || c == '"':
		text, e := p.parseLiteral(c)
		if e != nil {
			return item, e
		}
		item = rhsItem{text: text, literal: true}

	case c == '(':
		p.pos++
		alts, e := p.parseAlts()
		if e != nil {
			return item, e
		}
		if !p.skipSpace() || p.text[p.pos] != ')' {
			return item, &rhsError{"missing closing parenthesis"}
		}
		p.pos++
		item = rhsItem{alts: alts}

	case isNameChar(c, true):
		start := p.pos
		for p.pos < len(p.text) && isNameChar(p.text[p.pos], false) {
			p.pos++
		}
		item = rhsItem{text: string(p.text[start:p.pos])}

	default:
		return item, &rhsError{"unexpected " + string(c)}
	}

	if p.pos < len(p.text) {
		switch p.text[p.pos] {
		case '*', '+', '?':
			item.suffix = byte(p.text[p.pos])
			p.pos++
		}
	}
	return item, nil
}

func (p *rhsParser) parseLiteral(quote rune) (string, error) {
	p.pos++
	sb := strings.Builder{}
	for p.pos < len(p.text) {
		c := p.text[p.pos]
		p.pos++
		switch c {
		case quote:
			if sb.Len() == 0 {
				return "", &rhsError{"empty literal"}
			}
			return sb.String(), nil
		case '\\':
			if p.pos < len(p.text) {
				c = p.text[p.pos]
				p.pos++
			}
		}
		sb.WriteRune(c)
	}
	return "", &rhsError{"unterminated literal"}
}

func isNameChar(c rune, first bool) bool {
	return c == '_' || unicode.IsLetter(c) || (!first && (unicode.IsDigit(c) || c == '.' || c == '-'))
}

func isName(s string) bool {
	for i, c := range s {
		if !isNameChar(c, i == 0) {
			return false
		}
	}
	return s != ""
}
