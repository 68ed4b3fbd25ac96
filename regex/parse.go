package regex

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/rangetable"

	"github.com/ava12/lrx/rangeset"
)

// MaxRepeat limits bounded repetition counts.
const MaxRepeat = 1000

type nodeKind uint8

const (
	nodeEmpty nodeKind = iota
	nodeSet
	nodeConcat
	nodeAlt
	nodeRepeat
)

// node is a syntax tree node. nodeSet nodes match one code point from set
// or, for pseudo sets, a zero-width assertion.
type node struct {
	kind     nodeKind
	set      *rangeset.Set
	subs     []*node
	min, max int // for nodeRepeat, max < 0 means unbounded
}

var (
	digitTable = rangetable.New('0', '1', '2', '3', '4', '5', '6', '7', '8', '9')
	spaceTable = rangetable.New(' ', '\t', '\n', '\f', '\r')
	wordTable  = rangetable.Merge(digitTable, asciiLetters(), rangetable.New('_'))
)

func asciiLetters() *unicode.RangeTable {
	rs := make([]rune, 0, 52)
	for c := 'A'; c <= 'Z'; c++ {
		rs = append(rs, c, c+'a'-'A')
	}
	return rangetable.New(rs...)
}

type parser struct {
	src      string
	runes    []rune
	pos      int
	caseless bool
}

func parse(src string, caseless bool) (*node, error) {
	p := &parser{src: src, runes: []rune(src), caseless: caseless}
	if strings.HasPrefix(src, "(?i)") {
		p.caseless = true
		p.pos = 4
	}

	n, e := p.parseAlt()
	if e != nil {
		return nil, e
	}
	if p.pos < len(p.runes) {
		return nil, p.error("unexpected %q", p.runes[p.pos])
	}
	return n, nil
}

func (p *parser) error(msg string, params ...any) error {
	return syntaxError(p.src, p.pos, msg, params...)
}

func (p *parser) eof() bool {
	return p.pos >= len(p.runes)
}

func (p *parser) peek() rune {
	if p.eof() {
		return -1
	}
	return p.runes[p.pos]
}

func (p *parser) next() rune {
	c := p.peek()
	if c >= 0 {
		p.pos++
	}
	return c
}

func (p *parser) parseAlt() (*node, error) {
	var alts []*node
	for {
		n, e := p.parseConcat()
		if e != nil {
			return nil, e
		}
		alts = append(alts, n)
		if p.peek() != '|' {
			break
		}
		p.pos++
	}

	if len(alts) == 1 {
		return alts[0], nil
	}
	return &node{kind: nodeAlt, subs: alts}, nil
}

func (p *parser) parseConcat() (*node, error) {
	var items []*node
	for !p.eof() && p.peek() != '|' && p.peek() != ')' {
		n, e := p.parseRepeat()
		if e != nil {
			return nil, e
		}
		items = append(items, n)
	}

	switch len(items) {
	case 0:
		return &node{kind: nodeEmpty}, nil
	case 1:
		return items[0], nil
	default:
		return &node{kind: nodeConcat, subs: items}, nil
	}
}

func (p *parser) parseRepeat() (*node, error) {
	n, e := p.parseAtom()
	if e != nil {
		return nil, e
	}

	for {
		lo, hi := 0, 0
		switch p.peek() {
		case '*':
			lo, hi = 0, -1
		case '+':
			lo, hi = 1, -1
		case '?':
			lo, hi = 0, 1
		case '{':
			var valid bool
			lo, hi, valid, e = p.parseBounds()
			if e != nil {
				return nil, e
			}
			if !valid {
				return n, nil
			}
		default:
			return n, nil
		}

		if n.kind == nodeSet && n.set.HasPseudo() {
			return nil, p.error("assertion cannot be repeated")
		}
		p.pos++
		n = &node{kind: nodeRepeat, subs: []*node{n}, min: lo, max: hi}
	}
}

// parseBounds parses {m}, {m,} or {m,n} leaving closing brace unconsumed.
// A brace not followed by a valid bound is a literal.
func (p *parser) parseBounds() (lo, hi int, valid bool, e error) {
	start := p.pos
	end := start + 1
	for end < len(p.runes) && p.runes[end] != '}' {
		end++
	}
	if end >= len(p.runes) {
		return 0, 0, false, nil
	}

	body := string(p.runes[start+1 : end])
	los, his, hasComma := strings.Cut(body, ",")
	lo, e1 := strconv.Atoi(los)
	if e1 != nil || lo < 0 {
		return 0, 0, false, nil
	}

	hi = lo
	if hasComma {
		if his == "" {
			hi = -1
		} else {
			var e2 error
			hi, e2 = strconv.Atoi(his)
			if e2 != nil {
				return 0, 0, false, nil
			}
		}
	}

	if lo > MaxRepeat || hi > MaxRepeat || (hi >= 0 && hi < lo) {
		return 0, 0, false, p.error("invalid repeat count {%s}", body)
	}

	p.pos = end
	return lo, hi, true, nil
}

func (p *parser) literal(c rune) *node {
	return p.setNode(rangeset.Runes(c))
}

func (p *parser) setNode(s *rangeset.Set) *node {
	return &node{kind: nodeSet, set: p.classSet(s, false)}
}

// classSet folds a positive set and then complements it if negated,
// the result is closed under case folding either way.
func (p *parser) classSet(s *rangeset.Set, negated bool) *rangeset.Set {
	if p.caseless {
		s = foldSet(s)
	}
	if negated {
		s = s.Complement()
	}
	return s
}

func assertion(a int) *node {
	return &node{kind: nodeSet, set: rangeset.New(rangeset.Single(a))}
}

func (p *parser) parseAtom() (*node, error) {
	c := p.next()
	switch c {
	case '(':
		if strings.HasPrefix(string(p.runes[p.pos:]), "?:") {
			p.pos += 2
		}
		n, e := p.parseAlt()
		if e != nil {
			return nil, e
		}
		if p.next() != ')' {
			return nil, p.error("missing closing parenthesis")
		}
		return n, nil

	case '[':
		s, e := p.parseClass()
		if e != nil {
			return nil, e
		}
		return &node{kind: nodeSet, set: s}, nil

	case '.':
		return &node{kind: nodeSet, set: rangeset.Runes('\n').Complement()}, nil

	case '^':
		return assertion(rangeset.LineStart), nil

	case '$':
		return assertion(rangeset.LineEnd), nil

	case '\\':
		return p.parseEscape()

	case '*', '+', '?':
		p.pos--
		return nil, p.error("missing repeat argument")

	default:
		return p.literal(c), nil
	}
}

func (p *parser) parseEscape() (*node, error) {
	if p.eof() {
		return nil, p.error("trailing backslash")
	}

	switch p.peek() {
	case 'b':
		p.pos++
		return assertion(rangeset.WordBoundary), nil
	case 'B':
		p.pos++
		return assertion(rangeset.NotWordBoundary), nil
	}

	s, negated, e := p.parseClassEscape()
	if e != nil {
		return nil, e
	}
	return &node{kind: nodeSet, set: p.classSet(s, negated)}, nil
}

// parseClassEscape parses escape sequence after backslash producing a positive set
// and a flag telling that the set is to be complemented.
func (p *parser) parseClassEscape() (*rangeset.Set, bool, error) {
	c := p.next()
	switch c {
	case 'd', 'D':
		return fromTable(digitTable), c == 'D', nil
	case 's', 'S':
		return fromTable(spaceTable), c == 'S', nil
	case 'w', 'W':
		return fromTable(wordTable), c == 'W', nil
	case 'p', 'P':
		s, e := p.parseProperty()
		return s, c == 'P', e
	}

	r, e := p.parseCharEscape(c)
	if e != nil {
		return nil, false, e
	}
	return rangeset.Runes(r), false, nil
}

func (p *parser) parseCharEscape(c rune) (rune, error) {
	switch c {
	case 'n':
		return '\n', nil
	case 't':
		return '\t', nil
	case 'r':
		return '\r', nil
	case 'f':
		return '\f', nil
	case 'v':
		return '\v', nil
	case 'a':
		return '\a', nil
	case '0':
		return 0, nil
	case 'x':
		if p.peek() == '{' {
			p.pos++
			return p.parseHex(-1, '}')
		}
		return p.parseHex(2, -1)
	case 'u':
		return p.parseHex(4, -1)
	}

	if c < 0 {
		return 0, p.error("trailing backslash")
	}
	if c < 0x80 && (unicode.IsLetter(c) || unicode.IsDigit(c)) {
		p.pos--
		return 0, p.error("invalid escape sequence \\%c", c)
	}
	return c, nil
}

// parseHex reads exactly size hex digits or digits up to terminator.
func (p *parser) parseHex(size int, terminator rune) (rune, error) {
	start := p.pos
	for !p.eof() && (size < 0 || p.pos-start < size) && p.peek() != terminator {
		p.pos++
	}
	digits := string(p.runes[start:p.pos])
	if terminator >= 0 {
		if p.next() != terminator {
			return 0, p.error("unterminated hex escape")
		}
	}

	value, e := strconv.ParseUint(digits, 16, 32)
	if e != nil || (size > 0 && len(digits) != size) || value >= rangeset.Limit {
		return 0, p.error("invalid hex escape %q", digits)
	}
	return rune(value), nil
}

func (p *parser) parseProperty() (*rangeset.Set, error) {
	var name string
	if p.peek() == '{' {
		p.pos++
		start := p.pos
		for !p.eof() && p.peek() != '}' {
			p.pos++
		}
		if p.eof() {
			return nil, p.error("unterminated property name")
		}
		name = string(p.runes[start:p.pos])
		p.pos++
	} else if !p.eof() {
		name = string(p.next())
	}

	if name == "Any" {
		return rangeset.New(rangeset.Range{From: 0, To: rangeset.Limit}), nil
	}

	var tables []*unicode.RangeTable
	for _, m := range []map[string]*unicode.RangeTable{unicode.Categories, unicode.Scripts, unicode.Properties} {
		if t, found := m[name]; found {
			tables = append(tables, t)
		}
	}
	if len(tables) == 0 {
		return nil, p.error("unknown character property %q", name)
	}
	return fromTable(rangetable.Merge(tables...)), nil
}

func (p *parser) parseClass() (*rangeset.Set, error) {
	negate := false
	if p.peek() == '^' {
		negate = true
		p.pos++
	}

	s := &rangeset.Set{}
	// closed collects negated escapes, already folded when caseless.
	closed := &rangeset.Set{}
	first := true
	for {
		if p.eof() {
			return nil, p.error("missing closing bracket")
		}

		c := p.next()
		if c == ']' && !first {
			break
		}
		first = false

		var lo rune
		if c == '\\' {
			if p.eof() {
				return nil, p.error("trailing backslash")
			}
			switch p.peek() {
			case 'd', 'D', 's', 'S', 'w', 'W', 'p', 'P':
				cs, negated, e := p.parseClassEscape()
				if e != nil {
					return nil, e
				}
				if negated {
					closed.Union(p.classSet(cs, true))
				} else {
					s.Union(cs)
				}
				continue
			}

			var e error
			lo, e = p.parseCharEscape(p.next())
			if e != nil {
				return nil, e
			}
		} else {
			lo = c
		}

		hi := lo
		if p.peek() == '-' && p.pos+1 < len(p.runes) && p.runes[p.pos+1] != ']' {
			p.pos++
			c = p.next()
			if c == '\\' {
				var e error
				hi, e = p.parseCharEscape(p.next())
				if e != nil {
					return nil, e
				}
			} else {
				hi = c
			}
			if hi < lo {
				return nil, p.error("invalid class range %c-%c", lo, hi)
			}
		}
		s.Add(rangeset.Range{From: int(lo), To: int(hi) + 1})
	}

	if p.caseless {
		s = foldSet(s)
	}
	s.Union(closed)
	if negate {
		s = s.Complement()
	}
	return s, nil
}

func fromTable(t *unicode.RangeTable) *rangeset.Set {
	s := &rangeset.Set{}
	for _, r := range t.R16 {
		addStride(s, int(r.Lo), int(r.Hi), int(r.Stride))
	}
	for _, r := range t.R32 {
		addStride(s, int(r.Lo), int(r.Hi), int(r.Stride))
	}
	return s
}

func addStride(s *rangeset.Set, lo, hi, stride int) {
	if stride == 1 {
		s.Add(rangeset.Range{From: lo, To: hi + 1})
		return
	}
	for c := lo; c <= hi; c += stride {
		s.Add(rangeset.Single(c))
	}
}

// maxFolding is above the largest code point having simple case folding.
const maxFolding = 0x1e944

// foldSet adds all simple case folding equivalents of set members.
func foldSet(s *rangeset.Set) *rangeset.Set {
	res := s.Copy()
	for _, r := range s.Ranges() {
		for c := max(r.From, 0); c < min(r.To, maxFolding); c++ {
			for f := unicode.SimpleFold(rune(c)); int(f) != c; f = unicode.SimpleFold(f) {
				res.AddRune(f)
			}
		}
	}
	return res
}
