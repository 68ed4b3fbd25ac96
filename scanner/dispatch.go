package scanner

import (
	"strings"

	"github.com/ava12/lrx"
	"github.com/ava12/lrx/grammar"
	"github.com/ava12/lrx/source"
)

// Scan fetches the longest token accepted by a scanner starting at current input position
// and leaves the input right after it.
// If nothing matches one code point is consumed and returned as a grammar.ErrorId token.
func Scan(g *grammar.Grammar, sc *grammar.Scanner, in source.Input) *Token {
	pos := in.Pos()
	start := in.Mark()
	prev := -1
	if in.Unread(1) == 1 {
		c, _ := in.Read()
		prev = int(c)
	}

	token, size, end := -1, 0, start
	state := 0
	sb := strings.Builder{}
	for {
		m := in.Mark()
		c, ok := in.Read()
		next := -1
		if ok {
			next = int(c)
		}

		state = sc.Settle(state, prev, next)
		if accept := sc.States[state].Accept; accept >= 0 {
			token, size, end = accept, sb.Len(), m
		}
		if !ok {
			break
		}
		state = sc.Next(state, next)
		if state < 0 {
			break
		}
		sb.WriteRune(c)
		prev = next
	}

	if token >= 0 {
		in.Reset(end)
		return NewToken(token, g.Symbols[token].Name, sb.String()[:size], pos, start, end)
	}

	in.Reset(start)
	c, ok := in.Read()
	if !ok {
		return NewToken(grammar.EofId, g.Symbols[grammar.EofId].Name, "", pos, start, start)
	}
	return NewToken(grammar.ErrorId, g.Symbols[grammar.ErrorId].Name, string(c), pos, start, in.Mark())
}

// Splicer is implemented by inputs that can take text produced by whitespace actions.
type Splicer interface {
	Prepend(s *source.Source)
}

// WhitespaceFunc is called for every skipped whitespace token.
// A non-nil source is read before the rest of input.
type WhitespaceFunc func(t *Token) (*source.Source, error)

// Dispatcher fetches tokens using the scanner of current legal set and skips whitespace.
type Dispatcher struct {
	tables     *grammar.Tables
	in         source.Input
	whitespace WhitespaceFunc
}

func NewDispatcher(t *grammar.Tables, in source.Input, ws WhitespaceFunc) *Dispatcher {
	return &Dispatcher{tables: t, in: in, whitespace: ws}
}

func (d *Dispatcher) Input() source.Input {
	return d.in
}

// Next returns the next non-whitespace token for a legal set.
func (d *Dispatcher) Next(legal int) (*Token, error) {
	return d.next(legal, d.whitespace)
}

// Skim is like Next but skips whitespace without calling the whitespace function.
// It is used for tokens that will be scanned again.
func (d *Dispatcher) Skim(legal int) *Token {
	t, _ := d.next(legal, nil)
	return t
}

func (d *Dispatcher) next(legal int, ws WhitespaceFunc) (*Token, error) {
	g := d.tables.Grammar
	sc := &d.tables.Scanners[legal]
	for {
		t := Scan(g, sc, d.in)
		if t.Type() < grammar.FirstTerminal || !g.IsWhitespace(t.Type()) {
			return t, nil
		}
		if ws == nil {
			continue
		}

		src, e := ws(t)
		if e != nil {
			return nil, e
		}
		if src == nil {
			continue
		}

		splicer, valid := d.in.(Splicer)
		if !valid {
			return nil, lrx.FormatErrorPos(t, SpliceError, "input cannot take text produced by %s", t.TypeName())
		}
		tracer().Debugf("splicing %q after %s", src.Name(), t.TypeName())
		splicer.Prepend(src)
	}
}

// Reset returns the input to a mark taken before a token.
func (d *Dispatcher) Reset(m source.Mark) {
	d.in.Reset(m)
}
