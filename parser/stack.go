package parser

import (
	"github.com/ava12/lrx"
	"github.com/ava12/lrx/source"
)

// valueStack keeps values in one slice per kind.
// tags record the kind of every logical slot, void slots occupy a tag only.
type valueStack struct {
	tags   []lrx.Kind
	pos    []source.Pos
	ints   []int64
	floats []float64
	strs   []string
	objs   []any
}

func (s *valueStack) Len() int {
	return len(s.tags)
}

func (s *valueStack) Push(v lrx.Value, pos source.Pos) {
	s.tags = append(s.tags, v.Kind)
	s.pos = append(s.pos, pos)
	switch v.Kind {
	case lrx.KindInt:
		s.ints = append(s.ints, v.Int)
	case lrx.KindFloat:
		s.floats = append(s.floats, v.Float)
	case lrx.KindString:
		s.strs = append(s.strs, v.Str)
	case lrx.KindObject:
		s.objs = append(s.objs, v.Obj)
	}
}

// Pop removes n slots and appends their non-void values to args in stack order.
// The position of the first removed slot is returned, or def if n is 0.
func (s *valueStack) Pop(n int, args []lrx.Value, def source.Pos) ([]lrx.Value, source.Pos) {
	base := len(s.tags) - n
	pos := def
	if n > 0 {
		pos = s.pos[base]
	}

	var ni, nf, ns, no int
	for _, k := range s.tags[base:] {
		switch k {
		case lrx.KindInt:
			ni++
		case lrx.KindFloat:
			nf++
		case lrx.KindString:
			ns++
		case lrx.KindObject:
			no++
		}
	}
	ni, nf, ns, no = len(s.ints)-ni, len(s.floats)-nf, len(s.strs)-ns, len(s.objs)-no

	for _, k := range s.tags[base:] {
		switch k {
		case lrx.KindInt:
			args = append(args, lrx.Int(s.ints[ni]))
			ni++
		case lrx.KindFloat:
			args = append(args, lrx.Float(s.floats[nf]))
			nf++
		case lrx.KindString:
			args = append(args, lrx.String(s.strs[ns]))
			ns++
		case lrx.KindObject:
			args = append(args, lrx.Object(s.objs[no]))
			s.objs[no] = nil
			no++
		}
	}

	s.truncate(base)
	return args, pos
}

func (s *valueStack) truncate(base int) {
	var ni, nf, ns, no int
	for _, k := range s.tags[base:] {
		switch k {
		case lrx.KindInt:
			ni++
		case lrx.KindFloat:
			nf++
		case lrx.KindString:
			ns++
		case lrx.KindObject:
			no++
		}
	}
	s.tags = s.tags[:base]
	s.pos = s.pos[:base]
	s.ints = s.ints[:len(s.ints)-ni]
	s.floats = s.floats[:len(s.floats)-nf]
	s.strs = s.strs[:len(s.strs)-ns]
	clear(s.objs[len(s.objs)-no:])
	s.objs = s.objs[:len(s.objs)-no]
}

// Top returns the value of the topmost slot.
func (s *valueStack) Top() lrx.Value {
	if len(s.tags) == 0 {
		return lrx.Void()
	}
	args, _ := s.Peek(1, nil)
	if len(args) == 0 {
		return lrx.Void()
	}
	return args[0]
}

// Peek is like Pop but leaves the stack intact.
func (s *valueStack) Peek(n int, args []lrx.Value) ([]lrx.Value, source.Pos) {
	c := *s
	c.objs = append([]any(nil), s.objs...)
	return c.Pop(n, args, source.Pos{})
}

func (s *valueStack) Reset() {
	s.truncate(0)
}
