package rangeset

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

const modelSize = 64

type model [modelSize]bool

func (m *model) apply(r Range, value bool) {
	for c := max(r.From, 0); c < min(r.To, modelSize); c++ {
		m[c] = value
	}
}

func checkSet(t *testing.T, s *Set, m *model) {
	rs := s.Ranges()
	for i, r := range rs {
		require.Less(t, r.From, r.To, "empty range %v", r)
		if i > 0 {
			require.Less(t, rs[i-1].To, r.From, "ranges %v and %v overlap or touch", rs[i-1], r)
		}
	}
	for c := 0; c < modelSize; c++ {
		require.Equal(t, m[c], s.Contains(c), "code point %d in %s", c, s)
	}
}

func randomRange(rnd *rand.Rand) Range {
	from := rnd.Intn(modelSize)
	return Range{from, from + 1 + rnd.Intn(8)}
}

func TestSetRandomOperations(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	for round := 0; round < 200; round++ {
		s := &Set{}
		m := &model{}
		for step := 0; step < 30; step++ {
			r := randomRange(rnd)
			if rnd.Intn(3) == 0 {
				s.Remove(r)
				m.apply(r, false)
			} else {
				s.Add(r)
				m.apply(r, true)
			}
			checkSet(t, s, m)
		}

		c := s.Complement()
		require.False(t, c.Contains(0) && s.Contains(0))
		require.True(t, s.Equal(c.Complement()), "double complement of %s", s)
		require.True(t, c.Intersect(s).IsEmpty())
	}
}

func TestSetMergesTouching(t *testing.T) {
	s := New(Range{'a', 'c'}, Range{'d', 'f'})
	require.Len(t, s.Ranges(), 2)
	s.AddRune('c')
	require.Equal(t, []Range{{'a', 'f'}}, s.Ranges())
	require.Equal(t, "[a-e]", s.String())
}

func TestSetPseudo(t *testing.T) {
	s := New(Single(LineStart), Single(WordBoundary), Range{0, 10})
	require.Len(t, s.Ranges(), 3)
	require.True(t, s.HasPseudo())

	c := s.Complement()
	require.True(t, c.Contains(LineStart))
	require.False(t, c.Contains(5))
	require.True(t, c.Contains(10))
	require.True(t, c.Contains(Limit-1))
	require.True(t, s.Equal(c.Complement()))
	require.Equal(t, `[\b ^ '\x00'-'\t']`, s.String())
}

func TestIntersectSubtract(t *testing.T) {
	a := New(Range{0, 10}, Range{20, 30})
	b := New(Range{5, 25})
	require.Equal(t, []Range{{5, 10}, {20, 25}}, a.Intersect(b).Ranges())
	require.Equal(t, []Range{{0, 5}, {25, 30}}, a.Copy().Subtract(b).Ranges())
	require.Equal(t, []Range{{0, 30}}, a.Union(b).Ranges())
}

func TestPartitionSplits(t *testing.T) {
	p := &Partition{}
	p.Add(Range{0, 10}, 1)
	p.Add(Range{5, 15}, 2)
	p.Add(Range{20, 25}, 3)
	p.Add(Range{2, 3}, 1)
	p.MergeAdjacent()

	expected := []Piece{
		{Range{0, 5}, []int{1}},
		{Range{5, 10}, []int{1, 2}},
		{Range{10, 15}, []int{2}},
		{Range{20, 25}, []int{3}},
	}
	require.Equal(t, expected, p.Pieces())

	p.Remove(Range{7, 12})
	require.Equal(t, Range{5, 7}, p.Pieces()[1].Range)
	require.Equal(t, Range{12, 15}, p.Pieces()[2].Range)
}

func TestPartitionMergeAdjacent(t *testing.T) {
	p := &Partition{}
	p.Add(Range{0, 5}, 1)
	p.Add(Range{5, 10}, 1)
	p.Add(Range{10, 12}, 2)
	p.Add(Range{12, 14}, 2)
	p.Add(Range{15, 16}, 2)
	p.MergeAdjacent()
	require.Equal(t, []Piece{
		{Range{0, 10}, []int{1}},
		{Range{10, 14}, []int{2}},
		{Range{15, 16}, []int{2}},
	}, p.Pieces())
}

func TestPartitionRandomCoverage(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	for round := 0; round < 100; round++ {
		p := &Partition{}
		var labels [modelSize + 8][]int
		for id := 0; id < 6; id++ {
			r := randomRange(rnd)
			p.Add(r, id)
			for c := r.From; c < r.To; c++ {
				labels[c] = append(labels[c], id)
			}
		}

		pieces := p.Pieces()
		for i, x := range pieces {
			if i > 0 {
				require.LessOrEqual(t, pieces[i-1].To, x.From)
			}
			for c := x.From; c < x.To; c++ {
				require.Equal(t, labels[c], x.Ids, "code point %d", c)
				labels[c] = nil
			}
		}
		for c, l := range labels {
			require.Nil(t, l, "code point %d not covered", c)
		}
	}
}

func TestHolds(t *testing.T) {
	require.True(t, Holds(LineStart, -1, 'a'))
	require.True(t, Holds(LineStart, '\n', 'a'))
	require.False(t, Holds(LineStart, 'x', 'a'))
	require.True(t, Holds(LineEnd, 'x', -1))
	require.True(t, Holds(WordBoundary, ' ', 'a'))
	require.True(t, Holds(WordBoundary, 'a', -1))
	require.False(t, Holds(WordBoundary, 'a', '_'))
	require.True(t, Holds(NotWordBoundary, '+', ' '))
}
