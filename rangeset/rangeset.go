// Package rangeset implements sets of half-open code point intervals
// and labelled alphabet partitions used to build finite automata.
package rangeset

import (
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// Limit is the end of the code point domain, code points are in [0, Limit).
const Limit = unicode.MaxRune + 1

// Zero-width assertions are encoded as negative pseudo code points,
// each assertion a occupies range [a, a+1). Pseudo ranges never touch
// each other or real code points, so sets never merge them.
const (
	LineStart       = -2
	LineEnd         = -4
	WordBoundary    = -6
	NotWordBoundary = -8

	MinPseudo = NotWordBoundary
)

var pseudoNames = map[int]string{
	LineStart:       "^",
	LineEnd:         "$",
	WordBoundary:    `\b`,
	NotWordBoundary: `\B`,
}

// Range is a half-open interval [From, To).
type Range struct {
	From, To int
}

func Single(c int) Range {
	return Range{c, c + 1}
}

func (r Range) IsEmpty() bool {
	return r.From >= r.To
}

func (r Range) IsPseudo() bool {
	return r.From < 0
}

func (r Range) Contains(c int) bool {
	return c >= r.From && c < r.To
}

func (r Range) String() string {
	if r.To == r.From+1 {
		return formatPoint(r.From)
	}
	return formatPoint(r.From) + "-" + formatPoint(r.To-1)
}

func formatPoint(c int) string {
	if c < 0 {
		name, found := pseudoNames[c]
		if found {
			return name
		}
		return "#" + strconv.Itoa(c)
	}

	if c < Limit && unicode.IsPrint(rune(c)) && c != ' ' {
		return string(rune(c))
	}
	return strconv.QuoteRuneToASCII(rune(c))
}

// Set is a sorted list of non-overlapping, non-touching ranges.
// Adding a range merges it with all ranges it overlaps or touches.
// The zero value is an empty set.
type Set struct {
	ranges []Range
}

func New(ranges ...Range) *Set {
	s := &Set{}
	for _, r := range ranges {
		s.Add(r)
	}
	return s
}

// Runes creates a set containing listed code points.
func Runes(cs ...rune) *Set {
	s := &Set{}
	for _, c := range cs {
		s.AddRune(c)
	}
	return s
}

func (s *Set) Copy() *Set {
	return &Set{append([]Range(nil), s.ranges...)}
}

func (s *Set) IsEmpty() bool {
	return len(s.ranges) == 0
}

// Ranges returns internal range list, it must not be modified.
func (s *Set) Ranges() []Range {
	return s.ranges
}

func (s *Set) AddRune(c rune) *Set {
	return s.Add(Single(int(c)))
}

func (s *Set) Add(r Range) *Set {
	if r.IsEmpty() {
		return s
	}

	// first range that may touch r
	i := sort.Search(len(s.ranges), func(i int) bool {
		return s.ranges[i].To >= r.From
	})
	j := i
	for j < len(s.ranges) && s.ranges[j].From <= r.To {
		r.From = min(r.From, s.ranges[j].From)
		r.To = max(r.To, s.ranges[j].To)
		j++
	}

	if i == j {
		s.ranges = append(s.ranges, Range{})
		copy(s.ranges[i+1:], s.ranges[i:])
		s.ranges[i] = r
		return s
	}

	s.ranges[i] = r
	s.ranges = append(s.ranges[:i+1], s.ranges[j:]...)
	return s
}

func (s *Set) Remove(r Range) *Set {
	if r.IsEmpty() {
		return s
	}

	res := make([]Range, 0, len(s.ranges)+1)
	for _, x := range s.ranges {
		if x.To <= r.From || x.From >= r.To {
			res = append(res, x)
			continue
		}

		if x.From < r.From {
			res = append(res, Range{x.From, r.From})
		}
		if x.To > r.To {
			res = append(res, Range{r.To, x.To})
		}
	}
	s.ranges = res
	return s
}

// Union adds all ranges of other set.
func (s *Set) Union(other *Set) *Set {
	for _, r := range other.ranges {
		s.Add(r)
	}
	return s
}

// Subtract removes all ranges of other set.
func (s *Set) Subtract(other *Set) *Set {
	for _, r := range other.ranges {
		s.Remove(r)
	}
	return s
}

// Intersect returns a new set containing ranges common to both sets.
func (s *Set) Intersect(other *Set) *Set {
	res := &Set{}
	i, j := 0, 0
	for i < len(s.ranges) && j < len(other.ranges) {
		a, b := s.ranges[i], other.ranges[j]
		from, to := max(a.From, b.From), min(a.To, b.To)
		if from < to {
			res.ranges = append(res.ranges, Range{from, to})
		}
		if a.To < b.To {
			i++
		} else {
			j++
		}
	}
	return res
}

// Complement returns a new set containing code points in [0, Limit) not in s.
// Pseudo ranges are kept as is, so complementing twice restores the set.
func (s *Set) Complement() *Set {
	res := &Set{}
	next := 0
	for _, r := range s.ranges {
		if r.To <= 0 {
			res.ranges = append(res.ranges, r)
			continue
		}

		if r.From > next {
			res.ranges = append(res.ranges, Range{next, r.From})
		}
		next = r.To
	}
	if next < Limit {
		res.ranges = append(res.ranges, Range{next, Limit})
	}
	return res
}

func (s *Set) Contains(c int) bool {
	i := sort.Search(len(s.ranges), func(i int) bool {
		return s.ranges[i].To > c
	})
	return i < len(s.ranges) && s.ranges[i].From <= c
}

func (s *Set) Equal(other *Set) bool {
	if len(s.ranges) != len(other.ranges) {
		return false
	}
	for i, r := range s.ranges {
		if r != other.ranges[i] {
			return false
		}
	}
	return true
}

// HasPseudo returns true if the set contains any assertion.
func (s *Set) HasPseudo() bool {
	return len(s.ranges) > 0 && s.ranges[0].From < 0
}

func (s *Set) String() string {
	parts := make([]string, len(s.ranges))
	for i, r := range s.ranges {
		parts[i] = r.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Holds reports whether assertion a holds between code points prev and next,
// -1 stands for the start or the end of input.
func Holds(a, prev, next int) bool {
	switch a {
	case LineStart:
		return prev < 0 || prev == '\n'
	case LineEnd:
		return next < 0 || next == '\n'
	case WordBoundary:
		return isWordChar(prev) != isWordChar(next)
	case NotWordBoundary:
		return isWordChar(prev) == isWordChar(next)
	}
	return false
}

func isWordChar(c int) bool {
	return c == '_' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
