// Package source holds named source texts, the queue of sources to parse
// and the Reader that scanners consume input from.
package source

import (
	"bytes"
	"sort"
	"unicode/utf8"

	"github.com/ava12/lrx/internal/queue"
)

// Source is a named text with precomputed line starts.
type Source struct {
	name       string
	content    []byte
	lineStarts []int
}

func New(name string, content []byte) *Source {
	s := &Source{name: name, content: content}
	s.lineStarts = make([]int, 1, bytes.Count(content, []byte("\n"))+1)
	for i, b := range content {
		if b == '\n' {
			s.lineStarts = append(s.lineStarts, i+1)
		}
	}
	return s
}

func (s *Source) Name() string {
	return s.name
}

func (s *Source) Content() []byte {
	return s.content
}

func (s *Source) Len() int {
	return len(s.content)
}

// LineCol converts byte offset to 1-based line and column, columns count runes.
// Offsets are clamped to content bounds.
func (s *Source) LineCol(pos int) (line, col int) {
	if pos < 0 {
		pos = 0
	} else if pos > len(s.content) {
		pos = len(s.content)
	}

	lineIndex := sort.Search(len(s.lineStarts), func(i int) bool {
		return s.lineStarts[i] > pos
	}) - 1
	lineStart := s.lineStarts[lineIndex]
	return lineIndex + 1, utf8.RuneCount(s.content[lineStart:pos]) + 1
}

// Pos converts 1-based line and byte column to byte offset clamped to content bounds.
func (s *Source) Pos(line, col int) int {
	if line <= 0 || col <= 0 {
		return 0
	}

	l := len(s.content)
	if line > len(s.lineStarts) {
		return l
	}

	res := s.lineStarts[line-1] + col - 1
	if res > l {
		return l
	}
	return res
}

// Pos is a position inside a source, it implements lrx.SourcePos.
type Pos struct {
	src            *Source
	pos, line, col int
}

func NewPos(src *Source, pos int) Pos {
	res := Pos{src: src, pos: pos}
	if src != nil {
		res.line, res.col = src.LineCol(pos)
	}
	return res
}

func (p Pos) Source() *Source {
	return p.src
}

func (p Pos) SourceName() string {
	if p.src == nil {
		return ""
	}
	return p.src.name
}

func (p Pos) Pos() int {
	return p.pos
}

func (p Pos) Line() int {
	return p.line
}

func (p Pos) Col() int {
	return p.col
}

// Queue keeps sources waiting to be parsed. Empty sources are skipped.
type Queue struct {
	items *queue.Queue[*Source]
}

func NewQueue(sources ...*Source) *Queue {
	q := &Queue{queue.New[*Source]()}
	for _, s := range sources {
		q.Append(s)
	}
	return q
}

func (q *Queue) Append(s *Source) *Queue {
	if s != nil && s.Len() > 0 {
		q.items.Append(s)
	}
	return q
}

func (q *Queue) Prepend(s *Source) *Queue {
	if s != nil && s.Len() > 0 {
		q.items.Prepend(s)
	}
	return q
}

func (q *Queue) IsEmpty() bool {
	return q.items.IsEmpty()
}

func (q *Queue) Len() int {
	return q.items.Len()
}

// Next removes and returns the first source or nil if the queue is empty.
func (q *Queue) Next() *Source {
	s, _ := q.items.First()
	return s
}
