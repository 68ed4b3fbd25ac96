package source

import (
	"hash"
	"sort"
	"unicode/utf8"
)

// Input is the character source used by scanners.
type Input interface {
	// Read returns the next code point, false at end of input.
	Read() (rune, bool)
	// Unread steps back n code points and returns the number actually stepped back.
	Unread(n int) int
	// Mark returns current position for a later Reset.
	Mark() Mark
	// Reset returns to a marked position.
	Reset(m Mark)
	// Pos returns current source position.
	Pos() Pos
	// Offset returns current offset counted in bytes from the start of input.
	Offset() int
}

// Mark is a logical byte offset from the start of input.
// Marks taken at or before current position stay valid after Prepend.
type Mark int

type segment struct {
	src        *Source
	from, to   int
	logicStart int
}

func (s segment) len() int {
	return s.to - s.from
}

// Reader concatenates queued sources into a single input.
// Sources are pulled from the queue when the previous one is exhausted.
type Reader struct {
	queue     *Queue
	segs      []segment
	seg       int
	pos       int
	checksum  hash.Hash
	committed int
}

func NewReader(q *Queue) *Reader {
	r := &Reader{queue: q}
	r.pull()
	return r
}

// FromString creates a reader for a single unnamed text.
func FromString(text string) *Reader {
	return NewReader(NewQueue(New("", []byte(text))))
}

func (r *Reader) pull() bool {
	for !r.queue.IsEmpty() {
		s := r.queue.Next()
		start := 0
		if len(r.segs) > 0 {
			last := r.segs[len(r.segs)-1]
			start = last.logicStart + last.len()
		}
		r.segs = append(r.segs, segment{s, 0, s.Len(), start})
		return true
	}
	return false
}

// advance moves to the next non-empty segment when current one is exhausted.
func (r *Reader) advance() bool {
	for {
		if r.seg < len(r.segs) && r.pos < r.segs[r.seg].to {
			return true
		}

		if r.seg+1 >= len(r.segs) && !r.pull() {
			return false
		}

		r.seg++
		r.pos = r.segs[r.seg].from
	}
}

func (r *Reader) Read() (rune, bool) {
	if !r.advance() {
		return 0, false
	}

	s := r.segs[r.seg]
	c, size := utf8.DecodeRune(s.src.content[r.pos:s.to])
	r.pos += size
	return c, true
}

func (r *Reader) Unread(n int) int {
	done := 0
	for done < n {
		if len(r.segs) == 0 || r.Offset() <= r.committed {
			return done
		}

		s := r.segs[r.seg]
		if r.pos <= s.from {
			if r.seg == 0 {
				return done
			}
			r.seg--
			r.pos = r.segs[r.seg].to
			continue
		}

		_, size := utf8.DecodeLastRune(s.src.content[s.from:r.pos])
		r.pos -= size
		done++
	}
	return done
}

func (r *Reader) Offset() int {
	if r.seg >= len(r.segs) {
		return 0
	}
	s := r.segs[r.seg]
	return s.logicStart + r.pos - s.from
}

func (r *Reader) Mark() Mark {
	return Mark(r.Offset())
}

// Reset moves to marked position. Positions before the last Commit are not reachable.
func (r *Reader) Reset(m Mark) {
	ofs := int(m)
	if ofs < r.committed {
		ofs = r.committed
	}
	if len(r.segs) == 0 {
		return
	}

	i := sort.Search(len(r.segs), func(i int) bool {
		return r.segs[i].logicStart > ofs
	}) - 1
	if i < 0 {
		i = 0
	}
	s := r.segs[i]
	if ofs > s.logicStart+s.len() {
		ofs = s.logicStart + s.len()
	}
	r.seg = i
	r.pos = s.from + ofs - s.logicStart
}

// Pos returns current position, at a source boundary it is the start of the next source.
func (r *Reader) Pos() Pos {
	if len(r.segs) == 0 {
		return Pos{}
	}

	r.advance()
	return NewPos(r.segs[r.seg].src, r.pos)
}

// Prepend inserts a source at current position, it will be read next.
// Marks taken after current position become invalid.
func (r *Reader) Prepend(s *Source) {
	if s == nil || s.Len() == 0 {
		return
	}

	ofs := r.Offset()
	ins := segment{s, 0, s.Len(), ofs}
	if len(r.segs) == 0 {
		r.segs = []segment{ins}
		r.pos = 0
		return
	}

	cur := r.segs[r.seg]
	head := segment{cur.src, cur.from, r.pos, cur.logicStart}
	tail := segment{cur.src, r.pos, cur.to, ofs + s.Len()}
	segs := make([]segment, 0, len(r.segs)+2)
	segs = append(segs, r.segs[:r.seg]...)
	segs = append(segs, head, ins, tail)
	for _, x := range r.segs[r.seg+1:] {
		x.logicStart += s.Len()
		segs = append(segs, x)
	}
	r.segs = segs
	r.seg++
	r.pos = 0
}

// SetChecksum sets a hash fed with committed input bytes.
func (r *Reader) SetChecksum(h hash.Hash) {
	r.checksum = h
}

// Commit feeds bytes read since previous commit to checksum hash
// and forbids resetting to positions before current one.
func (r *Reader) Commit() {
	ofs := r.Offset()
	if r.checksum != nil {
		for _, s := range r.segs {
			from := max(r.committed, s.logicStart)
			to := min(ofs, s.logicStart+s.len())
			if from < to {
				r.checksum.Write(s.src.content[s.from+from-s.logicStart : s.from+to-s.logicStart])
			}
		}
	}
	r.committed = ofs
}
