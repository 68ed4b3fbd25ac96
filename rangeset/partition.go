package rangeset

// Piece is a partition range labelled with a sorted list of ids.
type Piece struct {
	Range
	Ids []int
}

// Partition splits the domain into disjoint labelled pieces.
// Adding a range overlapping existing pieces splits them so that
// every piece carries ids of all ranges covering it.
type Partition struct {
	pieces []Piece
}

func (p *Partition) Pieces() []Piece {
	return p.pieces
}

func (p *Partition) Len() int {
	return len(p.pieces)
}

func (p *Partition) Reset() {
	p.pieces = p.pieces[:0]
}

// Add labels range r with id.
func (p *Partition) Add(r Range, id int) {
	if r.IsEmpty() {
		return
	}

	res := make([]Piece, 0, len(p.pieces)+3)
	cur := r.From
	for _, x := range p.pieces {
		if x.To <= cur || x.From >= r.To {
			if x.From >= r.To && cur < r.To {
				res = append(res, Piece{Range{cur, r.To}, []int{id}})
				cur = r.To
			}
			res = append(res, x)
			continue
		}

		if cur < x.From {
			res = append(res, Piece{Range{cur, x.From}, []int{id}})
			cur = x.From
		}
		if x.From < cur {
			res = append(res, Piece{Range{x.From, cur}, x.Ids})
		}
		end := min(x.To, r.To)
		res = append(res, Piece{Range{cur, end}, withId(x.Ids, id)})
		if x.To > end {
			res = append(res, Piece{Range{end, x.To}, x.Ids})
		}
		cur = end
	}
	if cur < r.To {
		res = append(res, Piece{Range{cur, r.To}, []int{id}})
	}
	p.pieces = res
}

// AddSet labels every range of s with id.
func (p *Partition) AddSet(s *Set, id int) {
	for _, r := range s.ranges {
		p.Add(r, id)
	}
}

// Remove drops coverage of range r.
func (p *Partition) Remove(r Range) {
	res := make([]Piece, 0, len(p.pieces)+1)
	for _, x := range p.pieces {
		if x.To <= r.From || x.From >= r.To {
			res = append(res, x)
			continue
		}

		if x.From < r.From {
			res = append(res, Piece{Range{x.From, r.From}, x.Ids})
		}
		if x.To > r.To {
			res = append(res, Piece{Range{r.To, x.To}, x.Ids})
		}
	}
	p.pieces = res
}

// MergeAdjacent joins touching pieces having identical labels.
func (p *Partition) MergeAdjacent() {
	if len(p.pieces) < 2 {
		return
	}

	res := p.pieces[:1]
	for _, x := range p.pieces[1:] {
		last := &res[len(res)-1]
		if last.To == x.From && sameIds(last.Ids, x.Ids) {
			last.To = x.To
		} else {
			res = append(res, x)
		}
	}
	p.pieces = res
}

func withId(ids []int, id int) []int {
	i := 0
	for i < len(ids) && ids[i] < id {
		i++
	}
	if i < len(ids) && ids[i] == id {
		return ids
	}

	res := make([]int, len(ids)+1)
	copy(res, ids[:i])
	res[i] = id
	copy(res[i+1:], ids[i:])
	return res
}

func sameIds(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i, x := range a {
		if x != b[i] {
			return false
		}
	}
	return true
}
