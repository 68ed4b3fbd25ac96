// Package queue implements a generic double-ended ring buffer.
package queue

const minSize = 3

// Queue keeps items in a ring buffer whose capacity is always 2^n.
// size is the capacity minus one and serves as index mask.
type Queue[T any] struct {
	items      []T
	size       int
	head, tail int
	zero       T
}

func New[T any](items ...T) *Queue[T] {
	q := &Queue[T]{}
	q.size = computeSize(len(items))
	q.items = make([]T, q.size+1)
	q.tail = copy(q.items, items)
	return q
}

func (q *Queue[T]) IsEmpty() bool {
	return q.head == q.tail
}

func (q *Queue[T]) Len() int {
	return (q.tail - q.head) & q.size
}

// At returns i-th item counting from the head, i must be in [0, Len()).
func (q *Queue[T]) At(i int) T {
	return q.items[(q.head+i)&q.size]
}

// Items returns a copy of queued items in head-to-tail order.
func (q *Queue[T]) Items() []T {
	result := make([]T, q.Len())
	for i := range result {
		result[i] = q.At(i)
	}
	return result
}

func (q *Queue[T]) Append(item T) *Queue[T] {
	q.items[q.tail] = item
	q.tail = (q.tail + 1) & q.size
	if q.tail == q.head {
		q.grow()
	}
	return q
}

func (q *Queue[T]) Prepend(item T) *Queue[T] {
	q.head = (q.head - 1) & q.size
	q.items[q.head] = item
	if q.head == q.tail {
		q.grow()
	}
	return q
}

// First removes and returns the head item.
func (q *Queue[T]) First() (T, bool) {
	if q.head == q.tail {
		return q.zero, false
	}

	result := q.items[q.head]
	q.items[q.head] = q.zero
	q.head = (q.head + 1) & q.size
	return result, true
}

// Last removes and returns the tail item.
func (q *Queue[T]) Last() (T, bool) {
	if q.head == q.tail {
		return q.zero, false
	}

	q.tail = (q.tail - 1) & q.size
	result := q.items[q.tail]
	q.items[q.tail] = q.zero
	return result, true
}

// Clear drops all items keeping allocated buffer.
func (q *Queue[T]) Clear() {
	for q.head != q.tail {
		q.items[q.head] = q.zero
		q.head = (q.head + 1) & q.size
	}
	q.head, q.tail = 0, 0
}

func computeSize(length int) int {
	size := minSize
	for size < length {
		size = size<<1 | 1
	}
	return size
}

func (q *Queue[T]) grow() {
	items := make([]T, (q.size+1)<<1)
	n := copy(items, q.items[q.head:])
	copy(items[n:], q.items[:q.head])
	q.head = 0
	q.tail = q.size + 1
	q.size = len(items) - 1
	q.items = items
}
