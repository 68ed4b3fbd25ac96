// Package bmap implements an interning index with []byte keys.
package bmap

// Index assigns sequential ids to distinct byte keys in order of first appearance
// and keeps one value per key. Keys cannot be deleted.
// Keys are copied, so callers may reuse key buffers.
type Index[T any] struct {
	ids    map[string]int
	keys   [][]byte
	values []T
}

// New creates an index, size is a capacity hint.
func New[T any](size int) *Index[T] {
	return &Index[T]{
		ids:    make(map[string]int, size),
		keys:   make([][]byte, 0, size),
		values: make([]T, 0, size),
	}
}

// Len returns the number of stored keys.
func (x *Index[T]) Len() int {
	return len(x.keys)
}

// Id returns key id or -1 if the key is not stored.
func (x *Index[T]) Id(key []byte) int {
	id, has := x.ids[string(key)]
	if !has {
		return -1
	}
	return id
}

// Get returns stored value by key and a flag telling whether this key is stored.
func (x *Index[T]) Get(key []byte) (T, bool) {
	id, has := x.ids[string(key)]
	if !has {
		var zero T
		return zero, false
	}
	return x.values[id], true
}

// Intern returns the id of the key, adding the key with value produced by create if the key is new.
// create may be nil, zero value is stored then.
func (x *Index[T]) Intern(key []byte, create func(id int) T) (id int, added bool) {
	id, has := x.ids[string(key)]
	if has {
		return id, false
	}

	id = len(x.keys)
	x.ids[string(key)] = id
	x.keys = append(x.keys, append([]byte(nil), key...))
	var value T
	if create != nil {
		value = create(id)
	}
	x.values = append(x.values, value)
	return id, true
}

// Set adds or rewrites value for given key and returns key id.
func (x *Index[T]) Set(key []byte, value T) int {
	id, _ := x.Intern(key, nil)
	x.values[id] = value
	return id
}

func (x *Index[T]) Key(id int) []byte {
	return x.keys[id]
}

func (x *Index[T]) Value(id int) T {
	return x.values[id]
}

// Values returns stored values ordered by id. The slice must not be modified.
func (x *Index[T]) Values() []T {
	return x.values
}
