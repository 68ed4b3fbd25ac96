package queue

import (
	"fmt"
	"testing"

	. "github.com/ava12/lrx/internal/test"
)

func TestComputeSize(t *testing.T) {
	for i := 0; i <= 33; i++ {
		name := fmt.Sprintf("%d elements", i)
		t.Run(name, func(t *testing.T) {
			size := computeSize(i)
			Assert(t, size >= minSize, "expecting at least %d, got %d", minSize, size)
			Assert(t, size&(size+1) == 0, "expecting 2^n - 1, got %b", size)
			Assert(t, size >= i, "expecting size >= %d, got %d", i, size)
		})
	}
}

func TestEmpty(t *testing.T) {
	q := New[int]()
	ExpectBool(t, true, q.IsEmpty())
	ExpectInt(t, 0, q.Len())
	_, f := q.First()
	ExpectBool(t, false, f)
	_, f = q.Last()
	ExpectBool(t, false, f)
}

func TestAppendGrow(t *testing.T) {
	q := New[int]()
	for i := 0; i < 20; i++ {
		q.Append(i)
	}
	ExpectInt(t, 20, q.Len())
	for i := 0; i < 20; i++ {
		ExpectInt(t, i, q.At(i))
	}
	for i := 0; i < 20; i++ {
		item, f := q.First()
		ExpectBool(t, true, f)
		ExpectInt(t, i, item)
	}
	ExpectBool(t, true, q.IsEmpty())
}

func TestWrapAround(t *testing.T) {
	q := New[int](1, 2, 3)
	q.First()
	q.First()
	q.Append(4)
	q.Append(5)
	q.Prepend(0)
	items := q.Items()
	expected := []int{0, 3, 4, 5}
	ExpectInt(t, len(expected), len(items))
	for i, x := range expected {
		ExpectInt(t, x, items[i])
	}

	last, f := q.Last()
	ExpectBool(t, true, f)
	ExpectInt(t, 5, last)
}

func TestClear(t *testing.T) {
	q := New[string]("a", "b")
	q.Clear()
	ExpectBool(t, true, q.IsEmpty())
	q.Append("c")
	item, _ := q.First()
	Assert(t, item == "c", "expecting %q, got %q", "c", item)
}
