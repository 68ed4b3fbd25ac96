package parser

import (
	"context"

	pool "github.com/jolestar/go-commons-pool"

	"github.com/ava12/lrx"
	"github.com/ava12/lrx/internal/queue"
	"github.com/ava12/lrx/scanner"
)

// stacks hold the memory owned by a single parse.
type stacks struct {
	states []int
	values valueStack
	args   []lrx.Value
	buffer *queue.Queue[*scanner.Token]
}

func newStacks() *stacks {
	return &stacks{
		states: make([]int, 0, 64),
		args:   make([]lrx.Value, 0, 8),
		buffer: queue.New[*scanner.Token](),
	}
}

func (st *stacks) reset() {
	st.states = append(st.states[:0], 0)
	st.values.Reset()
	clear(st.args[:cap(st.args)])
	st.args = st.args[:0]
	st.buffer.Clear()
}

// stackPool keeps stacks of finished parses for reuse mode.
type stackPool struct {
	opool *pool.ObjectPool
}

func newStackPool() *stackPool {
	factory := pool.NewPooledObjectFactorySimple(
		func(context.Context) (interface{}, error) {
			return newStacks(), nil
		})
	cfg := pool.NewDefaultPoolConfig()
	cfg.MaxTotal = -1
	cfg.BlockWhenExhausted = false
	return &stackPool{opool: pool.NewObjectPool(context.Background(), factory, cfg)}
}

func (sp *stackPool) borrow(ctx context.Context) *stacks {
	o, e := sp.opool.BorrowObject(ctx)
	if e != nil {
		tracer().Infof("stack pool: %s", e)
		return newStacks()
	}
	return o.(*stacks)
}

func (sp *stackPool) release(ctx context.Context, st *stacks) {
	st.reset()
	if e := sp.opool.ReturnObject(ctx, st); e != nil {
		tracer().Infof("stack pool: %s", e)
	}
}
