package core

import (
	"fmt"

	"github.com/google/btree"
	"github.com/olyamironova/market-engine/internal/domain"
)

const queueDegree = 16

type queueItem struct {
	order *domain.Order
	seq   uint64
}

// PriceTimeQueue holds the resting orders of one side of one product,
// best price first and, within a price, oldest first. Insertion order
// breaks ties between orders carrying the same timestamp.
//
// A queue is owned by its Manager; collaborators may iterate it from inside
// a TradeListener callback but must not modify it.
type PriceTimeQueue struct {
	side  domain.Side
	tree  *btree.BTreeG[queueItem]
	index map[string]queueItem
	seq   uint64
}

func NewPriceTimeQueue(side domain.Side) *PriceTimeQueue {
	return &PriceTimeQueue{
		side:  side,
		tree:  btree.NewG(queueDegree, priceTimeLess(side)),
		index: make(map[string]queueItem),
	}
}

func priceTimeLess(side domain.Side) btree.LessFunc[queueItem] {
	return func(a, b queueItem) bool {
		if c := a.order.Price().Cmp(b.order.Price()); c != 0 {
			if side == domain.Sell {
				return c < 0
			}
			return c > 0
		}
		at, bt := a.order.CreatedAt(), b.order.CreatedAt()
		if !at.Equal(bt) {
			return at.Before(bt)
		}
		return a.seq < b.seq
	}
}

func (q *PriceTimeQueue) Side() domain.Side {
	return q.side
}

func (q *PriceTimeQueue) Len() int {
	return q.tree.Len()
}

func (q *PriceTimeQueue) Empty() bool {
	return q.tree.Len() == 0
}

// Add inserts o and reports false when the order is already queued. Adding
// an order of the other side is a programming error.
func (q *PriceTimeQueue) Add(o *domain.Order) bool {
	if o.Side() != q.side {
		panic(fmt.Sprintf("queue %s: cannot add %s order %s", q.side, o.Side(), o.ID()))
	}
	if _, ok := q.index[o.ID()]; ok {
		return false
	}
	q.seq++
	it := queueItem{order: o, seq: q.seq}
	q.index[o.ID()] = it
	q.tree.ReplaceOrInsert(it)
	return true
}

// Remove deletes o wherever it sits and reports whether it was queued.
func (q *PriceTimeQueue) Remove(o *domain.Order) bool {
	it, ok := q.index[o.ID()]
	if !ok {
		return false
	}
	delete(q.index, o.ID())
	q.tree.Delete(it)
	return true
}

func (q *PriceTimeQueue) Contains(o *domain.Order) bool {
	_, ok := q.index[o.ID()]
	return ok
}

// First returns the best, oldest order without removing it.
func (q *PriceTimeQueue) First() (*domain.Order, bool) {
	it, ok := q.tree.Min()
	if !ok {
		return nil, false
	}
	return it.order, true
}

// PollFirst removes and returns the best, oldest order.
func (q *PriceTimeQueue) PollFirst() (*domain.Order, bool) {
	it, ok := q.tree.DeleteMin()
	if !ok {
		return nil, false
	}
	delete(q.index, it.order.ID())
	return it.order, true
}

// Ascend calls fn for each order in priority order until fn returns false.
func (q *PriceTimeQueue) Ascend(fn func(o *domain.Order) bool) {
	q.tree.Ascend(func(it queueItem) bool {
		return fn(it.order)
	})
}

// Orders returns the queued orders in priority order.
func (q *PriceTimeQueue) Orders() []*domain.Order {
	res := make([]*domain.Order, 0, q.tree.Len())
	q.Ascend(func(o *domain.Order) bool {
		res = append(res, o)
		return true
	})
	return res
}

func (q *PriceTimeQueue) states(depth int) []domain.OrderState {
	n := q.tree.Len()
	if depth > 0 {
		n = min(n, depth)
	}
	res := make([]domain.OrderState, 0, n)
	q.Ascend(func(o *domain.Order) bool {
		if depth > 0 && len(res) == depth {
			return false
		}
		res = append(res, o.State())
		return true
	})
	return res
}
