package core

import "container/heap"

// Direction selects how limit prices are ranked on one side of a book.
type Direction uint8

const (
	// Ascending puts the lowest limit price in front (asks).
	Ascending Direction = iota
	// Descending puts the highest limit price in front (bids).
	Descending
)

func (d Direction) String() string {
	switch d {
	case Ascending:
		return "ASC"
	case Descending:
		return "DESC"
	default:
		return "UNKNOWN"
	}
}

// DirectionFor returns the ranking direction used for a side's queue.
func DirectionFor(s Side) Direction {
	if s == SideBuy {
		return Descending
	}
	return Ascending
}

// Rank compares two orders from the same side of a book. It returns a
// negative number when a ranks ahead of b, positive when b ranks ahead of a
// and zero when they are equally aggressive. Market orders outrank every
// limit order in both directions; two market orders are equal.
func Rank(dir Direction, a, b *Order) int {
	switch {
	case a.IsMarket() && b.IsMarket():
		return 0
	case a.IsMarket():
		return -1
	case b.IsMarket():
		return 1
	}
	c := a.Price.Cmp(b.Price)
	if dir == Descending {
		return -c
	}
	return c
}

type queued struct {
	order *Order
	seq   uint64
}

// orderQueue is a priority queue of orders on one side of a book. The front
// is always the most aggressive order; equal ranks keep arrival order.
type orderQueue struct {
	dir  Direction
	data []queued
	seq  uint64
}

func newOrderQueue(dir Direction) *orderQueue {
	q := &orderQueue{dir: dir}
	heap.Init(q)
	return q
}

func (q *orderQueue) Len() int { return len(q.data) }
func (q *orderQueue) Less(i, j int) bool {
	if c := Rank(q.dir, q.data[i].order, q.data[j].order); c != 0 {
		return c < 0
	}
	return q.data[i].seq < q.data[j].seq
}
func (q *orderQueue) Swap(i, j int) { q.data[i], q.data[j] = q.data[j], q.data[i] }
func (q *orderQueue) Push(x any)    { q.data = append(q.data, x.(queued)) }
func (q *orderQueue) Pop() any {
	n := len(q.data)
	if n == 0 {
		return nil
	}
	it := q.data[n-1]
	q.data[n-1] = queued{}
	q.data = q.data[:n-1]
	return it
}

func (q *orderQueue) add(o *Order) {
	q.seq++
	heap.Push(q, queued{order: o, seq: q.seq})
}

func (q *orderQueue) peek() *Order {
	if len(q.data) == 0 {
		return nil
	}
	return q.data[0].order
}

// popFront removes the front order. Only called once it is filled.
func (q *orderQueue) popFront() *Order {
	if len(q.data) == 0 {
		return nil
	}
	return heap.Pop(q).(queued).order
}

// sorted returns copies of the queued orders, best first.
func (q *orderQueue) sorted() []Order {
	items := make([]queued, len(q.data))
	copy(items, q.data)
	tmp := &orderQueue{dir: q.dir, data: items}
	out := make([]Order, 0, len(items))
	for tmp.Len() > 0 {
		out = append(out, *heap.Pop(tmp).(queued).order)
	}
	return out
}

func (q *orderQueue) totalShares() Size {
	var n Size
	for _, it := range q.data {
		n += it.order.Shares
	}
	return n
}
