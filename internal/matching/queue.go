package matching

import (
	"container/heap"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/abdoElHodaky/matchbook/internal/types"
)

// priority is the (price, ts) comparison key an OrderQueue sorts on.
// Simultaneous timestamps are broken by insertion sequence, preserving
// stable FIFO order for same-instant arrivals.
type priority struct {
	price decimal.Decimal
	ts    time.Time
	seq   uint64
}

// heapEntry is one slot in the underlying container/heap slice. It
// carries its own copy of the priority it was pushed with so a peek/pop
// can detect a stall by comparing against the authoritative id->priority
// map without touching the Order itself.
type heapEntry struct {
	id       uuid.UUID
	priority priority
}

// orderHeap implements container/heap.Interface over heapEntry, ordered
// by side: descending price for bid (best = highest), ascending price
// for ask (best = lowest); ties break by ascending ts, then ascending
// seq. Grounded on internal/core/matching/order_book.go's OrderHeap.
type orderHeap struct {
	entries []heapEntry
	side    types.OrderSide
}

func (h *orderHeap) Len() int { return len(h.entries) }

func (h *orderHeap) Less(i, j int) bool {
	a, b := h.entries[i].priority, h.entries[j].priority
	if !a.price.Equal(b.price) {
		if h.side == types.SideBid {
			return a.price.GreaterThan(b.price)
		}
		return a.price.LessThan(b.price)
	}
	if !a.ts.Equal(b.ts) {
		return a.ts.Before(b.ts)
	}
	return a.seq < b.seq
}

func (h *orderHeap) Swap(i, j int) { h.entries[i], h.entries[j] = h.entries[j], h.entries[i] }

func (h *orderHeap) Push(x any) { h.entries = append(h.entries, x.(heapEntry)) }

func (h *orderHeap) Pop() any {
	old := h.entries
	n := len(old)
	e := old[n-1]
	h.entries = old[:n-1]
	return e
}

// OrderQueue is one side of the book: a price-time priority queue with
// O(1) id lookup via a dual index, lazy tombstoning on cancel/amend, and
// a bounded-stall rebuild policy (spec.md §4.1, invariant I6).
type OrderQueue struct {
	side        types.OrderSide
	stallBudget int
	heap        *orderHeap
	byID        map[uuid.UUID]types.Order
	priorities  map[uuid.UUID]priority
	stalled     int
	seq         uint64
	rebuilds    uint64
	logger      *zap.Logger
}

// Rebuilds reports how many times the stall budget has triggered a
// full heap reconstruction.
func (q *OrderQueue) Rebuilds() uint64 { return q.rebuilds }

// NewOrderQueue constructs one side's queue. stallBudget is the maximum
// number of tombstoned heap entries tolerated before a rebuild; capacity
// is an allocation hint, not a hard limit.
func NewOrderQueue(side types.OrderSide, stallBudget, capacity int, logger *zap.Logger) *OrderQueue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderQueue{
		side:        side,
		stallBudget: stallBudget,
		heap:        &orderHeap{entries: make([]heapEntry, 0, capacity), side: side},
		byID:        make(map[uuid.UUID]types.Order, capacity),
		priorities:  make(map[uuid.UUID]priority, capacity),
		logger:      logger,
	}
}

// Len reports the number of live orders (excludes stalled tombstones).
func (q *OrderQueue) Len() int { return len(q.byID) }

// isStale reports whether the top heap entry no longer matches the
// authoritative maps — either the id was removed entirely, or its
// priority was superseded by an amend.
func (q *OrderQueue) isStale(e heapEntry) bool {
	p, ok := q.priorities[e.id]
	if !ok {
		return true
	}
	return !p.price.Equal(e.priority.price) || !p.ts.Equal(e.priority.ts) || p.seq != e.priority.seq
}

// dropStaleTop discards tombstoned entries sitting at the top of the
// heap so the caller always sees a live entry or an empty heap.
func (q *OrderQueue) dropStaleTop() {
	for q.heap.Len() > 0 {
		top := q.heap.entries[0]
		if !q.isStale(top) {
			return
		}
		heap.Pop(q.heap)
	}
}

// Peek returns a value-copy snapshot of the current best-priority live
// Order, or false if the queue is empty. Never mutates externally
// observable state beyond skipping stalls already left behind by a
// cancel or amend.
func (q *OrderQueue) Peek() (types.Order, bool) {
	q.dropStaleTop()
	if q.heap.Len() == 0 {
		return types.Order{}, false
	}
	o := q.byID[q.heap.entries[0].id]
	return o.Clone(), true
}

// Pop behaves like Peek but removes the returned Order from both the id
// map and the heap; its id is no longer live afterward.
func (q *OrderQueue) Pop() (types.Order, bool) {
	q.dropStaleTop()
	if q.heap.Len() == 0 {
		return types.Order{}, false
	}
	e := heap.Pop(q.heap).(heapEntry)
	o, ok := q.byID[e.id]
	if !ok {
		// Defensive: dropStaleTop already filtered this, but another
		// stale entry may now be on top after the pop.
		return q.Pop()
	}
	delete(q.byID, e.id)
	delete(q.priorities, e.id)
	return o.Clone(), true
}

// Insert places a new live Order. Returns false without mutating state
// if id is already live (the duplicate-id defense for invariant I1).
func (q *OrderQueue) Insert(id uuid.UUID, price decimal.Decimal, ts time.Time, order types.Order) bool {
	if _, live := q.byID[id]; live {
		return false
	}
	q.seq++
	p := priority{price: price, ts: ts, seq: q.seq}
	q.byID[id] = order
	q.priorities[id] = p
	heap.Push(q.heap, heapEntry{id: id, priority: p})
	q.logger.Debug("order inserted", zap.String("id", id.String()), zap.String("side", string(q.side)))
	return true
}

// Cancel removes a live order by id, tombstoning its heap entry and
// triggering a rebuild once the stall budget is exceeded.
func (q *OrderQueue) Cancel(id uuid.UUID) bool {
	if _, live := q.byID[id]; !live {
		return false
	}
	delete(q.byID, id)
	delete(q.priorities, id)
	q.stalled++
	q.logger.Debug("order cancelled", zap.String("id", id.String()), zap.String("side", string(q.side)))
	q.maybeRebuild()
	return true
}

// Amend changes a live order's priority (price and/or quantity). The old
// heap entry is orphaned and counted as a stall; a fresh entry carries
// the refreshed priority. This is the "replace priority" semantics
// spec.md §4.1 documents as observed behavior: quantity-only amends also
// lose queue position.
func (q *OrderQueue) Amend(id uuid.UUID, newPrice decimal.Decimal, newTs time.Time, newOrder types.Order) bool {
	if _, live := q.byID[id]; !live {
		return false
	}
	q.seq++
	p := priority{price: newPrice, ts: newTs, seq: q.seq}
	q.byID[id] = newOrder
	q.priorities[id] = p
	heap.Push(q.heap, heapEntry{id: id, priority: p})
	q.stalled++
	q.logger.Debug("order amended", zap.String("id", id.String()), zap.String("side", string(q.side)))
	q.maybeRebuild()
	return true
}

// ModifyCurrentOrder in-place mutates the top-of-book Order (used by the
// matcher to decrement remaining quantity after a partial fill) without
// changing its priority. A no-op if the supplied order's id is not the
// current top, defensively guarding against stale matcher state.
func (q *OrderQueue) ModifyCurrentOrder(order types.Order) {
	q.dropStaleTop()
	if q.heap.Len() == 0 || q.heap.entries[0].id != order.ID {
		return
	}
	q.byID[order.ID] = order
}

// maybeRebuild reconstructs the heap from the authoritative id->priority
// map once the stall count exceeds the configured budget. Live
// membership in the map is authoritative; the rebuild is O(n) and
// amortizes to O(log n) per cancel/amend (invariant I6).
func (q *OrderQueue) maybeRebuild() {
	if q.stalled <= q.stallBudget {
		return
	}
	entries := make([]heapEntry, 0, len(q.priorities))
	for id, p := range q.priorities {
		entries = append(entries, heapEntry{id: id, priority: p})
	}
	q.heap.entries = entries
	heap.Init(q.heap)
	q.stalled = 0
	q.rebuilds++
	q.logger.Debug("order queue rebuilt", zap.String("side", string(q.side)), zap.Int("live", len(entries)))
}
