package matching

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdoElHodaky/matchbook/internal/types"
)

func newTestOrder(id uuid.UUID, side types.OrderSide, price, qty string, ts time.Time) types.Order {
	return types.Order{
		ID:         id,
		OrderAsset: "BTC",
		PriceAsset: "USD",
		Side:       side,
		Price:      decimal.RequireFromString(price),
		Qty:        decimal.RequireFromString(qty),
		Timestamp:  ts,
	}
}

func TestOrderQueue_PriceTimePriority_Bid(t *testing.T) {
	q := NewOrderQueue(types.SideBid, DefaultStallBudget, 8, nil)
	base := time.Now()

	lowID, highID, earlierID := uuid.New(), uuid.New(), uuid.New()
	require.True(t, q.Insert(lowID, decimal.RequireFromString("100"), base, newTestOrder(lowID, types.SideBid, "100", "1", base)))
	require.True(t, q.Insert(highID, decimal.RequireFromString("110"), base.Add(time.Second), newTestOrder(highID, types.SideBid, "110", "1", base.Add(time.Second))))
	require.True(t, q.Insert(earlierID, decimal.RequireFromString("110"), base.Add(-time.Second), newTestOrder(earlierID, types.SideBid, "110", "1", base.Add(-time.Second))))

	top, ok := q.Peek()
	require.True(t, ok)
	assert.Equal(t, earlierID, top.ID, "best bid is highest price, then earliest timestamp")
}

func TestOrderQueue_PriceTimePriority_Ask(t *testing.T) {
	q := NewOrderQueue(types.SideAsk, DefaultStallBudget, 8, nil)
	base := time.Now()

	highID, lowID := uuid.New(), uuid.New()
	require.True(t, q.Insert(highID, decimal.RequireFromString("110"), base, newTestOrder(highID, types.SideAsk, "110", "1", base)))
	require.True(t, q.Insert(lowID, decimal.RequireFromString("100"), base.Add(time.Second), newTestOrder(lowID, types.SideAsk, "100", "1", base.Add(time.Second))))

	top, ok := q.Peek()
	require.True(t, ok)
	assert.Equal(t, lowID, top.ID, "best ask is lowest price")
}

func TestOrderQueue_InsertDuplicateIDFails(t *testing.T) {
	q := NewOrderQueue(types.SideBid, DefaultStallBudget, 8, nil)
	id := uuid.New()
	now := time.Now()
	order := newTestOrder(id, types.SideBid, "100", "1", now)

	require.True(t, q.Insert(id, order.Price, now, order))
	assert.False(t, q.Insert(id, order.Price, now, order), "duplicate id must be rejected (I1)")
}

func TestOrderQueue_CancelThenCancelAgain(t *testing.T) {
	q := NewOrderQueue(types.SideBid, DefaultStallBudget, 8, nil)
	id := uuid.New()
	now := time.Now()
	order := newTestOrder(id, types.SideBid, "100", "1", now)
	require.True(t, q.Insert(id, order.Price, now, order))

	assert.True(t, q.Cancel(id))
	assert.False(t, q.Cancel(id), "second cancel of the same id must fail")

	_, ok := q.Peek()
	assert.False(t, ok, "cancelled order must never be returned by peek")
}

func TestOrderQueue_AmendRefreshesPriority(t *testing.T) {
	q := NewOrderQueue(types.SideBid, DefaultStallBudget, 8, nil)
	now := time.Now()

	id := uuid.New()
	order := newTestOrder(id, types.SideBid, "100", "1", now)
	require.True(t, q.Insert(id, order.Price, now, order))

	otherID := uuid.New()
	other := newTestOrder(otherID, types.SideBid, "100", "1", now.Add(time.Millisecond))
	require.True(t, q.Insert(otherID, other.Price, now.Add(time.Millisecond), other))

	newPrice := decimal.RequireFromString("100")
	newTs := now.Add(time.Hour)
	amended := newTestOrder(id, types.SideBid, "100", "2", newTs)
	require.True(t, q.Amend(id, newPrice, newTs, amended))

	top, ok := q.Peek()
	require.True(t, ok)
	assert.Equal(t, otherID, top.ID, "amend at the same price loses priority to the earlier-timestamped order")
}

func TestOrderQueue_ModifyCurrentOrderPreservesPriority(t *testing.T) {
	q := NewOrderQueue(types.SideBid, DefaultStallBudget, 8, nil)
	now := time.Now()
	id := uuid.New()
	order := newTestOrder(id, types.SideBid, "100", "1", now)
	require.True(t, q.Insert(id, order.Price, now, order))

	reduced := order
	reduced.Qty = decimal.RequireFromString("0.4")
	q.ModifyCurrentOrder(reduced)

	top, ok := q.Peek()
	require.True(t, ok)
	assert.True(t, top.Qty.Equal(decimal.RequireFromString("0.4")))
	assert.Equal(t, id, top.ID)
}

func TestOrderQueue_ModifyCurrentOrderNoOpIfNotTop(t *testing.T) {
	q := NewOrderQueue(types.SideBid, DefaultStallBudget, 8, nil)
	now := time.Now()
	id := uuid.New()
	order := newTestOrder(id, types.SideBid, "100", "1", now)
	require.True(t, q.Insert(id, order.Price, now, order))

	stray := newTestOrder(uuid.New(), types.SideBid, "90", "1", now)
	q.ModifyCurrentOrder(stray)

	top, ok := q.Peek()
	require.True(t, ok)
	assert.Equal(t, id, top.ID, "modify of a non-top id must be a no-op")
}

func TestOrderQueue_RebuildDropsStalls(t *testing.T) {
	q := NewOrderQueue(types.SideBid, 2, 8, nil)
	now := time.Now()

	ids := make([]uuid.UUID, 5)
	for i := range ids {
		ids[i] = uuid.New()
		o := newTestOrder(ids[i], types.SideBid, "100", "1", now.Add(time.Duration(i)*time.Millisecond))
		require.True(t, q.Insert(ids[i], o.Price, o.Timestamp, o))
	}

	// Cancel three of five — exceeds the stall budget of 2 and forces a
	// rebuild, after which the heap must contain exactly the survivors.
	require.True(t, q.Cancel(ids[0]))
	require.True(t, q.Cancel(ids[1]))
	require.True(t, q.Cancel(ids[2]))

	assert.Equal(t, uint64(1), q.Rebuilds())
	assert.Equal(t, 2, q.Len())

	seen := map[uuid.UUID]bool{}
	for {
		o, ok := q.Pop()
		if !ok {
			break
		}
		seen[o.ID] = true
	}
	assert.True(t, seen[ids[3]])
	assert.True(t, seen[ids[4]])
	assert.Len(t, seen, 2)
}

func TestOrderQueue_InsertCancelRestoresLiveSet(t *testing.T) {
	q := NewOrderQueue(types.SideAsk, DefaultStallBudget, 8, nil)
	now := time.Now()
	id := uuid.New()
	order := newTestOrder(id, types.SideAsk, "100", "1", now)

	require.True(t, q.Insert(id, order.Price, now, order))
	assert.Equal(t, 1, q.Len())
	require.True(t, q.Cancel(id))
	assert.Equal(t, 0, q.Len())
}
