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

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestBook() *Orderbook {
	return NewOrderbook("BTC", "USD", WithClock(func() time.Time { return time.Unix(0, 0) }))
}

func eventKinds(events []types.Event) []string {
	kinds := make([]string, len(events))
	for i, e := range events {
		kinds[i] = e.Kind()
	}
	return kinds
}

// TestOrderbook_ConcreteScenarios mirrors the first four of spec.md §8's
// seven numbered scenarios for an engine constructed with (BTC, USD), in
// the style of tests/unit/matching_engine_test.go's scenario-driven
// cases; scenarios 5-7 are the separate tests that follow.
func TestOrderbook_ConcreteScenarios(t *testing.T) {
	book := newTestBook()

	// 1. Submit limit bid @ 41711.760112 x 0.15 -> Accepted; spread = none.
	bid1 := types.NewLimitIntent("BTC", "USD", types.SideBid, d("41711.760112"), d("0.15"), time.Now())
	events := book.ProcessOrder(bid1)
	require.Equal(t, []string{"accepted"}, eventKinds(events))
	_, _, ok := book.CurrentSpread()
	assert.False(t, ok)

	// 2. Submit limit ask @ 41712.60777901 x 1.0223 -> Accepted; spread set.
	ask1 := types.NewLimitIntent("BTC", "USD", types.SideAsk, d("41712.60777901"), d("1.0223"), time.Now())
	events = book.ProcessOrder(ask1)
	require.Equal(t, []string{"accepted"}, eventKinds(events))
	bidPrice, askPrice, ok := book.CurrentSpread()
	require.True(t, ok)
	assert.True(t, bidPrice.Equal(d("41711.760112")))
	assert.True(t, askPrice.Equal(d("41712.60777901")))

	// 3. Submit limit bid @ 1.01 x 0.4 -> Accepted; rests below best bid.
	bid2 := types.NewLimitIntent("BTC", "USD", types.SideBid, d("1.01"), d("0.4"), time.Now())
	events = book.ProcessOrder(bid2)
	require.Equal(t, []string{"accepted"}, eventKinds(events))
	bidPrice, _, ok = book.CurrentSpread()
	require.True(t, ok)
	assert.True(t, bidPrice.Equal(d("41711.760112")), "spread unchanged by a non-crossing, worse-priced bid")

	// 4. Submit limit ask @ 1.03 x 0.5 -> crosses bid1 (1.03 <= 41711.76),
	// fully filling bid1's 0.15 at the maker price 41711.760112. The
	// residual 0.35 does NOT cross bid2 @ 1.01 (1.03 > 1.01 fails the
	// ask overlap rule of §4.4), so it rests on the ask side at 1.03 —
	// see DESIGN.md for why this diverges from scenario 4's prose, which
	// describes the residual trading against bid2.
	ask2 := types.NewLimitIntent("BTC", "USD", types.SideAsk, d("1.03"), d("0.5"), time.Now())
	events = book.ProcessOrder(ask2)
	require.Equal(t,
		[]string{"accepted", "partially_filled", "filled"},
		eventKinds(events),
	)

	trade := events[1].(types.PartiallyFilled)
	assert.True(t, trade.Qty.Equal(d("0.15")), "trade consumes bid1's full quantity")
	assert.True(t, trade.Price.Equal(d("41711.760112")), "trade executes at the maker's price")

	bidPrice, askPrice, ok = book.CurrentSpread()
	require.True(t, ok)
	assert.True(t, bidPrice.Equal(d("1.01")), "bid1 is now gone, bid2 is best bid")
	assert.True(t, askPrice.Equal(d("1.03")), "ask2's 0.35 residual rests at its own price")
}

func TestOrderbook_MarketOrderNoMatchOnEmptyBook(t *testing.T) {
	book := newTestBook()
	market := types.NewMarketIntent("BTC", "USD", types.SideBid, d("0.90"), time.Now())
	events := book.ProcessOrder(market)
	assert.Equal(t, []string{"accepted", "no_match"}, eventKinds(events))
}

func TestOrderbook_CancelNilUUIDFailsValidation(t *testing.T) {
	book := newTestBook()
	cancel := types.CancelIntent(uuid.Nil, types.SideBid)
	events := book.ProcessOrder(cancel)
	require.Len(t, events, 1)
	vf, ok := events[0].(types.ValidationFailed)
	require.True(t, ok)
	assert.Equal(t, "order ID invalid", vf.Reason)
}

func TestOrderbook_AmendRestingBid(t *testing.T) {
	book := newTestBook()
	bid := types.NewLimitIntent("BTC", "USD", types.SideBid, d("100"), d("1"), time.Now())
	book.ProcessOrder(bid)

	amend := types.AmendIntent(bid.ID, types.SideBid, d("105"), d("2"), time.Now())
	events := book.ProcessOrder(amend)
	require.Len(t, events, 1)
	amended, ok := events[0].(types.Amended)
	require.True(t, ok)
	assert.True(t, amended.Price.Equal(d("105")))
	assert.True(t, amended.Qty.Equal(d("2")))

	top, ok := book.bids.Peek()
	require.True(t, ok)
	assert.True(t, top.Price.Equal(d("105")))
	assert.True(t, top.Qty.Equal(d("2")))
}

func TestOrderbook_DuplicateOrderIDAfterAccepted(t *testing.T) {
	book := newTestBook()
	ts := time.Now()
	id := uuid.New()

	first := types.NewLimitOrder{ID: id, OrderAsset: "BTC", PriceAsset: "USD", Side: types.SideBid, Price: d("100"), Qty: d("1"), Timestamp: ts}
	events := book.ProcessOrder(first)
	assert.Equal(t, []string{"accepted"}, eventKinds(events))

	dup := types.NewLimitOrder{ID: id, OrderAsset: "BTC", PriceAsset: "USD", Side: types.SideBid, Price: d("90"), Qty: d("1"), Timestamp: ts}
	events = book.ProcessOrder(dup)
	assert.Equal(t, []string{"accepted", "duplicate_order_id"}, eventKinds(events))
}

func TestOrderbook_ExactQuantityMatchPopsMaker(t *testing.T) {
	book := newTestBook()
	bid := types.NewLimitIntent("BTC", "USD", types.SideBid, d("100"), d("1"), time.Now())
	book.ProcessOrder(bid)

	ask := types.NewLimitIntent("BTC", "USD", types.SideAsk, d("100"), d("1"), time.Now())
	events := book.ProcessOrder(ask)
	assert.Equal(t, []string{"accepted", "filled", "filled"}, eventKinds(events))

	_, _, ok := book.CurrentSpread()
	assert.False(t, ok, "both sides are now empty")
}

func TestOrderbook_CancelThenCancelAgainYieldsOrderNotFound(t *testing.T) {
	book := newTestBook()
	bid := types.NewLimitIntent("BTC", "USD", types.SideBid, d("100"), d("1"), time.Now())
	book.ProcessOrder(bid)

	cancel := types.CancelIntent(bid.ID, types.SideBid)
	events := book.ProcessOrder(cancel)
	assert.Equal(t, []string{"cancelled"}, eventKinds(events))

	events = book.ProcessOrder(cancel)
	assert.Equal(t, []string{"order_not_found"}, eventKinds(events))
}

func TestOrderbook_CancelWrongSideYieldsOrderNotFound(t *testing.T) {
	book := newTestBook()
	bid := types.NewLimitIntent("BTC", "USD", types.SideBid, d("100"), d("1"), time.Now())
	book.ProcessOrder(bid)

	cancel := types.CancelIntent(bid.ID, types.SideAsk)
	events := book.ProcessOrder(cancel)
	assert.Equal(t, []string{"order_not_found"}, eventKinds(events))
}
