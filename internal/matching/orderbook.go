package matching

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/abdoElHodaky/matchbook/internal/types"
)

// DefaultStallBudget mirrors the teacher's Rust source's example
// instance (spec.md §4.1 suggests "e.g. 10").
const DefaultStallBudget = 10

// Clock supplies the engine's notion of "now", stamped on every event
// that carries an engine timestamp (Accepted, Filled, PartiallyFilled,
// Amended, Cancelled). Exists so tests can inject a deterministic clock;
// defaults to time.Now.
type Clock func() time.Time

// Orderbook is the Matcher of spec.md §4.3: it holds both side queues,
// the validator, and the engine's asset pair, and is the sole mutating
// entry point into the book. Grounded on pkg/matching/engine.go's
// MatchingEngine/OrderBook pairing (logger-carrying struct wrapping two
// queues) generalized from that file's AddOrder to ProcessOrder.
type Orderbook struct {
	orderAsset types.Asset
	priceAsset types.Asset
	bids       *OrderQueue
	asks       *OrderQueue
	validator  *Validator
	now        Clock
	logger     *zap.Logger
	stats      EngineStats
}

// EngineStats is a supplemented, read-only counter set (not named in
// spec.md, not excluded by it) grounded on
// internal/core/matching/types.go's EngineStats.
type EngineStats struct {
	OrdersProcessed uint64
	TradesExecuted  uint64
	Rebuilds        uint64
}

// Option configures an Orderbook at construction.
type Option func(*Orderbook)

// WithLogger injects a *zap.Logger; defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(ob *Orderbook) { ob.logger = logger }
}

// WithClock overrides the engine's notion of "now", mainly for tests.
func WithClock(clock Clock) Option {
	return func(ob *Orderbook) { ob.now = clock }
}

// WithStallBudget overrides DefaultStallBudget for both side queues.
func WithStallBudget(n int) Option {
	return func(ob *Orderbook) {
		ob.bids.stallBudget = n
		ob.asks.stallBudget = n
	}
}

// WithCapacity overrides the initial allocation hint for both queues.
// Has effect only if applied before any order is inserted.
func WithCapacity(n int) Option {
	return func(ob *Orderbook) {
		ob.bids.heap.entries = make([]heapEntry, 0, n)
		ob.asks.heap.entries = make([]heapEntry, 0, n)
	}
}

// NewOrderbook constructs an engine instance for one (order_asset,
// price_asset) pair.
func NewOrderbook(orderAsset, priceAsset types.Asset, opts ...Option) *Orderbook {
	logger := zap.NewNop()
	ob := &Orderbook{
		orderAsset: orderAsset,
		priceAsset: priceAsset,
		bids:       NewOrderQueue(types.SideBid, DefaultStallBudget, 64, logger),
		asks:       NewOrderQueue(types.SideAsk, DefaultStallBudget, 64, logger),
		validator:  NewValidator(orderAsset, priceAsset),
		now:        time.Now,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(ob)
	}
	ob.bids.logger = ob.logger
	ob.asks.logger = ob.logger
	return ob
}

// queueFor returns the side queue named by side.
func (ob *Orderbook) queueFor(side types.OrderSide) *OrderQueue {
	if side == types.SideBid {
		return ob.bids
	}
	return ob.asks
}

// opposite returns the queue on the other side from side.
func (ob *Orderbook) opposite(side types.OrderSide) *OrderQueue {
	if side == types.SideBid {
		return ob.asks
	}
	return ob.bids
}

// CurrentSpread peeks both sides; returns ok=false unless both are
// non-empty.
func (ob *Orderbook) CurrentSpread() (bidPrice, askPrice decimal.Decimal, ok bool) {
	bid, hasBid := ob.bids.Peek()
	ask, hasAsk := ob.asks.Peek()
	if !hasBid || !hasAsk {
		return decimal.Zero, decimal.Zero, false
	}
	return bid.Price, ask.Price, true
}

// BidDepthCount returns the number of live resting orders on the bid side.
func (ob *Orderbook) BidDepthCount() int { return ob.bids.Len() }

// AskDepthCount returns the number of live resting orders on the ask side.
func (ob *Orderbook) AskDepthCount() int { return ob.asks.Len() }

// OrderAsset returns the engine's configured order-side asset.
func (ob *Orderbook) OrderAsset() types.Asset { return ob.orderAsset }

// PriceAsset returns the engine's configured price-side asset.
func (ob *Orderbook) PriceAsset() types.Asset { return ob.priceAsset }

// Stats returns a snapshot of the supplemented EngineStats counters.
func (ob *Orderbook) Stats() EngineStats {
	s := ob.stats
	s.Rebuilds = ob.bids.Rebuilds() + ob.asks.Rebuilds()
	return s
}

// ProcessOrder is the sole mutating entry point: it validates, then
// dispatches by intent variant, returning the accumulated event vector.
func (ob *Orderbook) ProcessOrder(intent types.Intent) []types.Event {
	ob.stats.OrdersProcessed++
	if reason := ob.validator.Validate(intent); reason != "" {
		return []types.Event{types.ValidationFailed{Reason: reason}}
	}

	switch in := intent.(type) {
	case types.NewMarketOrder:
		return ob.processMarketOrder(in)
	case types.NewLimitOrder:
		return ob.processLimitOrder(in)
	case types.AmendOrder:
		return ob.processAmend(in)
	case types.CancelOrder:
		return ob.processCancel(in)
	}
	return nil
}

func (ob *Orderbook) acceptedFor(id uuid.UUID, orderAsset, priceAsset types.Asset, side types.OrderSide, orderType types.OrderType, price *decimal.Decimal, qty decimal.Decimal) types.Accepted {
	return types.Accepted{
		ID:         id,
		OrderAsset: orderAsset,
		PriceAsset: priceAsset,
		Side:       side,
		Type:       orderType,
		Price:      price,
		Qty:        qty,
		Timestamp:  ob.now(),
	}
}

// processMarketOrder implements spec.md §4.3's NewMarketOrder dispatch:
// Accepted, then an iterative drive against the opposite queue (spec.md
// §9 prefers a loop over the original recursive Rust source where stack
// depth matters).
func (ob *Orderbook) processMarketOrder(in types.NewMarketOrder) []types.Event {
	events := []types.Event{ob.acceptedFor(in.ID, in.OrderAsset, in.PriceAsset, in.Side, types.OrderTypeMarket, nil, in.Qty)}

	remaining := in.Qty
	opp := ob.opposite(in.Side)
	for remaining.IsPositive() {
		top, ok := opp.Peek()
		if !ok {
			events = append(events, types.NoMatch{ID: in.ID})
			break
		}
		traded, complete := ob.matchAgainst(opp, top, in.ID, in.Side, types.OrderTypeMarket, remaining, &events)
		remaining = remaining.Sub(traded)
		if complete {
			break
		}
	}
	return events
}

// processLimitOrder implements spec.md §4.3's NewLimitOrder dispatch:
// Accepted, then overlap testing and matching against the opposite
// queue, resting any residual on its own side.
func (ob *Orderbook) processLimitOrder(in types.NewLimitOrder) []types.Event {
	price := in.Price
	events := []types.Event{ob.acceptedFor(in.ID, in.OrderAsset, in.PriceAsset, in.Side, types.OrderTypeLimit, &price, in.Qty)}

	remaining := in.Qty
	opp := ob.opposite(in.Side)
	for {
		top, ok := opp.Peek()
		if !ok {
			break
		}
		if !crosses(in.Side, in.Price, top.Price) {
			break
		}
		traded, complete := ob.matchAgainst(opp, top, in.ID, in.Side, types.OrderTypeLimit, remaining, &events)
		remaining = remaining.Sub(traded)
		if complete {
			return events
		}
	}

	if remaining.IsPositive() {
		order := types.Order{
			ID:         in.ID,
			OrderAsset: in.OrderAsset,
			PriceAsset: in.PriceAsset,
			Side:       in.Side,
			Price:      in.Price,
			Qty:        remaining,
			Timestamp:  in.Timestamp,
		}
		own := ob.queueFor(in.Side)
		if !own.Insert(in.ID, in.Price, in.Timestamp, order) {
			events = append(events, types.DuplicateOrderID{ID: in.ID})
		}
	}
	return events
}

// crosses reports whether an incoming limit at price overlaps the
// opposite best price: for bid, incoming >= opposite best; for ask,
// incoming <= opposite best.
func crosses(side types.OrderSide, incoming, oppositeBest decimal.Decimal) bool {
	if side == types.SideBid {
		return incoming.GreaterThanOrEqual(oppositeBest)
	}
	return incoming.LessThanOrEqual(oppositeBest)
}

// matchAgainst runs the three q<Q / q>Q / q=Q cases of spec.md §4.4
// against the current opposite-side top order O, appending events in
// aggressor-first-then-maker order. Returns the quantity traded in this
// step and whether the aggressor is now fully satisfied ("complete").
func (ob *Orderbook) matchAgainst(opp *OrderQueue, top types.Order, aggressorID uuid.UUID, aggressorSide types.OrderSide, aggressorType types.OrderType, q decimal.Decimal, events *[]types.Event) (traded decimal.Decimal, complete bool) {
	Q := top.Qty
	p := top.Price
	t := ob.now()
	ob.stats.TradesExecuted++

	switch {
	case q.LessThan(Q):
		*events = append(*events,
			types.Filled{ID: aggressorID, Side: aggressorSide, Type: aggressorType, Price: p, Qty: q, Ts: t},
			types.PartiallyFilled{ID: top.ID, Side: top.Side, Type: types.OrderTypeLimit, Price: p, Qty: q, Ts: t},
		)
		remainder := top
		remainder.Qty = Q.Sub(q)
		opp.ModifyCurrentOrder(remainder)
		return q, true

	case q.GreaterThan(Q):
		*events = append(*events,
			types.PartiallyFilled{ID: aggressorID, Side: aggressorSide, Type: aggressorType, Price: p, Qty: Q, Ts: t},
			types.Filled{ID: top.ID, Side: top.Side, Type: types.OrderTypeLimit, Price: p, Qty: Q, Ts: t},
		)
		opp.Pop()
		return Q, false

	default:
		*events = append(*events,
			types.Filled{ID: aggressorID, Side: aggressorSide, Type: aggressorType, Price: p, Qty: q, Ts: t},
			types.Filled{ID: top.ID, Side: top.Side, Type: types.OrderTypeLimit, Price: p, Qty: q, Ts: t},
		)
		opp.Pop()
		return q, true
	}
}

func (ob *Orderbook) processAmend(in types.AmendOrder) []types.Event {
	q := ob.queueFor(in.Side)
	order := types.Order{
		ID:         in.ID,
		OrderAsset: ob.orderAsset,
		PriceAsset: ob.priceAsset,
		Side:       in.Side,
		Price:      in.Price,
		Qty:        in.Qty,
		Timestamp:  in.Timestamp,
	}
	if !q.Amend(in.ID, in.Price, in.Timestamp, order) {
		return []types.Event{types.OrderNotFound{ID: in.ID}}
	}
	return []types.Event{types.Amended{ID: in.ID, Price: in.Price, Qty: in.Qty, Ts: ob.now()}}
}

func (ob *Orderbook) processCancel(in types.CancelOrder) []types.Event {
	q := ob.queueFor(in.Side)
	if !q.Cancel(in.ID) {
		return []types.Event{types.OrderNotFound{ID: in.ID}}
	}
	return []types.Event{types.Cancelled{ID: in.ID, Ts: ob.now()}}
}
