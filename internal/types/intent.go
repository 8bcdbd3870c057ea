package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Intent is the tagged union of inbound requests the engine accepts.
// Go has no enum-with-payload construct, so the variant is the concrete
// type itself; Orderbook.ProcessOrder type-switches on it the same way
// pkg/matching/engine.go switches on order.Type.
type Intent interface {
	intent()
}

// NewMarketOrder requests an immediate match against the opposite side
// for up to Qty; any unfilled remainder never rests.
type NewMarketOrder struct {
	ID         uuid.UUID
	OrderAsset Asset
	PriceAsset Asset
	Side       OrderSide
	Qty        decimal.Decimal
	Timestamp  time.Time
}

func (NewMarketOrder) intent() {}

// NewLimitOrder requests a match at Price or better, resting any
// unfilled remainder on its own side at Price.
type NewLimitOrder struct {
	ID         uuid.UUID
	OrderAsset Asset
	PriceAsset Asset
	Side       OrderSide
	Price      decimal.Decimal
	Qty        decimal.Decimal
	Timestamp  time.Time
}

func (NewLimitOrder) intent() {}

// AmendOrder replaces the price and/or quantity of a live order,
// refreshing its queue priority.
type AmendOrder struct {
	ID        uuid.UUID
	Side      OrderSide
	Price     decimal.Decimal
	Qty       decimal.Decimal
	Timestamp time.Time
}

func (AmendOrder) intent() {}

// CancelOrder removes a live order from the named side.
type CancelOrder struct {
	ID   uuid.UUID
	Side OrderSide
}

func (CancelOrder) intent() {}

// NewMarketIntent builds a NewMarketOrder with a freshly generated id,
// mirroring the engine's "new_market" constructor from spec §6.
func NewMarketIntent(orderAsset, priceAsset Asset, side OrderSide, qty decimal.Decimal, ts time.Time) NewMarketOrder {
	return NewMarketOrder{
		ID:         uuid.New(),
		OrderAsset: orderAsset,
		PriceAsset: priceAsset,
		Side:       side,
		Qty:        qty,
		Timestamp:  ts,
	}
}

// NewLimitIntent builds a NewLimitOrder with a freshly generated id.
func NewLimitIntent(orderAsset, priceAsset Asset, side OrderSide, price, qty decimal.Decimal, ts time.Time) NewLimitOrder {
	return NewLimitOrder{
		ID:         uuid.New(),
		OrderAsset: orderAsset,
		PriceAsset: priceAsset,
		Side:       side,
		Price:      price,
		Qty:        qty,
		Timestamp:  ts,
	}
}

// AmendIntent builds an AmendOrder for an existing id.
func AmendIntent(id uuid.UUID, side OrderSide, price, qty decimal.Decimal, ts time.Time) AmendOrder {
	return AmendOrder{ID: id, Side: side, Price: price, Qty: qty, Timestamp: ts}
}

// CancelIntent builds a CancelOrder for an existing id.
func CancelIntent(id uuid.UUID, side OrderSide) CancelOrder {
	return CancelOrder{ID: id, Side: side}
}
