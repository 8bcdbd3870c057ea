package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Asset is an opaque, comparable token identifying one leg of a trading
// pair (e.g. "BTC", "USD"). The core never interprets its contents.
type Asset string

// OrderSide is the book side an order rests on or trades against.
type OrderSide string

const (
	SideBid OrderSide = "bid"
	SideAsk OrderSide = "ask"
)

// OrderType distinguishes market orders (which never rest) from limit
// orders (which rest when they do not fully cross).
type OrderType string

const (
	OrderTypeMarket OrderType = "market"
	OrderTypeLimit  OrderType = "limit"
)

// Order is the resting record an OrderQueue holds for one live order. It
// exists in exactly one queue for its entire lifetime.
type Order struct {
	ID         uuid.UUID
	OrderAsset Asset
	PriceAsset Asset
	Side       OrderSide
	Price      decimal.Decimal
	Qty        decimal.Decimal
	Timestamp  time.Time
}

// Clone returns a value copy, the snapshot peek/pop hand back to callers
// so the queue's internal state is never aliased out.
func (o Order) Clone() Order {
	return o
}
