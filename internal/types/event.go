package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event is the tagged union every ProcessOrder call appends to its
// result buffer. Kind is the JSON discriminant the HTTP facade uses when
// serializing a heterogeneous []Event, grounded on how the original Rust
// source tags Success/Failed via serde — here expressed as an explicit
// field instead of reflection.
type Event interface {
	Kind() string
}

// Accepted echoes an intent's essential fields plus the engine's
// processing timestamp. Always the first event for a NewMarketOrder or
// NewLimitOrder intent that passes validation, emitted before any
// duplicate-id or match check; a rejected intent yields only
// ValidationFailed.
type Accepted struct {
	ID         uuid.UUID       `json:"id"`
	OrderAsset Asset           `json:"order_asset"`
	PriceAsset Asset           `json:"price_asset"`
	Side       OrderSide       `json:"side"`
	Type       OrderType       `json:"type"`
	Price      *decimal.Decimal `json:"price,omitempty"`
	Qty        decimal.Decimal `json:"qty"`
	Timestamp  time.Time       `json:"ts"`
}

func (Accepted) Kind() string { return "accepted" }

// Filled and PartiallyFilled share a shape: id, side, order type, the
// trade price (always the maker's resting price), the traded quantity,
// and the engine timestamp. PartiallyFilled reports the traded quantity,
// not the remainder — an observed, intentionally-preserved quirk.
type Filled struct {
	ID    uuid.UUID       `json:"id"`
	Side  OrderSide       `json:"side"`
	Type  OrderType       `json:"type"`
	Price decimal.Decimal `json:"price"`
	Qty   decimal.Decimal `json:"qty"`
	Ts    time.Time       `json:"ts"`
}

func (Filled) Kind() string { return "filled" }

type PartiallyFilled struct {
	ID    uuid.UUID       `json:"id"`
	Side  OrderSide       `json:"side"`
	Type  OrderType       `json:"type"`
	Price decimal.Decimal `json:"price"`
	Qty   decimal.Decimal `json:"qty"`
	Ts    time.Time       `json:"ts"`
}

func (PartiallyFilled) Kind() string { return "partially_filled" }

// Amended reports the new price/qty of a successfully amended order.
type Amended struct {
	ID    uuid.UUID       `json:"id"`
	Price decimal.Decimal `json:"price"`
	Qty   decimal.Decimal `json:"qty"`
	Ts    time.Time       `json:"ts"`
}

func (Amended) Kind() string { return "amended" }

// Cancelled reports a successful cancel.
type Cancelled struct {
	ID uuid.UUID `json:"id"`
	Ts time.Time `json:"ts"`
}

func (Cancelled) Kind() string { return "cancelled" }

// ValidationFailed carries the rejection reason; terminal for the intent,
// no book mutation occurred.
type ValidationFailed struct {
	Reason string `json:"reason"`
}

func (ValidationFailed) Kind() string { return "validation_failed" }

// DuplicateOrderID is emitted when a new limit order's id collided with
// a live order — always after that intent's Accepted event.
type DuplicateOrderID struct {
	ID uuid.UUID `json:"id"`
}

func (DuplicateOrderID) Kind() string { return "duplicate_order_id" }

// NoMatch is emitted once per empty opposite-side peek encountered while
// matching a market order.
type NoMatch struct {
	ID uuid.UUID `json:"id"`
}

func (NoMatch) Kind() string { return "no_match" }

// OrderNotFound is emitted when an amend or cancel targets an unknown id
// (or an id live on the other side from the one supplied).
type OrderNotFound struct {
	ID uuid.UUID `json:"id"`
}

func (OrderNotFound) Kind() string { return "order_not_found" }

// eventEnvelope is the wire shape the HTTP/websocket facade serializes
// an Event to: the Kind() discriminant under "kind" and the event's own
// fields nested under "data", grounded on how the original Rust source
// tags its Success/Failed variants via serde and reexpressed here as an
// explicit envelope rather than Go reflection.
type eventEnvelope struct {
	Kind string `json:"kind"`
	Data Event  `json:"data"`
}

// MarshalEvent projects an Event to JSON with its Kind() discriminant,
// the "downstream concern" spec.md §1 calls out — the core itself never
// serializes.
func MarshalEvent(e Event) ([]byte, error) {
	return json.Marshal(eventEnvelope{Kind: e.Kind(), Data: e})
}

// MarshalEvents projects a slice of heterogeneous Events to a JSON array
// of envelopes.
func MarshalEvents(events []Event) ([]byte, error) {
	envelopes := make([]eventEnvelope, len(events))
	for i, e := range events {
		envelopes[i] = eventEnvelope{Kind: e.Kind(), Data: e}
	}
	return json.Marshal(envelopes)
}
