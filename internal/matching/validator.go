package matching

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/abdoElHodaky/matchbook/internal/types"
)

// Legacy rejection strings, kept verbatim from the original validator
// (original_source/orderbook/src/guid/validation.rs) per spec.md §4.2 —
// "price must be non-negative" is a strict-positivity check despite its
// wording; this repository preserves the observed message text.
const (
	errBadOrderAsset  = "bad order asset"
	errBadPriceAsset  = "bad price asset"
	errBadPriceValue  = "price must be non-negative"
	errBadQtyValue    = "quantity must be non-negative"
	errBadOrderID     = "order ID invalid"
)

// Validator is a stateless predicate check run on every intent before it
// touches the book. It is parameterized at construction by the engine's
// (order_asset, price_asset) pair; it holds no other state.
type Validator struct {
	orderAsset types.Asset
	priceAsset types.Asset
}

// NewValidator builds a Validator bound to one engine instance's assets.
func NewValidator(orderAsset, priceAsset types.Asset) *Validator {
	return &Validator{orderAsset: orderAsset, priceAsset: priceAsset}
}

// Validate runs the four ordered rules from spec.md §4.2, first failure
// wins. Returns "" when the intent is accepted.
func (v *Validator) Validate(intent types.Intent) string {
	switch in := intent.(type) {
	case types.NewMarketOrder:
		if reason := v.checkAssets(in.OrderAsset, in.PriceAsset); reason != "" {
			return reason
		}
		return v.checkQty(in.Qty)
	case types.NewLimitOrder:
		if reason := v.checkAssets(in.OrderAsset, in.PriceAsset); reason != "" {
			return reason
		}
		if reason := v.checkPrice(in.Price); reason != "" {
			return reason
		}
		return v.checkQty(in.Qty)
	case types.AmendOrder:
		// price, then qty, then id — follows spec.md §4.2's numbered rule
		// order (id is rule 4), not validate_amend's id-first check in the
		// original; a nil-id amend with a non-positive price reports the
		// price reason here instead of errBadOrderID.
		if reason := v.checkPrice(in.Price); reason != "" {
			return reason
		}
		if reason := v.checkQty(in.Qty); reason != "" {
			return reason
		}
		return v.checkID(in.ID)
	case types.CancelOrder:
		return v.checkID(in.ID)
	}
	return ""
}

func (v *Validator) checkAssets(orderAsset, priceAsset types.Asset) string {
	if orderAsset != v.orderAsset {
		return errBadOrderAsset
	}
	if priceAsset != v.priceAsset {
		return errBadPriceAsset
	}
	return ""
}

func (v *Validator) checkPrice(price decimal.Decimal) string {
	if !price.IsPositive() {
		return errBadPriceValue
	}
	return ""
}

func (v *Validator) checkQty(qty decimal.Decimal) string {
	if !qty.IsPositive() {
		return errBadQtyValue
	}
	return ""
}

func (v *Validator) checkID(id uuid.UUID) string {
	if id == uuid.Nil {
		return errBadOrderID
	}
	return ""
}
