package matching

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/abdoElHodaky/matchbook/internal/types"
)

// PriceLevel aggregates all live quantity resting at one price, the unit
// GetDepth reports. Grounded on
// internal/core/matching/order_book.go's PriceLevel/getHeapLevels.
type PriceLevel struct {
	Price decimal.Decimal
	Qty   decimal.Decimal
}

// Depth is a supplemented, read-only market-depth snapshot — not named
// in spec.md, not excluded by its Non-goals (which scope order
// modalities and concurrency, not read-only depth queries).
type Depth struct {
	Bids []PriceLevel
	Asks []PriceLevel
}

// GetDepth aggregates live order quantity by price, best-first, limited
// to at most levels price levels per side (0 means unlimited).
func (ob *Orderbook) GetDepth(levels int) Depth {
	return Depth{
		Bids: aggregateLevels(ob.bids, levels),
		Asks: aggregateLevels(ob.asks, levels),
	}
}

func aggregateLevels(q *OrderQueue, levels int) []PriceLevel {
	totals := make(map[string]decimal.Decimal, len(q.byID))
	prices := make(map[string]decimal.Decimal, len(q.byID))
	for id, order := range q.byID {
		key := order.Price.String()
		totals[key] = totals[key].Add(order.Qty)
		prices[key] = q.priorities[id].price
	}

	out := make([]PriceLevel, 0, len(totals))
	for key, qty := range totals {
		out = append(out, PriceLevel{Price: prices[key], Qty: qty})
	}

	bid := q.side == types.SideBid
	sort.Slice(out, func(i, j int) bool {
		if bid {
			return out[i].Price.GreaterThan(out[j].Price)
		}
		return out[i].Price.LessThan(out[j].Price)
	})

	if levels > 0 && len(out) > levels {
		out = out[:levels]
	}
	return out
}
