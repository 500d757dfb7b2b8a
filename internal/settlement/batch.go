package settlement

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/plasa/shopper-settlement/internal/orders"
)

// effectiveAmount is the sum of price x quantity across the same-shop,
// shopper-assigned regular orders of a combined checkout. Anything else, or
// a failed or empty lookup, falls back to the order's own total. It runs
// before the settlement transaction opens so a failed lookup cannot abort it.
func (e *engine) effectiveAmount(ctx context.Context, order orders.Handle) decimal.Decimal {
	if !order.IsRegular() || !order.Batched() || order.ShopID == nil {
		return order.Total
	}
	items, err := e.orders.FindBatchItems(ctx, *order.CombinedOrderID, *order.ShopID)
	if err != nil {
		if e.logg != nil {
			e.logg.Warn(e.logg.WithField(ctx, "error", err.Error()), "batch total lookup failed; using order total")
		}
		return order.Total
	}
	if len(items) == 0 {
		return order.Total
	}
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return sum
}
