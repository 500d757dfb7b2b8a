package revenue

import (
	"github.com/shopspring/decimal"

	"github.com/plasa/shopper-settlement/pkg/db/models"
	"github.com/plasa/shopper-settlement/pkg/types"
)

// LineItem pairs the shop-facing price with the customer-facing price.
type LineItem struct {
	Name       string
	Price      decimal.Decimal
	FinalPrice decimal.Decimal
	Quantity   int
}

// Breakdown is the commission summary for a set of line items.
type Breakdown struct {
	CustomerTotal string `json:"customerTotal"`
	ActualTotal   string `json:"actualTotal"`
	Revenue       string `json:"revenue"`
}

// ProductProfit is the per-product margin persisted on commission records.
type ProductProfit struct {
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	UnitMargin string `json:"unitMargin"`
	LineMargin string `json:"lineMargin"`
}

// LineItemsFrom maps stored order items onto calculator input.
func LineItemsFrom(items []models.OrderItem) []LineItem {
	out := make([]LineItem, 0, len(items))
	for _, item := range items {
		out = append(out, LineItem{
			Name:       item.ProductName,
			Price:      item.ProductPrice,
			FinalPrice: item.ProductFinalPrice,
			Quantity:   item.Quantity,
		})
	}
	return out
}

// CalculateRevenue sums what the customer paid against what the shop is owed.
func CalculateRevenue(items []LineItem) Breakdown {
	customerTotal := decimal.Zero
	actualTotal := decimal.Zero
	for _, item := range items {
		qty := decimal.NewFromInt(int64(item.Quantity))
		customerTotal = customerTotal.Add(item.FinalPrice.Mul(qty))
		actualTotal = actualTotal.Add(item.Price.Mul(qty))
	}
	return Breakdown{
		CustomerTotal: types.FormatMoney(customerTotal),
		ActualTotal:   types.FormatMoney(actualTotal),
		Revenue:       types.FormatMoney(customerTotal.Sub(actualTotal)),
	}
}

// CalculateProductProfits returns the margin of each line item.
func CalculateProductProfits(items []LineItem) []ProductProfit {
	out := make([]ProductProfit, 0, len(items))
	for _, item := range items {
		unit := item.FinalPrice.Sub(item.Price)
		out = append(out, ProductProfit{
			Name:       item.Name,
			Quantity:   item.Quantity,
			UnitMargin: types.FormatMoney(unit),
			LineMargin: types.FormatMoney(unit.Mul(decimal.NewFromInt(int64(item.Quantity)))),
		})
	}
	return out
}

// CalculatePlasaFee is the platform cut of the service and delivery fees,
// rounded to cents. Non-positive inputs produce non-positive fees; callers
// only persist strictly positive fees.
func CalculatePlasaFee(serviceFee, deliveryFee, commissionPercentage decimal.Decimal) decimal.Decimal {
	return types.RoundMoney(types.Percentage(serviceFee.Add(deliveryFee), commissionPercentage))
}
