package revenue

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/plasa/shopper-settlement/pkg/db/models"
)

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func TestCalculateRevenueScenario(t *testing.T) {
	got := CalculateRevenue([]LineItem{{Name: "oil", Price: d("1233"), FinalPrice: d("4555"), Quantity: 3}})
	want := Breakdown{CustomerTotal: "13665.00", ActualTotal: "3699.00", Revenue: "9966.00"}
	if got != want {
		t.Fatalf("got %+v want %+v", got, want)
	}
}

func TestCalculateRevenueIdentity(t *testing.T) {
	cases := [][]LineItem{
		nil,
		{{Price: d("0.10"), FinalPrice: d("0.20"), Quantity: 3}},
		{{Price: d("19.99"), FinalPrice: d("24.49"), Quantity: 7}, {Price: d("5"), FinalPrice: d("5"), Quantity: 1}},
		{{Price: d("0.01"), FinalPrice: d("0.03"), Quantity: 1000}},
	}
	for i, items := range cases {
		got := CalculateRevenue(items)
		customer, actual, rev := d(got.CustomerTotal), d(got.ActualTotal), d(got.Revenue)
		if !rev.Equal(customer.Sub(actual)) {
			t.Fatalf("case %d: revenue %s != %s - %s", i, rev, customer, actual)
		}
		if customer.IsNegative() || actual.IsNegative() || rev.IsNegative() {
			t.Fatalf("case %d: negative totals %+v", i, got)
		}
	}
	if got := CalculateRevenue(nil); got.Revenue != "0.00" {
		t.Fatalf("empty items should be zero, got %+v", got)
	}
}

func TestCalculateProductProfits(t *testing.T) {
	got := CalculateProductProfits([]LineItem{
		{Name: "oil", Price: d("1233"), FinalPrice: d("4555"), Quantity: 3},
		{Name: "salt", Price: d("1.10"), FinalPrice: d("1.25"), Quantity: 2},
	})
	if len(got) != 2 {
		t.Fatalf("expected two rows, got %d", len(got))
	}
	if got[0] != (ProductProfit{Name: "oil", Quantity: 3, UnitMargin: "3322.00", LineMargin: "9966.00"}) {
		t.Fatalf("unexpected oil row %+v", got[0])
	}
	if got[1].UnitMargin != "0.15" || got[1].LineMargin != "0.30" {
		t.Fatalf("unexpected salt row %+v", got[1])
	}
}

func TestCalculatePlasaFee(t *testing.T) {
	cases := []struct {
		service, delivery, pct, want string
	}{
		{"1000", "500", "15", "225"},
		{"0", "0", "20", "0"},
		{"3.33", "0", "10", "0.33"},
		{"0.05", "0", "50", "0.03"},
		{"12.34", "5.67", "12.5", "2.25"},
	}
	for _, tc := range cases {
		got := CalculatePlasaFee(d(tc.service), d(tc.delivery), d(tc.pct))
		if !got.Equal(d(tc.want)) {
			t.Fatalf("fee(%s,%s,%s)=%s want %s", tc.service, tc.delivery, tc.pct, got, tc.want)
		}
		expected := d(tc.service).Add(d(tc.delivery)).Mul(d(tc.pct)).Div(decimal.NewFromInt(100)).Round(2)
		if !got.Equal(expected) {
			t.Fatalf("fee is not round2((s+d)*pct/100): %s vs %s", got, expected)
		}
	}
	if fee := CalculatePlasaFee(d("-10"), d("0"), d("20")); !fee.IsNegative() {
		t.Fatalf("negative fees pass through for the caller to guard, got %s", fee)
	}
}

func TestLineItemsFrom(t *testing.T) {
	items := LineItemsFrom([]models.OrderItem{{ProductName: "oil", Price: d("9"), ProductPrice: d("1233"), ProductFinalPrice: d("4555"), Quantity: 3}})
	if len(items) != 1 || !items[0].Price.Equal(d("1233")) || !items[0].FinalPrice.Equal(d("4555")) || items[0].Name != "oil" {
		t.Fatalf("unexpected mapping %+v", items)
	}
}
