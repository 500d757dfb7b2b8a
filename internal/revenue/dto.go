package revenue

import (
	"github.com/google/uuid"

	"github.com/plasa/shopper-settlement/pkg/enums"
)

const (
	msgAlreadyRecorded = "revenue already calculated for this order"
	msgRegularOnly     = "commission applies to regular orders only"
	msgNoFee           = "no positive plasa fee to record"
	msgNoItems         = "order has no line items"
	zeroMoney          = "0.00"
)

// CommissionResult is returned by commission recognition. Amounts are zeroed
// when nothing was written by this call.
type CommissionResult struct {
	OrderID         uuid.UUID       `json:"orderId"`
	OrderKind       enums.OrderKind `json:"orderKind"`
	Recorded        bool            `json:"recorded"`
	AlreadyRecorded bool            `json:"alreadyRecorded"`
	Message         string          `json:"message,omitempty"`
	Breakdown
	Products []ProductProfit `json:"products"`
}

// PlasaFeeResult is returned by plasa fee recognition.
type PlasaFeeResult struct {
	OrderID              uuid.UUID       `json:"orderId"`
	OrderKind            enums.OrderKind `json:"orderKind"`
	Recorded             bool            `json:"recorded"`
	AlreadyRecorded      bool            `json:"alreadyRecorded"`
	Message              string          `json:"message,omitempty"`
	TotalFees            string          `json:"totalFees"`
	CommissionPercentage string          `json:"commissionPercentage"`
	PlasaFee             string          `json:"plasaFee"`
}

// CombinedResult carries both revenue streams for one order.
type CombinedResult struct {
	Commission *CommissionResult `json:"commission"`
	PlasaFee   *PlasaFeeResult   `json:"plasaFee"`
}

func zeroCommission(orderID uuid.UUID, kind enums.OrderKind, message string) *CommissionResult {
	return &CommissionResult{
		OrderID:   orderID,
		OrderKind: kind,
		Message:   message,
		Breakdown: Breakdown{CustomerTotal: zeroMoney, ActualTotal: zeroMoney, Revenue: zeroMoney},
		Products:  []ProductProfit{},
	}
}

func zeroPlasaFee(orderID uuid.UUID, kind enums.OrderKind, message string) *PlasaFeeResult {
	return &PlasaFeeResult{
		OrderID:              orderID,
		OrderKind:            kind,
		Message:              message,
		TotalFees:            zeroMoney,
		CommissionPercentage: zeroMoney,
		PlasaFee:             zeroMoney,
	}
}
