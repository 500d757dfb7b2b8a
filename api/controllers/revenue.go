package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/plasa/shopper-settlement/api/responses"
	"github.com/plasa/shopper-settlement/api/validators"
	"github.com/plasa/shopper-settlement/internal/revenue"
	pkgerrors "github.com/plasa/shopper-settlement/pkg/errors"
	"github.com/plasa/shopper-settlement/pkg/logger"
)

// RevenueCalculator is the slice of revenue.Service exposed over HTTP.
type RevenueCalculator interface {
	CalculateCommissionRevenue(ctx context.Context, orderID uuid.UUID) (*revenue.CommissionResult, error)
	CalculatePlasaFeeRevenue(ctx context.Context, orderID uuid.UUID) (*revenue.PlasaFeeResult, error)
	CalculateRevenue(ctx context.Context, orderID uuid.UUID) (*revenue.CombinedResult, error)
}

type revenueRequest struct {
	OrderID string `json:"orderId" validate:"required,uuid"`
}

func RevenueCommission(svc RevenueCalculator, logg *logger.Logger) http.HandlerFunc {
	return revenueHandler(logg, func(ctx context.Context, orderID uuid.UUID) (any, error) {
		return svc.CalculateCommissionRevenue(ctx, orderID)
	})
}

func RevenuePlasaFee(svc RevenueCalculator, logg *logger.Logger) http.HandlerFunc {
	return revenueHandler(logg, func(ctx context.Context, orderID uuid.UUID) (any, error) {
		return svc.CalculatePlasaFeeRevenue(ctx, orderID)
	})
}

func RevenueCalculate(svc RevenueCalculator, logg *logger.Logger) http.HandlerFunc {
	return revenueHandler(logg, func(ctx context.Context, orderID uuid.UUID) (any, error) {
		return svc.CalculateRevenue(ctx, orderID)
	})
}

func revenueHandler(logg *logger.Logger, calc func(context.Context, uuid.UUID) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req revenueRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := uuid.Parse(req.OrderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid orderId"))
			return
		}

		result, err := calc(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
