package revenue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/plasa/shopper-settlement/internal/orders"
	"github.com/plasa/shopper-settlement/internal/sysconfig"
	"github.com/plasa/shopper-settlement/pkg/db/models"
	"github.com/plasa/shopper-settlement/pkg/enums"
	pkgerrors "github.com/plasa/shopper-settlement/pkg/errors"
	"github.com/plasa/shopper-settlement/pkg/logger"
	"github.com/plasa/shopper-settlement/pkg/metrics"
	"github.com/plasa/shopper-settlement/pkg/outbox"
	"github.com/plasa/shopper-settlement/pkg/outbox/payloads"
	"github.com/plasa/shopper-settlement/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service recognizes commission and plasa fee revenue exactly once per order.
type Service interface {
	CalculateCommissionRevenue(ctx context.Context, orderID uuid.UUID) (*CommissionResult, error)
	CalculatePlasaFeeRevenue(ctx context.Context, orderID uuid.UUID) (*PlasaFeeResult, error)
	CalculateRevenue(ctx context.Context, orderID uuid.UUID) (*CombinedResult, error)
	RecognizeCommission(ctx context.Context, order orders.Handle) (*CommissionResult, error)
	RecognizePlasaFee(ctx context.Context, order orders.Handle, commissionPercentage decimal.Decimal) (*PlasaFeeResult, error)
}

// ServiceParams groups the revenue service dependencies.
type ServiceParams struct {
	Orders  orders.Repository
	Revenue Repository
	Config  sysconfig.Reader
	Tx      txRunner
	Outbox  outbox.Emitter
	Logger  *logger.Logger
	Metrics *metrics.SettlementMetrics
}

type service struct {
	orders  orders.Repository
	repo    Repository
	guard   *Guard
	config  sysconfig.Reader
	tx      txRunner
	outbox  outbox.Emitter
	logg    *logger.Logger
	metrics *metrics.SettlementMetrics
}

// NewService wires the revenue service.
func NewService(p ServiceParams) (Service, error) {
	if p.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if p.Revenue == nil {
		return nil, fmt.Errorf("revenue repository required")
	}
	if p.Config == nil {
		return nil, fmt.Errorf("system configuration reader required")
	}
	if p.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if p.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{
		orders:  p.Orders,
		repo:    p.Revenue,
		guard:   NewGuard(p.Revenue),
		config:  p.Config,
		tx:      p.Tx,
		outbox:  p.Outbox,
		logg:    p.Logger,
		metrics: p.Metrics,
	}, nil
}

func (s *service) CalculateCommissionRevenue(ctx context.Context, orderID uuid.UUID) (*CommissionResult, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	res, err := s.RecognizeCommission(ctx, *order)
	if err != nil {
		return nil, pkgerrors.EnsureCode(err, pkgerrors.CodeInternal, "calculate commission revenue")
	}
	return res, nil
}

func (s *service) CalculatePlasaFeeRevenue(ctx context.Context, orderID uuid.UUID) (*PlasaFeeResult, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	pct, err := s.config.CommissionPercentage(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load commission percentage")
	}
	res, err := s.RecognizePlasaFee(ctx, *order, pct)
	if err != nil {
		return nil, pkgerrors.EnsureCode(err, pkgerrors.CodeInternal, "calculate plasa fee revenue")
	}
	return res, nil
}

func (s *service) CalculateRevenue(ctx context.Context, orderID uuid.UUID) (*CombinedResult, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	pct, err := s.config.CommissionPercentage(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load commission percentage")
	}
	commission, err := s.RecognizeCommission(ctx, *order)
	if err != nil {
		return nil, pkgerrors.EnsureCode(err, pkgerrors.CodeInternal, "calculate commission revenue")
	}
	fee, err := s.RecognizePlasaFee(ctx, *order, pct)
	if err != nil {
		return nil, pkgerrors.EnsureCode(err, pkgerrors.CodeInternal, "calculate plasa fee revenue")
	}
	return &CombinedResult{Commission: commission, PlasaFee: fee}, nil
}

// RecognizeCommission records the markup earned on a regular order's goods.
func (s *service) RecognizeCommission(ctx context.Context, order orders.Handle) (*CommissionResult, error) {
	if !order.IsRegular() {
		return zeroCommission(order.ID, order.Kind, msgRegularOnly), nil
	}

	var (
		breakdown Breakdown
		profits   []ProductProfit
		outcome   Outcome
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var (
			record *models.Revenue
			err    error
		)
		outcome, record, err = s.guard.WithTx(tx).EnsureRevenueRecorded(ctx,
			Key{SourceOrderID: order.ID, Type: enums.RevenueTypeCommission},
			func(ctx context.Context) (*models.Revenue, error) {
				items, err := s.orders.WithTx(tx).FindOrderItems(ctx, order.ID)
				if err != nil {
					return nil, fmt.Errorf("load order items: %w", err)
				}
				if len(items) == 0 {
					return nil, nil
				}
				lines := LineItemsFrom(items)
				breakdown = CalculateRevenue(lines)
				profits = CalculateProductProfits(lines)
				productsJSON, err := json.Marshal(profits)
				if err != nil {
					return nil, err
				}
				shopperID, err := s.shopperEntity(ctx, tx, order)
				if err != nil {
					return nil, err
				}
				orderID := order.ID
				return &models.Revenue{
					ShopID:    order.ShopID,
					ShopperID: shopperID,
					OrderID:   &orderID,
					OrderKind: order.Kind,
					Amount:    decimal.RequireFromString(breakdown.Revenue),
					Products:  productsJSON,
				}, nil
			})
		if err != nil {
			return err
		}
		if outcome != OutcomeRecorded {
			return nil
		}
		return s.emitRecognized(ctx, tx, order, record)
	})
	if err != nil {
		s.metrics.IncRevenue(string(enums.RevenueTypeCommission), "error")
		return nil, err
	}
	s.metrics.IncRevenue(string(enums.RevenueTypeCommission), outcome.String())

	switch outcome {
	case OutcomeAlreadyRecorded:
		return s.alreadyCommission(order), nil
	case OutcomeNothingToRecord:
		return zeroCommission(order.ID, order.Kind, msgNoItems), nil
	}
	s.log(ctx, order, "commission revenue recorded")
	return &CommissionResult{
		OrderID:   order.ID,
		OrderKind: order.Kind,
		Recorded:  true,
		Breakdown: breakdown,
		Products:  profits,
	}, nil
}

// RecognizePlasaFee records the platform cut of the order fees when it is
// strictly positive.
func (s *service) RecognizePlasaFee(ctx context.Context, order orders.Handle, commissionPercentage decimal.Decimal) (*PlasaFeeResult, error) {
	fee := CalculatePlasaFee(order.ServiceFee, order.DeliveryFee, commissionPercentage)

	var outcome Outcome
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var (
			record *models.Revenue
			err    error
		)
		outcome, record, err = s.guard.WithTx(tx).EnsureRevenueRecorded(ctx,
			Key{SourceOrderID: order.ID, Type: enums.RevenueTypePlasaFee},
			func(ctx context.Context) (*models.Revenue, error) {
				if !fee.IsPositive() {
					return nil, nil
				}
				shopperID, err := s.shopperEntity(ctx, tx, order)
				if err != nil {
					return nil, err
				}
				rec := &models.Revenue{
					ShopID:               order.ShopID,
					ShopperID:            shopperID,
					OrderKind:            order.Kind,
					Amount:               fee,
					CommissionPercentage: decimal.NewNullDecimal(commissionPercentage),
				}
				if order.IsRegular() {
					orderID := order.ID
					rec.OrderID = &orderID
				}
				return rec, nil
			})
		if err != nil {
			return err
		}
		if outcome != OutcomeRecorded {
			return nil
		}
		return s.emitRecognized(ctx, tx, order, record)
	})
	if err != nil {
		s.metrics.IncRevenue(string(enums.RevenueTypePlasaFee), "error")
		return nil, err
	}
	s.metrics.IncRevenue(string(enums.RevenueTypePlasaFee), outcome.String())

	switch outcome {
	case OutcomeAlreadyRecorded:
		res := zeroPlasaFee(order.ID, order.Kind, msgAlreadyRecorded)
		res.AlreadyRecorded = true
		return res, nil
	case OutcomeNothingToRecord:
		res := zeroPlasaFee(order.ID, order.Kind, msgNoFee)
		res.TotalFees = types.FormatMoney(order.TotalFees())
		res.CommissionPercentage = types.FormatMoney(commissionPercentage)
		return res, nil
	}
	s.log(ctx, order, "plasa fee revenue recorded")
	return &PlasaFeeResult{
		OrderID:              order.ID,
		OrderKind:            order.Kind,
		Recorded:             true,
		TotalFees:            types.FormatMoney(order.TotalFees()),
		CommissionPercentage: types.FormatMoney(commissionPercentage),
		PlasaFee:             types.FormatMoney(fee),
	}, nil
}

func (s *service) alreadyCommission(order orders.Handle) *CommissionResult {
	res := zeroCommission(order.ID, order.Kind, msgAlreadyRecorded)
	res.AlreadyRecorded = true
	return res
}

func (s *service) loadOrder(ctx context.Context, orderID uuid.UUID) (*orders.Handle, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "orderId is required")
	}
	order, err := s.orders.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return order, nil
}

func (s *service) shopperEntity(ctx context.Context, tx *gorm.DB, order orders.Handle) (*uuid.UUID, error) {
	if order.ShopperID == nil {
		return nil, nil
	}
	id, err := s.repo.WithTx(tx).FindShopperEntityID(ctx, *order.ShopperID)
	if err != nil {
		return nil, fmt.Errorf("resolve shopper: %w", err)
	}
	return id, nil
}

func (s *service) emitRecognized(ctx context.Context, tx *gorm.DB, order orders.Handle, record *models.Revenue) error {
	event := payloads.RevenueRecognizedEvent{
		RevenueID: record.ID,
		OrderID:   order.ID,
		OrderKind: order.Kind,
		Type:      record.Type,
		Amount:    record.Amount,
		ShopID:    record.ShopID,
		ShopperID: record.ShopperID,
	}
	if record.CommissionPercentage.Valid {
		pct := record.CommissionPercentage.Decimal
		event.CommissionPercentage = &pct
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventRevenueRecognized,
		AggregateType: enums.AggregateRevenue,
		AggregateID:   record.ID,
		Data:          event,
	})
}

func (s *service) log(ctx context.Context, order orders.Handle, msg string) {
	if s.logg == nil {
		return
	}
	s.logg.Info(s.logg.WithOrder(ctx, order.ID.String(), string(order.Kind)), msg)
}
