package orderstatus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/plasa/shopper-settlement/internal/orders"
	"github.com/plasa/shopper-settlement/internal/settlement"
	"github.com/plasa/shopper-settlement/internal/sysconfig"
	"github.com/plasa/shopper-settlement/pkg/enums"
	pkgerrors "github.com/plasa/shopper-settlement/pkg/errors"
	"github.com/plasa/shopper-settlement/pkg/logger"
	"github.com/plasa/shopper-settlement/pkg/outbox"
	"github.com/plasa/shopper-settlement/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service applies shopper status changes and triggers settlement.
type Service interface {
	UpdateOrderStatus(ctx context.Context, input UpdateStatusInput) (*UpdateStatusResult, error)
}

// Params groups the status service dependencies.
type Params struct {
	Orders           orders.Repository
	Engine           settlement.Engine
	Config           sysconfig.Reader
	Tx               txRunner
	Outbox           outbox.Emitter
	Logger           *logger.Logger
	BroadcastTimeout time.Duration
	Now              func() time.Time
}

type service struct {
	orders  orders.Repository
	engine  settlement.Engine
	config  sysconfig.Reader
	tx      txRunner
	outbox  outbox.Emitter
	logg    *logger.Logger
	timeout time.Duration
	now     func() time.Time
}

// NewService wires the order status service.
func NewService(p Params) (Service, error) {
	if p.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if p.Engine == nil {
		return nil, fmt.Errorf("settlement engine required")
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
	now := p.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		orders:  p.Orders,
		engine:  p.Engine,
		config:  p.Config,
		tx:      p.Tx,
		outbox:  p.Outbox,
		logg:    p.Logger,
		timeout: p.BroadcastTimeout,
		now:     now,
	}, nil
}

func (s *service) UpdateOrderStatus(ctx context.Context, input UpdateStatusInput) (*UpdateStatusResult, error) {
	if input.ShopperUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if input.OrderID == uuid.Nil || input.Status == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "orderId and status are required")
	}
	status, err := enums.ParseOrderStatus(input.Status)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status").
			WithDetails(map[string]any{"status": input.Status})
	}

	order, err := s.orders.FindAssignedOrder(ctx, input.OrderID, input.ShopperUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order is not assigned to this shopper")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if s.logg != nil {
		ctx = s.logg.WithOrder(ctx, order.ID.String(), string(order.Kind))
	}

	if order.IsRestaurant() && status == enums.OrderStatusShopping {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "restaurant orders cannot be set to shopping")
	}
	if status == enums.OrderStatusCancelled && !order.Status.Cancellable() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order can only be cancelled while accepted or shopping").
			WithDetails(map[string]any{"currentStatus": order.Status})
	}

	var commissionPct decimal.Decimal
	switch status {
	case enums.OrderStatusShopping:
		if _, err := s.engine.Reserve(ctx, *order); err != nil {
			return nil, pkgerrors.EnsureCode(err, pkgerrors.CodeInternal, "reserve wallet funds")
		}
	case enums.OrderStatusDelivered:
		commissionPct, err = s.config.CommissionPercentage(ctx)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load commission percentage")
		}
	}

	at := s.now()
	if err := s.writeStatus(ctx, *order, status, input.ShopperUserID, at); err != nil {
		return nil, pkgerrors.EnsureCode(err, pkgerrors.CodeInternal, "update order status")
	}

	// The status write above stands even if settlement fails from here on.
	switch status {
	case enums.OrderStatusCancelled:
		if _, err := s.engine.Refund(ctx, *order); err != nil {
			return nil, pkgerrors.EnsureCode(err, pkgerrors.CodeInternal, "refund cancelled order")
		}
	case enums.OrderStatusDelivered:
		if _, err := s.engine.Payout(ctx, *order, commissionPct); err != nil {
			return nil, pkgerrors.EnsureCode(err, pkgerrors.CodeInternal, "pay out delivery")
		}
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"previous_status": order.Status,
			"status":          status,
			"batched":         order.Batched(),
		}), "order status updated")
	}
	return &UpdateStatusResult{
		Order:     OrderStatusDTO{ID: order.ID, Status: status, UpdatedAt: at},
		OrderType: order.Kind,
	}, nil
}

func (s *service) writeStatus(ctx context.Context, order orders.Handle, status enums.OrderStatus, shopperID uuid.UUID, at time.Time) error {
	if !order.Batched() {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			if err := s.orders.WithTx(tx).UpdateStatus(ctx, order.Kind, order.ID, status, at); err != nil {
				return err
			}
			return s.emitChanged(ctx, tx, order, status, shopperID, at)
		})
	}
	return s.broadcast(ctx, *order.CombinedOrderID, status, shopperID, at)
}

// broadcast writes the status to every order table sharing the combined id.
// Each table commits on its own, so a failure can leave the batch partially
// updated.
func (s *service) broadcast(ctx context.Context, combinedOrderID uuid.UUID, status enums.OrderStatus, actorID uuid.UUID, at time.Time) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var g errgroup.Group
	for _, kind := range orders.Kinds {
		g.Go(func() error {
			err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
				repo := s.orders.WithTx(tx)
				siblings, err := repo.FindByCombinedID(ctx, kind, combinedOrderID)
				if err != nil {
					return err
				}
				if len(siblings) == 0 {
					return nil
				}
				if _, err := repo.UpdateStatusByCombinedID(ctx, kind, combinedOrderID, status, at); err != nil {
					return err
				}
				for _, sibling := range siblings {
					if err := s.emitChanged(ctx, tx, sibling, status, actorID, at); err != nil {
						return err
					}
				}
				return nil
			})
			if err != nil {
				return fmt.Errorf("update %s orders: %w", kind, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (s *service) emitChanged(ctx context.Context, tx *gorm.DB, order orders.Handle, status enums.OrderStatus, actorID uuid.UUID, at time.Time) error {
	shopperID := actorID
	if order.ShopperID != nil {
		shopperID = *order.ShopperID
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderStatusChanged,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         &outbox.ActorRef{UserID: actorID, Role: string(enums.ActorRoleShopper)},
		OccurredAt:    at,
		Data: payloads.OrderStatusChangedEvent{
			OrderID:         order.ID,
			OrderKind:       order.Kind,
			ShopperID:       shopperID,
			PreviousStatus:  order.Status,
			Status:          status,
			CombinedOrderID: order.CombinedOrderID,
			ChangedAt:       at,
		},
	})
}
