package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/plasa/shopper-settlement/internal/orders"
	"github.com/plasa/shopper-settlement/internal/revenue"
	"github.com/plasa/shopper-settlement/internal/wallets"
	"github.com/plasa/shopper-settlement/pkg/db/models"
	"github.com/plasa/shopper-settlement/pkg/enums"
	pkgerrors "github.com/plasa/shopper-settlement/pkg/errors"
	"github.com/plasa/shopper-settlement/pkg/logger"
	"github.com/plasa/shopper-settlement/pkg/metrics"
	"github.com/plasa/shopper-settlement/pkg/outbox"
	"github.com/plasa/shopper-settlement/pkg/outbox/payloads"
	"github.com/plasa/shopper-settlement/pkg/types"
)

// RefundReason is recorded on refunds raised by a shopper cancellation.
const RefundReason = "Order cancelled by shopper"

const (
	opReserve = "reserve"
	opPayout  = "payout"
	opRefund  = "refund"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// RevenueRecognizer records platform revenue after a settlement commits.
type RevenueRecognizer interface {
	RecognizeCommission(ctx context.Context, order orders.Handle) (*revenue.CommissionResult, error)
	RecognizePlasaFee(ctx context.Context, order orders.Handle, commissionPercentage decimal.Decimal) (*revenue.PlasaFeeResult, error)
}

// Engine moves wallet balances as orders progress.
type Engine interface {
	Reserve(ctx context.Context, order orders.Handle) (*ReserveResult, error)
	Payout(ctx context.Context, order orders.Handle, commissionPercentage decimal.Decimal) (*PayoutResult, error)
	Refund(ctx context.Context, order orders.Handle) (*RefundResult, error)
}

// ReserveResult describes a shopping-start reservation.
type ReserveResult struct {
	Skipped         bool
	Amount          decimal.Decimal
	ReservedBalance decimal.Decimal
}

// PayoutResult describes a delivery payout.
type PayoutResult struct {
	TotalFees        decimal.Decimal
	PlatformFee      decimal.Decimal
	Earnings         decimal.Decimal
	ReservedReleased decimal.Decimal
	RefundAmount     decimal.Decimal
	AvailableBalance decimal.Decimal
	ReservedBalance  decimal.Decimal
}

// RefundResult describes a cancellation refund.
type RefundResult struct {
	RefundID        uuid.UUID
	Amount          decimal.Decimal
	ReservedBalance decimal.Decimal
}

// Params groups the engine dependencies.
type Params struct {
	Orders  orders.Repository
	Wallets wallets.Repository
	Refunds RefundStore
	Revenue RevenueRecognizer
	Tx      txRunner
	Outbox  outbox.Emitter
	Logger  *logger.Logger
	Metrics *metrics.SettlementMetrics
	Now     func() time.Time
}

type engine struct {
	orders  orders.Repository
	wallets wallets.Repository
	refunds RefundStore
	revenue RevenueRecognizer
	tx      txRunner
	outbox  outbox.Emitter
	logg    *logger.Logger
	metrics *metrics.SettlementMetrics
	now     func() time.Time
}

// NewEngine wires the settlement engine.
func NewEngine(p Params) (Engine, error) {
	if p.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if p.Wallets == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	if p.Refunds == nil {
		return nil, fmt.Errorf("refund store required")
	}
	if p.Revenue == nil {
		return nil, fmt.Errorf("revenue recognizer required")
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
	return &engine{
		orders:  p.Orders,
		wallets: p.Wallets,
		refunds: p.Refunds,
		revenue: p.Revenue,
		tx:      p.Tx,
		outbox:  p.Outbox,
		logg:    p.Logger,
		metrics: p.Metrics,
		now:     now,
	}, nil
}

// Reserve earmarks the goods amount of a regular order in the shopper's
// reserved balance. Other kinds have no picking phase and reserve nothing.
func (e *engine) Reserve(ctx context.Context, order orders.Handle) (*ReserveResult, error) {
	start := time.Now()
	if !order.IsRegular() {
		e.observe(opReserve, order, metrics.OutcomeSkipped, start)
		return &ReserveResult{Skipped: true}, nil
	}
	shopperID, err := assignedShopper(order)
	if err != nil {
		e.observe(opReserve, order, metrics.OutcomeFailure, start)
		return nil, err
	}

	amount := e.effectiveAmount(ctx, order)
	result := &ReserveResult{Amount: amount}
	err = e.tx.WithTx(ctx, func(tx *gorm.DB) error {
		wallet, err := e.lockWallet(ctx, tx, shopperID)
		if err != nil {
			return err
		}
		at := e.now()
		result.ReservedBalance = wallet.ReservedBalance.Add(amount)
		if err := e.wallets.WithTx(tx).UpdateBalances(ctx, wallet.ID, wallet.AvailableBalance, result.ReservedBalance, at); err != nil {
			return fmt.Errorf("update wallet: %w", err)
		}
		txn := newTransaction(wallet.ID, order, amount, enums.WalletTransactionReserve,
			fmt.Sprintf("Reserved funds for order %s", order.ID), at)
		if err := e.wallets.WithTx(tx).AppendTransactions(ctx, []models.WalletTransaction{txn}); err != nil {
			return fmt.Errorf("append wallet transaction: %w", err)
		}
		return e.emit(ctx, tx, enums.EventWalletReserved, enums.AggregateWallet, wallet.ID, payloads.WalletReservedEvent{
			WalletID:        wallet.ID,
			ShopperID:       shopperID,
			OrderID:         order.ID,
			OrderKind:       order.Kind,
			Amount:          amount,
			ReservedBalance: result.ReservedBalance,
		})
	})
	if err != nil {
		e.observe(opReserve, order, metrics.OutcomeFailure, start)
		return nil, e.wrap(err, "reserve wallet funds")
	}
	e.observe(opReserve, order, metrics.OutcomeSuccess, start)
	e.logSettled(ctx, order, "wallet funds reserved", map[string]any{
		"amount":           types.FormatMoney(amount),
		"reserved_balance": types.FormatMoney(result.ReservedBalance),
	})

	_ = e.runHooks(ctx, []Hook{{
		Name: "commission_revenue",
		Run: func(ctx context.Context) error {
			_, err := e.revenue.RecognizeCommission(ctx, order)
			return err
		},
	}})
	return result, nil
}

// Payout credits the shopper's delivery earnings and, for regular orders,
// releases the reserve held for the goods.
func (e *engine) Payout(ctx context.Context, order orders.Handle, commissionPercentage decimal.Decimal) (*PayoutResult, error) {
	start := time.Now()
	shopperID, err := assignedShopper(order)
	if err != nil {
		e.observe(opPayout, order, metrics.OutcomeFailure, start)
		return nil, err
	}

	totalFees := order.TotalFees()
	platformFee := revenue.CalculatePlasaFee(order.ServiceFee, order.DeliveryFee, commissionPercentage)
	result := &PayoutResult{
		TotalFees:        totalFees,
		PlatformFee:      platformFee,
		Earnings:         totalFees.Sub(platformFee),
		ReservedReleased: decimal.Zero,
		RefundAmount:     decimal.Zero,
	}
	effective := order.Total
	if order.IsRegular() {
		effective = e.effectiveAmount(ctx, order)
	}

	err = e.tx.WithTx(ctx, func(tx *gorm.DB) error {
		wallet, err := e.lockWallet(ctx, tx, shopperID)
		if err != nil {
			return err
		}
		at := e.now()
		result.AvailableBalance = wallet.AvailableBalance.Add(result.Earnings)
		result.ReservedBalance = wallet.ReservedBalance

		txns := []models.WalletTransaction{
			newTransaction(wallet.ID, order, result.Earnings, enums.WalletTransactionEarnings,
				fmt.Sprintf("Earnings for delivering order %s", order.ID), at),
		}
		if order.IsRegular() {
			// A reserve smaller than the goods total leaves a shortfall that is
			// recorded as a refund transaction.
			if wallet.ReservedBalance.GreaterThanOrEqual(effective) {
				result.ReservedBalance = wallet.ReservedBalance.Sub(effective)
				result.ReservedReleased = effective
			} else {
				result.ReservedBalance = decimal.Zero
				result.ReservedReleased = wallet.ReservedBalance
				result.RefundAmount = effective.Sub(wallet.ReservedBalance)
			}
			txns = append(txns, newTransaction(wallet.ID, order, result.ReservedReleased, enums.WalletTransactionExpense,
				fmt.Sprintf("Payment to shop for order %s", order.ID), at))
			if result.RefundAmount.IsPositive() {
				txns = append(txns, newTransaction(wallet.ID, order, result.RefundAmount, enums.WalletTransactionRefund,
					fmt.Sprintf("Reserve shortfall for order %s", order.ID), at))
			}
		}

		if err := e.wallets.WithTx(tx).UpdateBalances(ctx, wallet.ID, result.AvailableBalance, result.ReservedBalance, at); err != nil {
			return fmt.Errorf("update wallet: %w", err)
		}
		if err := e.wallets.WithTx(tx).AppendTransactions(ctx, txns); err != nil {
			return fmt.Errorf("append wallet transactions: %w", err)
		}
		return e.emit(ctx, tx, enums.EventWalletPaidOut, enums.AggregateWallet, wallet.ID, payloads.WalletPaidOutEvent{
			WalletID:         wallet.ID,
			ShopperID:        shopperID,
			OrderID:          order.ID,
			OrderKind:        order.Kind,
			Earnings:         result.Earnings,
			PlatformFee:      result.PlatformFee,
			ReservedReleased: result.ReservedReleased,
			RefundAmount:     result.RefundAmount,
			AvailableBalance: result.AvailableBalance,
			ReservedBalance:  result.ReservedBalance,
		})
	})
	if err != nil {
		e.observe(opPayout, order, metrics.OutcomeFailure, start)
		return nil, e.wrap(err, "pay out delivery")
	}
	e.observe(opPayout, order, metrics.OutcomeSuccess, start)
	e.logSettled(ctx, order, "delivery paid out", map[string]any{
		"earnings":      types.FormatMoney(result.Earnings),
		"platform_fee":  types.FormatMoney(result.PlatformFee),
		"refund_amount": types.FormatMoney(result.RefundAmount),
	})

	var hooks []Hook
	if platformFee.IsPositive() {
		hooks = append(hooks, Hook{
			Name: "plasa_fee_revenue",
			Run: func(ctx context.Context) error {
				_, err := e.revenue.RecognizePlasaFee(ctx, order, commissionPercentage)
				return err
			},
		})
	}
	_ = e.runHooks(ctx, hooks)
	return result, nil
}

// Refund raises a pending customer refund for a cancelled order and, for
// regular orders, returns the reserved amount. The reserve never drops below
// zero.
func (e *engine) Refund(ctx context.Context, order orders.Handle) (*RefundResult, error) {
	start := time.Now()
	shopperID, err := assignedShopper(order)
	if err != nil {
		e.observe(opRefund, order, metrics.OutcomeFailure, start)
		return nil, err
	}

	amount := e.effectiveAmount(ctx, order)
	result := &RefundResult{Amount: amount}
	err = e.tx.WithTx(ctx, func(tx *gorm.DB) error {
		at := e.now()
		event := payloads.WalletRefundedEvent{
			ShopperID:  shopperID,
			CustomerID: order.CustomerID,
			OrderID:    order.ID,
			OrderKind:  order.Kind,
			Amount:     amount,
		}
		aggregate, aggregateID := enums.AggregateOrder, order.ID

		if order.IsRegular() {
			wallet, err := e.lockWallet(ctx, tx, shopperID)
			if err != nil {
				return err
			}
			result.ReservedBalance = types.ClampZero(wallet.ReservedBalance.Sub(amount))
			if err := e.wallets.WithTx(tx).UpdateBalances(ctx, wallet.ID, wallet.AvailableBalance, result.ReservedBalance, at); err != nil {
				return fmt.Errorf("update wallet: %w", err)
			}
			txn := newTransaction(wallet.ID, order, amount, enums.WalletTransactionRefund,
				fmt.Sprintf("Refund for cancelled order %s", order.ID), at)
			if err := e.wallets.WithTx(tx).AppendTransactions(ctx, []models.WalletTransaction{txn}); err != nil {
				return fmt.Errorf("append wallet transaction: %w", err)
			}
			walletID := wallet.ID
			reserved := result.ReservedBalance
			event.WalletID = &walletID
			event.ReservedBalance = &reserved
			aggregate, aggregateID = enums.AggregateWallet, wallet.ID
		}

		refund := &models.Refund{
			ID:        uuid.New(),
			OrderID:   order.ID,
			OrderKind: order.Kind,
			Amount:    amount,
			Status:    enums.RefundStatusPending,
			Reason:    RefundReason,
			UserID:    order.CustomerID,
			Paid:      false,
			CreatedAt: at,
		}
		if err := e.refunds.WithTx(tx).Create(ctx, refund); err != nil {
			return fmt.Errorf("create refund: %w", err)
		}
		result.RefundID = refund.ID
		event.RefundID = refund.ID
		return e.emit(ctx, tx, enums.EventWalletRefunded, aggregate, aggregateID, event)
	})
	if err != nil {
		e.observe(opRefund, order, metrics.OutcomeFailure, start)
		return nil, e.wrap(err, "refund cancelled order")
	}
	e.observe(opRefund, order, metrics.OutcomeSuccess, start)
	e.logSettled(ctx, order, "cancellation refunded", map[string]any{
		"amount":    types.FormatMoney(amount),
		"refund_id": result.RefundID.String(),
	})
	return result, nil
}

func (e *engine) lockWallet(ctx context.Context, tx *gorm.DB, shopperID uuid.UUID) (*models.Wallet, error) {
	wallet, err := e.wallets.WithTx(tx).FindByShopperForUpdate(ctx, shopperID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeInternal, "shopper wallet not found")
		}
		return nil, fmt.Errorf("lock wallet: %w", err)
	}
	return wallet, nil
}

func (e *engine) emit(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, aggregate enums.OutboxAggregateType, aggregateID uuid.UUID, data any) error {
	return e.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: aggregate,
		AggregateID:   aggregateID,
		Data:          data,
	})
}

func (e *engine) wrap(err error, msg string) error {
	return pkgerrors.EnsureCode(err, pkgerrors.CodeInternal, msg)
}

func (e *engine) observe(op string, order orders.Handle, outcome string, start time.Time) {
	e.metrics.ObserveOperation(op, string(order.Kind), outcome, time.Since(start))
}

func (e *engine) logSettled(ctx context.Context, order orders.Handle, msg string, fields map[string]any) {
	if e.logg == nil {
		return
	}
	ctx = e.logg.WithOrder(ctx, order.ID.String(), string(order.Kind))
	e.logg.Info(e.logg.WithFields(ctx, fields), msg)
}

func assignedShopper(order orders.Handle) (uuid.UUID, error) {
	if order.ShopperID == nil || *order.ShopperID == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeInternal, "order has no assigned shopper")
	}
	return *order.ShopperID, nil
}

func newTransaction(walletID uuid.UUID, order orders.Handle, amount decimal.Decimal, typ enums.WalletTransactionType, description string, at time.Time) models.WalletTransaction {
	txn := models.WalletTransaction{
		ID:          uuid.New(),
		WalletID:    walletID,
		Amount:      amount,
		Type:        typ,
		Status:      enums.WalletTransactionStatusCompleted,
		Description: description,
		CreatedAt:   at,
	}
	txn.RelateTo(order.Kind, order.ID)
	return txn
}
