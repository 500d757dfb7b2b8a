package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/plasa/shopper-settlement/internal/orders"
	"github.com/plasa/shopper-settlement/internal/revenue"
	"github.com/plasa/shopper-settlement/internal/sysconfig"
	"github.com/plasa/shopper-settlement/pkg/enums"
	"github.com/plasa/shopper-settlement/pkg/logger"
)

const (
	defaultReconcileLimit    = 200
	defaultReconcileLookback = 72 * time.Hour
)

type deliveredOrdersLister interface {
	ListDeliveredMissingRevenue(ctx context.Context, kind enums.OrderKind, query orders.MissingRevenueQuery) ([]orders.Handle, error)
}

type revenueRecognizer interface {
	RecognizeCommission(ctx context.Context, order orders.Handle) (*revenue.CommissionResult, error)
	RecognizePlasaFee(ctx context.Context, order orders.Handle, commissionPercentage decimal.Decimal) (*revenue.PlasaFeeResult, error)
}

// RevenueReconcileJobParams configures the delivered-order revenue sweep.
type RevenueReconcileJobParams struct {
	Logger   *logger.Logger
	Orders   deliveredOrdersLister
	Revenue  revenueRecognizer
	Config   sysconfig.Reader
	Limit    int
	Lookback time.Duration
	Now      func() time.Time
}

// NewRevenueReconcileJob builds a job that records revenue for delivered
// orders whose post-settlement hooks never completed.
func NewRevenueReconcileJob(params RevenueReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Revenue == nil {
		return nil, fmt.Errorf("revenue service required")
	}
	if params.Config == nil {
		return nil, fmt.Errorf("system configuration reader required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	limit := params.Limit
	if limit <= 0 {
		limit = defaultReconcileLimit
	}
	lookback := params.Lookback
	if lookback <= 0 {
		lookback = defaultReconcileLookback
	}
	return &revenueReconcileJob{
		logg:     params.Logger,
		orders:   params.Orders,
		revenue:  params.Revenue,
		config:   params.Config,
		limit:    limit,
		lookback: lookback,
		now:      now,
	}, nil
}

type revenueReconcileJob struct {
	logg     *logger.Logger
	orders   deliveredOrdersLister
	revenue  revenueRecognizer
	config   sysconfig.Reader
	limit    int
	lookback time.Duration
	now      func() time.Time
}

func (j *revenueReconcileJob) Name() string { return "revenue-reconcile" }

func (j *revenueReconcileJob) Run(ctx context.Context) error {
	// The fee is recomputed with the percentage in force now. A config change
	// inside the lookback window can make a reconciled fee differ from the
	// one the payout would have recorded; this is accepted.
	pct, err := j.config.CommissionPercentage(ctx)
	if err != nil {
		return fmt.Errorf("load commission percentage: %w", err)
	}
	since := j.now().UTC().Add(-j.lookback)

	var (
		errs       error
		candidates int
		reconciled int
	)
	for _, kind := range orders.Kinds {
		found, done, err := j.sweep(ctx, kind, since, pct)
		candidates += found
		reconciled += done
		errs = multierr.Append(errs, err)
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"since":      since,
		"candidates": candidates,
		"reconciled": reconciled,
	}), "revenue reconcile complete")
	return errs
}

// sweep pages through one order table so orders that keep failing never
// hide newer ones behind the page limit.
func (j *revenueReconcileJob) sweep(ctx context.Context, kind enums.OrderKind, since time.Time, pct decimal.Decimal) (int, int, error) {
	var (
		errs       error
		candidates int
		reconciled int
		after      *orders.SweepCursor
	)
	for {
		if err := ctx.Err(); err != nil {
			return candidates, reconciled, multierr.Append(errs, err)
		}
		pending, err := j.orders.ListDeliveredMissingRevenue(ctx, kind, orders.MissingRevenueQuery{
			Since: since,
			After: after,
			Limit: j.limit,
		})
		if err != nil {
			return candidates, reconciled, multierr.Append(errs, fmt.Errorf("list delivered %s orders: %w", kind, err))
		}
		candidates += len(pending)
		for _, order := range pending {
			if err := j.reconcile(ctx, order, pct); err != nil {
				errs = multierr.Append(errs, err)
				continue
			}
			reconciled++
		}
		if len(pending) < j.limit {
			return candidates, reconciled, errs
		}
		last := pending[len(pending)-1]
		after = &orders.SweepCursor{UpdatedAt: last.UpdatedAt, ID: last.ID}
	}
}

func (j *revenueReconcileJob) reconcile(ctx context.Context, order orders.Handle, pct decimal.Decimal) error {
	var errs error
	if order.IsRegular() {
		if _, err := j.revenue.RecognizeCommission(ctx, order); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("commission for order %s: %w", order.ID, err))
		}
	}
	if _, err := j.revenue.RecognizePlasaFee(ctx, order, pct); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("plasa fee for order %s: %w", order.ID, err))
	}
	return errs
}
