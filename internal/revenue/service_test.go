package revenue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/plasa/shopper-settlement/internal/orders"
	"github.com/plasa/shopper-settlement/internal/sysconfig"
	"github.com/plasa/shopper-settlement/pkg/db"
	"github.com/plasa/shopper-settlement/pkg/db/dbtest"
	"github.com/plasa/shopper-settlement/pkg/db/models"
	"github.com/plasa/shopper-settlement/pkg/enums"
	pkgerrors "github.com/plasa/shopper-settlement/pkg/errors"
	"github.com/plasa/shopper-settlement/pkg/metrics"
	"github.com/plasa/shopper-settlement/pkg/outbox"
)

type fixture struct {
	db      *gorm.DB
	svc     Service
	shopper *models.Shopper
}

func newFixture(t *testing.T, pct int64) fixture {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(ServiceParams{
		Orders:  orders.NewRepository(conn),
		Revenue: NewRepository(conn),
		Config:  sysconfig.Static(decimal.NewFromInt(pct)),
		Tx:      db.NewFromGorm(conn),
		Outbox:  outbox.NewService(outbox.NewRepository(conn), nil),
		Metrics: metrics.NewSettlementMetrics(prometheus.NewRegistry()),
	})
	require.NoError(t, err)
	shopper := &models.Shopper{ID: uuid.New(), UserID: uuid.New()}
	dbtest.MustCreate(t, conn, shopper)
	return fixture{db: conn, svc: svc, shopper: shopper}
}

func (f fixture) seedRegular(t *testing.T) *models.Order {
	t.Helper()
	order := &models.Order{
		ID:          uuid.New(),
		UserID:      uuid.New(),
		ShopID:      uuid.New(),
		ShopperID:   &f.shopper.UserID,
		Total:       decimal.NewFromInt(3699),
		ServiceFee:  decimal.NewFromInt(1000),
		DeliveryFee: decimal.NewFromInt(500),
		Status:      enums.OrderStatusDelivered,
		UpdatedAt:   time.Now().UTC(),
	}
	dbtest.MustCreate(t, f.db, order, &models.OrderItem{
		ID:                uuid.New(),
		OrderID:           order.ID,
		ProductID:         uuid.New(),
		ProductName:       "oil",
		Price:             decimal.NewFromInt(1233),
		Quantity:          3,
		ProductPrice:      decimal.NewFromInt(1233),
		ProductFinalPrice: decimal.NewFromInt(4555),
	})
	return order
}

func TestCalculateCommissionRevenueIsIdempotent(t *testing.T) {
	f := newFixture(t, 20)
	ctx := context.Background()
	order := f.seedRegular(t)

	first, err := f.svc.CalculateCommissionRevenue(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, first.Recorded)
	assert.Equal(t, "13665.00", first.CustomerTotal)
	assert.Equal(t, "3699.00", first.ActualTotal)
	assert.Equal(t, "9966.00", first.Revenue)
	require.Len(t, first.Products, 1)

	second, err := f.svc.CalculateCommissionRevenue(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, second.Recorded)
	assert.True(t, second.AlreadyRecorded)
	assert.Equal(t, "0.00", second.Revenue)
	assert.Empty(t, second.Products)

	var rows []models.Revenue
	require.NoError(t, f.db.Where("source_order_id = ?", order.ID).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.RevenueTypeCommission, rows[0].Type)
	assert.Equal(t, f.shopper.ID, *rows[0].ShopperID)
	assert.Equal(t, order.ShopID, *rows[0].ShopID)
	assert.True(t, rows[0].Amount.Equal(decimal.NewFromInt(9966)))

	var products []ProductProfit
	require.NoError(t, json.Unmarshal(rows[0].Products, &products))
	assert.Equal(t, "9966.00", products[0].LineMargin)

	var events int64
	require.NoError(t, f.db.Model(&models.OutboxEvent{}).Where("event_type = ?", enums.EventRevenueRecognized).Count(&events).Error)
	assert.EqualValues(t, 1, events)
}

func TestCalculatePlasaFeeRevenue(t *testing.T) {
	f := newFixture(t, 15)
	ctx := context.Background()
	order := f.seedRegular(t)

	res, err := f.svc.CalculatePlasaFeeRevenue(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, res.Recorded)
	assert.Equal(t, "1500.00", res.TotalFees)
	assert.Equal(t, "15.00", res.CommissionPercentage)
	assert.Equal(t, "225.00", res.PlasaFee)

	again, err := f.svc.CalculatePlasaFeeRevenue(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, again.AlreadyRecorded)
	assert.Equal(t, "0.00", again.PlasaFee)

	var row models.Revenue
	require.NoError(t, f.db.Where("source_order_id = ? AND type = ?", order.ID, enums.RevenueTypePlasaFee).Take(&row).Error)
	assert.True(t, row.Amount.Equal(decimal.NewFromInt(225)))
	assert.True(t, row.CommissionPercentage.Valid)
	assert.Empty(t, row.Products)
}

func TestPlasaFeeSkipsZeroFee(t *testing.T) {
	f := newFixture(t, 20)
	ctx := context.Background()
	reel := &models.ReelOrder{
		ID: uuid.New(), UserID: uuid.New(), ReelID: uuid.New(), ShopperID: &f.shopper.UserID,
		Total: decimal.NewFromInt(10), ServiceFee: decimal.Zero, DeliveryFee: decimal.Zero,
		Status: enums.OrderStatusDelivered, UpdatedAt: time.Now().UTC(),
	}
	dbtest.MustCreate(t, f.db, reel)

	res, err := f.svc.CalculateRevenue(ctx, reel.ID)
	require.NoError(t, err)
	assert.False(t, res.Commission.Recorded)
	assert.Equal(t, enums.OrderKindReel, res.Commission.OrderKind)
	assert.False(t, res.PlasaFee.Recorded)
	assert.Equal(t, "0.00", res.PlasaFee.PlasaFee)

	var count int64
	require.NoError(t, f.db.Model(&models.Revenue{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCalculateRevenueCombined(t *testing.T) {
	f := newFixture(t, 15)
	order := f.seedRegular(t)

	res, err := f.svc.CalculateRevenue(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, "9966.00", res.Commission.Revenue)
	assert.Equal(t, "225.00", res.PlasaFee.PlasaFee)
}

func TestCalculateRevenueErrors(t *testing.T) {
	f := newFixture(t, 20)
	ctx := context.Background()

	_, err := f.svc.CalculateCommissionRevenue(ctx, uuid.New())
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
	_, err = f.svc.CalculatePlasaFeeRevenue(ctx, uuid.Nil)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	assert.Error(t, err)
}
