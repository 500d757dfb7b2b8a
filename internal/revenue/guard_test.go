package revenue

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plasa/shopper-settlement/pkg/db/dbtest"
	"github.com/plasa/shopper-settlement/pkg/db/models"
	"github.com/plasa/shopper-settlement/pkg/enums"
)

func feeRecord(amount string) CreateFunc {
	return func(context.Context) (*models.Revenue, error) {
		return &models.Revenue{OrderKind: enums.OrderKindRegular, Amount: decimal.RequireFromString(amount)}, nil
	}
}

func TestGuardRecordsOnce(t *testing.T) {
	db := dbtest.Open(t)
	guard := NewGuard(NewRepository(db))
	ctx := context.Background()
	key := Key{SourceOrderID: uuid.New(), Type: enums.RevenueTypePlasaFee}

	outcome, record, err := guard.EnsureRevenueRecorded(ctx, key, feeRecord("225"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeRecorded, outcome)
	require.NotNil(t, record)
	assert.Equal(t, key.SourceOrderID, record.SourceOrderID)

	calls := 0
	outcome, record, err = guard.EnsureRevenueRecorded(ctx, key, func(ctx context.Context) (*models.Revenue, error) {
		calls++
		return feeRecord("999")(ctx)
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyRecorded, outcome)
	assert.Nil(t, record)
	assert.Zero(t, calls, "create func must not run when a row exists")

	var count int64
	require.NoError(t, db.Model(&models.Revenue{}).Where("source_order_id = ?", key.SourceOrderID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestGuardSeparatesTypes(t *testing.T) {
	db := dbtest.Open(t)
	guard := NewGuard(NewRepository(db))
	ctx := context.Background()
	orderID := uuid.New()

	for _, typ := range []enums.RevenueType{enums.RevenueTypeCommission, enums.RevenueTypePlasaFee} {
		outcome, _, err := guard.EnsureRevenueRecorded(ctx, Key{SourceOrderID: orderID, Type: typ}, feeRecord("1"))
		require.NoError(t, err)
		assert.Equal(t, OutcomeRecorded, outcome, typ)
	}
}

func TestInsertIfAbsentLosesRaceQuietly(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()
	orderID := uuid.New()

	first := &models.Revenue{Type: enums.RevenueTypeCommission, SourceOrderID: orderID, OrderKind: enums.OrderKindRegular, Amount: decimal.NewFromInt(5)}
	second := &models.Revenue{Type: enums.RevenueTypeCommission, SourceOrderID: orderID, OrderKind: enums.OrderKindRegular, Amount: decimal.NewFromInt(6)}

	inserted, err := repo.InsertIfAbsent(ctx, first)
	require.NoError(t, err)
	assert.True(t, inserted)
	inserted, err = repo.InsertIfAbsent(ctx, second)
	require.NoError(t, err)
	assert.False(t, inserted)
}

func TestGuardNothingToRecordAndErrors(t *testing.T) {
	db := dbtest.Open(t)
	guard := NewGuard(NewRepository(db))
	ctx := context.Background()
	key := Key{SourceOrderID: uuid.New(), Type: enums.RevenueTypePlasaFee}

	outcome, _, err := guard.EnsureRevenueRecorded(ctx, key, func(context.Context) (*models.Revenue, error) { return nil, nil })
	require.NoError(t, err)
	assert.Equal(t, OutcomeNothingToRecord, outcome)

	boom := errors.New("boom")
	_, _, err = guard.EnsureRevenueRecorded(ctx, key, func(context.Context) (*models.Revenue, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)

	_, _, err = guard.EnsureRevenueRecorded(ctx, Key{Type: enums.RevenueTypePlasaFee}, feeRecord("1"))
	assert.Error(t, err)
	_, _, err = guard.EnsureRevenueRecorded(ctx, Key{SourceOrderID: uuid.New(), Type: "tip"}, feeRecord("1"))
	assert.Error(t, err)
}

func TestShopperEntityLookup(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()
	shopper := &models.Shopper{ID: uuid.New(), UserID: uuid.New()}
	dbtest.MustCreate(t, db, shopper)

	id, err := repo.FindShopperEntityID(ctx, shopper.UserID)
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, shopper.ID, *id)

	id, err = repo.FindShopperEntityID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, id)
}
