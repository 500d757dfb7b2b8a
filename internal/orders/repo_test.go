package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/plasa/shopper-settlement/pkg/db/dbtest"
	"github.com/plasa/shopper-settlement/pkg/db/models"
	"github.com/plasa/shopper-settlement/pkg/enums"
)

func regularOrder(shopperID, shopID uuid.UUID, combined *uuid.UUID, total string) *models.Order {
	return &models.Order{
		ID:              uuid.New(),
		UserID:          uuid.New(),
		ShopID:          shopID,
		ShopperID:       &shopperID,
		Total:           decimal.RequireFromString(total),
		ServiceFee:      decimal.RequireFromString("1000"),
		DeliveryFee:     decimal.RequireFromString("500"),
		Status:          enums.OrderStatusAccepted,
		CombinedOrderID: combined,
		UpdatedAt:       time.Now().UTC(),
	}
}

func item(orderID uuid.UUID, price string, qty int) *models.OrderItem {
	return &models.OrderItem{
		ID:                uuid.New(),
		OrderID:           orderID,
		ProductID:         uuid.New(),
		ProductName:       "item-" + price,
		Price:             decimal.RequireFromString(price),
		Quantity:          qty,
		ProductPrice:      decimal.RequireFromString(price),
		ProductFinalPrice: decimal.RequireFromString(price),
	}
}

func TestFindAssignedOrderChecksEveryKind(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()
	shopper := uuid.New()

	regular := regularOrder(shopper, uuid.New(), nil, "100")
	reel := &models.ReelOrder{
		ID: uuid.New(), UserID: uuid.New(), ReelID: uuid.New(), ShopperID: &shopper,
		Total: decimal.NewFromInt(40), ServiceFee: decimal.NewFromInt(5), DeliveryFee: decimal.NewFromInt(3),
		Status: enums.OrderStatusAccepted, UpdatedAt: time.Now().UTC(),
	}
	restaurant := &models.RestaurantOrder{
		ID: uuid.New(), UserID: uuid.New(), RestaurantID: uuid.New(), ShopperID: &shopper,
		Total: decimal.NewFromInt(60), DeliveryFee: decimal.NewFromInt(7),
		Status: enums.OrderStatusAccepted, UpdatedAt: time.Now().UTC(),
	}
	dbtest.MustCreate(t, db, regular, reel, restaurant)

	cases := map[uuid.UUID]enums.OrderKind{
		regular.ID:    enums.OrderKindRegular,
		reel.ID:       enums.OrderKindReel,
		restaurant.ID: enums.OrderKindRestaurant,
	}
	for id, kind := range cases {
		handle, err := repo.FindAssignedOrder(ctx, id, shopper)
		require.NoError(t, err)
		assert.Equal(t, kind, handle.Kind)
		assert.Equal(t, id, handle.ID)
	}

	got, err := repo.FindAssignedOrder(ctx, restaurant.ID, shopper)
	require.NoError(t, err)
	assert.True(t, got.ServiceFee.IsZero())
	assert.Equal(t, restaurant.RestaurantID, *got.ShopID)
	assert.True(t, got.TotalFees().Equal(decimal.NewFromInt(7)))

	_, err = repo.FindAssignedOrder(ctx, regular.ID, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = repo.FindOrder(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestFindBatchItemsScopesToShopAndAssignedOrders(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()
	shopper := uuid.New()
	shop := uuid.New()
	combined := uuid.New()

	first := regularOrder(shopper, shop, &combined, "999")
	second := regularOrder(shopper, shop, &combined, "999")
	otherShop := regularOrder(shopper, uuid.New(), &combined, "999")
	unassigned := regularOrder(shopper, shop, &combined, "999")
	unassigned.ShopperID = nil
	dbtest.MustCreate(t, db, first, second, otherShop, unassigned,
		item(first.ID, "1000", 3),
		item(second.ID, "1500", 3),
		item(otherShop.ID, "50", 1),
		item(unassigned.ID, "70", 1),
	)

	items, err := repo.FindBatchItems(ctx, combined, shop)
	require.NoError(t, err)
	require.Len(t, items, 2)

	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	assert.True(t, sum.Equal(decimal.NewFromInt(7500)), "got %s", sum)

	none, err := repo.FindBatchItems(ctx, uuid.New(), shop)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUpdateStatus(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()
	combined := uuid.New()
	shopper := uuid.New()

	a := regularOrder(shopper, uuid.New(), &combined, "10")
	b := regularOrder(shopper, uuid.New(), &combined, "20")
	single := regularOrder(shopper, uuid.New(), nil, "30")
	dbtest.MustCreate(t, db, a, b, single)

	at := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateStatus(ctx, enums.OrderKindRegular, single.ID, enums.OrderStatusPicked, at))
	got, err := repo.FindOrder(ctx, single.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPicked, got.Status)
	assert.True(t, got.UpdatedAt.Equal(at))

	err = repo.UpdateStatus(ctx, enums.OrderKindReel, single.ID, enums.OrderStatusPicked, at)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	n, err := repo.UpdateStatusByCombinedID(ctx, enums.OrderKindRegular, combined, enums.OrderStatusOnTheWay, at)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	n, err = repo.UpdateStatusByCombinedID(ctx, enums.OrderKindReel, combined, enums.OrderStatusOnTheWay, at)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	siblings, err := repo.FindByCombinedID(ctx, enums.OrderKindRegular, combined)
	require.NoError(t, err)
	require.Len(t, siblings, 2)
	for _, s := range siblings {
		assert.Equal(t, enums.OrderStatusOnTheWay, s.Status)
	}
}

func TestListDeliveredMissingRevenue(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()
	shopper := uuid.New()
	now := time.Now().UTC()

	settled := regularOrder(shopper, uuid.New(), nil, "10")
	settled.Status = enums.OrderStatusDelivered
	settled.UpdatedAt = now
	missingCommission := regularOrder(shopper, uuid.New(), nil, "10")
	missingCommission.Status = enums.OrderStatusDelivered
	missingCommission.UpdatedAt = now
	stale := regularOrder(shopper, uuid.New(), nil, "10")
	stale.Status = enums.OrderStatusDelivered
	stale.UpdatedAt = now.Add(-96 * time.Hour)
	inFlight := regularOrder(shopper, uuid.New(), nil, "10")
	inFlight.UpdatedAt = now
	dbtest.MustCreate(t, db, settled, missingCommission, stale, inFlight, item(missingCommission.ID, "10", 1))

	for _, rev := range []*models.Revenue{
		{ID: uuid.New(), Type: enums.RevenueTypeCommission, SourceOrderID: settled.ID, OrderKind: enums.OrderKindRegular, Amount: decimal.NewFromInt(1)},
		{ID: uuid.New(), Type: enums.RevenueTypePlasaFee, SourceOrderID: settled.ID, OrderKind: enums.OrderKindRegular, Amount: decimal.NewFromInt(1)},
		{ID: uuid.New(), Type: enums.RevenueTypePlasaFee, SourceOrderID: missingCommission.ID, OrderKind: enums.OrderKindRegular, Amount: decimal.NewFromInt(1)},
	} {
		dbtest.MustCreate(t, db, rev)
	}

	handles, err := repo.ListDeliveredMissingRevenue(ctx, enums.OrderKindRegular, MissingRevenueQuery{Since: now.Add(-72 * time.Hour), Limit: 10})
	require.NoError(t, err)
	require.Len(t, handles, 1)
	assert.Equal(t, missingCommission.ID, handles[0].ID)
}

func TestListDeliveredMissingRevenueSkipsUnrecordableOrders(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()
	shopper := uuid.New()
	now := time.Now().UTC()

	// No fees and no items: neither revenue type can ever be recorded.
	empty := regularOrder(shopper, uuid.New(), nil, "10")
	empty.ServiceFee = decimal.Zero
	empty.DeliveryFee = decimal.Zero
	empty.Status = enums.OrderStatusDelivered
	empty.UpdatedAt = now.Add(-2 * time.Hour)
	// Fee already recorded and no items to earn commission on.
	feeOnly := regularOrder(shopper, uuid.New(), nil, "10")
	feeOnly.Status = enums.OrderStatusDelivered
	feeOnly.UpdatedAt = now.Add(-time.Hour)
	dbtest.MustCreate(t, db, empty, feeOnly, &models.Revenue{
		ID: uuid.New(), Type: enums.RevenueTypePlasaFee, SourceOrderID: feeOnly.ID, OrderKind: enums.OrderKindRegular, Amount: decimal.NewFromInt(1),
	})

	handles, err := repo.ListDeliveredMissingRevenue(ctx, enums.OrderKindRegular, MissingRevenueQuery{Since: now.Add(-72 * time.Hour), Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, handles)

	freeRestaurant := &models.RestaurantOrder{
		ID: uuid.New(), UserID: uuid.New(), RestaurantID: uuid.New(), ShopperID: &shopper,
		Total: decimal.NewFromInt(50), DeliveryFee: decimal.Zero, Status: enums.OrderStatusDelivered, UpdatedAt: now,
	}
	paidRestaurant := &models.RestaurantOrder{
		ID: uuid.New(), UserID: uuid.New(), RestaurantID: uuid.New(), ShopperID: &shopper,
		Total: decimal.NewFromInt(50), DeliveryFee: decimal.NewFromInt(300), Status: enums.OrderStatusDelivered, UpdatedAt: now,
	}
	dbtest.MustCreate(t, db, freeRestaurant, paidRestaurant)

	handles, err = repo.ListDeliveredMissingRevenue(ctx, enums.OrderKindRestaurant, MissingRevenueQuery{Since: now.Add(-72 * time.Hour)})
	require.NoError(t, err)
	require.Len(t, handles, 1)
	assert.Equal(t, paidRestaurant.ID, handles[0].ID)
}

func TestListDeliveredMissingRevenuePagesByCursor(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	var want []uuid.UUID
	for i := 0; i < 3; i++ {
		o := &models.ReelOrder{
			ID: uuid.New(), UserID: uuid.New(), ReelID: uuid.New(),
			Total: decimal.NewFromInt(100), ServiceFee: decimal.NewFromInt(10), DeliveryFee: decimal.NewFromInt(5),
			Status: enums.OrderStatusDelivered, UpdatedAt: now.Add(time.Duration(i-3) * time.Hour),
		}
		dbtest.MustCreate(t, db, o)
		want = append(want, o.ID)
	}

	query := MissingRevenueQuery{Since: now.Add(-72 * time.Hour), Limit: 2}
	first, err := repo.ListDeliveredMissingRevenue(ctx, enums.OrderKindReel, query)
	require.NoError(t, err)
	require.Len(t, first, 2)

	last := first[len(first)-1]
	query.After = &SweepCursor{UpdatedAt: last.UpdatedAt, ID: last.ID}
	second, err := repo.ListDeliveredMissingRevenue(ctx, enums.OrderKindReel, query)
	require.NoError(t, err)
	require.Len(t, second, 1)

	assert.Equal(t, want, []uuid.UUID{first[0].ID, first[1].ID, second[0].ID})
}

func TestHandleHelpers(t *testing.T) {
	combined := uuid.New()
	h := Handle{Kind: enums.OrderKindRegular, CombinedOrderID: &combined, ServiceFee: decimal.NewFromInt(1000), DeliveryFee: decimal.NewFromInt(500)}
	assert.True(t, h.IsRegular())
	assert.True(t, h.Batched())
	assert.True(t, h.TotalFees().Equal(decimal.NewFromInt(1500)))

	nilCombined := uuid.Nil
	h.CombinedOrderID = &nilCombined
	assert.False(t, h.Batched())
}
