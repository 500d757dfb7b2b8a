package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/plasa/shopper-settlement/pkg/db/models"
	"github.com/plasa/shopper-settlement/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// Kinds lists the order tables in lookup order.
var Kinds = []enums.OrderKind{
	enums.OrderKindRegular,
	enums.OrderKindReel,
	enums.OrderKindRestaurant,
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindOrder(ctx context.Context, orderID uuid.UUID) (*Handle, error) {
	return r.findFirst(ctx, "id = ?", orderID)
}

// FindAssignedOrder tries regular, reel, then restaurant orders and returns
// the first one assigned to the shopper.
func (r *repository) FindAssignedOrder(ctx context.Context, orderID, shopperUserID uuid.UUID) (*Handle, error) {
	return r.findFirst(ctx, "id = ? AND shopper_id = ?", orderID, shopperUserID)
}

func (r *repository) findFirst(ctx context.Context, query string, args ...any) (*Handle, error) {
	for _, kind := range Kinds {
		handle, err := r.findOne(ctx, kind, query, args...)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return handle, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *repository) findOne(ctx context.Context, kind enums.OrderKind, query string, args ...any) (*Handle, error) {
	db := r.db.WithContext(ctx).Where(query, args...)
	var handle Handle
	switch kind {
	case enums.OrderKindRegular:
		var row models.Order
		if err := db.Take(&row).Error; err != nil {
			return nil, err
		}
		handle = FromRegular(row)
	case enums.OrderKindReel:
		var row models.ReelOrder
		if err := db.Take(&row).Error; err != nil {
			return nil, err
		}
		handle = FromReel(row)
	case enums.OrderKindRestaurant:
		var row models.RestaurantOrder
		if err := db.Take(&row).Error; err != nil {
			return nil, err
		}
		handle = FromRestaurant(row)
	default:
		return nil, fmt.Errorf("unknown order kind %q", kind)
	}
	return &handle, nil
}

func (r *repository) FindOrderItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("product_name ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// FindBatchItems returns the line items of every shopper-assigned regular
// order in the combined checkout that belongs to the same shop.
func (r *repository) FindBatchItems(ctx context.Context, combinedOrderID, shopID uuid.UUID) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := r.db.WithContext(ctx).
		Table("order_items AS oi").
		Select("oi.*").
		Joins("JOIN orders o ON o.id = oi.order_id").
		Where("o.combined_order_id = ? AND o.shop_id = ? AND o.shopper_id IS NOT NULL", combinedOrderID, shopID).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) FindByCombinedID(ctx context.Context, kind enums.OrderKind, combinedOrderID uuid.UUID) ([]Handle, error) {
	db := r.db.WithContext(ctx).Where("combined_order_id = ?", combinedOrderID).Order("id ASC")
	return findHandles(db, kind)
}

func (r *repository) UpdateStatus(ctx context.Context, kind enums.OrderKind, orderID uuid.UUID, status enums.OrderStatus, at time.Time) error {
	model, err := modelFor(kind)
	if err != nil {
		return err
	}
	res := r.db.WithContext(ctx).
		Model(model).
		Where("id = ?", orderID).
		Updates(map[string]any{"status": status, "updated_at": at})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) UpdateStatusByCombinedID(ctx context.Context, kind enums.OrderKind, combinedOrderID uuid.UUID, status enums.OrderStatus, at time.Time) (int64, error) {
	model, err := modelFor(kind)
	if err != nil {
		return 0, err
	}
	res := r.db.WithContext(ctx).
		Model(model).
		Where("combined_order_id = ?", combinedOrderID).
		Updates(map[string]any{"status": status, "updated_at": at})
	return res.RowsAffected, res.Error
}

// ListDeliveredMissingRevenue returns delivered orders updated since the
// cutoff that still lack a revenue record they can earn: a plasa fee when the
// order carries fees, and (regular orders) a commission when it has items.
// Results are ordered by (updated_at, id); pass the last row as After to read
// the next page.
func (r *repository) ListDeliveredMissingRevenue(ctx context.Context, kind enums.OrderKind, query MissingRevenueQuery) ([]Handle, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	missing := fmt.Sprintf("NOT EXISTS (SELECT 1 FROM revenue r WHERE r.source_order_id = %s.id AND r.type = ?)", table)
	feeBearing := fmt.Sprintf("%s.service_fee + %s.delivery_fee > 0", table, table)
	if kind == enums.OrderKindRestaurant {
		feeBearing = fmt.Sprintf("%s.delivery_fee > 0", table)
	}
	missingFee := "(" + missing + " AND " + feeBearing + ")"

	db := r.db.WithContext(ctx).
		Where("status = ? AND updated_at >= ?", enums.OrderStatusDelivered, query.Since)
	if kind == enums.OrderKindRegular {
		hasItems := fmt.Sprintf("EXISTS (SELECT 1 FROM %s i WHERE i.order_id = %s.id)", models.OrderItem{}.TableName(), table)
		missingCommission := "(" + missing + " AND " + hasItems + ")"
		db = db.Where("("+missingFee+" OR "+missingCommission+")", enums.RevenueTypePlasaFee, enums.RevenueTypeCommission)
	} else {
		db = db.Where(missingFee, enums.RevenueTypePlasaFee)
	}
	if query.After != nil {
		db = db.Where("(updated_at > ? OR (updated_at = ? AND id > ?))",
			query.After.UpdatedAt, query.After.UpdatedAt, query.After.ID)
	}
	db = db.Order("updated_at ASC").Order("id ASC")
	if query.Limit > 0 {
		db = db.Limit(query.Limit)
	}

	return findHandles(db, kind)
}

func findHandles(db *gorm.DB, kind enums.OrderKind) ([]Handle, error) {
	var handles []Handle
	switch kind {
	case enums.OrderKindRegular:
		var rows []models.Order
		if err := db.Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, row := range rows {
			handles = append(handles, FromRegular(row))
		}
	case enums.OrderKindReel:
		var rows []models.ReelOrder
		if err := db.Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, row := range rows {
			handles = append(handles, FromReel(row))
		}
	case enums.OrderKindRestaurant:
		var rows []models.RestaurantOrder
		if err := db.Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, row := range rows {
			handles = append(handles, FromRestaurant(row))
		}
	default:
		return nil, fmt.Errorf("unknown order kind %q", kind)
	}
	return handles, nil
}

func modelFor(kind enums.OrderKind) (any, error) {
	switch kind {
	case enums.OrderKindRegular:
		return &models.Order{}, nil
	case enums.OrderKindReel:
		return &models.ReelOrder{}, nil
	case enums.OrderKindRestaurant:
		return &models.RestaurantOrder{}, nil
	default:
		return nil, fmt.Errorf("unknown order kind %q", kind)
	}
}

func tableFor(kind enums.OrderKind) (string, error) {
	switch kind {
	case enums.OrderKindRegular:
		return models.Order{}.TableName(), nil
	case enums.OrderKindReel:
		return models.ReelOrder{}.TableName(), nil
	case enums.OrderKindRestaurant:
		return models.RestaurantOrder{}.TableName(), nil
	default:
		return "", fmt.Errorf("unknown order kind %q", kind)
	}
}
