package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/plasa/shopper-settlement/pkg/db/models"
	"github.com/plasa/shopper-settlement/pkg/enums"
)

// Repository reads and writes the three order tables. Lookups that find
// nothing return gorm.ErrRecordNotFound.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindOrder(ctx context.Context, orderID uuid.UUID) (*Handle, error)
	FindAssignedOrder(ctx context.Context, orderID, shopperUserID uuid.UUID) (*Handle, error)
	FindOrderItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error)
	FindBatchItems(ctx context.Context, combinedOrderID, shopID uuid.UUID) ([]models.OrderItem, error)
	FindByCombinedID(ctx context.Context, kind enums.OrderKind, combinedOrderID uuid.UUID) ([]Handle, error)
	UpdateStatus(ctx context.Context, kind enums.OrderKind, orderID uuid.UUID, status enums.OrderStatus, at time.Time) error
	UpdateStatusByCombinedID(ctx context.Context, kind enums.OrderKind, combinedOrderID uuid.UUID, status enums.OrderStatus, at time.Time) (int64, error)
	ListDeliveredMissingRevenue(ctx context.Context, kind enums.OrderKind, query MissingRevenueQuery) ([]Handle, error)
}

// SweepCursor is the (updated_at, id) position of the last order read.
type SweepCursor struct {
	UpdatedAt time.Time
	ID        uuid.UUID
}

// MissingRevenueQuery pages through delivered orders without revenue.
type MissingRevenueQuery struct {
	Since time.Time
	After *SweepCursor
	Limit int
}
