package revenue

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/plasa/shopper-settlement/pkg/db/models"
	"github.com/plasa/shopper-settlement/pkg/enums"
)

// Repository persists revenue rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Exists(ctx context.Context, sourceOrderID uuid.UUID, revenueType enums.RevenueType) (bool, error)
	InsertIfAbsent(ctx context.Context, record *models.Revenue) (bool, error)
	FindShopperEntityID(ctx context.Context, shopperUserID uuid.UUID) (*uuid.UUID, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a revenue repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Exists(ctx context.Context, sourceOrderID uuid.UUID, revenueType enums.RevenueType) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Revenue{}).
		Where("source_order_id = ? AND type = ?", sourceOrderID, revenueType).
		Limit(1).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// InsertIfAbsent inserts the record unless ux_revenue_source_order_type
// already holds a row for it. It reports whether this call wrote the row.
func (r *repository) InsertIfAbsent(ctx context.Context, record *models.Revenue) (bool, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "source_order_id"}, {Name: "type"}},
			DoNothing: true,
		}).
		Create(record)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// FindShopperEntityID maps a courier's user id onto the shoppers row. A
// missing row is not an error; revenue is then stored without a shopper.
func (r *repository) FindShopperEntityID(ctx context.Context, shopperUserID uuid.UUID) (*uuid.UUID, error) {
	var shopper models.Shopper
	err := r.db.WithContext(ctx).Where("user_id = ?", shopperUserID).Take(&shopper).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &shopper.ID, nil
}
