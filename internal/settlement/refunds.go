package settlement

import (
	"context"

	"gorm.io/gorm"

	"github.com/plasa/shopper-settlement/pkg/db/models"
)

// RefundStore persists customer refunds.
type RefundStore interface {
	WithTx(tx *gorm.DB) RefundStore
	Create(ctx context.Context, refund *models.Refund) error
}

type refundStore struct {
	db *gorm.DB
}

// NewRefundStore builds a refund store bound to the provided DB.
func NewRefundStore(db *gorm.DB) RefundStore {
	return &refundStore{db: db}
}

func (r *refundStore) WithTx(tx *gorm.DB) RefundStore {
	if tx == nil {
		return r
	}
	return &refundStore{db: tx}
}

func (r *refundStore) Create(ctx context.Context, refund *models.Refund) error {
	return r.db.WithContext(ctx).Create(refund).Error
}
