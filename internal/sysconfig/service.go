package sysconfig

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/plasa/shopper-settlement/pkg/db/models"
)

// Reader loads platform settings from the system_configuration singleton.
type Reader interface {
	CommissionPercentage(ctx context.Context) (decimal.Decimal, error)
}

type reader struct {
	db       *gorm.DB
	fallback decimal.Decimal
}

// NewReader returns a Reader that falls back to the given percentage when the
// singleton row is missing or leaves the value unset.
func NewReader(db *gorm.DB, fallback decimal.Decimal) (Reader, error) {
	if db == nil {
		return nil, fmt.Errorf("db required")
	}
	return &reader{db: db, fallback: fallback}, nil
}

func (r *reader) CommissionPercentage(ctx context.Context) (decimal.Decimal, error) {
	var row models.SystemConfiguration
	err := r.db.WithContext(ctx).Order("updated_at DESC").Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.fallback, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("load system configuration: %w", err)
	}
	if !row.DeliveryCommissionPercentage.Valid {
		return r.fallback, nil
	}
	return row.DeliveryCommissionPercentage.Decimal, nil
}

// Static always returns the same percentage.
type Static decimal.Decimal

func (s Static) CommissionPercentage(context.Context) (decimal.Decimal, error) {
	return decimal.Decimal(s), nil
}
