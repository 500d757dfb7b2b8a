package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SystemConfiguration is the platform settings singleton.
type SystemConfiguration struct {
	ID                           uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	DeliveryCommissionPercentage decimal.NullDecimal `gorm:"column:delivery_commission_percentage;type:numeric(5,2)"`
	UpdatedAt                    time.Time           `gorm:"column:updated_at"`
}

func (SystemConfiguration) TableName() string { return "system_configuration" }
