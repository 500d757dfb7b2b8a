package models

import (
	"time"

	"github.com/google/uuid"
)

// Shopper is the courier entity attached to a user account.
type Shopper struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Shopper) TableName() string { return "shoppers" }
