package wallets

import (
	"time"

	"github.com/google/uuid"

	"github.com/plasa/shopper-settlement/pkg/db/models"
	"github.com/plasa/shopper-settlement/pkg/enums"
	"github.com/plasa/shopper-settlement/pkg/types"
)

// WalletDTO renders balances as two-decimal strings.
type WalletDTO struct {
	ID               uuid.UUID `json:"id"`
	ShopperID        uuid.UUID `json:"shopperId"`
	AvailableBalance string    `json:"availableBalance"`
	ReservedBalance  string    `json:"reservedBalance"`
	LastUpdated      time.Time `json:"lastUpdated"`
}

// TransactionDTO is one wallet history entry.
type TransactionDTO struct {
	ID          uuid.UUID                     `json:"id"`
	Amount      string                        `json:"amount"`
	Type        enums.WalletTransactionType   `json:"type"`
	Status      enums.WalletTransactionStatus `json:"status"`
	OrderID     *uuid.UUID                    `json:"orderId,omitempty"`
	OrderKind   enums.OrderKind               `json:"orderKind,omitempty"`
	Description string                        `json:"description"`
	CreatedAt   time.Time                     `json:"createdAt"`
}

func toWalletDTO(w models.Wallet) WalletDTO {
	return WalletDTO{
		ID:               w.ID,
		ShopperID:        w.ShopperID,
		AvailableBalance: types.FormatMoney(w.AvailableBalance),
		ReservedBalance:  types.FormatMoney(w.ReservedBalance),
		LastUpdated:      w.LastUpdated,
	}
}

func toTransactionDTO(t models.WalletTransaction) TransactionDTO {
	dto := TransactionDTO{
		ID:          t.ID,
		Amount:      types.FormatMoney(t.Amount),
		Type:        t.Type,
		Status:      t.Status,
		Description: t.Description,
		CreatedAt:   t.CreatedAt,
	}
	switch {
	case t.RelatedOrderID != nil:
		dto.OrderID, dto.OrderKind = t.RelatedOrderID, enums.OrderKindRegular
	case t.RelatedReelOrderID != nil:
		dto.OrderID, dto.OrderKind = t.RelatedReelOrderID, enums.OrderKindReel
	case t.RelatedRestaurantOrderID != nil:
		dto.OrderID, dto.OrderKind = t.RelatedRestaurantOrderID, enums.OrderKindRestaurant
	}
	return dto
}
