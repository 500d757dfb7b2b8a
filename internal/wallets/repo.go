package wallets

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/plasa/shopper-settlement/pkg/db/models"
	"github.com/plasa/shopper-settlement/pkg/pagination"
)

// Repository persists wallets and their transaction log. Missing wallets
// surface as gorm.ErrRecordNotFound.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByShopper(ctx context.Context, shopperUserID uuid.UUID) (*models.Wallet, error)
	FindByShopperForUpdate(ctx context.Context, shopperUserID uuid.UUID) (*models.Wallet, error)
	UpdateBalances(ctx context.Context, walletID uuid.UUID, available, reserved decimal.Decimal, at time.Time) error
	AppendTransactions(ctx context.Context, txns []models.WalletTransaction) error
	ListTransactions(ctx context.Context, walletID uuid.UUID, params pagination.Params) ([]models.WalletTransaction, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a wallet repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByShopper(ctx context.Context, shopperUserID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.db.WithContext(ctx).Where("shopper_id = ?", shopperUserID).Take(&wallet).Error; err != nil {
		return nil, err
	}
	return &wallet, nil
}

// FindByShopperForUpdate row-locks the wallet until the surrounding
// transaction ends.
func (r *repository) FindByShopperForUpdate(ctx context.Context, shopperUserID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("shopper_id = ?", shopperUserID).
		Take(&wallet).Error
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (r *repository) UpdateBalances(ctx context.Context, walletID uuid.UUID, available, reserved decimal.Decimal, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("id = ?", walletID).
		Updates(map[string]any{
			"available_balance": available,
			"reserved_balance":  reserved,
			"last_updated":      at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) AppendTransactions(ctx context.Context, txns []models.WalletTransaction) error {
	if len(txns) == 0 {
		return nil
	}
	for i := range txns {
		if txns[i].ID == uuid.Nil {
			txns[i].ID = uuid.New()
		}
	}
	return r.db.WithContext(ctx).Create(&txns).Error
}

// ListTransactions pages the wallet history newest first.
func (r *repository) ListTransactions(ctx context.Context, walletID uuid.UUID, params pagination.Params) ([]models.WalletTransaction, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).Where("wallet_id = ?", walletID)
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.WalletTransaction
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
