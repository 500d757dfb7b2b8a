package wallets

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/plasa/shopper-settlement/pkg/db/models"
	pkgerrors "github.com/plasa/shopper-settlement/pkg/errors"
	"github.com/plasa/shopper-settlement/pkg/pagination"
)

// Service exposes read-only wallet views to shoppers.
type Service interface {
	GetWallet(ctx context.Context, shopperUserID uuid.UUID) (*WalletDTO, error)
	ListTransactions(ctx context.Context, shopperUserID uuid.UUID, params pagination.Params) (*pagination.Page[TransactionDTO], error)
}

type service struct {
	repo Repository
}

// NewService wires the wallet read service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetWallet(ctx context.Context, shopperUserID uuid.UUID) (*WalletDTO, error) {
	wallet, err := s.lookup(ctx, shopperUserID)
	if err != nil {
		return nil, err
	}
	dto := toWalletDTO(*wallet)
	return &dto, nil
}

func (s *service) ListTransactions(ctx context.Context, shopperUserID uuid.UUID, params pagination.Params) (*pagination.Page[TransactionDTO], error) {
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	wallet, err := s.lookup(ctx, shopperUserID)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListTransactions(ctx, wallet.ID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list wallet transactions")
	}

	items := make([]TransactionDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, toTransactionDTO(row))
	}
	page := pagination.BuildPage(items, params.Limit, func(t TransactionDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: t.CreatedAt, ID: t.ID}
	})
	return &page, nil
}

func (s *service) lookup(ctx context.Context, shopperUserID uuid.UUID) (*models.Wallet, error) {
	if shopperUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "shopper context required")
	}
	wallet, err := s.repo.FindByShopper(ctx, shopperUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "wallet not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load wallet")
	}
	return wallet, nil
}
