package revenue

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/plasa/shopper-settlement/pkg/db/models"
	"github.com/plasa/shopper-settlement/pkg/enums"
)

// Key identifies the single revenue row allowed per order and type.
type Key struct {
	SourceOrderID uuid.UUID
	Type          enums.RevenueType
}

// CreateFunc builds the record to persist. Returning nil means there is
// nothing to record (for example a zero fee).
type CreateFunc func(ctx context.Context) (*models.Revenue, error)

// Outcome reports what EnsureRevenueRecorded did.
type Outcome int

const (
	// OutcomeRecorded means this call wrote the row.
	OutcomeRecorded Outcome = iota
	// OutcomeAlreadyRecorded means a row existed or a concurrent writer won.
	OutcomeAlreadyRecorded
	// OutcomeNothingToRecord means the create func declined to build a row.
	OutcomeNothingToRecord
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRecorded:
		return "created"
	case OutcomeAlreadyRecorded:
		return "existing"
	case OutcomeNothingToRecord:
		return "skipped"
	default:
		return "unknown"
	}
}

// Guard makes revenue recognition exactly-once per order and type.
type Guard struct {
	repo Repository
}

// NewGuard wraps the revenue repository.
func NewGuard(repo Repository) *Guard {
	return &Guard{repo: repo}
}

// WithTx binds the guard to a transaction.
func (g *Guard) WithTx(tx *gorm.DB) *Guard {
	return &Guard{repo: g.repo.WithTx(tx)}
}

// EnsureRevenueRecorded skips createFn when a row for key already exists and
// otherwise inserts its result with insert-or-ignore, so a concurrent
// duplicate is reported as already recorded rather than written twice.
func (g *Guard) EnsureRevenueRecorded(ctx context.Context, key Key, createFn CreateFunc) (Outcome, *models.Revenue, error) {
	if key.SourceOrderID == uuid.Nil {
		return 0, nil, fmt.Errorf("order id is required")
	}
	if !key.Type.IsValid() {
		return 0, nil, fmt.Errorf("invalid revenue type %q", key.Type)
	}

	exists, err := g.repo.Exists(ctx, key.SourceOrderID, key.Type)
	if err != nil {
		return 0, nil, fmt.Errorf("check revenue: %w", err)
	}
	if exists {
		return OutcomeAlreadyRecorded, nil, nil
	}

	record, err := createFn(ctx)
	if err != nil {
		return 0, nil, err
	}
	if record == nil {
		return OutcomeNothingToRecord, nil, nil
	}
	record.SourceOrderID = key.SourceOrderID
	record.Type = key.Type

	inserted, err := g.repo.InsertIfAbsent(ctx, record)
	if err != nil {
		return 0, nil, fmt.Errorf("insert revenue: %w", err)
	}
	if !inserted {
		return OutcomeAlreadyRecorded, nil, nil
	}
	return OutcomeRecorded, record, nil
}
