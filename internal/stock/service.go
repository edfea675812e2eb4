package stock

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/vikramshaw/shopora-backend/pkg/errors"
)

// Service guards the per-variant available-quantity counters. Decrements are
// conditional at the SQL level so concurrent confirmations can never drive a
// counter below zero.
type Service interface {
	Available(ctx context.Context, variantID uuid.UUID) (int, error)
	Reserve(ctx context.Context, tx *gorm.DB, variantID uuid.UUID, qty int) error
	Release(ctx context.Context, tx *gorm.DB, variantID uuid.UUID, qty int) error
}

type service struct {
	repo Repository
}

// NewService builds the stock ledger service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stock repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Available(ctx context.Context, variantID uuid.UUID) (int, error) {
	if variantID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "variant id required")
	}
	qty, err := s.repo.AvailableQty(ctx, variantID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, pkgerrors.New(pkgerrors.CodeNotFound, "stock record not found")
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock record")
	}
	return qty, nil
}

// Reserve decrements available stock for the variant inside the caller's
// transaction. Returning an error rolls the whole confirmation back.
func (s *service) Reserve(ctx context.Context, tx *gorm.DB, variantID uuid.UUID, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock reserve")
	}

	affected, err := s.repo.WithTx(tx).ConditionalDecrement(ctx, variantID, qty)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock for variant").
			WithDetails(map[string]any{"variant_id": variantID, "requested_qty": qty})
	}
	return nil
}

// Release returns quantity to the counter, used when a confirmed line is
// cancelled.
func (s *service) Release(ctx context.Context, tx *gorm.DB, variantID uuid.UUID, qty int) error {
	if qty <= 0 {
		return nil
	}
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock release")
	}
	if err := s.repo.WithTx(tx).Increment(ctx, variantID, qty); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release stock")
	}
	return nil
}
