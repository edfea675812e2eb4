package stock

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vikramshaw/shopora-backend/pkg/db/models"
)

// Repository persists stock counters.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	AvailableQty(ctx context.Context, variantID uuid.UUID) (int, error)
	ConditionalDecrement(ctx context.Context, variantID uuid.UUID, qty int) (int64, error)
	Increment(ctx context.Context, variantID uuid.UUID, qty int) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a stock repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) AvailableQty(ctx context.Context, variantID uuid.UUID) (int, error) {
	var record models.StockRecord
	err := r.db.WithContext(ctx).
		Where("variant_id = ?", variantID).
		First(&record).Error
	if err != nil {
		return 0, err
	}
	return record.AvailableQty, nil
}

// ConditionalDecrement subtracts qty only when enough stock remains. The
// returned row count is zero when the guard fails.
func (r *repository) ConditionalDecrement(ctx context.Context, variantID uuid.UUID, qty int) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE stock_records
		SET available_qty = available_qty - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE variant_id = ? AND available_qty >= ?
	`, qty, variantID, qty)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *repository) Increment(ctx context.Context, variantID uuid.UUID, qty int) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE stock_records
		SET available_qty = available_qty + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE variant_id = ?
	`, qty, variantID).Error
}
