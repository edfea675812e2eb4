package models

import (
	"time"

	"github.com/google/uuid"
)

// StockRecord is the available-quantity counter for one variant. The count
// never goes negative; writers use the conditional decrement in
// internal/stock rather than read-then-write.
type StockRecord struct {
	VariantID    uuid.UUID `gorm:"column:variant_id;type:uuid;primaryKey"`
	AvailableQty int       `gorm:"column:available_qty;not null;default:0"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
