package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/vikramshaw/shopora-backend/pkg/enums"
)

// CartLine is one product-variant quantity entry attached to a booking.
// At most one draft line per (booking, variant) pair.
type CartLine struct {
	ID        uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	BookingID uuid.UUID            `gorm:"column:booking_id;type:uuid;not null;index"`
	VariantID uuid.UUID            `gorm:"column:variant_id;type:uuid;not null"`
	Quantity  int                  `gorm:"column:quantity;not null;default:1"`
	Status    enums.CartLineStatus `gorm:"column:status;type:text;not null;default:'draft'"`
	CreatedAt time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
