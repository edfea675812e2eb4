package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vikramshaw/shopora-backend/pkg/enums"
)

// Booking is an order, draft or confirmed, owned by one user. A user has at
// most one draft booking at a time; buy-now bookings carry an expiry window
// until the order is confirmed with an address.
type Booking struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	AddressID *uuid.UUID          `gorm:"column:address_id;type:uuid"`
	Amount    decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null;default:0"`
	Status    enums.BookingStatus `gorm:"column:status;type:text;not null;default:'draft'"`
	ExpiresAt *time.Time          `gorm:"column:expires_at"`
	Lines     []CartLine          `gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
