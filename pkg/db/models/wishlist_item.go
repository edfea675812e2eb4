package models

import (
	"time"

	"github.com/google/uuid"
)

// WishlistItem is a user's saved variant.
type WishlistItem struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_wishlist_user_variant"`
	VariantID uuid.UUID `gorm:"column:variant_id;type:uuid;not null;uniqueIndex:ux_wishlist_user_variant"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// ViewEvent records one product-variant view for history tracking.
type ViewEvent struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	VariantID uuid.UUID `gorm:"column:variant_id;type:uuid;not null"`
	ViewedAt  time.Time `gorm:"column:viewed_at;autoCreateTime"`
}
