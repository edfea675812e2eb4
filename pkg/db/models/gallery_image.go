package models

import (
	"time"

	"github.com/google/uuid"
)

// GalleryImage references one stored image for a variant. Position 0 is the
// primary image.
type GalleryImage struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	VariantID uuid.UUID `gorm:"column:variant_id;type:uuid;not null;index"`
	ObjectKey string    `gorm:"column:object_key;not null"`
	Position  int       `gorm:"column:position;not null;default:0"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
