package wishlist

import (
	"time"

	"github.com/google/uuid"

	"github.com/vikramshaw/shopora-backend/internal/catalog"
)

// ItemView is one saved variant enriched with catalog and image data.
type ItemView struct {
	ID        uuid.UUID              `json:"id"`
	VariantID uuid.UUID              `json:"variant_id"`
	Variant   catalog.VariantSummary `json:"variant"`
	ImageKey  string                 `json:"image_key,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// Page is a cursor-paginated wishlist view.
type Page struct {
	Items      []ItemView `json:"items"`
	NextCursor string     `json:"next_cursor,omitempty"`
}
