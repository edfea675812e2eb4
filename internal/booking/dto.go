package booking

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vikramshaw/shopora-backend/pkg/enums"
)

// LineView is an enriched cart line returned to clients.
type LineView struct {
	ID           uuid.UUID            `json:"id"`
	VariantID    uuid.UUID            `json:"variant_id"`
	Quantity     int                  `json:"quantity"`
	Status       enums.CartLineStatus `json:"status"`
	StatusCode   float64              `json:"status_code"`
	Title        string               `json:"title"`
	ProductTitle string               `json:"product_title"`
	SellerName   string               `json:"seller_name"`
	ImageKey     string               `json:"image_key,omitempty"`
	SellingPrice decimal.Decimal      `json:"selling_price"`
	MRP          decimal.Decimal      `json:"mrp"`
	LineTotal    decimal.Decimal      `json:"line_total"`
	AvailableQty int                  `json:"available_qty"`
}

// BookingView is an enriched booking returned on order reads.
type BookingView struct {
	ID         uuid.UUID           `json:"id"`
	Status     enums.BookingStatus `json:"status"`
	StatusCode float64             `json:"status_code"`
	Amount     decimal.Decimal     `json:"amount"`
	AddressID  *uuid.UUID          `json:"address_id,omitempty"`
	ExpiresAt  *time.Time          `json:"expires_at,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
	Lines      []LineView          `json:"lines"`
}

// BookingList is a cursor-paginated page of bookings.
type BookingList struct {
	Bookings   []BookingView `json:"bookings"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

// ConfirmOrderInput carries the confirm-order request data.
type ConfirmOrderInput struct {
	UserID    uuid.UUID
	BookingID uuid.UUID
	AddressID uuid.UUID
}

// AdvanceStatusInput moves one line forward in the fulfillment pipeline.
// BookingID, when set, must match the line's owning booking.
type AdvanceStatusInput struct {
	UserID    uuid.UUID
	BookingID uuid.UUID
	LineID    uuid.UUID
	Status    enums.CartLineStatus
}

// CancelLineInput cancels one confirmed line. BookingID, when set, must match
// the line's owning booking.
type CancelLineInput struct {
	UserID    uuid.UUID
	BookingID uuid.UUID
	LineID    uuid.UUID
}
