package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vikramshaw/shopora-backend/internal/booking"
)

// CartView is the user's open draft cart.
type CartView struct {
	BookingID *uuid.UUID         `json:"booking_id,omitempty"`
	Amount    decimal.Decimal    `json:"amount"`
	Lines     []booking.LineView `json:"lines"`
}

// AddToCartInput adds one variant to the user's draft cart.
type AddToCartInput struct {
	UserID    uuid.UUID
	VariantID uuid.UUID
	Quantity  int
}

// BuyNowInput creates a standalone reservation for immediate checkout.
// Amount is the client-computed order total; when zero it is recomputed from
// the variant's selling price.
type BuyNowInput struct {
	UserID    uuid.UUID
	VariantID uuid.UUID
	Quantity  int
	Amount    decimal.Decimal
}

// QuantityInput adjusts one draft line by a single unit.
type QuantityInput struct {
	UserID uuid.UUID
	LineID uuid.UUID
}

// RemoveLineInput deletes one draft line from the cart.
type RemoveLineInput struct {
	UserID uuid.UUID
	LineID uuid.UUID
}

// PlaceOrderInput promotes a set of draft lines to a confirmed order.
// TotalAmount is the client-computed order total; when zero it is recomputed
// from the lines' selling prices.
type PlaceOrderInput struct {
	UserID      uuid.UUID
	LineIDs     []uuid.UUID
	TotalAmount decimal.Decimal
}
