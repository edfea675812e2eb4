package enums

import "fmt"

// BookingStatus is the ordered lifecycle of a booking. The storefront API
// still speaks the legacy numeric codes (0, 1, 2.5, 3, 4, -1), so each
// status carries its wire code alongside the canonical name.
type BookingStatus string

const (
	BookingStatusDraft     BookingStatus = "draft"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusPacked    BookingStatus = "packed"
	BookingStatusShipped   BookingStatus = "shipped"
	BookingStatusDelivered BookingStatus = "delivered"
	BookingStatusCancelled BookingStatus = "cancelled"
)

var validBookingStatuses = []BookingStatus{
	BookingStatusDraft,
	BookingStatusConfirmed,
	BookingStatusPacked,
	BookingStatusShipped,
	BookingStatusDelivered,
	BookingStatusCancelled,
}

// legacy wire codes; 2.5 is inherited encoding, not a semantic quantity.
var bookingStatusCodes = map[BookingStatus]float64{
	BookingStatusDraft:     0,
	BookingStatusConfirmed: 1,
	BookingStatusPacked:    2.5,
	BookingStatusShipped:   3,
	BookingStatusDelivered: 4,
	BookingStatusCancelled: -1,
}

// rank orders the forward-only fulfillment progression. Cancelled is
// terminal and sits outside the ordering.
var bookingStatusRanks = map[BookingStatus]int{
	BookingStatusDraft:     0,
	BookingStatusConfirmed: 1,
	BookingStatusPacked:    2,
	BookingStatusShipped:   3,
	BookingStatusDelivered: 4,
}

// String implements fmt.Stringer.
func (b BookingStatus) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BookingStatus.
func (b BookingStatus) IsValid() bool {
	for _, candidate := range validBookingStatuses {
		if candidate == b {
			return true
		}
	}
	return false
}

// Code returns the legacy numeric wire code for the status.
func (b BookingStatus) Code() float64 {
	return bookingStatusCodes[b]
}

// IsTerminal reports whether no further transitions are allowed.
func (b BookingStatus) IsTerminal() bool {
	return b == BookingStatusDelivered || b == BookingStatusCancelled
}

// CanAdvanceTo reports whether moving to next respects the forward-only
// ordering. Cancellation is allowed from any non-terminal state.
func (b BookingStatus) CanAdvanceTo(next BookingStatus) bool {
	if !b.IsValid() || !next.IsValid() {
		return false
	}
	if next == BookingStatusCancelled {
		return !b.IsTerminal()
	}
	if b == BookingStatusCancelled {
		return false
	}
	return bookingStatusRanks[next] > bookingStatusRanks[b]
}

// ParseBookingStatus converts the raw string to a BookingStatus.
func ParseBookingStatus(value string) (BookingStatus, error) {
	for _, candidate := range validBookingStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid booking status %q", value)
}

// ParseBookingStatusCode converts a legacy numeric wire code to a status.
func ParseBookingStatusCode(code float64) (BookingStatus, error) {
	for status, candidate := range bookingStatusCodes {
		if candidate == code {
			return status, nil
		}
	}
	return "", fmt.Errorf("invalid booking status code %v", code)
}
