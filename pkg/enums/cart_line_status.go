package enums

import "fmt"

// CartLineStatus mirrors BookingStatus at line granularity. Lines advance
// individually; the owning booking only follows once every line agrees.
type CartLineStatus string

const (
	CartLineStatusDraft     CartLineStatus = "draft"
	CartLineStatusConfirmed CartLineStatus = "confirmed"
	CartLineStatusPacked    CartLineStatus = "packed"
	CartLineStatusShipped   CartLineStatus = "shipped"
	CartLineStatusDelivered CartLineStatus = "delivered"
	CartLineStatusCancelled CartLineStatus = "cancelled"
)

var validCartLineStatuses = []CartLineStatus{
	CartLineStatusDraft,
	CartLineStatusConfirmed,
	CartLineStatusPacked,
	CartLineStatusShipped,
	CartLineStatusDelivered,
	CartLineStatusCancelled,
}

// String implements fmt.Stringer.
func (c CartLineStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CartLineStatus.
func (c CartLineStatus) IsValid() bool {
	for _, candidate := range validCartLineStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// Code returns the legacy numeric wire code for the line status.
func (c CartLineStatus) Code() float64 {
	return BookingStatus(c).Code()
}

// BookingStatus converts the line status to the equivalent booking status.
func (c CartLineStatus) BookingStatus() BookingStatus {
	return BookingStatus(c)
}

// CanAdvanceTo reports whether moving to next respects the forward-only
// ordering, mirroring BookingStatus.CanAdvanceTo.
func (c CartLineStatus) CanAdvanceTo(next CartLineStatus) bool {
	return BookingStatus(c).CanAdvanceTo(BookingStatus(next))
}

// ParseCartLineStatus converts the raw string to a CartLineStatus.
func ParseCartLineStatus(value string) (CartLineStatus, error) {
	for _, candidate := range validCartLineStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cart line status %q", value)
}

// ParseCartLineStatusCode converts a legacy numeric wire code to a status.
func ParseCartLineStatusCode(code float64) (CartLineStatus, error) {
	status, err := ParseBookingStatusCode(code)
	if err != nil {
		return "", fmt.Errorf("invalid cart line status code %v", code)
	}
	return CartLineStatus(status), nil
}
