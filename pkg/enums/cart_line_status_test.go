package enums

import "testing"

func TestCartLineStatusForwardOnly(t *testing.T) {
	if !CartLineStatusConfirmed.CanAdvanceTo(CartLineStatusPacked) {
		t.Fatal("confirmed should advance to packed")
	}
	if !CartLineStatusPacked.CanAdvanceTo(CartLineStatusDelivered) {
		t.Fatal("skipping intermediate stages is allowed")
	}
	if CartLineStatusShipped.CanAdvanceTo(CartLineStatusPacked) {
		t.Fatal("backward transition must be rejected")
	}
	if CartLineStatusDelivered.CanAdvanceTo(CartLineStatusCancelled) {
		t.Fatal("delivered lines cannot be cancelled")
	}
	if !CartLineStatusConfirmed.CanAdvanceTo(CartLineStatusCancelled) {
		t.Fatal("confirmed lines can still be cancelled")
	}
	if CartLineStatusCancelled.CanAdvanceTo(CartLineStatusShipped) {
		t.Fatal("cancelled is terminal")
	}
	if CartLineStatus("bogus").CanAdvanceTo(CartLineStatusPacked) {
		t.Fatal("unknown statuses never advance")
	}
}

func TestParseCartLineStatusCodeRejectsUnknown(t *testing.T) {
	if _, err := ParseCartLineStatusCode(1.5); err == nil {
		t.Fatal("code 1.5 is not part of the legacy encoding")
	}
}
