package controllers

import (
	"net/http"

	"github.com/vikramshaw/shopora-backend/api/responses"
	"github.com/vikramshaw/shopora-backend/api/validators"
	"github.com/vikramshaw/shopora-backend/internal/booking"
	"github.com/vikramshaw/shopora-backend/pkg/enums"
	pkgerrors "github.com/vikramshaw/shopora-backend/pkg/errors"
	"github.com/vikramshaw/shopora-backend/pkg/logger"
)

// The payload keys keep the storefront's legacy spellings, bookingID's odd
// casing on confirm included.

type confirmOrderPayload struct {
	UserID    string `json:"userId" validate:"required"`
	BookingID string `json:"bookingID" validate:"required"`
	AddressID string `json:"addressId" validate:"required"`
}

type updateStatusPayload struct {
	BookingID string   `json:"bookingId" validate:"required"`
	CartID    string   `json:"cartId" validate:"required"`
	Status    *float64 `json:"status" validate:"required"`
	UserID    string   `json:"userId"`
}

type cancelLinePayload struct {
	BookingID string `json:"bookingId" validate:"required"`
	CartID    string `json:"cartId" validate:"required"`
	UserID    string `json:"userId"`
}

// BookingConfirmOrder attaches a delivery address and atomically reserves
// stock for every active line.
func BookingConfirmOrder(svc booking.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload confirmOrderPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		userID, err := parseUser(ctx, payload.UserID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		bookingID, err := parseID(payload.BookingID, "booking id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		addressID, err := parseID(payload.AddressID, "address id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		view, err := svc.ConfirmOrder(ctx, booking.ConfirmOrderInput{
			UserID:    userID,
			BookingID: bookingID,
			AddressID: addressID,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// BookingUpdateStatus advances one line through the fulfillment pipeline.
// The wire format keeps the legacy numeric codes (1, 2.5, 3, 4).
func BookingUpdateStatus(svc booking.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload updateStatusPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		userID, err := parseOptionalUser(ctx, payload.UserID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		bookingID, err := parseID(payload.BookingID, "booking id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		lineID, err := parseID(payload.CartID, "cart line id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		status, err := enums.ParseCartLineStatusCode(*payload.Status)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status code"))
			return
		}

		view, err := svc.AdvanceStatus(ctx, booking.AdvanceStatusInput{
			UserID:    userID,
			BookingID: bookingID,
			LineID:    lineID,
			Status:    status,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// BookingCancelLine cancels one confirmed line and cascades to the booking
// when no active lines remain.
func BookingCancelLine(svc booking.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload cancelLinePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		userID, err := parseOptionalUser(ctx, payload.UserID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		bookingID, err := parseID(payload.BookingID, "booking id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		lineID, err := parseID(payload.CartID, "cart line id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		view, err := svc.CancelLine(ctx, booking.CancelLineInput{
			UserID:    userID,
			BookingID: bookingID,
			LineID:    lineID,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// BookingHistory returns the user's non-draft bookings, newest first.
func BookingHistory(svc booking.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := parseUserParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		params, err := parsePagination(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		list, err := svc.ListBookings(ctx, userID, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
