package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vikramshaw/shopora-backend/api/responses"
	"github.com/vikramshaw/shopora-backend/api/validators"
	"github.com/vikramshaw/shopora-backend/internal/cart"
	"github.com/vikramshaw/shopora-backend/pkg/logger"
)

// The payload keys keep the storefront's legacy spellings: cartQty for the
// quantity, cart_id/cartId/cartIds for cart line ids.

type addToCartPayload struct {
	UserID    string `json:"userId" validate:"required"`
	VariantID string `json:"variantId" validate:"required"`
	CartQty   int    `json:"cartQty" validate:"gte=0"`
}

type buyNowPayload struct {
	UserID    string          `json:"userId" validate:"required"`
	VariantID string          `json:"variantId" validate:"required"`
	CartQty   int             `json:"cartQty" validate:"gte=0"`
	Amount    decimal.Decimal `json:"amount"`
}

type adjustLinePayload struct {
	CartID string `json:"cart_id" validate:"required"`
	UserID string `json:"userId"`
}

type removeLinePayload struct {
	CartID string `json:"cartId" validate:"required"`
	UserID string `json:"userId" validate:"required"`
}

type placeOrderPayload struct {
	UserID      string          `json:"userId" validate:"required"`
	CartIDs     []string        `json:"cartIds" validate:"required,min=1,dive,required"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// CartAdd adds one variant to the user's draft cart.
func CartAdd(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload addToCartPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		userID, err := parseUser(ctx, payload.UserID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		variantID, err := parseID(payload.VariantID, "variant id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		view, err := svc.AddToCart(ctx, cart.AddToCartInput{
			UserID:    userID,
			VariantID: variantID,
			Quantity:  payload.CartQty,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

// CartFetch returns the user's open draft cart with enriched lines.
func CartFetch(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := parseUserParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		view, err := svc.GetCart(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// CartAddOne bumps a draft line's quantity by one, bounded by stock.
func CartAddOne(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return adjustQuantityHandler(svc.AddQuantity, logg)
}

// CartRemoveOne lowers a draft line's quantity by one, bounded by the
// variant's minimum order quantity.
func CartRemoveOne(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return adjustQuantityHandler(svc.RemoveQuantity, logg)
}

func adjustQuantityHandler(op func(ctx context.Context, input cart.QuantityInput) (*cart.CartView, error), logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload adjustLinePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		userID, err := parseOptionalUser(ctx, payload.UserID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		lineID, err := parseID(payload.CartID, "cart line id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		view, err := op(ctx, cart.QuantityInput{UserID: userID, LineID: lineID})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// CartRemoveLine deletes one draft line; the booking goes with it when the
// cart ends up empty.
func CartRemoveLine(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload removeLinePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		userID, err := parseUser(ctx, payload.UserID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		lineID, err := parseID(payload.CartID, "cart line id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		view, err := svc.RemoveLine(ctx, cart.RemoveLineInput{UserID: userID, LineID: lineID})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// CartBuyNow creates a standalone confirmed booking with a reservation
// window, skipping the draft cart entirely.
func CartBuyNow(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload buyNowPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		userID, err := parseUser(ctx, payload.UserID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		variantID, err := parseID(payload.VariantID, "variant id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		view, err := svc.BuyNow(ctx, cart.BuyNowInput{
			UserID:    userID,
			VariantID: variantID,
			Quantity:  payload.CartQty,
			Amount:    payload.Amount,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

// CartPlaceOrder promotes a set of draft lines to a confirmed order with a
// reservation window.
func CartPlaceOrder(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload placeOrderPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		userID, err := parseUser(ctx, payload.UserID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		lineIDs := make([]uuid.UUID, 0, len(payload.CartIDs))
		for _, raw := range payload.CartIDs {
			lineID, err := parseID(raw, "cart line id")
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			lineIDs = append(lineIDs, lineID)
		}

		view, err := svc.PlaceOrder(ctx, cart.PlaceOrderInput{
			UserID:      userID,
			LineIDs:     lineIDs,
			TotalAmount: payload.TotalAmount,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}
