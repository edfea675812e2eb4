package controllers

import (
	"net/http"

	"github.com/vikramshaw/shopora-backend/api/responses"
	"github.com/vikramshaw/shopora-backend/api/validators"
	"github.com/vikramshaw/shopora-backend/internal/views"
	"github.com/vikramshaw/shopora-backend/pkg/logger"
	"github.com/vikramshaw/shopora-backend/pkg/pagination"
)

type recordViewPayload struct {
	UserID    string `json:"userId" validate:"required"`
	VariantID string `json:"variantId" validate:"required"`
}

// ViewsRecord stores one product-variant view for the user.
func ViewsRecord(svc views.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload recordViewPayload
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

		if err := svc.RecordView(ctx, userID, variantID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]bool{"recorded": true})
	}
}

// ViewsHistory returns the user's recently viewed variants.
func ViewsHistory(svc views.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := parseUserParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		history, err := svc.History(ctx, userID, limit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, history)
	}
}
