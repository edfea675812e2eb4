package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vikramshaw/shopora-backend/api/middleware"
	"github.com/vikramshaw/shopora-backend/api/validators"
	pkgerrors "github.com/vikramshaw/shopora-backend/pkg/errors"
	"github.com/vikramshaw/shopora-backend/pkg/pagination"
)

// parseUser parses the user id supplied by the request and, when the request
// is authenticated, verifies it matches the token subject.
func parseUser(ctx context.Context, raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id")
	}
	if actor := middleware.UserIDFromContext(ctx); actor != "" && actor != userID.String() {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "user id does not match credentials")
	}
	return userID, nil
}

// parseOptionalUser resolves the acting user when the payload omits one:
// the token subject when the request is authenticated, uuid.Nil otherwise
// (services then skip the ownership check).
func parseOptionalUser(ctx context.Context, raw string) (uuid.UUID, error) {
	if strings.TrimSpace(raw) == "" {
		if actor := middleware.UserIDFromContext(ctx); actor != "" {
			return uuid.Parse(actor)
		}
		return uuid.Nil, nil
	}
	return parseUser(ctx, raw)
}

func parseUserParam(r *http.Request) (uuid.UUID, error) {
	return parseUser(r.Context(), chi.URLParam(r, "userId"))
}

func parseID(raw, field string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, field+" is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+field)
	}
	return id, nil
}

func parsePagination(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", 0, 0, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	cursor := validators.SanitizeString(r.URL.Query().Get("cursor"), 256)
	return pagination.Params{Limit: limit, Cursor: cursor}, nil
}
