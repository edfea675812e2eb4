package wishlist

import (
	"context"

	"github.com/google/uuid"

	"github.com/vikramshaw/shopora-backend/internal/catalog"
	"github.com/vikramshaw/shopora-backend/internal/media"
	pkgerrors "github.com/vikramshaw/shopora-backend/pkg/errors"
	"github.com/vikramshaw/shopora-backend/pkg/pagination"
)

// ServiceParams groups dependencies for the wishlist service.
type ServiceParams struct {
	WishlistRepo *Repository
	Catalog      catalog.Service
	Media        media.Service
}

// Service exposes business rules for wishlist management.
type Service interface {
	GetWishlist(ctx context.Context, userID uuid.UUID, params pagination.Params) (Page, error)
	AddItem(ctx context.Context, userID, variantID uuid.UUID) error
	RemoveItem(ctx context.Context, userID, variantID uuid.UUID) error
}

type service struct {
	wishlistRepo *Repository
	catalog      catalog.Service
	media        media.Service
}

// NewService builds a wishlist service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.WishlistRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "wishlist repo is required")
	}
	if params.Catalog == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "catalog service is required")
	}
	if params.Media == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "media service is required")
	}
	return &service{
		wishlistRepo: params.WishlistRepo,
		catalog:      params.Catalog,
		media:        params.Media,
	}, nil
}

// GetWishlist returns the paginated wishlist for a user, enriched with
// catalog details and the primary image per variant.
func (s *service) GetWishlist(ctx context.Context, userID uuid.UUID, params pagination.Params) (Page, error) {
	if userID == uuid.Nil {
		return Page{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	items, err := s.wishlistRepo.ListItems(ctx, userID, params)
	if err != nil {
		return Page{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wishlist items")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	nextCursor := ""
	if len(items) > limit {
		items = items[:limit]
		last := items[len(items)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	variantIDs := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		variantIDs = append(variantIDs, item.VariantID)
	}
	summaries, err := s.catalog.VariantSummaries(ctx, variantIDs)
	if err != nil {
		return Page{}, err
	}
	imageKeys, err := s.media.PrimaryImageKeys(ctx, variantIDs)
	if err != nil {
		return Page{}, err
	}

	views := make([]ItemView, 0, len(items))
	for _, item := range items {
		views = append(views, ItemView{
			ID:        item.ID,
			VariantID: item.VariantID,
			Variant:   summaries[item.VariantID],
			ImageKey:  imageKeys[item.VariantID],
			CreatedAt: item.CreatedAt,
		})
	}
	return Page{Items: views, NextCursor: nextCursor}, nil
}

// AddItem ensures the variant exists and adds it to the wishlist. Saving a
// variant twice is a no-op.
func (s *service) AddItem(ctx context.Context, userID, variantID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if variantID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "variant id is required")
	}
	if _, err := s.catalog.VariantSummary(ctx, variantID); err != nil {
		return err
	}
	if err := s.wishlistRepo.AddItem(ctx, userID, variantID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save wishlist item")
	}
	return nil
}

// RemoveItem drops the wishlist entry regardless of prior state.
func (s *service) RemoveItem(ctx context.Context, userID, variantID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if variantID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "variant id is required")
	}
	if err := s.wishlistRepo.RemoveItem(ctx, userID, variantID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove wishlist item")
	}
	return nil
}
