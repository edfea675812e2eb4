package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	pkgerrors "github.com/vikramshaw/shopora-backend/pkg/errors"
)

// VariantSummary carries the catalog fields shown on cart and booking reads.
type VariantSummary struct {
	VariantID       uuid.UUID       `json:"variant_id"`
	ProductID       uuid.UUID       `json:"product_id"`
	Title           string          `json:"title"`
	ProductTitle    string          `json:"product_title"`
	SellerName      string          `json:"seller_name"`
	SellingPrice    decimal.Decimal `json:"selling_price"`
	MRP             decimal.Decimal `json:"mrp"`
	MinimumOrderQty int             `json:"minimum_order_qty"`
}

// Service resolves catalog details for checkout flows.
type Service interface {
	VariantSummary(ctx context.Context, variantID uuid.UUID) (*VariantSummary, error)
	VariantSummaries(ctx context.Context, variantIDs []uuid.UUID) (map[uuid.UUID]VariantSummary, error)
}

type service struct {
	repo Repository
}

// NewService builds the catalog lookup service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) VariantSummary(ctx context.Context, variantID uuid.UUID) (*VariantSummary, error) {
	if variantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant id required")
	}
	summaries, err := s.VariantSummaries(ctx, []uuid.UUID{variantID})
	if err != nil {
		return nil, err
	}
	summary, ok := summaries[variantID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product variant not found")
	}
	return &summary, nil
}

func (s *service) VariantSummaries(ctx context.Context, variantIDs []uuid.UUID) (map[uuid.UUID]VariantSummary, error) {
	if len(variantIDs) == 0 {
		return map[uuid.UUID]VariantSummary{}, nil
	}

	variants, err := s.repo.FindVariants(ctx, variantIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variants")
	}

	productIDs := make([]uuid.UUID, 0, len(variants))
	seenProducts := map[uuid.UUID]struct{}{}
	for _, v := range variants {
		if _, ok := seenProducts[v.ProductID]; ok {
			continue
		}
		seenProducts[v.ProductID] = struct{}{}
		productIDs = append(productIDs, v.ProductID)
	}

	products, err := s.repo.FindProducts(ctx, productIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	productsByID := make(map[uuid.UUID]struct {
		title    string
		sellerID uuid.UUID
	}, len(products))
	for _, p := range products {
		productsByID[p.ID] = struct {
			title    string
			sellerID uuid.UUID
		}{title: p.Title, sellerID: p.SellerID}
	}

	sellerNames := map[uuid.UUID]string{}

	out := make(map[uuid.UUID]VariantSummary, len(variants))
	for _, v := range variants {
		summary := VariantSummary{
			VariantID:       v.ID,
			ProductID:       v.ProductID,
			Title:           v.Title,
			SellingPrice:    v.SellingPrice,
			MRP:             v.MRP,
			MinimumOrderQty: v.MinimumOrderQty,
		}
		if p, ok := productsByID[v.ProductID]; ok {
			summary.ProductTitle = p.title
			name, cached := sellerNames[p.sellerID]
			if !cached {
				seller, err := s.repo.FindSeller(ctx, p.sellerID)
				if err != nil && err != gorm.ErrRecordNotFound {
					return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load seller")
				}
				if seller != nil {
					name = seller.DisplayName
				}
				sellerNames[p.sellerID] = name
			}
			summary.SellerName = name
		}
		out[v.ID] = summary
	}
	return out, nil
}
