package media

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/vikramshaw/shopora-backend/pkg/errors"
)

// Service resolves display images for variants.
type Service interface {
	PrimaryImageKey(ctx context.Context, variantID uuid.UUID) (string, error)
	PrimaryImageKeys(ctx context.Context, variantIDs []uuid.UUID) (map[uuid.UUID]string, error)
}

type service struct {
	repo Repository
}

// NewService builds the media lookup service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "media repository required")
	}
	return &service{repo: repo}, nil
}

// PrimaryImageKey returns the object key of the lowest-position image, or an
// empty string when the variant has no images.
func (s *service) PrimaryImageKey(ctx context.Context, variantID uuid.UUID) (string, error) {
	image, err := s.repo.FindPrimaryImage(ctx, variantID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", nil
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load primary image")
	}
	return image.ObjectKey, nil
}

func (s *service) PrimaryImageKeys(ctx context.Context, variantIDs []uuid.UUID) (map[uuid.UUID]string, error) {
	images, err := s.repo.FindPrimaryImages(ctx, variantIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load primary images")
	}
	out := make(map[uuid.UUID]string, len(variantIDs))
	for _, image := range images {
		if _, ok := out[image.VariantID]; ok {
			continue
		}
		out[image.VariantID] = image.ObjectKey
	}
	return out, nil
}
