package media

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vikramshaw/shopora-backend/pkg/db/models"
)

// Repository reads gallery images for catalog variants.
type Repository interface {
	FindPrimaryImage(ctx context.Context, variantID uuid.UUID) (*models.GalleryImage, error)
	FindPrimaryImages(ctx context.Context, variantIDs []uuid.UUID) ([]models.GalleryImage, error)
	ListImages(ctx context.Context, variantID uuid.UUID) ([]models.GalleryImage, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a media repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindPrimaryImage(ctx context.Context, variantID uuid.UUID) (*models.GalleryImage, error) {
	var image models.GalleryImage
	err := r.db.WithContext(ctx).
		Where("variant_id = ?", variantID).
		Order("position ASC").
		First(&image).Error
	if err != nil {
		return nil, err
	}
	return &image, nil
}

func (r *repository) FindPrimaryImages(ctx context.Context, variantIDs []uuid.UUID) ([]models.GalleryImage, error) {
	if len(variantIDs) == 0 {
		return nil, nil
	}
	var images []models.GalleryImage
	err := r.db.WithContext(ctx).
		Where("variant_id IN ?", variantIDs).
		Order("variant_id, position ASC").
		Find(&images).Error
	if err != nil {
		return nil, err
	}
	return images, nil
}

func (r *repository) ListImages(ctx context.Context, variantID uuid.UUID) ([]models.GalleryImage, error) {
	var images []models.GalleryImage
	err := r.db.WithContext(ctx).
		Where("variant_id = ?", variantID).
		Order("position ASC").
		Find(&images).Error
	if err != nil {
		return nil, err
	}
	return images, nil
}
