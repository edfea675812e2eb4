package views

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vikramshaw/shopora-backend/pkg/db/models"
)

// Repository persists product view events.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a view repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// RecordView inserts one view event.
func (r *Repository) RecordView(ctx context.Context, userID, variantID uuid.UUID, viewedAt time.Time) error {
	event := models.ViewEvent{
		UserID:    userID,
		VariantID: variantID,
		ViewedAt:  viewedAt,
	}
	return r.db.WithContext(ctx).Create(&event).Error
}

// RecentView is one distinct recently viewed variant.
type RecentView struct {
	VariantID uuid.UUID `gorm:"column:variant_id"`
	ViewedAt  time.Time `gorm:"column:viewed_at"`
}

// RecentViews returns the user's most recently viewed variants, one row per
// variant, newest first.
func (r *Repository) RecentViews(ctx context.Context, userID uuid.UUID, limit int) ([]RecentView, error) {
	var rows []RecentView
	err := r.db.WithContext(ctx).
		Model(&models.ViewEvent{}).
		Select("variant_id", "MAX(viewed_at) AS viewed_at").
		Where("user_id = ?", userID).
		Group("variant_id").
		Order("viewed_at DESC").
		Limit(limit).
		Scan(&rows).
		Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
