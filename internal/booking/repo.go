package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vikramshaw/shopora-backend/pkg/db/models"
	"github.com/vikramshaw/shopora-backend/pkg/enums"
	"github.com/vikramshaw/shopora-backend/pkg/pagination"
)

// Repository persists bookings and their cart lines. The cart service shares
// this repository since both domains write the same tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateBooking(ctx context.Context, booking *models.Booking) (*models.Booking, error)
	FindBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	FindDraftBookingByUser(ctx context.Context, userID uuid.UUID) (*models.Booking, error)
	UpdateBooking(ctx context.Context, id uuid.UUID, updates map[string]any) error
	DeleteBooking(ctx context.Context, id uuid.UUID) error
	ListBookingsByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Booking, error)
	FindExpiredBookings(ctx context.Context, now time.Time, limit int) ([]models.Booking, error)

	CreateLine(ctx context.Context, line *models.CartLine) (*models.CartLine, error)
	FindLine(ctx context.Context, id uuid.UUID) (*models.CartLine, error)
	FindLinesByBooking(ctx context.Context, bookingID uuid.UUID) ([]models.CartLine, error)
	FindLinesByIDs(ctx context.Context, ids []uuid.UUID) ([]models.CartLine, error)
	FindDraftLine(ctx context.Context, bookingID, variantID uuid.UUID) (*models.CartLine, error)
	UpdateLine(ctx context.Context, id uuid.UUID, updates map[string]any) error
	UpdateLinesStatus(ctx context.Context, ids []uuid.UUID, status enums.CartLineStatus) error
	DeleteLine(ctx context.Context, id uuid.UUID) error
	DeleteLinesByBooking(ctx context.Context, bookingID uuid.UUID) error

	FindAddressForUser(ctx context.Context, addressID, userID uuid.UUID) (*models.Address, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a booking repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateBooking(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	if err := r.db.WithContext(ctx).Create(booking).Error; err != nil {
		return nil, err
	}
	return booking, nil
}

func (r *repository) FindBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *repository) FindDraftBookingByUser(ctx context.Context, userID uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, enums.BookingStatusDraft).
		Order("created_at ASC").
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *repository) UpdateBooking(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) DeleteBooking(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Booking{}).Error
}

func (r *repository) ListBookingsByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Booking, error) {
	query := r.db.WithContext(ctx).
		Preload("Lines").
		Where("user_id = ? AND status <> ?", userID, enums.BookingStatusDraft)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var bookings []models.Booking
	err = query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// FindExpiredBookings returns buy-now bookings whose reservation window has
// lapsed without an address being attached.
func (r *repository) FindExpiredBookings(ctx context.Context, now time.Time, limit int) ([]models.Booking, error) {
	query := r.db.WithContext(ctx).
		Where("address_id IS NULL").
		Where("expires_at IS NOT NULL AND expires_at <= ?", now).
		Where("status IN ?", []enums.BookingStatus{enums.BookingStatusDraft, enums.BookingStatusConfirmed}).
		Order("expires_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var bookings []models.Booking
	if err := query.Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *repository) CreateLine(ctx context.Context, line *models.CartLine) (*models.CartLine, error) {
	if err := r.db.WithContext(ctx).Create(line).Error; err != nil {
		return nil, err
	}
	return line, nil
}

func (r *repository) FindLine(ctx context.Context, id uuid.UUID) (*models.CartLine, error) {
	var line models.CartLine
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&line).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *repository) FindLinesByBooking(ctx context.Context, bookingID uuid.UUID) ([]models.CartLine, error) {
	var lines []models.CartLine
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at ASC").
		Find(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *repository) FindLinesByIDs(ctx context.Context, ids []uuid.UUID) ([]models.CartLine, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var lines []models.CartLine
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *repository) FindDraftLine(ctx context.Context, bookingID, variantID uuid.UUID) (*models.CartLine, error) {
	var line models.CartLine
	err := r.db.WithContext(ctx).
		Where("booking_id = ? AND variant_id = ? AND status = ?", bookingID, variantID, enums.CartLineStatusDraft).
		First(&line).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *repository) UpdateLine(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.CartLine{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) UpdateLinesStatus(ctx context.Context, ids []uuid.UUID, status enums.CartLineStatus) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.CartLine{}).
		Where("id IN ?", ids).
		Update("status", status).Error
}

func (r *repository) DeleteLine(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.CartLine{}).Error
}

func (r *repository) DeleteLinesByBooking(ctx context.Context, bookingID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Delete(&models.CartLine{}).Error
}

func (r *repository) FindAddressForUser(ctx context.Context, addressID, userID uuid.UUID) (*models.Address, error) {
	var address models.Address
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", addressID, userID).
		First(&address).Error
	if err != nil {
		return nil, err
	}
	return &address, nil
}
