package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/vikramshaw/shopora-backend/internal/catalog"
	"github.com/vikramshaw/shopora-backend/internal/media"
	"github.com/vikramshaw/shopora-backend/internal/stock"
	"github.com/vikramshaw/shopora-backend/pkg/db/models"
	"github.com/vikramshaw/shopora-backend/pkg/enums"
	pkgerrors "github.com/vikramshaw/shopora-backend/pkg/errors"
	"github.com/vikramshaw/shopora-backend/pkg/logger"
	"github.com/vikramshaw/shopora-backend/pkg/metrics"
	"github.com/vikramshaw/shopora-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ReservationCanceler stops a pending expiry timer once an order is confirmed
// or cancelled ahead of its window.
type ReservationCanceler interface {
	Cancel(bookingID uuid.UUID)
}

// Service drives the booking lifecycle: confirmation, fulfillment status
// advancement, line cancellation, order history, and reservation expiry.
type Service interface {
	ConfirmOrder(ctx context.Context, input ConfirmOrderInput) (*BookingView, error)
	AdvanceStatus(ctx context.Context, input AdvanceStatusInput) (*BookingView, error)
	CancelLine(ctx context.Context, input CancelLineInput) (*BookingView, error)
	ListBookings(ctx context.Context, userID uuid.UUID, params pagination.Params) (*BookingList, error)
	ExpireBooking(ctx context.Context, bookingID uuid.UUID) (bool, error)
	ExpireDue(ctx context.Context, now time.Time, limit int) (int, error)
	LineViews(ctx context.Context, lines []models.CartLine, withStock bool) ([]LineView, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	stock    stock.Service
	catalog  catalog.Service
	media    media.Service
	timers   ReservationCanceler
	metrics  *metrics.CheckoutMetrics
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds the booking service with its required dependencies.
// The canceler and metrics may be nil.
func NewService(
	repo Repository,
	tx txRunner,
	stockSvc stock.Service,
	catalogSvc catalog.Service,
	mediaSvc media.Service,
	timers ReservationCanceler,
	checkoutMetrics *metrics.CheckoutMetrics,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "booking repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if stockSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stock service required")
	}
	if catalogSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "catalog service required")
	}
	if mediaSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "media service required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		stock:   stockSvc,
		catalog: catalogSvc,
		media:   mediaSvc,
		timers:  timers,
		metrics: checkoutMetrics,
		logg:    logg,
		now:     time.Now,
	}, nil
}

// ConfirmOrder attaches a delivery address, reserves stock for every active
// line, and marks the booking confirmed. Any stock shortfall rolls the entire
// confirmation back.
func (s *service) ConfirmOrder(ctx context.Context, input ConfirmOrderInput) (*BookingView, error) {
	if input.BookingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking id required")
	}
	if input.AddressID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address id required")
	}
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var confirmed *models.Booking
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		booking, err := repo.FindBooking(ctx, input.BookingID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
		}
		if booking.UserID != input.UserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "booking does not belong to user")
		}
		if booking.AddressID != nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order already confirmed")
		}
		if booking.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "booking is no longer open")
		}

		if _, err := repo.FindAddressForUser(ctx, input.AddressID, input.UserID); err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
		}

		lines, err := repo.FindLinesByBooking(ctx, booking.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart lines")
		}
		active := activeLines(lines)
		if len(active) == 0 {
			return pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
		}

		for _, line := range active {
			if err := s.stock.Reserve(ctx, tx, line.VariantID, line.Quantity); err != nil {
				return err
			}
		}

		amount, err := s.linesAmount(ctx, active)
		if err != nil {
			return err
		}

		lineIDs := make([]uuid.UUID, 0, len(active))
		for _, line := range active {
			lineIDs = append(lineIDs, line.ID)
		}
		if err := repo.UpdateLinesStatus(ctx, lineIDs, enums.CartLineStatusConfirmed); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm cart lines")
		}

		addressID := input.AddressID
		if err := repo.UpdateBooking(ctx, booking.ID, map[string]any{
			"address_id": addressID,
			"status":     enums.BookingStatusConfirmed,
			"amount":     amount,
			"expires_at": nil,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm booking")
		}

		booking.AddressID = &addressID
		booking.Status = enums.BookingStatusConfirmed
		booking.Amount = amount
		booking.ExpiresAt = nil
		confirmed = booking
		return nil
	})
	if err != nil {
		s.recordConfirmOutcome(err)
		return nil, err
	}
	s.recordConfirmOutcome(nil)

	if s.timers != nil {
		s.timers.Cancel(confirmed.ID)
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithBookingID(ctx, confirmed.ID.String()), "order confirmed")
	}
	return s.bookingView(ctx, confirmed, false)
}

// AdvanceStatus moves one line forward in the fulfillment pipeline. The
// booking follows once every active line has reached the same status.
func (s *service) AdvanceStatus(ctx context.Context, input AdvanceStatusInput) (*BookingView, error) {
	if input.LineID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart line id required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status")
	}
	if input.Status == enums.CartLineStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "use the cancel operation to cancel a line")
	}

	var updated *models.Booking
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		line, err := repo.FindLine(ctx, input.LineID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
		}
		if input.BookingID != uuid.Nil && line.BookingID != input.BookingID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart line does not belong to booking")
		}

		booking, err := repo.FindBooking(ctx, line.BookingID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
		}
		if input.UserID != uuid.Nil && booking.UserID != input.UserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "booking does not belong to user")
		}

		if line.Status == input.Status {
			updated = booking
			return nil
		}
		if !line.Status.CanAdvanceTo(input.Status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "status cannot move backwards").
				WithDetails(map[string]any{"from": line.Status, "to": input.Status})
		}

		if err := repo.UpdateLine(ctx, line.ID, map[string]any{"status": input.Status}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update line status")
		}

		lines, err := repo.FindLinesByBooking(ctx, booking.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart lines")
		}
		if allActiveLinesAt(lines, input.Status) {
			if err := repo.UpdateBooking(ctx, booking.ID, map[string]any{
				"status": input.Status.BookingStatus(),
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "advance booking status")
			}
			booking.Status = input.Status.BookingStatus()
		}
		updated = booking
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.bookingView(ctx, updated, false)
}

// CancelLine cancels one confirmed line, returning its stock when the order
// had already reserved it. The booking is cancelled once every line is.
func (s *service) CancelLine(ctx context.Context, input CancelLineInput) (*BookingView, error) {
	if input.LineID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart line id required")
	}

	var updated *models.Booking
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		line, err := repo.FindLine(ctx, input.LineID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
		}
		if input.BookingID != uuid.Nil && line.BookingID != input.BookingID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart line does not belong to booking")
		}

		booking, err := repo.FindBooking(ctx, line.BookingID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
		}
		if input.UserID != uuid.Nil && booking.UserID != input.UserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "booking does not belong to user")
		}

		if line.Status != enums.CartLineStatusConfirmed {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only confirmed lines can be cancelled").
				WithDetails(map[string]any{"status": line.Status})
		}

		if err := repo.UpdateLine(ctx, line.ID, map[string]any{"status": enums.CartLineStatusCancelled}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel cart line")
		}

		// Stock was only taken when the order was confirmed with an address.
		if booking.AddressID != nil {
			if err := s.stock.Release(ctx, tx, line.VariantID, line.Quantity); err != nil {
				return err
			}
		}

		lines, err := repo.FindLinesByBooking(ctx, booking.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart lines")
		}

		updates := map[string]any{}
		active := activeLines(lines)
		amount, err := s.linesAmount(ctx, active)
		if err != nil {
			return err
		}
		updates["amount"] = amount
		if len(active) == 0 {
			updates["status"] = enums.BookingStatusCancelled
			updates["expires_at"] = nil
			booking.Status = enums.BookingStatusCancelled
			booking.ExpiresAt = nil
		}
		if err := repo.UpdateBooking(ctx, booking.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update booking after cancel")
		}
		booking.Amount = amount
		updated = booking
		return nil
	})
	if err != nil {
		return nil, err
	}

	if updated.Status == enums.BookingStatusCancelled && s.timers != nil {
		s.timers.Cancel(updated.ID)
	}
	return s.bookingView(ctx, updated, false)
}

// ListBookings returns the user's order history, newest first.
func (s *service) ListBookings(ctx context.Context, userID uuid.UUID, params pagination.Params) (*BookingList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	bookings, err := s.repo.ListBookingsByUser(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bookings")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	nextCursor := ""
	if len(bookings) > limit {
		bookings = bookings[:limit]
		last := bookings[len(bookings)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}

	views := make([]BookingView, 0, len(bookings))
	for i := range bookings {
		view, err := s.bookingViewWithLines(ctx, &bookings[i], bookings[i].Lines, false)
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return &BookingList{Bookings: views, NextCursor: nextCursor}, nil
}

// ExpireBooking removes one buy-now booking whose reservation window lapsed
// without confirmation, deleting the booking and its cart lines. Stock is
// untouched since pending reservations never decrement it. Returns false when
// the booking was already confirmed, removed, or not yet due.
func (s *service) ExpireBooking(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	expired := false
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		booking, err := repo.FindBooking(ctx, bookingID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
		}
		if !expiryEligible(booking, s.now()) {
			return nil
		}

		if err := repo.DeleteLinesByBooking(ctx, booking.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart lines")
		}
		if err := repo.DeleteBooking(ctx, booking.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete booking")
		}
		expired = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if expired {
		s.metrics.IncExpired()
		if s.logg != nil {
			s.logg.Info(s.logg.WithBookingID(ctx, bookingID.String()), "reservation expired, booking deleted")
		}
	}
	return expired, nil
}

// ExpireDue sweeps every overdue reservation. Used by the cron worker as a
// durable backstop for in-process timers lost on restart. One failing booking
// does not stall the sweep; errors are collected and returned together.
func (s *service) ExpireDue(ctx context.Context, now time.Time, limit int) (int, error) {
	due, err := s.repo.FindExpiredBookings(ctx, now, limit)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find expired bookings")
	}

	count := 0
	var errs error
	for _, booking := range due {
		expired, err := s.ExpireBooking(ctx, booking.ID)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if expired {
			count++
		}
	}
	return count, errs
}

func (s *service) recordConfirmOutcome(err error) {
	if err == nil {
		s.metrics.IncConfirmation("confirmed")
		return
	}
	if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeInsufficientStock {
		s.metrics.IncConfirmation("insufficient_stock")
		s.metrics.IncStockRejection()
		return
	}
	s.metrics.IncConfirmation("error")
}

func (s *service) linesAmount(ctx context.Context, lines []models.CartLine) (decimal.Decimal, error) {
	variantIDs := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		variantIDs = append(variantIDs, line.VariantID)
	}
	summaries, err := s.catalog.VariantSummaries(ctx, variantIDs)
	if err != nil {
		return decimal.Zero, err
	}
	amount := decimal.Zero
	for _, line := range lines {
		summary, ok := summaries[line.VariantID]
		if !ok {
			return decimal.Zero, pkgerrors.New(pkgerrors.CodeNotFound, "product variant not found").
				WithDetails(map[string]any{"variant_id": line.VariantID})
		}
		amount = amount.Add(summary.SellingPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return amount, nil
}

func (s *service) bookingView(ctx context.Context, booking *models.Booking, withStock bool) (*BookingView, error) {
	lines, err := s.repo.FindLinesByBooking(ctx, booking.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart lines")
	}
	return s.bookingViewWithLines(ctx, booking, lines, withStock)
}

func (s *service) bookingViewWithLines(ctx context.Context, booking *models.Booking, lines []models.CartLine, withStock bool) (*BookingView, error) {
	lineViews, err := s.LineViews(ctx, lines, withStock)
	if err != nil {
		return nil, err
	}
	return &BookingView{
		ID:         booking.ID,
		Status:     booking.Status,
		StatusCode: booking.Status.Code(),
		Amount:     booking.Amount,
		AddressID:  booking.AddressID,
		ExpiresAt:  booking.ExpiresAt,
		CreatedAt:  booking.CreatedAt,
		Lines:      lineViews,
	}, nil
}

// LineViews enriches raw cart lines with catalog, image, and optionally live
// stock data. Shared with the cart service.
func (s *service) LineViews(ctx context.Context, lines []models.CartLine, withStock bool) ([]LineView, error) {
	variantIDs := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		variantIDs = append(variantIDs, line.VariantID)
	}

	summaries, err := s.catalog.VariantSummaries(ctx, variantIDs)
	if err != nil {
		return nil, err
	}
	images, err := s.media.PrimaryImageKeys(ctx, variantIDs)
	if err != nil {
		return nil, err
	}

	views := make([]LineView, 0, len(lines))
	for _, line := range lines {
		view := LineView{
			ID:         line.ID,
			VariantID:  line.VariantID,
			Quantity:   line.Quantity,
			Status:     line.Status,
			StatusCode: line.Status.Code(),
			ImageKey:   images[line.VariantID],
		}
		if summary, ok := summaries[line.VariantID]; ok {
			view.Title = summary.Title
			view.ProductTitle = summary.ProductTitle
			view.SellerName = summary.SellerName
			view.SellingPrice = summary.SellingPrice
			view.MRP = summary.MRP
			view.LineTotal = summary.SellingPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		}
		if withStock {
			qty, err := s.stock.Available(ctx, line.VariantID)
			if err == nil {
				view.AvailableQty = qty
			}
		}
		views = append(views, view)
	}
	return views, nil
}

func activeLines(lines []models.CartLine) []models.CartLine {
	active := make([]models.CartLine, 0, len(lines))
	for _, line := range lines {
		if line.Status != enums.CartLineStatusCancelled {
			active = append(active, line)
		}
	}
	return active
}

func allActiveLinesAt(lines []models.CartLine, status enums.CartLineStatus) bool {
	seen := false
	for _, line := range lines {
		if line.Status == enums.CartLineStatusCancelled {
			continue
		}
		seen = true
		if line.Status != status {
			return false
		}
	}
	return seen
}

func expiryEligible(booking *models.Booking, now time.Time) bool {
	if booking.AddressID != nil {
		return false
	}
	if booking.ExpiresAt == nil || booking.ExpiresAt.After(now) {
		return false
	}
	switch booking.Status {
	case enums.BookingStatusDraft, enums.BookingStatusConfirmed:
		return true
	default:
		return false
	}
}
