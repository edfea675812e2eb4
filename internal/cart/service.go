package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vikramshaw/shopora-backend/internal/booking"
	"github.com/vikramshaw/shopora-backend/internal/catalog"
	"github.com/vikramshaw/shopora-backend/internal/stock"
	"github.com/vikramshaw/shopora-backend/pkg/db/models"
	"github.com/vikramshaw/shopora-backend/pkg/enums"
	pkgerrors "github.com/vikramshaw/shopora-backend/pkg/errors"
	"github.com/vikramshaw/shopora-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ReservationScheduler arms an expiry timer for an unconfirmed buy-now or
// placed order.
type ReservationScheduler interface {
	Schedule(bookingID uuid.UUID, at time.Time)
}

// Service manages the draft cart and the transitions that turn it into an
// order: buy-now and place-order.
type Service interface {
	AddToCart(ctx context.Context, input AddToCartInput) (*CartView, error)
	BuyNow(ctx context.Context, input BuyNowInput) (*booking.BookingView, error)
	GetCart(ctx context.Context, userID uuid.UUID) (*CartView, error)
	AddQuantity(ctx context.Context, input QuantityInput) (*CartView, error)
	RemoveQuantity(ctx context.Context, input QuantityInput) (*CartView, error)
	RemoveLine(ctx context.Context, input RemoveLineInput) (*CartView, error)
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*booking.BookingView, error)
}

type service struct {
	repo           booking.Repository
	tx             txRunner
	stock          stock.Service
	catalog        catalog.Service
	bookings       booking.Service
	timers         ReservationScheduler
	reservationTTL time.Duration
	logg           *logger.Logger
	now            func() time.Time
}

// NewService builds the cart service. The scheduler may be nil; expiry then
// relies solely on the cron sweep.
func NewService(
	repo booking.Repository,
	tx txRunner,
	stockSvc stock.Service,
	catalogSvc catalog.Service,
	bookingSvc booking.Service,
	timers ReservationScheduler,
	reservationTTL time.Duration,
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
	if bookingSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "booking service required")
	}
	if reservationTTL <= 0 {
		reservationTTL = 10 * time.Minute
	}
	return &service{
		repo:           repo,
		tx:             tx,
		stock:          stockSvc,
		catalog:        catalogSvc,
		bookings:       bookingSvc,
		timers:         timers,
		reservationTTL: reservationTTL,
		logg:           logg,
		now:            time.Now,
	}, nil
}

// AddToCart puts a variant into the user's draft booking, creating the
// booking if none is open. A variant already in the draft cart is rejected.
func (s *service) AddToCart(ctx context.Context, input AddToCartInput) (*CartView, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.VariantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant id required")
	}

	summary, err := s.catalog.VariantSummary(ctx, input.VariantID)
	if err != nil {
		return nil, err
	}

	// No stock gate here: stock is only authoritative at confirmation, and
	// AddQuantity enforces it on later adjustments.
	qty := input.Quantity
	if qty == 0 {
		qty = summary.MinimumOrderQty
	}
	if qty < summary.MinimumOrderQty {
		return nil, pkgerrors.New(pkgerrors.CodeBelowMinimum, "quantity below the minimum order quantity").
			WithDetails(map[string]any{"minimum_order_qty": summary.MinimumOrderQty})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		draft, err := repo.FindDraftBookingByUser(ctx, input.UserID)
		if err != nil {
			if err != gorm.ErrRecordNotFound {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load draft booking")
			}
			draft, err = repo.CreateBooking(ctx, &models.Booking{
				ID:     uuid.New(),
				UserID: input.UserID,
				Status: enums.BookingStatusDraft,
				Amount: decimal.Zero,
			})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create draft booking")
			}
		}

		if _, err := repo.FindDraftLine(ctx, draft.ID, input.VariantID); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "item already in cart")
		} else if err != gorm.ErrRecordNotFound {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing cart line")
		}

		if _, err := repo.CreateLine(ctx, &models.CartLine{
			ID:        uuid.New(),
			BookingID: draft.ID,
			VariantID: input.VariantID,
			Quantity:  qty,
			Status:    enums.CartLineStatusDraft,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart line")
		}

		return s.refreshAmount(ctx, repo, draft.ID)
	})
	if err != nil {
		return nil, err
	}
	return s.GetCart(ctx, input.UserID)
}

// BuyNow creates a standalone confirmed booking for one variant with a
// reservation window. The order is cancelled automatically unless an address
// is attached before the window lapses.
func (s *service) BuyNow(ctx context.Context, input BuyNowInput) (*booking.BookingView, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.VariantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant id required")
	}

	summary, err := s.catalog.VariantSummary(ctx, input.VariantID)
	if err != nil {
		return nil, err
	}

	qty := input.Quantity
	if qty == 0 {
		qty = summary.MinimumOrderQty
	}
	if err := s.checkQuantity(ctx, summary, qty); err != nil {
		return nil, err
	}

	// The storefront computes the total client-side and sends it along.
	amount := input.Amount
	if amount.IsZero() {
		amount = summary.SellingPrice.Mul(decimal.NewFromInt(int64(qty)))
	}

	expiresAt := s.now().Add(s.reservationTTL)
	var created *models.Booking
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		created, err = repo.CreateBooking(ctx, &models.Booking{
			ID:        uuid.New(),
			UserID:    input.UserID,
			Status:    enums.BookingStatusConfirmed,
			Amount:    amount,
			ExpiresAt: &expiresAt,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create buy-now booking")
		}

		if _, err := repo.CreateLine(ctx, &models.CartLine{
			ID:        uuid.New(),
			BookingID: created.ID,
			VariantID: input.VariantID,
			Quantity:  qty,
			Status:    enums.CartLineStatusConfirmed,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create buy-now line")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.timers != nil {
		s.timers.Schedule(created.ID, expiresAt)
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithBookingID(ctx, created.ID.String()), "buy-now reservation created")
	}
	return s.bookingView(ctx, created)
}

// GetCart returns the user's open draft cart with live stock per line.
func (s *service) GetCart(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	draft, err := s.repo.FindDraftBookingByUser(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return &CartView{Amount: decimal.Zero, Lines: []booking.LineView{}}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load draft booking")
	}

	lines, err := s.repo.FindLinesByBooking(ctx, draft.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart lines")
	}
	views, err := s.bookings.LineViews(ctx, lines, true)
	if err != nil {
		return nil, err
	}
	return &CartView{BookingID: &draft.ID, Amount: draft.Amount, Lines: views}, nil
}

// AddQuantity bumps a draft line by one, bounded by live stock.
func (s *service) AddQuantity(ctx context.Context, input QuantityInput) (*CartView, error) {
	return s.adjustQuantity(ctx, input, +1)
}

// RemoveQuantity drops a draft line by one, bounded by the variant's minimum
// order quantity.
func (s *service) RemoveQuantity(ctx context.Context, input QuantityInput) (*CartView, error) {
	return s.adjustQuantity(ctx, input, -1)
}

func (s *service) adjustQuantity(ctx context.Context, input QuantityInput, delta int) (*CartView, error) {
	if input.LineID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart line id required")
	}

	var userID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		line, err := repo.FindLine(ctx, input.LineID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
		}
		if line.Status != enums.CartLineStatusDraft {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only draft lines can be adjusted")
		}

		bk, err := repo.FindBooking(ctx, line.BookingID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
		}
		if input.UserID != uuid.Nil && bk.UserID != input.UserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "cart line does not belong to user")
		}
		userID = bk.UserID

		summary, err := s.catalog.VariantSummary(ctx, line.VariantID)
		if err != nil {
			return err
		}

		next := line.Quantity + delta
		if delta > 0 {
			available, err := s.stock.Available(ctx, line.VariantID)
			if err != nil {
				return err
			}
			if next > available {
				return pkgerrors.New(pkgerrors.CodeStockExceeded, "requested quantity exceeds available stock").
					WithDetails(map[string]any{"available_qty": available})
			}
		} else if next < summary.MinimumOrderQty {
			return pkgerrors.New(pkgerrors.CodeBelowMinimum, "quantity cannot drop below the minimum order quantity").
				WithDetails(map[string]any{"minimum_order_qty": summary.MinimumOrderQty})
		}

		if err := repo.UpdateLine(ctx, line.ID, map[string]any{"quantity": next}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart line quantity")
		}
		return s.refreshAmount(ctx, repo, line.BookingID)
	})
	if err != nil {
		return nil, err
	}
	return s.GetCart(ctx, userID)
}

// RemoveLine deletes a draft line; an emptied draft booking is removed too.
func (s *service) RemoveLine(ctx context.Context, input RemoveLineInput) (*CartView, error) {
	if input.LineID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart line id required")
	}

	var userID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		line, err := repo.FindLine(ctx, input.LineID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
		}
		if line.Status != enums.CartLineStatusDraft {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only draft lines can be removed")
		}

		bk, err := repo.FindBooking(ctx, line.BookingID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
		}
		if input.UserID != uuid.Nil && bk.UserID != input.UserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "cart line does not belong to user")
		}
		userID = bk.UserID

		if err := repo.DeleteLine(ctx, line.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart line")
		}

		remaining, err := repo.FindLinesByBooking(ctx, line.BookingID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart lines")
		}
		if len(remaining) == 0 {
			if err := repo.DeleteBooking(ctx, line.BookingID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete empty booking")
			}
			return nil
		}
		return s.refreshAmount(ctx, repo, line.BookingID)
	})
	if err != nil {
		return nil, err
	}
	return s.GetCart(ctx, userID)
}

// PlaceOrder promotes the given draft lines to a confirmed order. All lines
// must belong to one booking owned by the caller.
func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*booking.BookingView, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if len(input.LineIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeEmptyCart, "no cart lines to place")
	}

	expiresAt := s.now().Add(s.reservationTTL)
	var placed *models.Booking
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		lines, err := repo.FindLinesByIDs(ctx, input.LineIDs)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart lines")
		}
		if len(lines) != len(input.LineIDs) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "one or more cart lines not found")
		}

		bookingID := lines[0].BookingID
		for _, line := range lines {
			if line.BookingID != bookingID {
				return pkgerrors.New(pkgerrors.CodeInconsistentBooking, "cart lines span multiple bookings")
			}
			if line.Status != enums.CartLineStatusDraft {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "only draft lines can be placed").
					WithDetails(map[string]any{"line_id": line.ID, "status": line.Status})
			}
		}

		bk, err := repo.FindBooking(ctx, bookingID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
		}
		if bk.UserID != input.UserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "booking does not belong to user")
		}

		if err := repo.UpdateLinesStatus(ctx, input.LineIDs, enums.CartLineStatusConfirmed); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm cart lines")
		}
		updates := map[string]any{
			"status":     enums.BookingStatusConfirmed,
			"expires_at": expiresAt,
		}
		if !input.TotalAmount.IsZero() {
			updates["amount"] = input.TotalAmount
		}
		if err := repo.UpdateBooking(ctx, bookingID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm booking")
		}
		if input.TotalAmount.IsZero() {
			if err := s.refreshAmount(ctx, repo, bookingID); err != nil {
				return err
			}
		}

		placed, err = repo.FindBooking(ctx, bookingID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload booking")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.timers != nil {
		s.timers.Schedule(placed.ID, expiresAt)
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithBookingID(ctx, placed.ID.String()), "order placed, awaiting address confirmation")
	}
	return s.bookingView(ctx, placed)
}

func (s *service) checkQuantity(ctx context.Context, summary *catalog.VariantSummary, qty int) error {
	if qty < summary.MinimumOrderQty {
		return pkgerrors.New(pkgerrors.CodeBelowMinimum, "quantity below the minimum order quantity").
			WithDetails(map[string]any{"minimum_order_qty": summary.MinimumOrderQty})
	}
	available, err := s.stock.Available(ctx, summary.VariantID)
	if err != nil {
		return err
	}
	if qty > available {
		return pkgerrors.New(pkgerrors.CodeStockExceeded, "requested quantity exceeds available stock").
			WithDetails(map[string]any{"available_qty": available})
	}
	return nil
}

// refreshAmount recomputes the booking total from its non-cancelled lines.
func (s *service) refreshAmount(ctx context.Context, repo booking.Repository, bookingID uuid.UUID) error {
	lines, err := repo.FindLinesByBooking(ctx, bookingID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart lines")
	}

	variantIDs := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		if line.Status == enums.CartLineStatusCancelled {
			continue
		}
		variantIDs = append(variantIDs, line.VariantID)
	}
	summaries, err := s.catalog.VariantSummaries(ctx, variantIDs)
	if err != nil {
		return err
	}

	amount := decimal.Zero
	for _, line := range lines {
		if line.Status == enums.CartLineStatusCancelled {
			continue
		}
		if summary, ok := summaries[line.VariantID]; ok {
			amount = amount.Add(summary.SellingPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
		}
	}
	return repo.UpdateBooking(ctx, bookingID, map[string]any{"amount": amount})
}

func (s *service) bookingView(ctx context.Context, bk *models.Booking) (*booking.BookingView, error) {
	lines, err := s.repo.FindLinesByBooking(ctx, bk.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart lines")
	}
	views, err := s.bookings.LineViews(ctx, lines, false)
	if err != nil {
		return nil, err
	}
	return &booking.BookingView{
		ID:         bk.ID,
		Status:     bk.Status,
		StatusCode: bk.Status.Code(),
		Amount:     bk.Amount,
		AddressID:  bk.AddressID,
		ExpiresAt:  bk.ExpiresAt,
		CreatedAt:  bk.CreatedAt,
		Lines:      views,
	}, nil
}
