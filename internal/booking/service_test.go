package booking

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vikramshaw/shopora-backend/internal/catalog"
	"github.com/vikramshaw/shopora-backend/internal/media"
	"github.com/vikramshaw/shopora-backend/internal/stock"
	"github.com/vikramshaw/shopora-backend/pkg/db/models"
	"github.com/vikramshaw/shopora-backend/pkg/enums"
	pkgerrors "github.com/vikramshaw/shopora-backend/pkg/errors"
	"github.com/vikramshaw/shopora-backend/pkg/pagination"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type fixture struct {
	db  *gorm.DB
	svc Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := "file:booking_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Address{},
		&models.Seller{}, &models.Product{}, &models.ProductVariant{},
		&models.GalleryImage{}, &models.StockRecord{},
		&models.Booking{}, &models.CartLine{},
	))

	stockSvc, err := stock.NewService(stock.NewRepository(db))
	require.NoError(t, err)
	catalogSvc, err := catalog.NewService(catalog.NewRepository(db))
	require.NoError(t, err)
	mediaSvc, err := media.NewService(media.NewRepository(db))
	require.NoError(t, err)

	svc, err := NewService(NewRepository(db), gormTxRunner{db: db}, stockSvc, catalogSvc, mediaSvc, nil, nil, nil)
	require.NoError(t, err)
	return &fixture{db: db, svc: svc}
}

func (f *fixture) seedUser(t *testing.T) (uuid.UUID, uuid.UUID) {
	t.Helper()
	user := models.User{ID: uuid.New(), Name: "Ravi", Email: uuid.NewString() + "@example.com"}
	require.NoError(t, f.db.Create(&user).Error)
	address := models.Address{
		ID: uuid.New(), UserID: user.ID,
		FullName: "Ravi Kumar", Mobile: "9999999999",
		Line: "12 MG Road", City: "Pune", Pincode: "411001",
		AddressType: enums.AddressTypeHome,
	}
	require.NoError(t, f.db.Create(&address).Error)
	return user.ID, address.ID
}

func (f *fixture) seedVariant(t *testing.T, price int64, moq, stockQty int) uuid.UUID {
	t.Helper()
	seller := models.Seller{ID: uuid.New(), DisplayName: "Acme Traders"}
	require.NoError(t, f.db.Create(&seller).Error)
	product := models.Product{ID: uuid.New(), SellerID: seller.ID, Title: "Steel Bottle"}
	require.NoError(t, f.db.Create(&product).Error)
	variant := models.ProductVariant{
		ID: uuid.New(), ProductID: product.ID, Title: "Steel Bottle 1L",
		SellingPrice: decimal.NewFromInt(price), MRP: decimal.NewFromInt(price + 100),
		MinimumOrderQty: moq,
	}
	require.NoError(t, f.db.Create(&variant).Error)
	require.NoError(t, f.db.Create(&models.StockRecord{VariantID: variant.ID, AvailableQty: stockQty}).Error)
	return variant.ID
}

func (f *fixture) seedBooking(t *testing.T, userID uuid.UUID, status enums.BookingStatus, expiresAt *time.Time) uuid.UUID {
	t.Helper()
	booking := models.Booking{
		ID: uuid.New(), UserID: userID, Status: status,
		Amount: decimal.Zero, ExpiresAt: expiresAt,
	}
	require.NoError(t, f.db.Create(&booking).Error)
	return booking.ID
}

func (f *fixture) seedLine(t *testing.T, bookingID, variantID uuid.UUID, qty int, status enums.CartLineStatus) uuid.UUID {
	t.Helper()
	line := models.CartLine{
		ID: uuid.New(), BookingID: bookingID, VariantID: variantID,
		Quantity: qty, Status: status,
	}
	require.NoError(t, f.db.Create(&line).Error)
	return line.ID
}

func (f *fixture) stockQty(t *testing.T, variantID uuid.UUID) int {
	t.Helper()
	var record models.StockRecord
	require.NoError(t, f.db.First(&record, "variant_id = ?", variantID).Error)
	return record.AvailableQty
}

func (f *fixture) booking(t *testing.T, id uuid.UUID) models.Booking {
	t.Helper()
	var booking models.Booking
	require.NoError(t, f.db.First(&booking, "id = ?", id).Error)
	return booking
}

func (f *fixture) line(t *testing.T, id uuid.UUID) models.CartLine {
	t.Helper()
	var line models.CartLine
	require.NoError(t, f.db.First(&line, "id = ?", id).Error)
	return line
}

func (f *fixture) bookingGone(t *testing.T, id uuid.UUID) bool {
	t.Helper()
	err := f.db.First(&models.Booking{}, "id = ?", id).Error
	if err == nil {
		return false
	}
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	return true
}

func (f *fixture) lineGone(t *testing.T, id uuid.UUID) bool {
	t.Helper()
	err := f.db.First(&models.CartLine{}, "id = ?", id).Error
	if err == nil {
		return false
	}
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	return true
}

func errCode(t *testing.T, err error) pkgerrors.Code {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected a typed error, got %v", err)
	return typed.Code()
}

func TestConfirmOrderHappyPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID, addressID := f.seedUser(t)
	variantID := f.seedVariant(t, 500, 1, 10)

	expiresAt := time.Now().Add(10 * time.Minute)
	bookingID := f.seedBooking(t, userID, enums.BookingStatusConfirmed, &expiresAt)
	lineID := f.seedLine(t, bookingID, variantID, 3, enums.CartLineStatusConfirmed)

	view, err := f.svc.ConfirmOrder(ctx, ConfirmOrderInput{
		UserID: userID, BookingID: bookingID, AddressID: addressID,
	})
	require.NoError(t, err)

	assert.Equal(t, enums.BookingStatusConfirmed, view.Status)
	assert.Equal(t, float64(1), view.StatusCode)
	require.NotNil(t, view.AddressID)
	assert.Equal(t, addressID, *view.AddressID)
	assert.Nil(t, view.ExpiresAt)
	assert.True(t, view.Amount.Equal(decimal.NewFromInt(1500)))

	assert.Equal(t, 7, f.stockQty(t, variantID))
	assert.Equal(t, enums.CartLineStatusConfirmed, f.line(t, lineID).Status)
}

func TestConfirmOrderEmptyCart(t *testing.T) {
	f := newFixture(t)
	userID, addressID := f.seedUser(t)
	bookingID := f.seedBooking(t, userID, enums.BookingStatusDraft, nil)

	_, err := f.svc.ConfirmOrder(context.Background(), ConfirmOrderInput{
		UserID: userID, BookingID: bookingID, AddressID: addressID,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeEmptyCart, errCode(t, err))
}

func TestConfirmOrderInsufficientStockRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID, addressID := f.seedUser(t)
	plenty := f.seedVariant(t, 100, 1, 10)
	scarce := f.seedVariant(t, 200, 1, 1)

	bookingID := f.seedBooking(t, userID, enums.BookingStatusDraft, nil)
	f.seedLine(t, bookingID, plenty, 2, enums.CartLineStatusDraft)
	scarceLine := f.seedLine(t, bookingID, scarce, 5, enums.CartLineStatusDraft)

	_, err := f.svc.ConfirmOrder(ctx, ConfirmOrderInput{
		UserID: userID, BookingID: bookingID, AddressID: addressID,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, errCode(t, err))

	// The whole confirmation rolls back, including the decrement that
	// succeeded before the shortfall.
	assert.Equal(t, 10, f.stockQty(t, plenty))
	assert.Equal(t, 1, f.stockQty(t, scarce))
	assert.Equal(t, enums.BookingStatusDraft, f.booking(t, bookingID).Status)
	assert.Nil(t, f.booking(t, bookingID).AddressID)
	assert.Equal(t, enums.CartLineStatusDraft, f.line(t, scarceLine).Status)
}

func TestConfirmOrderGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID, addressID := f.seedUser(t)
	otherUser, _ := f.seedUser(t)
	variantID := f.seedVariant(t, 100, 1, 10)

	bookingID := f.seedBooking(t, userID, enums.BookingStatusDraft, nil)
	f.seedLine(t, bookingID, variantID, 1, enums.CartLineStatusDraft)

	t.Run("wrong user", func(t *testing.T) {
		_, err := f.svc.ConfirmOrder(ctx, ConfirmOrderInput{
			UserID: otherUser, BookingID: bookingID, AddressID: addressID,
		})
		require.Error(t, err)
		assert.Equal(t, pkgerrors.CodeForbidden, errCode(t, err))
	})

	t.Run("unknown booking", func(t *testing.T) {
		_, err := f.svc.ConfirmOrder(ctx, ConfirmOrderInput{
			UserID: userID, BookingID: uuid.New(), AddressID: addressID,
		})
		require.Error(t, err)
		assert.Equal(t, pkgerrors.CodeNotFound, errCode(t, err))
	})

	t.Run("unknown address", func(t *testing.T) {
		_, err := f.svc.ConfirmOrder(ctx, ConfirmOrderInput{
			UserID: userID, BookingID: bookingID, AddressID: uuid.New(),
		})
		require.Error(t, err)
		assert.Equal(t, pkgerrors.CodeNotFound, errCode(t, err))
	})

	t.Run("already confirmed", func(t *testing.T) {
		_, err := f.svc.ConfirmOrder(ctx, ConfirmOrderInput{
			UserID: userID, BookingID: bookingID, AddressID: addressID,
		})
		require.NoError(t, err)

		_, err = f.svc.ConfirmOrder(ctx, ConfirmOrderInput{
			UserID: userID, BookingID: bookingID, AddressID: addressID,
		})
		require.Error(t, err)
		assert.Equal(t, pkgerrors.CodeStateConflict, errCode(t, err))
	})
}

func TestAdvanceStatusBookingFollowsLines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID, _ := f.seedUser(t)
	variantID := f.seedVariant(t, 100, 1, 10)

	bookingID := f.seedBooking(t, userID, enums.BookingStatusConfirmed, nil)
	first := f.seedLine(t, bookingID, variantID, 1, enums.CartLineStatusConfirmed)
	second := f.seedLine(t, bookingID, variantID, 2, enums.CartLineStatusConfirmed)

	view, err := f.svc.AdvanceStatus(ctx, AdvanceStatusInput{
		UserID: userID, LineID: first, Status: enums.CartLineStatusPacked,
	})
	require.NoError(t, err)
	// Second line still confirmed, booking must not follow yet.
	assert.Equal(t, enums.BookingStatusConfirmed, view.Status)

	view, err = f.svc.AdvanceStatus(ctx, AdvanceStatusInput{
		UserID: userID, LineID: second, Status: enums.CartLineStatusPacked,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.BookingStatusPacked, view.Status)
	assert.Equal(t, 2.5, view.StatusCode)
}

func TestAdvanceStatusRejectsBackwards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID, _ := f.seedUser(t)
	variantID := f.seedVariant(t, 100, 1, 10)

	bookingID := f.seedBooking(t, userID, enums.BookingStatusShipped, nil)
	lineID := f.seedLine(t, bookingID, variantID, 1, enums.CartLineStatusShipped)

	_, err := f.svc.AdvanceStatus(ctx, AdvanceStatusInput{
		UserID: userID, LineID: lineID, Status: enums.CartLineStatusPacked,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, errCode(t, err))
}

func TestAdvanceStatusRejectsCancelTarget(t *testing.T) {
	f := newFixture(t)
	userID, _ := f.seedUser(t)
	variantID := f.seedVariant(t, 100, 1, 10)
	bookingID := f.seedBooking(t, userID, enums.BookingStatusConfirmed, nil)
	lineID := f.seedLine(t, bookingID, variantID, 1, enums.CartLineStatusConfirmed)

	_, err := f.svc.AdvanceStatus(context.Background(), AdvanceStatusInput{
		UserID: userID, LineID: lineID, Status: enums.CartLineStatusCancelled,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, errCode(t, err))
}

func TestCancelLineReleasesStockAndCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID, addressID := f.seedUser(t)
	variantID := f.seedVariant(t, 100, 1, 10)

	bookingID := f.seedBooking(t, userID, enums.BookingStatusDraft, nil)
	first := f.seedLine(t, bookingID, variantID, 2, enums.CartLineStatusDraft)
	second := f.seedLine(t, bookingID, variantID, 3, enums.CartLineStatusDraft)

	_, err := f.svc.ConfirmOrder(ctx, ConfirmOrderInput{
		UserID: userID, BookingID: bookingID, AddressID: addressID,
	})
	require.NoError(t, err)
	require.Equal(t, 5, f.stockQty(t, variantID))

	view, err := f.svc.CancelLine(ctx, CancelLineInput{UserID: userID, LineID: first})
	require.NoError(t, err)
	assert.Equal(t, 7, f.stockQty(t, variantID))
	assert.Equal(t, enums.BookingStatusConfirmed, view.Status)
	assert.True(t, view.Amount.Equal(decimal.NewFromInt(300)))

	view, err = f.svc.CancelLine(ctx, CancelLineInput{UserID: userID, LineID: second})
	require.NoError(t, err)
	assert.Equal(t, 10, f.stockQty(t, variantID))
	assert.Equal(t, enums.BookingStatusCancelled, view.Status)
	assert.Equal(t, float64(-1), view.StatusCode)
}

func TestCancelLineOnlyFromConfirmed(t *testing.T) {
	f := newFixture(t)
	userID, _ := f.seedUser(t)
	variantID := f.seedVariant(t, 100, 1, 10)
	bookingID := f.seedBooking(t, userID, enums.BookingStatusDraft, nil)
	lineID := f.seedLine(t, bookingID, variantID, 1, enums.CartLineStatusDraft)

	_, err := f.svc.CancelLine(context.Background(), CancelLineInput{UserID: userID, LineID: lineID})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, errCode(t, err))
}

func TestExpireBookingDeletesOverdueReservation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID, _ := f.seedUser(t)
	variantID := f.seedVariant(t, 100, 1, 10)

	past := time.Now().Add(-time.Minute)
	bookingID := f.seedBooking(t, userID, enums.BookingStatusConfirmed, &past)
	lineID := f.seedLine(t, bookingID, variantID, 1, enums.CartLineStatusConfirmed)

	expired, err := f.svc.ExpireBooking(ctx, bookingID)
	require.NoError(t, err)
	assert.True(t, expired)
	// The booking and its lines are removed outright, not flagged.
	assert.True(t, f.bookingGone(t, bookingID))
	assert.True(t, f.lineGone(t, lineID))
	// Stock was never reserved, so none is returned.
	assert.Equal(t, 10, f.stockQty(t, variantID))
}

func TestExpireBookingSkipsConfirmedWithAddress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID, addressID := f.seedUser(t)
	variantID := f.seedVariant(t, 100, 1, 10)

	past := time.Now().Add(-time.Minute)
	bookingID := f.seedBooking(t, userID, enums.BookingStatusConfirmed, &past)
	f.seedLine(t, bookingID, variantID, 1, enums.CartLineStatusConfirmed)

	_, err := f.svc.ConfirmOrder(ctx, ConfirmOrderInput{
		UserID: userID, BookingID: bookingID, AddressID: addressID,
	})
	require.NoError(t, err)

	expired, err := f.svc.ExpireBooking(ctx, bookingID)
	require.NoError(t, err)
	assert.False(t, expired)
	assert.Equal(t, enums.BookingStatusConfirmed, f.booking(t, bookingID).Status)
}

func TestExpireBookingSkipsFutureWindow(t *testing.T) {
	f := newFixture(t)
	userID, _ := f.seedUser(t)
	future := time.Now().Add(time.Hour)
	bookingID := f.seedBooking(t, userID, enums.BookingStatusConfirmed, &future)

	expired, err := f.svc.ExpireBooking(context.Background(), bookingID)
	require.NoError(t, err)
	assert.False(t, expired)
}

func TestExpireDueSweepsOverdueBookings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID, _ := f.seedUser(t)
	variantID := f.seedVariant(t, 100, 1, 10)

	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Hour)
	overdueA := f.seedBooking(t, userID, enums.BookingStatusConfirmed, &past)
	overdueB := f.seedBooking(t, userID, enums.BookingStatusConfirmed, &past)
	pending := f.seedBooking(t, userID, enums.BookingStatusConfirmed, &future)
	f.seedLine(t, overdueA, variantID, 1, enums.CartLineStatusConfirmed)
	f.seedLine(t, overdueB, variantID, 1, enums.CartLineStatusConfirmed)
	f.seedLine(t, pending, variantID, 1, enums.CartLineStatusConfirmed)

	count, err := f.svc.ExpireDue(ctx, time.Now(), 0)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.True(t, f.bookingGone(t, overdueA))
	assert.True(t, f.bookingGone(t, overdueB))
	assert.Equal(t, enums.BookingStatusConfirmed, f.booking(t, pending).Status)
}

func TestListBookingsExcludesDraftsAndPaginates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID, _ := f.seedUser(t)
	variantID := f.seedVariant(t, 100, 1, 10)

	draft := f.seedBooking(t, userID, enums.BookingStatusDraft, nil)
	f.seedLine(t, draft, variantID, 1, enums.CartLineStatusDraft)
	for i := 0; i < 3; i++ {
		id := f.seedBooking(t, userID, enums.BookingStatusConfirmed, nil)
		f.seedLine(t, id, variantID, 1, enums.CartLineStatusConfirmed)
	}

	page, err := f.svc.ListBookings(ctx, userID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Bookings, 2)
	require.NotEmpty(t, page.NextCursor)
	for _, view := range page.Bookings {
		assert.NotEqual(t, enums.BookingStatusDraft, view.Status)
		assert.Len(t, view.Lines, 1)
		assert.Equal(t, "Steel Bottle 1L", view.Lines[0].Title)
		assert.Equal(t, "Acme Traders", view.Lines[0].SellerName)
	}

	rest, err := f.svc.ListBookings(ctx, userID, pagination.Params{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	assert.Len(t, rest.Bookings, 1)
	assert.Empty(t, rest.NextCursor)
}
