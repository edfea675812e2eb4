package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vikramshaw/shopora-backend/internal/booking"
	"github.com/vikramshaw/shopora-backend/internal/cart"
	"github.com/vikramshaw/shopora-backend/internal/catalog"
	"github.com/vikramshaw/shopora-backend/internal/media"
	"github.com/vikramshaw/shopora-backend/internal/stock"
	"github.com/vikramshaw/shopora-backend/internal/views"
	"github.com/vikramshaw/shopora-backend/internal/wishlist"
	pkgAuth "github.com/vikramshaw/shopora-backend/pkg/auth"
	"github.com/vikramshaw/shopora-backend/pkg/config"
	"github.com/vikramshaw/shopora-backend/pkg/db/models"
	"github.com/vikramshaw/shopora-backend/pkg/enums"
	"github.com/vikramshaw/shopora-backend/pkg/logger"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type fixture struct {
	db     *gorm.DB
	router http.Handler
	cfg    *config.Config
}

func newFixture(t *testing.T, jwtEnabled bool) *fixture {
	t.Helper()
	dsn := "file:routes_" + uuid.NewString() + "?mode=memory&cache=shared"
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
		&models.WishlistItem{}, &models.ViewEvent{},
	))

	stockSvc, err := stock.NewService(stock.NewRepository(db))
	require.NoError(t, err)
	catalogSvc, err := catalog.NewService(catalog.NewRepository(db))
	require.NoError(t, err)
	mediaSvc, err := media.NewService(media.NewRepository(db))
	require.NoError(t, err)

	bookingRepo := booking.NewRepository(db)
	bookingSvc, err := booking.NewService(bookingRepo, gormTxRunner{db: db}, stockSvc, catalogSvc, mediaSvc, nil, nil, nil)
	require.NoError(t, err)
	cartSvc, err := cart.NewService(bookingRepo, gormTxRunner{db: db}, stockSvc, catalogSvc, bookingSvc, nil, 10*time.Minute, nil)
	require.NoError(t, err)
	wishlistSvc, err := wishlist.NewService(wishlist.ServiceParams{
		WishlistRepo: wishlist.NewRepository(db),
		Catalog:      catalogSvc,
		Media:        mediaSvc,
	})
	require.NoError(t, err)
	viewsSvc, err := views.NewService(views.ServiceParams{
		Repo:    views.NewRepository(db),
		Catalog: catalogSvc,
	})
	require.NoError(t, err)

	cfg := &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Enabled:           jwtEnabled,
			Secret:            "router-test-secret",
			Issuer:            "shopora",
			ExpirationMinutes: 60,
		},
	}
	logg := logger.New(logger.Options{ServiceName: "routes-test", Level: logger.ParseLevel("debug"), Output: io.Discard})

	router := NewRouter(cfg, logg, stubPinger{}, nil, cartSvc, bookingSvc, wishlistSvc, viewsSvc)
	return &fixture{db: db, router: router, cfg: cfg}
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

func (f *fixture) seedVariant(t *testing.T, stockQty int) uuid.UUID {
	t.Helper()
	seller := models.Seller{ID: uuid.New(), DisplayName: "Acme Traders"}
	require.NoError(t, f.db.Create(&seller).Error)
	product := models.Product{ID: uuid.New(), SellerID: seller.ID, Title: "Steel Bottle"}
	require.NoError(t, f.db.Create(&product).Error)
	variant := models.ProductVariant{
		ID: uuid.New(), ProductID: product.ID, Title: "Steel Bottle 1L",
		SellingPrice: decimal.NewFromInt(500), MRP: decimal.NewFromInt(600),
		MinimumOrderQty: 1,
	}
	require.NoError(t, f.db.Create(&variant).Error)
	require.NoError(t, f.db.Create(&models.StockRecord{VariantID: variant.ID, AvailableQty: stockQty}).Error)
	return variant.ID
}

func (f *fixture) do(t *testing.T, method, path string, payload any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp := httptest.NewRecorder()
	f.router.ServeHTTP(resp, req)
	return resp
}

func decodeData(t *testing.T, resp *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return envelope.Data
}

func TestCheckoutFlowOverHTTP(t *testing.T) {
	f := newFixture(t, false)
	userID, addressID := f.seedUser(t)
	variantID := f.seedVariant(t, 10)

	// Add to cart.
	resp := f.do(t, http.MethodPost, "/cart", map[string]any{
		"userId":    userID.String(),
		"variantId": variantID.String(),
		"cartQty":   2,
	}, nil)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	cartData := decodeData(t, resp)
	bookingID := cartData["booking_id"].(string)
	lines := cartData["lines"].([]any)
	require.Len(t, lines, 1)
	lineID := lines[0].(map[string]any)["id"].(string)

	// Duplicate variant is rejected.
	resp = f.do(t, http.MethodPost, "/cart", map[string]any{
		"userId":    userID.String(),
		"variantId": variantID.String(),
		"cartQty":   1,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	// +1 quantity, addressed by cart_id alone.
	resp = f.do(t, http.MethodPut, "/cart/addOne", map[string]any{
		"cart_id": lineID,
	}, nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	// Fetch the cart.
	resp = f.do(t, http.MethodGet, "/cart/"+userID.String(), nil, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	cartData = decodeData(t, resp)
	lines = cartData["lines"].([]any)
	require.Len(t, lines, 1)
	assert.Equal(t, float64(3), lines[0].(map[string]any)["quantity"])

	// Place the order with the client-computed total.
	resp = f.do(t, http.MethodPost, "/cart/place-order", map[string]any{
		"userId":      userID.String(),
		"cartIds":     []string{lineID},
		"totalAmount": 1500,
	}, nil)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	placedData := decodeData(t, resp)
	assert.Equal(t, "1500", placedData["amount"])

	// Confirm with an address; stock is taken here.
	resp = f.do(t, http.MethodPut, "/booking/confirm-Order", map[string]any{
		"userId":    userID.String(),
		"bookingID": bookingID,
		"addressId": addressID.String(),
	}, nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	confirmData := decodeData(t, resp)
	assert.Equal(t, float64(1), confirmData["status_code"])

	var record models.StockRecord
	require.NoError(t, f.db.First(&record, "variant_id = ?", variantID).Error)
	assert.Equal(t, 7, record.AvailableQty)

	// Order history includes the confirmed booking.
	resp = f.do(t, http.MethodGet, "/booking/"+userID.String(), nil, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	historyData := decodeData(t, resp)
	bookings := historyData["bookings"].([]any)
	require.Len(t, bookings, 1)

	// Advance the line; booking follows.
	resp = f.do(t, http.MethodPut, "/booking/update-the-status", map[string]any{
		"bookingId": bookingID,
		"cartId":    lineID,
		"status":    2.5,
	}, nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	advanceData := decodeData(t, resp)
	assert.Equal(t, 2.5, advanceData["status_code"])

	resp = f.do(t, http.MethodPut, "/booking/cancel-cart-item", map[string]any{
		"bookingId": bookingID,
		"cartId":    lineID,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code) // packed lines cannot be cancelled
}

func TestBuyNowAndWishlistAndViews(t *testing.T) {
	f := newFixture(t, false)
	userID, _ := f.seedUser(t)
	variantID := f.seedVariant(t, 5)

	resp := f.do(t, http.MethodPost, "/cart/buy-now", map[string]any{
		"userId":    userID.String(),
		"variantId": variantID.String(),
		"cartQty":   1,
		"amount":    100,
	}, nil)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	data := decodeData(t, resp)
	assert.NotEmpty(t, data["expires_at"])
	assert.Equal(t, "100", data["amount"])

	resp = f.do(t, http.MethodPost, "/wishlist", map[string]any{
		"userId":    userID.String(),
		"variantId": variantID.String(),
	}, nil)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	resp = f.do(t, http.MethodGet, "/wishlist/"+userID.String(), nil, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	wishlistData := decodeData(t, resp)
	require.Len(t, wishlistData["items"].([]any), 1)

	resp = f.do(t, http.MethodPost, "/views", map[string]any{
		"userId":    userID.String(),
		"variantId": variantID.String(),
	}, nil)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	resp = f.do(t, http.MethodGet, "/views/"+userID.String(), nil, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var viewEnvelope struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&viewEnvelope))
	require.Len(t, viewEnvelope.Data, 1)
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	f := newFixture(t, false)

	resp := f.do(t, http.MethodGet, "/health/live", nil, nil)
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = f.do(t, http.MethodGet, "/health/ready", nil, nil)
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = f.do(t, http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestAuthEnabledGuardsCartRoutes(t *testing.T) {
	f := newFixture(t, true)
	userID, _ := f.seedUser(t)
	variantID := f.seedVariant(t, 5)

	payload := map[string]any{
		"userId":    userID.String(),
		"variantId": variantID.String(),
		"cartQty":   1,
	}

	// No token.
	resp := f.do(t, http.MethodPost, "/cart", payload, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	// Token subject mismatching the body userId.
	otherToken := mintToken(t, f.cfg, uuid.New())
	resp = f.do(t, http.MethodPost, "/cart", payload, map[string]string{
		"Authorization": "Bearer " + otherToken,
	})
	assert.Equal(t, http.StatusForbidden, resp.Code)

	// Matching token.
	token := mintToken(t, f.cfg, userID)
	resp = f.do(t, http.MethodPost, "/cart", payload, map[string]string{
		"Authorization": "Bearer " + token,
	})
	assert.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
}

func mintToken(t *testing.T, cfg *config.Config, userID uuid.UUID) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: userID,
		Email:  fmt.Sprintf("%s@example.com", userID),
		JTI:    uuid.NewString(),
	})
	require.NoError(t, err)
	return token
}
