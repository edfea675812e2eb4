package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vikramshaw/shopora-backend/pkg/db/models"
	pkgerrors "github.com/vikramshaw/shopora-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, conn.AutoMigrate(&models.Seller{}, &models.Product{}, &models.ProductVariant{}))
	return conn
}

func seedVariant(t *testing.T, db *gorm.DB, sellerName, productTitle, variantTitle string) models.ProductVariant {
	t.Helper()
	seller := models.Seller{ID: uuid.New(), DisplayName: sellerName}
	require.NoError(t, db.Create(&seller).Error)
	product := models.Product{ID: uuid.New(), SellerID: seller.ID, Title: productTitle}
	require.NoError(t, db.Create(&product).Error)
	variant := models.ProductVariant{
		ID:              uuid.New(),
		ProductID:       product.ID,
		Title:           variantTitle,
		SellingPrice:    decimal.NewFromInt(499),
		MRP:             decimal.NewFromInt(599),
		MinimumOrderQty: 2,
	}
	require.NoError(t, db.Create(&variant).Error)
	return variant
}

func TestVariantSummaryResolvesCatalogChain(t *testing.T) {
	db := newTestDB(t)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)
	ctx := context.Background()

	variant := seedVariant(t, db, "Acme Traders", "Steel Bottle", "Steel Bottle 1L")

	summary, err := svc.VariantSummary(ctx, variant.ID)
	require.NoError(t, err)
	assert.Equal(t, variant.ID, summary.VariantID)
	assert.Equal(t, "Steel Bottle 1L", summary.Title)
	assert.Equal(t, "Steel Bottle", summary.ProductTitle)
	assert.Equal(t, "Acme Traders", summary.SellerName)
	assert.Equal(t, 2, summary.MinimumOrderQty)
	assert.True(t, summary.SellingPrice.Equal(decimal.NewFromInt(499)))
}

func TestVariantSummaryNotFound(t *testing.T) {
	db := newTestDB(t)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)

	_, err = svc.VariantSummary(context.Background(), uuid.New())
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestVariantSummariesBatch(t *testing.T) {
	db := newTestDB(t)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)
	ctx := context.Background()

	first := seedVariant(t, db, "Acme Traders", "Steel Bottle", "Steel Bottle 1L")
	second := seedVariant(t, db, "Blue Mart", "Cotton Shirt", "Cotton Shirt M")

	summaries, err := svc.VariantSummaries(ctx, []uuid.UUID{first.ID, second.ID})
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "Acme Traders", summaries[first.ID].SellerName)
	assert.Equal(t, "Blue Mart", summaries[second.ID].SellerName)
}

func TestVariantSummariesEmptyInput(t *testing.T) {
	db := newTestDB(t)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)

	summaries, err := svc.VariantSummaries(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, summaries)
}
