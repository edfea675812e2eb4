package main

import (
	"context"
	"net/http"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vikramshaw/shopora-backend/api/routes"
	"github.com/vikramshaw/shopora-backend/internal/booking"
	"github.com/vikramshaw/shopora-backend/internal/cart"
	"github.com/vikramshaw/shopora-backend/internal/catalog"
	"github.com/vikramshaw/shopora-backend/internal/media"
	"github.com/vikramshaw/shopora-backend/internal/reservation"
	"github.com/vikramshaw/shopora-backend/internal/stock"
	"github.com/vikramshaw/shopora-backend/internal/views"
	"github.com/vikramshaw/shopora-backend/internal/wishlist"
	"github.com/vikramshaw/shopora-backend/pkg/config"
	"github.com/vikramshaw/shopora-backend/pkg/db"
	"github.com/vikramshaw/shopora-backend/pkg/logger"
	"github.com/vikramshaw/shopora-backend/pkg/metrics"
	"github.com/vikramshaw/shopora-backend/pkg/migrate"
	"github.com/vikramshaw/shopora-backend/pkg/redis"
)

// timerHandle defers binding the reservation timer: the booking service needs
// a canceler before the timer exists, and the timer needs the booking service
// as its expirer.
type timerHandle struct {
	timer *reservation.Timer
}

func (h *timerHandle) Cancel(bookingID uuid.UUID) {
	if h.timer != nil {
		h.timer.Cancel(bookingID)
	}
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	stockSvc, err := stock.NewService(stock.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create stock service", err)
		os.Exit(1)
	}
	catalogSvc, err := catalog.NewService(catalog.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}
	mediaSvc, err := media.NewService(media.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create media service", err)
		os.Exit(1)
	}

	checkoutMetrics := metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer)
	bookingRepo := booking.NewRepository(dbClient.DB())

	canceler := &timerHandle{}
	bookingSvc, err := booking.NewService(bookingRepo, dbClient, stockSvc, catalogSvc, mediaSvc, canceler, checkoutMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create booking service", err)
		os.Exit(1)
	}

	timer := reservation.NewTimer(bookingSvc, logg)
	defer timer.Stop()
	canceler.timer = timer

	cartSvc, err := cart.NewService(bookingRepo, dbClient, stockSvc, catalogSvc, bookingSvc, timer, cfg.Checkout.ReservationTTL, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	wishlistSvc, err := wishlist.NewService(wishlist.ServiceParams{
		WishlistRepo: wishlist.NewRepository(dbClient.DB()),
		Catalog:      catalogSvc,
		Media:        mediaSvc,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create wishlist service", err)
		os.Exit(1)
	}

	viewsSvc, err := views.NewService(views.ServiceParams{
		Repo:    views.NewRepository(dbClient.DB()),
		Catalog: catalogSvc,
		Counter: redisClient,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create views service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, cartSvc, bookingSvc, wishlistSvc, viewsSvc),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
