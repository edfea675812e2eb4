package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vikramshaw/shopora-backend/api/controllers"
	"github.com/vikramshaw/shopora-backend/api/middleware"
	"github.com/vikramshaw/shopora-backend/internal/booking"
	"github.com/vikramshaw/shopora-backend/internal/cart"
	"github.com/vikramshaw/shopora-backend/internal/views"
	"github.com/vikramshaw/shopora-backend/internal/wishlist"
	"github.com/vikramshaw/shopora-backend/pkg/config"
	"github.com/vikramshaw/shopora-backend/pkg/logger"
	"github.com/vikramshaw/shopora-backend/pkg/redis"
)

// NewRouter wires the HTTP surface. The cart and booking paths keep the
// storefront's legacy spellings, including PUT /booking/confirm-Order.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisClient *redis.Client,
	cartService cart.Service,
	bookingService booking.Service,
	wishlistService wishlist.Service,
	viewsService views.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	var redisP controllers.Pinger
	if redisClient != nil {
		redisP = redisClient
	}
	rateLimit := middleware.RateLimit(cfg.RateLimit, nil, logg)
	if redisClient != nil {
		rateLimit = middleware.RateLimit(cfg.RateLimit, redisClient, logg)
	}
	auth := middleware.Auth(cfg.JWT, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/cart", func(r chi.Router) {
		r.Use(auth)
		r.Get("/{userId}", controllers.CartFetch(cartService, logg))

		r.Group(func(r chi.Router) {
			r.Use(rateLimit)
			r.Post("/", controllers.CartAdd(cartService, logg))
			r.Put("/addOne", controllers.CartAddOne(cartService, logg))
			r.Put("/removeOne", controllers.CartRemoveOne(cartService, logg))
			r.Delete("/", controllers.CartRemoveLine(cartService, logg))
			r.Post("/buy-now", controllers.CartBuyNow(cartService, logg))
			r.Post("/place-order", controllers.CartPlaceOrder(cartService, logg))
		})
	})

	r.Route("/booking", func(r chi.Router) {
		r.Use(auth)
		r.Put("/confirm-Order", controllers.BookingConfirmOrder(bookingService, logg))
		r.Put("/update-the-status", controllers.BookingUpdateStatus(bookingService, logg))
		r.Put("/cancel-cart-item", controllers.BookingCancelLine(bookingService, logg))
		r.Get("/{userId}", controllers.BookingHistory(bookingService, logg))
	})

	r.Route("/wishlist", func(r chi.Router) {
		r.Use(auth)
		r.Post("/", controllers.WishlistAddItem(wishlistService, logg))
		r.Delete("/", controllers.WishlistRemoveItem(wishlistService, logg))
		r.Get("/{userId}", controllers.WishlistList(wishlistService, logg))
	})

	r.Route("/views", func(r chi.Router) {
		r.Use(auth)
		r.Post("/", controllers.ViewsRecord(viewsService, logg))
		r.Get("/{userId}", controllers.ViewsHistory(viewsService, logg))
	})

	return r
}
