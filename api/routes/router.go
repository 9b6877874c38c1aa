package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/orderflow-backend/api/controllers"
	cartcontrollers "github.com/angelmondragon/orderflow-backend/api/controllers/cart"
	ordercontrollers "github.com/angelmondragon/orderflow-backend/api/controllers/orders"
	"github.com/angelmondragon/orderflow-backend/api/middleware"
	"github.com/angelmondragon/orderflow-backend/internal/cart"
	"github.com/angelmondragon/orderflow-backend/internal/checkout"
	"github.com/angelmondragon/orderflow-backend/internal/notifications"
	"github.com/angelmondragon/orderflow-backend/internal/orders"
	"github.com/angelmondragon/orderflow-backend/internal/profiles"
	"github.com/angelmondragon/orderflow-backend/pkg/config"
	"github.com/angelmondragon/orderflow-backend/pkg/enums"
	"github.com/angelmondragon/orderflow-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/orderflow-backend/pkg/redis"
)

// RedisStore is the slice of the Redis client the HTTP layer depends on.
type RedisStore interface {
	pkgredis.IdempotencyStore
	controllers.Pinger
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Deps carries the services mounted by NewRouter.
type Deps struct {
	DB            controllers.Pinger
	Redis         RedisStore
	Gatherer      prometheus.Gatherer
	Cart          cart.Service
	Checkout      checkout.Service
	Orders        orders.Service
	Profiles      profiles.Service
	Notifications notifications.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	placeOrderPolicy := middleware.NewRateLimitPolicy(
		"place-order",
		cfg.RateLimit.CheckoutWindow,
		cfg.RateLimit.CheckoutLimit,
	)

	ready := map[string]controllers.Pinger{}
	if deps.DB != nil {
		ready["database"] = deps.DB
	}
	if deps.Redis != nil {
		ready["redis"] = deps.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, ready))
	})

	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(deps.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.RoleUser))

			r.Route("/user/cart", func(r chi.Router) {
				r.Get("/", cartcontrollers.Get(deps.Cart, logg))
				r.Delete("/", cartcontrollers.Clear(deps.Cart, logg))
				r.Get("/count", cartcontrollers.Count(deps.Cart, logg))
				r.Post("/add", cartcontrollers.AddItem(deps.Cart, logg))
				r.Put("/items/{itemId}", cartcontrollers.UpdateItem(deps.Cart, logg))
				r.Delete("/items/{itemId}", cartcontrollers.RemoveItem(deps.Cart, logg))
			})

			r.Route("/user/orders", func(r chi.Router) {
				r.Get("/preview", ordercontrollers.Preview(deps.Checkout, logg))
				r.With(middleware.RateLimit(placeOrderPolicy, deps.Redis, logg)).
					Post("/", ordercontrollers.Place(deps.Checkout, logg))
				r.Get("/", ordercontrollers.List(deps.Orders, logg))
				r.Get("/{orderId}", ordercontrollers.Detail(deps.Orders, logg))
				r.Put("/{orderId}/cancel", ordercontrollers.Cancel(deps.Orders, logg))
			})

			r.Route("/user/profile", func(r chi.Router) {
				r.Get("/shipping", controllers.GetShippingProfile(deps.Profiles, logg))
				r.Put("/shipping", controllers.UpdateShippingProfile(deps.Profiles, logg))
			})

			r.Post("/payments/confirm", ordercontrollers.ConfirmPayment(deps.Orders, logg))
		})

		r.Route("/admin/orders", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.RoleAdmin))
			r.Get("/", ordercontrollers.AdminList(deps.Orders, logg))
			r.Get("/stats", ordercontrollers.AdminStats(deps.Orders, logg))
			r.Get("/status/{status}", ordercontrollers.AdminListByStatus(deps.Orders, logg))
			r.Get("/{orderId}", ordercontrollers.AdminDetail(deps.Orders, logg))
			r.Put("/{orderId}/status", ordercontrollers.AdminUpdateStatus(deps.Orders, logg))
			r.Post("/{orderId}/verify-delivery", ordercontrollers.AdminVerifyDelivery(deps.Orders, logg))
		})
	})

	return r
}
