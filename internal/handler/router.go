// Package handler exposes the storefront gateway's HTTP surface: the
// /v1 API consumed by the web frontend plus operational endpoints.
package handler

import (
	"net/http"

	"github.com/boddenberg/storefront-bff-go/internal/infra/observability"
	"github.com/boddenberg/storefront-bff-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Services bundles everything the router needs.
type Services struct {
	Catalog  *service.CatalogService
	Cart     *service.CartService
	Checkout *service.CheckoutService
	Orders   *service.OrderService
	Auth     *service.AuthService
	Session  *service.SessionService
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svcs Services, metrics *observability.Metrics, allowedOrigins []string, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	if len(allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   allowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler())
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// =============================================
		// Catalog
		// =============================================
		r.Get("/products", listProductsHandler(svcs.Catalog, logger))
		r.Get("/products/search", searchProductsHandler(svcs.Catalog, logger))
		r.Get("/products/{productId}", getProductHandler(svcs.Catalog, logger))
		r.Get("/home", homeHandler(svcs.Catalog, logger))
		r.Get("/recommendations", recommendationsHandler(svcs.Catalog, logger))

		// =============================================
		// Session & auth
		// =============================================
		r.Get("/session", sessionHandler(svcs.Session))
		r.Post("/auth/login", authLoginHandler(svcs.Auth, logger))
		r.Post("/auth/register", authRegisterHandler(svcs.Auth, logger))
		r.Post("/auth/logout", authLogoutHandler(svcs.Auth, logger))

		// =============================================
		// Cart
		// =============================================
		r.Get("/cart", getCartHandler(svcs.Cart, logger))
		r.Get("/cart/total", cartTotalHandler(svcs.Cart))
		r.Post("/cart/items", addCartItemHandler(svcs.Cart, logger))
		r.Put("/cart/items/{lineId}", updateCartItemHandler(svcs.Cart, logger))
		r.Delete("/cart/items/{lineId}", removeCartItemHandler(svcs.Cart, logger))
		r.Delete("/cart", clearCartHandler(svcs.Cart, logger))

		// =============================================
		// Checkout & orders
		// =============================================
		r.Post("/checkout", checkoutHandler(svcs.Checkout, logger))
		r.Get("/checkout/state", checkoutStateHandler(svcs.Checkout))
		r.Post("/checkout/reset", resetCheckoutHandler(svcs.Checkout))
		r.Get("/orders", listOrdersHandler(svcs.Orders, logger))
		r.Get("/orders/{orderId}", getOrderHandler(svcs.Orders, logger))

		// =============================================
		// Metrics snapshot
		// =============================================
		r.Get("/metrics/storefront", storefrontMetricsHandler(metrics))
	})

	return r
}

func healthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func storefrontMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetStorefrontSnapshot())
	}
}
