package handler

import (
	"encoding/json"
	"net/http"

	"github.com/boddenberg/storefront-bff-go/internal/domain"
	"github.com/boddenberg/storefront-bff-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Checkout & orders
// ============================================================

func checkoutHandler(svc *service.CheckoutService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/checkout")
		defer span.End()

		var req domain.CheckoutRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		result, err := svc.Submit(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		status := http.StatusCreated
		if result.State == domain.CheckoutRejected {
			status = http.StatusUnprocessableEntity
		}
		writeJSON(w, status, result)
	}
}

func checkoutStateHandler(svc *service.CheckoutService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]domain.CheckoutState{"state": svc.State(r.Context())})
	}
}

func resetCheckoutHandler(svc *service.CheckoutService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.Reset(r.Context())
		writeJSON(w, http.StatusOK, map[string]domain.CheckoutState{"state": svc.State(r.Context())})
	}
}

func listOrdersHandler(svc *service.OrderService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/orders")
		defer span.End()

		orders, err := svc.History(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, orders)
	}
}

func getOrderHandler(svc *service.OrderService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/orders/{orderId}")
		defer span.End()

		orderID := parseIDParam(r, "orderId")
		if orderID == 0 {
			writeError(w, http.StatusBadRequest, "orderId must be a positive integer")
			return
		}

		order, err := svc.Get(ctx, orderID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, order)
	}
}
