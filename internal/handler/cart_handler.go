package handler

import (
	"encoding/json"
	"net/http"

	"github.com/boddenberg/storefront-bff-go/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Cart
// ============================================================

// cartResponse always carries the freshly computed total next to the
// lines, so the frontend never derives it.
type cartResponse struct {
	OwnerID int64   `json:"ownerId"`
	Lines   any     `json:"cartItems"`
	Total   float64 `json:"total"`
}

type addItemRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

func getCartHandler(svc *service.CartService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/cart")
		defer span.End()

		cart, err := svc.Load(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, cartResponse{OwnerID: cart.OwnerID, Lines: cart.Lines, Total: cart.Total()})
	}
}

func addCartItemHandler(svc *service.CartService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/cart/items")
		defer span.End()

		var req addItemRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		span.SetAttributes(
			attribute.Int64("product.id", req.ProductID),
			attribute.Int("quantity", req.Quantity),
		)

		cart, err := svc.AddItem(ctx, req.ProductID, req.Quantity)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, cartResponse{OwnerID: cart.OwnerID, Lines: cart.Lines, Total: cart.Total()})
	}
}

func updateCartItemHandler(svc *service.CartService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/cart/items/{lineId}")
		defer span.End()

		lineID := parseIDParam(r, "lineId")
		if lineID == 0 {
			writeError(w, http.StatusBadRequest, "lineId must be a positive integer")
			return
		}

		var req updateItemRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		cart, err := svc.SetQuantity(ctx, lineID, req.Quantity)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, cartResponse{OwnerID: cart.OwnerID, Lines: cart.Lines, Total: cart.Total()})
	}
}

func removeCartItemHandler(svc *service.CartService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/cart/items/{lineId}")
		defer span.End()

		lineID := parseIDParam(r, "lineId")
		if lineID == 0 {
			writeError(w, http.StatusBadRequest, "lineId must be a positive integer")
			return
		}

		cart, err := svc.RemoveLine(ctx, lineID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, cartResponse{OwnerID: cart.OwnerID, Lines: cart.Lines, Total: cart.Total()})
	}
}

func cartTotalHandler(svc *service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]float64{"total": svc.Total(r.Context())})
	}
}

func clearCartHandler(svc *service.CartService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/cart")
		defer span.End()

		cart, err := svc.Clear(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, cartResponse{OwnerID: cart.OwnerID, Lines: cart.Lines, Total: cart.Total()})
	}
}
