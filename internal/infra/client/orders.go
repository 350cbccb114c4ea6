package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/boddenberg/storefront-bff-go/internal/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// Checkout submits the checkout transaction exactly once; the transport
// never retries it. A client-generated idempotency key lets an upstream
// that supports it deduplicate a resubmitted request.
func (c *Client) Checkout(ctx context.Context, userID int64, req *domain.CheckoutRequest) (*domain.Order, error) {
	ctx, span := tracer.Start(ctx, "CommerceClient.Checkout")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("user.id", userID),
		attribute.String("payment.method", string(req.PaymentMethod)),
	)

	body, err := json.Marshal(req)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "orders", Err: fmt.Errorf("encode checkout request: %w", err)}
	}

	path := fmt.Sprintf("/orders/%d/checkout", userID)
	headers := map[string]string{"X-Idempotency-Key": uuid.New().String()}
	respBody, err := c.mutate(ctx, "orders", http.MethodPost, path, body, headers,
		"cart", strconv.FormatInt(userID, 10))
	if err != nil {
		return nil, err
	}

	var order domain.Order
	if err := json.Unmarshal(respBody, &order); err != nil {
		return nil, &domain.ErrExternalService{Service: "orders", Err: fmt.Errorf("malformed order payload: %w", err)}
	}
	if order.ID == 0 || order.OrderNumber == "" {
		return nil, &domain.ErrExternalService{Service: "orders", Err: fmt.Errorf("malformed order payload: missing id or order number")}
	}
	return &order, nil
}

// ListOrders fetches the user's order history, newest first (upstream order
// is preserved).
func (c *Client) ListOrders(ctx context.Context, userID int64) ([]domain.Order, error) {
	ctx, span := tracer.Start(ctx, "CommerceClient.ListOrders")
	defer span.End()
	span.SetAttributes(attribute.Int64("user.id", userID))

	var orders []domain.Order
	path := fmt.Sprintf("/orders/%d", userID)
	if err := c.getJSON(ctx, "orders", path, &orders, nil); err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

// GetOrder fetches one order by id.
func (c *Client) GetOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	ctx, span := tracer.Start(ctx, "CommerceClient.GetOrder")
	defer span.End()
	span.SetAttributes(attribute.Int64("order.id", orderID))

	var order domain.Order
	path := fmt.Sprintf("/orders/order/%d", orderID)
	notFound := &domain.ErrNotFound{Resource: "order", ID: strconv.FormatInt(orderID, 10)}
	if err := c.getJSON(ctx, "orders", path, &order, notFound); err != nil {
		return nil, err
	}
	if order.ID == 0 {
		return nil, &domain.ErrExternalService{Service: "orders", Err: fmt.Errorf("malformed order payload: missing id")}
	}
	return &order, nil
}
