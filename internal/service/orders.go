package service

import (
	"context"

	"github.com/boddenberg/storefront-bff-go/internal/domain"
	"github.com/boddenberg/storefront-bff-go/internal/port"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// OrderService serves the order history for the signed-in shopper.
type OrderService struct {
	orders  port.OrderGateway
	session *SessionService
	logger  *zap.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(orders port.OrderGateway, session *SessionService, logger *zap.Logger) *OrderService {
	return &OrderService{orders: orders, session: session, logger: logger}
}

// History returns the shopper's orders in the order the server ranks them.
func (s *OrderService) History(ctx context.Context) ([]domain.Order, error) {
	ctx, span := tracer.Start(ctx, "OrderService.History")
	defer span.End()

	p, err := s.session.Require(ctx)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int64("user.id", p.ID))
	return s.orders.ListOrders(ctx, p.ID)
}

// Get returns one order. Requires a signed-in shopper.
func (s *OrderService) Get(ctx context.Context, orderID int64) (*domain.Order, error) {
	ctx, span := tracer.Start(ctx, "OrderService.Get")
	defer span.End()
	span.SetAttributes(attribute.Int64("order.id", orderID))

	if _, err := s.session.Require(ctx); err != nil {
		return nil, err
	}
	return s.orders.GetOrder(ctx, orderID)
}
