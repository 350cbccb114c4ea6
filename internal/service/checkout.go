package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/boddenberg/storefront-bff-go/internal/domain"
	"github.com/boddenberg/storefront-bff-go/internal/infra/observability"
	"github.com/boddenberg/storefront-bff-go/internal/port"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// CheckoutService drives the checkout flow: validate locally, submit the
// transaction exactly once, and settle in a terminal confirmed or rejected
// state. Flow state is kept per principal; a failed or rejected attempt
// returns that principal's flow to idle so the shopper can fix the cart
// and try again. There is no automatic retry.
type CheckoutService struct {
	orders  port.OrderGateway
	carts   *CartService
	session *SessionService
	metrics *observability.Metrics
	logger  *zap.Logger

	mu     sync.Mutex
	states map[int64]domain.CheckoutState
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(orders port.OrderGateway, carts *CartService, session *SessionService, metrics *observability.Metrics, logger *zap.Logger) *CheckoutService {
	return &CheckoutService{
		orders:  orders,
		carts:   carts,
		session: session,
		metrics: metrics,
		logger:  logger,
		states:  make(map[int64]domain.CheckoutState),
	}
}

// State returns the current phase of the shopper's checkout flow. Guests
// and principals without an attempt on record are idle.
func (s *CheckoutService) State(ctx context.Context) domain.CheckoutState {
	p := s.session.Current(ctx)
	if p == nil {
		return domain.CheckoutIdle
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.states[p.ID]; ok {
		return st
	}
	return domain.CheckoutIdle
}

func (s *CheckoutService) setState(userID int64, st domain.CheckoutState) {
	s.mu.Lock()
	s.states[userID] = st
	s.mu.Unlock()
}

// Submit runs one checkout attempt. Local validation failures never reach
// the network; they surface as ErrValidation and count as a rejected
// attempt. A server rejection comes back as a rejected CheckoutResult
// with the server's reason. Only a confirmed result carries an order.
func (s *CheckoutService) Submit(ctx context.Context, req *domain.CheckoutRequest) (*domain.CheckoutResult, error) {
	ctx, span := tracer.Start(ctx, "CheckoutService.Submit")
	defer span.End()

	p, err := s.session.Require(ctx)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int64("user.id", p.ID))

	s.mu.Lock()
	if cur := s.states[p.ID]; cur == domain.CheckoutValidating || cur == domain.CheckoutSubmitting {
		s.mu.Unlock()
		return nil, &domain.ErrValidation{Field: "checkout", Message: "a checkout attempt is already in progress"}
	}
	s.states[p.ID] = domain.CheckoutValidating
	s.mu.Unlock()

	start := time.Now()
	result, err := s.attempt(ctx, p, req)
	if err != nil {
		s.setState(p.ID, domain.CheckoutIdle)
		return nil, err
	}
	s.setState(p.ID, result.State)
	s.metrics.RecordRequestDuration("checkout", time.Since(start))
	return result, nil
}

// Reset returns the current shopper's settled flow to idle, ready for
// the next attempt.
func (s *CheckoutService) Reset(ctx context.Context) {
	if p := s.session.Current(ctx); p != nil {
		s.setState(p.ID, domain.CheckoutIdle)
	}
}

// ResetAll drops every flow state. Called on logout.
func (s *CheckoutService) ResetAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = make(map[int64]domain.CheckoutState)
}

func (s *CheckoutService) attempt(ctx context.Context, p *domain.Principal, req *domain.CheckoutRequest) (*domain.CheckoutResult, error) {
	if err := s.validate(ctx, req); err != nil {
		s.metrics.IncrCheckout("validation_failed")
		return nil, err
	}

	// A synced empty mirror fails right here; no request can change what
	// the shopper already sees.
	mirror, err := s.carts.Peek(ctx)
	if err != nil {
		return nil, err
	}
	if mirror != nil && len(mirror.Lines) == 0 {
		s.metrics.IncrCheckout("validation_failed")
		return nil, &domain.ErrValidation{Field: "cart", Message: "cart is empty"}
	}

	// Submit against a fresh cart, never the possibly stale mirror.
	cart, err := s.carts.Load(ctx)
	if err != nil {
		return nil, err
	}
	if len(cart.Lines) == 0 {
		s.metrics.IncrCheckout("validation_failed")
		return nil, &domain.ErrValidation{Field: "cart", Message: "cart is empty"}
	}
	total := cart.Total()

	s.setState(p.ID, domain.CheckoutSubmitting)
	order, err := s.orders.Checkout(ctx, p.ID, req)
	if err != nil {
		var rejected *domain.ErrRejected
		if errors.As(err, &rejected) {
			s.metrics.IncrCheckout("rejected")
			s.logger.Info("checkout rejected",
				zap.Int64("user_id", p.ID),
				zap.String("reason", rejected.Reason))
			return &domain.CheckoutResult{
				State:     domain.CheckoutRejected,
				Reason:    rejected.Reason,
				CartTotal: total,
			}, nil
		}
		return nil, err
	}

	s.metrics.IncrCheckout("confirmed")
	s.logger.Info("checkout confirmed",
		zap.Int64("user_id", p.ID),
		zap.String("order_number", order.OrderNumber),
		zap.Float64("total", order.TotalAmount))

	// The server cleared the cart as part of the order; refresh the mirror
	// to match. The order is already placed, so a failure here is only
	// worth a warning.
	if _, err := s.carts.Load(ctx); err != nil {
		s.logger.Warn("cart reload after checkout failed",
			zap.Int64("user_id", p.ID),
			zap.Error(err))
	}

	return &domain.CheckoutResult{
		State:     domain.CheckoutConfirmed,
		Order:     order,
		CartTotal: total,
	}, nil
}

func (s *CheckoutService) validate(ctx context.Context, req *domain.CheckoutRequest) error {
	_, span := tracer.Start(ctx, "CheckoutService.validate")
	defer span.End()

	if req == nil {
		return &domain.ErrValidation{Field: "body", Message: "required"}
	}
	if !req.PaymentMethod.Valid() {
		return &domain.ErrValidation{Field: "paymentMethod", Message: "must be STRIPE, PAYPAL or CREDIT_CARD"}
	}
	if req.PaymentToken == "" {
		return &domain.ErrValidation{Field: "paymentToken", Message: "required"}
	}
	if field := req.ShippingAddress.MissingField(); field != "" {
		return &domain.ErrValidation{Field: "shippingAddress." + field, Message: "required"}
	}
	return nil
}
