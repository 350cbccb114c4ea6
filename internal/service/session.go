// Package service provides the business logic layer (use cases): session
// lifecycle, cart orchestration against the server-authoritative cart,
// the checkout flow, and catalog/order/recommendation reads.
package service

import (
	"context"

	"github.com/boddenberg/storefront-bff-go/internal/domain"
	"github.com/boddenberg/storefront-bff-go/internal/infra/observability"
	"github.com/boddenberg/storefront-bff-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("service/storefront")

const sessionCacheKey = "principal"

// SessionService owns the authenticated-or-guest state of the gateway.
// At most one principal is persisted at a time; the TTL cache in front of
// the store keeps Current cheap enough to call on every request.
type SessionService struct {
	store     port.SessionStore
	cache     port.Cache[*domain.Principal]
	carts     port.CartDropper
	checkouts port.CheckoutResetter
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewSessionService creates a new session service. Carts and checkouts are
// wired after construction because those services need the session service
// first.
func NewSessionService(store port.SessionStore, cache port.Cache[*domain.Principal], metrics *observability.Metrics, logger *zap.Logger) *SessionService {
	return &SessionService{store: store, cache: cache, metrics: metrics, logger: logger}
}

// SetCartDropper wires the cart orchestrator so Clear can discard mirrors.
func (s *SessionService) SetCartDropper(carts port.CartDropper) {
	s.carts = carts
}

// SetCheckoutResetter wires the checkout flow so Clear can drop its state.
func (s *SessionService) SetCheckoutResetter(checkouts port.CheckoutResetter) {
	s.checkouts = checkouts
}

// Current returns the signed-in principal, or nil for a guest. A store
// read failure degrades to guest rather than failing the caller.
func (s *SessionService) Current(ctx context.Context) *domain.Principal {
	if p, ok := s.cache.Get(sessionCacheKey); ok {
		s.metrics.IncrCacheHit("session")
		return p
	}
	s.metrics.IncrCacheMiss("session")

	p, err := s.store.Load(ctx)
	if err != nil {
		s.logger.Warn("session load failed, treating as guest", zap.Error(err))
		return nil
	}
	if p != nil {
		s.cache.Set(sessionCacheKey, p)
	}
	return p
}

// Require returns the current principal or ErrUnauthenticated.
func (s *SessionService) Require(ctx context.Context) (*domain.Principal, error) {
	p := s.Current(ctx)
	if p == nil {
		return nil, &domain.ErrUnauthenticated{}
	}
	return p, nil
}

// Establish persists the principal as the single current session record,
// replacing whatever was there before.
func (s *SessionService) Establish(ctx context.Context, p *domain.Principal) error {
	ctx, span := tracer.Start(ctx, "SessionService.Establish")
	defer span.End()
	span.SetAttributes(attribute.Int64("user.id", p.ID))

	if err := s.store.Save(ctx, p); err != nil {
		return err
	}
	s.cache.Set(sessionCacheKey, p)
	s.logger.Info("session established",
		zap.Int64("user_id", p.ID),
		zap.String("email", p.Email))
	return nil
}

// Clear removes the persisted session and drops all cart mirrors and
// checkout flow state, so nothing leaks into the next principal's session.
func (s *SessionService) Clear(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "SessionService.Clear")
	defer span.End()

	s.cache.Delete(sessionCacheKey)
	if s.carts != nil {
		s.carts.DiscardAll()
	}
	if s.checkouts != nil {
		s.checkouts.ResetAll()
	}
	if err := s.store.Delete(ctx); err != nil {
		return err
	}
	s.logger.Info("session cleared")
	return nil
}
