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

// cartState holds the mirror for one user's cart. The mutex serializes
// every operation touching that cart; gen invalidates in-flight loads
// once a newer operation has started.
type cartState struct {
	mu   sync.Mutex
	cart *domain.Cart
	gen  uint64
}

// CartService orchestrates the client-side cart mirror. The server owns
// the cart: every mutation goes to the commerce API first and is followed
// by a full reload, never by a local patch. The mirror is replaced
// wholesale on every sync.
type CartService struct {
	gateway port.CartGateway
	session *SessionService
	metrics *observability.Metrics
	logger  *zap.Logger

	mu     sync.Mutex
	states map[int64]*cartState
}

// NewCartService creates a new cart service.
func NewCartService(gateway port.CartGateway, session *SessionService, metrics *observability.Metrics, logger *zap.Logger) *CartService {
	return &CartService{
		gateway: gateway,
		session: session,
		metrics: metrics,
		logger:  logger,
		states:  make(map[int64]*cartState),
	}
}

func (s *CartService) state(userID int64) *cartState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[userID]
	if !ok {
		st = &cartState{}
		s.states[userID] = st
	}
	return st
}

// Load fetches the authoritative cart and replaces the mirror. The fetch
// runs outside the cart lock; if another operation starts meanwhile, the
// stale result is discarded instead of installed.
func (s *CartService) Load(ctx context.Context) (*domain.Cart, error) {
	ctx, span := tracer.Start(ctx, "CartService.Load")
	defer span.End()

	p, err := s.session.Require(ctx)
	if err != nil {
		return nil, err
	}
	st := s.state(p.ID)

	st.mu.Lock()
	st.gen++
	gen := st.gen
	st.mu.Unlock()

	cart, err := s.gateway.GetCart(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.gen != gen {
		// A newer load or mutation won; hand back its mirror.
		return st.cart.Clone(), nil
	}
	st.cart = cart
	return cart.Clone(), nil
}

// Snapshot returns a copy of the current mirror, loading it first if this
// user's cart has not been fetched yet.
func (s *CartService) Snapshot(ctx context.Context) (*domain.Cart, error) {
	p, err := s.session.Require(ctx)
	if err != nil {
		return nil, err
	}
	st := s.state(p.ID)

	st.mu.Lock()
	cart := st.cart.Clone()
	st.mu.Unlock()
	if cart != nil {
		return cart, nil
	}
	return s.Load(ctx)
}

// Peek returns a copy of the current mirror without contacting the
// server, or nil when this user's cart has not been synced yet.
func (s *CartService) Peek(ctx context.Context) (*domain.Cart, error) {
	p, err := s.session.Require(ctx)
	if err != nil {
		return nil, err
	}
	st := s.state(p.ID)
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.cart.Clone(), nil
}

// Total recomputes the cart total from the current mirror. Pure over the
// mirror: a guest or an unsynced cart yields 0, never an error.
func (s *CartService) Total(ctx context.Context) float64 {
	p := s.session.Current(ctx)
	if p == nil {
		return 0
	}
	st := s.state(p.ID)
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.cart.Total()
}

// AddItem adds a product to the cart, then reloads the full cart.
func (s *CartService) AddItem(ctx context.Context, productID int64, quantity int) (*domain.Cart, error) {
	ctx, span := tracer.Start(ctx, "CartService.AddItem")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("product.id", productID),
		attribute.Int("quantity", quantity),
	)

	if productID <= 0 {
		return nil, &domain.ErrValidation{Field: "productId", Message: "required"}
	}
	if quantity < 1 {
		return nil, &domain.ErrValidation{Field: "quantity", Message: "must be at least 1"}
	}

	return s.mutate(ctx, "add", func(ctx context.Context, userID int64) error {
		return s.gateway.AddItem(ctx, userID, productID, quantity)
	})
}

// SetQuantity sets the quantity of one cart line. Setting the quantity the
// line already has is a no-op: no request is sent and the mirror is
// returned as-is.
func (s *CartService) SetQuantity(ctx context.Context, lineID int64, quantity int) (*domain.Cart, error) {
	ctx, span := tracer.Start(ctx, "CartService.SetQuantity")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("line.id", lineID),
		attribute.Int("quantity", quantity),
	)

	if quantity < 1 {
		return nil, &domain.ErrValidation{Field: "quantity", Message: "must be at least 1"}
	}

	p, err := s.session.Require(ctx)
	if err != nil {
		return nil, err
	}
	st := s.state(p.ID)
	st.mu.Lock()
	if line := st.cart.Line(lineID); line != nil {
		if line.Quantity == quantity {
			cart := st.cart.Clone()
			st.mu.Unlock()
			return cart, nil
		}
		// Pre-check against the last synced stock; the server re-checks
		// against live stock either way.
		if quantity > line.Product.StockQuantity {
			st.mu.Unlock()
			return nil, &domain.ErrValidation{Field: "quantity", Message: "exceeds available stock"}
		}
	}
	st.mu.Unlock()

	return s.mutate(ctx, "update", func(ctx context.Context, userID int64) error {
		return s.gateway.UpdateItemQuantity(ctx, userID, lineID, quantity)
	})
}

// RemoveLine deletes one cart line. Removing a line the server no longer
// has succeeds: the desired end state already holds.
func (s *CartService) RemoveLine(ctx context.Context, lineID int64) (*domain.Cart, error) {
	ctx, span := tracer.Start(ctx, "CartService.RemoveLine")
	defer span.End()
	span.SetAttributes(attribute.Int64("line.id", lineID))

	return s.mutate(ctx, "remove", func(ctx context.Context, userID int64) error {
		err := s.gateway.RemoveItem(ctx, userID, lineID)
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			s.logger.Debug("removed line already absent", zap.Int64("line_id", lineID))
			return nil
		}
		return err
	})
}

// Clear empties the cart server-side, then reloads.
func (s *CartService) Clear(ctx context.Context) (*domain.Cart, error) {
	ctx, span := tracer.Start(ctx, "CartService.Clear")
	defer span.End()

	return s.mutate(ctx, "clear", func(ctx context.Context, userID int64) error {
		return s.gateway.ClearCart(ctx, userID)
	})
}

// mutate runs one cart mutation under the cart lock: send the mutation,
// then fetch the full cart and replace the mirror. If the mutation fails
// in a way that leaves the server state unknown (context canceled
// mid-flight), the mirror is dropped so the next access reloads fresh.
func (s *CartService) mutate(ctx context.Context, op string, fn func(ctx context.Context, userID int64) error) (*domain.Cart, error) {
	p, err := s.session.Require(ctx)
	if err != nil {
		return nil, err
	}
	st := s.state(p.ID)

	start := time.Now()
	st.mu.Lock()
	defer st.mu.Unlock()
	st.gen++

	if err := fn(ctx, p.ID); err != nil {
		s.metrics.IncrCartMutation(op, "error")
		if ctx.Err() != nil {
			st.cart = nil
			s.logger.Warn("cart mutation interrupted, dropping mirror",
				zap.String("op", op),
				zap.Int64("user_id", p.ID))
		}
		return nil, err
	}

	cart, err := s.gateway.GetCart(ctx, p.ID)
	if err != nil {
		// Mutation landed but the reload failed: the mirror is stale,
		// drop it and surface the reload error.
		st.cart = nil
		s.metrics.IncrCartMutation(op, "error")
		return nil, err
	}
	st.cart = cart
	s.metrics.IncrCartMutation(op, "success")
	s.metrics.RecordRequestDuration("cart_"+op, time.Since(start))
	return cart.Clone(), nil
}

// Discard drops one user's mirror without touching the server.
func (s *CartService) Discard(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, userID)
}

// DiscardAll drops every mirror. Called on logout.
func (s *CartService) DiscardAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = make(map[int64]*cartState)
}
