package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/boddenberg/storefront-bff-go/internal/domain"
	"github.com/boddenberg/storefront-bff-go/internal/infra/observability"

	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// ---- cache ----

type mapCache[T any] struct {
	mu sync.Mutex
	m  map[string]T
}

func newMapCache[T any]() *mapCache[T] { return &mapCache[T]{m: make(map[string]T)} }

func (c *mapCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[key]
	return v, ok
}

func (c *mapCache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = value
}

func (c *mapCache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, key)
}

// ---- session store ----

type mockSessionStore struct {
	mu        sync.Mutex
	principal *domain.Principal
	saveErr   error
}

func (s *mockSessionStore) Load(ctx context.Context) (*domain.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.principal, nil
}

func (s *mockSessionStore) Save(ctx context.Context, p *domain.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.principal = p
	return nil
}

func (s *mockSessionStore) Delete(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.principal = nil
	return nil
}

// ---- cart gateway ----

// mockCartGateway keeps a server-side cart and applies mutations to it the
// way the commerce API does, so reload-after-mutation is observable.
type mockCartGateway struct {
	mu     sync.Mutex
	lines  []domain.CartLine
	nextID int64

	getCalls    int
	addCalls    int
	updateCalls int
	removeCalls int
	clearCalls  int

	addErr    error
	updateErr error
	removeErr error
	getErr    error

	// gateNextGet arms these: the next GetCart snapshots the cart, signals
	// started, then stalls until release. Later GetCarts pass through.
	gateArmed  bool
	getStarted chan struct{}
	getRelease chan struct{}

	products map[int64]domain.Product
}

func newMockCartGateway() *mockCartGateway {
	return &mockCartGateway{nextID: 1, products: make(map[int64]domain.Product)}
}

func (g *mockCartGateway) seedProduct(p domain.Product) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.products[p.ID] = p
}

// gateNextGet makes the next GetCart block after reading the current cart
// state, so tests can slip a mutation in underneath an in-flight load.
func (g *mockCartGateway) gateNextGet() (started <-chan struct{}, release chan<- struct{}) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gateArmed = true
	g.getStarted = make(chan struct{})
	g.getRelease = make(chan struct{})
	return g.getStarted, g.getRelease
}

func (g *mockCartGateway) GetCart(ctx context.Context, userID int64) (*domain.Cart, error) {
	g.mu.Lock()
	g.getCalls++
	if g.getErr != nil {
		g.mu.Unlock()
		return nil, g.getErr
	}
	lines := make([]domain.CartLine, len(g.lines))
	copy(lines, g.lines)
	gated := g.gateArmed
	g.gateArmed = false
	started, release := g.getStarted, g.getRelease
	g.mu.Unlock()

	if gated {
		close(started)
		<-release
	}
	return &domain.Cart{OwnerID: userID, Lines: lines}, nil
}

func (g *mockCartGateway) AddItem(ctx context.Context, userID, productID int64, quantity int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.addCalls++
	if g.addErr != nil {
		return g.addErr
	}
	p, ok := g.products[productID]
	if !ok {
		return &domain.ErrNotFound{Resource: "product", ID: fmt.Sprint(productID)}
	}
	for i := range g.lines {
		if g.lines[i].Product.ID == productID {
			g.lines[i].Quantity += quantity
			return nil
		}
	}
	g.lines = append(g.lines, domain.CartLine{ID: g.nextID, Product: p, Quantity: quantity})
	g.nextID++
	return nil
}

func (g *mockCartGateway) UpdateItemQuantity(ctx context.Context, userID, lineID int64, quantity int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.updateCalls++
	if g.updateErr != nil {
		return g.updateErr
	}
	for i := range g.lines {
		if g.lines[i].ID == lineID {
			g.lines[i].Quantity = quantity
			return nil
		}
	}
	return &domain.ErrNotFound{Resource: "cart line", ID: fmt.Sprint(lineID)}
}

func (g *mockCartGateway) RemoveItem(ctx context.Context, userID, lineID int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.removeCalls++
	if g.removeErr != nil {
		return g.removeErr
	}
	for i := range g.lines {
		if g.lines[i].ID == lineID {
			g.lines = append(g.lines[:i], g.lines[i+1:]...)
			return nil
		}
	}
	return &domain.ErrNotFound{Resource: "cart line", ID: fmt.Sprint(lineID)}
}

func (g *mockCartGateway) ClearCart(ctx context.Context, userID int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clearCalls++
	g.lines = nil
	return nil
}

// ---- order gateway ----

type mockOrderGateway struct {
	mu            sync.Mutex
	checkoutCalls int
	checkoutErr   error
	order         *domain.Order
	orders        []domain.Order

	// onCheckout lets tests mutate the cart gateway when the order lands,
	// like the real upstream clearing the cart.
	onCheckout func()
}

func (g *mockOrderGateway) Checkout(ctx context.Context, userID int64, req *domain.CheckoutRequest) (*domain.Order, error) {
	g.mu.Lock()
	g.checkoutCalls++
	err := g.checkoutErr
	order := g.order
	hook := g.onCheckout
	g.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if hook != nil {
		hook()
	}
	return order, nil
}

func (g *mockOrderGateway) ListOrders(ctx context.Context, userID int64) ([]domain.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.orders, nil
}

func (g *mockOrderGateway) GetOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := range g.orders {
		if g.orders[i].ID == orderID {
			return &g.orders[i], nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "order", ID: fmt.Sprint(orderID)}
}

// ---- catalog / recommendations ----

type mockCatalog struct {
	mu          sync.Mutex
	products    []domain.Product
	listCalls   int
	searchCalls int
}

func (c *mockCatalog) ListProducts(ctx context.Context, page, size int) ([]domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listCalls++
	return c.products, nil
}

func (c *mockCatalog) GetProduct(ctx context.Context, productID int64) (*domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.products {
		if c.products[i].ID == productID {
			return &c.products[i], nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "product", ID: fmt.Sprint(productID)}
}

func (c *mockCatalog) SearchProducts(ctx context.Context, query string) ([]domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.searchCalls++
	return c.products, nil
}

type mockRecs struct {
	mu         sync.Mutex
	userCalls  int
	guestCalls int
	entries    []domain.RecommendationEntry
}

func (r *mockRecs) RecommendationsForUser(ctx context.Context, userID int64, count int) ([]domain.RecommendationEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.userCalls++
	return r.entries, nil
}

func (r *mockRecs) RecommendationsForGuest(ctx context.Context, count int) ([]domain.RecommendationEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.guestCalls++
	return r.entries, nil
}

// ---- authenticator ----

type mockAuthenticator struct {
	principal *domain.Principal
	err       error
}

func (a *mockAuthenticator) Login(ctx context.Context, req *domain.LoginRequest) (*domain.Principal, error) {
	if a.err != nil {
		return nil, a.err
	}
	return a.principal, nil
}

func (a *mockAuthenticator) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.Principal, error) {
	if a.err != nil {
		return nil, a.err
	}
	return a.principal, nil
}

// ---- fixtures ----

func signedInSession(t *testing.T, p *domain.Principal) *SessionService {
	t.Helper()
	store := &mockSessionStore{principal: p}
	return NewSessionService(store, newMapCache[*domain.Principal](), observability.NewMetrics(), zap.NewNop())
}

func guestSession(t *testing.T) *SessionService {
	t.Helper()
	return NewSessionService(&mockSessionStore{}, newMapCache[*domain.Principal](), observability.NewMetrics(), zap.NewNop())
}

func testPrincipal() *domain.Principal {
	return &domain.Principal{ID: 7, Email: "jo@example.com", DisplayName: "Jo"}
}

func newTestCartService(t *testing.T, gw *mockCartGateway) *CartService {
	t.Helper()
	session := signedInSession(t, testPrincipal())
	return NewCartService(gw, session, observability.NewMetrics(), zap.NewNop())
}

func mug() domain.Product {
	return domain.Product{ID: 101, Name: "Mug", UnitPrice: 10, StockQuantity: 50}
}

func shirt() domain.Product {
	return domain.Product{ID: 102, Name: "Shirt", UnitPrice: 25, StockQuantity: 20}
}

func validCheckout() *domain.CheckoutRequest {
	return &domain.CheckoutRequest{
		PaymentMethod: domain.PaymentStripe,
		PaymentToken:  "tok_visa",
		ShippingAddress: domain.ShippingAddress{
			Street: "1 Main St", City: "Springfield", State: "IL",
			ZipCode: "62701", Country: "US",
		},
	}
}
