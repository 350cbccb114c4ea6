// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the service layer
// from the concrete commerce API client and local stores.
package port

import (
	"context"

	"github.com/boddenberg/storefront-bff-go/internal/domain"
)

// CatalogFetcher retrieves product data from the commerce API.
type CatalogFetcher interface {
	ListProducts(ctx context.Context, page, size int) ([]domain.Product, error)
	GetProduct(ctx context.Context, productID int64) (*domain.Product, error)
	SearchProducts(ctx context.Context, query string) ([]domain.Product, error)
}

// CartGateway performs cart operations against the server-authoritative cart.
// Mutations return no cart payload on purpose: callers re-fetch the full cart
// afterwards instead of patching locally.
type CartGateway interface {
	GetCart(ctx context.Context, userID int64) (*domain.Cart, error)
	AddItem(ctx context.Context, userID, productID int64, quantity int) error
	UpdateItemQuantity(ctx context.Context, userID, lineID int64, quantity int) error
	RemoveItem(ctx context.Context, userID, lineID int64) error
	ClearCart(ctx context.Context, userID int64) error
}

// OrderGateway submits checkouts and reads order history.
type OrderGateway interface {
	Checkout(ctx context.Context, userID int64, req *domain.CheckoutRequest) (*domain.Order, error)
	ListOrders(ctx context.Context, userID int64) ([]domain.Order, error)
	GetOrder(ctx context.Context, orderID int64) (*domain.Order, error)
}

// RecommendationFetcher retrieves server-ranked recommendation lists.
type RecommendationFetcher interface {
	RecommendationsForUser(ctx context.Context, userID int64, count int) ([]domain.RecommendationEntry, error)
	RecommendationsForGuest(ctx context.Context, count int) ([]domain.RecommendationEntry, error)
}

// Authenticator exchanges credentials for a principal. Password verification
// and hashing are entirely the commerce API's concern.
type Authenticator interface {
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.Principal, error)
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.Principal, error)
}

// SessionStore persists at most one principal record.
type SessionStore interface {
	Load(ctx context.Context) (*domain.Principal, error)
	Save(ctx context.Context, p *domain.Principal) error
	Delete(ctx context.Context) error
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}

// CartDropper is the slice of the cart orchestrator the session layer needs:
// discarding mirrors on logout so carts never leak across principals.
type CartDropper interface {
	Discard(userID int64)
	DiscardAll()
}

// CheckoutResetter drops checkout flow state on logout, so a fresh
// session never observes the previous shopper's terminal state.
type CheckoutResetter interface {
	ResetAll()
}
