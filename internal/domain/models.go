// Package domain holds the storefront's data model: the signed-in principal,
// the server-authoritative catalog/cart/order entities the gateway mirrors,
// and the checkout types. Cart and Order are owned by the commerce API; the
// structs here are the client-side view, replaced wholesale on every sync.
package domain

import "time"

// Principal is the authenticated identity of the current shopper.
// It is created on successful login or registration and persisted by the
// session store until logout.
type Principal struct {
	ID          int64  `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

// Product is immutable from the gateway's perspective; it is refreshed
// only by re-fetching from the catalog.
type Product struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	UnitPrice     float64  `json:"price"`
	DiscountPrice *float64 `json:"discountPrice,omitempty"`
	StockQuantity int      `json:"stockQuantity"`
	ImageURL      string   `json:"imageUrl,omitempty"`
}

// EffectivePrice returns the discount price when one is set, else the unit
// price. A zero or negative discount counts as "not set", matching the
// commerce API's own total computation.
func (p Product) EffectivePrice() float64 {
	if p.DiscountPrice != nil && *p.DiscountPrice > 0 {
		return *p.DiscountPrice
	}
	return p.UnitPrice
}

// CartLine is one line of the cart. Lines are keyed by a server-assigned
// line id; the server merges duplicate products, so no two lines reference
// the same product.
type CartLine struct {
	ID       int64   `json:"id"`
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// Subtotal is quantity × effective price.
func (l CartLine) Subtotal() float64 {
	return float64(l.Quantity) * l.Product.EffectivePrice()
}

// Cart is the locally held mirror of the server-authoritative cart.
type Cart struct {
	OwnerID int64      `json:"ownerId"`
	Lines   []CartLine `json:"cartItems"`
}

// Total recomputes the cart total fresh on every call. It is never stored.
func (c *Cart) Total() float64 {
	if c == nil {
		return 0
	}
	var total float64
	for _, l := range c.Lines {
		total += l.Subtotal()
	}
	return total
}

// Line returns the line with the given id, or nil.
func (c *Cart) Line(lineID int64) *CartLine {
	if c == nil {
		return nil
	}
	for i := range c.Lines {
		if c.Lines[i].ID == lineID {
			return &c.Lines[i]
		}
	}
	return nil
}

// Clone returns a deep copy, so callers can hold a snapshot while the
// orchestrator replaces the mirror underneath.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	cp := &Cart{OwnerID: c.OwnerID}
	if c.Lines != nil {
		cp.Lines = make([]CartLine, len(c.Lines))
		copy(cp.Lines, c.Lines)
	}
	return cp
}

// ShippingAddress holds the delivery address. All fields are required
// non-empty at checkout.
type ShippingAddress struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

// MissingField returns the name of the first empty address field, or "".
func (a ShippingAddress) MissingField() string {
	switch {
	case a.Street == "":
		return "street"
	case a.City == "":
		return "city"
	case a.State == "":
		return "state"
	case a.ZipCode == "":
		return "zipCode"
	case a.Country == "":
		return "country"
	}
	return ""
}

// PaymentMethod enumerates the methods the commerce API accepts.
type PaymentMethod string

const (
	PaymentStripe     PaymentMethod = "STRIPE"
	PaymentPaypal     PaymentMethod = "PAYPAL"
	PaymentCreditCard PaymentMethod = "CREDIT_CARD"
)

// Valid reports whether m is one of the accepted methods.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentStripe, PaymentPaypal, PaymentCreditCard:
		return true
	}
	return false
}

// CheckoutRequest is the body submitted to POST /orders/{userId}/checkout.
type CheckoutRequest struct {
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	PaymentToken    string          `json:"paymentToken"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
}

// OrderLine is one line of a placed order, priced at checkout time.
type OrderLine struct {
	Product   Product `json:"product"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	Subtotal  float64 `json:"subtotal"`
}

// Order is created server-side on successful checkout; the gateway only
// ever reads it.
type Order struct {
	ID          int64       `json:"id"`
	OrderNumber string      `json:"orderNumber"`
	Status      string      `json:"status"`
	TotalAmount float64     `json:"totalAmount"`
	CreatedAt   time.Time   `json:"createdAt"`
	Lines       []OrderLine `json:"orderItems"`
}

// RecommendationEntry is one entry of a server-ranked list. The score is
// informational; the list is rendered in the order received.
type RecommendationEntry struct {
	ProductID   int64   `json:"productId"`
	ProductName string  `json:"productName"`
	Score       float64 `json:"score"`
}

// LoginRequest carries credentials to the commerce API's auth endpoint.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest carries the registration form.
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}

// CheckoutState is the state of one checkout attempt.
type CheckoutState string

const (
	CheckoutIdle       CheckoutState = "idle"
	CheckoutValidating CheckoutState = "validating"
	CheckoutSubmitting CheckoutState = "submitting"
	CheckoutConfirmed  CheckoutState = "confirmed"
	CheckoutRejected   CheckoutState = "rejected"
)

// CheckoutResult is the terminal outcome of one attempt. Order is set only
// in the confirmed state; Reason only in the rejected state.
type CheckoutResult struct {
	State     CheckoutState `json:"state"`
	Order     *Order        `json:"order,omitempty"`
	Reason    string        `json:"reason,omitempty"`
	CartTotal float64       `json:"cartTotal"`
}

// StorefrontMetrics is the snapshot served by GET /v1/metrics/storefront.
type StorefrontMetrics struct {
	CheckoutAttempts  int64   `json:"checkoutAttempts"`
	ConfirmedOrders   int64   `json:"confirmedOrders"`
	RejectedCheckouts int64   `json:"rejectedCheckouts"`
	CartMutations     int64   `json:"cartMutations"`
	ErrorRate         float64 `json:"errorRate"`
	CacheHitRate      float64 `json:"cacheHitRate"`
	Period            string  `json:"period"`
}
