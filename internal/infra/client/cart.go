package client

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/boddenberg/storefront-bff-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// wireCart mirrors the upstream cart payload. The owning user travels as a
// nested object; the line array may be absent for a fresh cart.
type wireCart struct {
	ID   int64 `json:"id"`
	User *struct {
		ID int64 `json:"id"`
	} `json:"user"`
	Items []domain.CartLine `json:"cartItems"`
}

// GetCart fetches the authoritative cart for the user. The upstream creates
// an empty cart on first access, so 404 is not expected here.
func (c *Client) GetCart(ctx context.Context, userID int64) (*domain.Cart, error) {
	ctx, span := tracer.Start(ctx, "CommerceClient.GetCart")
	defer span.End()
	span.SetAttributes(attribute.Int64("user.id", userID))

	var wire wireCart
	path := fmt.Sprintf("/cart/%d", userID)
	if err := c.getJSON(ctx, "cart", path, &wire, nil); err != nil {
		return nil, err
	}

	cart := &domain.Cart{OwnerID: userID, Lines: wire.Items}
	if cart.Lines == nil {
		cart.Lines = []domain.CartLine{}
	}
	for _, l := range cart.Lines {
		if l.ID == 0 || l.Product.ID == 0 || l.Quantity < 1 {
			return nil, &domain.ErrExternalService{
				Service: "cart",
				Err:     fmt.Errorf("malformed cart line payload (line id=%d)", l.ID),
			}
		}
	}
	return cart, nil
}

// AddItem adds a product to the cart. The response body (the created line)
// is deliberately discarded: callers observe the change by reloading the
// full cart.
func (c *Client) AddItem(ctx context.Context, userID, productID int64, quantity int) error {
	ctx, span := tracer.Start(ctx, "CommerceClient.AddItem")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("user.id", userID),
		attribute.Int64("product.id", productID),
		attribute.Int("quantity", quantity),
	)

	path := fmt.Sprintf("/cart/%d/add?productId=%d&quantity=%d", userID, productID, quantity)
	_, err := c.mutate(ctx, "cart", http.MethodPost, path, nil, nil,
		"product", strconv.FormatInt(productID, 10))
	return err
}

// UpdateItemQuantity sets the quantity of one cart line.
func (c *Client) UpdateItemQuantity(ctx context.Context, userID, lineID int64, quantity int) error {
	ctx, span := tracer.Start(ctx, "CommerceClient.UpdateItemQuantity")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("user.id", userID),
		attribute.Int64("line.id", lineID),
		attribute.Int("quantity", quantity),
	)

	path := fmt.Sprintf("/cart/%d/items/%d?quantity=%d", userID, lineID, quantity)
	_, err := c.mutate(ctx, "cart", http.MethodPut, path, nil, nil,
		"cart line", strconv.FormatInt(lineID, 10))
	return err
}

// RemoveItem deletes one cart line. A 404 surfaces as ErrNotFound; the
// orchestrator treats that as success for idempotency.
func (c *Client) RemoveItem(ctx context.Context, userID, lineID int64) error {
	ctx, span := tracer.Start(ctx, "CommerceClient.RemoveItem")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("user.id", userID),
		attribute.Int64("line.id", lineID),
	)

	path := fmt.Sprintf("/cart/%d/items/%d", userID, lineID)
	_, err := c.mutate(ctx, "cart", http.MethodDelete, path, nil, nil,
		"cart line", strconv.FormatInt(lineID, 10))
	return err
}

// ClearCart empties the user's cart server-side.
func (c *Client) ClearCart(ctx context.Context, userID int64) error {
	ctx, span := tracer.Start(ctx, "CommerceClient.ClearCart")
	defer span.End()
	span.SetAttributes(attribute.Int64("user.id", userID))

	path := fmt.Sprintf("/cart/%d/clear", userID)
	_, err := c.mutate(ctx, "cart", http.MethodDelete, path, nil, nil,
		"cart", strconv.FormatInt(userID, 10))
	return err
}
