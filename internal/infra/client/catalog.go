package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/boddenberg/storefront-bff-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// ListProducts fetches one page of the catalog. The upstream answers with
// either a Spring page envelope or a bare array; both are accepted.
func (c *Client) ListProducts(ctx context.Context, page, size int) ([]domain.Product, error) {
	ctx, span := tracer.Start(ctx, "CommerceClient.ListProducts")
	defer span.End()
	span.SetAttributes(attribute.Int("page", page), attribute.Int("size", size))

	var raw json.RawMessage
	path := fmt.Sprintf("/products?page=%d&size=%d", page, size)
	if err := c.getJSON(ctx, "products", path, &raw, nil); err != nil {
		return nil, err
	}
	return decodeProductList(c, raw)
}

// GetProduct fetches a single product by id.
func (c *Client) GetProduct(ctx context.Context, productID int64) (*domain.Product, error) {
	ctx, span := tracer.Start(ctx, "CommerceClient.GetProduct")
	defer span.End()
	span.SetAttributes(attribute.Int64("product.id", productID))

	var p domain.Product
	path := fmt.Sprintf("/products/%d", productID)
	notFound := &domain.ErrNotFound{Resource: "product", ID: strconv.FormatInt(productID, 10)}
	if err := c.getJSON(ctx, "products", path, &p, notFound); err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, &domain.ErrExternalService{Service: "products", Err: fmt.Errorf("malformed product payload: missing id")}
	}
	return &p, nil
}

// SearchProducts runs a full-text product search.
func (c *Client) SearchProducts(ctx context.Context, query string) ([]domain.Product, error) {
	ctx, span := tracer.Start(ctx, "CommerceClient.SearchProducts")
	defer span.End()

	var raw json.RawMessage
	path := "/products/search?q=" + url.QueryEscape(query)
	if err := c.getJSON(ctx, "products", path, &raw, nil); err != nil {
		return nil, err
	}
	return decodeProductList(c, raw)
}

// decodeProductList accepts either {"content": [...]} or [...].
func decodeProductList(c *Client, raw json.RawMessage) ([]domain.Product, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return []domain.Product{}, nil
	}

	var products []domain.Product
	if err := json.Unmarshal(raw, &products); err == nil {
		return products, nil
	}

	var envelope struct {
		Content []domain.Product `json:"content"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Content == nil {
		return nil, &domain.ErrExternalService{Service: "products", Err: fmt.Errorf("malformed product list payload")}
	}
	return envelope.Content, nil
}
