package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/boddenberg/storefront-bff-go/internal/domain"
)

// wirePrincipal mirrors the upstream auth response. Registration omits the
// first name, so DisplayName may need filling from the request.
type wirePrincipal struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
}

// Login exchanges credentials for a principal. Invalid credentials come
// back as a 4xx with a server-supplied reason and surface as ErrRejected;
// password verification is entirely upstream.
func (c *Client) Login(ctx context.Context, req *domain.LoginRequest) (*domain.Principal, error) {
	ctx, span := tracer.Start(ctx, "CommerceClient.Login")
	defer span.End()

	return c.postAuth(ctx, "/auth/login", req, "")
}

// Register creates an account and returns the new principal.
func (c *Client) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.Principal, error) {
	ctx, span := tracer.Start(ctx, "CommerceClient.Register")
	defer span.End()

	return c.postAuth(ctx, "/auth/register", req, req.FirstName)
}

func (c *Client) postAuth(ctx context.Context, path string, payload any, fallbackName string) (*domain.Principal, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "auth", Err: fmt.Errorf("encode auth request: %w", err)}
	}

	respBody, err := c.mutate(ctx, "auth", http.MethodPost, path, body, nil, "account", "")
	if err != nil {
		return nil, err
	}

	var wire wirePrincipal
	if err := json.Unmarshal(respBody, &wire); err != nil {
		return nil, &domain.ErrExternalService{Service: "auth", Err: fmt.Errorf("malformed auth payload: %w", err)}
	}
	if wire.ID == 0 || wire.Email == "" {
		return nil, &domain.ErrExternalService{Service: "auth", Err: fmt.Errorf("malformed auth payload: missing id or email")}
	}

	name := wire.FirstName
	if name == "" {
		name = fallbackName
	}
	return &domain.Principal{ID: wire.ID, Email: wire.Email, DisplayName: name}, nil
}
