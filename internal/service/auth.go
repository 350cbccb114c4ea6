package service

import (
	"context"
	"strings"

	"github.com/boddenberg/storefront-bff-go/internal/domain"
	"github.com/boddenberg/storefront-bff-go/internal/port"

	"go.uber.org/zap"
)

// AuthService drives login, registration and logout. Credential checks
// and password storage are entirely upstream: this layer only validates
// the form, forwards it, and establishes the local session on success.
type AuthService struct {
	auth    port.Authenticator
	session *SessionService
	logger  *zap.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(auth port.Authenticator, session *SessionService, logger *zap.Logger) *AuthService {
	return &AuthService{auth: auth, session: session, logger: logger}
}

// Login exchanges credentials for a principal and establishes the session.
func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.Principal, error) {
	ctx, span := tracer.Start(ctx, "AuthService.Login")
	defer span.End()

	if req == nil || strings.TrimSpace(req.Email) == "" {
		return nil, &domain.ErrValidation{Field: "email", Message: "required"}
	}
	if req.Password == "" {
		return nil, &domain.ErrValidation{Field: "password", Message: "required"}
	}

	p, err := s.auth.Login(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.session.Establish(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Register creates an account upstream and signs the new shopper in.
func (s *AuthService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.Principal, error) {
	ctx, span := tracer.Start(ctx, "AuthService.Register")
	defer span.End()

	if req == nil || strings.TrimSpace(req.Email) == "" {
		return nil, &domain.ErrValidation{Field: "email", Message: "required"}
	}
	if !strings.Contains(req.Email, "@") {
		return nil, &domain.ErrValidation{Field: "email", Message: "must be a valid email address"}
	}
	if len(req.Password) < 6 {
		return nil, &domain.ErrValidation{Field: "password", Message: "must be at least 6 characters"}
	}
	if strings.TrimSpace(req.FirstName) == "" {
		return nil, &domain.ErrValidation{Field: "firstName", Message: "required"}
	}
	if strings.TrimSpace(req.LastName) == "" {
		return nil, &domain.ErrValidation{Field: "lastName", Message: "required"}
	}

	p, err := s.auth.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.session.Establish(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Logout clears the session. Safe to call when already signed out.
func (s *AuthService) Logout(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "AuthService.Logout")
	defer span.End()

	return s.session.Clear(ctx)
}
