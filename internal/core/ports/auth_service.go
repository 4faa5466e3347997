package ports

import (
	"context"

	"github.com/haven-app/haven-api/internal/core/domain"
)

// AuthResult bundles a freshly issued bearer token with its subject.
type AuthResult struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

type AuthService interface {
	Signup(ctx context.Context, email, password, name string) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Validate(ctx context.Context, bearerToken string) (*domain.User, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, resetToken, newPassword string) error
}
