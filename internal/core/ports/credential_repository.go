package ports

import (
	"context"

	"github.com/haven-app/haven-api/internal/core/domain"
)

// CredentialRepository defines the persistence interface for user credentials.
// Implementations must enforce email uniqueness at the storage layer; a
// racing insert surfaces as domain.ErrUserExists, not a raw driver error.
type CredentialRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}
