package ports

import (
	"context"
	"time"

	"github.com/haven-app/haven-api/internal/core/token"
)

// PasswordHasher defines the password security contract. An interface so the
// service does not care which derivation algorithm backs it.
type PasswordHasher interface {
	Hash(ctx context.Context, password string) (string, error)
	Verify(ctx context.Context, password, stored string) (bool, error)
}

// TokenCodec mints and checks stateless bearer tokens. Verify returns nil
// for anything that should not be trusted; callers never see why.
type TokenCodec interface {
	Sign(userID int64, email string, ttl time.Duration) (string, error)
	Verify(tok string) *token.Claims
}
