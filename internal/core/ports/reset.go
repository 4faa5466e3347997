package ports

import (
	"context"
	"time"
)

// ResetTokenStore holds single-use password-reset tokens with a TTL.
type ResetTokenStore interface {
	Save(ctx context.Context, resetToken, email string, ttl time.Duration) error
	// Consume returns the email the token was issued for and invalidates it.
	// Unknown or expired tokens yield domain.ErrResetTokenInvalid.
	Consume(ctx context.Context, resetToken string) (string, error)
}

// ResetNotice is a queued request to deliver a password-reset link.
type ResetNotice struct {
	Email       string
	Token       string
	RequestedAt time.Time
}

// ResetNotifier delivers a reset notice to the account holder.
type ResetNotifier interface {
	Notify(ctx context.Context, notice ResetNotice) error
}

// ResetDispatcher hands notices to background workers so delivery cost never
// sits on the request path.
type ResetDispatcher interface {
	Enqueue(notice ResetNotice)
}
