package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/haven-app/haven-api/internal/core/domain"
)

// ResetTokenStore keeps password-reset tokens in Redis.
// Key format: pwreset:<token>, value: account email. Expiry is handled by
// the key TTL, so tokens die without any sweeper.
type ResetTokenStore struct {
	client *redis.Client
}

func NewResetTokenStore(client *redis.Client) *ResetTokenStore {
	return &ResetTokenStore{client: client}
}

func (s *ResetTokenStore) Save(ctx context.Context, resetToken, email string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(resetToken), email, ttl).Err(); err != nil {
		return fmt.Errorf("save reset token: %w", err)
	}
	return nil
}

// Consume atomically fetches and deletes the token, making it single-use.
func (s *ResetTokenStore) Consume(ctx context.Context, resetToken string) (string, error) {
	email, err := s.client.GetDel(ctx, s.key(resetToken)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domain.ErrResetTokenInvalid
		}
		return "", fmt.Errorf("consume reset token: %w", err)
	}
	return email, nil
}

func (s *ResetTokenStore) key(resetToken string) string {
	return "pwreset:" + resetToken
}
