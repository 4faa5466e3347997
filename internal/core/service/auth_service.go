package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/haven-app/haven-api/internal/core/domain"
	"github.com/haven-app/haven-api/internal/core/ports"
)

const resetTokenBytes = 32

// AuthService implements signup, login, token validation and the
// password-reset flow. Each call is independent and stateless; transient
// store failures surface to the caller, who owns retry policy.
type AuthService struct {
	repo       ports.CredentialRepository
	hasher     ports.PasswordHasher
	codec      ports.TokenCodec
	resets     ports.ResetTokenStore
	dispatcher ports.ResetDispatcher
	resetTTL   time.Duration
}

func NewAuthService(
	repo ports.CredentialRepository,
	hasher ports.PasswordHasher,
	codec ports.TokenCodec,
	resets ports.ResetTokenStore,
	dispatcher ports.ResetDispatcher,
	resetTTL time.Duration,
) *AuthService {
	if resetTTL <= 0 {
		resetTTL = time.Hour
	}
	return &AuthService{
		repo:       repo,
		hasher:     hasher,
		codec:      codec,
		resets:     resets,
		dispatcher: dispatcher,
		resetTTL:   resetTTL,
	}
}

// Signup creates an account and issues a token for it. The existence check
// is advisory only: two signups racing past it are resolved by the store's
// unique index, which Create reports as domain.ErrUserExists.
func (s *AuthService) Signup(ctx context.Context, email, password, name string) (*ports.AuthResult, error) {
	if email == "" || password == "" || name == "" {
		return nil, domain.ErrMissingFields
	}

	_, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, domain.ErrUserExists
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	hash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.Create(ctx, &domain.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, err
	}

	tok, err := s.codec.Sign(user.ID, user.Email, 0)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &ports.AuthResult{Token: tok, User: user}, nil
}

// Login authenticates by email and password. Unknown accounts and wrong
// passwords produce the same error so responses never reveal whether an
// email is registered.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	if email == "" || password == "" {
		return nil, domain.ErrMissingFields
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	match, err := s.hasher.Verify(ctx, password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !match {
		return nil, domain.ErrInvalidCredentials
	}

	tok, err := s.codec.Sign(user.ID, user.Email, 0)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &ports.AuthResult{Token: tok, User: user}, nil
}

// Validate checks a bearer token and resolves it to the current account
// state. A token signed for an account deleted since issuance fails with
// domain.ErrUserNotFound.
func (s *AuthService) Validate(ctx context.Context, bearerToken string) (*domain.User, error) {
	if bearerToken == "" {
		return nil, domain.ErrMissingToken
	}

	claims := s.codec.Verify(bearerToken)
	if claims == nil {
		return nil, domain.ErrInvalidToken
	}

	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

// RequestPasswordReset issues a single-use reset token and queues delivery.
// It reports success whether or not the account exists, so the endpoint
// cannot be used to enumerate registered emails.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	if email == "" {
		return domain.ErrMissingFields
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil
		}
		return fmt.Errorf("find user: %w", err)
	}

	tok, err := newResetToken()
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}
	if err := s.resets.Save(ctx, tok, user.Email, s.resetTTL); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	s.dispatcher.Enqueue(ports.ResetNotice{
		Email:       user.Email,
		Token:       tok,
		RequestedAt: time.Now().UTC(),
	})
	return nil
}

// ConfirmPasswordReset trades a valid reset token for a password change.
// Consuming the token first makes it single-use even when hashing or the
// update fails afterwards.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, resetToken, newPassword string) error {
	if resetToken == "" || newPassword == "" {
		return domain.ErrMissingFields
	}

	email, err := s.resets.Consume(ctx, resetToken)
	if err != nil {
		return err
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrResetTokenInvalid
		}
		return fmt.Errorf("find user: %w", err)
	}

	hash, err := s.hasher.Hash(ctx, newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.repo.UpdatePassword(ctx, user.ID, hash)
}

func newResetToken() (string, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
