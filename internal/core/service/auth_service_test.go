package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/haven-app/haven-api/internal/core/crypto"
	"github.com/haven-app/haven-api/internal/core/domain"
	"github.com/haven-app/haven-api/internal/core/ports"
	"github.com/haven-app/haven-api/internal/core/token"
)

type stubCredentialRepo struct {
	users     map[string]*domain.User
	nextID    int64
	createErr error
}

func newStubCredentialRepo() *stubCredentialRepo {
	return &stubCredentialRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubCredentialRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	if u, ok := r.users[email]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubCredentialRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubCredentialRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	if _, exists := r.users[user.Email]; exists {
		return nil, domain.ErrUserExists
	}
	r.nextID++
	created := cloneUser(user)
	created.ID = r.nextID
	created.CreatedAt = time.Now().UTC()
	created.UpdatedAt = created.CreatedAt
	r.users[created.Email] = cloneUser(created)
	return created, nil
}

func (r *stubCredentialRepo) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	for _, u := range r.users {
		if u.ID == id {
			u.PasswordHash = passwordHash
			return nil
		}
	}
	return domain.ErrUserNotFound
}

type stubResetStore struct {
	tokens map[string]string
}

func newStubResetStore() *stubResetStore {
	return &stubResetStore{tokens: make(map[string]string)}
}

func (s *stubResetStore) Save(_ context.Context, resetToken, email string, _ time.Duration) error {
	s.tokens[resetToken] = email
	return nil
}

func (s *stubResetStore) Consume(_ context.Context, resetToken string) (string, error) {
	email, ok := s.tokens[resetToken]
	if !ok {
		return "", domain.ErrResetTokenInvalid
	}
	delete(s.tokens, resetToken)
	return email, nil
}

type stubDispatcher struct {
	notices []ports.ResetNotice
}

func (d *stubDispatcher) Enqueue(notice ports.ResetNotice) {
	d.notices = append(d.notices, notice)
}

type testEnv struct {
	svc        *AuthService
	repo       *stubCredentialRepo
	resets     *stubResetStore
	dispatcher *stubDispatcher
	codec      *token.Codec
}

func newTestEnv() *testEnv {
	repo := newStubCredentialRepo()
	resets := newStubResetStore()
	dispatcher := &stubDispatcher{}
	codec := token.NewCodec("secret", time.Hour)
	hasher := crypto.NewPBKDF2Hasher(crypto.MinIterations, 2)
	svc := NewAuthService(repo, hasher, codec, resets, dispatcher, time.Hour)
	return &testEnv{svc: svc, repo: repo, resets: resets, dispatcher: dispatcher, codec: codec}
}

func TestAuthService_Signup_Success(t *testing.T) {
	env := newTestEnv()

	result, err := env.svc.Signup(context.Background(), "a@x.com", "pw123", "Jane")
	if err != nil {
		t.Fatalf("Signup returned error: %v", err)
	}
	if result.User == nil || result.User.Email != "a@x.com" || result.User.Name != "Jane" {
		t.Fatalf("unexpected user: %+v", result.User)
	}
	if result.User.PasswordHash == "pw123" {
		t.Fatalf("expected password to be hashed")
	}

	claims := env.codec.Verify(result.Token)
	if claims == nil {
		t.Fatalf("issued token does not verify")
	}
	if claims.UserID != result.User.ID || claims.Email != "a@x.com" {
		t.Fatalf("unexpected token claims: %+v", claims)
	}
}

func TestAuthService_Signup_Validation(t *testing.T) {
	env := newTestEnv()

	cases := []struct{ email, password, name string }{
		{"", "pw", "Jane"},
		{"a@x.com", "", "Jane"},
		{"a@x.com", "pw", ""},
	}
	for _, tc := range cases {
		if _, err := env.svc.Signup(context.Background(), tc.email, tc.password, tc.name); !errors.Is(err, domain.ErrMissingFields) {
			t.Fatalf("expected ErrMissingFields for %+v, got %v", tc, err)
		}
	}
}

func TestAuthService_Signup_Duplicate(t *testing.T) {
	env := newTestEnv()

	if _, err := env.svc.Signup(context.Background(), "a@x.com", "pw123", "Jane"); err != nil {
		t.Fatalf("first signup failed: %v", err)
	}
	existing := env.repo.users["a@x.com"].PasswordHash

	if _, err := env.svc.Signup(context.Background(), "a@x.com", "pw2", "Jane2"); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	if env.repo.users["a@x.com"].PasswordHash != existing {
		t.Fatalf("duplicate signup must not alter the existing credential")
	}
}

// A signup that races past the existence check still surfaces the store's
// uniqueness violation as ErrUserExists.
func TestAuthService_Signup_RaceLostOnInsert(t *testing.T) {
	env := newTestEnv()
	env.repo.createErr = domain.ErrUserExists

	if _, err := env.svc.Signup(context.Background(), "a@x.com", "pw123", "Jane"); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	env := newTestEnv()

	if _, err := env.svc.Signup(context.Background(), "a@x.com", "pw123", "Jane"); err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	result, err := env.svc.Login(context.Background(), "a@x.com", "pw123")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if result.User == nil || result.User.Name != "Jane" {
		t.Fatalf("unexpected user: %+v", result.User)
	}
	if env.codec.Verify(result.Token) == nil {
		t.Fatalf("issued token does not verify")
	}
}

func TestAuthService_Login_UniformFailure(t *testing.T) {
	env := newTestEnv()

	if _, err := env.svc.Signup(context.Background(), "a@x.com", "pw123", "Jane"); err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	_, wrongPw := env.svc.Login(context.Background(), "a@x.com", "wrongpw")
	_, unknown := env.svc.Login(context.Background(), "ghost@x.com", "pw123")

	if !errors.Is(wrongPw, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", wrongPw)
	}
	if !errors.Is(unknown, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", unknown)
	}
}

func TestAuthService_Login_Validation(t *testing.T) {
	env := newTestEnv()

	if _, err := env.svc.Login(context.Background(), "", "pw"); !errors.Is(err, domain.ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}
	if _, err := env.svc.Login(context.Background(), "a@x.com", ""); !errors.Is(err, domain.ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}
}

func TestAuthService_Validate_Success(t *testing.T) {
	env := newTestEnv()

	signup, err := env.svc.Signup(context.Background(), "a@x.com", "pw123", "Jane")
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	user, err := env.svc.Validate(context.Background(), signup.Token)
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if user.ID != signup.User.ID || user.Name != "Jane" {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestAuthService_Validate_Failures(t *testing.T) {
	env := newTestEnv()

	if _, err := env.svc.Validate(context.Background(), ""); !errors.Is(err, domain.ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}
	if _, err := env.svc.Validate(context.Background(), "not.a.token"); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}

	foreign := token.NewCodec("other-secret", time.Hour)
	forged, err := foreign.Sign(1, "a@x.com", 0)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	if _, err := env.svc.Validate(context.Background(), forged); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong-secret token, got %v", err)
	}
}

func TestAuthService_Validate_DeletedUser(t *testing.T) {
	env := newTestEnv()

	signup, err := env.svc.Signup(context.Background(), "a@x.com", "pw123", "Jane")
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}
	delete(env.repo.users, "a@x.com")

	if _, err := env.svc.Validate(context.Background(), signup.Token); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestAuthService_RequestPasswordReset(t *testing.T) {
	env := newTestEnv()

	if _, err := env.svc.Signup(context.Background(), "a@x.com", "pw123", "Jane"); err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	if err := env.svc.RequestPasswordReset(context.Background(), "a@x.com"); err != nil {
		t.Fatalf("RequestPasswordReset returned error: %v", err)
	}
	if len(env.dispatcher.notices) != 1 {
		t.Fatalf("expected one queued notice, got %d", len(env.dispatcher.notices))
	}

	notice := env.dispatcher.notices[0]
	if notice.Email != "a@x.com" {
		t.Fatalf("unexpected notice email: %s", notice.Email)
	}
	if env.resets.tokens[notice.Token] != "a@x.com" {
		t.Fatalf("queued token was not stored")
	}
}

// Unknown emails succeed silently so the endpoint cannot be used to probe
// which addresses are registered.
func TestAuthService_RequestPasswordReset_UnknownEmail(t *testing.T) {
	env := newTestEnv()

	if err := env.svc.RequestPasswordReset(context.Background(), "ghost@x.com"); err != nil {
		t.Fatalf("expected silent success, got %v", err)
	}
	if len(env.dispatcher.notices) != 0 {
		t.Fatalf("no notice must be queued for unknown emails")
	}
}

func TestAuthService_ConfirmPasswordReset(t *testing.T) {
	env := newTestEnv()

	if _, err := env.svc.Signup(context.Background(), "a@x.com", "pw123", "Jane"); err != nil {
		t.Fatalf("signup failed: %v", err)
	}
	if err := env.svc.RequestPasswordReset(context.Background(), "a@x.com"); err != nil {
		t.Fatalf("reset request failed: %v", err)
	}
	resetToken := env.dispatcher.notices[0].Token

	if err := env.svc.ConfirmPasswordReset(context.Background(), resetToken, "newpw456"); err != nil {
		t.Fatalf("ConfirmPasswordReset returned error: %v", err)
	}

	if _, err := env.svc.Login(context.Background(), "a@x.com", "pw123"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("old password must stop working, got %v", err)
	}
	if _, err := env.svc.Login(context.Background(), "a@x.com", "newpw456"); err != nil {
		t.Fatalf("new password must work, got %v", err)
	}

	// Tokens are single-use.
	if err := env.svc.ConfirmPasswordReset(context.Background(), resetToken, "again789"); !errors.Is(err, domain.ErrResetTokenInvalid) {
		t.Fatalf("expected ErrResetTokenInvalid on reuse, got %v", err)
	}
}

func TestAuthService_ConfirmPasswordReset_UnknownToken(t *testing.T) {
	env := newTestEnv()

	if err := env.svc.ConfirmPasswordReset(context.Background(), "deadbeef", "newpw"); !errors.Is(err, domain.ErrResetTokenInvalid) {
		t.Fatalf("expected ErrResetTokenInvalid, got %v", err)
	}
}
