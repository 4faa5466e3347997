package crypto

import (
	"context"
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltLength = 16
	keyLength  = 64

	// MinIterations is the floor for the PBKDF2 work factor. Configuration
	// may raise it, never lower it.
	MinIterations = 10000

	defaultMaxConcurrent = 4
)

// PBKDF2Hasher derives and verifies salted password hashes using
// PBKDF2-SHA512. The stored format is hex(salt) + ":" + hex(key), and the hex
// form of the salt is the derivation input, so hashes remain verifiable
// against records written by existing deployments.
type PBKDF2Hasher struct {
	iterations int
	sem        chan struct{}
}

// NewPBKDF2Hasher builds a hasher with the given work factor. Iterations
// below MinIterations are raised to it. maxConcurrent bounds how many
// derivations run in parallel, keeping a burst of signups from monopolising
// CPU that request handling needs.
func NewPBKDF2Hasher(iterations, maxConcurrent int) *PBKDF2Hasher {
	if iterations < MinIterations {
		iterations = MinIterations
	}
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}
	return &PBKDF2Hasher{
		iterations: iterations,
		sem:        make(chan struct{}, maxConcurrent),
	}
}

// Hash derives a key from password under a fresh random salt. Each call
// produces a distinct stored value for the same password.
func (h *PBKDF2Hasher) Hash(ctx context.Context, password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	if err := h.acquire(ctx); err != nil {
		return "", err
	}
	defer h.release()

	saltHex := hex.EncodeToString(salt)
	key := pbkdf2.Key([]byte(password), []byte(saltHex), h.iterations, keyLength, sha512.New)
	return saltHex + ":" + hex.EncodeToString(key), nil
}

// Verify reports whether password matches the stored hash. A structurally
// invalid stored value is treated as a mismatch, never an error: a corrupted
// row must read as "wrong password", not crash the login path. The derived
// key comparison is constant time.
func (h *PBKDF2Hasher) Verify(ctx context.Context, password, stored string) (bool, error) {
	saltHex, keyHex, ok := strings.Cut(stored, ":")
	if !ok || saltHex == "" || keyHex == "" {
		return false, nil
	}

	if err := h.acquire(ctx); err != nil {
		return false, err
	}
	defer h.release()

	derived := pbkdf2.Key([]byte(password), []byte(saltHex), h.iterations, keyLength, sha512.New)
	match := subtle.ConstantTimeCompare([]byte(hex.EncodeToString(derived)), []byte(keyHex)) == 1
	return match, nil
}

func (h *PBKDF2Hasher) acquire(ctx context.Context) error {
	// Checked first so an already-cancelled context never wins the slot.
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	select {
	case h.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *PBKDF2Hasher) release() {
	<-h.sem
}
