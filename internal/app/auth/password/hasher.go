package password

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alexedwards/argon2id"
	"github.com/mslee98/crawl-back/internal/domain/auth/hasher"
	"github.com/mslee98/crawl-back/internal/infra/config"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

var argonParams = &argon2id.Params{
	Memory:      64 * 1024, // 64 MiB
	Iterations:  2,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   32,
}

const argonPrefix = "$argon2id$"

// Hasher hashes with the configured algorithm and verifies digests of either kind.
type Hasher struct {
	algo string
	cost int
	sem  *semaphore.Weighted
}

var _ hasher.PasswordHasher = (*Hasher)(nil)

// New returns a hasher allowing at most concurrency hash operations at once.
func New(algo string, cost, concurrency int) *Hasher {
	if concurrency < 1 {
		concurrency = 1
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{
		algo: algo,
		cost: cost,
		sem:  semaphore.NewWeighted(int64(concurrency)),
	}
}

func NewFromConfig(cfg *config.Config) *Hasher {
	return New(cfg.PasswordHash, cfg.BcryptCost, cfg.HashConcurrency)
}

func (h *Hasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("hash: %w", err)
	}
	defer h.sem.Release(1)

	if h.algo == config.HashArgon2id {
		return argon2id.CreateHash(plaintext, argonParams)
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", hasher.ErrPasswordTooLong
	}
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(digest), nil
}

func (h *Hasher) Verify(ctx context.Context, plaintext, digest string) (bool, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, fmt.Errorf("verify: %w", err)
	}
	defer h.sem.Release(1)

	if strings.HasPrefix(digest, argonPrefix) {
		return argon2id.ComparePasswordAndHash(plaintext, digest)
	}

	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword), errors.Is(err, bcrypt.ErrPasswordTooLong):
		return false, nil
	default:
		return false, fmt.Errorf("bcrypt: %w", err)
	}
}
