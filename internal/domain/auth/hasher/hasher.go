package hasher

import (
	"context"
	"errors"
)

// ErrPasswordTooLong is returned by Hash when the input exceeds what the algorithm accepts.
var ErrPasswordTooLong = errors.New("password too long")

type PasswordHasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)
	// Verify returns false, nil on mismatch. An error means the digest could not be checked.
	Verify(ctx context.Context, plaintext, digest string) (bool, error)
}
