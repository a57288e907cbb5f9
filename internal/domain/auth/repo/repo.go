package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mslee98/crawl-back/internal/domain/auth/model"
)

// Lookup columns accepted by AccountRepo.Exists.
const (
	FieldLoginID  = "id"
	FieldEmail    = "email"
	FieldNickname = "nickname"
)

type AccountRepo interface {
	// CreateAccount returns a *errors.ConflictError when a unique column collides.
	CreateAccount(ctx context.Context, a model.Account) error

	Exists(ctx context.Context, field, value string) (bool, error)

	GetByLoginID(ctx context.Context, loginID string) (model.Account, error)

	GetByUUID(ctx context.Context, id uuid.UUID) (model.Account, error)
}

type RefreshTokenRepo interface {
	Create(ctx context.Context, t model.RefreshToken) error

	// FindActive returns the non-revoked row for token, or errors.ErrNotFound.
	// Expiry is left to the caller.
	FindActive(ctx context.Context, token string) (model.RefreshToken, error)

	// Revoke stamps revoked_at on a not yet revoked row. Unknown tokens are not an error.
	Revoke(ctx context.Context, token string, at time.Time) (bool, error)
}

type PlanRepo interface {
	Count(ctx context.Context) (int64, error)
	Insert(ctx context.Context, plans []model.SubscriptionPlan) error
}
