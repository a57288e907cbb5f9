package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/mslee98/crawl-back/internal/adapters/transport/http/dto"
	customErrors "github.com/mslee98/crawl-back/internal/domain/auth/errors"
	"github.com/mslee98/crawl-back/internal/domain/auth/hasher"
	"github.com/mslee98/crawl-back/internal/domain/auth/jwt"
	"github.com/mslee98/crawl-back/internal/domain/auth/model"
	repo "github.com/mslee98/crawl-back/internal/domain/auth/repo"
	"github.com/mslee98/crawl-back/internal/infra/config"
	logx "github.com/mslee98/crawl-back/internal/infra/log"
	"github.com/mslee98/crawl-back/internal/infra/validate"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const refreshTokenBytes = 32

type Service interface {
	Signup(context.Context, dto.SignupDTO) (model.PublicAccount, error)
	// ValidateCredentials reports ok=false for an unknown id or a wrong password alike.
	ValidateCredentials(ctx context.Context, loginID, password string) (acc model.Account, ok bool, err error)
	Login(context.Context, dto.LoginDTO) (model.LoginResult, error)
	Refresh(context.Context, dto.RefreshDTO) (model.AccessResult, error)
	Logout(context.Context, dto.LogoutDTO) error
	GetProfile(ctx context.Context, id uuid.UUID) (model.PublicAccount, error)
}

type authService struct {
	accounts repo.AccountRepo
	tokens   repo.RefreshTokenRepo
	jwtUtil  jwt.JWTUtil
	hasher   hasher.PasswordHasher
	v        *validator.Validate
	log      *zap.Logger

	storeTimeout time.Duration
	storeRetries int
	refreshTTL   time.Duration

	// digest verified against when the login id is unknown
	dummyDigest string

	now      func() time.Time
	newToken func() (string, error)
}

type Option func(*authService)

// WithClock replaces the time source for refresh-token expiry.
func WithClock(now func() time.Time) Option {
	return func(a *authService) { a.now = now }
}

// WithTokenSource replaces the refresh-token generator.
func WithTokenSource(fn func() (string, error)) Option {
	return func(a *authService) { a.newToken = fn }
}

func New(
	ar repo.AccountRepo,
	tr repo.RefreshTokenRepo,
	jm jwt.JWTUtil,
	h hasher.PasswordHasher,
	cfg *config.Config,
	v *validator.Validate,
	log *zap.Logger,
	opts ...Option,
) (Service, error) {
	a := &authService{
		accounts:     ar,
		tokens:       tr,
		jwtUtil:      jm,
		hasher:       h,
		v:            v,
		log:          log,
		storeTimeout: cfg.StoreTimeout,
		storeRetries: cfg.StoreRetries,
		refreshTTL:   cfg.RefreshTokenTTL,
		now:          time.Now,
		newToken:     randomToken,
	}
	for _, o := range opts {
		o(a)
	}
	if a.storeRetries < 1 {
		a.storeRetries = 1
	}
	if a.log == nil {
		a.log = zap.NewNop()
	}

	seed, err := randomToken()
	if err != nil {
		return nil, customErrors.WrapInternal(err, "New")
	}
	if a.dummyDigest, err = h.Hash(context.Background(), seed); err != nil {
		return nil, customErrors.WrapInternal(err, "New")
	}
	return a, nil
}

func (a *authService) Signup(ctx context.Context, in dto.SignupDTO) (model.PublicAccount, error) {
	if err := validate.Struct(a.v, in); err != nil {
		return model.PublicAccount{}, err
	}
	nickname := firstNonEmpty(in.Nickname, in.Username)
	if nickname == "" {
		return model.PublicAccount{}, customErrors.NewFieldError(repo.FieldNickname, "required", "nickname is required")
	}

	// reported in this order when several collide
	checks := []struct{ field, value string }{
		{repo.FieldEmail, in.Email},
		{repo.FieldLoginID, in.ID},
		{repo.FieldNickname, nickname},
	}
	taken := make([]bool, len(checks))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range checks {
		g.Go(func() error {
			ok, err := retryRead(gctx, a.storeTimeout, a.storeRetries, func(ctx context.Context) (bool, error) {
				return a.accounts.Exists(ctx, c.field, c.value)
			})
			taken[i] = ok
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return model.PublicAccount{}, err
	}
	for i, c := range checks {
		if taken[i] {
			return model.PublicAccount{}, customErrors.NewConflict(c.field)
		}
	}

	digest, err := a.hasher.Hash(ctx, in.Password)
	switch {
	case errors.Is(err, hasher.ErrPasswordTooLong):
		return model.PublicAccount{}, customErrors.NewFieldError("password", "max", "password must be at most 72 bytes")
	case err != nil:
		return model.PublicAccount{}, customErrors.WrapInternal(err, "Signup")
	}

	acc := model.Account{
		UUID:         uuid.New(),
		LoginID:      in.ID,
		Email:        in.Email,
		Nickname:     nickname,
		PasswordHash: digest,
	}
	if _, err := storeCall(ctx, a.storeTimeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, a.accounts.CreateAccount(ctx, acc)
	}); err != nil {
		return model.PublicAccount{}, err
	}

	a.log.Info("account created", zap.String("uuid", acc.UUID.String()), logx.Digest("login", acc.LoginID))
	return acc.Public(), nil
}

func (a *authService) ValidateCredentials(ctx context.Context, loginID, password string) (model.Account, bool, error) {
	acc, err := retryRead(ctx, a.storeTimeout, a.storeRetries, func(ctx context.Context) (model.Account, error) {
		return a.accounts.GetByLoginID(ctx, loginID)
	})
	switch {
	case customErrors.IsNotFound(err):
		_, _ = a.hasher.Verify(ctx, password, a.dummyDigest)
		return model.Account{}, false, nil
	case err != nil:
		return model.Account{}, false, err
	}

	ok, err := a.hasher.Verify(ctx, password, acc.PasswordHash)
	if err != nil {
		return model.Account{}, false, customErrors.WrapInternal(err, "ValidateCredentials")
	}
	if !ok {
		return model.Account{}, false, nil
	}
	return acc, true, nil
}

func (a *authService) Login(ctx context.Context, in dto.LoginDTO) (model.LoginResult, error) {
	if err := validate.Struct(a.v, in); err != nil {
		return model.LoginResult{}, err
	}

	acc, ok, err := a.ValidateCredentials(ctx, in.ID, in.Password)
	if err != nil {
		return model.LoginResult{}, err
	}
	if !ok {
		a.log.Info("login rejected", logx.Digest("login", in.ID))
		return model.LoginResult{}, customErrors.ErrInvalidCredentials
	}

	bearer, err := a.issueBearer(acc)
	if err != nil {
		return model.LoginResult{}, err
	}

	token, err := a.newToken()
	if err != nil {
		return model.LoginResult{}, customErrors.WrapInternal(err, "GenerateRefreshToken")
	}
	now := a.now()
	row := model.RefreshToken{
		ID:        uuid.New(),
		UserID:    acc.UUID,
		Token:     token,
		ExpiresAt: now.Add(a.refreshTTL),
		CreatedAt: now,
	}
	if _, err := storeCall(ctx, a.storeTimeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, a.tokens.Create(ctx, row)
	}); err != nil {
		return model.LoginResult{}, err
	}

	return model.LoginResult{
		BearerToken:  bearer,
		RefreshToken: token,
		ExpiresIn:    a.jwtUtil.AccessTTL(),
		Account:      acc.Public(),
	}, nil
}

func (a *authService) Refresh(ctx context.Context, in dto.RefreshDTO) (model.AccessResult, error) {
	if err := validate.Struct(a.v, in); err != nil {
		return model.AccessResult{}, err
	}

	row, err := retryRead(ctx, a.storeTimeout, a.storeRetries, func(ctx context.Context) (model.RefreshToken, error) {
		return a.tokens.FindActive(ctx, in.RefreshToken)
	})
	switch {
	case customErrors.IsNotFound(err):
		return model.AccessResult{}, customErrors.ErrInvalidToken
	case err != nil:
		return model.AccessResult{}, err
	}
	if !row.Usable(a.now()) {
		return model.AccessResult{}, customErrors.ErrInvalidToken
	}

	acc, err := retryRead(ctx, a.storeTimeout, a.storeRetries, func(ctx context.Context) (model.Account, error) {
		return a.accounts.GetByUUID(ctx, row.UserID)
	})
	switch {
	case customErrors.IsNotFound(err):
		return model.AccessResult{}, customErrors.ErrInvalidToken
	case err != nil:
		return model.AccessResult{}, err
	}

	bearer, err := a.issueBearer(acc)
	if err != nil {
		return model.AccessResult{}, err
	}
	return model.AccessResult{BearerToken: bearer, ExpiresIn: a.jwtUtil.AccessTTL()}, nil
}

func (a *authService) Logout(ctx context.Context, in dto.LogoutDTO) error {
	if err := validate.Struct(a.v, in); err != nil {
		return err
	}

	revoked, err := retryRead(ctx, a.storeTimeout, a.storeRetries, func(ctx context.Context) (bool, error) {
		return a.tokens.Revoke(ctx, in.RefreshToken, a.now())
	})
	if err != nil {
		return err
	}
	a.log.Debug("logout", zap.Bool("revoked", revoked))
	return nil
}

func (a *authService) GetProfile(ctx context.Context, id uuid.UUID) (model.PublicAccount, error) {
	acc, err := retryRead(ctx, a.storeTimeout, a.storeRetries, func(ctx context.Context) (model.Account, error) {
		return a.accounts.GetByUUID(ctx, id)
	})
	if err != nil {
		return model.PublicAccount{}, err
	}
	return acc.Public(), nil
}

func (a *authService) issueBearer(acc model.Account) (string, error) {
	token, _, err := a.jwtUtil.GenerateAccessToken(acc.UUID.String(), acc.Email)
	if err != nil {
		return "", customErrors.WrapInternal(err, "GenerateAccessToken")
	}
	return token, nil
}

func randomToken() (string, error) {
	b := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
