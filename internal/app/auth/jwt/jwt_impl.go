package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	customErrors "github.com/mslee98/crawl-back/internal/domain/auth/errors"
	jwt2 "github.com/mslee98/crawl-back/internal/domain/auth/jwt"
	"github.com/mslee98/crawl-back/internal/infra/config"
)

type JwtUtilImpl struct {
	secret    []byte
	accessTTL time.Duration
	issuer    string
	audience  string
	leeway    time.Duration
	now       func() time.Time
}

func NewJWTUtil(cfg *config.Config) (*JwtUtilImpl, error) {
	if len(cfg.JWTSecret) == 0 {
		return nil, customErrors.WrapInternal(errors.New("empty secret"), "NewJWTUtil")
	}
	if cfg.AccessTokenTTL <= 0 {
		return nil, customErrors.WrapInternal(errors.New("non-positive access ttl"), "NewJWTUtil")
	}
	return &JwtUtilImpl{
		secret:    []byte(cfg.JWTSecret),
		accessTTL: cfg.AccessTokenTTL,
		issuer:    cfg.Issuer,
		audience:  cfg.Audience,
		leeway:    cfg.Leeway,
		now:       time.Now,
	}, nil
}

// WithClock replaces the time source used for issuing and validating.
func (j *JwtUtilImpl) WithClock(now func() time.Time) *JwtUtilImpl {
	j.now = now
	return j
}

func (j *JwtUtilImpl) AccessTTL() time.Duration { return j.accessTTL }

func (j *JwtUtilImpl) GenerateAccessToken(subject, email string) (string, time.Time, error) {
	now := j.now()

	claims := jwt2.AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.accessTTL)),
			ID:        uuid.NewString(),
		},
		Email: email,
	}
	if j.audience != "" {
		claims.Audience = jwt.ClaimStrings{j.audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", time.Time{}, customErrors.WrapInternal(err, "sign access token")
	}

	return signed, claims.ExpiresAt.Time, nil
}

func (j *JwtUtilImpl) ValidateAccessToken(raw string) (jwt2.AccessClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(j.leeway),
		jwt.WithTimeFunc(j.now),
	}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}
	if j.audience != "" {
		opts = append(opts, jwt.WithAudience(j.audience))
	}

	token, err := jwt.ParseWithClaims(raw, &jwt2.AccessClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, customErrors.ErrInvalidToken
		}
		return j.secret, nil
	}, opts...)

	if err != nil || !token.Valid {
		return jwt2.AccessClaims{}, customErrors.ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwt2.AccessClaims)
	if !ok {
		return jwt2.AccessClaims{}, customErrors.WrapInternal(
			errors.New("claims not AccessClaims"), "ValidateAccessToken",
		)
	}
	if claims.Subject == "" {
		return jwt2.AccessClaims{}, customErrors.ErrInvalidToken
	}

	return *claims, nil
}
