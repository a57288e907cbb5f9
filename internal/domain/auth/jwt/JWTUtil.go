package jwt

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type AccessClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

type JWTUtil interface {
	GenerateAccessToken(subject, email string) (token string, exp time.Time, err error)
	ValidateAccessToken(token string) (claims AccessClaims, err error)
	AccessTTL() time.Duration
}

type claimsKey struct{}

func ContextWithClaims(ctx context.Context, c AccessClaims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

func ClaimsFromContext(ctx context.Context) (AccessClaims, bool) {
	c, ok := ctx.Value(claimsKey{}).(AccessClaims)
	return c, ok
}
