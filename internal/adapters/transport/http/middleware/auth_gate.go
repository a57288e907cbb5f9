package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	customErrors "github.com/mslee98/crawl-back/internal/domain/auth/errors"
	"github.com/mslee98/crawl-back/internal/domain/auth/jwt"
)

const bearerScheme = "bearer"

// Authenticate verifies the bearer token carried by an Authorization header value.
func Authenticate(util jwt.JWTUtil, header string) (jwt.AccessClaims, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, bearerScheme) {
		return jwt.AccessClaims{}, customErrors.ErrInvalidToken
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return jwt.AccessClaims{}, customErrors.ErrInvalidToken
	}
	claims, err := util.ValidateAccessToken(token)
	if err != nil {
		return jwt.AccessClaims{}, customErrors.ErrInvalidToken
	}
	return claims, nil
}

// RequireBearer rejects requests without a valid bearer token and stores the claims
// in the request context for ClaimsFromContext.
func RequireBearer(util jwt.JWTUtil) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := Authenticate(util, c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Request = c.Request.WithContext(jwt.ContextWithClaims(c.Request.Context(), claims))
		c.Next()
	}
}
