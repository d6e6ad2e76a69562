package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/craftyclassroom/classroom-api/internal/models"
	appErrors "github.com/craftyclassroom/classroom-api/pkg/errors"
	"github.com/craftyclassroom/classroom-api/pkg/response"
)

// ContextIdentityKey is the gin context key storing verified token claims.
const ContextIdentityKey = "identity"

// TokenVerifier validates a bearer token.
type TokenVerifier interface {
	Verify(token string) (*models.IdentityClaims, error)
}

// Gate requires a valid bearer token. A missing header is 401; anything
// else that fails is 403.
func Gate(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Abort(c, appErrors.ErrUnauthorized)
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			response.Abort(c, appErrors.Clone(appErrors.ErrForbidden, "invalid authorization header"))
			return
		}

		claims, err := verifier.Verify(strings.TrimSpace(parts[1]))
		if err != nil {
			_ = c.Error(err)
			response.Abort(c, appErrors.Clone(appErrors.ErrForbidden, appErrors.ErrInvalidToken.Message))
			return
		}

		c.Set(ContextIdentityKey, claims)
		c.Next()
	}
}

// IdentityFromContext returns the claims stored by Gate, or nil on an
// unprotected route.
func IdentityFromContext(c *gin.Context) *models.IdentityClaims {
	value, exists := c.Get(ContextIdentityKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.IdentityClaims)
	if !ok {
		return nil
	}
	return claims
}
