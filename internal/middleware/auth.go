package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/voxscholar/voxscholar/internal/config"
	"github.com/voxscholar/voxscholar/internal/response"
	"github.com/voxscholar/voxscholar/internal/service"
)

// ContextKeyUserID is the Gin context key for the resolved data scope.
const ContextKeyUserID = "user_id"

// AnonymousUserID is the shared scope used when auth is optional and no
// valid token was presented.
const AnonymousUserID = 0

// ResolveUser resolves the data scope from an optional bearer token.
//
// In optional mode an absent or invalid token falls back to the anonymous
// scope; in required mode it aborts with 401. A valid token always wins.
func ResolveUser(authService *service.AuthService, mode config.AuthMode) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := bearerToken(c)

		if tokenStr == "" {
			if mode == config.AuthRequired {
				response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
				return
			}
			c.Set(ContextKeyUserID, AnonymousUserID)
			c.Next()
			return
		}

		claims, err := authService.ValidateToken(tokenStr)
		if err != nil {
			if mode == config.AuthRequired {
				response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
				return
			}
			c.Set(ContextKeyUserID, AnonymousUserID)
			c.Next()
			return
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Next()
	}
}

// GetUserID retrieves the resolved scope from the Gin context.
func GetUserID(c *gin.Context) int {
	val, exists := c.Get(ContextKeyUserID)
	if !exists {
		return AnonymousUserID
	}
	id, ok := val.(int)
	if !ok {
		return AnonymousUserID
	}
	return id
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	return ""
}
