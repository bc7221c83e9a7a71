package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"guessr/services"
)

// Context keys set by AuthMiddleware.
const (
	UserIDKey       = "user_id"
	SessionTokenKey = "session_token"
)

// Authenticator resolves a session token to a user id.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (uint, error)
}

// SessionToken returns the token from the session cookie, or from an
// Authorization bearer header when there is no cookie.
func SessionToken(c *gin.Context) string {
	if token, err := c.Cookie(SessionCookie); err == nil && token != "" {
		return token
	}
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

func AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := SessionToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Authentication credentials were not provided."})
			return
		}

		userID, err := auth.Authenticate(c.Request.Context(), token)
		switch {
		case errors.Is(err, services.ErrUnauthenticated):
			Logger(c).Debug().Err(err).Msg("authentication failed")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Invalid or expired session."})
			return
		case err != nil:
			Logger(c).Warn().Err(err).Msg("session check unavailable")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
			return
		}

		c.Set(UserIDKey, userID)
		c.Set(SessionTokenKey, token)
		c.Next()
	}
}
