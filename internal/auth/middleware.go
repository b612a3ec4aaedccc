package auth

import (
	"net/http"
	"strings"

	"taskmanager/internal/dto"

	"github.com/gin-gonic/gin"
)

// SessionCookieName is the cookie carrying the session id.
const SessionCookieName = "session_id"

const contextKeyUserID = "user_id"

// UserIDFromContext returns the current user ID set by RequireUser. Empty if not set.
func UserIDFromContext(c *gin.Context) string {
	id, _ := c.Get(contextKeyUserID)
	s, _ := id.(string)
	return s
}

// RequireUser returns a middleware that resolves the caller from a bearer
// token, falling back to the session cookie, and sets the user ID in context.
// If neither identifies a user, it responds with 401. sessions may be nil.
func RequireUser(tokens *TokenManager, sessions *Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID, ok := fromBearer(c, tokens); ok {
			c.Set(contextKeyUserID, userID)
			c.Next()
			return
		}
		if userID, ok := fromSession(c, sessions); ok {
			c.Set(contextKeyUserID, userID)
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, dto.Fail("authorization required"))
	}
}

func fromBearer(c *gin.Context, tokens *TokenManager) (string, bool) {
	if tokens == nil {
		return "", false
	}
	h := c.GetHeader("Authorization")
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	claims, err := tokens.Verify(strings.TrimSpace(token))
	if err != nil {
		return "", false
	}
	return claims.Subject, true
}

func fromSession(c *gin.Context, sessions *Store) (string, bool) {
	if sessions == nil {
		return "", false
	}
	sessionID, err := c.Cookie(SessionCookieName)
	if err != nil || sessionID == "" {
		return "", false
	}
	return sessions.GetUserID(c.Request.Context(), sessionID)
}
