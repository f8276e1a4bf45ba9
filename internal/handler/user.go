package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// UserHeader carries the caller's user id. Authentication happens upstream.
const UserHeader = "X-User-ID"

const userKey = "user_id"

// UserMiddleware resolves the request user from UserHeader, falling back to
// fallback when the header is absent.
func UserMiddleware(fallback string) gin.HandlerFunc {
	fallback = strings.TrimSpace(fallback)
	return func(c *gin.Context) {
		user := strings.TrimSpace(c.GetHeader(UserHeader))
		if user == "" {
			user = fallback
		}
		if len(user) > 64 {
			Error(c, http.StatusBadRequest, "user id too long", nil)
			c.Abort()
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

func userID(c *gin.Context) string {
	if v, ok := c.Get(userKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return strings.TrimSpace(c.GetHeader(UserHeader))
}

// requireUser writes a 400 and returns false when no user resolved.
func requireUser(c *gin.Context) (string, bool) {
	user := userID(c)
	if user == "" {
		Error(c, http.StatusBadRequest, "missing "+UserHeader, nil)
		return "", false
	}
	return user, true
}
