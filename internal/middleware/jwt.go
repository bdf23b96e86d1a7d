package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/medassist/internal/pkg/errcode"
	"github.com/xxxsen/medassist/internal/pkg/jwt"
	"github.com/xxxsen/medassist/internal/pkg/response"
)

const (
	ContextUserIDKey    = "user_id"
	ContextSessionIDKey = "session_id"
	ContextGuestKey     = "guest"
)

// JWTAuth requires a bearer token. Guest tokens pass too; handlers that need
// a real account check Guest(c).
func JWTAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, errcode.ErrUnauthorized, "missing authorization")
			c.Abort()
			return
		}
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			response.Error(c, errcode.ErrUnauthorized, "invalid authorization")
			c.Abort()
			return
		}
		claims, err := jwt.ParseToken(strings.TrimSpace(token), secret)
		if err != nil {
			response.Error(c, errcode.ErrUnauthorized, "invalid token")
			c.Abort()
			return
		}
		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextSessionIDKey, claims.SessionID)
		c.Set(ContextGuestKey, claims.Guest)
		c.Next()
	}
}

func UserID(c *gin.Context) string {
	return c.GetString(ContextUserIDKey)
}

func SessionID(c *gin.Context) string {
	return c.GetString(ContextSessionIDKey)
}

func Guest(c *gin.Context) bool {
	return c.GetBool(ContextGuestKey)
}
