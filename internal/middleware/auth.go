package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/flicky/bakery-api/internal/model"
)

const sessionKey = "session"

type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*model.Session, error)
}

var errNoToken = errors.New("missing bearer token")

// bearerToken reads the Authorization header. Browsers cannot set headers on
// a WebSocket upgrade, so the access_token query parameter is accepted too.
func bearerToken(c *gin.Context) (string, error) {
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return header[7:], nil
	}
	if token := c.Query("access_token"); token != "" {
		return token, nil
	}
	return "", errNoToken
}

func AuthMiddleware(sessions SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		session, err := sessions.Resolve(c.Request.Context(), token)
		if err != nil || session == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(sessionKey, session)
		c.Next()
	}
}

func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !GetSession(c).IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin only"})
			return
		}
		c.Next()
	}
}

// GetSession returns nil outside AuthMiddleware.
func GetSession(c *gin.Context) *model.Session {
	v, _ := c.Get(sessionKey)
	s, _ := v.(*model.Session)
	return s
}

func GetUserID(c *gin.Context) uuid.UUID {
	if s := GetSession(c); s != nil {
		return s.UserID
	}
	return uuid.Nil
}
