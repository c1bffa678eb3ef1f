package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"shuttlebus/internal/auth"
	"shuttlebus/internal/domain"
)

const (
	userIDKey   = "userID"
	userRoleKey = "userRole"
)

// Auth requires a valid "Authorization: Bearer <jwt>" header and stores the user id and
// role on the context.
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":      "missing bearer token",
				"request_id": GetRequestID(c),
			})
			return
		}

		claims, err := auth.ValidateToken(strings.TrimSpace(token), secret)
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, auth.ErrExpiredToken) {
				msg = "token has expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":      msg,
				"request_id": GetRequestID(c),
			})
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Set(userRoleKey, claims.Role)
		c.Next()
	}
}

// CurrentUser returns the identity set by Auth.
func CurrentUser(c *gin.Context) domain.RequestContext {
	return domain.RequestContext{
		UserID: c.GetString(userIDKey),
		Role:   c.GetString(userRoleKey),
	}
}
