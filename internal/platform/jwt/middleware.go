// Package jwtmw はHMAC署名のJWTによる認証を提供します。
package jwtmw

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ContextSubject はトークンのsubクレームを格納するgin.Contextのキーです。
const ContextSubject = "subject"

// AuthRequired returns a Gin middleware function that validates JWT tokens
// signed with secret and restricts access to authenticated clients only.
func AuthRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Get Authorization header
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tokenStr := strings.TrimPrefix(auth, "Bearer ")

		// 2. Server misconfiguration (no secret)
		if secret == "" {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "server misconfigured"})
			return
		}

		// 3. Parse and verify JWT signature (only HMAC allowed)
		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		// 4. Extract subject
		if sub, err := token.Claims.GetSubject(); err == nil && sub != "" {
			c.Set(ContextSubject, sub)
		}
		c.Next()
	}
}
