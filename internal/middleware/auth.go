package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/agencia-digital/app-leads/internal/models"
	"github.com/agencia-digital/app-leads/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const claimsKey = "claims"

// ErrClaimsNotFound is returned when no authenticated claims are in context
var ErrClaimsNotFound = errors.New("claims not found")

// AuthMiddleware verifies the HS256 bearer token and stores its claims in
// the context
func AuthMiddleware(secret string) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			return
		}

		claims, err := parseToken(strings.TrimSpace(parts[1]), key)
		if err != nil {
			observability.Logger().Warn("rejected bearer token",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

func parseToken(tokenString string, key []byte) (*models.JWTClaims, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("token verification secret is not configured")
	}

	claims := &models.JWTClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// GetClaims returns the claims stored by AuthMiddleware
func GetClaims(c *gin.Context) (*models.JWTClaims, error) {
	value, exists := c.Get(claimsKey)
	if !exists {
		return nil, ErrClaimsNotFound
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil, fmt.Errorf("invalid claims type %T", value)
	}
	return claims, nil
}

// RequireAdmin rejects callers whose token lacks role
func RequireAdmin(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := GetClaims(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Claims not found"})
			return
		}

		if !claims.HasRole(role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin privileges required"})
			return
		}

		c.Next()
	}
}
